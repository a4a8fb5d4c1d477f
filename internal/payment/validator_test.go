package payment_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Leandro1530/CinemaWeb-v4/internal/model"
	"github.com/Leandro1530/CinemaWeb-v4/internal/payment"
)

// anchor keeps expiry checks deterministic.
var anchor = time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)

func validVisa() model.CardPayload {
	return model.CardPayload{
		Number:   "4111111111111111",
		Holder:   "Ada Lovelace",
		CVV:      "123",
		ExpMonth: 12,
		ExpYear:  2031,
	}
}

func TestValidate_ValidCards(t *testing.T) {
	cases := []struct {
		name  string
		card  model.CardPayload
		brand model.CardBrand
	}{
		{"visa 16", validVisa(), model.BrandVisa},
		{"visa 13", model.CardPayload{Number: "4222222222222", Holder: "Ada Lovelace", CVV: "123", ExpMonth: 1, ExpYear: 2028}, model.BrandVisa},
		{"mastercard legacy", model.CardPayload{Number: "5500000000000004", Holder: "Grace Hopper", CVV: "321", ExpMonth: 6, ExpYear: 2027}, model.BrandMastercard},
		{"mastercard 2-series", model.CardPayload{Number: "2221000000000009", Holder: "Grace Hopper", CVV: "321", ExpMonth: 6, ExpYear: 2027}, model.BrandMastercard},
		{"amex", model.CardPayload{Number: "340000000000009", Holder: "Alan Turing", CVV: "1234", ExpMonth: 3, ExpYear: 2027}, model.BrandAmex},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := payment.Validate(tc.card, anchor)
			assert.True(t, res.Valid, "reasons: %v", res.Reasons)
			assert.Equal(t, tc.brand, res.Brand)
			assert.Empty(t, res.Reasons)
		})
	}
}

func TestValidate_LuhnMismatch(t *testing.T) {
	card := validVisa()
	card.Number = "4111111111111112"
	res := payment.Validate(card, anchor)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Reasons, model.ReasonLuhnMismatch)
}

func TestValidate_EmptyNumber(t *testing.T) {
	card := validVisa()
	card.Number = ""
	res := payment.Validate(card, anchor)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Reasons, model.ReasonInvalidNumber)
}

func TestValidate_Expiry(t *testing.T) {
	t.Run("current month still valid", func(t *testing.T) {
		card := validVisa()
		card.ExpMonth = 8
		card.ExpYear = 2026
		assert.True(t, payment.Validate(card, anchor).Valid)
	})
	t.Run("previous month expired", func(t *testing.T) {
		card := validVisa()
		card.ExpMonth = 7
		card.ExpYear = 2026
		res := payment.Validate(card, anchor)
		assert.False(t, res.Valid)
		assert.Contains(t, res.Reasons, model.ReasonCardExpired)
	})
	t.Run("two digit year normalized", func(t *testing.T) {
		card := validVisa()
		card.ExpMonth = 12
		card.ExpYear = 27
		assert.True(t, payment.Validate(card, anchor).Valid)
	})
	t.Run("month out of range", func(t *testing.T) {
		card := validVisa()
		card.ExpMonth = 13
		res := payment.Validate(card, anchor)
		assert.False(t, res.Valid)
		assert.Contains(t, res.Reasons, model.ReasonInvalidExpiry)
	})
}

func TestValidate_CVV(t *testing.T) {
	t.Run("visa needs 3 digits", func(t *testing.T) {
		card := validVisa()
		card.CVV = "1234"
		res := payment.Validate(card, anchor)
		assert.Contains(t, res.Reasons, model.ReasonInvalidCVV)
	})
	t.Run("amex needs 4 digits", func(t *testing.T) {
		card := model.CardPayload{Number: "340000000000009", Holder: "Alan Turing", CVV: "123", ExpMonth: 3, ExpYear: 2027}
		res := payment.Validate(card, anchor)
		assert.Contains(t, res.Reasons, model.ReasonInvalidCVV)
	})
	t.Run("non-digit cvv rejected", func(t *testing.T) {
		card := validVisa()
		card.CVV = "12a"
		res := payment.Validate(card, anchor)
		assert.Contains(t, res.Reasons, model.ReasonInvalidCVV)
	})
}

func TestValidate_Holder(t *testing.T) {
	card := validVisa()
	card.Holder = " "
	res := payment.Validate(card, anchor)
	assert.Contains(t, res.Reasons, model.ReasonInvalidHolder)
}

func TestValidate_AccumulatesReasons(t *testing.T) {
	card := model.CardPayload{Number: "4111111111111112", Holder: "", CVV: "1", ExpMonth: 0, ExpYear: 0}
	res := payment.Validate(card, anchor)
	assert.False(t, res.Valid)
	assert.Len(t, res.Reasons, 4)
}

func TestDetectBrand(t *testing.T) {
	assert.Equal(t, model.BrandVisa, payment.DetectBrand("4111 1111 1111 1111"))
	assert.Equal(t, model.BrandMastercard, payment.DetectBrand("5100000000000000"))
	assert.Equal(t, model.BrandMastercard, payment.DetectBrand("2720990000000000"))
	assert.Equal(t, model.BrandUnknown, payment.DetectBrand("2721000000000000"))
	assert.Equal(t, model.BrandAmex, payment.DetectBrand("371449635398431"))
	assert.Equal(t, model.BrandUnknown, payment.DetectBrand("6011000000000004"))
	// A 4-prefix with a length VISA never issues is not VISA.
	assert.Equal(t, model.BrandUnknown, payment.DetectBrand("41111111111111"))
}

func TestLast4(t *testing.T) {
	assert.Equal(t, "1111", payment.Last4("4111 1111 1111 1111"))
	assert.Equal(t, "????", payment.Last4("12"))
}
