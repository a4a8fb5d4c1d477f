// Package payment contains the two payment rails and the card validator.
// The validator is pure: it never touches shared state, never errors on
// malformed input, and reports every problem as a typed failure reason.
package payment

import (
	"strings"
	"time"

	"github.com/Leandro1530/CinemaWeb-v4/internal/model"
)

// Validate checks a card payload against Luhn, brand, expiry and CVV
// rules.  now anchors the expiry check; a card expiring in the current
// month is still valid through the last day of that month.
func Validate(card model.CardPayload, now time.Time) model.ValidationResult {
	var reasons []model.FailureReason

	pan := digitsOnly(card.Number)
	if pan == "" {
		reasons = append(reasons, model.ReasonInvalidNumber)
	} else if !luhnOK(pan) {
		reasons = append(reasons, model.ReasonLuhnMismatch)
	}

	brand := DetectBrand(card.Number)

	if len(strings.TrimSpace(card.Holder)) < 2 {
		reasons = append(reasons, model.ReasonInvalidHolder)
	}
	if !cvvOK(brand, strings.TrimSpace(card.CVV)) {
		reasons = append(reasons, model.ReasonInvalidCVV)
	}
	switch expiryCheck(card.ExpMonth, card.ExpYear, now) {
	case expiryMalformed:
		reasons = append(reasons, model.ReasonInvalidExpiry)
	case expiryPast:
		reasons = append(reasons, model.ReasonCardExpired)
	}

	return model.ValidationResult{
		Valid:   len(reasons) == 0,
		Brand:   brand,
		Reasons: reasons,
	}
}

// DetectBrand guesses the card family from prefix and length.  An
// unrecognized pattern yields UNKNOWN, which is still eligible for
// Luhn-only validation.
func DetectBrand(number string) model.CardBrand {
	s := digitsOnly(number)
	switch {
	case strings.HasPrefix(s, "4") && (len(s) == 13 || len(s) == 16 || len(s) == 19):
		return model.BrandVisa
	case len(s) == 16 && inMastercardRange(s):
		return model.BrandMastercard
	case (strings.HasPrefix(s, "34") || strings.HasPrefix(s, "37")) && len(s) == 15:
		return model.BrandAmex
	default:
		return model.BrandUnknown
	}
}

// Last4 returns the trailing four digits for the audit trail, or "????"
// when the number is too short.
func Last4(number string) string {
	s := digitsOnly(number)
	if len(s) < 4 {
		return "????"
	}
	return s[len(s)-4:]
}

// luhnOK runs the Luhn checksum over a digits-only string.
func luhnOK(s string) bool {
	sum := 0
	double := false
	for i := len(s) - 1; i >= 0; i-- {
		n := int(s[i] - '0')
		if double {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		double = !double
	}
	return sum%10 == 0
}

// inMastercardRange covers both the legacy 51-55 prefixes and the
// 2221-2720 series.
func inMastercardRange(s string) bool {
	if len(s) < 4 {
		return false
	}
	p2 := int(s[0]-'0')*10 + int(s[1]-'0')
	if p2 >= 51 && p2 <= 55 {
		return true
	}
	p4 := p2*100 + int(s[2]-'0')*10 + int(s[3]-'0')
	return p4 >= 2221 && p4 <= 2720
}

// cvvOK enforces the brand's CVV length convention: 4 digits for AMEX,
// 3 for VISA and MASTERCARD, 3 or 4 for unknown brands.
func cvvOK(brand model.CardBrand, cvv string) bool {
	if len(cvv) < 3 || len(cvv) > 4 {
		return false
	}
	for i := 0; i < len(cvv); i++ {
		if cvv[i] < '0' || cvv[i] > '9' {
			return false
		}
	}
	switch brand {
	case model.BrandAmex:
		return len(cvv) == 4
	case model.BrandVisa, model.BrandMastercard:
		return len(cvv) == 3
	default:
		return true
	}
}

type expiryResult int

const (
	expiryValid expiryResult = iota
	expiryMalformed
	expiryPast
)

// expiryCheck validates month/year and compares against now.  Two-digit
// years are normalized (25 -> 2025).  The card stays valid through the
// last day of its expiry month.
func expiryCheck(month, year int, now time.Time) expiryResult {
	if month < 1 || month > 12 {
		return expiryMalformed
	}
	if year < 100 {
		year += 2000
	}
	if year < 2000 {
		return expiryMalformed
	}
	cy, cm, _ := now.UTC().Date()
	if year < cy || (year == cy && time.Month(month) < cm) {
		return expiryPast
	}
	return expiryValid
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
