package model

// CardBrand is the card family guessed from the number prefix and length.
type CardBrand string

const (
	BrandVisa       CardBrand = "VISA"
	BrandMastercard CardBrand = "MASTERCARD"
	BrandAmex       CardBrand = "AMEX"
	BrandUnknown    CardBrand = "UNKNOWN"
)

// FailureReason enumerates why a card payload failed validation.  A single
// payload can accumulate several reasons.
type FailureReason string

const (
	ReasonInvalidNumber FailureReason = "invalid_number"
	ReasonLuhnMismatch  FailureReason = "luhn_mismatch"
	ReasonCardExpired   FailureReason = "card_expired"
	ReasonInvalidExpiry FailureReason = "invalid_expiry"
	ReasonInvalidCVV    FailureReason = "invalid_cvv"
	ReasonInvalidHolder FailureReason = "invalid_holder"
)

// CardPayload is the raw card input supplied by the buyer on the direct
// rail.  It is validated and discarded; only brand and last four digits
// survive into the audit trail.
type CardPayload struct {
	Number   string `json:"number"`
	Holder   string `json:"holder"`
	CVV      string `json:"cvv"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

// ValidationResult is the typed outcome of card validation.  Validation
// never fails with an error for malformed input; every problem is reported
// as a reason so the buyer sees exactly what was wrong.
type ValidationResult struct {
	Valid   bool            `json:"valid"`
	Brand   CardBrand       `json:"brand"`
	Reasons []FailureReason `json:"reasons,omitempty"`
}
