package model

import "time"

// Rail names the payment processing path a transaction runs on.  DIRECT is
// the synchronous simulated card rail; GATEWAY hands the buyer to a third
// party and learns the outcome later through webhook notifications.
type Rail string

const (
	RailDirect  Rail = "DIRECT"
	RailGateway Rail = "GATEWAY"
)

// TxState is the transaction state machine.  PENDING is the only initial
// state; APPROVED, REJECTED and CANCELLED are terminal.  State is
// monotonic: there is no transition out of a terminal state.
type TxState string

const (
	TxPending   TxState = "PENDING"
	TxApproved  TxState = "APPROVED"
	TxRejected  TxState = "REJECTED"
	TxCancelled TxState = "CANCELLED"
)

// Terminal reports whether the state admits no further transitions.
func (s TxState) Terminal() bool { return s != TxPending }

// Transaction records a single purchase attempt against a hold.  Exactly
// one non-terminal transaction may exist per hold at any time.
//
// Fields:
//  ID          – opaque transaction identifier (UUID).
//  HoldID      – the hold being paid for.
//  Rail        – DIRECT or GATEWAY.
//  AmountCents – server-computed total in cents.
//  Currency    – ISO currency code (single currency per deployment).
//  State       – PENDING, APPROVED, REJECTED or CANCELLED.
//  GatewayRef  – external reference on the gateway rail, empty on DIRECT.
//  CreatedAt   – when the transaction was opened.
//  UpdatedAt   – when the state last changed.
//  Attempts    – append-only audit trail of payment attempts.
type Transaction struct {
	ID          string
	HoldID      string
	Rail        Rail
	AmountCents int64
	Currency    string
	State       TxState
	GatewayRef  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Attempts    []PaymentAttempt
}

// PaymentAttempt is one entry of a transaction's audit trail.  Attempts
// are never mutated after creation; only the card brand guess and the
// last four digits are retained, never the full instrument.
type PaymentAttempt struct {
	Brand   CardBrand
	Last4   string
	Valid   bool
	Reasons []FailureReason
	At      time.Time
}
