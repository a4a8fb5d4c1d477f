// Package notifier carries confirmed purchases to the receipt pipeline.
// The engine publishes one TicketConfirmedEvent per approved transaction,
// strictly after all seat and transaction locks are released; receipt
// artifacts (PDF, QR, email) are produced downstream with their own retry
// policy and never block checkout.
package notifier

import "context"

// TicketConfirmedEvent is emitted exactly once when a transaction reaches
// APPROVED.  It carries everything downstream consumers need to render and
// dispatch a receipt without querying the engine.
type TicketConfirmedEvent struct {
	TransactionID string   `json:"transaction_id"`
	HoldID        string   `json:"hold_id"`
	BuyerEmail    string   `json:"buyer_email"`
	ShowtimeID    uint64   `json:"showtime_id"`
	MovieTitle    string   `json:"movie_title"`
	Hall          string   `json:"hall"`
	StartsAt      string   `json:"starts_at"`
	Seats         []string `json:"seats"`
	Combos        []string `json:"combos"`
	AmountCents   int64    `json:"amount_cents"`
	Currency      string   `json:"currency"`
	ConfirmedAt   string   `json:"confirmed_at"`
}

// Notifier dispatches confirmation events.  Implementations must be safe
// for concurrent use; errors are logged by the caller and never surfaced
// to the buyer.
type Notifier interface {
	TicketConfirmed(ctx context.Context, ev TicketConfirmedEvent) error
}
