// Package repository persists the engine's durable records: holds,
// transactions, payment attempts and the set of processed webhook event
// IDs.  The in-memory engine is authoritative for liveness decisions; the
// repository is a write-through journal.  Per the failure policy, journal
// unavailability is the one fatal condition: callers halt processing
// rather than risk inconsistent seat/money state.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Leandro1530/CinemaWeb-v4/internal/model"
)

// ErrStorageUnavailable wraps any journal failure.  Components that see it
// stop accepting work.
var ErrStorageUnavailable = errors.New("durable storage unavailable")

// Journal records hold and transaction state durably.  Every engine state
// transition is journaled before the in-memory state is updated.
type Journal interface {
	SaveHold(ctx context.Context, h *model.Hold) error
	UpdateHoldState(ctx context.Context, holdID string, state model.HoldState) error
	UpdateHoldExpiry(ctx context.Context, holdID string, expiresAt time.Time) error
	SaveTransaction(ctx context.Context, t *model.Transaction) error
	UpdateTransactionState(ctx context.Context, txID string, state model.TxState) error
	AppendAttempt(ctx context.Context, txID string, a model.PaymentAttempt) error
}

// EventLog is the durable set of processed gateway event IDs used for
// webhook deduplication.
type EventLog interface {
	// MarkProcessed records the event and reports whether it was seen for
	// the first time.  A false return means the event was already
	// processed and must be acknowledged without reprocessing.
	MarkProcessed(ctx context.Context, ev model.WebhookEvent) (bool, error)
}
