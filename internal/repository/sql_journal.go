package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Leandro1530/CinemaWeb-v4/internal/model"
)

// SQLJournal is the MySQL-backed Journal.  Writes are single statements;
// the engine's locks already serialize conflicting updates, so no SQL
// transactions are needed here.  All timestamps are stored in UTC.
type SQLJournal struct {
	db *sql.DB
}

// NewSQLJournal returns a Journal bound to the provided database.
func NewSQLJournal(db *sql.DB) *SQLJournal { return &SQLJournal{db: db} }

// SaveHold inserts a new hold row.  Seat labels and combo IDs are stored
// as comma-joined text; the engine never queries them back, they exist for
// audit and recovery tooling.
func (j *SQLJournal) SaveHold(ctx context.Context, h *model.Hold) error {
	combos := make([]string, len(h.ComboIDs))
	for i, id := range h.ComboIDs {
		combos[i] = fmt.Sprint(id)
	}
	const q = `INSERT INTO holds
        (id, showtime_id, session_id, buyer_email, seat_labels, combo_ids, state, created_at, expires_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := j.db.ExecContext(ctx, q,
		h.ID, h.ShowtimeID, h.SessionID, h.BuyerEmail,
		strings.Join(h.SeatLabels, ","), strings.Join(combos, ","),
		string(h.State), h.CreatedAt.UTC(), h.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: insert hold: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// UpdateHoldState moves a hold to a new state.
func (j *SQLJournal) UpdateHoldState(ctx context.Context, holdID string, state model.HoldState) error {
	const q = `UPDATE holds SET state = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	if _, err := j.db.ExecContext(ctx, q, string(state), holdID); err != nil {
		return fmt.Errorf("%w: update hold state: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// UpdateHoldExpiry extends a hold's TTL on renewal.
func (j *SQLJournal) UpdateHoldExpiry(ctx context.Context, holdID string, expiresAt time.Time) error {
	const q = `UPDATE holds SET expires_at = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	if _, err := j.db.ExecContext(ctx, q, expiresAt.UTC(), holdID); err != nil {
		return fmt.Errorf("%w: update hold expiry: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// SaveTransaction inserts a new transaction row.
func (j *SQLJournal) SaveTransaction(ctx context.Context, t *model.Transaction) error {
	const q = `INSERT INTO transactions
        (id, hold_id, rail, amount_cents, currency, state, gateway_ref, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := j.db.ExecContext(ctx, q,
		t.ID, t.HoldID, string(t.Rail), t.AmountCents, t.Currency,
		string(t.State), t.GatewayRef, t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: insert transaction: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// UpdateTransactionState moves a transaction to a new state.
func (j *SQLJournal) UpdateTransactionState(ctx context.Context, txID string, state model.TxState) error {
	const q = `UPDATE transactions SET state = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	if _, err := j.db.ExecContext(ctx, q, string(state), txID); err != nil {
		return fmt.Errorf("%w: update transaction state: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// AppendAttempt appends one audit-trail row.  Attempt rows are never
// updated or deleted.
func (j *SQLJournal) AppendAttempt(ctx context.Context, txID string, a model.PaymentAttempt) error {
	reasons := make([]string, len(a.Reasons))
	for i, r := range a.Reasons {
		reasons[i] = string(r)
	}
	const q = `INSERT INTO payment_attempts
        (transaction_id, brand, last4, valid, reasons, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`
	_, err := j.db.ExecContext(ctx, q,
		txID, string(a.Brand), a.Last4, a.Valid, strings.Join(reasons, ","), a.At.UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: insert attempt: %v", ErrStorageUnavailable, err)
	}
	return nil
}
