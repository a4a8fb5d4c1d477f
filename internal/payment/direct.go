package payment

import (
	"context"
	"time"

	"github.com/Leandro1530/CinemaWeb-v4/internal/catalog"
	"github.com/Leandro1530/CinemaWeb-v4/internal/hold"
	"github.com/Leandro1530/CinemaWeb-v4/internal/model"
	"github.com/Leandro1530/CinemaWeb-v4/internal/transaction"
)

// DirectProcessor is the synchronous simulated card rail.  A payment is a
// single attempt: validation failure rejects the transaction immediately,
// success approves it.  There are no retries on this rail; the buyer
// starts over with a fresh hold operation on a new transaction.
type DirectProcessor struct {
	holds *hold.Manager
	store *transaction.Store
	cat   catalog.Catalog
}

// NewDirectProcessor builds the direct rail.
func NewDirectProcessor(holds *hold.Manager, store *transaction.Store, cat catalog.Catalog) *DirectProcessor {
	if holds == nil || store == nil || cat == nil {
		panic("nil dependency passed to payment.NewDirectProcessor")
	}
	return &DirectProcessor{holds: holds, store: store, cat: cat}
}

// Pay validates the card and drives the transaction to a terminal state
// synchronously.  The amount is always computed server-side from the
// hold's seats and combos; client-supplied amounts are never consulted.
// The returned ValidationResult carries the decline reasons when the
// transaction ends REJECTED.
func (p *DirectProcessor) Pay(ctx context.Context, holdID string, card model.CardPayload) (*model.Transaction, model.ValidationResult, error) {
	h, err := p.holds.Get(holdID)
	if err != nil {
		return nil, model.ValidationResult{}, err
	}
	amount, err := p.cat.QuoteHold(h)
	if err != nil {
		return nil, model.ValidationResult{}, err
	}

	tx, err := p.store.Open(ctx, holdID, model.RailDirect, amount, "")
	if err != nil {
		return nil, model.ValidationResult{}, err
	}

	res := Validate(card, time.Now())
	attempt := model.PaymentAttempt{
		Brand:   res.Brand,
		Last4:   Last4(card.Number),
		Valid:   res.Valid,
		Reasons: res.Reasons,
		At:      time.Now().UTC(),
	}
	if err := p.store.RecordAttempt(ctx, tx.ID, attempt); err != nil {
		return nil, res, err
	}

	target := model.TxApproved
	if !res.Valid {
		target = model.TxRejected
	}
	final, err := p.store.Transition(ctx, tx.ID, target, transaction.Evidence{Source: "direct"})
	if err != nil {
		return nil, res, err
	}
	return final, res, nil
}
