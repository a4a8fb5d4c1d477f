package repository

import (
	"context"
	"time"

	"github.com/Leandro1530/CinemaWeb-v4/internal/model"
)

// Nop is a Journal that records nothing.  It backs tests and ephemeral
// single-node runs where durability is explicitly not wanted.
type Nop struct{}

func (Nop) SaveHold(context.Context, *model.Hold) error                         { return nil }
func (Nop) UpdateHoldState(context.Context, string, model.HoldState) error      { return nil }
func (Nop) UpdateHoldExpiry(context.Context, string, time.Time) error           { return nil }
func (Nop) SaveTransaction(context.Context, *model.Transaction) error           { return nil }
func (Nop) UpdateTransactionState(context.Context, string, model.TxState) error { return nil }
func (Nop) AppendAttempt(context.Context, string, model.PaymentAttempt) error   { return nil }
