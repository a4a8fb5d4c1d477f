package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Leandro1530/CinemaWeb-v4/internal/catalog"
	"github.com/Leandro1530/CinemaWeb-v4/internal/hold"
	"github.com/Leandro1530/CinemaWeb-v4/internal/model"
	"github.com/Leandro1530/CinemaWeb-v4/internal/transaction"
)

// GatewayProcessor is the asynchronous third-party rail.  It only opens a
// PENDING transaction and hands the buyer an opaque reference to complete
// payment with the gateway; the authoritative outcome arrives later as a
// webhook and is applied by the reconciler.
type GatewayProcessor struct {
	holds *hold.Manager
	store *transaction.Store
	cat   catalog.Catalog
}

// NewGatewayProcessor builds the gateway rail.
func NewGatewayProcessor(holds *hold.Manager, store *transaction.Store, cat catalog.Catalog) *GatewayProcessor {
	if holds == nil || store == nil || cat == nil {
		panic("nil dependency passed to payment.NewGatewayProcessor")
	}
	return &GatewayProcessor{holds: holds, store: store, cat: cat}
}

// Initiate opens a PENDING gateway transaction for the hold.  The
// transaction's GatewayRef is the external reference the gateway echoes
// back in its notifications.
func (p *GatewayProcessor) Initiate(ctx context.Context, holdID string) (*model.Transaction, error) {
	h, err := p.holds.Get(holdID)
	if err != nil {
		return nil, err
	}
	amount, err := p.cat.QuoteHold(h)
	if err != nil {
		return nil, err
	}
	ref := fmt.Sprintf("gw-%s", uuid.NewString())
	return p.store.Open(ctx, holdID, model.RailGateway, amount, ref)
}
