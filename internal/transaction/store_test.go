package transaction_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leandro1530/CinemaWeb-v4/internal/catalog"
	"github.com/Leandro1530/CinemaWeb-v4/internal/hold"
	"github.com/Leandro1530/CinemaWeb-v4/internal/model"
	"github.com/Leandro1530/CinemaWeb-v4/internal/notifier"
	"github.com/Leandro1530/CinemaWeb-v4/internal/repository"
	"github.com/Leandro1530/CinemaWeb-v4/internal/seatmap"
	"github.com/Leandro1530/CinemaWeb-v4/internal/transaction"
)

// captureNotifier records every confirmation and signals on a channel so
// tests can wait for the asynchronous dispatch.
type captureNotifier struct {
	mu     sync.Mutex
	events []notifier.TicketConfirmedEvent
	ch     chan notifier.TicketConfirmedEvent
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{ch: make(chan notifier.TicketConfirmedEvent, 8)}
}

func (n *captureNotifier) TicketConfirmed(_ context.Context, ev notifier.TicketConfirmedEvent) error {
	n.mu.Lock()
	n.events = append(n.events, ev)
	n.mu.Unlock()
	n.ch <- ev
	return nil
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type fixture struct {
	seats  *seatmap.SeatMap
	holds  *hold.Manager
	store  *transaction.Store
	notify *captureNotifier
}

func newFixture(t *testing.T, ttl time.Duration) *fixture {
	t.Helper()
	shows := []model.Showtime{{
		ID: 1, Title: "Las Guerreras K-POP", Hall: "Sala 1",
		StartsAt: time.Now().UTC().Add(6 * time.Hour),
		SeatRows: 2, SeatCols: 3, BasePriceCents: 500000,
	}}
	combos := []model.Combo{{ID: 1, Name: "Combo 1", PriceCents: 150000}}
	cat := catalog.NewStatic(shows, combos)

	seats := seatmap.New()
	seats.Register(1, catalog.SeatLabels(shows[0]))

	holds := hold.NewManager(seats, repository.Nop{}, ttl)
	notify := newCaptureNotifier()
	store := transaction.NewStore(holds, repository.Nop{}, notify, cat, "ARS")
	return &fixture{seats: seats, holds: holds, store: store, notify: notify}
}

func (f *fixture) activeHold(t *testing.T, labels ...string) *model.Hold {
	t.Helper()
	h, err := f.holds.Request(context.Background(), 1, labels, []uint64{1}, "sess-1", "buyer@example.com")
	require.NoError(t, err)
	return h
}

func waitForEvent(t *testing.T, n *captureNotifier) notifier.TicketConfirmedEvent {
	t.Helper()
	select {
	case ev := <-n.ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for confirmation event")
		return notifier.TicketConfirmedEvent{}
	}
}

func TestOpen_CreatesPendingTransaction(t *testing.T) {
	f := newFixture(t, time.Minute)
	h := f.activeHold(t, "A1")

	tx, err := f.store.Open(context.Background(), h.ID, model.RailDirect, 650000, "")
	require.NoError(t, err)
	assert.Equal(t, model.TxPending, tx.State)
	assert.Equal(t, int64(650000), tx.AmountCents)
	assert.Equal(t, "ARS", tx.Currency)
	assert.Empty(t, tx.GatewayRef)
}

func TestOpen_RejectsSecondOpenTransaction(t *testing.T) {
	f := newFixture(t, time.Minute)
	h := f.activeHold(t, "A1")
	ctx := context.Background()

	first, err := f.store.Open(ctx, h.ID, model.RailGateway, 500000, "gw-1")
	require.NoError(t, err)

	_, err = f.store.Open(ctx, h.ID, model.RailDirect, 500000, "")
	var dup *transaction.DuplicateTransactionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.ID, dup.OpenID)
}

func TestOpen_RequiresActiveHold(t *testing.T) {
	f := newFixture(t, time.Minute)
	h := f.activeHold(t, "A1")
	ctx := context.Background()
	require.NoError(t, f.holds.Release(ctx, h.ID))

	_, err := f.store.Open(ctx, h.ID, model.RailDirect, 500000, "")
	assert.ErrorIs(t, err, hold.ErrInvalidHoldState)

	_, err = f.store.Open(ctx, "missing", model.RailDirect, 500000, "")
	assert.ErrorIs(t, err, hold.ErrHoldNotFound)
}

func TestTransition_ApprovedCommitsHoldAndNotifiesOnce(t *testing.T) {
	f := newFixture(t, time.Minute)
	h := f.activeHold(t, "A1", "A2")
	ctx := context.Background()

	tx, err := f.store.Open(ctx, h.ID, model.RailDirect, 1150000, "")
	require.NoError(t, err)

	final, err := f.store.Transition(ctx, tx.ID, model.TxApproved, transaction.Evidence{Source: "direct"})
	require.NoError(t, err)
	assert.Equal(t, model.TxApproved, final.State)

	got, err := f.holds.Get(h.ID)
	require.NoError(t, err)
	assert.Equal(t, model.HoldCommitted, got.State)
	for _, l := range []string{"A1", "A2"} {
		st, err := f.seats.Status(1, l)
		require.NoError(t, err)
		assert.Equal(t, model.SeatSold, st)
	}

	ev := waitForEvent(t, f.notify)
	assert.Equal(t, tx.ID, ev.TransactionID)
	assert.Equal(t, "buyer@example.com", ev.BuyerEmail)
	assert.Equal(t, "Las Guerreras K-POP", ev.MovieTitle)
	assert.ElementsMatch(t, []string{"A1", "A2"}, ev.Seats)
	assert.Equal(t, []string{"Combo 1"}, ev.Combos)
	assert.Equal(t, int64(1150000), ev.AmountCents)

	// An idempotent replay of APPROVED must not emit a second event.
	_, err = f.store.Transition(ctx, tx.ID, model.TxApproved, transaction.Evidence{Source: "webhook"})
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, f.notify.count())
}

func TestTransition_RejectedReleasesSeats(t *testing.T) {
	f := newFixture(t, time.Minute)
	h := f.activeHold(t, "A1")
	ctx := context.Background()

	tx, err := f.store.Open(ctx, h.ID, model.RailDirect, 650000, "")
	require.NoError(t, err)

	final, err := f.store.Transition(ctx, tx.ID, model.TxRejected, transaction.Evidence{Source: "direct"})
	require.NoError(t, err)
	assert.Equal(t, model.TxRejected, final.State)

	st, err := f.seats.Status(1, "A1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatFree, st)
	assert.Equal(t, 0, f.notify.count())
}

func TestTransition_TerminalStateIsFinal(t *testing.T) {
	f := newFixture(t, time.Minute)
	h := f.activeHold(t, "A1")
	ctx := context.Background()

	tx, err := f.store.Open(ctx, h.ID, model.RailGateway, 650000, "gw-1")
	require.NoError(t, err)
	_, err = f.store.Transition(ctx, tx.ID, model.TxApproved, transaction.Evidence{GatewayRef: "gw-1", Source: "webhook"})
	require.NoError(t, err)

	// A conflicting outcome after finalization is rejected.
	_, err = f.store.Transition(ctx, tx.ID, model.TxRejected, transaction.Evidence{GatewayRef: "gw-1", Source: "webhook"})
	var invalid *transaction.InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)

	// PENDING is not a legal target.
	_, err = f.store.Transition(ctx, tx.ID, model.TxPending, transaction.Evidence{})
	assert.ErrorAs(t, err, &invalid)

	got, err := f.store.Get(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxApproved, got.State)
}

func TestTransition_ReplayWithWrongReferenceFails(t *testing.T) {
	f := newFixture(t, time.Minute)
	h := f.activeHold(t, "A1")
	ctx := context.Background()

	tx, err := f.store.Open(ctx, h.ID, model.RailGateway, 650000, "gw-1")
	require.NoError(t, err)
	_, err = f.store.Transition(ctx, tx.ID, model.TxApproved, transaction.Evidence{GatewayRef: "gw-1", Source: "webhook"})
	require.NoError(t, err)

	_, err = f.store.Transition(ctx, tx.ID, model.TxApproved, transaction.Evidence{GatewayRef: "gw-other", Source: "webhook"})
	var invalid *transaction.InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
}

func TestTransition_ApprovalLosesToExpiredHold(t *testing.T) {
	f := newFixture(t, 10*time.Millisecond)
	h := f.activeHold(t, "A1")
	ctx := context.Background()

	tx, err := f.store.Open(ctx, h.ID, model.RailGateway, 650000, "gw-1")
	require.NoError(t, err)

	time.Sleep(25 * time.Millisecond)
	_, err = f.store.Transition(ctx, tx.ID, model.TxApproved, transaction.Evidence{GatewayRef: "gw-1", Source: "webhook"})
	assert.ErrorIs(t, err, hold.ErrHoldExpired)

	// The transaction stays PENDING; no money-state was flipped.
	got, err := f.store.Get(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxPending, got.State)
	assert.Equal(t, 0, f.notify.count())
}

func TestRecordAttempt_AppendsAuditTrail(t *testing.T) {
	f := newFixture(t, time.Minute)
	h := f.activeHold(t, "A1")
	ctx := context.Background()

	tx, err := f.store.Open(ctx, h.ID, model.RailDirect, 650000, "")
	require.NoError(t, err)

	a := model.PaymentAttempt{Brand: model.BrandVisa, Last4: "1111", Valid: true, At: time.Now().UTC()}
	require.NoError(t, f.store.RecordAttempt(ctx, tx.ID, a))

	got, err := f.store.Get(tx.ID)
	require.NoError(t, err)
	require.Len(t, got.Attempts, 1)
	assert.Equal(t, "1111", got.Attempts[0].Last4)
}

func TestResolveRef(t *testing.T) {
	f := newFixture(t, time.Minute)
	h := f.activeHold(t, "A1")

	tx, err := f.store.Open(context.Background(), h.ID, model.RailGateway, 650000, "gw-xyz")
	require.NoError(t, err)

	id, ok := f.store.ResolveRef("gw-xyz")
	require.True(t, ok)
	assert.Equal(t, tx.ID, id)

	_, ok = f.store.ResolveRef("gw-unknown")
	assert.False(t, ok)
}

func TestCancelStalePending_CancelsOnlyStaleGatewayTransactions(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()

	gwHold := f.activeHold(t, "A1")
	directHold := f.activeHold(t, "A2")

	gwTx, err := f.store.Open(ctx, gwHold.ID, model.RailGateway, 650000, "gw-1")
	require.NoError(t, err)
	directTx, err := f.store.Open(ctx, directHold.ID, model.RailDirect, 650000, "")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	n := f.store.CancelStalePending(ctx, time.Millisecond)
	assert.Equal(t, 1, n)

	got, err := f.store.Get(gwTx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxCancelled, got.State)

	// The hold behind the cancelled transaction is released.
	hd, err := f.holds.Get(gwHold.ID)
	require.NoError(t, err)
	assert.Equal(t, model.HoldReleased, hd.State)

	// Direct-rail PENDING transactions are settled in-request, never by
	// the canceller.
	got, err = f.store.Get(directTx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxPending, got.State)
}

func TestGet_UnknownTransaction(t *testing.T) {
	f := newFixture(t, time.Minute)
	_, err := f.store.Get("nope")
	assert.ErrorIs(t, err, transaction.ErrTransactionNotFound)
}
