// Package transaction owns purchase attempts and drives them through the
// PENDING -> {APPROVED | REJECTED | CANCELLED} state machine.  Both rails
// produce transitions through the same Store: the direct card rail
// synchronously, the gateway rail via webhook reconciliation.  Every state
// transition is paired atomically with the matching hold outcome, so there
// is no observable moment where a transaction is APPROVED while its seats
// are still merely HELD.
package transaction

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Leandro1530/CinemaWeb-v4/internal/catalog"
	"github.com/Leandro1530/CinemaWeb-v4/internal/hold"
	"github.com/Leandro1530/CinemaWeb-v4/internal/model"
	"github.com/Leandro1530/CinemaWeb-v4/internal/notifier"
	"github.com/Leandro1530/CinemaWeb-v4/internal/repository"
)

// entry wraps a transaction with its own lock so transitions are
// linearizable per transaction: concurrent webhook redelivery and a
// user-initiated cancel cannot both succeed.
type entry struct {
	mu sync.Mutex
	tx model.Transaction
}

// Store is the transaction authority.
type Store struct {
	holds    *hold.Manager
	journal  repository.Journal
	notify   notifier.Notifier
	cat      catalog.Catalog
	currency string
	halted   atomic.Bool

	mu     sync.Mutex
	txns   map[string]*entry
	byHold map[string]string // holdID -> ID of the open (non-terminal) transaction
	byRef  map[string]string // gatewayRef -> transaction ID
}

// NewStore builds a Store.  The notifier may be nil when no receipt
// pipeline is wired (tests); everything else is required.
func NewStore(holds *hold.Manager, journal repository.Journal, notify notifier.Notifier, cat catalog.Catalog, currency string) *Store {
	if holds == nil || journal == nil || cat == nil {
		panic("nil dependency passed to transaction.NewStore")
	}
	return &Store{
		holds:    holds,
		journal:  journal,
		notify:   notify,
		cat:      cat,
		currency: currency,
		txns:     make(map[string]*entry),
		byHold:   make(map[string]string),
		byRef:    make(map[string]string),
	}
}

// Open creates a PENDING transaction for a hold.  It fails with
// hold.ErrInvalidHoldState / hold.ErrHoldExpired when the hold is not
// ACTIVE and with ErrDuplicateTransaction when a non-terminal transaction
// already exists for the hold.  gatewayRef is empty on the direct rail.
func (s *Store) Open(ctx context.Context, holdID string, rail model.Rail, amountCents int64, gatewayRef string) (*model.Transaction, error) {
	if s.halted.Load() {
		return nil, repository.ErrStorageUnavailable
	}
	h, err := s.holds.Get(holdID)
	if err != nil {
		return nil, err
	}
	switch h.State {
	case model.HoldActive:
	case model.HoldExpired:
		return nil, hold.ErrHoldExpired
	default:
		return nil, hold.ErrInvalidHoldState
	}

	s.mu.Lock()
	if openID, ok := s.byHold[holdID]; ok {
		s.mu.Unlock()
		return nil, &DuplicateTransactionError{HoldID: holdID, OpenID: openID}
	}
	now := time.Now().UTC()
	tx := model.Transaction{
		ID:          uuid.NewString(),
		HoldID:      holdID,
		Rail:        rail,
		AmountCents: amountCents,
		Currency:    s.currency,
		State:       model.TxPending,
		GatewayRef:  gatewayRef,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	e := &entry{tx: tx}
	s.txns[tx.ID] = e
	s.byHold[holdID] = tx.ID
	if gatewayRef != "" {
		s.byRef[gatewayRef] = tx.ID
	}
	s.mu.Unlock()

	if err := s.journal.SaveTransaction(ctx, &tx); err != nil {
		return nil, s.halt(err)
	}
	cp := tx
	return &cp, nil
}

// RecordAttempt appends one audit-trail entry.  It never changes state.
func (s *Store) RecordAttempt(ctx context.Context, txID string, a model.PaymentAttempt) error {
	if s.halted.Load() {
		return repository.ErrStorageUnavailable
	}
	e, err := s.entry(txID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := s.journal.AppendAttempt(ctx, txID, a); err != nil {
		return s.halt(err)
	}
	e.tx.Attempts = append(e.tx.Attempts, a)
	return nil
}

// Evidence carries what a caller knows about why a transition should
// happen.  Replays of the same terminal outcome with matching evidence
// are accepted as no-op successes, which is what makes webhook redelivery
// safe.
type Evidence struct {
	GatewayRef string
	Source     string // "direct", "webhook", "buyer-cancel", "pending-ttl"
}

// Transition moves a transaction to a terminal state and applies the
// paired hold outcome: APPROVED commits the hold (seats SOLD), REJECTED
// and CANCELLED release it.  Transitions are linearizable per transaction.
// Applying the target state to a transaction already in that state with
// matching evidence is an idempotent no-op; every other transition out of
// a terminal state fails with InvalidTransitionError.
func (s *Store) Transition(ctx context.Context, txID string, target model.TxState, ev Evidence) (*model.Transaction, error) {
	if s.halted.Load() {
		return nil, repository.ErrStorageUnavailable
	}
	e, err := s.entry(txID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	tx := &e.tx

	if tx.State == target && target.Terminal() {
		if ev.GatewayRef == "" || ev.GatewayRef == tx.GatewayRef {
			cp := *tx
			return &cp, nil
		}
		return nil, &InvalidTransitionError{ID: tx.ID, From: tx.State, To: target}
	}
	if tx.State.Terminal() || !target.Terminal() {
		return nil, &InvalidTransitionError{ID: tx.ID, From: tx.State, To: target}
	}

	// Hold outcome first: if the hold was lost to expiry in the meantime
	// the transition must fail without touching transaction state.
	var committed *model.Hold
	switch target {
	case model.TxApproved:
		h, err := s.holds.Commit(ctx, tx.HoldID)
		if err != nil {
			return nil, err
		}
		committed = h
	case model.TxRejected, model.TxCancelled:
		if err := s.holds.Release(ctx, tx.HoldID); err != nil {
			return nil, err
		}
	}

	if err := s.journal.UpdateTransactionState(ctx, tx.ID, target); err != nil {
		return nil, s.halt(err)
	}
	tx.State = target
	tx.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	delete(s.byHold, tx.HoldID)
	s.mu.Unlock()

	if target == model.TxApproved {
		s.dispatchConfirmation(*tx, committed)
	}

	cp := *tx
	return &cp, nil
}

// Get returns a copy of the transaction.
func (s *Store) Get(txID string) (*model.Transaction, error) {
	e, err := s.entry(txID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := e.tx
	cp.Attempts = append([]model.PaymentAttempt(nil), e.tx.Attempts...)
	return &cp, nil
}

// ResolveRef maps a gateway reference to its transaction ID.
func (s *Store) ResolveRef(gatewayRef string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byRef[gatewayRef]
	return id, ok
}

// CancelStalePending cancels gateway transactions that stayed PENDING
// longer than ttl, releasing their holds.  A later authoritative webhook
// for such a transaction hits the terminal-state guard and is logged for
// manual audit.  Returns how many were cancelled.
func (s *Store) CancelStalePending(ctx context.Context, ttl time.Duration) int {
	cutoff := time.Now().UTC().Add(-ttl)

	s.mu.Lock()
	var stale []string
	for id, e := range s.txns {
		// Racy read is fine: Transition re-checks under the entry lock.
		if e.tx.Rail == model.RailGateway && e.tx.State == model.TxPending && e.tx.CreatedAt.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()

	n := 0
	for _, id := range stale {
		if _, err := s.Transition(ctx, id, model.TxCancelled, Evidence{Source: "pending-ttl"}); err != nil {
			log.Printf("tx-canceller: cancel %s failed: %v", id, err)
			continue
		}
		n++
	}
	return n
}

// Run drives the stale-pending canceller until the context is cancelled.
func (s *Store) Run(ctx context.Context, interval, pendingTTL time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Printf("tx-canceller: started (interval=%s pending-ttl=%s)", interval, pendingTTL)
	for {
		select {
		case <-ctx.Done():
			log.Printf("tx-canceller: stopped")
			return
		case <-ticker.C:
			if n := s.CancelStalePending(ctx, pendingTTL); n > 0 {
				log.Printf("tx-canceller: cancelled %d stale pending transaction(s)", n)
			}
		}
	}
}

// dispatchConfirmation emits the receipt event on a separate goroutine so
// no lock is ever held across notifier I/O.  The single legal transition
// into APPROVED guarantees the event fires exactly once per transaction.
func (s *Store) dispatchConfirmation(tx model.Transaction, h *model.Hold) {
	if s.notify == nil || h == nil {
		return
	}
	ev := notifier.TicketConfirmedEvent{
		TransactionID: tx.ID,
		HoldID:        h.ID,
		BuyerEmail:    h.BuyerEmail,
		ShowtimeID:    h.ShowtimeID,
		Seats:         h.SeatLabels,
		AmountCents:   tx.AmountCents,
		Currency:      tx.Currency,
		ConfirmedAt:   tx.UpdatedAt.Format(time.RFC3339),
	}
	if st, err := s.cat.Showtime(h.ShowtimeID); err == nil {
		ev.MovieTitle = st.Title
		ev.Hall = st.Hall
		ev.StartsAt = st.StartsAt.Format(time.RFC3339)
	}
	combosByID := make(map[uint64]model.Combo)
	for _, c := range s.cat.Combos() {
		combosByID[c.ID] = c
	}
	for _, id := range h.ComboIDs {
		if c, ok := combosByID[id]; ok {
			ev.Combos = append(ev.Combos, c.Name)
		}
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notify.TicketConfirmed(ctx, ev); err != nil {
			log.Printf("transaction-store: confirmation dispatch for %s failed: %v", tx.ID, err)
		}
	}()
}

func (s *Store) entry(txID string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.txns[txID]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	return e, nil
}

// halt stops the store after a journal failure; see the repository package
// for the failure policy.
func (s *Store) halt(err error) error {
	if s.halted.CompareAndSwap(false, true) {
		log.Printf("transaction-store: HALTED, journal failure: %v", err)
	}
	return err
}
