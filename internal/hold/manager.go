// Package hold grants, renews, releases and commits time-boxed holds on
// seats.  It owns all seat map mutations and provides the mutual exclusion
// the checkout flow relies on: hold operations for a given showtime are
// serialized by a per-showtime lock, so acquiring a hold on a seat set is
// atomic across the set, and an expiry sweep can never race a commit on
// the same hold.
package hold

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Leandro1530/CinemaWeb-v4/internal/model"
	"github.com/Leandro1530/CinemaWeb-v4/internal/repository"
	"github.com/Leandro1530/CinemaWeb-v4/internal/seatmap"
)

// ErrHoldNotFound is returned when the hold ID is unknown.
var ErrHoldNotFound = errors.New("hold not found")

// ErrHoldExpired is returned when the hold's TTL has elapsed.  A commit or
// renewal that loses the race against expiry fails with this error.
var ErrHoldExpired = errors.New("hold expired")

// ErrInvalidHoldState is returned when an operation requires an ACTIVE
// hold but the hold is already COMMITTED or RELEASED.
var ErrInvalidHoldState = errors.New("hold is not active")

// SeatUnavailableError reports which requested seats were already held or
// sold.  Hold requests are all-or-nothing; a single unavailable seat fails
// the whole request.
type SeatUnavailableError struct {
	Labels []string
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("seats unavailable: %v", e.Labels)
}

// Manager is the hold authority.  All seat status changes flow through it.
type Manager struct {
	seats   *seatmap.SeatMap
	journal repository.Journal
	ttl     time.Duration
	halted  atomic.Bool

	mu     sync.Mutex // guards holds, active and locks
	holds  map[string]*model.Hold
	active map[uint64]map[string]*model.Hold // showtime -> ACTIVE holds
	locks  map[uint64]*sync.Mutex            // per-showtime serialization
}

// NewManager builds a Manager.  ttl is the single timeout authority for
// holds; no other component invents its own expiry.
func NewManager(seats *seatmap.SeatMap, journal repository.Journal, ttl time.Duration) *Manager {
	if seats == nil || journal == nil {
		panic("nil dependency passed to hold.NewManager")
	}
	return &Manager{
		seats:   seats,
		journal: journal,
		ttl:     ttl,
		holds:   make(map[string]*model.Hold),
		active:  make(map[uint64]map[string]*model.Hold),
		locks:   make(map[uint64]*sync.Mutex),
	}
}

// TTL returns the hold time-to-live.
func (m *Manager) TTL() time.Duration { return m.ttl }

// lockFor returns the mutex serializing all hold work for a showtime,
// creating it lazily.  The lock is held only for in-memory check-and-set
// plus the journal write, never across gateway or notifier I/O.
func (m *Manager) lockFor(showtimeID uint64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lk, ok := m.locks[showtimeID]
	if !ok {
		lk = &sync.Mutex{}
		m.locks[showtimeID] = lk
	}
	return lk
}

// Request grants an ACTIVE hold on the given seats or fails with
// SeatUnavailableError when any seat is not FREE.  Partial holds are never
// granted.  Duplicate labels in the request are collapsed.
func (m *Manager) Request(ctx context.Context, showtimeID uint64, seatLabels []string, comboIDs []uint64, sessionID, buyerEmail string) (*model.Hold, error) {
	if m.halted.Load() {
		return nil, repository.ErrStorageUnavailable
	}
	labels := dedupe(seatLabels)
	if len(labels) == 0 {
		return nil, &SeatUnavailableError{}
	}

	lk := m.lockFor(showtimeID)
	lk.Lock()
	defer lk.Unlock()

	// Lazily expire overdue holds so their seats count as FREE even when
	// the sweeper has not run yet.
	m.expireShowtimeLocked(ctx, showtimeID, time.Now().UTC())

	blocked, err := m.seats.Unavailable(showtimeID, labels)
	if err != nil {
		return nil, err
	}
	if len(blocked) > 0 {
		return nil, &SeatUnavailableError{Labels: blocked}
	}

	now := time.Now().UTC()
	h := &model.Hold{
		ID:         uuid.NewString(),
		ShowtimeID: showtimeID,
		SeatLabels: labels,
		ComboIDs:   comboIDs,
		SessionID:  sessionID,
		BuyerEmail: buyerEmail,
		State:      model.HoldActive,
		CreatedAt:  now,
		ExpiresAt:  now.Add(m.ttl),
	}
	if err := m.journal.SaveHold(ctx, h); err != nil {
		return nil, m.halt(err)
	}
	if err := m.seats.SetAll(showtimeID, labels, model.SeatHeld); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.holds[h.ID] = h
	if m.active[showtimeID] == nil {
		m.active[showtimeID] = make(map[string]*model.Hold)
	}
	m.active[showtimeID][h.ID] = h
	m.mu.Unlock()

	cp := *h
	return &cp, nil
}

// Renew extends an ACTIVE hold's TTL from now.  Expired or terminal holds
// cannot be renewed.
func (m *Manager) Renew(ctx context.Context, holdID string) (*model.Hold, error) {
	if m.halted.Load() {
		return nil, repository.ErrStorageUnavailable
	}
	h, lk, err := m.lockHold(holdID)
	if err != nil {
		return nil, err
	}
	defer lk.Unlock()

	now := time.Now().UTC()
	switch {
	case h.State == model.HoldExpired:
		return nil, ErrHoldExpired
	case h.State != model.HoldActive:
		return nil, ErrInvalidHoldState
	case now.After(h.ExpiresAt):
		if err := m.expireOneLocked(ctx, h); err != nil {
			return nil, err
		}
		return nil, ErrHoldExpired
	}

	expires := now.Add(m.ttl)
	if err := m.journal.UpdateHoldExpiry(ctx, h.ID, expires); err != nil {
		return nil, m.halt(err)
	}
	h.ExpiresAt = expires
	cp := *h
	return &cp, nil
}

// Release frees an ACTIVE hold's seats.  It is idempotent: releasing a
// hold that is already RELEASED, COMMITTED or EXPIRED is a no-op.
func (m *Manager) Release(ctx context.Context, holdID string) error {
	if m.halted.Load() {
		return repository.ErrStorageUnavailable
	}
	h, lk, err := m.lockHold(holdID)
	if err != nil {
		return err
	}
	defer lk.Unlock()

	if h.State != model.HoldActive {
		return nil
	}
	if err := m.journal.UpdateHoldState(ctx, h.ID, model.HoldReleased); err != nil {
		return m.halt(err)
	}
	if err := m.seats.SetAll(h.ShowtimeID, h.SeatLabels, model.SeatFree); err != nil {
		return err
	}
	h.State = model.HoldReleased
	m.dropActive(h)
	return nil
}

// Commit transitions an ACTIVE hold to COMMITTED and marks its seats SOLD.
// A hold whose TTL has already elapsed is expired here and the commit
// fails with ErrHoldExpired, so expiry and commit resolve to exactly one
// outcome.
func (m *Manager) Commit(ctx context.Context, holdID string) (*model.Hold, error) {
	if m.halted.Load() {
		return nil, repository.ErrStorageUnavailable
	}
	h, lk, err := m.lockHold(holdID)
	if err != nil {
		return nil, err
	}
	defer lk.Unlock()

	now := time.Now().UTC()
	switch {
	case h.State == model.HoldExpired:
		return nil, ErrHoldExpired
	case h.State != model.HoldActive:
		return nil, ErrInvalidHoldState
	case now.After(h.ExpiresAt):
		if err := m.expireOneLocked(ctx, h); err != nil {
			return nil, err
		}
		return nil, ErrHoldExpired
	}

	if err := m.journal.UpdateHoldState(ctx, h.ID, model.HoldCommitted); err != nil {
		return nil, m.halt(err)
	}
	if err := m.seats.SetAll(h.ShowtimeID, h.SeatLabels, model.SeatSold); err != nil {
		return nil, err
	}
	h.State = model.HoldCommitted
	m.dropActive(h)
	cp := *h
	return &cp, nil
}

// Get returns a copy of the hold.
func (m *Manager) Get(holdID string) (*model.Hold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.holds[holdID]
	if !ok {
		return nil, ErrHoldNotFound
	}
	cp := *h
	return &cp, nil
}

// Sweep expires every ACTIVE hold past its TTL and returns how many were
// expired.  It runs per showtime under the same lock as Request/Commit.
func (m *Manager) Sweep(ctx context.Context) int {
	m.mu.Lock()
	showtimes := make([]uint64, 0, len(m.active))
	for id := range m.active {
		showtimes = append(showtimes, id)
	}
	m.mu.Unlock()

	now := time.Now().UTC()
	total := 0
	for _, id := range showtimes {
		lk := m.lockFor(id)
		lk.Lock()
		total += m.expireShowtimeLocked(ctx, id, now)
		lk.Unlock()
	}
	return total
}

// Run drives the background sweep until the context is cancelled.  The
// sweep runs on its own timer regardless of request traffic.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Printf("hold-sweeper: started (interval=%s ttl=%s)", interval, m.ttl)
	for {
		select {
		case <-ctx.Done():
			log.Printf("hold-sweeper: stopped")
			return
		case <-ticker.C:
			if n := m.Sweep(ctx); n > 0 {
				log.Printf("hold-sweeper: expired %d hold(s)", n)
			}
		}
	}
}

// lockHold resolves a hold and acquires its showtime lock.  The caller
// must unlock the returned mutex.
func (m *Manager) lockHold(holdID string) (*model.Hold, *sync.Mutex, error) {
	m.mu.Lock()
	h, ok := m.holds[holdID]
	m.mu.Unlock()
	if !ok {
		return nil, nil, ErrHoldNotFound
	}
	lk := m.lockFor(h.ShowtimeID)
	lk.Lock()
	return h, lk, nil
}

// expireShowtimeLocked expires all overdue ACTIVE holds of one showtime.
// Caller holds the showtime lock.
func (m *Manager) expireShowtimeLocked(ctx context.Context, showtimeID uint64, now time.Time) int {
	m.mu.Lock()
	var overdue []*model.Hold
	for _, h := range m.active[showtimeID] {
		if now.After(h.ExpiresAt) {
			overdue = append(overdue, h)
		}
	}
	m.mu.Unlock()

	n := 0
	for _, h := range overdue {
		if err := m.expireOneLocked(ctx, h); err != nil {
			log.Printf("hold-sweeper: expire %s failed: %v", h.ID, err)
			continue
		}
		n++
	}
	return n
}

// expireOneLocked moves one ACTIVE hold to EXPIRED and frees its seats.
// Caller holds the showtime lock.
func (m *Manager) expireOneLocked(ctx context.Context, h *model.Hold) error {
	if err := m.journal.UpdateHoldState(ctx, h.ID, model.HoldExpired); err != nil {
		return m.halt(err)
	}
	if err := m.seats.SetAll(h.ShowtimeID, h.SeatLabels, model.SeatFree); err != nil {
		return err
	}
	h.State = model.HoldExpired
	m.dropActive(h)
	return nil
}

func (m *Manager) dropActive(h *model.Hold) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set, ok := m.active[h.ShowtimeID]; ok {
		delete(set, h.ID)
	}
}

// halt stops the manager after a journal failure.  Losing the durable
// record mid-checkout risks inconsistent seat state, so refusing all
// further work is the only safe reaction.
func (m *Manager) halt(err error) error {
	if m.halted.CompareAndSwap(false, true) {
		log.Printf("hold-manager: HALTED, journal failure: %v", err)
	}
	return err
}

func dedupe(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
