// Package seatmap keeps the in-memory seat occupancy per showtime.  It is
// deliberately dumb: it stores statuses and answers queries, while all
// check-and-set atomicity lives in the hold manager, which serializes
// mutations per showtime.  Seats are mutated exclusively through the hold
// manager; no other component writes here.
package seatmap

import (
	"errors"
	"sync"

	"github.com/Leandro1530/CinemaWeb-v4/internal/model"
)

// ErrUnknownShowtime is returned for showtimes never registered.
var ErrUnknownShowtime = errors.New("unknown showtime")

// ErrUnknownSeat is returned when a seat label is not part of the
// showtime's registered layout.
var ErrUnknownSeat = errors.New("unknown seat")

// SeatMap holds per-showtime seat statuses.  The internal mutex only
// protects map integrity; callers needing atomic multi-seat semantics must
// serialize through the hold manager's per-showtime lock.
type SeatMap struct {
	mu        sync.RWMutex
	showtimes map[uint64]map[string]model.SeatStatus
}

// New returns an empty SeatMap.
func New() *SeatMap {
	return &SeatMap{showtimes: make(map[uint64]map[string]model.SeatStatus)}
}

// Register installs a showtime's seat layout with every seat FREE.
// Registering the same showtime twice is a no-op so that seed reloads do
// not wipe live occupancy.
func (m *SeatMap) Register(showtimeID uint64, labels []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.showtimes[showtimeID]; ok {
		return
	}
	seats := make(map[string]model.SeatStatus, len(labels))
	for _, l := range labels {
		seats[l] = model.SeatFree
	}
	m.showtimes[showtimeID] = seats
}

// Status returns the status of a single seat.
func (m *SeatMap) Status(showtimeID uint64, label string) (model.SeatStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seats, ok := m.showtimes[showtimeID]
	if !ok {
		return "", ErrUnknownShowtime
	}
	st, ok := seats[label]
	if !ok {
		return "", ErrUnknownSeat
	}
	return st, nil
}

// Unavailable returns the subset of labels that are not FREE (or not part
// of the layout at all).  An empty result means every requested seat can
// be held.
func (m *SeatMap) Unavailable(showtimeID uint64, labels []string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seats, ok := m.showtimes[showtimeID]
	if !ok {
		return nil, ErrUnknownShowtime
	}
	var blocked []string
	for _, l := range labels {
		st, ok := seats[l]
		if !ok || st != model.SeatFree {
			blocked = append(blocked, l)
		}
	}
	return blocked, nil
}

// SetAll moves every listed seat to the given status.  Callers must have
// verified the seats exist; unknown labels fail the whole call without
// partial application.
func (m *SeatMap) SetAll(showtimeID uint64, labels []string, status model.SeatStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seats, ok := m.showtimes[showtimeID]
	if !ok {
		return ErrUnknownShowtime
	}
	for _, l := range labels {
		if _, ok := seats[l]; !ok {
			return ErrUnknownSeat
		}
	}
	for _, l := range labels {
		seats[l] = status
	}
	return nil
}

// Snapshot returns a copy of all seat statuses for a showtime, for the
// public availability endpoint.
func (m *SeatMap) Snapshot(showtimeID uint64) (map[string]model.SeatStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seats, ok := m.showtimes[showtimeID]
	if !ok {
		return nil, ErrUnknownShowtime
	}
	out := make(map[string]model.SeatStatus, len(seats))
	for l, st := range seats {
		out[l] = st
	}
	return out, nil
}
