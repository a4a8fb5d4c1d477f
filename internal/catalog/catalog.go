// Package catalog is the read-only collaborator that supplies showtime and
// combo data to the checkout engine.  The engine only ever reads from it,
// and catalog data is assumed stable for the duration of a checkout.  The
// in-memory implementation below is seeded at startup; a deployment backed
// by a real catalog service only needs to satisfy the Catalog interface.
package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/Leandro1530/CinemaWeb-v4/internal/model"
)

// ErrShowtimeNotFound is returned when a showtime ID is not in the catalog.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ErrComboNotFound is returned when a hold references a combo ID that the
// catalog does not carry.
var ErrComboNotFound = errors.New("combo not found")

// Catalog exposes the read-only operations the engine consumes.
type Catalog interface {
	// Showtime returns the showtime with the given ID.
	Showtime(id uint64) (model.Showtime, error)
	// Combos returns the full priced combo catalog.
	Combos() []model.Combo
	// QuoteHold computes the authoritative amount for a hold in cents:
	// base price times held seats plus the selected combos.  Client
	// supplied amounts are never trusted.
	QuoteHold(h *model.Hold) (int64, error)
}

// Static is a Catalog backed by slices seeded at startup.
type Static struct {
	showtimes map[uint64]model.Showtime
	combos    []model.Combo
	byCombo   map[uint64]model.Combo
}

// NewStatic builds a Static catalog from the given showtimes and combos.
func NewStatic(showtimes []model.Showtime, combos []model.Combo) *Static {
	s := &Static{
		showtimes: make(map[uint64]model.Showtime, len(showtimes)),
		combos:    combos,
		byCombo:   make(map[uint64]model.Combo, len(combos)),
	}
	for _, st := range showtimes {
		s.showtimes[st.ID] = st
	}
	for _, c := range combos {
		s.byCombo[c.ID] = c
	}
	return s
}

// Showtime implements Catalog.
func (s *Static) Showtime(id uint64) (model.Showtime, error) {
	st, ok := s.showtimes[id]
	if !ok {
		return model.Showtime{}, ErrShowtimeNotFound
	}
	return st, nil
}

// Combos implements Catalog.
func (s *Static) Combos() []model.Combo {
	out := make([]model.Combo, len(s.combos))
	copy(out, s.combos)
	return out
}

// QuoteHold implements Catalog.
func (s *Static) QuoteHold(h *model.Hold) (int64, error) {
	st, err := s.Showtime(h.ShowtimeID)
	if err != nil {
		return 0, err
	}
	total := st.BasePriceCents * int64(len(h.SeatLabels))
	for _, id := range h.ComboIDs {
		combo, ok := s.byCombo[id]
		if !ok {
			return 0, fmt.Errorf("%w: id %d", ErrComboNotFound, id)
		}
		total += combo.PriceCents
	}
	return total, nil
}

// SeatLabels expands a showtime's grid into its full list of seat labels,
// row letter first ("A1".."A10", "B1", ...).  Used to register showtimes
// with the seat map at startup.
func SeatLabels(st model.Showtime) []string {
	labels := make([]string, 0, st.SeatRows*st.SeatCols)
	for r := 0; r < st.SeatRows; r++ {
		for c := 1; c <= st.SeatCols; c++ {
			labels = append(labels, fmt.Sprintf("%s%d", rowLabel(r), c))
		}
	}
	return labels
}

// rowLabel converts a zero-based row index to A, B, ... Z, AA, AB.
func rowLabel(i int) string {
	var out []rune
	for {
		out = append([]rune{rune('A' + i%26)}, out...)
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	return string(out)
}

// Seed returns the demo catalog used when no external catalog service is
// wired: the current billboard with one showtime per screening and the
// concession combos.  Base prices come from the configured ticket price.
func Seed(basePriceCents int64) ([]model.Showtime, []model.Combo) {
	day := time.Now().UTC().Truncate(24 * time.Hour)
	showtimes := []model.Showtime{
		{ID: 1, Title: "Las Guerreras K-POP", Hall: "Sala 1", StartsAt: day.Add(21*time.Hour + 30*time.Minute), SeatRows: 6, SeatCols: 10, BasePriceCents: basePriceCents},
		{ID: 2, Title: "Lilo y Stitch (2025)", Hall: "Sala 3", StartsAt: day.Add(17 * time.Hour), SeatRows: 6, SeatCols: 10, BasePriceCents: basePriceCents},
		{ID: 3, Title: "Teléfono Negro 2", Hall: "Sala 2", StartsAt: day.Add(22 * time.Hour), SeatRows: 8, SeatCols: 12, BasePriceCents: basePriceCents},
	}
	combos := []model.Combo{
		{ID: 1, Name: "Combo 1 (Pochoclo + Bebida)", PriceCents: 150000},
		{ID: 2, Name: "Combo 2 (1x Pochoclo + 2x Bebida)", PriceCents: 250000},
		{ID: 3, Name: "Combo 3 (Pochoclo + Dorito + Bebida)", PriceCents: 200000},
	}
	return showtimes, combos
}
