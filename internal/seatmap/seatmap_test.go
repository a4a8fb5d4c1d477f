package seatmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leandro1530/CinemaWeb-v4/internal/model"
	"github.com/Leandro1530/CinemaWeb-v4/internal/seatmap"
)

func TestRegisterAndStatus(t *testing.T) {
	m := seatmap.New()
	m.Register(1, []string{"A1", "A2", "B1"})

	st, err := m.Status(1, "A1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatFree, st)

	_, err = m.Status(1, "Z9")
	assert.ErrorIs(t, err, seatmap.ErrUnknownSeat)

	_, err = m.Status(99, "A1")
	assert.ErrorIs(t, err, seatmap.ErrUnknownShowtime)
}

func TestRegisterTwiceKeepsOccupancy(t *testing.T) {
	m := seatmap.New()
	m.Register(1, []string{"A1", "A2"})
	require.NoError(t, m.SetAll(1, []string{"A1"}, model.SeatSold))

	// A re-register of the same showtime must not reset sold seats.
	m.Register(1, []string{"A1", "A2"})
	st, err := m.Status(1, "A1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatSold, st)
}

func TestUnavailable(t *testing.T) {
	m := seatmap.New()
	m.Register(1, []string{"A1", "A2", "A3"})
	require.NoError(t, m.SetAll(1, []string{"A2"}, model.SeatHeld))

	blocked, err := m.Unavailable(1, []string{"A1", "A2", "A4"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A2", "A4"}, blocked)

	blocked, err = m.Unavailable(1, []string{"A1", "A3"})
	require.NoError(t, err)
	assert.Empty(t, blocked)
}

func TestSetAllIsAllOrNothing(t *testing.T) {
	m := seatmap.New()
	m.Register(1, []string{"A1", "A2"})

	err := m.SetAll(1, []string{"A1", "Z9"}, model.SeatHeld)
	assert.ErrorIs(t, err, seatmap.ErrUnknownSeat)

	// The known seat must be untouched after the failed call.
	st, err := m.Status(1, "A1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatFree, st)
}

func TestSnapshotIsACopy(t *testing.T) {
	m := seatmap.New()
	m.Register(1, []string{"A1"})

	snap, err := m.Snapshot(1)
	require.NoError(t, err)
	snap["A1"] = model.SeatSold

	st, err := m.Status(1, "A1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatFree, st)
}
