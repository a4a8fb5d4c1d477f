package hold_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leandro1530/CinemaWeb-v4/internal/hold"
	"github.com/Leandro1530/CinemaWeb-v4/internal/model"
	"github.com/Leandro1530/CinemaWeb-v4/internal/repository"
	"github.com/Leandro1530/CinemaWeb-v4/internal/seatmap"
)

func newManager(t *testing.T, ttl time.Duration) (*hold.Manager, *seatmap.SeatMap) {
	t.Helper()
	seats := seatmap.New()
	seats.Register(1, []string{"A1", "A2", "A3", "B1", "B2"})
	return hold.NewManager(seats, repository.Nop{}, ttl), seats
}

func TestRequest_GrantsHoldAndMarksSeats(t *testing.T) {
	m, seats := newManager(t, time.Minute)
	ctx := context.Background()

	h, err := m.Request(ctx, 1, []string{"A1", "A2"}, []uint64{1}, "sess-1", "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.HoldActive, h.State)
	assert.ElementsMatch(t, []string{"A1", "A2"}, h.SeatLabels)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Minute), h.ExpiresAt, 2*time.Second)

	for _, l := range []string{"A1", "A2"} {
		st, err := seats.Status(1, l)
		require.NoError(t, err)
		assert.Equal(t, model.SeatHeld, st)
	}
}

func TestRequest_AllOrNothing(t *testing.T) {
	m, seats := newManager(t, time.Minute)
	ctx := context.Background()

	_, err := m.Request(ctx, 1, []string{"A1"}, nil, "sess-1", "a@example.com")
	require.NoError(t, err)

	_, err = m.Request(ctx, 1, []string{"A1", "A2"}, nil, "sess-2", "b@example.com")
	var unavailable *hold.SeatUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{"A1"}, unavailable.Labels)

	// The free seat in the failed request must remain FREE.
	st, err := seats.Status(1, "A2")
	require.NoError(t, err)
	assert.Equal(t, model.SeatFree, st)
}

func TestRequest_DeduplicatesLabels(t *testing.T) {
	m, _ := newManager(t, time.Minute)
	h, err := m.Request(context.Background(), 1, []string{"A1", "A1", "A2"}, nil, "sess-1", "a@example.com")
	require.NoError(t, err)
	assert.Len(t, h.SeatLabels, 2)
}

func TestRequest_ConcurrentOverlap_ExactlyOneWinner(t *testing.T) {
	m, _ := newManager(t, time.Minute)
	ctx := context.Background()

	const attempts = 32
	var wg sync.WaitGroup
	wins := make(chan string, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := m.Request(ctx, 1, []string{"B1", "B2"}, nil, "sess", "c@example.com")
			if err == nil {
				wins <- h.ID
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners []string
	for id := range wins {
		winners = append(winners, id)
	}
	assert.Len(t, winners, 1)
}

func TestRenew_ExtendsTTL(t *testing.T) {
	m, _ := newManager(t, time.Minute)
	ctx := context.Background()
	h, err := m.Request(ctx, 1, []string{"A1"}, nil, "sess-1", "a@example.com")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	renewed, err := m.Renew(ctx, h.ID)
	require.NoError(t, err)
	assert.True(t, renewed.ExpiresAt.After(h.ExpiresAt))
}

func TestRelease_IsIdempotent(t *testing.T) {
	m, seats := newManager(t, time.Minute)
	ctx := context.Background()
	h, err := m.Request(ctx, 1, []string{"A1"}, nil, "sess-1", "a@example.com")
	require.NoError(t, err)

	require.NoError(t, m.Release(ctx, h.ID))
	require.NoError(t, m.Release(ctx, h.ID))

	st, err := seats.Status(1, "A1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatFree, st)

	got, err := m.Get(h.ID)
	require.NoError(t, err)
	assert.Equal(t, model.HoldReleased, got.State)
}

func TestCommit_MarksSeatsSold(t *testing.T) {
	m, seats := newManager(t, time.Minute)
	ctx := context.Background()
	h, err := m.Request(ctx, 1, []string{"A1", "A2"}, nil, "sess-1", "a@example.com")
	require.NoError(t, err)

	committed, err := m.Commit(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, model.HoldCommitted, committed.State)

	st, err := seats.Status(1, "A1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatSold, st)

	// Committed holds cannot be committed or renewed again.
	_, err = m.Commit(ctx, h.ID)
	assert.ErrorIs(t, err, hold.ErrInvalidHoldState)
	_, err = m.Renew(ctx, h.ID)
	assert.ErrorIs(t, err, hold.ErrInvalidHoldState)
}

func TestCommit_AfterTTL_Expires(t *testing.T) {
	m, seats := newManager(t, 10*time.Millisecond)
	ctx := context.Background()
	h, err := m.Request(ctx, 1, []string{"A1"}, nil, "sess-1", "a@example.com")
	require.NoError(t, err)

	time.Sleep(25 * time.Millisecond)
	_, err = m.Commit(ctx, h.ID)
	assert.ErrorIs(t, err, hold.ErrHoldExpired)

	got, err := m.Get(h.ID)
	require.NoError(t, err)
	assert.Equal(t, model.HoldExpired, got.State)

	st, err := seats.Status(1, "A1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatFree, st)
}

func TestRequest_LazilyExpiresOverdueHolds(t *testing.T) {
	m, _ := newManager(t, 10*time.Millisecond)
	ctx := context.Background()
	_, err := m.Request(ctx, 1, []string{"A1"}, nil, "sess-1", "a@example.com")
	require.NoError(t, err)

	time.Sleep(25 * time.Millisecond)

	// No sweep has run, but the seat must be grantable again.
	h2, err := m.Request(ctx, 1, []string{"A1"}, nil, "sess-2", "b@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.HoldActive, h2.State)
}

func TestSweep_ExpiresOverdueHolds(t *testing.T) {
	m, seats := newManager(t, 10*time.Millisecond)
	ctx := context.Background()
	h, err := m.Request(ctx, 1, []string{"A1", "A2"}, nil, "sess-1", "a@example.com")
	require.NoError(t, err)

	time.Sleep(25 * time.Millisecond)
	n := m.Sweep(ctx)
	assert.Equal(t, 1, n)

	got, err := m.Get(h.ID)
	require.NoError(t, err)
	assert.Equal(t, model.HoldExpired, got.State)

	st, err := seats.Status(1, "A2")
	require.NoError(t, err)
	assert.Equal(t, model.SeatFree, st)

	// Sweeping again finds nothing.
	assert.Equal(t, 0, m.Sweep(ctx))
}

func TestGet_UnknownHold(t *testing.T) {
	m, _ := newManager(t, time.Minute)
	_, err := m.Get("nope")
	assert.ErrorIs(t, err, hold.ErrHoldNotFound)
}
