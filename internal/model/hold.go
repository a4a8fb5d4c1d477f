package model

import "time"

// HoldState tracks the lifecycle of a seat hold.  A hold starts ACTIVE and
// reaches exactly one terminal state: COMMITTED when its transaction is
// approved, RELEASED on explicit cancel or a rejected transaction, or
// EXPIRED when the TTL elapses without a terminal transaction outcome.
type HoldState string

const (
	HoldActive    HoldState = "ACTIVE"
	HoldCommitted HoldState = "COMMITTED"
	HoldReleased  HoldState = "RELEASED"
	HoldExpired   HoldState = "EXPIRED"
)

// Terminal reports whether no further hold transitions are legal.
func (s HoldState) Terminal() bool { return s != HoldActive }

// Hold is a time-boxed exclusive claim on a set of seats while a buyer
// completes checkout.  At most one ACTIVE hold may reference any given
// seat.  Holds also carry the combo selection so that the final amount is
// always computed server-side from the hold, never from client input.
//
// Fields:
//  ID         – opaque hold identifier (UUID).
//  ShowtimeID – showtime whose seats are claimed.
//  SeatLabels – seats claimed, all-or-nothing.
//  ComboIDs   – catalog combos selected at hold time.
//  SessionID  – checkout session that owns the hold.
//  BuyerEmail – email captured from the session, forwarded to the notifier.
//  State      – ACTIVE, COMMITTED, RELEASED or EXPIRED.
//  CreatedAt  – when the hold was granted.
//  ExpiresAt  – when the hold lapses unless renewed or committed.
type Hold struct {
	ID         string
	ShowtimeID uint64
	SeatLabels []string
	ComboIDs   []uint64
	SessionID  string
	BuyerEmail string
	State      HoldState
	CreatedAt  time.Time
	ExpiresAt  time.Time
}
