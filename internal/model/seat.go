package model

// SeatStatus describes the availability of a single seat within a
// showtime.  Seats move FREE -> HELD when a hold is granted, HELD -> FREE
// when the hold is released or expires, and HELD -> SOLD when the hold is
// committed by an approved transaction.  No other movements are legal.
type SeatStatus string

const (
	SeatFree SeatStatus = "FREE"
	SeatHeld SeatStatus = "HELD"
	SeatSold SeatStatus = "SOLD"
)

// Seat identifies one seat of a showtime together with its current
// availability.  The Label combines the row letter and seat number
// (e.g. "A1", "C12") and is unique within a showtime.
//
// Fields:
//  ShowtimeID – showtime the seat belongs to.
//  Label      – row letter plus seat number within the row.
//  Status     – current availability (FREE, HELD, SOLD).
type Seat struct {
	ShowtimeID uint64
	Label      string
	Status     SeatStatus
}
