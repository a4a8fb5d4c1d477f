package model

import "time"

// Showtime describes a scheduled screening as published by the catalog
// collaborator.  The seat layout is a rectangular grid of SeatRows rows
// by SeatCols seats; labels are the row letter followed by the 1-based
// seat number.  Catalog data is read-only and assumed consistent for the
// duration of a checkout.
type Showtime struct {
	ID             uint64
	Title          string
	Hall           string
	StartsAt       time.Time
	SeatRows       int
	SeatCols       int
	BasePriceCents int64
}

// Combo is a priced concession item from the catalog (e.g. popcorn and a
// drink) that can be attached to a hold.
type Combo struct {
	ID         uint64
	Name       string
	PriceCents int64
}
