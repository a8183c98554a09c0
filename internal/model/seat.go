package model

import (
	"strconv"
	"time"
)

// SeatType tags a seat with its pricing class. The type drives the price
// multiplier applied on top of a session's base price.
type SeatType string

const (
	SeatNormal  SeatType = "NORMAL"
	SeatVIP     SeatType = "VIP"
	SeatReduced SeatType = "REDUCED"
)

// Valid reports whether t is one of the known seat types.
func (t SeatType) Valid() bool {
	switch t {
	case SeatNormal, SeatVIP, SeatReduced:
		return true
	}
	return false
}

// Seat is a physical seat in a hall, identified by (hall, row, number).
// Seats are long-lived and edited independently of bookings.
type Seat struct {
	ID         uint64    // seats.id
	HallID     uint64    // seats.hall_id
	RowLabel   string    // seats.row_label, e.g. A, B, AA
	SeatNumber uint32    // seats.seat_number (1-based within the row)
	SeatType   SeatType  // seats.seat_type
	IsActive   bool      // seats.is_active
	CreatedAt  time.Time // seats.created_at
	UpdatedAt  time.Time // seats.updated_at
}

// Label renders the human-readable seat position, e.g. "A12".
func (s Seat) Label() string {
	return s.RowLabel + strconv.FormatUint(uint64(s.SeatNumber), 10)
}
