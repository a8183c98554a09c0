package model

import "time"

// BookingStatus enumerates the lifecycle of a booking. Transitions are
// monotone: UNCONFIRMED -> CONFIRMED on successful payment reconciliation.
// A booking whose payment never completes keeps the UNCONFIRMED status; the
// expiry reaper releases its seats but leaves the row for audit.
type BookingStatus string

const (
	BookingUnconfirmed BookingStatus = "UNCONFIRMED"
	BookingConfirmed   BookingStatus = "CONFIRMED"
)

// Booking is a customer's claim on a set of seats for one session. It is
// created atomically with its BookingSeat rows and holds the inventory for
// the payment TTL window.
type Booking struct {
	ID               uint64        // bookings.id
	UserID           uint64        // bookings.user_id
	SessionID        uint64        // bookings.session_id
	Status           BookingStatus // bookings.status
	TotalAmountCents int64         // bookings.total_amount_cents
	CreatedAt        time.Time     // bookings.created_at (UTC); TTL reference
	UpdatedAt        time.Time     // bookings.updated_at

	Seats []BookingSeat // loaded on demand
}

// BookingSeat allocates one seat of a session to a booking. PriceCents is
// the seat's price at reservation time; it is never recomputed, so later
// edits to the session's base price do not affect existing bookings.
// (session_id, seat_id) is unique across all live rows, which is the seat
// inventory invariant.
type BookingSeat struct {
	ID         uint64    // booking_seats.id
	BookingID  uint64    // booking_seats.booking_id
	SessionID  uint64    // booking_seats.session_id
	SeatID     uint64    // booking_seats.seat_id
	PriceCents int64     // booking_seats.price_cents
	CreatedAt  time.Time // booking_seats.created_at
}
