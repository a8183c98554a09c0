// Package queue defines message payloads exchanged over the message broker
// and the plumbing to publish and consume them.
package queue

// BookingConfirmedQueue is the broker queue for confirmed bookings.
const BookingConfirmedQueue = "booking.confirmed"

// BookingConfirmedEvent is published once per booking, on the transition
// into Confirmed. It carries enough for downstream consumers to notify or
// invoice without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID        uint64   `json:"booking_id"`
	UserID           uint64   `json:"user_id"`
	SessionID        uint64   `json:"session_id"`
	HallID           uint64   `json:"hall_id"`
	Title            string   `json:"title"`
	StartsAt         string   `json:"starts_at"`
	SeatLabels       []string `json:"seats"`
	TotalAmountCents int64    `json:"total_amount_cents"`
	AmountPaidCents  int64    `json:"amount_paid_cents"`
	Currency         string   `json:"currency"`
	ConfirmedAt      string   `json:"confirmed_at"`
}
