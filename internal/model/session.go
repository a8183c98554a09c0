package model

import "time"

// Session represents a scheduled screening in a hall. StartsAt and EndsAt
// define the schedule; no two sessions in the same hall may have overlapping
// [StartsAt, EndsAt) intervals. BasePriceCents is the price of a NORMAL seat
// before the per-type multiplier; PromoPercent (0-100) is an optional
// discount applied to every seat of the session at reservation time.
type Session struct {
	ID             uint64    // sessions.id
	HallID         uint64    // sessions.hall_id
	Title          string    // sessions.title
	StartsAt       time.Time // sessions.starts_at (UTC)
	EndsAt         time.Time // sessions.ends_at (UTC)
	BasePriceCents int64     // sessions.base_price_cents
	PromoPercent   uint8     // sessions.promo_percent, 0-100
	CreatedAt      time.Time // sessions.created_at
	UpdatedAt      time.Time // sessions.updated_at
}
