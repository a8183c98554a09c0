// Package pricing computes seat prices for a session. It is pure: no
// persistence, no clock, no side effects. All arithmetic runs on
// decimal values and is rounded to the currency's minor unit (cents) with
// round-half-away-from-zero, which is what decimal.Round implements.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/screenhall/booking-engine/internal/model"
)

// ErrNegativeBasePrice is returned for a session whose base price is below
// zero. This is a stored-data violation, not user input; callers reject the
// session upstream.
var ErrNegativeBasePrice = errors.New("pricing: negative base price")

var (
	multNormal  = decimal.NewFromInt(1)
	multVIP     = decimal.RequireFromString("1.5")
	multReduced = decimal.RequireFromString("1.25")
	hundred     = decimal.NewFromInt(100)
)

// Quote is the priced result of a reservation request: one price per seat,
// in the order the seats were given, plus their sum.
type Quote struct {
	SeatPrices []SeatPrice
	TotalCents int64
}

// SeatPrice carries the per-seat amount frozen into a BookingSeat row.
type SeatPrice struct {
	SeatID     uint64
	PriceCents int64
}

// multiplier returns the per-type factor applied to the session base price.
// Unknown types price as NORMAL; the seat type enum is validated at write
// time.
func multiplier(t model.SeatType) decimal.Decimal {
	switch t {
	case model.SeatVIP:
		return multVIP
	case model.SeatReduced:
		return multReduced
	default:
		return multNormal
	}
}

// ForSeats prices the given seats against the session. Each seat price is
// basePrice x multiplier(type), reduced by the session's promotion percent,
// rounded half-away-from-zero to whole cents. The total is the sum of the
// rounded per-seat prices, so the stored BookingSeat rows always add up to
// the booking total exactly.
func ForSeats(session *model.Session, seats []model.Seat) (Quote, error) {
	if session.BasePriceCents < 0 {
		return Quote{}, ErrNegativeBasePrice
	}
	base := decimal.NewFromInt(session.BasePriceCents)
	promo := decimal.NewFromInt(int64(session.PromoPercent))

	q := Quote{SeatPrices: make([]SeatPrice, 0, len(seats))}
	for _, seat := range seats {
		p := base.Mul(multiplier(seat.SeatType))
		if session.PromoPercent > 0 {
			p = p.Sub(p.Mul(promo).Div(hundred))
		}
		cents := p.Round(0).IntPart()
		q.SeatPrices = append(q.SeatPrices, SeatPrice{SeatID: seat.ID, PriceCents: cents})
		q.TotalCents += cents
	}
	return q, nil
}

// Discount applies a fractional voucher value to an amount:
// amount - round(amount x value), in cents. The voucher value is validated
// to lie in (0,1) before it is ever stored, so no bound check happens here.
func Discount(amountCents int64, value decimal.Decimal) int64 {
	amount := decimal.NewFromInt(amountCents)
	return amountCents - amount.Mul(value).Round(0).IntPart()
}
