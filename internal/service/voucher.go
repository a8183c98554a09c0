package service

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/screenhall/booking-engine/internal/model"
	"github.com/screenhall/booking-engine/internal/pricing"
	"github.com/screenhall/booking-engine/internal/repository"
)

var (
	// ErrVoucherExpired rejects a voucher past its validity window.
	ErrVoucherExpired = errors.New("voucher expired")
	// ErrInvalidVoucherValue reports a stored voucher whose discount value
	// lies outside (0,1). This is a data invariant violation, not bad input.
	ErrInvalidVoucherValue = errors.New("voucher value out of range")
)

// ApplyVoucher validates a voucher against the clock and its usage ledger,
// then returns the discounted amount. Checks run in a fixed order so the
// caller always sees the most specific failure: expiry before depletion
// before the stored-value invariant.
func ApplyVoucher(v *model.Voucher, amountCents int64, now time.Time) (int64, error) {
	if now.After(v.ValidUntil) {
		return 0, ErrVoucherExpired
	}
	if v.Usages >= v.MaxUsages {
		return 0, repository.ErrVoucherDepleted
	}
	if v.Value.LessThanOrEqual(decimal.Zero) || v.Value.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return 0, ErrInvalidVoucherValue
	}
	return pricing.Discount(amountCents, v.Value), nil
}
