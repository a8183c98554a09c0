package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Voucher is a discount code. Value is a fractional discount strictly inside
// (0,1); the bound is enforced when the voucher is written, never at apply
// time. Usages is mutated only by an atomic increment at the moment a
// payment referencing the voucher is confirmed PAID.
type Voucher struct {
	ID         uint64          // vouchers.id
	Code       string          // vouchers.code (unique)
	Value      decimal.Decimal // vouchers.value, in (0,1)
	ValidUntil time.Time       // vouchers.valid_until (UTC)
	MaxUsages  uint32          // vouchers.max_usages
	Usages     uint32          // vouchers.usages
	CreatedAt  time.Time       // vouchers.created_at
}
