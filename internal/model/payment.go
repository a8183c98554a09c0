package model

import "time"

// PaymentStatus enumerates the lifecycle of a charge attempt. Per intent the
// status is monotone: PENDING -> (PAID | FAILED | EXPIRED); terminal states
// never transition further. A booking may accumulate several payments over
// its TTL window but at most one of them ever reaches PAID.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
	PaymentExpired PaymentStatus = "EXPIRED"
)

// Terminal reports whether the status admits no further transition.
func (s PaymentStatus) Terminal() bool { return s != PaymentPending }

// Payment is one charge attempt against a booking. ProviderRef is the
// payment provider's intent identifier and is unique, which makes it a safe
// idempotency handle for reconciliation. VoucherID is set when a discount
// code was applied to this attempt; the voucher's usage counter is
// incremented only when the payment reaches PAID.
type Payment struct {
	ID          uint64        // payments.id
	BookingID   uint64        // payments.booking_id
	VoucherID   *uint64       // payments.voucher_id (nullable)
	ProviderRef string        // payments.provider_ref (unique)
	Method      string        // payments.method
	Status      PaymentStatus // payments.status
	AmountCents int64         // payments.amount_cents
	CreatedAt   time.Time     // payments.created_at
	UpdatedAt   time.Time     // payments.updated_at
}
