// Package store defines the transactional boundary of the booking engine.
// Services express each unit of work as a closure over Tx; the backing
// implementation decides how the unit is made atomic. Production uses MySQL
// transactions with bounded retry, tests use an in-memory fake.
package store

import (
	"context"
	"time"

	"github.com/screenhall/booking-engine/internal/model"
)

// Tx is the set of state transitions a single atomic unit may perform.
// Every method sees the effects of earlier calls in the same unit; none of
// the effects are visible outside until the unit commits.
type Tx interface {
	// Catalog reads.
	SessionByID(ctx context.Context, id uint64) (*model.Session, error)
	SeatsByIDsInHall(ctx context.Context, hallID uint64, ids []uint64) ([]model.Seat, error)

	// Reservation.
	ReservedSeatIDs(ctx context.Context, sessionID uint64, seatIDs []uint64) ([]uint64, error)
	InsertBooking(ctx context.Context, b *model.Booking) error
	InsertBookingSeats(ctx context.Context, seats []model.BookingSeat) error

	// Booking state.
	BookingByID(ctx context.Context, id uint64) (*model.Booking, error)
	BookingByIDForUpdate(ctx context.Context, id uint64) (*model.Booking, error)
	BookingSeats(ctx context.Context, bookingID uint64) ([]model.BookingSeat, error)
	ConfirmBooking(ctx context.Context, id uint64) error

	// Payments.
	InsertPayment(ctx context.Context, p *model.Payment) error
	PaymentByRef(ctx context.Context, ref string) (*model.Payment, error)
	PaymentByRefForUpdate(ctx context.Context, ref string) (*model.Payment, error)
	SetPaymentStatus(ctx context.Context, id uint64, to model.PaymentStatus) (bool, error)

	// Voucher ledger.
	VoucherByCode(ctx context.Context, code string) (*model.Voucher, error)
	VoucherByID(ctx context.Context, id uint64) (*model.Voucher, error)
	IncrementVoucherUsage(ctx context.Context, id uint64) error

	// Expiry sweep.
	ExpiredUnconfirmedBookingIDs(ctx context.Context, cutoff time.Time, limit int) ([]uint64, error)
	ReleaseBookingSeats(ctx context.Context, bookingIDs []uint64) (int64, error)
	ExpirePendingPayments(ctx context.Context, bookingIDs []uint64) (int64, error)
	TouchBookings(ctx context.Context, bookingIDs []uint64) error
}

// Store runs atomic units of work.
type Store interface {
	// Atomic executes fn inside one transaction. If fn returns an error the
	// unit is rolled back and the error is returned unchanged. Transient
	// serialization failures are retried a bounded number of times; domain
	// errors are never retried.
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
