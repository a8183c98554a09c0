package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/screenhall/booking-engine/internal/model"
	"github.com/screenhall/booking-engine/internal/repository"
)

// maxAttempts bounds retries of an atomic unit on serialization failures.
const maxAttempts = 3

// MySQL error numbers worth one more try.
const (
	erLockDeadlock    = 1213
	erLockWaitTimeout = 1205
	erDupEntry        = 1062
)

// MySQLStore implements Store on top of a database/sql connection pool.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore wraps an open connection pool.
func NewMySQLStore(db *sql.DB) *MySQLStore { return &MySQLStore{db: db} }

var _ Store = (*MySQLStore)(nil)

// Atomic runs fn in a transaction, retrying up to maxAttempts times when
// InnoDB reports a deadlock or lock wait timeout. Any other error, including
// every domain error, aborts immediately.
func (s *MySQLStore) Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = s.runOnce(ctx, fn)
		if !retryable(err) {
			return err
		}
	}
	return err
}

func (s *MySQLStore) runOnce(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()
	if err := fn(ctx, newMySQLTx(sqlTx)); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	return sqlTx.Commit()
}

func retryable(err error) bool {
	var my *mysql.MySQLError
	if errors.As(err, &my) {
		return my.Number == erLockDeadlock || my.Number == erLockWaitTimeout
	}
	return false
}

// mysqlTx adapts the repository layer to the Tx interface by binding every
// repository to one *sql.Tx.
type mysqlTx struct {
	sessions *repository.SessionRepo
	seats    *repository.SeatRepo
	bookings *repository.BookingRepo
	payments *repository.PaymentRepo
	vouchers *repository.VoucherRepo
}

func newMySQLTx(tx *sql.Tx) *mysqlTx {
	return &mysqlTx{
		sessions: repository.NewSessionRepo(tx),
		seats:    repository.NewSeatRepo(tx),
		bookings: repository.NewBookingRepo(tx),
		payments: repository.NewPaymentRepo(tx),
		vouchers: repository.NewVoucherRepo(tx),
	}
}

var _ Tx = (*mysqlTx)(nil)

func (t *mysqlTx) SessionByID(ctx context.Context, id uint64) (*model.Session, error) {
	return t.sessions.GetByID(ctx, id)
}

func (t *mysqlTx) SeatsByIDsInHall(ctx context.Context, hallID uint64, ids []uint64) ([]model.Seat, error) {
	return t.seats.GetByIDsInHall(ctx, hallID, ids)
}

func (t *mysqlTx) ReservedSeatIDs(ctx context.Context, sessionID uint64, seatIDs []uint64) ([]uint64, error) {
	return t.bookings.ReservedSeatIDs(ctx, sessionID, seatIDs)
}

func (t *mysqlTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	return t.bookings.Create(ctx, b)
}

// InsertBookingSeats translates a uq_session_seat violation into the seat
// conflict sentinel. The violation is the losing side of a race that the
// ReservedSeatIDs check did not see.
func (t *mysqlTx) InsertBookingSeats(ctx context.Context, seats []model.BookingSeat) error {
	return seatInsertErr(t.bookings.CreateSeatsBulk(ctx, seats))
}

func seatInsertErr(err error) error {
	var my *mysql.MySQLError
	if errors.As(err, &my) && my.Number == erDupEntry {
		return repository.ErrSeatAlreadyReserved
	}
	return err
}

func (t *mysqlTx) BookingByID(ctx context.Context, id uint64) (*model.Booking, error) {
	return t.bookings.GetByID(ctx, id)
}

func (t *mysqlTx) BookingByIDForUpdate(ctx context.Context, id uint64) (*model.Booking, error) {
	return t.bookings.GetByIDForUpdate(ctx, id)
}

func (t *mysqlTx) BookingSeats(ctx context.Context, bookingID uint64) ([]model.BookingSeat, error) {
	return t.bookings.SeatsByBooking(ctx, bookingID)
}

func (t *mysqlTx) ConfirmBooking(ctx context.Context, id uint64) error {
	return t.bookings.Confirm(ctx, id)
}

func (t *mysqlTx) InsertPayment(ctx context.Context, p *model.Payment) error {
	return t.payments.Create(ctx, p)
}

func (t *mysqlTx) PaymentByRef(ctx context.Context, ref string) (*model.Payment, error) {
	return t.payments.GetByProviderRef(ctx, ref)
}

func (t *mysqlTx) PaymentByRefForUpdate(ctx context.Context, ref string) (*model.Payment, error) {
	return t.payments.GetByProviderRefForUpdate(ctx, ref)
}

func (t *mysqlTx) SetPaymentStatus(ctx context.Context, id uint64, to model.PaymentStatus) (bool, error) {
	return t.payments.UpdateStatus(ctx, id, to)
}

func (t *mysqlTx) VoucherByCode(ctx context.Context, code string) (*model.Voucher, error) {
	return t.vouchers.GetByCode(ctx, code)
}

func (t *mysqlTx) VoucherByID(ctx context.Context, id uint64) (*model.Voucher, error) {
	return t.vouchers.GetByID(ctx, id)
}

func (t *mysqlTx) IncrementVoucherUsage(ctx context.Context, id uint64) error {
	return t.vouchers.IncrementUsage(ctx, id)
}

func (t *mysqlTx) ExpiredUnconfirmedBookingIDs(ctx context.Context, cutoff time.Time, limit int) ([]uint64, error) {
	return t.bookings.ExpiredUnconfirmedIDs(ctx, cutoff, limit)
}

func (t *mysqlTx) ReleaseBookingSeats(ctx context.Context, bookingIDs []uint64) (int64, error) {
	return t.bookings.DeleteSeatsByBookingIDs(ctx, bookingIDs)
}

func (t *mysqlTx) ExpirePendingPayments(ctx context.Context, bookingIDs []uint64) (int64, error) {
	return t.payments.ExpirePendingByBookingIDs(ctx, bookingIDs)
}

func (t *mysqlTx) TouchBookings(ctx context.Context, bookingIDs []uint64) error {
	return t.bookings.Touch(ctx, bookingIDs)
}
