package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/screenhall/booking-engine/internal/model"
)

// BookingRepo provides data access for bookings and their seat allocations.
// The reservation path must run its check (ReservedSeatIDs) and its inserts
// (Create + CreateSeatsBulk) inside one transaction; the uq_session_seat
// constraint on booking_seats backs the check so a lost race fails at insert
// time instead of overbooking.
type BookingRepo struct {
	db DBTX
}

// NewBookingRepo constructs a BookingRepo bound to the given handle.
func NewBookingRepo(db DBTX) *BookingRepo { return &BookingRepo{db: db} }

// WithTx returns a copy of the repository bound to tx.
func (r *BookingRepo) WithTx(tx DBTX) *BookingRepo { return &BookingRepo{db: tx} }

const bookingCols = `id, user_id, session_id, status, total_amount_cents, created_at, updated_at`

func scanBooking(scan func(dest ...any) error) (*model.Booking, error) {
	var b model.Booking
	err := scan(&b.ID, &b.UserID, &b.SessionID, &b.Status, &b.TotalAmountCents, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Create inserts a booking row and populates the generated ID and the
// DB-assigned timestamps.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, session_id, status, total_amount_cents) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, b.UserID, b.SessionID, string(b.Status), b.TotalAmountCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	got, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE id = ?`, b.ID).Scan)
	if err != nil {
		return err
	}
	b.Status = got.Status
	b.CreatedAt = got.CreatedAt
	b.UpdatedAt = got.UpdatedAt
	return nil
}

// CreateSeatsBulk inserts the booking_seats rows of one booking in a single
// statement. A duplicate-key error on uq_session_seat means another
// transaction claimed one of the seats first; the store maps that to
// ErrSeatAlreadyReserved.
func (r *BookingRepo) CreateSeatsBulk(ctx context.Context, seats []model.BookingSeat) error {
	if len(seats) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO booking_seats (booking_id, session_id, seat_id, price_cents) VALUES `)
	args := make([]any, 0, len(seats)*4)
	for i, s := range seats {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?)")
		args = append(args, s.BookingID, s.SessionID, s.SeatID, s.PriceCents)
	}
	_, err := r.db.ExecContext(ctx, b.String(), args...)
	return err
}

// ReservedSeatIDs returns which of the given seats already carry a
// booking_seats row for the session. Within a transaction the FOR UPDATE
// clause locks the conflicting rows so a concurrent reaper sweep cannot
// release them mid-check.
func (r *BookingRepo) ReservedSeatIDs(ctx context.Context, sessionID uint64, seatIDs []uint64) ([]uint64, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	var b strings.Builder
	b.WriteString(`SELECT seat_id FROM booking_seats WHERE session_id = ? AND seat_id IN (`)
	args := make([]any, 0, len(seatIDs)+1)
	args = append(args, sessionID)
	for i, id := range seatIDs {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("?")
		args = append(args, id)
	}
	b.WriteString(`) FOR UPDATE`)
	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// AllReservedSeatIDs returns every claimed seat of a session. Used by the
// public availability endpoint; no locking.
func (r *BookingRepo) AllReservedSeatIDs(ctx context.Context, sessionID uint64) (map[uint64]bool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_id FROM booking_seats WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64]bool)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// GetByID retrieves a booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE id = ?`, id).Scan)
}

// GetByIDForUpdate retrieves a booking with a row lock, for use inside the
// reconciliation transaction.
func (r *BookingRepo) GetByIDForUpdate(ctx context.Context, id uint64) (*model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE id = ? FOR UPDATE`, id).Scan)
}

// Confirm flips a booking to CONFIRMED. The transition is monotone; a
// booking already confirmed is left untouched.
func (r *BookingRepo) Confirm(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ? AND status = ?`,
		string(model.BookingConfirmed), id, string(model.BookingUnconfirmed))
	return err
}

// SeatsByBooking loads the seat allocations of one booking.
func (r *BookingRepo) SeatsByBooking(ctx context.Context, bookingID uint64) ([]model.BookingSeat, error) {
	const q = `SELECT id, booking_id, session_id, seat_id, price_cents, created_at
	           FROM booking_seats WHERE booking_id = ? ORDER BY seat_id`
	rows, err := r.db.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.BookingSeat
	for rows.Next() {
		var s model.BookingSeat
		if err := rows.Scan(&s.ID, &s.BookingID, &s.SessionID, &s.SeatID, &s.PriceCents, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListByUser returns a user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.SessionID, &b.Status, &b.TotalAmountCents,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ExpiredUnconfirmedIDs returns bookings still UNCONFIRMED that were created
// at or before the cutoff and still hold seats. The rows are locked so the
// sweep cannot race a concurrent reservation or reconciliation touching the
// same bookings.
func (r *BookingRepo) ExpiredUnconfirmedIDs(ctx context.Context, cutoff time.Time, limit int) ([]uint64, error) {
	const q = `SELECT DISTINCT b.id
	           FROM bookings b
	           JOIN booking_seats bs ON bs.booking_id = b.id
	           WHERE b.status = ? AND b.created_at <= ?
	           ORDER BY b.id
	           LIMIT ?
	           FOR UPDATE`
	rows, err := r.db.QueryContext(ctx, q, string(model.BookingUnconfirmed), cutoff.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// DeleteSeatsByBookingIDs removes the seat allocations of the given
// bookings, returning the seats to the session's available pool. The number
// of released seats is returned for logging.
func (r *BookingRepo) DeleteSeatsByBookingIDs(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q, args := inClause(`DELETE FROM booking_seats WHERE booking_id IN (`, ids)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Touch refreshes updated_at on the given bookings. The reaper calls it so
// the audit trail shows when seats were reclaimed.
func (r *BookingRepo) Touch(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	q, args := inClause(`UPDATE bookings SET updated_at = UTC_TIMESTAMP() WHERE id IN (`, ids)
	_, err := r.db.ExecContext(ctx, q, args...)
	return err
}

func inClause(prefix string, ids []uint64) (string, []any) {
	var b strings.Builder
	b.WriteString(prefix)
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("?")
		args = append(args, id)
	}
	b.WriteString(")")
	return b.String(), args
}
