package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/screenhall/booking-engine/internal/model"
)

// PaymentRepo provides data access for payment attempts.
type PaymentRepo struct {
	db DBTX
}

// NewPaymentRepo constructs a PaymentRepo bound to the given handle.
func NewPaymentRepo(db DBTX) *PaymentRepo { return &PaymentRepo{db: db} }

// WithTx returns a copy of the repository bound to tx.
func (r *PaymentRepo) WithTx(tx DBTX) *PaymentRepo { return &PaymentRepo{db: tx} }

const paymentCols = `id, booking_id, voucher_id, provider_ref, method, status, amount_cents, created_at, updated_at`

func scanPayment(scan func(dest ...any) error) (*model.Payment, error) {
	var p model.Payment
	err := scan(&p.ID, &p.BookingID, &p.VoucherID, &p.ProviderRef, &p.Method, &p.Status,
		&p.AmountCents, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a payment row and populates the generated ID.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	const q = `INSERT INTO payments (booking_id, voucher_id, provider_ref, method, status, amount_cents)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, p.BookingID, p.VoucherID, p.ProviderRef,
		p.Method, string(p.Status), p.AmountCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByProviderRef looks up a payment by the provider's intent identifier.
func (r *PaymentRepo) GetByProviderRef(ctx context.Context, ref string) (*model.Payment, error) {
	return scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE provider_ref = ?`, ref).Scan)
}

// GetByProviderRefForUpdate is GetByProviderRef with a row lock, for the
// reconciliation transaction. Locking the payment row serializes concurrent
// reconciliations of the same intent.
func (r *PaymentRepo) GetByProviderRefForUpdate(ctx context.Context, ref string) (*model.Payment, error) {
	return scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE provider_ref = ? FOR UPDATE`, ref).Scan)
}

// UpdateStatus moves a payment out of PENDING. Terminal states are never
// overwritten: the WHERE clause only matches pending rows, so a repeated
// reconciliation is a no-op at the storage level too.
func (r *PaymentRepo) UpdateStatus(ctx context.Context, id uint64, to model.PaymentStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(model.PaymentPending))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByBooking returns all payment attempts for a booking, oldest first.
func (r *PaymentRepo) ListByBooking(ctx context.Context, bookingID uint64) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE booking_id = ? ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.BookingID, &p.VoucherID, &p.ProviderRef, &p.Method,
			&p.Status, &p.AmountCents, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ExpirePendingByBookingIDs marks pending payments of the given bookings as
// EXPIRED. Called by the reaper after it releases the bookings' seats.
func (r *PaymentRepo) ExpirePendingByBookingIDs(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q, args := inClause(`UPDATE payments SET status = '`+string(model.PaymentExpired)+
		`' WHERE status = '`+string(model.PaymentPending)+`' AND booking_id IN (`, ids)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
