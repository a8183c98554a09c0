package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/screenhall/booking-engine/internal/model"
)

// VoucherRepo provides data access for discount vouchers.
type VoucherRepo struct {
	db DBTX
}

// NewVoucherRepo constructs a VoucherRepo bound to the given handle.
func NewVoucherRepo(db DBTX) *VoucherRepo { return &VoucherRepo{db: db} }

// WithTx returns a copy of the repository bound to tx.
func (r *VoucherRepo) WithTx(tx DBTX) *VoucherRepo { return &VoucherRepo{db: tx} }

const voucherCols = `id, code, value, valid_until, max_usages, usages, created_at`

func scanVoucher(scan func(dest ...any) error) (*model.Voucher, error) {
	var v model.Voucher
	err := scan(&v.ID, &v.Code, &v.Value, &v.ValidUntil, &v.MaxUsages, &v.Usages, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVoucherNotFound
		}
		return nil, err
	}
	return &v, nil
}

// Create inserts a voucher and populates the generated ID.
func (r *VoucherRepo) Create(ctx context.Context, v *model.Voucher) error {
	const q = `INSERT INTO vouchers (code, value, valid_until, max_usages) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, v.Code, v.Value, v.ValidUntil.UTC(), v.MaxUsages)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	return nil
}

// GetByCode looks up a voucher by its public code.
func (r *VoucherRepo) GetByCode(ctx context.Context, code string) (*model.Voucher, error) {
	return scanVoucher(r.db.QueryRowContext(ctx,
		`SELECT `+voucherCols+` FROM vouchers WHERE code = ?`, code).Scan)
}

// GetByID looks up a voucher by primary key.
func (r *VoucherRepo) GetByID(ctx context.Context, id uint64) (*model.Voucher, error) {
	return scanVoucher(r.db.QueryRowContext(ctx,
		`SELECT `+voucherCols+` FROM vouchers WHERE id = ?`, id).Scan)
}

// IncrementUsage bumps the usage counter, guarded against exceeding
// max_usages. The conditional UPDATE makes the ledger safe under
// concurrency: two transactions racing for the last usage cannot both
// match the WHERE clause.
func (r *VoucherRepo) IncrementUsage(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE vouchers SET usages = usages + 1 WHERE id = ? AND usages < max_usages`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM vouchers WHERE id = ?`, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrVoucherNotFound
			}
			return err
		}
		return ErrVoucherDepleted
	}
	return nil
}

// List returns all vouchers, newest first.
func (r *VoucherRepo) List(ctx context.Context) ([]model.Voucher, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+voucherCols+` FROM vouchers ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Voucher
	for rows.Next() {
		var v model.Voucher
		if err := rows.Scan(&v.ID, &v.Code, &v.Value, &v.ValidUntil, &v.MaxUsages, &v.Usages, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
