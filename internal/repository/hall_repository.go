package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/screenhall/booking-engine/internal/model"
)

// HallRepo provides data access for screening halls.
type HallRepo struct {
	db DBTX
}

// NewHallRepo constructs a HallRepo bound to the given handle.
func NewHallRepo(db DBTX) *HallRepo { return &HallRepo{db: db} }

// WithTx returns a copy of the repository bound to tx.
func (r *HallRepo) WithTx(tx DBTX) *HallRepo { return &HallRepo{db: tx} }

const hallCols = `id, owner_id, name, created_at, updated_at`

// Create inserts a hall and populates the generated ID and timestamps.
func (r *HallRepo) Create(ctx context.Context, h *model.Hall) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO halls (owner_id, name) VALUES (?, ?)`, h.OwnerID, h.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return r.db.QueryRowContext(ctx, `SELECT `+hallCols+` FROM halls WHERE id = ?`, h.ID).
		Scan(&h.ID, &h.OwnerID, &h.Name, &h.CreatedAt, &h.UpdatedAt)
}

// GetByID retrieves a hall or ErrHallNotFound.
func (r *HallRepo) GetByID(ctx context.Context, id uint64) (*model.Hall, error) {
	var h model.Hall
	err := r.db.QueryRowContext(ctx, `SELECT `+hallCols+` FROM halls WHERE id = ?`, id).
		Scan(&h.ID, &h.OwnerID, &h.Name, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHallNotFound
		}
		return nil, err
	}
	return &h, nil
}

// GetByIDAndOwner retrieves a hall enforcing ownership. It returns
// ErrHallNotFound when the hall is absent and ErrForbidden when it belongs
// to another owner.
func (r *HallRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Hall, error) {
	h, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return h, nil
}

// ListByOwner returns all halls belonging to an owner.
func (r *HallRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Hall, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+hallCols+` FROM halls WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Hall, 0)
	for rows.Next() {
		var h model.Hall
		if err := rows.Scan(&h.ID, &h.OwnerID, &h.Name, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
