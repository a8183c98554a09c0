package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/screenhall/booking-engine/internal/model"
)

// SeatRepo provides data access for physical seats.
type SeatRepo struct {
	db DBTX
}

// NewSeatRepo constructs a SeatRepo bound to the given handle.
func NewSeatRepo(db DBTX) *SeatRepo { return &SeatRepo{db: db} }

// WithTx returns a copy of the repository bound to tx.
func (r *SeatRepo) WithTx(tx DBTX) *SeatRepo { return &SeatRepo{db: tx} }

const seatCols = `id, hall_id, row_label, seat_number, seat_type, is_active, created_at, updated_at`

// CreateBulk inserts multiple seats in a single statement. Seat IDs are not
// populated; callers reload via GetByHall when they need them.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO seats (hall_id, row_label, seat_number, seat_type) VALUES `)
	args := make([]any, 0, len(seats)*4)
	for i, s := range seats {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?)")
		args = append(args, s.HallID, s.RowLabel, s.SeatNumber, string(s.SeatType))
	}
	_, err := r.db.ExecContext(ctx, b.String(), args...)
	return err
}

// GetByID retrieves a seat or ErrSeatNotFound.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	var s model.Seat
	err := r.db.QueryRowContext(ctx, `SELECT `+seatCols+` FROM seats WHERE id = ?`, id).
		Scan(&s.ID, &s.HallID, &s.RowLabel, &s.SeatNumber, &s.SeatType, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetByHall returns all seats of a hall ordered by row then number.
func (r *SeatRepo) GetByHall(ctx context.Context, hallID uint64) ([]model.Seat, error) {
	const q = `SELECT ` + seatCols + ` FROM seats WHERE hall_id = ? ORDER BY row_label, seat_number`
	rows, err := r.db.QueryContext(ctx, q, hallID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.HallID, &s.RowLabel, &s.SeatNumber, &s.SeatType,
			&s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByIDsInHall resolves the requested seat IDs, restricted to active seats
// of the given hall. The result may be shorter than ids when some IDs do not
// exist or belong to another hall; the caller compares lengths to detect
// that before reserving.
func (r *SeatRepo) GetByIDsInHall(ctx context.Context, hallID uint64, ids []uint64) ([]model.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var b strings.Builder
	b.WriteString(`SELECT ` + seatCols + ` FROM seats WHERE hall_id = ? AND is_active = 1 AND id IN (`)
	args := make([]any, 0, len(ids)+1)
	args = append(args, hallID)
	for i, id := range ids {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("?")
		args = append(args, id)
	}
	b.WriteString(`) ORDER BY row_label, seat_number`)
	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.HallID, &s.RowLabel, &s.SeatNumber, &s.SeatType,
			&s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateByIDAndOwner rewrites a seat's position, type and active flag while
// enforcing ownership through the halls table. Returns ErrSeatNotFound when
// the seat does not exist or the hall belongs to another owner.
func (r *SeatRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID uint64, rowLabel string, seatNumber uint32, seatType model.SeatType, isActive bool) error {
	const q = `UPDATE seats s
	           JOIN halls h ON h.id = s.hall_id
	           SET s.row_label = ?, s.seat_number = ?, s.seat_type = ?, s.is_active = ?
	           WHERE s.id = ? AND h.owner_id = ?`
	res, err := r.db.ExecContext(ctx, q, rowLabel, seatNumber, string(seatType), isActive, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSeatNotFound
	}
	return nil
}
