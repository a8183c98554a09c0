package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/screenhall/booking-engine/internal/model"
)

// SessionRepo manages persistence for scheduled screenings. Sessions in the
// same hall must never overlap; OverlapExists performs that check and must
// run in the same transaction as the insert or update relying on it.
type SessionRepo struct {
	db DBTX
}

// NewSessionRepo constructs a SessionRepo bound to the given handle.
func NewSessionRepo(db DBTX) *SessionRepo { return &SessionRepo{db: db} }

// WithTx returns a copy of the repository bound to tx.
func (r *SessionRepo) WithTx(tx DBTX) *SessionRepo { return &SessionRepo{db: tx} }

const sessionCols = `id, hall_id, title, starts_at, ends_at, base_price_cents, promo_percent, created_at, updated_at`

func scanSession(row *sql.Row) (*model.Session, error) {
	var s model.Session
	err := row.Scan(&s.ID, &s.HallID, &s.Title, &s.StartsAt, &s.EndsAt,
		&s.BasePriceCents, &s.PromoPercent, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Create inserts a session and populates the generated ID and timestamps.
// The hall-overlap invariant is the caller's responsibility: run
// OverlapExists first, inside the same transaction.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	const q = `INSERT INTO sessions (hall_id, title, starts_at, ends_at, base_price_cents, promo_percent)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.HallID, s.Title,
		s.StartsAt.UTC(), s.EndsAt.UTC(), s.BasePriceCents, s.PromoPercent)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	got, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, s.ID))
	if err != nil {
		return err
	}
	*s = *got
	return nil
}

// Update rewrites schedule and pricing fields of an existing session.
// Callers must re-check the overlap invariant excluding the session itself.
func (r *SessionRepo) Update(ctx context.Context, s *model.Session) error {
	const q = `UPDATE sessions
	           SET title = ?, starts_at = ?, ends_at = ?, base_price_cents = ?, promo_percent = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, s.Title, s.StartsAt.UTC(), s.EndsAt.UTC(),
		s.BasePriceCents, s.PromoPercent, s.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is also 0 when nothing changed; confirm existence.
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, s.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrSessionNotFound
			}
			return err
		}
	}
	return nil
}

// GetByID retrieves a session or ErrSessionNotFound.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (*model.Session, error) {
	return scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id))
}

// OverlapExists reports whether any session in the hall overlaps the
// half-open interval [startsAt, endsAt). excludeID skips one session, used
// when re-checking an update against the session's own row; pass 0 on create.
func (r *SessionRepo) OverlapExists(ctx context.Context, hallID uint64, startsAt, endsAt time.Time, excludeID uint64) (bool, error) {
	const q = `SELECT EXISTS (
	               SELECT 1 FROM sessions
	               WHERE hall_id = ? AND id <> ? AND starts_at < ? AND ends_at > ?
	           )`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, hallID, excludeID, endsAt.UTC(), startsAt.UTC()).Scan(&exists)
	return exists, err
}

// ListUpcoming returns sessions that have not yet started, soonest first.
func (r *SessionRepo) ListUpcoming(ctx context.Context, limit int) ([]model.Session, error) {
	const q = `SELECT ` + sessionCols + ` FROM sessions
	           WHERE starts_at > UTC_TIMESTAMP()
	           ORDER BY starts_at ASC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Session, 0)
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.HallID, &s.Title, &s.StartsAt, &s.EndsAt,
			&s.BasePriceCents, &s.PromoPercent, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListByHall returns every session of a hall ordered by start time.
func (r *SessionRepo) ListByHall(ctx context.Context, hallID uint64) ([]model.Session, error) {
	const q = `SELECT ` + sessionCols + ` FROM sessions WHERE hall_id = ? ORDER BY starts_at ASC`
	rows, err := r.db.QueryContext(ctx, q, hallID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Session, 0)
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.HallID, &s.Title, &s.StartsAt, &s.EndsAt,
			&s.BasePriceCents, &s.PromoPercent, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
