// Package service implements the booking engine's use cases on top of the
// transactional store. Each operation is one atomic unit of work; domain
// errors surface unchanged to the transport layer.
package service

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/screenhall/booking-engine/internal/model"
	"github.com/screenhall/booking-engine/internal/pricing"
	"github.com/screenhall/booking-engine/internal/repository"
	"github.com/screenhall/booking-engine/internal/store"
)

// ErrNoSeats rejects a reservation request that names no seats.
var ErrNoSeats = errors.New("no seats requested")

// ReservationService reserves seats for sessions.
type ReservationService struct {
	store store.Store
	log   *zap.Logger
}

// NewReservationService wires the reservation use case.
func NewReservationService(st store.Store, log *zap.Logger) *ReservationService {
	return &ReservationService{store: st, log: log}
}

// Reserve claims the given seats of a session for the user and creates an
// Unconfirmed booking priced at the session's current price. The
// availability check and the booking insert run in one transaction, and the
// unique (session, seat) constraint backs the check: a race lost after the
// check fails the insert instead of overbooking.
//
// Returns ErrNoSeats, repository.ErrSessionNotFound,
// repository.ErrSeatNotFound, or a *repository.SeatConflictError (matching
// repository.ErrSeatAlreadyReserved) naming the seats already taken.
func (s *ReservationService) Reserve(ctx context.Context, userID, sessionID uint64, seatIDs []uint64) (*model.Booking, error) {
	seatIDs = dedupe(seatIDs)
	if len(seatIDs) == 0 {
		return nil, ErrNoSeats
	}

	var booking *model.Booking
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		session, err := tx.SessionByID(ctx, sessionID)
		if err != nil {
			return err
		}
		seats, err := tx.SeatsByIDsInHall(ctx, session.HallID, seatIDs)
		if err != nil {
			return err
		}
		if len(seats) != len(seatIDs) {
			return repository.ErrSeatNotFound
		}

		quote, err := pricing.ForSeats(session, seats)
		if err != nil {
			return err
		}

		taken, err := tx.ReservedSeatIDs(ctx, sessionID, seatIDs)
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			return &repository.SeatConflictError{SeatIDs: taken}
		}

		b := &model.Booking{
			UserID:           userID,
			SessionID:        sessionID,
			Status:           model.BookingUnconfirmed,
			TotalAmountCents: quote.TotalCents,
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}
		rows := make([]model.BookingSeat, 0, len(quote.SeatPrices))
		for _, sp := range quote.SeatPrices {
			rows = append(rows, model.BookingSeat{
				BookingID:  b.ID,
				SessionID:  sessionID,
				SeatID:     sp.SeatID,
				PriceCents: sp.PriceCents,
			})
		}
		if err := tx.InsertBookingSeats(ctx, rows); err != nil {
			return err
		}
		b.Seats = rows
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("seats reserved",
		zap.Uint64("booking_id", booking.ID),
		zap.Uint64("session_id", sessionID),
		zap.Uint64("user_id", userID),
		zap.Int("seats", len(booking.Seats)),
		zap.Int64("total_cents", booking.TotalAmountCents))
	return booking, nil
}

// dedupe drops repeated IDs and returns the rest sorted. Sorting gives a
// stable lock acquisition order across concurrent reservations.
func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
