package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/screenhall/booking-engine/internal/model"
	"github.com/screenhall/booking-engine/internal/repository"
)

func newTestSession(m *memStore, baseCents int64, promo uint8) (model.Session, model.Seat, model.Seat) {
	sess := m.addSession(model.Session{
		HallID:         1,
		Title:          "Evening Show",
		StartsAt:       time.Now().Add(2 * time.Hour),
		EndsAt:         time.Now().Add(4 * time.Hour),
		BasePriceCents: baseCents,
		PromoPercent:   promo,
	})
	a1 := m.addSeat(model.Seat{HallID: 1, RowLabel: "A", SeatNumber: 1, SeatType: model.SeatNormal, IsActive: true})
	a2 := m.addSeat(model.Seat{HallID: 1, RowLabel: "A", SeatNumber: 2, SeatType: model.SeatVIP, IsActive: true})
	return sess, a1, a2
}

func TestReserve_PricesAndPersists(t *testing.T) {
	m := newMemStore()
	sess, a1, a2 := newTestSession(m, 1000, 0)
	svc := NewReservationService(m, zap.NewNop())

	b, err := svc.Reserve(context.Background(), 7, sess.ID, []uint64{a1.ID, a2.ID})
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	if b.Status != model.BookingUnconfirmed {
		t.Errorf("status = %s, want %s", b.Status, model.BookingUnconfirmed)
	}
	// 10.00 normal + 15.00 vip = 25.00
	if b.TotalAmountCents != 2500 {
		t.Errorf("total = %d, want 2500", b.TotalAmountCents)
	}
	if len(b.Seats) != 2 {
		t.Fatalf("got %d booking seats, want 2", len(b.Seats))
	}
	if !m.seatHeld(sess.ID, a1.ID) || !m.seatHeld(sess.ID, a2.ID) {
		t.Error("seats not marked as held")
	}
}

func TestReserve_PricesFrozenAfterSessionEdit(t *testing.T) {
	m := newMemStore()
	sess, a1, a2 := newTestSession(m, 1000, 0)
	svc := NewReservationService(m, zap.NewNop())

	b, err := svc.Reserve(context.Background(), 7, sess.ID, []uint64{a1.ID, a2.ID})
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}

	// Repricing the session must not touch amounts already written.
	sess.BasePriceCents = 9900
	m.addSession(sess)

	got, _ := m.booking(b.ID)
	if got.TotalAmountCents != 2500 {
		t.Errorf("total = %d after session edit, want 2500", got.TotalAmountCents)
	}
	for _, bs := range b.Seats {
		if bs.PriceCents != 1000 && bs.PriceCents != 1500 {
			t.Errorf("seat %d price = %d, want the price at reservation time", bs.SeatID, bs.PriceCents)
		}
	}
}

func TestReserve_DuplicateSeatIDsCollapse(t *testing.T) {
	m := newMemStore()
	sess, a1, _ := newTestSession(m, 1000, 0)
	svc := NewReservationService(m, zap.NewNop())

	b, err := svc.Reserve(context.Background(), 7, sess.ID, []uint64{a1.ID, a1.ID, a1.ID})
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	if len(b.Seats) != 1 || b.TotalAmountCents != 1000 {
		t.Errorf("got %d seats total %d, want 1 seat total 1000", len(b.Seats), b.TotalAmountCents)
	}
}

func TestReserve_Rejections(t *testing.T) {
	m := newMemStore()
	sess, a1, _ := newTestSession(m, 1000, 0)
	other := m.addSeat(model.Seat{HallID: 99, RowLabel: "B", SeatNumber: 1, SeatType: model.SeatNormal, IsActive: true})
	svc := NewReservationService(m, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.Reserve(ctx, 7, sess.ID, nil); !errors.Is(err, ErrNoSeats) {
		t.Errorf("empty seats: err = %v, want ErrNoSeats", err)
	}
	if _, err := svc.Reserve(ctx, 7, 12345, []uint64{a1.ID}); !errors.Is(err, repository.ErrSessionNotFound) {
		t.Errorf("unknown session: err = %v, want ErrSessionNotFound", err)
	}
	if _, err := svc.Reserve(ctx, 7, sess.ID, []uint64{a1.ID, 54321}); !errors.Is(err, repository.ErrSeatNotFound) {
		t.Errorf("unknown seat: err = %v, want ErrSeatNotFound", err)
	}
	// Seat from another hall must not be reservable for this session.
	if _, err := svc.Reserve(ctx, 7, sess.ID, []uint64{other.ID}); !errors.Is(err, repository.ErrSeatNotFound) {
		t.Errorf("foreign seat: err = %v, want ErrSeatNotFound", err)
	}
	// A rejected reservation leaves no partial state behind.
	if m.seatHeld(sess.ID, a1.ID) {
		t.Error("seat held after rejected reservations")
	}
}

func TestReserve_ConflictNamesSeats(t *testing.T) {
	m := newMemStore()
	sess, a1, a2 := newTestSession(m, 1000, 0)
	svc := NewReservationService(m, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.Reserve(ctx, 1, sess.ID, []uint64{a1.ID}); err != nil {
		t.Fatalf("first Reserve failed: %v", err)
	}
	_, err := svc.Reserve(ctx, 2, sess.ID, []uint64{a1.ID, a2.ID})
	if !errors.Is(err, repository.ErrSeatAlreadyReserved) {
		t.Fatalf("err = %v, want ErrSeatAlreadyReserved", err)
	}
	var conflict *repository.SeatConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %T, want *SeatConflictError", err)
	}
	if len(conflict.SeatIDs) != 1 || conflict.SeatIDs[0] != a1.ID {
		t.Errorf("conflict seats = %v, want [%d]", conflict.SeatIDs, a1.ID)
	}
	// The free seat in the rejected request must remain free.
	if m.seatHeld(sess.ID, a2.ID) {
		t.Error("partial reservation leaked")
	}
}

func TestReserve_ConcurrentSingleWinner(t *testing.T) {
	m := newMemStore()
	sess, a1, _ := newTestSession(m, 1000, 0)
	svc := NewReservationService(m, zap.NewNop())

	const n = 32
	var (
		wg        sync.WaitGroup
		wins      atomic.Int64
		conflicts atomic.Int64
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(userID uint64) {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), userID, sess.ID, []uint64{a1.ID})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, repository.ErrSeatAlreadyReserved):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(uint64(i + 1))
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("winners = %d, want exactly 1", wins.Load())
	}
	if conflicts.Load() != n-1 {
		t.Errorf("conflicts = %d, want %d", conflicts.Load(), n-1)
	}
}
