package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/screenhall/booking-engine/internal/model"
)

func TestSweepOnce_ReclaimsExpiredBookings(t *testing.T) {
	m := newMemStore()
	sess, a1, a2 := newTestSession(m, 1000, 0)
	reservations := NewReservationService(m, zap.NewNop())
	ctx := context.Background()

	stale, err := reservations.Reserve(ctx, 1, sess.ID, []uint64{a1.ID})
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	fresh, err := reservations.Reserve(ctx, 2, sess.ID, []uint64{a2.ID})
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	m.backdateBooking(stale.ID, time.Now().Add(-20*time.Minute))

	reaper := NewReaper(m, 15*time.Minute, time.Minute, zap.NewNop())
	n, err := reaper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("SweepOnce failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("reclaimed = %d, want 1", n)
	}

	if m.seatHeld(sess.ID, a1.ID) {
		t.Error("expired booking's seat still held")
	}
	if !m.seatHeld(sess.ID, a2.ID) {
		t.Error("fresh booking's seat was released")
	}
	// The booking row survives for audit, still Unconfirmed.
	b, ok := m.booking(stale.ID)
	if !ok || b.Status != model.BookingUnconfirmed {
		t.Errorf("stale booking = (%v, %v), want kept UNCONFIRMED", b.Status, ok)
	}
	if fb, _ := m.booking(fresh.ID); fb.Status != model.BookingUnconfirmed {
		t.Errorf("fresh booking status = %s, want UNCONFIRMED", fb.Status)
	}

	// The reclaimed seat is reservable again.
	if _, err := reservations.Reserve(ctx, 3, sess.ID, []uint64{a1.ID}); err != nil {
		t.Errorf("re-reserve after sweep failed: %v", err)
	}
}

func TestSweepOnce_ExpiresPendingPayments(t *testing.T) {
	f := newPaymentFixture(t)
	ref := f.initiate(t, "")
	f.store.backdateBooking(f.booking.ID, time.Now().Add(-20*time.Minute))

	reaper := NewReaper(f.store, 15*time.Minute, time.Minute, zap.NewNop())
	if _, err := reaper.SweepOnce(context.Background()); err != nil {
		t.Fatalf("SweepOnce failed: %v", err)
	}

	p, _ := f.store.payment(ref)
	if p.Status != model.PaymentExpired {
		t.Errorf("payment status = %s, want EXPIRED", p.Status)
	}
}

func TestSweepOnce_SkipsConfirmedBookings(t *testing.T) {
	f := newPaymentFixture(t)
	ref := f.initiate(t, "")
	f.provider.Complete(ref)
	if _, err := f.payments.Reconcile(context.Background(), ref); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	f.store.backdateBooking(f.booking.ID, time.Now().Add(-20*time.Minute))

	reaper := NewReaper(f.store, 15*time.Minute, time.Minute, zap.NewNop())
	n, err := reaper.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("SweepOnce failed: %v", err)
	}
	if n != 0 {
		t.Errorf("reclaimed = %d, want 0 for a confirmed booking", n)
	}
	if !f.store.seatHeld(f.session.ID, f.booking.Seats[0].SeatID) {
		t.Error("confirmed booking's seat was released")
	}
}

func TestReaperRun_StopsOnCancel(t *testing.T) {
	m := newMemStore()
	reaper := NewReaper(m, 15*time.Minute, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reaper.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancel")
	}
}
