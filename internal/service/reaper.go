package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/screenhall/booking-engine/internal/store"
)

// sweepBatch caps how many expired bookings one sweep transaction touches,
// keeping lock footprints small under backlog.
const sweepBatch = 500

// Reaper reclaims seats held by abandoned checkouts. Bookings left
// Unconfirmed past the hold window lose their seat rows and any pending
// payments are marked Expired; the booking row itself stays for audit.
type Reaper struct {
	store    store.Store
	log      *zap.Logger
	holdTTL  time.Duration
	interval time.Duration

	now func() time.Time
}

// NewReaper wires the expiry sweep.
func NewReaper(st store.Store, holdTTL, interval time.Duration, log *zap.Logger) *Reaper {
	return &Reaper{store: st, log: log, holdTTL: holdTTL, interval: interval, now: time.Now}
}

// Run sweeps on a fixed interval until the context is canceled. Intended to
// run as a background goroutine next to the HTTP server.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.SweepOnce(ctx); err != nil {
				r.log.Error("expiry sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce runs one sweep transaction and reports how many bookings were
// reclaimed. The expired-booking query locks the rows it selects, so a
// booking being confirmed concurrently is either confirmed before the sweep
// sees it or waits until the sweep commits; seats younger than the hold
// window are never touched.
func (r *Reaper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.holdTTL)
	var reclaimed int
	err := r.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		reclaimed = 0
		ids, err := tx.ExpiredUnconfirmedBookingIDs(ctx, cutoff, sweepBatch)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if _, err := tx.ExpirePendingPayments(ctx, ids); err != nil {
			return err
		}
		released, err := tx.ReleaseBookingSeats(ctx, ids)
		if err != nil {
			return err
		}
		if err := tx.TouchBookings(ctx, ids); err != nil {
			return err
		}
		reclaimed = len(ids)
		r.log.Info("expired bookings reclaimed",
			zap.Int("bookings", reclaimed), zap.Int64("seats_released", released))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reclaimed, nil
}
