package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/screenhall/booking-engine/internal/model"
	"github.com/screenhall/booking-engine/internal/pay"
	"github.com/screenhall/booking-engine/internal/queue"
	"github.com/screenhall/booking-engine/internal/repository"
	"github.com/screenhall/booking-engine/internal/store"
)

var (
	// ErrBookingExpired rejects payment on a booking past its hold window.
	ErrBookingExpired = errors.New("booking expired")
	// ErrBookingConfirmed rejects a new payment for an already paid booking.
	ErrBookingConfirmed = errors.New("booking already confirmed")
	// ErrInvalidAmount rejects a payment whose amount after discount is not
	// positive.
	ErrInvalidAmount = errors.New("payment amount must be positive")
)

// EventPublisher delivers side-effect events after a transaction commits.
// Failures are tolerated; the booking state is already durable.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, event queue.BookingConfirmedEvent) error
}

// PaymentService drives the payment lifecycle of a booking: creating a
// provider intent, and reconciling the provider's verdict into the booking
// and voucher ledgers.
type PaymentService struct {
	store    store.Store
	provider pay.Provider
	events   EventPublisher
	log      *zap.Logger

	holdTTL         time.Duration
	providerTimeout time.Duration
	currency        string

	// now is replaceable in tests.
	now func() time.Time
}

// NewPaymentService wires the payment use cases. events may be nil when no
// broker is configured.
func NewPaymentService(st store.Store, provider pay.Provider, events EventPublisher,
	holdTTL, providerTimeout time.Duration, currency string, log *zap.Logger) *PaymentService {
	return &PaymentService{
		store:           st,
		provider:        provider,
		events:          events,
		log:             log,
		holdTTL:         holdTTL,
		providerTimeout: providerTimeout,
		currency:        currency,
		now:             time.Now,
	}
}

func (s *PaymentService) expired(b *model.Booking, at time.Time) bool {
	return at.After(b.CreatedAt.Add(s.holdTTL))
}

// Initiate starts a payment attempt for a booking: validates the booking is
// still payable, applies an optional voucher, creates a provider intent for
// the discounted amount and records a Pending payment carrying the intent's
// reference. The returned client secret lets the caller finish the flow
// against the provider out-of-band.
//
// The provider call happens between two short transactions, never inside
// one, so inventory locks are not held across network latency.
func (s *PaymentService) Initiate(ctx context.Context, userID, bookingID uint64, voucherCode, method string) (string, error) {
	var (
		amount    int64
		voucherID *uint64
	)
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		b, err := tx.BookingByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return repository.ErrForbidden
		}
		if b.Status == model.BookingConfirmed {
			return ErrBookingConfirmed
		}
		if s.expired(b, s.now()) {
			return ErrBookingExpired
		}
		amount = b.TotalAmountCents
		if voucherCode != "" {
			v, err := tx.VoucherByCode(ctx, voucherCode)
			if err != nil {
				return err
			}
			amount, err = ApplyVoucher(v, amount, s.now())
			if err != nil {
				return err
			}
			voucherID = &v.ID
		}
		if amount <= 0 {
			return ErrInvalidAmount
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	intentCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()
	intent, err := s.provider.CreateIntent(intentCtx, amount, s.currency, map[string]string{
		"booking_id": strconv.FormatUint(bookingID, 10),
	})
	if err != nil {
		return "", err
	}

	p := &model.Payment{
		BookingID:   bookingID,
		VoucherID:   voucherID,
		ProviderRef: intent.ID,
		Method:      method,
		Status:      model.PaymentPending,
		AmountCents: amount,
	}
	if err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.InsertPayment(ctx, p)
	}); err != nil {
		return "", err
	}

	s.log.Info("payment initiated",
		zap.Uint64("booking_id", bookingID),
		zap.String("provider_ref", intent.ID),
		zap.Int64("amount_cents", amount))
	return intent.ClientSecret, nil
}

// Reconcile folds the provider's current verdict on an intent into the
// booking. It may be invoked any number of times, concurrently, by webhook
// or polling; the payment row lock plus the pending-only status transition
// make replays no-ops. The confirmation event fires only on the transition
// into Paid, after the transaction commits.
func (s *PaymentService) Reconcile(ctx context.Context, intentID string) (model.PaymentStatus, error) {
	// Existence check before touching the provider, so an unknown reference
	// fails as PaymentNotFound rather than a provider error.
	if err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.PaymentByRef(ctx, intentID)
		return err
	}); err != nil {
		return "", err
	}

	statusCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	providerStatus, err := s.provider.IntentStatus(statusCtx, intentID)
	cancel()
	if err != nil {
		return "", err
	}

	var (
		result    model.PaymentStatus
		confirmed *queue.BookingConfirmedEvent
	)
	err = s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		confirmed = nil
		p, err := tx.PaymentByRefForUpdate(ctx, intentID)
		if err != nil {
			return err
		}
		b, err := tx.BookingByIDForUpdate(ctx, p.BookingID)
		if err != nil {
			return err
		}
		result = p.Status
		if p.Status.Terminal() {
			return nil
		}

		switch {
		case s.expired(b, s.now()) && b.Status != model.BookingConfirmed:
			if _, err := tx.SetPaymentStatus(ctx, p.ID, model.PaymentExpired); err != nil {
				return err
			}
			result = model.PaymentExpired

		case providerStatus == pay.StatusSucceeded:
			moved, err := tx.SetPaymentStatus(ctx, p.ID, model.PaymentPaid)
			if err != nil {
				return err
			}
			result = model.PaymentPaid
			// The voucher ledger and the booking flip only on the first
			// confirmation of this booking; a later payment for the same
			// booking must not double-count.
			if moved && b.Status != model.BookingConfirmed {
				if err := tx.ConfirmBooking(ctx, b.ID); err != nil {
					return err
				}
				if p.VoucherID != nil {
					if err := tx.IncrementVoucherUsage(ctx, *p.VoucherID); err != nil {
						return err
					}
				}
				ev, err := s.buildConfirmedEvent(ctx, tx, b, p)
				if err != nil {
					return err
				}
				confirmed = ev
			}

		case providerStatus == pay.StatusCanceled || providerStatus == pay.StatusRequiresPaymentMethod:
			if _, err := tx.SetPaymentStatus(ctx, p.ID, model.PaymentFailed); err != nil {
				return err
			}
			result = model.PaymentFailed

		default:
			// requires_action / processing: nothing to record yet.
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if confirmed != nil {
		s.publishConfirmed(*confirmed)
	}
	return result, nil
}

func (s *PaymentService) buildConfirmedEvent(ctx context.Context, tx store.Tx, b *model.Booking, p *model.Payment) (*queue.BookingConfirmedEvent, error) {
	session, err := tx.SessionByID(ctx, b.SessionID)
	if err != nil {
		return nil, err
	}
	seats, err := tx.BookingSeats(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(seats))
	for _, bs := range seats {
		ids = append(ids, bs.SeatID)
	}
	labels := make([]string, 0, len(ids))
	if len(ids) > 0 {
		seatRows, err := tx.SeatsByIDsInHall(ctx, session.HallID, ids)
		if err != nil {
			return nil, err
		}
		for _, st := range seatRows {
			labels = append(labels, st.Label())
		}
	}
	return &queue.BookingConfirmedEvent{
		BookingID:        b.ID,
		UserID:           b.UserID,
		SessionID:        session.ID,
		HallID:           session.HallID,
		Title:            session.Title,
		StartsAt:         session.StartsAt.UTC().Format(time.RFC3339),
		SeatLabels:       labels,
		TotalAmountCents: b.TotalAmountCents,
		AmountPaidCents:  p.AmountCents,
		Currency:         s.currency,
		ConfirmedAt:      s.now().UTC().Format(time.RFC3339),
	}, nil
}

// publishConfirmed is fire-and-forget: the booking is already durable, a
// lost event only delays downstream notification.
func (s *PaymentService) publishConfirmed(ev queue.BookingConfirmedEvent) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.events.PublishBookingConfirmed(ctx, ev); err != nil {
		s.log.Warn("booking confirmed event not delivered",
			zap.Uint64("booking_id", ev.BookingID), zap.Error(err))
	}
}
