package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/screenhall/booking-engine/internal/model"
	"github.com/screenhall/booking-engine/internal/pay"
	"github.com/screenhall/booking-engine/internal/repository"
)

const testUser uint64 = 7

type paymentFixture struct {
	store    *memStore
	provider *pay.Sandbox
	payments *PaymentService
	booking  *model.Booking
	session  model.Session
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	m := newMemStore()
	sess, a1, a2 := newTestSession(m, 1000, 0)
	booking, err := NewReservationService(m, zap.NewNop()).
		Reserve(context.Background(), testUser, sess.ID, []uint64{a1.ID, a2.ID})
	if err != nil {
		t.Fatalf("fixture reserve failed: %v", err)
	}
	provider := pay.NewSandbox()
	svc := NewPaymentService(m, provider, nil, 15*time.Minute, 5*time.Second, "EUR", zap.NewNop())
	return &paymentFixture{store: m, provider: provider, payments: svc, booking: booking, session: sess}
}

// intentRef digs the provider reference out of the client secret issued by
// the sandbox ("pi_<uuid>_secret_<uuid>").
func (f *paymentFixture) initiate(t *testing.T, voucherCode string) string {
	t.Helper()
	secret, err := f.payments.Initiate(context.Background(), testUser, f.booking.ID, voucherCode, "card")
	if err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}
	if secret == "" {
		t.Fatal("Initiate returned an empty client secret")
	}
	for ref := range f.allPaymentRefs() {
		return ref
	}
	t.Fatal("no payment row recorded")
	return ""
}

func (f *paymentFixture) allPaymentRefs() map[string]model.Payment {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	out := make(map[string]model.Payment, len(f.store.s.payments))
	for ref, p := range f.store.s.payments {
		out[ref] = p
	}
	return out
}

func TestInitiate_CreatesPendingPayment(t *testing.T) {
	f := newPaymentFixture(t)
	ref := f.initiate(t, "")

	p, ok := f.store.payment(ref)
	if !ok {
		t.Fatal("payment not persisted")
	}
	if p.Status != model.PaymentPending {
		t.Errorf("status = %s, want PENDING", p.Status)
	}
	if p.AmountCents != f.booking.TotalAmountCents {
		t.Errorf("amount = %d, want %d", p.AmountCents, f.booking.TotalAmountCents)
	}
	if st, _ := f.provider.IntentStatus(context.Background(), ref); st != pay.StatusRequiresAction {
		t.Errorf("provider status = %s, want requires_action", st)
	}
}

func TestInitiate_Rejections(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	if _, err := f.payments.Initiate(ctx, testUser, 9999, "", "card"); !errors.Is(err, repository.ErrBookingNotFound) {
		t.Errorf("unknown booking: err = %v, want ErrBookingNotFound", err)
	}
	if _, err := f.payments.Initiate(ctx, testUser+1, f.booking.ID, "", "card"); !errors.Is(err, repository.ErrForbidden) {
		t.Errorf("foreign booking: err = %v, want ErrForbidden", err)
	}
	if _, err := f.payments.Initiate(ctx, testUser, f.booking.ID, "NOPE", "card"); !errors.Is(err, repository.ErrVoucherNotFound) {
		t.Errorf("unknown voucher: err = %v, want ErrVoucherNotFound", err)
	}

	f.store.backdateBooking(f.booking.ID, time.Now().Add(-16*time.Minute))
	if _, err := f.payments.Initiate(ctx, testUser, f.booking.ID, "", "card"); !errors.Is(err, ErrBookingExpired) {
		t.Errorf("expired booking: err = %v, want ErrBookingExpired", err)
	}
}

func TestInitiate_VoucherDiscountsAmount(t *testing.T) {
	f := newPaymentFixture(t)
	f.store.addVoucher(model.Voucher{
		Code:       "HALF",
		Value:      decimal.RequireFromString("0.5"),
		ValidUntil: time.Now().Add(24 * time.Hour),
		MaxUsages:  10,
	})

	ref := f.initiate(t, "HALF")
	p, _ := f.store.payment(ref)
	if want := f.booking.TotalAmountCents / 2; p.AmountCents != want {
		t.Errorf("amount = %d, want %d", p.AmountCents, want)
	}
	if p.VoucherID == nil {
		t.Error("payment does not reference the voucher")
	}
}

func TestInitiate_VoucherValidationOrder(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	f.store.addVoucher(model.Voucher{
		Code:       "OLD",
		Value:      decimal.RequireFromString("0.5"),
		ValidUntil: time.Now().Add(-time.Hour),
		MaxUsages:  10,
	})
	if _, err := f.payments.Initiate(ctx, testUser, f.booking.ID, "OLD", "card"); !errors.Is(err, ErrVoucherExpired) {
		t.Errorf("expired voucher: err = %v, want ErrVoucherExpired", err)
	}

	f.store.addVoucher(model.Voucher{
		Code:       "USEDUP",
		Value:      decimal.RequireFromString("0.5"),
		ValidUntil: time.Now().Add(time.Hour),
		MaxUsages:  3,
		Usages:     3,
	})
	if _, err := f.payments.Initiate(ctx, testUser, f.booking.ID, "USEDUP", "card"); !errors.Is(err, repository.ErrVoucherDepleted) {
		t.Errorf("depleted voucher: err = %v, want ErrVoucherDepleted", err)
	}

	// Stored value outside (0,1) is an invariant violation, reported as such
	// rather than applied.
	for _, bad := range []string{"0", "1", "1.5"} {
		f.store.addVoucher(model.Voucher{
			Code:       "BAD" + bad,
			Value:      decimal.RequireFromString(bad),
			ValidUntil: time.Now().Add(time.Hour),
			MaxUsages:  10,
		})
		if _, err := f.payments.Initiate(ctx, testUser, f.booking.ID, "BAD"+bad, "card"); !errors.Is(err, ErrInvalidVoucherValue) {
			t.Errorf("value %s: err = %v, want ErrInvalidVoucherValue", bad, err)
		}
	}
}

func TestReconcile_SucceededConfirmsOnce(t *testing.T) {
	f := newPaymentFixture(t)
	v := f.store.addVoucher(model.Voucher{
		Code:       "HALF",
		Value:      decimal.RequireFromString("0.5"),
		ValidUntil: time.Now().Add(24 * time.Hour),
		MaxUsages:  10,
	})
	ref := f.initiate(t, "HALF")
	ctx := context.Background()

	// Not finished on the provider side yet: no state change.
	st, err := f.payments.Reconcile(ctx, ref)
	if err != nil || st != model.PaymentPending {
		t.Fatalf("pending reconcile = (%s, %v), want (PENDING, nil)", st, err)
	}

	f.provider.Complete(ref)
	for i := 0; i < 2; i++ {
		st, err = f.payments.Reconcile(ctx, ref)
		if err != nil {
			t.Fatalf("reconcile #%d failed: %v", i+1, err)
		}
		if st != model.PaymentPaid {
			t.Fatalf("reconcile #%d = %s, want PAID", i+1, st)
		}
	}

	b, _ := f.store.booking(f.booking.ID)
	if b.Status != model.BookingConfirmed {
		t.Errorf("booking status = %s, want CONFIRMED", b.Status)
	}
	got, _ := f.store.voucher(v.ID)
	if got.Usages != 1 {
		t.Errorf("voucher usages = %d, want exactly 1 after double reconcile", got.Usages)
	}
}

func TestReconcile_DeclinedAndCanceledFail(t *testing.T) {
	for name, drive := range map[string]func(*pay.Sandbox, string){
		"declined": func(p *pay.Sandbox, ref string) { p.Decline(ref) },
		"canceled": func(p *pay.Sandbox, ref string) { p.Cancel(ref) },
	} {
		t.Run(name, func(t *testing.T) {
			f := newPaymentFixture(t)
			ref := f.initiate(t, "")
			drive(f.provider, ref)

			st, err := f.payments.Reconcile(context.Background(), ref)
			if err != nil || st != model.PaymentFailed {
				t.Fatalf("reconcile = (%s, %v), want (FAILED, nil)", st, err)
			}
			b, _ := f.store.booking(f.booking.ID)
			if b.Status != model.BookingUnconfirmed {
				t.Errorf("booking status = %s, want UNCONFIRMED", b.Status)
			}
		})
	}
}

func TestReconcile_ExpiredBookingExpiresPayment(t *testing.T) {
	f := newPaymentFixture(t)
	ref := f.initiate(t, "")
	f.store.backdateBooking(f.booking.ID, time.Now().Add(-16*time.Minute))
	f.provider.Complete(ref)

	st, err := f.payments.Reconcile(context.Background(), ref)
	if err != nil || st != model.PaymentExpired {
		t.Fatalf("reconcile = (%s, %v), want (EXPIRED, nil)", st, err)
	}
	b, _ := f.store.booking(f.booking.ID)
	if b.Status != model.BookingUnconfirmed {
		t.Errorf("booking status = %s, want UNCONFIRMED", b.Status)
	}

	// Terminal states never transition again.
	st, err = f.payments.Reconcile(context.Background(), ref)
	if err != nil || st != model.PaymentExpired {
		t.Fatalf("replay reconcile = (%s, %v), want (EXPIRED, nil)", st, err)
	}
}

func TestReconcile_UnknownRef(t *testing.T) {
	f := newPaymentFixture(t)
	if _, err := f.payments.Reconcile(context.Background(), "pi_missing"); !errors.Is(err, repository.ErrPaymentNotFound) {
		t.Errorf("err = %v, want ErrPaymentNotFound", err)
	}
}
