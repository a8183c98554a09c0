package service

import (
	"context"
	"sync"
	"time"

	"github.com/screenhall/booking-engine/internal/model"
	"github.com/screenhall/booking-engine/internal/repository"
	"github.com/screenhall/booking-engine/internal/store"
)

// memStore is an in-memory store.Store for tests. A single mutex serializes
// atomic units, which trivially satisfies the isolation contract; a failed
// unit restores the state snapshot taken at entry, which satisfies
// atomicity. The seatIndex map plays the role of the unique (session, seat)
// constraint.
type memStore struct {
	mu sync.Mutex
	s  memState
}

type memState struct {
	sessions     map[uint64]model.Session
	seats        map[uint64]model.Seat
	bookings     map[uint64]model.Booking
	bookingSeats map[uint64][]model.BookingSeat
	seatIndex    map[seatKey]uint64
	payments     map[string]model.Payment
	vouchers     map[uint64]model.Voucher
	nextID       uint64
}

type seatKey struct{ sessionID, seatID uint64 }

func newMemStore() *memStore {
	return &memStore{s: memState{
		sessions:     make(map[uint64]model.Session),
		seats:        make(map[uint64]model.Seat),
		bookings:     make(map[uint64]model.Booking),
		bookingSeats: make(map[uint64][]model.BookingSeat),
		seatIndex:    make(map[seatKey]uint64),
		payments:     make(map[string]model.Payment),
		vouchers:     make(map[uint64]model.Voucher),
		nextID:       0,
	}}
}

func (m *memStore) Atomic(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.s.clone()
	if err := fn(ctx, &memTx{s: &m.s}); err != nil {
		m.s = snap
		return err
	}
	return nil
}

func (st memState) clone() memState {
	out := memState{
		sessions:     make(map[uint64]model.Session, len(st.sessions)),
		seats:        make(map[uint64]model.Seat, len(st.seats)),
		bookings:     make(map[uint64]model.Booking, len(st.bookings)),
		bookingSeats: make(map[uint64][]model.BookingSeat, len(st.bookingSeats)),
		seatIndex:    make(map[seatKey]uint64, len(st.seatIndex)),
		payments:     make(map[string]model.Payment, len(st.payments)),
		vouchers:     make(map[uint64]model.Voucher, len(st.vouchers)),
		nextID:       st.nextID,
	}
	for k, v := range st.sessions {
		out.sessions[k] = v
	}
	for k, v := range st.seats {
		out.seats[k] = v
	}
	for k, v := range st.bookings {
		out.bookings[k] = v
	}
	for k, v := range st.bookingSeats {
		out.bookingSeats[k] = append([]model.BookingSeat(nil), v...)
	}
	for k, v := range st.seatIndex {
		out.seatIndex[k] = v
	}
	for k, v := range st.payments {
		out.payments[k] = v
	}
	for k, v := range st.vouchers {
		out.vouchers[k] = v
	}
	return out
}

// Fixture helpers mutate state directly, outside any unit.

func (m *memStore) addSession(s model.Session) model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == 0 {
		m.s.nextID++
		s.ID = m.s.nextID
	}
	m.s.sessions[s.ID] = s
	return s
}

func (m *memStore) addSeat(s model.Seat) model.Seat {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == 0 {
		m.s.nextID++
		s.ID = m.s.nextID
	}
	if !s.IsActive {
		s.IsActive = true
	}
	m.s.seats[s.ID] = s
	return s
}

func (m *memStore) addVoucher(v model.Voucher) model.Voucher {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == 0 {
		m.s.nextID++
		v.ID = m.s.nextID
	}
	m.s.vouchers[v.ID] = v
	return v
}

func (m *memStore) booking(id uint64) (model.Booking, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.s.bookings[id]
	return b, ok
}

func (m *memStore) payment(ref string) (model.Payment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.s.payments[ref]
	return p, ok
}

func (m *memStore) voucher(id uint64) (model.Voucher, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.s.vouchers[id]
	return v, ok
}

func (m *memStore) backdateBooking(id uint64, createdAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.s.bookings[id]
	b.CreatedAt = createdAt
	m.s.bookings[id] = b
}

func (m *memStore) seatHeld(sessionID, seatID uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.s.seatIndex[seatKey{sessionID, seatID}]
	return ok
}

// memTx implements store.Tx against the shared state. It runs under the
// store mutex, so no further locking is needed.
type memTx struct {
	s *memState
}

var _ store.Tx = (*memTx)(nil)

func (t *memTx) SessionByID(_ context.Context, id uint64) (*model.Session, error) {
	s, ok := t.s.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return &s, nil
}

func (t *memTx) SeatsByIDsInHall(_ context.Context, hallID uint64, ids []uint64) ([]model.Seat, error) {
	var out []model.Seat
	for _, id := range ids {
		s, ok := t.s.seats[id]
		if !ok || s.HallID != hallID || !s.IsActive {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (t *memTx) ReservedSeatIDs(_ context.Context, sessionID uint64, seatIDs []uint64) ([]uint64, error) {
	var out []uint64
	for _, id := range seatIDs {
		if _, ok := t.s.seatIndex[seatKey{sessionID, id}]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (t *memTx) InsertBooking(_ context.Context, b *model.Booking) error {
	t.s.nextID++
	b.ID = t.s.nextID
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	b.UpdatedAt = b.CreatedAt
	t.s.bookings[b.ID] = *b
	return nil
}

func (t *memTx) InsertBookingSeats(_ context.Context, seats []model.BookingSeat) error {
	for i := range seats {
		k := seatKey{seats[i].SessionID, seats[i].SeatID}
		if _, dup := t.s.seatIndex[k]; dup {
			return repository.ErrSeatAlreadyReserved
		}
	}
	for i := range seats {
		t.s.nextID++
		seats[i].ID = t.s.nextID
		seats[i].CreatedAt = time.Now().UTC()
		k := seatKey{seats[i].SessionID, seats[i].SeatID}
		t.s.seatIndex[k] = seats[i].BookingID
		t.s.bookingSeats[seats[i].BookingID] = append(t.s.bookingSeats[seats[i].BookingID], seats[i])
	}
	return nil
}

func (t *memTx) BookingByID(_ context.Context, id uint64) (*model.Booking, error) {
	b, ok := t.s.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	return &b, nil
}

func (t *memTx) BookingByIDForUpdate(ctx context.Context, id uint64) (*model.Booking, error) {
	return t.BookingByID(ctx, id)
}

func (t *memTx) BookingSeats(_ context.Context, bookingID uint64) ([]model.BookingSeat, error) {
	return append([]model.BookingSeat(nil), t.s.bookingSeats[bookingID]...), nil
}

func (t *memTx) ConfirmBooking(_ context.Context, id uint64) error {
	b, ok := t.s.bookings[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	if b.Status == model.BookingUnconfirmed {
		b.Status = model.BookingConfirmed
		b.UpdatedAt = time.Now().UTC()
		t.s.bookings[id] = b
	}
	return nil
}

func (t *memTx) InsertPayment(_ context.Context, p *model.Payment) error {
	t.s.nextID++
	p.ID = t.s.nextID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	t.s.payments[p.ProviderRef] = *p
	return nil
}

func (t *memTx) PaymentByRef(_ context.Context, ref string) (*model.Payment, error) {
	p, ok := t.s.payments[ref]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	return &p, nil
}

func (t *memTx) PaymentByRefForUpdate(ctx context.Context, ref string) (*model.Payment, error) {
	return t.PaymentByRef(ctx, ref)
}

func (t *memTx) SetPaymentStatus(_ context.Context, id uint64, to model.PaymentStatus) (bool, error) {
	for ref, p := range t.s.payments {
		if p.ID == id {
			if p.Status != model.PaymentPending {
				return false, nil
			}
			p.Status = to
			p.UpdatedAt = time.Now().UTC()
			t.s.payments[ref] = p
			return true, nil
		}
	}
	return false, repository.ErrPaymentNotFound
}

func (t *memTx) VoucherByCode(_ context.Context, code string) (*model.Voucher, error) {
	for _, v := range t.s.vouchers {
		if v.Code == code {
			v := v
			return &v, nil
		}
	}
	return nil, repository.ErrVoucherNotFound
}

func (t *memTx) VoucherByID(_ context.Context, id uint64) (*model.Voucher, error) {
	v, ok := t.s.vouchers[id]
	if !ok {
		return nil, repository.ErrVoucherNotFound
	}
	return &v, nil
}

func (t *memTx) IncrementVoucherUsage(_ context.Context, id uint64) error {
	v, ok := t.s.vouchers[id]
	if !ok {
		return repository.ErrVoucherNotFound
	}
	if v.Usages >= v.MaxUsages {
		return repository.ErrVoucherDepleted
	}
	v.Usages++
	t.s.vouchers[id] = v
	return nil
}

func (t *memTx) ExpiredUnconfirmedBookingIDs(_ context.Context, cutoff time.Time, limit int) ([]uint64, error) {
	var out []uint64
	for id, b := range t.s.bookings {
		if b.Status != model.BookingUnconfirmed || b.CreatedAt.After(cutoff) {
			continue
		}
		if len(t.s.bookingSeats[id]) == 0 {
			continue
		}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (t *memTx) ReleaseBookingSeats(_ context.Context, bookingIDs []uint64) (int64, error) {
	var n int64
	for _, id := range bookingIDs {
		for _, bs := range t.s.bookingSeats[id] {
			delete(t.s.seatIndex, seatKey{bs.SessionID, bs.SeatID})
			n++
		}
		delete(t.s.bookingSeats, id)
	}
	return n, nil
}

func (t *memTx) ExpirePendingPayments(_ context.Context, bookingIDs []uint64) (int64, error) {
	ids := make(map[uint64]bool, len(bookingIDs))
	for _, id := range bookingIDs {
		ids[id] = true
	}
	var n int64
	for ref, p := range t.s.payments {
		if ids[p.BookingID] && p.Status == model.PaymentPending {
			p.Status = model.PaymentExpired
			t.s.payments[ref] = p
			n++
		}
	}
	return n, nil
}

func (t *memTx) TouchBookings(_ context.Context, bookingIDs []uint64) error {
	now := time.Now().UTC()
	for _, id := range bookingIDs {
		if b, ok := t.s.bookings[id]; ok {
			b.UpdatedAt = now
			t.s.bookings[id] = b
		}
	}
	return nil
}
