package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/screenhall/booking-engine/internal/model"
	"github.com/screenhall/booking-engine/internal/repository"
	"github.com/screenhall/booking-engine/internal/service"
)

// BookingHandler exposes the customer-facing reservation endpoints.
type BookingHandler struct {
	Reservations *service.ReservationService
	Bookings     *repository.BookingRepo
	Payments     *repository.PaymentRepo
}

func NewBookingHandler(res *service.ReservationService, b *repository.BookingRepo, p *repository.PaymentRepo) *BookingHandler {
	return &BookingHandler{Reservations: res, Bookings: b, Payments: p}
}

type reserveReq struct {
	SeatIDs []uint64 `json:"seat_ids"`
}

type bookingSeatPart struct {
	SeatID     uint64 `json:"seat_id"`
	PriceCents int64  `json:"price_cents"`
}

type bookingResp struct {
	ID               uint64            `json:"id"`
	SessionID        uint64            `json:"session_id"`
	Status           string            `json:"status"`
	TotalAmountCents int64             `json:"total_amount_cents"`
	CreatedAt        time.Time         `json:"created_at"`
	Seats            []bookingSeatPart `json:"seats,omitempty"`
}

func toBookingResp(b *model.Booking) bookingResp {
	resp := bookingResp{
		ID:               b.ID,
		SessionID:        b.SessionID,
		Status:           string(b.Status),
		TotalAmountCents: b.TotalAmountCents,
		CreatedAt:        b.CreatedAt,
	}
	for _, s := range b.Seats {
		resp.Seats = append(resp.Seats, bookingSeatPart{SeatID: s.SeatID, PriceCents: s.PriceCents})
	}
	return resp
}

// Reserve claims seats for the authenticated user.
// POST /v1/sessions/:id/reserve
func (h *BookingHandler) Reserve(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	booking, err := h.Reservations.Reserve(ctx, uid, sessionID, req.SeatIDs)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResp(booking))
}

// MyBookings lists the caller's bookings, newest first.
// GET /v1/my-bookings
func (h *BookingHandler) MyBookings(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bookings, err := h.Bookings.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]bookingResp, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResp(&bookings[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// Get returns one booking with its seats and payment attempts. Only the
// booking's owner may read it.
// GET /v1/bookings/:id
func (h *BookingHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	if b.UserID != uid {
		return jsonError(c, repository.ErrForbidden)
	}
	seats, err := h.Bookings.SeatsByBooking(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	b.Seats = seats

	payments, err := h.Payments.ListByBooking(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	type paymentPart struct {
		ProviderRef string `json:"provider_ref"`
		Method      string `json:"method"`
		Status      string `json:"status"`
		AmountCents int64  `json:"amount_cents"`
	}
	pp := make([]paymentPart, 0, len(payments))
	for _, p := range payments {
		pp = append(pp, paymentPart{
			ProviderRef: p.ProviderRef,
			Method:      p.Method,
			Status:      string(p.Status),
			AmountCents: p.AmountCents,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking":  toBookingResp(b),
		"payments": pp,
	})
}
