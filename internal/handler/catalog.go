package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/screenhall/booking-engine/internal/model"
	"github.com/screenhall/booking-engine/internal/repository"
)

// CatalogHandler exposes the owner-side catalog: halls, their seat grids,
// sessions and vouchers. Every mutation is scoped to the authenticated
// owner; touching another owner's hall yields 403.
type CatalogHandler struct {
	Halls    *repository.HallRepo
	Seats    *repository.SeatRepo
	Sessions *repository.SessionRepo
	Vouchers *repository.VoucherRepo
}

func NewCatalogHandler(h *repository.HallRepo, s *repository.SeatRepo, se *repository.SessionRepo, v *repository.VoucherRepo) *CatalogHandler {
	return &CatalogHandler{Halls: h, Seats: s, Sessions: se, Vouchers: v}
}

const dbTimeout = 5 * time.Second

type hallReq struct {
	Name string `json:"name"`
}

// CreateHall registers a hall owned by the caller.
// POST /v1/owner/halls
func (h *CatalogHandler) CreateHall(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req hallReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	hall := &model.Hall{OwnerID: uid, Name: strings.TrimSpace(req.Name)}
	if err := h.Halls.Create(ctx, hall); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create hall failed"})
	}
	return c.JSON(http.StatusCreated, hall)
}

// ListHalls returns the caller's halls.
// GET /v1/owner/halls
func (h *CatalogHandler) ListHalls(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	halls, err := h.Halls.ListByOwner(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"halls": halls})
}

type seatGridReq struct {
	Rows        int      `json:"rows"`
	SeatsPerRow int      `json:"seats_per_row"`
	VIPRows     []string `json:"vip_rows"`
	ReducedRows []string `json:"reduced_rows"`
}

// CreateSeats lays out a hall's seat grid in bulk. Row labels run A, B, ...
// AA; rows named in vip_rows or reduced_rows get the matching seat type.
// POST /v1/owner/halls/:id/seats
func (h *CatalogHandler) CreateSeats(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	hallID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hall id"})
	}
	var req seatGridReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Rows < 1 || req.Rows > 100 || req.SeatsPerRow < 1 || req.SeatsPerRow > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rows and seats_per_row must be between 1 and 100"})
	}

	typed := make(map[int]model.SeatType)
	for _, label := range req.VIPRows {
		if idx, ok := rowLabelToIndex(normalizeRowLabel(label)); ok {
			typed[idx] = model.SeatVIP
		}
	}
	for _, label := range req.ReducedRows {
		if idx, ok := rowLabelToIndex(normalizeRowLabel(label)); ok {
			typed[idx] = model.SeatReduced
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.Halls.GetByIDAndOwner(ctx, hallID, uid); err != nil {
		return jsonError(c, err)
	}

	seats := make([]model.Seat, 0, req.Rows*req.SeatsPerRow)
	for r := 0; r < req.Rows; r++ {
		seatType := model.SeatNormal
		if t, ok := typed[r]; ok {
			seatType = t
		}
		for n := 1; n <= req.SeatsPerRow; n++ {
			seats = append(seats, model.Seat{
				HallID:     hallID,
				RowLabel:   indexToRowLabel(r),
				SeatNumber: uint32(n),
				SeatType:   seatType,
				IsActive:   true,
			})
		}
	}
	if err := h.Seats.CreateBulk(ctx, seats); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create seats failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"created": len(seats)})
}

type seatUpdateReq struct {
	RowLabel   string `json:"row_label"`
	SeatNumber uint32 `json:"seat_number"`
	SeatType   string `json:"seat_type"`
	IsActive   *bool  `json:"is_active"`
}

// UpdateSeat edits one seat of a hall the caller owns.
// PATCH /v1/owner/seats/:id
func (h *CatalogHandler) UpdateSeat(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	seatID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	var req seatUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	seat, err := h.Seats.GetByID(ctx, seatID)
	if err != nil {
		return jsonError(c, err)
	}
	if label := normalizeRowLabel(req.RowLabel); label != "" {
		seat.RowLabel = label
	}
	if req.SeatNumber > 0 {
		seat.SeatNumber = req.SeatNumber
	}
	if req.SeatType != "" {
		t := model.SeatType(strings.ToUpper(req.SeatType))
		if !t.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown seat_type"})
		}
		seat.SeatType = t
	}
	if req.IsActive != nil {
		seat.IsActive = *req.IsActive
	}
	if err := h.Seats.UpdateByIDAndOwner(ctx, seatID, uid, seat.RowLabel, seat.SeatNumber, seat.SeatType, seat.IsActive); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, seat)
}

type sessionReq struct {
	HallID         uint64    `json:"hall_id"`
	Title          string    `json:"title"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	BasePriceCents int64     `json:"base_price_cents"`
	PromoPercent   uint8     `json:"promo_percent"`
}

func (r *sessionReq) validate() string {
	switch {
	case r.HallID == 0:
		return "hall_id required"
	case strings.TrimSpace(r.Title) == "":
		return "title required"
	case r.StartsAt.IsZero() || r.EndsAt.IsZero() || !r.EndsAt.After(r.StartsAt):
		return "starts_at must precede ends_at"
	case r.BasePriceCents < 0:
		return "base_price_cents must not be negative"
	case r.PromoPercent > 100:
		return "promo_percent must be 0-100"
	}
	return ""
}

// CreateSession schedules a screening in one of the caller's halls. A
// session overlapping another in the same hall is rejected.
// POST /v1/owner/sessions
func (h *CatalogHandler) CreateSession(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req sessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.Halls.GetByIDAndOwner(ctx, req.HallID, uid); err != nil {
		return jsonError(c, err)
	}
	overlaps, err := h.Sessions.OverlapExists(ctx, req.HallID, req.StartsAt, req.EndsAt, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if overlaps {
		return jsonError(c, repository.ErrSessionOverlap)
	}

	session := &model.Session{
		HallID:         req.HallID,
		Title:          strings.TrimSpace(req.Title),
		StartsAt:       req.StartsAt.UTC(),
		EndsAt:         req.EndsAt.UTC(),
		BasePriceCents: req.BasePriceCents,
		PromoPercent:   req.PromoPercent,
	}
	if err := h.Sessions.Create(ctx, session); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create session failed"})
	}
	return c.JSON(http.StatusCreated, session)
}

// UpdateSession reschedules or reprices a session. Repricing never touches
// existing bookings; their seat prices were frozen at reservation time.
// PUT /v1/owner/sessions/:id
func (h *CatalogHandler) UpdateSession(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var req sessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	existing, err := h.Sessions.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	if _, err := h.Halls.GetByIDAndOwner(ctx, existing.HallID, uid); err != nil {
		return jsonError(c, err)
	}
	if req.HallID != existing.HallID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session cannot move between halls"})
	}
	overlaps, err := h.Sessions.OverlapExists(ctx, existing.HallID, req.StartsAt, req.EndsAt, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if overlaps {
		return jsonError(c, repository.ErrSessionOverlap)
	}

	existing.Title = strings.TrimSpace(req.Title)
	existing.StartsAt = req.StartsAt.UTC()
	existing.EndsAt = req.EndsAt.UTC()
	existing.BasePriceCents = req.BasePriceCents
	existing.PromoPercent = req.PromoPercent
	if err := h.Sessions.Update(ctx, existing); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, existing)
}

type voucherReq struct {
	Code       string    `json:"code"`
	Value      string    `json:"value"` // decimal fraction in (0,1), e.g. "0.25"
	ValidUntil time.Time `json:"valid_until"`
	MaxUsages  uint32    `json:"max_usages"`
}

// CreateVoucher registers a discount code. The value is validated here so
// the (0,1) invariant holds for every stored voucher.
// POST /v1/owner/vouchers
func (h *CatalogHandler) CreateVoucher(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req voucherReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" || req.MaxUsages == 0 || req.ValidUntil.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code, value, valid_until and max_usages required"})
	}
	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "value must be a decimal"})
	}
	if value.LessThanOrEqual(decimal.Zero) || value.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "value must be strictly between 0 and 1"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	voucher := &model.Voucher{
		Code:       code,
		Value:      value,
		ValidUntil: req.ValidUntil.UTC(),
		MaxUsages:  req.MaxUsages,
	}
	if err := h.Vouchers.Create(ctx, voucher); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create voucher failed"})
	}
	return c.JSON(http.StatusCreated, voucher)
}

// ListVouchers returns all vouchers with their usage counters.
// GET /v1/owner/vouchers
func (h *CatalogHandler) ListVouchers(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	vouchers, err := h.Vouchers.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"vouchers": vouchers})
}
