package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/screenhall/booking-engine/internal/model"
	"github.com/screenhall/booking-engine/internal/pricing"
	"github.com/screenhall/booking-engine/internal/repository"
)

// PublicHandler serves the unauthenticated catalog: upcoming sessions and
// per-session seat availability. These routes sit behind the response cache,
// so a stale availability view is possible within the cache TTL; the
// reservation transaction is the source of truth.
type PublicHandler struct {
	Sessions *repository.SessionRepo
	Seats    *repository.SeatRepo
	Bookings *repository.BookingRepo
}

func NewPublicHandler(se *repository.SessionRepo, s *repository.SeatRepo, b *repository.BookingRepo) *PublicHandler {
	return &PublicHandler{Sessions: se, Seats: s, Bookings: b}
}

// ListSessions returns upcoming sessions, soonest first.
// GET /v1/sessions?limit=
func (h *PublicHandler) ListSessions(c echo.Context) error {
	limit := 50
	if s := c.QueryParam("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	sessions, err := h.Sessions.ListUpcoming(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"sessions": sessions})
}

type seatAvailability struct {
	SeatID     uint64 `json:"seat_id"`
	Label      string `json:"label"`
	SeatType   string `json:"seat_type"`
	PriceCents int64  `json:"price_cents"`
	Available  bool   `json:"available"`
}

// GetSession returns one session plus the availability and current price of
// every active seat in its hall. A seat is available exactly when no active
// booking holds it; expired holds disappear once the reaper sweeps them.
// GET /v1/sessions/:id
func (h *PublicHandler) GetSession(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	session, err := h.Sessions.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	seats, err := h.Seats.GetByHall(ctx, session.HallID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	reserved, err := h.Bookings.AllReservedSeatIDs(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	out := make([]seatAvailability, 0, len(seats))
	for _, seat := range seats {
		if !seat.IsActive {
			continue
		}
		quote, err := pricing.ForSeats(session, []model.Seat{seat})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "pricing failed"})
		}
		out = append(out, seatAvailability{
			SeatID:     seat.ID,
			Label:      seat.Label(),
			SeatType:   string(seat.SeatType),
			PriceCents: quote.TotalCents,
			Available:  !reserved[seat.ID],
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session":      session,
		"seats":        out,
		"generated_at": time.Now().UTC(),
	})
}
