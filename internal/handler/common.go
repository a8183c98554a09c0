package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/screenhall/booking-engine/internal/repository"
	"github.com/screenhall/booking-engine/internal/service"
)

// getUserID extracts the authenticated user ID stored by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric path parameter, rejecting zero.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// domainStatus maps the engine's error taxonomy onto HTTP statuses.
// Conflicts come back 409, expiries 410, not-found 404, ownership 403;
// anything unrecognized is a 500 for the caller to retry.
func domainStatus(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrSeatAlreadyReserved):
		return http.StatusConflict, "seat already reserved"
	case errors.Is(err, repository.ErrVoucherDepleted):
		return http.StatusConflict, "voucher depleted"
	case errors.Is(err, service.ErrVoucherExpired):
		return http.StatusConflict, "voucher expired"
	case errors.Is(err, service.ErrBookingExpired):
		return http.StatusGone, "booking expired"
	case errors.Is(err, service.ErrBookingConfirmed):
		return http.StatusConflict, "booking already confirmed"
	case errors.Is(err, service.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, "amount not payable"
	case errors.Is(err, service.ErrInvalidVoucherValue):
		return http.StatusUnprocessableEntity, "voucher value invalid"
	case errors.Is(err, service.ErrNoSeats):
		return http.StatusBadRequest, "no seats requested"
	case errors.Is(err, repository.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, repository.ErrSeatNotFound):
		return http.StatusNotFound, "seat not found"
	case errors.Is(err, repository.ErrBookingNotFound):
		return http.StatusNotFound, "booking not found"
	case errors.Is(err, repository.ErrPaymentNotFound):
		return http.StatusNotFound, "payment not found"
	case errors.Is(err, repository.ErrVoucherNotFound):
		return http.StatusNotFound, "voucher not found"
	case errors.Is(err, repository.ErrHallNotFound):
		return http.StatusNotFound, "hall not found"
	case errors.Is(err, repository.ErrSessionOverlap):
		return http.StatusConflict, "session overlaps an existing one"
	case errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	}
	return http.StatusInternalServerError, "internal error"
}

// jsonError writes the mapped status and message for err, attaching the
// conflicting seat IDs when the reservation lost a race.
func jsonError(c echo.Context, err error) error {
	status, msg := domainStatus(err)
	body := echo.Map{"error": msg}
	var conflict *repository.SeatConflictError
	if errors.As(err, &conflict) {
		body["seat_ids"] = conflict.SeatIDs
	}
	return c.JSON(status, body)
}

// indexToRowLabel converts a zero-based index to a row label: A..Z, AA, AB.
func indexToRowLabel(i int) string {
	if i < 0 {
		return ""
	}
	var res []rune
	for {
		res = append(res, rune('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// rowLabelToIndex is the inverse of indexToRowLabel.
func rowLabelToIndex(label string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(label))
	if s == "" {
		return -1, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch < 'A' || ch > 'Z' {
			return -1, false
		}
		n = n*26 + int(ch-'A'+1)
	}
	return n - 1, true
}

// normalizeRowLabel keeps ASCII letters only, uppercased.
func normalizeRowLabel(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 32)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		}
	}
	return b.String()
}
