// Package repository contains raw-SQL data access for the booking engine.
// This file defines the sentinel errors shared across repositories so that
// services and handlers can distinguish failure kinds with errors.Is instead
// of matching on exception-style types.
package repository

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Not-found errors. These propagate unchanged to the caller.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSeatNotFound    = errors.New("seat not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrVoucherNotFound = errors.New("voucher not found")
	ErrHallNotFound    = errors.New("hall not found")
)

// Domain-conflict errors. Expected under normal operation; never retried by
// the engine.
var (
	// ErrSeatAlreadyReserved signals that at least one requested seat is
	// already claimed by an active booking for the session. Use
	// SeatConflictError to learn which seats; errors.Is against this
	// sentinel works for both forms.
	ErrSeatAlreadyReserved = errors.New("seat already reserved")

	// ErrSessionOverlap signals a session whose [starts_at, ends_at)
	// interval collides with another session in the same hall.
	ErrSessionOverlap = errors.New("session overlaps another session in this hall")

	// ErrVoucherDepleted is returned when a voucher's usage counter has
	// reached max_usages.
	ErrVoucherDepleted = errors.New("voucher depleted")
)

// ErrForbidden is returned when the caller operates on a resource owned by
// someone else. Handlers map it to 403.
var ErrForbidden = errors.New("forbidden")

// ErrEmailExists is returned by UserRepo.Create on a duplicate email.
var ErrEmailExists = errors.New("email already exists")

// SeatConflictError names the seats that blocked a reservation. It matches
// ErrSeatAlreadyReserved under errors.Is so call sites that do not care
// about the exact seats keep working.
type SeatConflictError struct {
	SeatIDs []uint64
}

func (e *SeatConflictError) Error() string {
	ids := make([]uint64, len(e.SeatIDs))
	copy(ids, e.SeatIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "seats already reserved: " + strings.Join(parts, ", ")
}

func (e *SeatConflictError) Is(target error) bool { return target == ErrSeatAlreadyReserved }
