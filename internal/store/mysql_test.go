package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"

	"github.com/screenhall/booking-engine/internal/repository"
)

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadlock", &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}, true},
		{"lock wait timeout", &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout"}, true},
		{"wrapped deadlock", fmt.Errorf("insert seats: %w", &mysql.MySQLError{Number: 1213}), true},
		{"duplicate entry", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, false},
		{"domain error", repository.ErrSeatAlreadyReserved, false},
		{"plain error", errors.New("connection reset"), false},
	}
	for _, tc := range cases {
		if got := retryable(tc.err); got != tc.want {
			t.Errorf("%s: retryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSeatInsertErr(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '3-17' for key 'uq_session_seat'"}
	if got := seatInsertErr(dup); !errors.Is(got, repository.ErrSeatAlreadyReserved) {
		t.Fatalf("duplicate entry mapped to %v, want ErrSeatAlreadyReserved", got)
	}
	if got := seatInsertErr(fmt.Errorf("bulk insert: %w", dup)); !errors.Is(got, repository.ErrSeatAlreadyReserved) {
		t.Fatalf("wrapped duplicate entry mapped to %v, want ErrSeatAlreadyReserved", got)
	}

	// Anything else passes through untouched so the retry loop can see it.
	deadlock := &mysql.MySQLError{Number: 1213}
	if got := seatInsertErr(deadlock); !errors.Is(got, deadlock) {
		t.Fatalf("deadlock rewritten to %v", got)
	}
	if got := seatInsertErr(nil); got != nil {
		t.Fatalf("nil rewritten to %v", got)
	}
}
