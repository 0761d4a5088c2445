package database

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by repositories. Services translate these
// into their own error taxonomy at the boundary.
var (
	ErrTripNotFound    = errors.New("trip not found")
	ErrHoldNotFound    = errors.New("hold not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrIntentNotFound  = errors.New("payment intent not found")
	ErrAdminNotFound   = errors.New("admin user not found")
)

// SeatUnavailableError is returned when a hold request loses the race
// for one or more seats. Sold and Held name the specific conflicting
// seats so the client can re-pick.
type SeatUnavailableError struct {
	Sold []string
	Held []string
}

func (e *SeatUnavailableError) Error() string {
	var parts []string
	if len(e.Sold) > 0 {
		parts = append(parts, fmt.Sprintf("seats already sold: %s", strings.Join(e.Sold, ", ")))
	}
	if len(e.Held) > 0 {
		parts = append(parts, fmt.Sprintf("seats held by another customer: %s", strings.Join(e.Held, ", ")))
	}
	if len(parts) == 0 {
		return "seats unavailable"
	}
	return strings.Join(parts, "; ")
}
