package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// HoldStatus represents the status of a seat hold
// Matches PostgreSQL ENUM: hold_status
type HoldStatus string

const (
	HoldStatusActive    HoldStatus = "active"
	HoldStatusCancelled HoldStatus = "cancelled" // explicit cancel, consumed by a booking, or expired by the sweeper
)

// Hold is a time-boxed exclusive claim on seats for one trip. A hold past
// its ExpiresAt is treated as inactive by every reader even before the
// background sweeper cancels it.
type Hold struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	TripID    uuid.UUID     `json:"trip_id" db:"trip_id"`
	Seats     SeatCodeArray `json:"seats" db:"seats"`
	Phone     *string       `json:"phone,omitempty" db:"phone"`
	Status    HoldStatus    `json:"status" db:"status"`
	ExpiresAt time.Time     `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// IsExpired checks if the hold has passed its TTL
func (h *Hold) IsExpired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

// IsActive reports whether the hold still blocks its seats
func (h *Hold) IsActive(now time.Time) bool {
	return h.Status == HoldStatusActive && !h.IsExpired(now)
}

// ============================================================================
// REQUEST/RESPONSE STRUCTS
// ============================================================================

// CreateHoldRequest is the request to claim seats on a trip
type CreateHoldRequest struct {
	TripID string   `json:"trip_id" binding:"required"`
	Seats  []string `json:"seats" binding:"required,min=1"`
	Phone  *string  `json:"phone,omitempty"`
}

// Validate validates the hold request beyond binding tags
func (r *CreateHoldRequest) Validate() error {
	if len(r.Seats) > SeatCapacity {
		return errors.New("cannot hold more seats than the coach has")
	}
	seen := make(map[string]bool, len(r.Seats))
	for _, seat := range r.Seats {
		if seen[seat] {
			return errors.New("duplicate seat in request: " + seat)
		}
		seen[seat] = true
	}
	return nil
}

// HoldResponse is returned after creating or fetching a hold
type HoldResponse struct {
	HoldID    uuid.UUID    `json:"hold_id"`
	Seats     []string     `json:"seats"`
	Status    HoldStatus   `json:"status"`
	ExpiresAt time.Time    `json:"expires_at"`
	Trip      TripSnapshot `json:"trip"`
}
