package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lagiexpress/booking-backend/internal/models"
)

// HoldRepository handles database operations for seat holds
type HoldRepository struct {
	db       DB
	tripRepo *TripRepository
}

// NewHoldRepository creates a new hold repository
func NewHoldRepository(db DB, tripRepo *TripRepository) *HoldRepository {
	return &HoldRepository{db: db, tripRepo: tripRepo}
}

const holdColumns = `id, trip_id, seats, phone, status, expires_at, created_at, updated_at`

// CreateHold atomically checks seat availability and persists the hold.
// The whole check-then-create runs in one transaction behind a FOR UPDATE
// lock on the trip row, so two concurrent requests for overlapping seats
// serialize and the loser sees the winner's hold.
//
// The caller is expected to have validated trip existence, departure time
// and seat codes already; this method re-reads the trip under the lock and
// only enforces the availability invariant.
func (r *HoldRepository) CreateHold(hold *models.Hold) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	trip, err := r.tripRepo.GetByIDForUpdate(tx, hold.TripID)
	if err != nil {
		return err
	}

	// Seats already sold
	sold := trip.SeatsBooked.Overlap(hold.Seats)

	// Seats covered by another active, unexpired hold. Expired holds are
	// ignored here even if the sweeper has not cancelled them yet.
	var heldSeats []models.SeatCodeArray
	query := `
		SELECT seats FROM holds
		WHERE trip_id = $1
		  AND status = 'active'
		  AND expires_at > NOW()
	`
	rows, err := tx.Queryx(query, hold.TripID)
	if err != nil {
		return fmt.Errorf("failed to query active holds: %w", err)
	}
	for rows.Next() {
		var seats models.SeatCodeArray
		if err := rows.Scan(&seats); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan held seats: %w", err)
		}
		heldSeats = append(heldSeats, seats)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate active holds: %w", err)
	}

	var held []string
	for _, requested := range hold.Seats {
		for _, other := range heldSeats {
			if other.Contains(requested) {
				held = append(held, requested)
				break
			}
		}
	}

	if len(sold) > 0 || len(held) > 0 {
		return &SeatUnavailableError{Sold: sold, Held: held}
	}

	insert := `
		INSERT INTO holds (id, trip_id, seats, phone, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = tx.QueryRow(insert, hold.ID, hold.TripID, hold.Seats, hold.Phone, hold.Status, hold.ExpiresAt).
		Scan(&hold.CreatedAt, &hold.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert hold: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit hold: %w", err)
	}
	return nil
}

// GetByID fetches a hold by its id
func (r *HoldRepository) GetByID(id uuid.UUID) (*models.Hold, error) {
	query := fmt.Sprintf(`SELECT %s FROM holds WHERE id = $1`, holdColumns)

	var hold models.Hold
	err := r.db.Get(&hold, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrHoldNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hold: %w", err)
	}
	return &hold, nil
}

// Cancel transitions an active hold to cancelled. Idempotent: cancelling
// an unknown or already-terminal hold affects zero rows and returns false
// without an error.
func (r *HoldRepository) Cancel(id uuid.UUID) (bool, error) {
	query := `
		UPDATE holds
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel hold: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// ActiveHeldSeats returns the union of seats covered by unexpired active
// holds on a trip, for the seat map and availability computation.
func (r *HoldRepository) ActiveHeldSeats(tripID uuid.UUID) ([]string, error) {
	query := `
		SELECT COALESCE(ARRAY(
			SELECT DISTINCT s
			FROM holds, unnest(holds.seats) AS s
			WHERE holds.trip_id = $1
			  AND holds.status = 'active'
			  AND holds.expires_at > NOW()
			ORDER BY s
		), '{}')
	`

	var seats models.SeatCodeArray
	err := r.db.QueryRow(query, tripID).Scan(&seats)
	if err != nil {
		return nil, fmt.Errorf("failed to get held seats: %w", err)
	}
	return seats, nil
}

// ExpireOverdue cancels active holds whose TTL has passed. Readers already
// treat them as inactive; this is the hygiene pass that stops the table
// from accumulating stale active rows.
func (r *HoldRepository) ExpireOverdue(now time.Time) (int64, error) {
	query := `
		UPDATE holds
		SET status = 'cancelled', updated_at = NOW()
		WHERE status = 'active' AND expires_at <= $1
	`

	result, err := r.db.Exec(query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire holds: %w", err)
	}
	return result.RowsAffected()
}
