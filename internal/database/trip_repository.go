package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lagiexpress/booking-backend/internal/models"
)

// TripRepository handles database operations for trips. The seats_booked
// column (the sold set) is only ever mutated here, through the idempotent
// set-union / set-difference statements below.
type TripRepository struct {
	db DB
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db DB) *TripRepository {
	return &TripRepository{db: db}
}

const tripColumns = `id, route_code, service_date, depart_at, price, seat_capacity, seats_booked, is_active, created_at, updated_at`

// GetByID fetches a trip by its id
func (r *TripRepository) GetByID(id uuid.UUID) (*models.Trip, error) {
	query := fmt.Sprintf(`SELECT %s FROM trips WHERE id = $1`, tripColumns)

	var trip models.Trip
	err := r.db.Get(&trip, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return &trip, nil
}

// GetByIDForUpdate fetches a trip inside a transaction with a row lock.
// Every seat-claim check-then-create runs behind this lock so two
// concurrent holds for overlapping seats serialize on the trip row.
func (r *TripRepository) GetByIDForUpdate(tx *sqlx.Tx, id uuid.UUID) (*models.Trip, error) {
	query := fmt.Sprintf(`SELECT %s FROM trips WHERE id = $1 FOR UPDATE`, tripColumns)

	var trip models.Trip
	err := tx.Get(&trip, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock trip: %w", err)
	}
	return &trip, nil
}

// Search returns active trips for a route on a service date, soonest
// first. Trips that already departed are filtered by the caller-supplied
// notBefore bound (zero time means no bound).
func (r *TripRepository) Search(routeCode string, serviceDate time.Time, notBefore time.Time) ([]*models.Trip, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM trips
		WHERE route_code = $1
		  AND service_date = $2::date
		  AND is_active = true
		  AND depart_at > $3
		ORDER BY depart_at ASC`, tripColumns)

	trips := []*models.Trip{}
	err := r.db.Select(&trips, query, routeCode, serviceDate, notBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to search trips: %w", err)
	}
	return trips, nil
}

// EnsureTrip upserts one generated trip keyed by (route, date, departure).
// Re-running the generator never duplicates trips or resets a sold set.
// Returns true when a new row was inserted.
func (r *TripRepository) EnsureTrip(routeCode string, serviceDate, departAt time.Time, price float64, capacity int) (bool, error) {
	query := `
		INSERT INTO trips (id, route_code, service_date, depart_at, price, seat_capacity, seats_booked, is_active, created_at, updated_at)
		VALUES ($1, $2, $3::date, $4, $5, $6, '{}', true, NOW(), NOW())
		ON CONFLICT (route_code, service_date, depart_at) DO NOTHING
	`

	result, err := r.db.Exec(query, uuid.New(), routeCode, serviceDate, departAt, price, capacity)
	if err != nil {
		return false, fmt.Errorf("failed to ensure trip: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// MergeSoldSeats unions seats into the trip's sold set. The union is
// computed in SQL with DISTINCT, so re-applying the same seats (duplicate
// gateway callbacks) leaves the set unchanged.
func (r *TripRepository) MergeSoldSeats(tripID uuid.UUID, seats []string) error {
	query := `
		UPDATE trips
		SET seats_booked = (
			SELECT COALESCE(ARRAY(
				SELECT DISTINCT s FROM unnest(seats_booked || $2::text[]) AS s ORDER BY s
			), '{}')
		),
		updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, tripID, pq.Array(seats))
	if err != nil {
		return fmt.Errorf("failed to merge sold seats: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrTripNotFound
	}
	return nil
}

// ReleaseSoldSeats removes seats from the trip's sold set. Seats not in
// the set are a no-op, so releasing twice is safe.
func (r *TripRepository) ReleaseSoldSeats(tripID uuid.UUID, seats []string) error {
	query := `
		UPDATE trips
		SET seats_booked = (
			SELECT COALESCE(ARRAY(
				SELECT s FROM unnest(seats_booked) AS s WHERE s <> ALL($2::text[])
			), '{}')
		),
		updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, tripID, pq.Array(seats))
	if err != nil {
		return fmt.Errorf("failed to release sold seats: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrTripNotFound
	}
	return nil
}

// DeactivateDeparted flags past trips inactive so searches stop
// returning them. Called by the trip generator job.
func (r *TripRepository) DeactivateDeparted(before time.Time) (int64, error) {
	query := `
		UPDATE trips
		SET is_active = false, updated_at = NOW()
		WHERE is_active = true AND depart_at < $1
	`

	result, err := r.db.Exec(query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate departed trips: %w", err)
	}
	return result.RowsAffected()
}
