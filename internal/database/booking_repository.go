package database

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/lagiexpress/booking-backend/internal/models"
)

// BookingRepository handles database operations for bookings
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, reference, trip_id, hold_id, seats, customer, device,
	payment_method, payment_status, amount, currency, provider_txn_id, paid_at, refunded_at,
	status, checked_in, boarded_at, reminder_sent_at, created_at, updated_at`

// Create inserts a booking. The bookings.hold_id UNIQUE constraint is the
// idempotency key: when a concurrent or repeated confirm already created a
// booking for the same hold, the insert fails with 23505 and this method
// returns the existing booking with reused = true.
func (r *BookingRepository) Create(booking *models.Booking) (*models.Booking, bool, error) {
	query := `
		INSERT INTO bookings (
			id, reference, trip_id, hold_id, seats, customer, device,
			payment_method, payment_status, amount, currency,
			status, checked_in, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, false, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(query,
		booking.ID, booking.Reference, booking.TripID, booking.HoldID,
		booking.Seats, booking.Customer, booking.Device,
		booking.PaymentMethod, booking.PaymentStatus, booking.Amount, booking.Currency,
		booking.Status,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			existing, lookupErr := r.GetByHoldID(booking.HoldID)
			if lookupErr != nil {
				return nil, false, fmt.Errorf("duplicate booking for hold but lookup failed: %w", lookupErr)
			}
			return existing, true, nil
		}
		return nil, false, fmt.Errorf("failed to create booking: %w", err)
	}

	return booking, false, nil
}

// GetByID fetches a booking by its id
func (r *BookingRepository) GetByID(id uuid.UUID) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)

	var booking models.Booking
	err := r.db.Get(&booking, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// GetByHoldID fetches the booking created from a hold, if any
func (r *BookingRepository) GetByHoldID(holdID uuid.UUID) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE hold_id = $1`, bookingColumns)

	var booking models.Booking
	err := r.db.Get(&booking, query, holdID)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by hold: %w", err)
	}
	return &booking, nil
}

// GetByReference fetches a booking by its customer-facing reference
func (r *BookingRepository) GetByReference(reference string) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE reference = $1`, bookingColumns)

	var booking models.Booking
	err := r.db.Get(&booking, query, reference)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by reference: %w", err)
	}
	return &booking, nil
}

// ListByPhone returns a customer's bookings, newest first
func (r *BookingRepository) ListByPhone(phone string) ([]*models.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bookings
		WHERE customer->>'phone' = $1
		ORDER BY created_at DESC`, bookingColumns)

	bookings := []*models.Booking{}
	err := r.db.Select(&bookings, query, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings by phone: %w", err)
	}
	return bookings, nil
}

// MarkPaid settles the booking's payment sub-record. The conditional
// WHERE clause makes duplicate gateway callbacks a no-op: the second call
// matches zero rows and returns false.
func (r *BookingRepository) MarkPaid(id uuid.UUID, method models.PaymentMethod, amount float64, providerTxnID *string) (bool, error) {
	query := `
		UPDATE bookings
		SET payment_status = 'paid',
		    payment_method = $2,
		    amount = $3,
		    provider_txn_id = $4,
		    paid_at = NOW(),
		    status = 'confirmed',
		    updated_at = NOW()
		WHERE id = $1 AND payment_status <> 'paid'
	`

	result, err := r.db.Exec(query, id, method, amount, providerTxnID)
	if err != nil {
		return false, fmt.Errorf("failed to mark booking paid: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// MarkFailed records a failed gateway attempt. The booking stays pending
// so a later successful callback or an admin can still resolve it.
func (r *BookingRepository) MarkFailed(id uuid.UUID) (bool, error) {
	query := `
		UPDATE bookings
		SET payment_status = 'failed', updated_at = NOW()
		WHERE id = $1 AND payment_status = 'pending'
	`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark booking failed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// Cancel transitions a booking to cancelled and flips a paid payment to
// refunded in the same statement. Guarded so terminal and checked-in
// bookings never match; the departure-window rule is enforced by the
// service before calling this.
func (r *BookingRepository) Cancel(id uuid.UUID) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled',
		    payment_status = CASE WHEN payment_status = 'paid' THEN 'refunded' ELSE payment_status END,
		    refunded_at = CASE WHEN payment_status = 'paid' THEN NOW() ELSE refunded_at END,
		    updated_at = NOW()
		WHERE id = $1
		  AND status IN ('pending', 'confirmed')
		  AND checked_in = false
	`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// CheckIn marks a confirmed booking as boarded
func (r *BookingRepository) CheckIn(id uuid.UUID) (bool, error) {
	query := `
		UPDATE bookings
		SET checked_in = true, boarded_at = NOW(), updated_at = NOW()
		WHERE id = $1
		  AND status IN ('pending', 'confirmed')
		  AND checked_in = false
	`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return false, fmt.Errorf("failed to check in booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// ListDueReminders returns paid bookings departing within the window that
// have not been reminded yet
func (r *BookingRepository) ListDueReminders(now time.Time, window time.Duration) ([]*models.Booking, error) {
	query := `
		SELECT b.id, b.reference, b.trip_id, b.hold_id, b.seats, b.customer, b.device,
		       b.payment_method, b.payment_status, b.amount, b.currency, b.provider_txn_id,
		       b.paid_at, b.refunded_at, b.status, b.checked_in, b.boarded_at,
		       b.reminder_sent_at, b.created_at, b.updated_at
		FROM bookings b
		JOIN trips t ON t.id = b.trip_id
		WHERE b.payment_status = 'paid'
		  AND b.status = 'confirmed'
		  AND b.reminder_sent_at IS NULL
		  AND t.depart_at > $1
		  AND t.depart_at <= $2
	`

	bookings := []*models.Booking{}
	err := r.db.Select(&bookings, query, now, now.Add(window))
	if err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}
	return bookings, nil
}

// MarkReminded stamps a booking so the reminder job does not email twice
func (r *BookingRepository) MarkReminded(id uuid.UUID) error {
	query := `
		UPDATE bookings
		SET reminder_sent_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND reminder_sent_at IS NULL
	`

	_, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to mark booking reminded: %w", err)
	}
	return nil
}

// GenerateReference produces a customer-facing booking reference like
// "LG-20260828-X7K9Q2", retrying on the unlikely collision
func (r *BookingRepository) GenerateReference() (string, error) {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no 0/O, 1/I

	for attempt := 0; attempt < 5; attempt++ {
		suffix := make([]byte, 6)
		for i := range suffix {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
			if err != nil {
				return "", fmt.Errorf("failed to generate reference: %w", err)
			}
			suffix[i] = charset[n.Int64()]
		}

		reference := fmt.Sprintf("LG-%s-%s", time.Now().Format("20060102"), string(suffix))

		var exists bool
		err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM bookings WHERE reference = $1)`, reference).Scan(&exists)
		if err != nil {
			return "", fmt.Errorf("failed to check reference uniqueness: %w", err)
		}
		if !exists {
			return reference, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique booking reference after 5 attempts")
}
