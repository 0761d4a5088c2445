package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lagiexpress/booking-backend/internal/models"
)

// PaymentIntentRepository handles database operations for payment intents
type PaymentIntentRepository struct {
	db DB
}

// NewPaymentIntentRepository creates a new payment intent repository
func NewPaymentIntentRepository(db DB) *PaymentIntentRepository {
	return &PaymentIntentRepository{db: db}
}

const intentColumns = `id, booking_id, method, amount, currency, status, pay_url, txn_ref, provider_txn_id, expires_at, created_at, updated_at`

// Create inserts a new pending intent
func (r *PaymentIntentRepository) Create(intent *models.PaymentIntent) error {
	query := `
		INSERT INTO payment_intents (id, booking_id, method, amount, currency, status, pay_url, txn_ref, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(query,
		intent.ID, intent.BookingID, intent.Method, intent.Amount, intent.Currency,
		intent.Status, intent.PayURL, intent.TxnRef, intent.ExpiresAt,
	).Scan(&intent.CreatedAt, &intent.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment intent: %w", err)
	}
	return nil
}

// GetByID fetches an intent by its id
func (r *PaymentIntentRepository) GetByID(id uuid.UUID) (*models.PaymentIntent, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_intents WHERE id = $1`, intentColumns)

	var intent models.PaymentIntent
	err := r.db.Get(&intent, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrIntentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}
	return &intent, nil
}

// GetByTxnRef fetches an intent by the reference we handed to the gateway
func (r *PaymentIntentRepository) GetByTxnRef(txnRef string) (*models.PaymentIntent, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_intents WHERE txn_ref = $1`, intentColumns)

	var intent models.PaymentIntent
	err := r.db.Get(&intent, query, txnRef)
	if err == sql.ErrNoRows {
		return nil, ErrIntentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent by txn ref: %w", err)
	}
	return &intent, nil
}

// MarkPaid flips a pending intent to paid. Conditional so duplicate
// callbacks affect zero rows and return false.
func (r *PaymentIntentRepository) MarkPaid(id uuid.UUID, providerTxnID *string) (bool, error) {
	query := `
		UPDATE payment_intents
		SET status = 'paid', provider_txn_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.Exec(query, id, providerTxnID)
	if err != nil {
		return false, fmt.Errorf("failed to mark intent paid: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// MarkCancelled flips a pending intent to cancelled
func (r *PaymentIntentRepository) MarkCancelled(id uuid.UUID) (bool, error) {
	query := `
		UPDATE payment_intents
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark intent cancelled: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// MarkExpired lazily expires one overdue pending intent (used on status
// reads so a poll never reports a stale pending state)
func (r *PaymentIntentRepository) MarkExpired(id uuid.UUID) (bool, error) {
	query := `
		UPDATE payment_intents
		SET status = 'expired', updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND expires_at <= NOW()
	`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark intent expired: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// ExpireOverdue expires every pending intent past its TTL (sweeper path)
func (r *PaymentIntentRepository) ExpireOverdue(now time.Time) (int64, error) {
	query := `
		UPDATE payment_intents
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'pending' AND expires_at <= $1
	`

	result, err := r.db.Exec(query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire intents: %w", err)
	}
	return result.RowsAffected()
}
