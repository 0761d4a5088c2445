package database

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/lagiexpress/booking-backend/internal/models"
)

// PaymentAuditRepository handles the append-only payment audit trail
type PaymentAuditRepository struct {
	db DB
}

// NewPaymentAuditRepository creates a new payment audit repository
func NewPaymentAuditRepository(db DB) *PaymentAuditRepository {
	return &PaymentAuditRepository{db: db}
}

// Insert appends one audit row. Audits are never updated or deleted.
func (r *PaymentAuditRepository) Insert(audit *models.PaymentAudit) error {
	query := `
		INSERT INTO payment_audits (id, gateway, txn_ref, booking_id, outcome, amount, provider_txn_id, params_digest, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING created_at
	`

	err := r.db.QueryRow(query,
		audit.ID, audit.Gateway, audit.TxnRef, audit.BookingID,
		audit.Outcome, audit.Amount, audit.ProviderTxnID, audit.ParamsDigest,
	).Scan(&audit.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert payment audit: %w", err)
	}
	return nil
}

// ListByBooking returns the audit trail for one booking, oldest first
func (r *PaymentAuditRepository) ListByBooking(bookingID uuid.UUID) ([]*models.PaymentAudit, error) {
	query := `
		SELECT id, gateway, txn_ref, booking_id, outcome, amount, provider_txn_id, params_digest, created_at
		FROM payment_audits
		WHERE booking_id = $1
		ORDER BY created_at ASC
	`

	audits := []*models.PaymentAudit{}
	err := r.db.Select(&audits, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment audits: %w", err)
	}
	return audits, nil
}
