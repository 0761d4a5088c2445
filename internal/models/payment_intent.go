package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentIntentStatus represents the status of a payment intent
// Matches PostgreSQL ENUM: payment_intent_status
type PaymentIntentStatus string

const (
	IntentStatusPending   PaymentIntentStatus = "pending"
	IntentStatusPaid      PaymentIntentStatus = "paid"
	IntentStatusExpired   PaymentIntentStatus = "expired"
	IntentStatusCancelled PaymentIntentStatus = "cancelled"
)

// PaymentIntent is one attempt to pay a booking through an external
// provider. Several intents may exist for one booking (retries); only
// the booking's own payment state is authoritative for seat
// reconciliation.
type PaymentIntent struct {
	ID            uuid.UUID           `json:"id" db:"id"`
	BookingID     uuid.UUID           `json:"booking_id" db:"booking_id"`
	Method        PaymentMethod       `json:"method" db:"method"`
	Amount        float64             `json:"amount" db:"amount"`
	Currency      string              `json:"currency" db:"currency"`
	Status        PaymentIntentStatus `json:"status" db:"status"`
	PayURL        string              `json:"pay_url" db:"pay_url"`
	TxnRef        string              `json:"txn_ref" db:"txn_ref"` // our reference sent to the gateway
	ProviderTxnID *string             `json:"provider_txn_id,omitempty" db:"provider_txn_id"`
	ExpiresAt     time.Time           `json:"expires_at" db:"expires_at"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at" db:"updated_at"`
}

// IsExpired checks if the intent has passed its TTL
func (i *PaymentIntent) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// IsTerminal reports whether the intent can still change state
func (i *PaymentIntent) IsTerminal() bool {
	return i.Status != IntentStatusPending
}

// ============================================================================
// REQUEST/RESPONSE STRUCTS
// ============================================================================

// CreatePaymentRequest initiates a gateway checkout for a booking
type CreatePaymentRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
	Method    string `json:"method" binding:"required,oneof=vnpay momo zalopay"`
}

// SimulatePaymentRequest drives an intent to a terminal state without a
// gateway round-trip. Only served outside production.
type SimulatePaymentRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=paid cancelled"`
}

// PaymentIntentResponse is returned when creating or polling an intent
type PaymentIntentResponse struct {
	IntentID    uuid.UUID           `json:"intent_id"`
	BookingID   uuid.UUID           `json:"booking_id"`
	Method      PaymentMethod       `json:"method"`
	Amount      float64             `json:"amount"`
	Currency    string              `json:"currency"`
	Status      PaymentIntentStatus `json:"status"`
	PayURL      string              `json:"pay_url,omitempty"`
	ExpiresAt   time.Time           `json:"expires_at"`
	TTLSeconds  int                 `json:"ttl_seconds"`
	AlreadyPaid bool                `json:"already_paid,omitempty"` // booking was settled before this call
}
