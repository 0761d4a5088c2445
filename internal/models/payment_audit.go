package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentAuditOutcome classifies what a gateway interaction produced
type PaymentAuditOutcome string

const (
	AuditOutcomeSuccess   PaymentAuditOutcome = "success"
	AuditOutcomeFailure   PaymentAuditOutcome = "failure"
	AuditOutcomeBadSig    PaymentAuditOutcome = "bad_signature"
	AuditOutcomeNotFound  PaymentAuditOutcome = "ref_not_found"
	AuditOutcomeDuplicate PaymentAuditOutcome = "duplicate"
)

// PaymentAudit is one append-only row per gateway callback or manual
// reconciliation. Raw callback params are never stored, only a digest,
// so the table stays free of gateway PII.
type PaymentAudit struct {
	ID            uuid.UUID           `json:"id" db:"id"`
	Gateway       string              `json:"gateway" db:"gateway"`
	TxnRef        string              `json:"txn_ref" db:"txn_ref"`
	BookingID     *uuid.UUID          `json:"booking_id,omitempty" db:"booking_id"`
	Outcome       PaymentAuditOutcome `json:"outcome" db:"outcome"`
	Amount        float64             `json:"amount" db:"amount"`
	ProviderTxnID *string             `json:"provider_txn_id,omitempty" db:"provider_txn_id"`
	ParamsDigest  string              `json:"params_digest" db:"params_digest"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
}
