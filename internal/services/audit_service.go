package services

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lagiexpress/booking-backend/internal/database"
	"github.com/lagiexpress/booking-backend/internal/models"
)

// AuditService writes the append-only payment audit trail. Raw gateway
// parameters are digested, never stored.
type AuditService struct {
	auditRepo *database.PaymentAuditRepository
	logger    *logrus.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo *database.PaymentAuditRepository, logger *logrus.Logger) *AuditService {
	return &AuditService{auditRepo: auditRepo, logger: logger}
}

// RecordGatewayEvent appends one audit row. Audit failures are logged
// and swallowed: the trail is for operators, not a correctness
// dependency of reconciliation.
func (s *AuditService) RecordGatewayEvent(
	gateway, txnRef string,
	bookingID *uuid.UUID,
	outcome models.PaymentAuditOutcome,
	amount float64,
	providerTxnID *string,
	params map[string]string,
) {
	audit := &models.PaymentAudit{
		ID:            uuid.New(),
		Gateway:       gateway,
		TxnRef:        txnRef,
		BookingID:     bookingID,
		Outcome:       outcome,
		Amount:        amount,
		ProviderTxnID: providerTxnID,
		ParamsDigest:  digestParams(params),
	}

	if err := s.auditRepo.Insert(audit); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"gateway": gateway,
			"txn_ref": txnRef,
			"outcome": outcome,
		}).Error("Failed to write payment audit")
	}
}

// digestParams produces a stable SHA-256 digest of the callback params
func digestParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
		b.WriteByte('&')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
