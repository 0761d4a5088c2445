package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lagiexpress/booking-backend/internal/config"
	"github.com/lagiexpress/booking-backend/internal/database"
)

// RateLimitService throttles hold creation per phone and per IP. Holds
// are cheap to create and block seats for everyone else, so a scraper
// hammering the hold endpoint can deny real customers their seats.
type RateLimitService struct {
	db  database.DB
	cfg config.RateLimitConfig
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(db database.DB, cfg config.RateLimitConfig) *RateLimitService {
	return &RateLimitService{db: db, cfg: cfg}
}

// CheckHoldRateLimit checks if a phone number or IP has exceeded its
// hold-creation budget
func (s *RateLimitService) CheckHoldRateLimit(phone, ip string) error {
	phoneWindow := time.Duration(s.cfg.PhoneWindowMinutes) * time.Minute
	ipWindow := time.Duration(s.cfg.IPWindowMinutes) * time.Minute

	if phone != "" {
		count, lastRequest, err := s.getRequestCount(phone, "phone", phoneWindow)
		if err != nil {
			return fmt.Errorf("failed to check phone rate limit: %w", err)
		}
		if count >= s.cfg.MaxPhoneRequests {
			retryAfter := lastRequest.Add(phoneWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many seat holds for this phone number. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "phone",
			}
		}
	}

	if ip != "" {
		count, lastRequest, err := s.getRequestCount(ip, "ip", ipWindow)
		if err != nil {
			return fmt.Errorf("failed to check IP rate limit: %w", err)
		}
		if count >= s.cfg.MaxIPRequests {
			retryAfter := lastRequest.Add(ipWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many seat holds from this address. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "ip",
			}
		}
	}

	return nil
}

// getRequestCount gets the number of requests within the time window
func (s *RateLimitService) getRequestCount(identifier, identifierType string, window time.Duration) (int, time.Time, error) {
	windowStart := time.Now().Add(-window)

	query := `
		SELECT COUNT(*), COALESCE(MAX(created_at), NOW())
		FROM hold_rate_limits
		WHERE identifier = $1
		  AND identifier_type = $2
		  AND created_at > $3
	`

	var count int
	var lastRequest time.Time

	err := s.db.QueryRow(query, identifier, identifierType, windowStart).Scan(&count, &lastRequest)
	if err != nil && err != sql.ErrNoRows {
		return 0, time.Time{}, err
	}

	return count, lastRequest, nil
}

// RecordHoldRequest records a successful hold for rate limiting
func (s *RateLimitService) RecordHoldRequest(phone, ip string) error {
	if phone != "" {
		if err := s.recordRequest(phone, "phone"); err != nil {
			return fmt.Errorf("failed to record phone request: %w", err)
		}
	}

	if ip != "" {
		if err := s.recordRequest(ip, "ip"); err != nil {
			return fmt.Errorf("failed to record IP request: %w", err)
		}
	}

	return nil
}

// recordRequest inserts a rate limit record
func (s *RateLimitService) recordRequest(identifier, identifierType string) error {
	query := `
		INSERT INTO hold_rate_limits (identifier, identifier_type, created_at)
		VALUES ($1, $2, NOW())
	`

	_, err := s.db.Exec(query, identifier, identifierType)
	return err
}

// CleanupExpired removes rate limit records older than the longest window
func (s *RateLimitService) CleanupExpired() (int64, error) {
	maxWindow := time.Duration(s.cfg.IPWindowMinutes) * time.Minute
	if phoneWindow := time.Duration(s.cfg.PhoneWindowMinutes) * time.Minute; phoneWindow > maxWindow {
		maxWindow = phoneWindow
	}

	cutoffTime := time.Now().Add(-maxWindow)

	result, err := s.db.Exec(`DELETE FROM hold_rate_limits WHERE created_at < $1`, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup rate limits: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
