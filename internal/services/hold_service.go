package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lagiexpress/booking-backend/internal/database"
	"github.com/lagiexpress/booking-backend/internal/models"
	"github.com/lagiexpress/booking-backend/internal/monitoring"
)

// HoldService manages short-lived exclusive seat claims
type HoldService struct {
	tripRepo  *database.TripRepository
	holdRepo  *database.HoldRepository
	rateLimit *RateLimitService
	holdTTL   time.Duration
	logger    *logrus.Logger
}

// NewHoldService creates a new hold service
func NewHoldService(
	tripRepo *database.TripRepository,
	holdRepo *database.HoldRepository,
	rateLimit *RateLimitService,
	holdTTL time.Duration,
	logger *logrus.Logger,
) *HoldService {
	return &HoldService{
		tripRepo:  tripRepo,
		holdRepo:  holdRepo,
		rateLimit: rateLimit,
		holdTTL:   holdTTL,
		logger:    logger,
	}
}

// CreateHold validates the request and claims the seats. Validation order
// matters for client UX: bad input before unknown trip, departed trip
// before seat conflicts. The availability check itself runs atomically
// inside the repository transaction.
func (s *HoldService) CreateHold(req *models.CreateHoldRequest, clientIP string) (*models.HoldResponse, error) {
	tripID, err := uuid.Parse(req.TripID)
	if err != nil {
		monitoring.TrackHoldRejected("bad_trip_id")
		return nil, &ValidationError{Message: "invalid trip id"}
	}

	if err := req.Validate(); err != nil {
		monitoring.TrackHoldRejected("bad_request")
		return nil, &ValidationError{Message: err.Error()}
	}

	for _, seat := range req.Seats {
		if !models.IsValidSeatCode(seat) {
			monitoring.TrackHoldRejected("bad_seat")
			return nil, &ValidationError{Message: "seat outside coach layout: " + seat}
		}
	}

	phone := ""
	if req.Phone != nil {
		phone = *req.Phone
	}
	if err := s.rateLimit.CheckHoldRateLimit(phone, clientIP); err != nil {
		monitoring.TrackHoldRejected("rate_limited")
		return nil, err
	}

	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		if errors.Is(err, database.ErrTripNotFound) {
			monitoring.TrackHoldRejected("trip_not_found")
			return nil, &NotFoundError{Resource: "trip"}
		}
		return nil, err
	}

	now := time.Now()
	if trip.HasDeparted(now) {
		monitoring.TrackHoldRejected("departed")
		return nil, &ValidationError{Message: "trip has already departed"}
	}

	hold := &models.Hold{
		ID:        uuid.New(),
		TripID:    trip.ID,
		Seats:     models.SeatCodeArray(req.Seats),
		Phone:     req.Phone,
		Status:    models.HoldStatusActive,
		ExpiresAt: now.Add(s.holdTTL),
	}

	if err := s.holdRepo.CreateHold(hold); err != nil {
		var unavailable *database.SeatUnavailableError
		if errors.As(err, &unavailable) {
			monitoring.TrackHoldRejected("conflict")
			conflicting := append(append([]string{}, unavailable.Sold...), unavailable.Held...)
			return nil, &ConflictError{Message: unavailable.Error(), Seats: conflicting}
		}
		if errors.Is(err, database.ErrTripNotFound) {
			return nil, &NotFoundError{Resource: "trip"}
		}
		return nil, err
	}

	if err := s.rateLimit.RecordHoldRequest(phone, clientIP); err != nil {
		// Rate limit bookkeeping must not fail the hold
		s.logger.WithError(err).Warn("Failed to record hold rate limit entry")
	}

	monitoring.TrackHoldCreated(trip.RouteCode)
	s.logger.WithFields(logrus.Fields{
		"hold_id":    hold.ID,
		"trip_id":    trip.ID,
		"seats":      req.Seats,
		"expires_at": hold.ExpiresAt,
	}).Info("Hold created")

	return &models.HoldResponse{
		HoldID:    hold.ID,
		Seats:     hold.Seats,
		Status:    hold.Status,
		ExpiresAt: hold.ExpiresAt,
		Trip:      trip.Snapshot(),
	}, nil
}

// GetHold returns a hold with its trip snapshot. A hold persisted without
// an expiry (legacy rows) gets one synthesized from creation time + TTL.
func (s *HoldService) GetHold(holdID uuid.UUID) (*models.HoldResponse, error) {
	hold, err := s.holdRepo.GetByID(holdID)
	if err != nil {
		if errors.Is(err, database.ErrHoldNotFound) {
			return nil, &NotFoundError{Resource: "hold"}
		}
		return nil, err
	}

	if hold.ExpiresAt.IsZero() {
		hold.ExpiresAt = hold.CreatedAt.Add(s.holdTTL)
	}

	trip, err := s.tripRepo.GetByID(hold.TripID)
	if err != nil {
		if errors.Is(err, database.ErrTripNotFound) {
			return nil, &NotFoundError{Resource: "trip"}
		}
		return nil, err
	}

	return &models.HoldResponse{
		HoldID:    hold.ID,
		Seats:     hold.Seats,
		Status:    hold.Status,
		ExpiresAt: hold.ExpiresAt,
		Trip:      trip.Snapshot(),
	}, nil
}

// CancelHold releases a hold. Idempotent: unknown or already-terminal
// holds are a silent no-op.
func (s *HoldService) CancelHold(holdID uuid.UUID) error {
	cancelled, err := s.holdRepo.Cancel(holdID)
	if err != nil {
		return err
	}
	if cancelled {
		s.logger.WithField("hold_id", holdID).Info("Hold cancelled")
	}
	return nil
}
