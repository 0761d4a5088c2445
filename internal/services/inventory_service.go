package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lagiexpress/booking-backend/internal/database"
	"github.com/lagiexpress/booking-backend/internal/models"
)

// InventoryService owns the sold set on trips. Every writer goes through
// MergeSold / ReleaseSold; nothing else mutates trips.seats_booked.
type InventoryService struct {
	tripRepo *database.TripRepository
	holdRepo *database.HoldRepository
	logger   *logrus.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(tripRepo *database.TripRepository, holdRepo *database.HoldRepository, logger *logrus.Logger) *InventoryService {
	return &InventoryService{
		tripRepo: tripRepo,
		holdRepo: holdRepo,
		logger:   logger,
	}
}

// ComputeAvailability returns capacity minus sold and held seats. Pure:
// callers supply the held set, nothing is read or written here.
func ComputeAvailability(trip *models.Trip, heldSeats []string) int {
	unavailable := make(map[string]bool, len(trip.SeatsBooked)+len(heldSeats))
	for _, s := range trip.SeatsBooked {
		unavailable[s] = true
	}
	for _, s := range heldSeats {
		unavailable[s] = true
	}

	left := trip.SeatCapacity - len(unavailable)
	if left < 0 {
		return 0
	}
	return left
}

// SeatMap returns the layout plus the booked and held seat sets for a trip
func (s *InventoryService) SeatMap(tripID uuid.UUID) (*models.SeatMapResponse, error) {
	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		if errors.Is(err, database.ErrTripNotFound) {
			return nil, &NotFoundError{Resource: "trip"}
		}
		return nil, err
	}

	held, err := s.holdRepo.ActiveHeldSeats(tripID)
	if err != nil {
		return nil, err
	}

	return &models.SeatMapResponse{
		TripID: trip.ID,
		Layout: models.SeatLayout(),
		Booked: trip.SeatsBooked,
		Held:   held,
	}, nil
}

// SearchTrips lists active trips for a route and date with seats-left
// counts. Departed trips on the current day are hidden.
func (s *InventoryService) SearchTrips(routeCode string, serviceDate time.Time) ([]*models.TripSearchResult, error) {
	if _, ok := models.RouteByCode(routeCode); !ok {
		return nil, &ValidationError{Message: "unknown route code: " + routeCode}
	}

	now := time.Now()
	notBefore := time.Time{}
	if sameDay(serviceDate, now) {
		notBefore = now
	}

	trips, err := s.tripRepo.Search(routeCode, serviceDate, notBefore)
	if err != nil {
		return nil, err
	}

	results := make([]*models.TripSearchResult, 0, len(trips))
	for _, trip := range trips {
		held, err := s.holdRepo.ActiveHeldSeats(trip.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, &models.TripSearchResult{
			TripID:    trip.ID,
			RouteCode: trip.RouteCode,
			DepartAt:  trip.DepartAt,
			Price:     trip.Price,
			SeatsLeft: ComputeAvailability(trip, held),
		})
	}
	return results, nil
}

// MergeSold unions seats into the trip's sold set (idempotent)
func (s *InventoryService) MergeSold(tripID uuid.UUID, seats []string) error {
	if err := s.tripRepo.MergeSoldSeats(tripID, seats); err != nil {
		if errors.Is(err, database.ErrTripNotFound) {
			return &NotFoundError{Resource: "trip"}
		}
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id": tripID,
		"seats":   seats,
	}).Info("Seats merged into sold set")
	return nil
}

// ReleaseSold removes seats from the trip's sold set (idempotent)
func (s *InventoryService) ReleaseSold(tripID uuid.UUID, seats []string) error {
	if err := s.tripRepo.ReleaseSoldSeats(tripID, seats); err != nil {
		if errors.Is(err, database.ErrTripNotFound) {
			return &NotFoundError{Resource: "trip"}
		}
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id": tripID,
		"seats":   seats,
	}).Info("Seats released from sold set")
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
