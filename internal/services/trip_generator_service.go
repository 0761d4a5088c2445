package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lagiexpress/booking-backend/internal/database"
	"github.com/lagiexpress/booking-backend/internal/models"
)

// TripGeneratorService materializes future departures from the fixed
// route catalog: every route x every default departure slot, for the
// configured horizon. Idempotent: re-running upserts nothing for trips
// that already exist.
type TripGeneratorService struct {
	tripRepo    *database.TripRepository
	horizonDays int
	logger      *logrus.Logger
}

// NewTripGeneratorService creates a new trip generator service
func NewTripGeneratorService(tripRepo *database.TripRepository, horizonDays int, logger *logrus.Logger) *TripGeneratorService {
	return &TripGeneratorService{
		tripRepo:    tripRepo,
		horizonDays: horizonDays,
		logger:      logger,
	}
}

// GenerateTrips fills the horizon starting today. Returns how many new
// trips were created.
func (s *TripGeneratorService) GenerateTrips() (int, error) {
	created := 0
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for day := 0; day < s.horizonDays; day++ {
		serviceDate := startOfDay.AddDate(0, 0, day)

		for _, route := range models.Routes {
			price := route.Price
			if price == 0 {
				// Fall back to the reverse direction's fare
				if reverse, ok := models.RouteByCode(models.ReverseRouteCode(route.Code)); ok {
					price = reverse.Price
				}
			}

			for _, slot := range DefaultDepartureSlots() {
				departAt := time.Date(
					serviceDate.Year(), serviceDate.Month(), serviceDate.Day(),
					slot.Hour, slot.Minute, 0, 0, now.Location(),
				)
				if departAt.Before(now) {
					continue
				}

				inserted, err := s.tripRepo.EnsureTrip(route.Code, serviceDate, departAt, price, models.SeatCapacity)
				if err != nil {
					return created, fmt.Errorf("failed to generate trip %s %s: %w", route.Code, departAt, err)
				}
				if inserted {
					created++
				}
			}
		}
	}

	if created > 0 {
		s.logger.WithFields(logrus.Fields{
			"created":      created,
			"horizon_days": s.horizonDays,
		}).Info("Generated trips")
	}
	return created, nil
}

// DeactivateDeparted flags past trips inactive so they stop showing up
// in searches. Returns how many were flagged.
func (s *TripGeneratorService) DeactivateDeparted() (int64, error) {
	count, err := s.tripRepo.DeactivateDeparted(time.Now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.WithField("count", count).Info("Deactivated departed trips")
	}
	return count, nil
}

// DepartureSlot is one daily departure time
type DepartureSlot struct {
	Hour   int
	Minute int
}

// DefaultDepartureSlots parses the catalog's departure times once per call.
// The catalog is small and static; clarity beats caching here.
func DefaultDepartureSlots() []DepartureSlot {
	slots := make([]DepartureSlot, 0, len(models.DefaultDepartureTimes))
	for _, t := range models.DefaultDepartureTimes {
		var h, m int
		if _, err := fmt.Sscanf(t, "%d:%d", &h, &m); err == nil {
			slots = append(slots, DepartureSlot{Hour: h, Minute: m})
		}
	}
	return slots
}
