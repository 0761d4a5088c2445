package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"

	"github.com/lagiexpress/booking-backend/internal/database"
	"github.com/lagiexpress/booking-backend/internal/models"
	"github.com/lagiexpress/booking-backend/internal/monitoring"
)

// Currency is the only currency the network sells in
const Currency = "VND"

// ReservationService is the single choke point that converts holds into
// bookings. One booking per hold is enforced by the storage layer; this
// service owns the surrounding validation and the cash fast path.
type ReservationService struct {
	tripRepo     *database.TripRepository
	holdRepo     *database.HoldRepository
	bookingRepo  *database.BookingRepository
	inventory    *InventoryService
	cancelBefore time.Duration
	logger       *logrus.Logger
}

// NewReservationService creates a new reservation service
func NewReservationService(
	tripRepo *database.TripRepository,
	holdRepo *database.HoldRepository,
	bookingRepo *database.BookingRepository,
	inventory *InventoryService,
	cancelBefore time.Duration,
	logger *logrus.Logger,
) *ReservationService {
	return &ReservationService{
		tripRepo:     tripRepo,
		holdRepo:     holdRepo,
		bookingRepo:  bookingRepo,
		inventory:    inventory,
		cancelBefore: cancelBefore,
		logger:       logger,
	}
}

// ConfirmBooking converts a hold into a durable booking.
//
// Safe under client retries: an earlier booking for the same hold is
// returned unchanged with reused = true, both on the fast-path lookup and
// on the unique-constraint fallback inside the repository (which closes
// the race between the lookup and the insert).
func (s *ReservationService) ConfirmBooking(req *models.ConfirmBookingRequest, rawUA, clientIP string) (*models.BookingResponse, error) {
	holdID, err := uuid.Parse(req.HoldID)
	if err != nil {
		return nil, &ValidationError{Message: "invalid hold id"}
	}

	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	// Idempotency fast path
	if existing, err := s.bookingRepo.GetByHoldID(holdID); err == nil {
		trip, tripErr := s.tripRepo.GetByID(existing.TripID)
		if tripErr != nil {
			return nil, tripErr
		}
		return bookingResponse(existing, trip, true), nil
	} else if !errors.Is(err, database.ErrBookingNotFound) {
		return nil, err
	}

	hold, err := s.holdRepo.GetByID(holdID)
	if err != nil {
		if errors.Is(err, database.ErrHoldNotFound) {
			return nil, &ValidationError{Message: "invalid hold"}
		}
		return nil, err
	}

	now := time.Now()
	if !hold.IsActive(now) {
		return nil, &ExpiredError{Resource: "hold"}
	}

	trip, err := s.tripRepo.GetByID(hold.TripID)
	if err != nil {
		if errors.Is(err, database.ErrTripNotFound) {
			return nil, &NotFoundError{Resource: "trip"}
		}
		return nil, err
	}

	reference, err := s.bookingRepo.GenerateReference()
	if err != nil {
		return nil, err
	}

	method := models.PaymentMethod(req.PaymentMethod)
	total := trip.Price * float64(len(hold.Seats))

	status := models.BookingStatusPending
	if method == models.PaymentMethodCOD {
		// Cash settles on boarding; the booking is final immediately
		status = models.BookingStatusConfirmed
	}

	booking := &models.Booking{
		ID:            uuid.New(),
		Reference:     reference,
		TripID:        trip.ID,
		HoldID:        hold.ID,
		Seats:         append(models.SeatCodeArray{}, hold.Seats...),
		Customer:      req.CustomerInfoFromRequest(),
		Device:        deviceSnapshot(rawUA, clientIP),
		PaymentMethod: method,
		PaymentStatus: models.PaymentStatusPending,
		Amount:        total,
		Currency:      Currency,
		Status:        status,
	}

	created, reused, err := s.bookingRepo.Create(booking)
	if err != nil {
		return nil, err
	}
	if reused {
		return bookingResponse(created, trip, true), nil
	}

	// The hold is consumed exactly once, whether or not payment resolves
	if _, err := s.holdRepo.Cancel(hold.ID); err != nil {
		s.logger.WithError(err).WithField("hold_id", hold.ID).Error("Failed to retire consumed hold")
	}

	if method == models.PaymentMethodCOD {
		// Cash path merges immediately; there is no later reconciliation
		if err := s.inventory.MergeSold(trip.ID, created.Seats); err != nil {
			return nil, err
		}
	}

	monitoring.TrackBookingConfirmed(string(method))
	s.logger.WithFields(logrus.Fields{
		"booking_id": created.ID,
		"reference":  created.Reference,
		"hold_id":    hold.ID,
		"trip_id":    trip.ID,
		"method":     method,
		"amount":     total,
	}).Info("Booking confirmed from hold")

	return bookingResponse(created, trip, false), nil
}

// GetBooking fetches one booking with its trip snapshot
func (s *ReservationService) GetBooking(bookingID uuid.UUID) (*models.BookingResponse, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, database.ErrBookingNotFound) {
			return nil, &NotFoundError{Resource: "booking"}
		}
		return nil, err
	}

	trip, err := s.tripRepo.GetByID(booking.TripID)
	if err != nil {
		return nil, err
	}
	return bookingResponse(booking, trip, false), nil
}

// LookupByReference fetches one booking by its public reference code
func (s *ReservationService) LookupByReference(reference string) (*models.BookingResponse, error) {
	booking, err := s.bookingRepo.GetByReference(reference)
	if err != nil {
		if errors.Is(err, database.ErrBookingNotFound) {
			return nil, &NotFoundError{Resource: "booking"}
		}
		return nil, err
	}

	trip, err := s.tripRepo.GetByID(booking.TripID)
	if err != nil {
		return nil, err
	}
	return bookingResponse(booking, trip, false), nil
}

// LookupByPhone lists a customer's bookings with trip snapshots
func (s *ReservationService) LookupByPhone(phone string) ([]*models.BookingResponse, error) {
	if phone == "" {
		return nil, &ValidationError{Message: "phone is required"}
	}

	bookings, err := s.bookingRepo.ListByPhone(phone)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		trip, err := s.tripRepo.GetByID(booking.TripID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, bookingResponse(booking, trip, false))
	}
	return responses, nil
}

// CancelBooking reverses a booking under the time and state rules:
// not terminal, not checked in, and not within the cancellation window
// before departure. Paid bookings are flagged refunded; their seats go
// back to the pool. Seats of a never-settled gateway booking were never
// merged, so nothing is released for those.
func (s *ReservationService) CancelBooking(bookingID uuid.UUID) (*models.BookingResponse, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, database.ErrBookingNotFound) {
			return nil, &NotFoundError{Resource: "booking"}
		}
		return nil, err
	}

	trip, err := s.tripRepo.GetByID(booking.TripID)
	if err != nil {
		if errors.Is(err, database.ErrTripNotFound) {
			return nil, &NotFoundError{Resource: "trip"}
		}
		return nil, err
	}

	now := time.Now()
	if err := booking.CanBeCancelled(trip.DepartAt, now, s.cancelBefore); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	// Whether seats were ever merged into the sold set: paid gateway
	// bookings and confirmed cash bookings were, pending ones were not.
	// Releasing unmerged seats could free a seat someone else has since
	// legitimately bought.
	merged := booking.IsPaid() ||
		(booking.PaymentMethod == models.PaymentMethodCOD && booking.Status == models.BookingStatusConfirmed)

	cancelled, err := s.bookingRepo.Cancel(booking.ID)
	if err != nil {
		return nil, err
	}
	if !cancelled {
		// Lost a race with another cancel or a check-in
		return nil, &ValidationError{Message: "booking can no longer be cancelled"}
	}

	if merged {
		if err := s.inventory.ReleaseSold(trip.ID, booking.Seats); err != nil {
			s.logger.WithError(err).WithField("booking_id", booking.ID).Error("Failed to release seats after cancel")
		}
	}

	monitoring.TrackBookingCancelled()
	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"reference":  booking.Reference,
		"released":   merged,
	}).Info("Booking cancelled")

	updated, err := s.bookingRepo.GetByID(booking.ID)
	if err != nil {
		return nil, err
	}
	return bookingResponse(updated, trip, false), nil
}

// CheckIn marks a booking as boarded. Boarded bookings can no longer
// be cancelled.
func (s *ReservationService) CheckIn(bookingID uuid.UUID) (*models.BookingResponse, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, database.ErrBookingNotFound) {
			return nil, &NotFoundError{Resource: "booking"}
		}
		return nil, err
	}

	ok, err := s.bookingRepo.CheckIn(booking.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ValidationError{Message: "booking cannot be checked in"}
	}

	trip, err := s.tripRepo.GetByID(booking.TripID)
	if err != nil {
		return nil, err
	}

	s.logger.WithField("booking_id", booking.ID).Info("Booking checked in")

	updated, err := s.bookingRepo.GetByID(booking.ID)
	if err != nil {
		return nil, err
	}
	return bookingResponse(updated, trip, false), nil
}

// bookingResponse assembles the client-facing booking payload
func bookingResponse(b *models.Booking, trip *models.Trip, reused bool) *models.BookingResponse {
	return &models.BookingResponse{
		BookingID:     b.ID,
		Reference:     b.Reference,
		Seats:         b.Seats,
		Status:        b.Status,
		PaymentMethod: b.PaymentMethod,
		PaymentStatus: b.PaymentStatus,
		Amount:        b.Amount,
		Currency:      b.Currency,
		Reused:        reused,
		Trip:          trip.Snapshot(),
	}
}

// deviceSnapshot parses the User-Agent into the JSONB device snapshot
func deviceSnapshot(rawUA, clientIP string) *models.DeviceInfo {
	if rawUA == "" && clientIP == "" {
		return nil
	}

	ua := user_agent.New(rawUA)
	browser, _ := ua.Browser()
	return &models.DeviceInfo{
		Platform: ua.Platform(),
		OS:       ua.OS(),
		Browser:  browser,
		Mobile:   ua.Mobile(),
		RawUA:    rawUA,
		ClientIP: clientIP,
	}
}
