package services

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lagiexpress/booking-backend/internal/database"
	"github.com/lagiexpress/booking-backend/internal/models"
	"github.com/lagiexpress/booking-backend/pkg/mailer"
)

// ReminderService emails paid customers before departure. Each booking
// is reminded at most once (reminder_sent_at stamp); delivery failures
// are logged and the booking retried on the next run.
type ReminderService struct {
	bookingRepo *database.BookingRepository
	tripRepo    *database.TripRepository
	mail        mailer.Mailer
	window      time.Duration
	logger      *logrus.Logger
}

// NewReminderService creates a new reminder service
func NewReminderService(
	bookingRepo *database.BookingRepository,
	tripRepo *database.TripRepository,
	mail mailer.Mailer,
	window time.Duration,
	logger *logrus.Logger,
) *ReminderService {
	return &ReminderService{
		bookingRepo: bookingRepo,
		tripRepo:    tripRepo,
		mail:        mail,
		window:      window,
		logger:      logger,
	}
}

// SendDueReminders emails every paid, unreminded booking departing
// within the window. Returns how many reminders went out.
func (s *ReminderService) SendDueReminders() (int, error) {
	due, err := s.bookingRepo.ListDueReminders(time.Now(), s.window)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, booking := range due {
		if booking.Customer.Email == nil || *booking.Customer.Email == "" {
			// No address to remind; stamp it so the query stops returning it
			if err := s.bookingRepo.MarkReminded(booking.ID); err != nil {
				s.logger.WithError(err).WithField("booking_id", booking.ID).Warn("Failed to stamp emailless booking")
			}
			continue
		}

		trip, err := s.tripRepo.GetByID(booking.TripID)
		if err != nil {
			s.logger.WithError(err).WithField("booking_id", booking.ID).Warn("Reminder skipped: trip lookup failed")
			continue
		}

		routeName := trip.RouteCode
		if route, ok := models.RouteByCode(trip.RouteCode); ok {
			routeName = route.Origin + " → " + route.Destination
		}

		msg := mailer.ReminderMessage(*booking.Customer.Email, mailer.TicketDetails{
			Reference: booking.Reference,
			Name:      booking.Customer.Name,
			RouteName: routeName,
			DepartAt:  trip.DepartAt,
			Seats:     booking.Seats,
			Pickup:    booking.Customer.Pickup,
			Dropoff:   booking.Customer.Dropoff,
			Amount:    booking.Amount,
			Currency:  booking.Currency,
		})

		if err := s.mail.Send(msg); err != nil {
			s.logger.WithError(err).WithField("booking_id", booking.ID).Warn("Failed to send reminder email")
			continue // retried next run
		}

		if err := s.bookingRepo.MarkReminded(booking.ID); err != nil {
			s.logger.WithError(err).WithField("booking_id", booking.ID).Error("Reminder sent but stamping failed")
			continue
		}
		sent++
	}

	if sent > 0 {
		s.logger.WithField("count", sent).Info("Departure reminders sent")
	}
	return sent, nil
}
