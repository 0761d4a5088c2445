package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lagiexpress/booking-backend/internal/database"
	"github.com/lagiexpress/booking-backend/internal/models"
	"github.com/lagiexpress/booking-backend/internal/monitoring"
	"github.com/lagiexpress/booking-backend/internal/services/providers"
	"github.com/lagiexpress/booking-backend/pkg/mailer"
)

// PaymentService owns payment intents and reconciliation: it creates
// gateway checkouts and applies verified outcomes to bookings. All seat
// mutation on the gateway path goes through here, and only here.
type PaymentService struct {
	bookingRepo *database.BookingRepository
	intentRepo  *database.PaymentIntentRepository
	tripRepo    *database.TripRepository
	holdRepo    *database.HoldRepository
	inventory   *InventoryService
	factory     *providers.Factory
	audit       *AuditService
	mail        mailer.Mailer
	intentTTL   time.Duration
	environment string
	logger      *logrus.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	bookingRepo *database.BookingRepository,
	intentRepo *database.PaymentIntentRepository,
	tripRepo *database.TripRepository,
	holdRepo *database.HoldRepository,
	inventory *InventoryService,
	factory *providers.Factory,
	audit *AuditService,
	mail mailer.Mailer,
	intentTTL time.Duration,
	environment string,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		bookingRepo: bookingRepo,
		intentRepo:  intentRepo,
		tripRepo:    tripRepo,
		holdRepo:    holdRepo,
		inventory:   inventory,
		factory:     factory,
		audit:       audit,
		mail:        mail,
		intentTTL:   intentTTL,
		environment: environment,
		logger:      logger,
	}
}

// CreateIntent initiates a gateway checkout for a booking. A booking
// that is already settled short-circuits with AlreadyPaid instead of
// opening another checkout. Retries after an expired or cancelled
// intent simply create a new one; only the booking's payment state is
// authoritative.
func (s *PaymentService) CreateIntent(req *models.CreatePaymentRequest, clientIP string) (*models.PaymentIntentResponse, error) {
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, &ValidationError{Message: "invalid booking id"}
	}

	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, database.ErrBookingNotFound) {
			return nil, &NotFoundError{Resource: "booking"}
		}
		return nil, err
	}

	if booking.IsPaid() {
		return &models.PaymentIntentResponse{
			BookingID:   booking.ID,
			Status:      models.IntentStatusPaid,
			Amount:      booking.Amount,
			Currency:    booking.Currency,
			AlreadyPaid: true,
		}, nil
	}

	if booking.IsTerminal() {
		return nil, &ValidationError{Message: "booking is " + string(booking.Status)}
	}

	method := models.PaymentMethod(req.Method)
	if !method.IsGateway() {
		return nil, &ValidationError{Message: "payment method does not use a gateway: " + req.Method}
	}

	provider, err := s.factory.Provider(req.Method)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	now := time.Now()
	intent := &models.PaymentIntent{
		ID:        uuid.New(),
		BookingID: booking.ID,
		Method:    method,
		Amount:    booking.Amount,
		Currency:  booking.Currency,
		Status:    models.IntentStatusPending,
		TxnRef:    fmt.Sprintf("%s-%d", booking.Reference, now.Unix()),
		ExpiresAt: now.Add(s.intentTTL),
	}

	payURL, err := provider.BuildPayURL(providers.CheckoutParams{
		TxnRef:    intent.TxnRef,
		Amount:    intent.Amount,
		OrderInfo: "Ve xe " + booking.Reference,
		ClientIP:  clientIP,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build pay URL: %w", err)
	}
	intent.PayURL = payURL

	if err := s.intentRepo.Create(intent); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"intent_id":  intent.ID,
		"booking_id": booking.ID,
		"method":     method,
		"txn_ref":    intent.TxnRef,
	}).Info("Payment intent created")

	return intentResponse(intent, now), nil
}

// GetIntentStatus polls an intent, lazily expiring it if the TTL passed
// while it sat pending. A stale pending state is never reported.
func (s *PaymentService) GetIntentStatus(intentID uuid.UUID) (*models.PaymentIntentResponse, error) {
	intent, err := s.intentRepo.GetByID(intentID)
	if err != nil {
		if errors.Is(err, database.ErrIntentNotFound) {
			return nil, &NotFoundError{Resource: "payment intent"}
		}
		return nil, err
	}

	now := time.Now()
	if intent.Status == models.IntentStatusPending && intent.IsExpired(now) {
		if _, err := s.intentRepo.MarkExpired(intent.ID); err != nil {
			return nil, err
		}
		intent.Status = models.IntentStatusExpired
	}

	return intentResponse(intent, now), nil
}

// SimulateOutcome drives an intent to a terminal state without a gateway
// round-trip. Refused in production.
func (s *PaymentService) SimulateOutcome(intentID uuid.UUID, outcome string) (*models.PaymentIntentResponse, error) {
	if s.environment == "production" {
		return nil, &ValidationError{Message: "payment simulation is disabled in production"}
	}

	intent, err := s.intentRepo.GetByID(intentID)
	if err != nil {
		if errors.Is(err, database.ErrIntentNotFound) {
			return nil, &NotFoundError{Resource: "payment intent"}
		}
		return nil, err
	}

	now := time.Now()
	if intent.IsTerminal() {
		return intentResponse(intent, now), nil
	}
	if intent.IsExpired(now) {
		return nil, &ExpiredError{Resource: "payment intent"}
	}

	switch outcome {
	case "paid":
		simTxnID := "SIM-" + uuid.New().String()[:8]
		if err := s.reconcile(intent, string(intent.Method), true, intent.Amount, simTxnID, nil); err != nil {
			return nil, err
		}
	case "cancelled":
		if _, err := s.intentRepo.MarkCancelled(intent.ID); err != nil {
			return nil, err
		}
	default:
		return nil, &ValidationError{Message: "outcome must be paid or cancelled"}
	}

	updated, err := s.intentRepo.GetByID(intent.ID)
	if err != nil {
		return nil, err
	}
	return intentResponse(updated, now), nil
}

// HandleCallback verifies a gateway return/IPN and reconciles it.
// Signature failures and unknown references are audited and rejected;
// nothing else about the request is trusted before verification.
func (s *PaymentService) HandleCallback(method string, params map[string]string) (*providers.CallbackResult, error) {
	provider, err := s.factory.Provider(method)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	result, err := provider.VerifyCallback(params)
	if err != nil {
		if errors.Is(err, providers.ErrInvalidSignature) {
			s.audit.RecordGatewayEvent(method, params["vnp_TxnRef"]+params["orderId"], nil,
				models.AuditOutcomeBadSig, 0, nil, params)
			monitoring.TrackReconciliation(method, "bad_signature")
			return nil, &SignatureError{Gateway: method}
		}
		return nil, err
	}

	intent, err := s.intentRepo.GetByTxnRef(result.TxnRef)
	if err != nil {
		if errors.Is(err, database.ErrIntentNotFound) {
			s.audit.RecordGatewayEvent(method, result.TxnRef, nil,
				models.AuditOutcomeNotFound, result.Amount, nil, params)
			monitoring.TrackReconciliation(method, "ref_not_found")
			return nil, &NotFoundError{Resource: "payment intent"}
		}
		return nil, err
	}

	if err := s.reconcile(intent, method, result.Success, result.Amount, result.ProviderTxnID, params); err != nil {
		return nil, err
	}
	return result, nil
}

// ConfirmManually lets an admin settle a booking without a gateway
// callback (bank transfer received, support resolution)
func (s *PaymentService) ConfirmManually(bookingID uuid.UUID, amount float64) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, database.ErrBookingNotFound) {
			return nil, &NotFoundError{Resource: "booking"}
		}
		return nil, err
	}

	if err := s.applyOutcome(booking, "manual", true, amount, "", nil); err != nil {
		return nil, err
	}
	return s.bookingRepo.GetByID(booking.ID)
}

// reconcile resolves an intent's outcome against its booking
func (s *PaymentService) reconcile(intent *models.PaymentIntent, gateway string, success bool, amount float64, providerTxnID string, params map[string]string) error {
	booking, err := s.bookingRepo.GetByID(intent.BookingID)
	if err != nil {
		return err
	}

	if success {
		if _, err := s.intentRepo.MarkPaid(intent.ID, strPtr(providerTxnID)); err != nil {
			return err
		}
	} else {
		if _, err := s.intentRepo.MarkCancelled(intent.ID); err != nil {
			return err
		}
	}

	return s.applyOutcome(booking, gateway, success, amount, providerTxnID, params)
}

// applyOutcome is the reconciler core. Idempotent by construction: the
// conditional MarkPaid matches zero rows for an already-paid booking, in
// which case nothing is re-merged and no email is re-sent; the sold-set
// merge itself is a set union, so even a racing duplicate that slips past
// the guard cannot double-count a seat.
func (s *PaymentService) applyOutcome(booking *models.Booking, gateway string, success bool, amount float64, providerTxnID string, params map[string]string) error {
	if !success {
		if _, err := s.bookingRepo.MarkFailed(booking.ID); err != nil {
			return err
		}
		s.audit.RecordGatewayEvent(gateway, booking.Reference, &booking.ID,
			models.AuditOutcomeFailure, amount, strPtr(providerTxnID), params)
		monitoring.TrackReconciliation(gateway, "failure")
		s.logger.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"gateway":    gateway,
		}).Warn("Payment failed, booking left pending")
		return nil
	}

	method := booking.PaymentMethod
	if gateway != "manual" {
		method = models.PaymentMethod(gateway)
	}

	updated, err := s.bookingRepo.MarkPaid(booking.ID, method, amount, strPtr(providerTxnID))
	if err != nil {
		return err
	}
	if !updated {
		// Duplicate callback for a settled booking: acknowledge, audit,
		// change nothing
		s.audit.RecordGatewayEvent(gateway, booking.Reference, &booking.ID,
			models.AuditOutcomeDuplicate, amount, strPtr(providerTxnID), params)
		monitoring.TrackReconciliation(gateway, "duplicate")
		return nil
	}

	if err := s.inventory.MergeSold(booking.TripID, booking.Seats); err != nil {
		return err
	}

	// The confirm step already retired the hold; this covers callbacks
	// racing ahead of it. Cancel is idempotent either way.
	if _, err := s.holdRepo.Cancel(booking.HoldID); err != nil {
		s.logger.WithError(err).WithField("hold_id", booking.HoldID).Warn("Failed defensive hold cancel")
	}

	s.audit.RecordGatewayEvent(gateway, booking.Reference, &booking.ID,
		models.AuditOutcomeSuccess, amount, strPtr(providerTxnID), params)
	monitoring.TrackReconciliation(gateway, "success")

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"reference":  booking.Reference,
		"gateway":    gateway,
		"amount":     amount,
	}).Info("Payment reconciled, seats merged")

	go s.sendTicketEmail(booking.ID)
	return nil
}

// sendTicketEmail delivers the "ticket paid" email. Best-effort: any
// failure is logged and dropped, reconciliation already succeeded.
func (s *PaymentService) sendTicketEmail(bookingID uuid.UUID) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		s.logger.WithError(err).WithField("booking_id", bookingID).Warn("Ticket email skipped: booking lookup failed")
		return
	}
	if booking.Customer.Email == nil || *booking.Customer.Email == "" {
		return
	}

	trip, err := s.tripRepo.GetByID(booking.TripID)
	if err != nil {
		s.logger.WithError(err).WithField("booking_id", bookingID).Warn("Ticket email skipped: trip lookup failed")
		return
	}

	routeName := trip.RouteCode
	if route, ok := models.RouteByCode(trip.RouteCode); ok {
		routeName = route.Origin + " → " + route.Destination
	}

	msg := mailer.TicketPaidMessage(*booking.Customer.Email, mailer.TicketDetails{
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
		s.logger.WithError(err).WithField("booking_id", bookingID).Warn("Failed to send ticket email")
	}
}

// intentResponse assembles the client-facing intent payload
func intentResponse(intent *models.PaymentIntent, now time.Time) *models.PaymentIntentResponse {
	ttl := int(intent.ExpiresAt.Sub(now).Seconds())
	if ttl < 0 || intent.Status != models.IntentStatusPending {
		ttl = 0
	}

	resp := &models.PaymentIntentResponse{
		IntentID:   intent.ID,
		BookingID:  intent.BookingID,
		Method:     intent.Method,
		Amount:     intent.Amount,
		Currency:   intent.Currency,
		Status:     intent.Status,
		ExpiresAt:  intent.ExpiresAt,
		TTLSeconds: ttl,
	}
	if intent.Status == models.IntentStatusPending {
		resp.PayURL = intent.PayURL
	}
	return resp
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
