package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lagiexpress/booking-backend/internal/config"
	"github.com/lagiexpress/booking-backend/internal/database"
	"github.com/lagiexpress/booking-backend/internal/models"
	"github.com/lagiexpress/booking-backend/internal/services/providers"
	"github.com/lagiexpress/booking-backend/pkg/mailer"
)

func setupPaymentTest(t *testing.T, environment string) (*PaymentService, sqlmock.Sqlmock, func()) {
	db, mock, cleanup := newMockDB(t)

	tripRepo := database.NewTripRepository(db)
	holdRepo := database.NewHoldRepository(db, tripRepo)
	bookingRepo := database.NewBookingRepository(db)
	intentRepo := database.NewPaymentIntentRepository(db)
	auditRepo := database.NewPaymentAuditRepository(db)

	logger := testLogger()
	inventory := NewInventoryService(tripRepo, holdRepo, logger)
	audit := NewAuditService(auditRepo, logger)
	factory := providers.NewFactory(&config.Config{
		Server: config.ServerConfig{
			Environment: environment,
			PublicURL:   "http://localhost:8080",
		},
		Payment: config.PaymentConfig{
			VNPay: config.VNPayConfig{
				TmnCode:    "TESTCODE",
				HashSecret: "test-hash-secret",
				PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
				ReturnURL:  "http://localhost:8080/api/v1/payments/vnpay/return",
			},
		},
	})
	mail := mailer.NewClient(mailer.Config{Mode: "dev"}, logger)

	svc := NewPaymentService(
		bookingRepo, intentRepo, tripRepo, holdRepo,
		inventory, factory, audit, mail,
		15*time.Minute, environment, logger,
	)
	return svc, mock, cleanup
}

func pendingGatewayBooking(tripID uuid.UUID) *models.Booking {
	b := paidBooking(tripID)
	b.PaymentStatus = models.PaymentStatusPending
	b.Status = models.BookingStatusPending
	return b
}

func pendingIntent(bookingID uuid.UUID) *models.PaymentIntent {
	return &models.PaymentIntent{
		ID:        uuid.New(),
		BookingID: bookingID,
		Method:    models.PaymentMethodVNPay,
		Amount:    360000,
		Currency:  "VND",
		Status:    models.IntentStatusPending,
		PayURL:    "http://localhost:8080/simulate-pay?txnRef=LG-20260901-XYZ789-1",
		TxnRef:    "LG-20260901-XYZ789-1756300000",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
}

func TestCreateIntent(t *testing.T) {
	svc, mock, cleanup := setupPaymentTest(t, "development")
	defer cleanup()

	tripID := uuid.New()
	booking := pendingGatewayBooking(tripID)

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(booking.ID).
		WillReturnRows(svcBookingRows(booking))
	mock.ExpectQuery("INSERT INTO payment_intents").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))

	resp, err := svc.CreateIntent(&models.CreatePaymentRequest{
		BookingID: booking.ID.String(),
		Method:    "vnpay",
	}, "1.2.3.4")
	require.NoError(t, err)

	assert.Equal(t, models.IntentStatusPending, resp.Status)
	assert.Equal(t, 360000.0, resp.Amount)
	assert.Contains(t, resp.PayURL, "simulate-pay")
	assert.Greater(t, resp.TTLSeconds, 0)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIntentAlreadyPaid(t *testing.T) {
	svc, mock, cleanup := setupPaymentTest(t, "development")
	defer cleanup()

	booking := paidBooking(uuid.New())

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(booking.ID).
		WillReturnRows(svcBookingRows(booking))

	resp, err := svc.CreateIntent(&models.CreatePaymentRequest{
		BookingID: booking.ID.String(),
		Method:    "vnpay",
	}, "1.2.3.4")
	require.NoError(t, err)

	assert.True(t, resp.AlreadyPaid)
	assert.Equal(t, models.IntentStatusPaid, resp.Status)
	assert.Empty(t, resp.PayURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIntentRejectsNonGatewayMethod(t *testing.T) {
	svc, mock, cleanup := setupPaymentTest(t, "development")
	defer cleanup()

	booking := pendingGatewayBooking(uuid.New())
	booking.PaymentMethod = models.PaymentMethodCOD

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(booking.ID).
		WillReturnRows(svcBookingRows(booking))

	_, err := svc.CreateIntent(&models.CreatePaymentRequest{
		BookingID: booking.ID.String(),
		Method:    "cod",
	}, "1.2.3.4")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "gateway")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetIntentStatusLazyExpiry(t *testing.T) {
	svc, mock, cleanup := setupPaymentTest(t, "development")
	defer cleanup()

	intent := pendingIntent(uuid.New())
	intent.ExpiresAt = time.Now().Add(-time.Minute)

	mock.ExpectQuery("SELECT (.+) FROM payment_intents WHERE id").
		WithArgs(intent.ID).
		WillReturnRows(svcIntentRows(intent))
	mock.ExpectExec("UPDATE payment_intents").
		WithArgs(intent.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp, err := svc.GetIntentStatus(intent.ID)
	require.NoError(t, err)

	assert.Equal(t, models.IntentStatusExpired, resp.Status)
	assert.Zero(t, resp.TTLSeconds)
	assert.Empty(t, resp.PayURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleCallbackSuccess(t *testing.T) {
	svc, mock, cleanup := setupPaymentTest(t, "development")
	defer cleanup()

	tripID := uuid.New()
	booking := pendingGatewayBooking(tripID)
	intent := pendingIntent(booking.ID)

	mock.ExpectQuery("SELECT (.+) FROM payment_intents WHERE txn_ref").
		WithArgs(intent.TxnRef).
		WillReturnRows(svcIntentRows(intent))
	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(booking.ID).
		WillReturnRows(svcBookingRows(booking))
	mock.ExpectExec("UPDATE payment_intents").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE trips").
		WithArgs(tripID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE holds").
		WithArgs(booking.HoldID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO payment_audits").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	result, err := svc.HandleCallback("vnpay", map[string]string{
		"txnRef":        intent.TxnRef,
		"outcome":       "paid",
		"amount":        "360000",
		"providerTxnId": "SIM-ABC123",
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, intent.TxnRef, result.TxnRef)
	assert.Equal(t, 360000.0, result.Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleCallbackDuplicateIsNoOp(t *testing.T) {
	svc, mock, cleanup := setupPaymentTest(t, "development")
	defer cleanup()

	booking := paidBooking(uuid.New())
	intent := pendingIntent(booking.ID)

	mock.ExpectQuery("SELECT (.+) FROM payment_intents WHERE txn_ref").
		WithArgs(intent.TxnRef).
		WillReturnRows(svcIntentRows(intent))
	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(booking.ID).
		WillReturnRows(svcBookingRows(booking))
	mock.ExpectExec("UPDATE payment_intents").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Conditional settle matches nothing: the booking was already paid.
	// No seat merge, no email, just an audit row.
	mock.ExpectExec("UPDATE bookings").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO payment_audits").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	result, err := svc.HandleCallback("vnpay", map[string]string{
		"txnRef":        intent.TxnRef,
		"outcome":       "paid",
		"amount":        "360000",
		"providerTxnId": "SIM-ABC123",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleCallbackFailureLeavesBookingPending(t *testing.T) {
	svc, mock, cleanup := setupPaymentTest(t, "development")
	defer cleanup()

	booking := pendingGatewayBooking(uuid.New())
	intent := pendingIntent(booking.ID)

	mock.ExpectQuery("SELECT (.+) FROM payment_intents WHERE txn_ref").
		WithArgs(intent.TxnRef).
		WillReturnRows(svcIntentRows(intent))
	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(booking.ID).
		WillReturnRows(svcBookingRows(booking))
	mock.ExpectExec("UPDATE payment_intents").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings").
		WithArgs(booking.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO payment_audits").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	result, err := svc.HandleCallback("vnpay", map[string]string{
		"txnRef":  intent.TxnRef,
		"outcome": "cancelled",
		"amount":  "360000",
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleCallbackBadSignature(t *testing.T) {
	// Production factory: real VNPay adapter with signature verification
	svc, mock, cleanup := setupPaymentTest(t, "production")
	defer cleanup()

	mock.ExpectQuery("INSERT INTO payment_audits").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	_, err := svc.HandleCallback("vnpay", map[string]string{
		"vnp_TxnRef":       "LG-20260901-XYZ789-1756300000",
		"vnp_ResponseCode": "00",
		"vnp_Amount":       "36000000",
		"vnp_SecureHash":   "deadbeef",
	})

	var sErr *SignatureError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "vnpay", sErr.Gateway)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleCallbackUnknownReference(t *testing.T) {
	svc, mock, cleanup := setupPaymentTest(t, "development")
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM payment_intents WHERE txn_ref").
		WithArgs("LG-00000000-GHOST-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("INSERT INTO payment_audits").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	_, err := svc.HandleCallback("vnpay", map[string]string{
		"txnRef":  "LG-00000000-GHOST-1",
		"outcome": "paid",
	})

	var nfErr *NotFoundError
	assert.ErrorAs(t, err, &nfErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSimulateOutcomeDisabledInProduction(t *testing.T) {
	svc, mock, cleanup := setupPaymentTest(t, "production")
	defer cleanup()

	_, err := svc.SimulateOutcome(uuid.New(), "paid")

	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSimulateOutcomeCancelled(t *testing.T) {
	svc, mock, cleanup := setupPaymentTest(t, "development")
	defer cleanup()

	intent := pendingIntent(uuid.New())
	done := *intent
	done.Status = models.IntentStatusCancelled

	mock.ExpectQuery("SELECT (.+) FROM payment_intents WHERE id").
		WithArgs(intent.ID).
		WillReturnRows(svcIntentRows(intent))
	mock.ExpectExec("UPDATE payment_intents").
		WithArgs(intent.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM payment_intents WHERE id").
		WithArgs(intent.ID).
		WillReturnRows(svcIntentRows(&done))

	resp, err := svc.SimulateOutcome(intent.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusCancelled, resp.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmManuallyDuplicate(t *testing.T) {
	svc, mock, cleanup := setupPaymentTest(t, "development")
	defer cleanup()

	booking := paidBooking(uuid.New())

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(booking.ID).
		WillReturnRows(svcBookingRows(booking))
	mock.ExpectExec("UPDATE bookings").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO payment_audits").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(booking.ID).
		WillReturnRows(svcBookingRows(booking))

	updated, err := svc.ConfirmManually(booking.ID, 360000)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, updated.PaymentStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}
