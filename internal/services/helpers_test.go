package services

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/lagiexpress/booking-backend/internal/database"
	"github.com/lagiexpress/booking-backend/internal/models"
)

// testLogger returns a silent logger for service tests
func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newMockDB builds a sqlmock-backed database handle
func newMockDB(t *testing.T) (*database.PostgresDB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	cleanup := func() {
		db.Close()
	}
	return &database.PostgresDB{DB: sqlxDB}, mock, cleanup
}

// pgTextArray renders a seat slice in PostgreSQL TEXT[] literal form
func pgTextArray(seats []string) string {
	if len(seats) == 0 {
		return "{}"
	}
	quoted := make([]string, len(seats))
	for i, s := range seats {
		quoted[i] = `"` + s + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}"
}

// svcTripRows builds a trips result set for one trip
func svcTripRows(id uuid.UUID, routeCode string, departAt time.Time, price float64, booked []string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "route_code", "service_date", "depart_at", "price",
		"seat_capacity", "seats_booked", "is_active", "created_at", "updated_at",
	}).AddRow(id, routeCode, departAt.Truncate(24*time.Hour), departAt, price,
		models.SeatCapacity, pgTextArray(booked), true, now, now)
}

// svcHoldRows builds a holds result set for one hold
func svcHoldRows(id, tripID uuid.UUID, seats []string, status models.HoldStatus, expiresAt time.Time) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "trip_id", "seats", "phone", "status", "expires_at", "created_at", "updated_at",
	}).AddRow(id, tripID, pgTextArray(seats), nil, status, expiresAt, now, now)
}

// svcBookingRows builds a bookings result set from a model
func svcBookingRows(b *models.Booking) *sqlmock.Rows {
	now := time.Now()
	customer, err := json.Marshal(b.Customer)
	if err != nil {
		panic(fmt.Sprintf("marshal customer: %v", err))
	}
	return sqlmock.NewRows([]string{
		"id", "reference", "trip_id", "hold_id", "seats", "customer", "device",
		"payment_method", "payment_status", "amount", "currency", "provider_txn_id",
		"paid_at", "refunded_at", "status", "checked_in", "boarded_at",
		"reminder_sent_at", "created_at", "updated_at",
	}).AddRow(
		b.ID, b.Reference, b.TripID, b.HoldID, pgTextArray(b.Seats), customer, nil,
		b.PaymentMethod, b.PaymentStatus, b.Amount, b.Currency, b.ProviderTxnID,
		b.PaidAt, b.RefundedAt, b.Status, b.CheckedIn, b.BoardedAt,
		b.ReminderSentAt, now, now,
	)
}

// svcIntentRows builds a payment_intents result set from a model
func svcIntentRows(intent *models.PaymentIntent) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "booking_id", "method", "amount", "currency", "status",
		"pay_url", "txn_ref", "provider_txn_id", "expires_at", "created_at", "updated_at",
	}).AddRow(
		intent.ID, intent.BookingID, intent.Method, intent.Amount, intent.Currency, intent.Status,
		intent.PayURL, intent.TxnRef, intent.ProviderTxnID, intent.ExpiresAt, now, now,
	)
}
