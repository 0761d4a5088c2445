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
)

func setupHoldServiceTest(t *testing.T) (*HoldService, sqlmock.Sqlmock, func()) {
	db, mock, cleanup := newMockDB(t)

	tripRepo := database.NewTripRepository(db)
	holdRepo := database.NewHoldRepository(db, tripRepo)
	rateLimit := NewRateLimitService(db, config.RateLimitConfig{
		MaxPhoneRequests:   3,
		PhoneWindowMinutes: 10,
		MaxIPRequests:      20,
		IPWindowMinutes:    60,
	})

	svc := NewHoldService(tripRepo, holdRepo, rateLimit, 10*time.Minute, testLogger())
	return svc, mock, cleanup
}

func TestCreateHoldValidation(t *testing.T) {
	svc, mock, cleanup := setupHoldServiceTest(t)
	defer cleanup()

	tripID := uuid.New().String()

	t.Run("malformed trip id", func(t *testing.T) {
		_, err := svc.CreateHold(&models.CreateHoldRequest{TripID: "not-a-uuid", Seats: []string{"3"}}, "1.2.3.4")
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("duplicate seats", func(t *testing.T) {
		_, err := svc.CreateHold(&models.CreateHoldRequest{TripID: tripID, Seats: []string{"3", "3"}}, "1.2.3.4")
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.Message, "duplicate seat")
	})

	t.Run("seat outside layout", func(t *testing.T) {
		_, err := svc.CreateHold(&models.CreateHoldRequest{TripID: tripID, Seats: []string{"16"}}, "1.2.3.4")
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.Message, "16")
	})

	t.Run("non-numeric seat", func(t *testing.T) {
		_, err := svc.CreateHold(&models.CreateHoldRequest{TripID: tripID, Seats: []string{"A1"}}, "1.2.3.4")
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	// None of the rejected requests may touch the database
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateHoldRateLimited(t *testing.T) {
	svc, mock, cleanup := setupHoldServiceTest(t)
	defer cleanup()

	phone := "0901234567"
	lastRequest := time.Now().Add(-time.Minute)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(phone, "phone", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "max"}).AddRow(3, lastRequest))

	_, err := svc.CreateHold(&models.CreateHoldRequest{
		TripID: uuid.New().String(),
		Seats:  []string{"3"},
		Phone:  &phone,
	}, "1.2.3.4")

	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "phone", rlErr.Type)
	assert.WithinDuration(t, lastRequest.Add(10*time.Minute), rlErr.RetryAfter, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateHoldTripNotFound(t *testing.T) {
	svc, mock, cleanup := setupHoldServiceTest(t)
	defer cleanup()

	tripID := uuid.New()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("1.2.3.4", "ip", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "max"}).AddRow(0, time.Now()))
	mock.ExpectQuery("SELECT (.+) FROM trips WHERE id").
		WithArgs(tripID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.CreateHold(&models.CreateHoldRequest{TripID: tripID.String(), Seats: []string{"3"}}, "1.2.3.4")

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "trip", nfErr.Resource)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateHoldDepartedTrip(t *testing.T) {
	svc, mock, cleanup := setupHoldServiceTest(t)
	defer cleanup()

	tripID := uuid.New()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("1.2.3.4", "ip", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "max"}).AddRow(0, time.Now()))
	mock.ExpectQuery("SELECT (.+) FROM trips WHERE id").
		WithArgs(tripID).
		WillReturnRows(svcTripRows(tripID, "SGN-LGI", time.Now().Add(-time.Hour), 180000, nil))

	_, err := svc.CreateHold(&models.CreateHoldRequest{TripID: tripID.String(), Seats: []string{"3"}}, "1.2.3.4")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "departed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateHoldConflict(t *testing.T) {
	svc, mock, cleanup := setupHoldServiceTest(t)
	defer cleanup()

	tripID := uuid.New()
	departAt := time.Now().Add(24 * time.Hour)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("1.2.3.4", "ip", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "max"}).AddRow(0, time.Now()))
	mock.ExpectQuery("SELECT (.+) FROM trips WHERE id").
		WithArgs(tripID).
		WillReturnRows(svcTripRows(tripID, "SGN-LGI", departAt, 180000, []string{"3"}))

	// Seat 3 is sold, seat 7 is covered by another active hold
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM trips WHERE id = (.+) FOR UPDATE").
		WithArgs(tripID).
		WillReturnRows(svcTripRows(tripID, "SGN-LGI", departAt, 180000, []string{"3"}))
	mock.ExpectQuery("SELECT seats FROM holds").
		WithArgs(tripID).
		WillReturnRows(sqlmock.NewRows([]string{"seats"}).AddRow(pgTextArray([]string{"7", "8"})))
	mock.ExpectRollback()

	_, err := svc.CreateHold(&models.CreateHoldRequest{TripID: tripID.String(), Seats: []string{"3", "7", "9"}}, "1.2.3.4")

	var cErr *ConflictError
	require.ErrorAs(t, err, &cErr)
	assert.ElementsMatch(t, []string{"3", "7"}, cErr.Seats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateHoldSuccess(t *testing.T) {
	svc, mock, cleanup := setupHoldServiceTest(t)
	defer cleanup()

	tripID := uuid.New()
	phone := "0901234567"
	departAt := time.Now().Add(24 * time.Hour)
	now := time.Now()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(phone, "phone", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "max"}).AddRow(0, now))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("1.2.3.4", "ip", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "max"}).AddRow(0, now))
	mock.ExpectQuery("SELECT (.+) FROM trips WHERE id").
		WithArgs(tripID).
		WillReturnRows(svcTripRows(tripID, "SGN-LGI", departAt, 180000, nil))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM trips WHERE id = (.+) FOR UPDATE").
		WithArgs(tripID).
		WillReturnRows(svcTripRows(tripID, "SGN-LGI", departAt, 180000, nil))
	mock.ExpectQuery("SELECT seats FROM holds").
		WithArgs(tripID).
		WillReturnRows(sqlmock.NewRows([]string{"seats"}))
	mock.ExpectQuery("INSERT INTO holds").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	mock.ExpectExec("INSERT INTO hold_rate_limits").
		WithArgs(phone, "phone").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO hold_rate_limits").
		WithArgs("1.2.3.4", "ip").
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp, err := svc.CreateHold(&models.CreateHoldRequest{
		TripID: tripID.String(),
		Seats:  []string{"3", "7"},
		Phone:  &phone,
	}, "1.2.3.4")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, resp.HoldID)
	assert.ElementsMatch(t, []string{"3", "7"}, resp.Seats)
	assert.Equal(t, models.HoldStatusActive, resp.Status)
	assert.WithinDuration(t, now.Add(10*time.Minute), resp.ExpiresAt, 2*time.Second)
	assert.Equal(t, "SGN-LGI", resp.Trip.RouteCode)
	assert.Equal(t, "Sài Gòn", resp.Trip.Origin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHold(t *testing.T) {
	svc, mock, cleanup := setupHoldServiceTest(t)
	defer cleanup()

	holdID := uuid.New()
	tripID := uuid.New()
	departAt := time.Now().Add(24 * time.Hour)
	expiresAt := time.Now().Add(5 * time.Minute)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM holds WHERE id").
			WithArgs(holdID).
			WillReturnRows(svcHoldRows(holdID, tripID, []string{"3"}, models.HoldStatusActive, expiresAt))
		mock.ExpectQuery("SELECT (.+) FROM trips WHERE id").
			WithArgs(tripID).
			WillReturnRows(svcTripRows(tripID, "LGI-SGN", departAt, 180000, nil))

		resp, err := svc.GetHold(holdID)
		require.NoError(t, err)
		assert.Equal(t, holdID, resp.HoldID)
		assert.WithinDuration(t, expiresAt, resp.ExpiresAt, time.Second)
		assert.Equal(t, "LGI-SGN", resp.Trip.RouteCode)
	})

	t.Run("not found", func(t *testing.T) {
		unknown := uuid.New()
		mock.ExpectQuery("SELECT (.+) FROM holds WHERE id").
			WithArgs(unknown).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := svc.GetHold(unknown)
		var nfErr *NotFoundError
		require.ErrorAs(t, err, &nfErr)
		assert.Equal(t, "hold", nfErr.Resource)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelHoldIdempotent(t *testing.T) {
	svc, mock, cleanup := setupHoldServiceTest(t)
	defer cleanup()

	holdID := uuid.New()

	// First cancel releases, second matches nothing; both succeed
	mock.ExpectExec("UPDATE holds").
		WithArgs(holdID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE holds").
		WithArgs(holdID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, svc.CancelHold(holdID))
	assert.NoError(t, svc.CancelHold(holdID))
	assert.NoError(t, mock.ExpectationsWereMet())
}
