package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lagiexpress/booking-backend/internal/database"
	"github.com/lagiexpress/booking-backend/internal/models"
)

func TestDefaultDepartureSlots(t *testing.T) {
	slots := DefaultDepartureSlots()
	require.Len(t, slots, len(models.DefaultDepartureTimes))

	assert.Equal(t, DepartureSlot{Hour: 6, Minute: 0}, slots[0])
	assert.Equal(t, DepartureSlot{Hour: 16, Minute: 30}, slots[len(slots)-1])
}

func TestGenerateTripsEmptyHorizon(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	svc := NewTripGeneratorService(database.NewTripRepository(db), 0, testLogger())

	created, err := svc.GenerateTrips()
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateTripsFillsTomorrow(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	svc := NewTripGeneratorService(database.NewTripRepository(db), 2, testLogger())

	// Day 0 slots already in the past are skipped, so only pin the total
	// for tomorrow: every route times every departure slot.
	tomorrow := len(models.Routes) * len(DefaultDepartureSlots())

	now := time.Now()
	today := 0
	for _, slot := range DefaultDepartureSlots() {
		departAt := time.Date(now.Year(), now.Month(), now.Day(), slot.Hour, slot.Minute, 0, 0, now.Location())
		if !departAt.Before(now) {
			today += len(models.Routes)
		}
	}

	for i := 0; i < today+tomorrow; i++ {
		mock.ExpectExec("INSERT INTO trips").
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	created, err := svc.GenerateTrips()
	require.NoError(t, err)
	assert.Equal(t, today+tomorrow, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateDepartedTrips(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	svc := NewTripGeneratorService(database.NewTripRepository(db), 7, testLogger())

	mock.ExpectExec("UPDATE trips").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	count, err := svc.DeactivateDeparted()
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
