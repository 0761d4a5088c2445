package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTripRepoTest(t *testing.T) (*TripRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewTripRepository(&PostgresDB{DB: sqlxDB})

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func tripRows(id uuid.UUID, booked string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "route_code", "service_date", "depart_at", "price",
		"seat_capacity", "seats_booked", "is_active", "created_at", "updated_at",
	}).AddRow(id, "SGN-LGI", now, now.Add(24*time.Hour), 180000.0, 15, booked, true, now, now)
}

func TestTripGetByID(t *testing.T) {
	repo, mock, cleanup := setupTripRepoTest(t)
	defer cleanup()

	tripID := uuid.New()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM trips WHERE id").
			WithArgs(tripID).
			WillReturnRows(tripRows(tripID, `{"3","7"}`))

		trip, err := repo.GetByID(tripID)
		require.NoError(t, err)
		assert.Equal(t, tripID, trip.ID)
		assert.Equal(t, "SGN-LGI", trip.RouteCode)
		assert.ElementsMatch(t, []string{"3", "7"}, []string(trip.SeatsBooked))
	})

	t.Run("not found", func(t *testing.T) {
		unknown := uuid.New()
		mock.ExpectQuery("SELECT (.+) FROM trips WHERE id").
			WithArgs(unknown).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetByID(unknown)
		assert.ErrorIs(t, err, ErrTripNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMergeSoldSeats(t *testing.T) {
	repo, mock, cleanup := setupTripRepoTest(t)
	defer cleanup()

	tripID := uuid.New()

	t.Run("merges into sold set", func(t *testing.T) {
		mock.ExpectExec("UPDATE trips").
			WithArgs(tripID, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.MergeSoldSeats(tripID, []string{"3", "7"})
		assert.NoError(t, err)
	})

	t.Run("unknown trip", func(t *testing.T) {
		mock.ExpectExec("UPDATE trips").
			WithArgs(tripID, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.MergeSoldSeats(tripID, []string{"3"})
		assert.ErrorIs(t, err, ErrTripNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseSoldSeats(t *testing.T) {
	repo, mock, cleanup := setupTripRepoTest(t)
	defer cleanup()

	tripID := uuid.New()

	mock.ExpectExec("UPDATE trips").
		WithArgs(tripID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ReleaseSoldSeats(tripID, []string{"3", "7"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureTrip(t *testing.T) {
	repo, mock, cleanup := setupTripRepoTest(t)
	defer cleanup()

	serviceDate := time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local)
	departAt := time.Date(2026, 9, 1, 6, 0, 0, 0, time.Local)

	t.Run("inserts new trip", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO trips").
			WithArgs(sqlmock.AnyArg(), "SGN-LGI", serviceDate, departAt, 180000.0, 15).
			WillReturnResult(sqlmock.NewResult(0, 1))

		inserted, err := repo.EnsureTrip("SGN-LGI", serviceDate, departAt, 180000, 15)
		require.NoError(t, err)
		assert.True(t, inserted)
	})

	t.Run("existing trip is left alone", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO trips").
			WithArgs(sqlmock.AnyArg(), "SGN-LGI", serviceDate, departAt, 180000.0, 15).
			WillReturnResult(sqlmock.NewResult(0, 0))

		inserted, err := repo.EnsureTrip("SGN-LGI", serviceDate, departAt, 180000, 15)
		require.NoError(t, err)
		assert.False(t, inserted)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateDeparted(t *testing.T) {
	repo, mock, cleanup := setupTripRepoTest(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectExec("UPDATE trips").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := repo.DeactivateDeparted(now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
