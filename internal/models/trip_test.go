package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteByCode(t *testing.T) {
	route, ok := RouteByCode("SGN-LGI")
	require.True(t, ok)
	assert.Equal(t, "Sài Gòn", route.Origin)
	assert.Equal(t, "La Gi", route.Destination)
	assert.Equal(t, 180000.0, route.Price)

	_, ok = RouteByCode("SGN-HAN")
	assert.False(t, ok)
}

func TestRouteCatalogIsSymmetric(t *testing.T) {
	// Every route in the catalog must have its reverse direction too,
	// at the same fare
	for _, route := range Routes {
		reverse, ok := RouteByCode(ReverseRouteCode(route.Code))
		require.True(t, ok, "missing reverse of %s", route.Code)
		assert.Equal(t, route.Price, reverse.Price, route.Code)
	}
}

func TestReverseRouteCode(t *testing.T) {
	assert.Equal(t, "LGI-SGN", ReverseRouteCode("SGN-LGI"))
	assert.Equal(t, "SGN-LGI", ReverseRouteCode("LGI-SGN"))
	assert.Equal(t, "", ReverseRouteCode("NODASH"))
}

func TestTripHasDeparted(t *testing.T) {
	now := time.Now()
	trip := &Trip{DepartAt: now.Add(time.Hour)}

	assert.False(t, trip.HasDeparted(now))
	assert.True(t, trip.HasDeparted(now.Add(2*time.Hour)))
	// Exactly at departure counts as departed
	assert.True(t, trip.HasDeparted(trip.DepartAt))
}

func TestTripSeatsLeft(t *testing.T) {
	trip := &Trip{SeatCapacity: SeatCapacity, SeatsBooked: SeatCodeArray{"1", "2", "3"}}
	assert.Equal(t, 12, trip.SeatsLeft())

	full := &Trip{SeatCapacity: 2, SeatsBooked: SeatCodeArray{"1", "2", "3"}}
	assert.Equal(t, 0, full.SeatsLeft())
}

func TestTripSnapshot(t *testing.T) {
	departAt := time.Now().Add(24 * time.Hour)
	trip := &Trip{
		ID:        uuid.New(),
		RouteCode: "DLT-LGI",
		DepartAt:  departAt,
		Price:     250000,
	}

	snap := trip.Snapshot()
	assert.Equal(t, trip.ID, snap.TripID)
	assert.Equal(t, "Đà Lạt", snap.Origin)
	assert.Equal(t, "La Gi", snap.Destination)
	assert.Equal(t, 250000.0, snap.Price)

	// Unknown route codes still produce a snapshot, just without names
	trip.RouteCode = "XXX-YYY"
	snap = trip.Snapshot()
	assert.Empty(t, snap.Origin)
	assert.Empty(t, snap.Destination)
}
