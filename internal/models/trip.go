package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// ROUTE CATALOG
// ============================================================================

// Route describes one directional route in the fixed network
type Route struct {
	Code        string  `json:"code"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Price       float64 `json:"price"` // VND per seat
}

// Routes is the fixed directional route catalog. Trips are only ever
// generated for these codes.
var Routes = []Route{
	{Code: "SGN-LGI", Origin: "Sài Gòn", Destination: "La Gi", Price: 180000},
	{Code: "LGI-SGN", Origin: "La Gi", Destination: "Sài Gòn", Price: 180000},
	{Code: "DLT-LGI", Origin: "Đà Lạt", Destination: "La Gi", Price: 250000},
	{Code: "LGI-DLT", Origin: "La Gi", Destination: "Đà Lạt", Price: 250000},
	{Code: "VTU-LGI", Origin: "Vũng Tàu", Destination: "La Gi", Price: 150000},
	{Code: "LGI-VTU", Origin: "La Gi", Destination: "Vũng Tàu", Price: 150000},
}

// DefaultDepartureTimes are the daily departure slots generated for every route
var DefaultDepartureTimes = []string{"06:00", "09:00", "13:00", "16:30"}

// RouteByCode looks up a route in the catalog; ok is false for unknown codes
func RouteByCode(code string) (Route, bool) {
	for _, r := range Routes {
		if r.Code == code {
			return r, true
		}
	}
	return Route{}, false
}

// ReverseRouteCode returns the opposite direction of a route code,
// e.g. "SGN-LGI" -> "LGI-SGN". Returns "" if the code is malformed.
func ReverseRouteCode(code string) string {
	for i := 0; i < len(code); i++ {
		if code[i] == '-' {
			return code[i+1:] + "-" + code[:i]
		}
	}
	return ""
}

// ============================================================================
// TRIP MODEL (trips table)
// ============================================================================

// Trip represents one scheduled departure. SeatsBooked is the sold set:
// the seats irreversibly allocated to paid or cash bookings. It is mutated
// only through TripRepository.MergeSoldSeats / ReleaseSoldSeats.
type Trip struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	RouteCode    string        `json:"route_code" db:"route_code"`
	ServiceDate  time.Time     `json:"service_date" db:"service_date"`
	DepartAt     time.Time     `json:"depart_at" db:"depart_at"`
	Price        float64       `json:"price" db:"price"`
	SeatCapacity int           `json:"seat_capacity" db:"seat_capacity"`
	SeatsBooked  SeatCodeArray `json:"seats_booked" db:"seats_booked"`
	IsActive     bool          `json:"is_active" db:"is_active"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

// HasDeparted reports whether the trip's departure time has passed
func (t *Trip) HasDeparted(now time.Time) bool {
	return !now.Before(t.DepartAt)
}

// SeatsLeft returns capacity minus the sold set. Held seats are not
// subtracted here; availability including holds comes from the
// inventory service.
func (t *Trip) SeatsLeft() int {
	left := t.SeatCapacity - len(t.SeatsBooked)
	if left < 0 {
		return 0
	}
	return left
}

// TripSnapshot is the trip metadata echoed back on hold and booking
// responses so clients can render a summary without a second query
type TripSnapshot struct {
	TripID      uuid.UUID `json:"trip_id"`
	RouteCode   string    `json:"route_code"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	DepartAt    time.Time `json:"depart_at"`
	Price       float64   `json:"price"`
}

// Snapshot builds the client-facing snapshot for this trip
func (t *Trip) Snapshot() TripSnapshot {
	snap := TripSnapshot{
		TripID:    t.ID,
		RouteCode: t.RouteCode,
		DepartAt:  t.DepartAt,
		Price:     t.Price,
	}
	if route, ok := RouteByCode(t.RouteCode); ok {
		snap.Origin = route.Origin
		snap.Destination = route.Destination
	}
	return snap
}

// ============================================================================
// REQUEST/RESPONSE STRUCTS
// ============================================================================

// TripSearchResult is one row of a trip search response
type TripSearchResult struct {
	TripID    uuid.UUID `json:"trip_id"`
	RouteCode string    `json:"route_code"`
	DepartAt  time.Time `json:"depart_at"`
	Price     float64   `json:"price"`
	SeatsLeft int       `json:"seats_left"`
}

// SeatMapResponse is the per-trip seat map: full layout plus which
// seats are sold and which are covered by active unexpired holds
type SeatMapResponse struct {
	TripID uuid.UUID `json:"trip_id"`
	Layout []string  `json:"layout"`
	Booked []string  `json:"booked"`
	Held   []string  `json:"held"`
}
