package models

import (
	"database/sql/driver"
	"strconv"

	"github.com/lib/pq"
)

// SeatCapacity is the number of seats on every coach in the fleet
// (16-seat limousines with one seat reserved for the attendant)
const SeatCapacity = 15

// SeatCodeArray is a custom type for handling seat-code TEXT[] columns in PostgreSQL
type SeatCodeArray []string

// Value implements the driver.Valuer interface
func (a SeatCodeArray) Value() (driver.Value, error) {
	if a == nil {
		return pq.Array([]string{}).Value()
	}
	return pq.Array(a).Value()
}

// Scan implements the sql.Scanner interface
func (a *SeatCodeArray) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	slice := (*[]string)(a)
	return pq.Array(slice).Scan(src)
}

// Contains reports whether the array holds the given seat code
func (a SeatCodeArray) Contains(code string) bool {
	for _, s := range a {
		if s == code {
			return true
		}
	}
	return false
}

// Overlap returns the seat codes present in both arrays, in the order of a
func (a SeatCodeArray) Overlap(other SeatCodeArray) []string {
	var overlap []string
	for _, s := range a {
		if other.Contains(s) {
			overlap = append(overlap, s)
		}
	}
	return overlap
}

// SeatLayout returns the valid seat codes for a coach: "1" through "15"
func SeatLayout() []string {
	layout := make([]string, SeatCapacity)
	for i := range layout {
		layout[i] = strconv.Itoa(i + 1)
	}
	return layout
}

// IsValidSeatCode reports whether a seat code belongs to the coach layout
func IsValidSeatCode(code string) bool {
	n, err := strconv.Atoi(code)
	if err != nil {
		return false
	}
	return n >= 1 && n <= SeatCapacity
}
