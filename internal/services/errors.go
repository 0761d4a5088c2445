package services

import (
	"fmt"
	"time"
)

// Domain error taxonomy. Handlers map these to HTTP status codes; no
// service ever returns a raw gin or database error to a caller.

// ValidationError marks caller-fixable bad input (HTTP 400)
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError marks an unknown trip/hold/booking/intent (HTTP 404)
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// ConflictError marks a lost race for seats or a duplicate claim (HTTP 409).
// Seats, when set, names the specific seats the caller should re-pick.
type ConflictError struct {
	Message string
	Seats   []string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ExpiredError marks a hold or intent past its TTL (HTTP 400); the caller
// must restart the flow from seat selection
type ExpiredError struct {
	Resource string
}

func (e *ExpiredError) Error() string {
	return e.Resource + " has expired"
}

// SignatureError marks a payment callback that failed integrity
// verification. Always a hard rejection, never retried.
type SignatureError struct {
	Gateway string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("invalid %s callback signature", e.Gateway)
}

// UnauthorizedError marks failed admin authentication (HTTP 401)
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

// NewUnauthorizedError creates an UnauthorizedError
func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

// RateLimitError marks too many hold requests from one phone or IP (HTTP 429)
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "phone" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}
