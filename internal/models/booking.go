package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// BOOKING TYPES & STATUSES (matches DB ENUMs)
// ============================================================================

// BookingStatus represents the lifecycle status of a booking
// Matches PostgreSQL ENUM: booking_status
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // awaiting gateway payment
	BookingStatusConfirmed BookingStatus = "confirmed" // paid, or cash-on-boarding
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed" // trip ran
)

// PaymentStatus represents the payment sub-state of a booking
// Matches PostgreSQL ENUM: payment_status
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// PaymentMethod represents how a booking is paid
type PaymentMethod string

const (
	PaymentMethodCOD     PaymentMethod = "cod" // cash on boarding
	PaymentMethodVNPay   PaymentMethod = "vnpay"
	PaymentMethodMoMo    PaymentMethod = "momo"
	PaymentMethodZaloPay PaymentMethod = "zalopay"
)

// IsGateway reports whether the method settles through an external provider
func (m PaymentMethod) IsGateway() bool {
	return m == PaymentMethodVNPay || m == PaymentMethodMoMo || m == PaymentMethodZaloPay
}

// ValidPaymentMethod reports whether the string names a supported method
func ValidPaymentMethod(m string) bool {
	switch PaymentMethod(m) {
	case PaymentMethodCOD, PaymentMethodVNPay, PaymentMethodMoMo, PaymentMethodZaloPay:
		return true
	}
	return false
}

// ============================================================================
// JSONB PAYLOAD TYPES
// ============================================================================

// CustomerInfo is the customer snapshot stored on a booking in JSONB
type CustomerInfo struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Email   *string `json:"email,omitempty"`
	Pickup  string  `json:"pickup"`
	Dropoff string  `json:"dropoff"`
	Note    *string `json:"note,omitempty"`
}

func (c CustomerInfo) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *CustomerInfo) Scan(value interface{}) error {
	if value == nil {
		*c = CustomerInfo{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed for CustomerInfo")
	}
	return json.Unmarshal(bytes, c)
}

// DeviceInfo is a snapshot of the client device captured at confirmation
// time, parsed from the User-Agent header. Kept for support follow-up,
// never used in booking logic.
type DeviceInfo struct {
	Platform string `json:"platform,omitempty"`
	OS       string `json:"os,omitempty"`
	Browser  string `json:"browser,omitempty"`
	Mobile   bool   `json:"mobile"`
	RawUA    string `json:"raw_ua,omitempty"`
	ClientIP string `json:"client_ip,omitempty"`
}

func (d DeviceInfo) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *DeviceInfo) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed for DeviceInfo")
	}
	return json.Unmarshal(bytes, d)
}

// ============================================================================
// BOOKING MODEL (bookings table)
// ============================================================================

// Booking is a durable reservation created from exactly one hold.
// hold_id carries a UNIQUE constraint: a duplicate confirm for the same
// hold resolves to the existing row instead of inserting a second one.
type Booking struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	Reference string        `json:"reference" db:"reference"`
	TripID    uuid.UUID     `json:"trip_id" db:"trip_id"`
	HoldID    uuid.UUID     `json:"hold_id" db:"hold_id"`
	Seats     SeatCodeArray `json:"seats" db:"seats"`
	Customer  CustomerInfo  `json:"customer" db:"customer"`
	Device    *DeviceInfo   `json:"device,omitempty" db:"device"`

	// Payment sub-record (flat columns, mutated only by the reconciler
	// and the cancellation path)
	PaymentMethod PaymentMethod `json:"payment_method" db:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`
	Amount        float64       `json:"amount" db:"amount"`
	Currency      string        `json:"currency" db:"currency"`
	ProviderTxnID *string       `json:"provider_txn_id,omitempty" db:"provider_txn_id"`
	PaidAt        *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
	RefundedAt    *time.Time    `json:"refunded_at,omitempty" db:"refunded_at"`

	Status         BookingStatus `json:"status" db:"status"`
	CheckedIn      bool          `json:"checked_in" db:"checked_in"`
	BoardedAt      *time.Time    `json:"boarded_at,omitempty" db:"boarded_at"`
	ReminderSentAt *time.Time    `json:"reminder_sent_at,omitempty" db:"reminder_sent_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsPaid reports whether the booking has been settled
func (b *Booking) IsPaid() bool {
	return b.PaymentStatus == PaymentStatusPaid
}

// IsTerminal reports whether the booking can no longer change lifecycle state
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingStatusCancelled || b.Status == BookingStatusCompleted
}

// CanBeCancelled checks the cancellation rules against the trip departure:
// not terminal, not checked in, and not closer to departure than the
// configured threshold.
func (b *Booking) CanBeCancelled(departAt, now time.Time, cancelBefore time.Duration) error {
	if b.IsTerminal() {
		return errors.New("booking is already " + string(b.Status))
	}
	if b.CheckedIn {
		return errors.New("booking has already checked in")
	}
	if departAt.Sub(now) < cancelBefore {
		return errors.New("too close to departure to cancel")
	}
	return nil
}

// ============================================================================
// REQUEST/RESPONSE STRUCTS
// ============================================================================

// ConfirmBookingRequest converts a hold into a booking
type ConfirmBookingRequest struct {
	HoldID        string  `json:"hold_id" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Phone         string  `json:"phone" binding:"required"`
	Email         *string `json:"email,omitempty"`
	Pickup        string  `json:"pickup" binding:"required"`
	Dropoff       string  `json:"dropoff" binding:"required"`
	Note          *string `json:"note,omitempty"`
	PaymentMethod string  `json:"payment_method" binding:"required"`
}

// Validate validates the confirm request beyond binding tags
func (r *ConfirmBookingRequest) Validate() error {
	if !ValidPaymentMethod(r.PaymentMethod) {
		return errors.New("unsupported payment method: " + r.PaymentMethod)
	}
	return nil
}

// CustomerInfoFromRequest builds the JSONB snapshot from the request
func (r *ConfirmBookingRequest) CustomerInfoFromRequest() CustomerInfo {
	return CustomerInfo{
		Name:    r.Name,
		Phone:   r.Phone,
		Email:   r.Email,
		Pickup:  r.Pickup,
		Dropoff: r.Dropoff,
		Note:    r.Note,
	}
}

// BookingResponse is returned after confirming or fetching a booking
type BookingResponse struct {
	BookingID     uuid.UUID     `json:"booking_id"`
	Reference     string        `json:"reference"`
	Seats         []string      `json:"seats"`
	Status        BookingStatus `json:"status"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	Reused        bool          `json:"reused"` // true when an earlier confirm already created this booking
	Trip          TripSnapshot  `json:"trip"`
}
