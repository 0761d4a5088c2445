package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidLength indicates phone number length is not 10 digits
	ErrInvalidLength = errors.New("phone number must be exactly 10 digits")

	// ErrInvalidPrefix indicates phone number doesn't start with a valid Vietnamese mobile prefix
	ErrInvalidPrefix = errors.New("phone number must start with 03, 05, 07, 08, or 09")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits")

	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")
)

// validPrefixes contains the Vietnamese mobile number ranges in use
var validPrefixes = []string{
	"03", // Viettel
	"05", // Vietnamobile / Gmobile
	"07", // Mobifone
	"08", // Vinaphone
	"09", // legacy ranges, all carriers
}

// phoneRegex matches digits only
var phoneRegex = regexp.MustCompile(`^\d+$`)

// PhoneValidator handles phone number validation
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate validates a Vietnamese mobile number.
// Accepts format: 0901234567 or 090 123 4567 or +84 90 123 4567.
// Returns sanitized phone number (digits only) and error if invalid.
func (v *PhoneValidator) Validate(phone string) (string, error) {
	// Check if empty
	if phone == "" {
		return "", ErrEmptyPhone
	}

	// Sanitize input
	sanitized := v.Sanitize(phone)

	// Check if contains only digits
	if !phoneRegex.MatchString(sanitized) {
		return "", ErrInvalidFormat
	}

	// Check length
	if len(sanitized) != 10 {
		return "", ErrInvalidLength
	}

	// Check prefix
	if !v.IsValidPrefix(sanitized) {
		return "", ErrInvalidPrefix
	}

	return sanitized, nil
}

// Sanitize removes all non-digit characters from phone number
func (v *PhoneValidator) Sanitize(phone string) string {
	// Remove spaces, dashes, parentheses, and other common separators
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	phone = strings.ReplaceAll(phone, "(", "")
	phone = strings.ReplaceAll(phone, ")", "")
	phone = strings.ReplaceAll(phone, "+", "")
	phone = strings.ReplaceAll(phone, ".", "")

	// Remove country code if present (84)
	if strings.HasPrefix(phone, "84") && len(phone) == 11 {
		phone = "0" + phone[2:] // Replace 84 with 0
	}

	return phone
}

// IsValidPrefix checks if phone number has a valid Vietnamese mobile prefix
func (v *PhoneValidator) IsValidPrefix(phone string) bool {
	if len(phone) < 2 {
		return false
	}

	prefix := phone[:2]
	for _, validPrefix := range validPrefixes {
		if prefix == validPrefix {
			return true
		}
	}

	return false
}

// Format formats a phone number in the standard display format: 0XX XXX XXXX
func (v *PhoneValidator) Format(phone string) (string, error) {
	// Validate first
	sanitized, err := v.Validate(phone)
	if err != nil {
		return "", err
	}

	// Format as: 0XX XXX XXXX
	return fmt.Sprintf("%s %s %s",
		sanitized[0:3],  // 0XX
		sanitized[3:6],  // XXX
		sanitized[6:10], // XXXX
	), nil
}

// GetCarrier returns the mobile carrier name based on the 3-digit prefix
func (v *PhoneValidator) GetCarrier(phone string) (string, error) {
	sanitized, err := v.Validate(phone)
	if err != nil {
		return "", err
	}

	prefix := sanitized[:3]
	switch prefix {
	case "032", "033", "034", "035", "036", "037", "038", "039", "086", "096", "097", "098":
		return "Viettel", nil
	case "070", "076", "077", "078", "079", "089", "090", "093":
		return "Mobifone", nil
	case "081", "082", "083", "084", "085", "088", "091", "094":
		return "Vinaphone", nil
	case "052", "056", "058", "092":
		return "Vietnamobile", nil
	case "059", "099":
		return "Gmobile", nil
	default:
		return "", ErrInvalidPrefix
	}
}

// IsValid is a convenience method that returns true if phone is valid
func (v *PhoneValidator) IsValid(phone string) bool {
	_, err := v.Validate(phone)
	return err == nil
}
