package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lagiexpress/booking-backend/internal/models"
	"github.com/lagiexpress/booking-backend/internal/services"
	"github.com/lagiexpress/booking-backend/internal/utils"
	"github.com/lagiexpress/booking-backend/pkg/validator"
)

// BookingHandler handles HTTP requests for bookings
type BookingHandler struct {
	reservations *services.ReservationService
	phones       *validator.PhoneValidator
	logger       *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(reservations *services.ReservationService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		reservations: reservations,
		phones:       validator.NewPhoneValidator(),
		logger:       logger,
	}
}

// ConfirmBooking handles POST /api/v1/bookings
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	var req models.ConfirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request format",
		})
		return
	}

	// Normalize the contact number before it reaches storage
	sanitized, err := h.phones.Validate(req.Phone)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}
	req.Phone = sanitized

	booking, err := h.reservations.ConfirmBooking(&req, utils.GetUserAgent(c), utils.GetRealIP(c))
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if booking.Reused {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"status":  "success",
		"booking": booking,
	})
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "invalid booking id",
		})
		return
	}

	booking, err := h.reservations.GetBooking(bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"booking": booking,
	})
}

// LookupByReference handles GET /api/v1/bookings/reference/:ref
func (h *BookingHandler) LookupByReference(c *gin.Context) {
	booking, err := h.reservations.LookupByReference(c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"booking": booking,
	})
}

// LookupByPhone handles GET /api/v1/bookings?phone=0901234567
func (h *BookingHandler) LookupByPhone(c *gin.Context) {
	sanitized, err := h.phones.Validate(c.Query("phone"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	bookings, err := h.reservations.LookupByPhone(sanitized)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"bookings": bookings,
	})
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "invalid booking id",
		})
		return
	}

	booking, err := h.reservations.CancelBooking(bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithField("booking_id", bookingID).Info("Booking cancelled via API")
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"booking": booking,
	})
}
