package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lagiexpress/booking-backend/internal/middleware"
	"github.com/lagiexpress/booking-backend/internal/models"
	"github.com/lagiexpress/booking-backend/internal/services"
)

// AdminHandler handles the operator surfaces: login, check-in, manual
// reconciliation, and background job controls
type AdminHandler struct {
	auth         *services.AdminAuthService
	reservations *services.ReservationService
	payments     *services.PaymentService
	sweeper      *services.ExpirationSweeper
	cron         *services.CronService
	logger       *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	auth *services.AdminAuthService,
	reservations *services.ReservationService,
	payments *services.PaymentService,
	sweeper *services.ExpirationSweeper,
	cron *services.CronService,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		auth:         auth,
		reservations: reservations,
		payments:     payments,
		sweeper:      sweeper,
		cron:         cron,
		logger:       logger,
	}
}

// Login handles POST /api/v1/admin/login
func (h *AdminHandler) Login(c *gin.Context) {
	var req models.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "username and password are required",
		})
		return
	}

	tokens, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"tokens": tokens,
	})
}

// RefreshToken handles POST /api/v1/admin/refresh
func (h *AdminHandler) RefreshToken(c *gin.Context) {
	var req models.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "refresh_token is required",
		})
		return
	}

	tokens, err := h.auth.RefreshToken(req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"tokens": tokens,
	})
}

// CheckIn handles POST /api/v1/admin/bookings/:id/checkin
func (h *AdminHandler) CheckIn(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "invalid booking id",
		})
		return
	}

	booking, err := h.reservations.CheckIn(bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logAdminAction(c, "check_in", bookingID.String())
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"booking": booking,
	})
}

// ConfirmPayment handles POST /api/v1/admin/bookings/:id/confirm-payment.
// Settles a booking without a gateway callback (bank transfer received,
// support resolution).
func (h *AdminHandler) ConfirmPayment(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "invalid booking id",
		})
		return
	}

	var req struct {
		Amount float64 `json:"amount" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "amount is required",
		})
		return
	}

	booking, err := h.payments.ConfirmManually(bookingID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logAdminAction(c, "confirm_payment", bookingID.String())
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"booking": booking,
	})
}

// RunSweep handles POST /api/v1/admin/sweep — runs one expiration sweep
// immediately instead of waiting for the ticker
func (h *AdminHandler) RunSweep(c *gin.Context) {
	h.sweeper.RunOnce()
	h.logAdminAction(c, "manual_sweep", "")
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "sweep completed",
	})
}

// GenerateTrips handles POST /api/v1/admin/trips/generate
func (h *AdminHandler) GenerateTrips(c *gin.Context) {
	if err := h.cron.RunGenerateTripsNow(); err != nil {
		respondError(c, err)
		return
	}

	h.logAdminAction(c, "generate_trips", "")
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "trip generation triggered",
	})
}

// JobStatus handles GET /api/v1/admin/jobs
func (h *AdminHandler) JobStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"jobs":   h.cron.GetJobStatus(),
	})
}

func (h *AdminHandler) logAdminAction(c *gin.Context, action, target string) {
	fields := logrus.Fields{"action": action}
	if target != "" {
		fields["target"] = target
	}
	if admin, ok := middleware.GetAdminContext(c); ok {
		fields["admin"] = admin.Username
	}
	h.logger.WithFields(fields).Info("Admin action")
}
