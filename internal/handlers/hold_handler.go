package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lagiexpress/booking-backend/internal/models"
	"github.com/lagiexpress/booking-backend/internal/services"
	"github.com/lagiexpress/booking-backend/internal/utils"
)

// HoldHandler handles HTTP requests for seat holds
type HoldHandler struct {
	holds  *services.HoldService
	logger *logrus.Logger
}

// NewHoldHandler creates a new hold handler
func NewHoldHandler(holds *services.HoldService, logger *logrus.Logger) *HoldHandler {
	return &HoldHandler{
		holds:  holds,
		logger: logger,
	}
}

// CreateHold handles POST /api/v1/holds
func (h *HoldHandler) CreateHold(c *gin.Context) {
	var req models.CreateHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request format",
		})
		return
	}

	hold, err := h.holds.CreateHold(&req, utils.GetRealIP(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"hold":   hold,
	})
}

// GetHold handles GET /api/v1/holds/:id
func (h *HoldHandler) GetHold(c *gin.Context) {
	holdID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "invalid hold id",
		})
		return
	}

	hold, err := h.holds.GetHold(holdID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"hold":   hold,
	})
}

// CancelHold handles DELETE /api/v1/holds/:id
func (h *HoldHandler) CancelHold(c *gin.Context) {
	holdID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "invalid hold id",
		})
		return
	}

	if err := h.holds.CancelHold(holdID); err != nil {
		h.logger.WithError(err).WithField("hold_id", holdID).Error("Failed to cancel hold")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "hold released",
	})
}
