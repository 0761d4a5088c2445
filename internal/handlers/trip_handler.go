package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lagiexpress/booking-backend/internal/models"
	"github.com/lagiexpress/booking-backend/internal/services"
)

// TripHandler handles HTTP requests for routes, trip search, and seat maps
type TripHandler struct {
	inventory *services.InventoryService
	logger    *logrus.Logger
}

// NewTripHandler creates a new trip handler
func NewTripHandler(inventory *services.InventoryService, logger *logrus.Logger) *TripHandler {
	return &TripHandler{
		inventory: inventory,
		logger:    logger,
	}
}

// ListRoutes handles GET /api/v1/routes
func (h *TripHandler) ListRoutes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"routes": models.Routes,
	})
}

// SearchTrips handles GET /api/v1/trips?route=SGN-LGI&date=2026-09-01
func (h *TripHandler) SearchTrips(c *gin.Context) {
	routeCode := c.Query("route")
	if routeCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "route query parameter is required",
		})
		return
	}

	dateStr := c.Query("date")
	serviceDate, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "date must be in YYYY-MM-DD format",
		})
		return
	}

	trips, err := h.inventory.SearchTrips(routeCode, serviceDate)
	if err != nil {
		h.logger.WithError(err).WithField("route", routeCode).Error("Trip search failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"trips":  trips,
	})
}

// SeatMap handles GET /api/v1/trips/:id/seats
func (h *TripHandler) SeatMap(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "invalid trip id",
		})
		return
	}

	seatMap, err := h.inventory.SeatMap(tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"seat_map": seatMap,
	})
}
