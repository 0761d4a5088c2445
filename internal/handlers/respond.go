package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lagiexpress/booking-backend/internal/services"
)

// respondError maps the service error taxonomy to HTTP responses. Every
// handler funnels its service errors through here so status codes stay
// consistent across the API surface.
func respondError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var notFoundErr *services.NotFoundError
	var conflictErr *services.ConflictError
	var expiredErr *services.ExpiredError
	var signatureErr *services.SignatureError
	var rateLimitErr *services.RateLimitError
	var unauthorizedErr *services.UnauthorizedError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": validationErr.Message,
		})

	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{
			"status":  "error",
			"message": notFoundErr.Error(),
		})

	case errors.As(err, &conflictErr):
		body := gin.H{
			"status":  "error",
			"message": conflictErr.Message,
		}
		if len(conflictErr.Seats) > 0 {
			body["conflicting_seats"] = conflictErr.Seats
		}
		c.JSON(http.StatusConflict, body)

	case errors.As(err, &expiredErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": expiredErr.Error(),
			"code":    "EXPIRED",
		})

	case errors.As(err, &signatureErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": signatureErr.Error(),
			"code":    "BAD_SIGNATURE",
		})

	case errors.As(err, &rateLimitErr):
		retryAfter := int(time.Until(rateLimitErr.RetryAfter).Seconds())
		if retryAfter < 0 {
			retryAfter = 0
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"status":              "error",
			"message":             rateLimitErr.Message,
			"retry_after_seconds": retryAfter,
		})

	case errors.As(err, &unauthorizedErr):
		c.JSON(http.StatusUnauthorized, gin.H{
			"status":  "error",
			"message": unauthorizedErr.Message,
		})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Internal server error",
		})
	}
}
