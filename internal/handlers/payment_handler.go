package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lagiexpress/booking-backend/internal/models"
	"github.com/lagiexpress/booking-backend/internal/services"
	"github.com/lagiexpress/booking-backend/internal/utils"
)

// PaymentHandler handles HTTP requests for payment intents and gateway
// callbacks. Gateway endpoints answer in each gateway's expected
// acknowledgement format, not the API's envelope.
type PaymentHandler struct {
	payments *services.PaymentService
	logger   *logrus.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments *services.PaymentService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		logger:   logger,
	}
}

// CreateIntent handles POST /api/v1/payments
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request format",
		})
		return
	}

	intent, err := h.payments.CreateIntent(&req, utils.GetRealIP(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"intent": intent,
	})
}

// GetIntentStatus handles GET /api/v1/payments/:id
func (h *PaymentHandler) GetIntentStatus(c *gin.Context) {
	intentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "invalid payment intent id",
		})
		return
	}

	intent, err := h.payments.GetIntentStatus(intentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"intent": intent,
	})
}

// SimulateOutcome handles POST /api/v1/payments/:id/simulate.
// Development and staging only; the service refuses it in production.
func (h *PaymentHandler) SimulateOutcome(c *gin.Context) {
	intentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "invalid payment intent id",
		})
		return
	}

	var req models.SimulatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "outcome must be paid or cancelled",
		})
		return
	}

	intent, err := h.payments.SimulateOutcome(intentID, req.Outcome)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"intent": intent,
	})
}

// VNPayReturn handles GET /api/v1/payments/vnpay/return — the browser
// redirect after checkout. Informational for the customer; the IPN is
// what settles the booking.
func (h *PaymentHandler) VNPayReturn(c *gin.Context) {
	result, err := h.payments.HandleCallback("vnpay", queryToMap(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"paid":    result.Success,
		"txn_ref": result.TxnRef,
	})
}

// VNPayIPN handles GET /api/v1/payments/vnpay/ipn — the server-to-server
// notification. VNPay expects an RspCode acknowledgement body and
// retries until it gets one.
func (h *PaymentHandler) VNPayIPN(c *gin.Context) {
	result, err := h.payments.HandleCallback("vnpay", queryToMap(c))
	if err != nil {
		var rspCode string
		switch err.(type) {
		case *services.SignatureError:
			rspCode = "97" // invalid checksum
		case *services.NotFoundError:
			rspCode = "01" // order not found
		default:
			h.logger.WithError(err).Error("VNPay IPN processing failed")
			rspCode = "99"
		}
		c.JSON(http.StatusOK, gin.H{"RspCode": rspCode, "Message": err.Error()})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"txn_ref": result.TxnRef,
		"success": result.Success,
	}).Info("VNPay IPN processed")
	c.JSON(http.StatusOK, gin.H{"RspCode": "00", "Message": "Confirm Success"})
}

// MoMoIPN handles POST /api/v1/payments/momo/ipn. MoMo treats HTTP 204
// as a successful acknowledgement.
func (h *PaymentHandler) MoMoIPN(c *gin.Context) {
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payload"})
		return
	}

	params := make(map[string]string, len(body))
	for k, raw := range body {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			params[k] = s
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			params[k] = n.String()
			continue
		}
		params[k] = fmt.Sprintf("%s", raw)
	}

	result, err := h.payments.HandleCallback("momo", params)
	if err != nil {
		// MoMo retries on non-2xx; a bad signature or unknown ref will
		// never become valid, so acknowledge and drop it
		h.logger.WithError(err).Warn("MoMo IPN rejected")
		c.Status(http.StatusNoContent)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"txn_ref": result.TxnRef,
		"success": result.Success,
	}).Info("MoMo IPN processed")
	c.Status(http.StatusNoContent)
}

// queryToMap flattens the request query into the params shape the
// providers verify against
func queryToMap(c *gin.Context) map[string]string {
	values := c.Request.URL.Query()
	params := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}
