package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuwa/kasuwa-backend/internal/app/service"
	"github.com/kasuwa/kasuwa-backend/internal/middleware"
)

type PaymentController struct {
	paymentService service.PaymentService
}

func NewPaymentController(paymentService service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

type InitiatePaymentRequest struct {
	OrderID     uint   `json:"order_id" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
}

// InitiatePayment dispatches a mobile money request-to-pay for an order
// POST /api/v1/payments
func (ctrl *PaymentController) InitiatePayment(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	resp, err := ctrl.paymentService.InitiatePayment(c.Request.Context(), userID, req.OrderID, req.PhoneNumber)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Order not found",
			})
		case errors.Is(err, service.ErrPaymentAlreadyProcessed):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Order is already paid",
			})
		case errors.Is(err, service.ErrInvalidPaymentAmount):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Order amount is invalid",
			})
		default:
			log.Error("Failed to initiate payment", err, map[string]interface{}{
				"user_id":  userID,
				"order_id": req.OrderID,
			})
			c.JSON(http.StatusBadGateway, gin.H{
				"error": "Failed to reach payment provider",
			})
		}
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

// GetPaymentStatus polls the collection status for a payment reference
// GET /api/v1/payments/:reference/status
func (ctrl *PaymentController) GetPaymentStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	referenceID := c.Param("reference")
	if referenceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing payment reference",
		})
		return
	}

	resp, err := ctrl.paymentService.CheckPaymentStatus(c.Request.Context(), userID, referenceID)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Payment not found",
			})
			return
		}
		log.Error("Failed to check payment status", err, map[string]interface{}{
			"user_id":      userID,
			"reference_id": referenceID,
		})
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to reach payment provider",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}
