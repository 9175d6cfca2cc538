package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rebika14/eyee-wear-store/internal/logger"
	"github.com/rebika14/eyee-wear-store/internal/services"
)

type CheckoutController struct {
	Checkout *services.CheckoutService
	Logger   *zap.Logger
}

func NewCheckoutController(checkout *services.CheckoutService, logger *zap.Logger) *CheckoutController {
	return &CheckoutController{
		Checkout: checkout,
		Logger:   logger,
	}
}

// Submit validates the shipping form and initiates a gateway payment. The
// response carries the hosted payment page URL the client must redirect to.
func (cc *CheckoutController) Submit(c *gin.Context) {
	sessionID := c.GetHeader("X-Session-ID")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing X-Session-ID header"})
		return
	}

	var details services.ShippingDetails
	if err := c.ShouldBindJSON(&details); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	result, err := cc.Checkout.Checkout(c.Request.Context(), sessionID, details)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":          "missing required fields",
				"missing_fields": verr.MissingFields,
			})
		case errors.Is(err, services.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
		case errors.Is(err, services.ErrMissingCustomerInfo):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			logger.WithRequestID(c, cc.Logger).Error("Checkout failed", zap.String("session_id", sessionID), zap.Error(err))
			fail(c, http.StatusBadGateway, "payment initiation failed, please try again", err)
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// Callback handles the return from the hosted payment page and verifies the
// payment with a single gateway lookup.
func (cc *CheckoutController) Callback(c *gin.Context) {
	pidx := c.Query("pidx")

	result, err := cc.Checkout.VerifyCallback(c.Request.Context(), pidx)
	if err != nil {
		var notCompleted *services.PaymentNotCompletedError
		switch {
		case errors.Is(err, services.ErrMissingPidx):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment response, missing transaction index"})
		case errors.As(err, &notCompleted):
			c.JSON(http.StatusPaymentRequired, gin.H{
				"error":  "payment not completed",
				"status": notCompleted.Status,
			})
		case errors.Is(err, services.ErrOrderRecordingFailed):
			logger.WithRequestID(c, cc.Logger).Error("Order recording failed after payment", zap.String("pidx", pidx), zap.Error(err))
			fail(c, http.StatusInternalServerError, "payment succeeded but the order could not be recorded; it has been flagged for manual reconciliation", err)
		default:
			logger.WithRequestID(c, cc.Logger).Error("Payment verification failed", zap.String("pidx", pidx), zap.Error(err))
			fail(c, http.StatusBadGateway, "could not verify payment, please contact support", err)
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
