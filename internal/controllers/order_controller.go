package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rebika14/eyee-wear-store/internal/logger"
	"github.com/rebika14/eyee-wear-store/internal/realtime"
	"github.com/rebika14/eyee-wear-store/internal/services"
)

type OrderController struct {
	Orders    *services.OrderService
	OrderView *realtime.OrderView
	Customers *realtime.CustomerView
	Logger    *zap.Logger
}

func NewOrderController(orders *services.OrderService, orderView *realtime.OrderView, customers *realtime.CustomerView, logger *zap.Logger) *OrderController {
	return &OrderController{
		Orders:    orders,
		OrderView: orderView,
		Customers: customers,
		Logger:    logger,
	}
}

// ListOrders serves the joined order+customer projection from the live view.
func (oc *OrderController) ListOrders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"orders": oc.OrderView.Snapshot()})
}

// ListCustomers serves the customer list from the live view.
func (oc *OrderController) ListCustomers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"customers": oc.Customers.Snapshot()})
}

// UpdateStatus moves an order to a new status.
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	order, err := oc.Orders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		default:
			logger.WithRequestID(c, oc.Logger).Error("Failed to update order status", zap.Uint("id", id), zap.Error(err))
			fail(c, http.StatusInternalServerError, "failed to update order", err)
		}
		return
	}
	c.JSON(http.StatusOK, order)
}
