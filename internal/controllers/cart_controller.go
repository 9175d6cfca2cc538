package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rebika14/eyee-wear-store/internal/logger"
	"github.com/rebika14/eyee-wear-store/internal/models"
	"github.com/rebika14/eyee-wear-store/internal/repository"
)

type CartController struct {
	Carts    repository.CartStore
	Products repository.ProductRepository
	Logger   *zap.Logger
}

func NewCartController(carts repository.CartStore, products repository.ProductRepository, logger *zap.Logger) *CartController {
	return &CartController{
		Carts:    carts,
		Products: products,
		Logger:   logger,
	}
}

func (cc *CartController) sessionID(c *gin.Context) (string, bool) {
	sessionID := c.GetHeader("X-Session-ID")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing X-Session-ID header"})
		return "", false
	}
	return sessionID, true
}

func (cc *CartController) loadCart(c *gin.Context, sessionID string) (*models.Cart, bool) {
	cart, err := cc.Carts.GetCart(c.Request.Context(), sessionID)
	if err != nil {
		logger.WithRequestID(c, cc.Logger).Error("Failed to load cart", zap.String("session_id", sessionID), zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to load cart", err)
		return nil, false
	}
	if cart == nil {
		cart = &models.Cart{SessionID: sessionID}
	}
	return cart, true
}

func (cc *CartController) saveAndRespond(c *gin.Context, cart *models.Cart) {
	if err := cc.Carts.SaveCart(c.Request.Context(), cart); err != nil {
		logger.WithRequestID(c, cc.Logger).Error("Failed to save cart", zap.String("session_id", cart.SessionID), zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to save cart", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cart":        cart,
		"total_price": cart.TotalPrice(),
	})
}

// GetCart returns the current cart for a session
func (cc *CartController) GetCart(c *gin.Context) {
	sessionID, ok := cc.sessionID(c)
	if !ok {
		return
	}
	cart, ok := cc.loadCart(c, sessionID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cart":        cart,
		"total_price": cart.TotalPrice(),
	})
}

// AddItem puts one unit of a product into the cart, merging with an existing
// line for the same product.
func (cc *CartController) AddItem(c *gin.Context) {
	sessionID, ok := cc.sessionID(c)
	if !ok {
		return
	}

	var req struct {
		ProductID uint `json:"product_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	product, err := cc.Products.FindByID(c.Request.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		logger.WithRequestID(c, cc.Logger).Error("Failed to look up product", zap.Uint("product_id", req.ProductID), zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to look up product", err)
		return
	}

	cart, ok := cc.loadCart(c, sessionID)
	if !ok {
		return
	}
	cart.Add(*product)
	cc.saveAndRespond(c, cart)
}

// UpdateQuantity sets the quantity of a cart line. Quantities below 1 are
// rejected.
func (cc *CartController) UpdateQuantity(c *gin.Context) {
	sessionID, ok := cc.sessionID(c)
	if !ok {
		return
	}
	productID, ok := parseUintParam(c, "product_id")
	if !ok {
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	cart, ok := cc.loadCart(c, sessionID)
	if !ok {
		return
	}
	if err := cart.UpdateQuantity(productID, req.Quantity); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cc.saveAndRespond(c, cart)
}

// RemoveItem removes a specific line from the cart
func (cc *CartController) RemoveItem(c *gin.Context) {
	sessionID, ok := cc.sessionID(c)
	if !ok {
		return
	}
	productID, ok := parseUintParam(c, "product_id")
	if !ok {
		return
	}

	cart, ok := cc.loadCart(c, sessionID)
	if !ok {
		return
	}
	cart.Remove(productID)
	cc.saveAndRespond(c, cart)
}

// ClearCart removes all lines from the cart
func (cc *CartController) ClearCart(c *gin.Context) {
	sessionID, ok := cc.sessionID(c)
	if !ok {
		return
	}

	if err := cc.Carts.DeleteCart(c.Request.Context(), sessionID); err != nil {
		logger.WithRequestID(c, cc.Logger).Error("Failed to clear cart", zap.String("session_id", sessionID), zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to clear cart", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}
