package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rebika14/eyee-wear-store/internal/logger"
	"github.com/rebika14/eyee-wear-store/internal/models"
	"github.com/rebika14/eyee-wear-store/internal/realtime"
	"github.com/rebika14/eyee-wear-store/internal/repository"
)

type ProductController struct {
	Products repository.ProductRepository
	View     *realtime.ProductView
	Logger   *zap.Logger
}

func NewProductController(products repository.ProductRepository, view *realtime.ProductView, logger *zap.Logger) *ProductController {
	return &ProductController{
		Products: products,
		View:     view,
		Logger:   logger,
	}
}

type productInput struct {
	Name     string          `json:"name" binding:"required"`
	Category string          `json:"category" binding:"required,oneof=Optical Sunglasses"`
	Gender   string          `json:"gender" binding:"required,oneof=men women unisex"`
	Price    decimal.Decimal `json:"price" binding:"required"`
	Image    string          `json:"image"`
	Colors   []string        `json:"colors"`
}

// List serves the catalog from the live product view, newest first.
func (pc *ProductController) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"products": pc.View.Snapshot()})
}

func (pc *ProductController) Create(c *gin.Context) {
	var input productInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product := &models.Product{
		Name:     input.Name,
		Category: input.Category,
		Gender:   input.Gender,
		Price:    input.Price,
		Image:    input.Image,
		Colors:   input.Colors,
	}
	if err := pc.Products.Create(c.Request.Context(), product); err != nil {
		logger.WithRequestID(c, pc.Logger).Error("Failed to create product", zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to create product", err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (pc *ProductController) Update(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var input productInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := pc.Products.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		logger.WithRequestID(c, pc.Logger).Error("Failed to look up product", zap.Uint("id", id), zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to look up product", err)
		return
	}

	product.Name = input.Name
	product.Category = input.Category
	product.Gender = input.Gender
	product.Price = input.Price
	product.Image = input.Image
	product.Colors = input.Colors

	if err := pc.Products.Update(c.Request.Context(), product); err != nil {
		logger.WithRequestID(c, pc.Logger).Error("Failed to update product", zap.Uint("id", id), zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to update product", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (pc *ProductController) Delete(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := pc.Products.Delete(c.Request.Context(), id); err != nil {
		logger.WithRequestID(c, pc.Logger).Error("Failed to delete product", zap.Uint("id", id), zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to delete product", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}
