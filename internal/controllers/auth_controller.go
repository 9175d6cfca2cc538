package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rebika14/eyee-wear-store/internal/logger"
	"github.com/rebika14/eyee-wear-store/internal/services"
)

type AuthController struct {
	Auth   *services.AuthService
	Logger *zap.Logger
}

func NewAuthController(auth *services.AuthService, logger *zap.Logger) *AuthController {
	return &AuthController{
		Auth:   auth,
		Logger: logger,
	}
}

func (ac *AuthController) Signup(c *gin.Context) {
	var input services.SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, token, err := ac.Auth.Signup(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		logger.WithRequestID(c, ac.Logger).Error("Signup failed", zap.String("email", input.Email), zap.Error(err))
		fail(c, http.StatusInternalServerError, "signup failed", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"account": account, "token": token})
}

func (ac *AuthController) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, token, err := ac.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		logger.WithRequestID(c, ac.Logger).Error("Login failed", zap.String("email", req.Email), zap.Error(err))
		fail(c, http.StatusInternalServerError, "login failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account, "token": token})
}
