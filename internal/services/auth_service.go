package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/rebika14/eyee-wear-store/internal/auth"
	"github.com/rebika14/eyee-wear-store/internal/models"
	"github.com/rebika14/eyee-wear-store/internal/repository"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type SignupInput struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Phone     string `json:"phone"`
}

type AuthService struct {
	accounts  repository.AccountRepository
	customers repository.CustomerRepository
	tokens    *auth.TokenService
	logger    *zap.Logger
}

func NewAuthService(accounts repository.AccountRepository, customers repository.CustomerRepository, tokens *auth.TokenService, logger *zap.Logger) *AuthService {
	return &AuthService{
		accounts:  accounts,
		customers: customers,
		tokens:    tokens,
		logger:    logger,
	}
}

// Signup registers an account and creates its customer row right away, so
// checkout and the admin views see the customer without any timing
// heuristics.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*models.Account, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	account := &models.Account{
		Email:        input.Email,
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		Role:         "customer",
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("create account: %w", err)
	}

	info := models.CustomerInfo{
		Name:  strings.TrimSpace(input.FirstName + " " + input.LastName),
		Email: input.Email,
		Phone: input.Phone,
	}
	if _, err := s.customers.EnsureByEmail(ctx, info); err != nil {
		// The account exists; the customer row will be created at first
		// checkout instead.
		s.logger.Warn("Failed to create customer record at signup",
			zap.String("email", input.Email), zap.Error(err))
	}

	token, err := s.tokens.GenerateToken(account.ID, account.Email, account.Role)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return account, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Account, string, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("lookup account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(account.ID, account.Email, account.Role)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return account, token, nil
}
