package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rebika14/eyee-wear-store/internal/models"
	"github.com/rebika14/eyee-wear-store/internal/realtime"
)

// CustomerRepository defines the interface for customer data access
type CustomerRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
	EnsureByEmail(ctx context.Context, info models.CustomerInfo) (*models.Customer, error)
	List(ctx context.Context) ([]models.Customer, error)
}

// GormCustomerRepository implements CustomerRepository using GORM.
type GormCustomerRepository struct {
	db     *gorm.DB
	feed   realtime.Feed
	logger *zap.Logger
}

func NewGormCustomerRepository(db *gorm.DB, feed realtime.Feed, logger *zap.Logger) *GormCustomerRepository {
	return &GormCustomerRepository{db: db, feed: feed, logger: logger}
}

func (r *GormCustomerRepository) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// EnsureByEmail looks up the customer by email and creates it if absent.
// A concurrent checkout may insert the same email between the lookup and the
// insert; the unique-key violation is treated as "already exists, re-fetch".
func (r *GormCustomerRepository) EnsureByEmail(ctx context.Context, info models.CustomerInfo) (*models.Customer, error) {
	customer, err := r.FindByEmail(ctx, info.Email)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}

	created := &models.Customer{
		Name:  info.Name,
		Email: info.Email,
		Phone: info.Phone,
	}
	err = r.db.WithContext(ctx).Create(created).Error
	if err == nil {
		r.publishInsert(ctx, created)
		return created, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return r.FindByEmail(ctx, info.Email)
	}
	return nil, fmt.Errorf("create customer: %w", err)
}

// List returns all customers, newest first.
func (r *GormCustomerRepository) List(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *GormCustomerRepository) publishInsert(ctx context.Context, customer *models.Customer) {
	if r.feed == nil {
		return
	}
	ev, err := realtime.NewRecordEvent(realtime.TableCustomers, realtime.EventInsert, customer)
	if err == nil {
		err = r.feed.Publish(ctx, ev)
	}
	if err != nil {
		r.logger.Warn("Failed to publish customer change",
			zap.Uint("id", customer.ID), zap.Error(err))
	}
}
