package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rebika14/eyee-wear-store/internal/models"
	"github.com/rebika14/eyee-wear-store/internal/realtime"
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	CreateWithItems(ctx context.Context, order *models.Order) error
	ListWithCustomers(ctx context.Context) ([]models.Order, error)
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uint, status string) (*models.Order, error)
	RecordReconciliation(ctx context.Context, rec *models.PaymentReconciliation) error
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db     *gorm.DB
	feed   realtime.Feed
	logger *zap.Logger
}

func NewGormOrderRepository(db *gorm.DB, feed realtime.Feed, logger *zap.Logger) *GormOrderRepository {
	return &GormOrderRepository{db: db, feed: feed, logger: logger}
}

// CreateWithItems inserts the order header and all its items in one
// transaction, so a failure cannot leave an itemless order behind.
func (r *GormOrderRepository) CreateWithItems(ctx context.Context, order *models.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if err != nil {
		return err
	}
	r.publishRecord(ctx, realtime.EventInsert, order)
	return nil
}

// ListWithCustomers returns the joined order+customer projection, newest
// first.
func (r *GormOrderRepository) ListWithCustomers(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus sets the order's status and returns the updated row.
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return nil, err
	}
	order, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.publishRecord(ctx, realtime.EventUpdate, order)
	return order, nil
}

// RecordReconciliation flags a verified payment whose order could not be
// written. The pidx unique index makes repeated flagging idempotent: a
// retried callback hitting the same pidx is already flagged, not a failure.
func (r *GormOrderRepository) RecordReconciliation(ctx context.Context, rec *models.PaymentReconciliation) error {
	err := r.db.WithContext(ctx).Create(rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

func (r *GormOrderRepository) publishRecord(ctx context.Context, typ realtime.EventType, order *models.Order) {
	if r.feed == nil {
		return
	}
	ev, err := realtime.NewRecordEvent(realtime.TableOrders, typ, order)
	if err == nil {
		err = r.feed.Publish(ctx, ev)
	}
	if err != nil {
		r.logger.Warn("Failed to publish order change",
			zap.Uint("id", order.ID), zap.Error(err))
	}
}
