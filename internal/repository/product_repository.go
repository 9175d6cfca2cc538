package repository

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rebika14/eyee-wear-store/internal/models"
	"github.com/rebika14/eyee-wear-store/internal/realtime"
)

// ProductRepository defines the interface for catalog data access
type ProductRepository interface {
	List(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) error
}

// GormProductRepository implements ProductRepository using GORM. Mutations
// publish change events on the products feed.
type GormProductRepository struct {
	db     *gorm.DB
	feed   realtime.Feed
	logger *zap.Logger
}

func NewGormProductRepository(db *gorm.DB, feed realtime.Feed, logger *zap.Logger) *GormProductRepository {
	return &GormProductRepository{db: db, feed: feed, logger: logger}
}

// List returns the full catalog, newest first.
func (r *GormProductRepository) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return err
	}
	r.publishRecord(ctx, realtime.EventInsert, product)
	return nil
}

func (r *GormProductRepository) Update(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return err
	}
	r.publishRecord(ctx, realtime.EventUpdate, product)
	return nil
}

func (r *GormProductRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Product{}, id).Error; err != nil {
		return err
	}
	if r.feed != nil {
		if err := r.feed.Publish(ctx, realtime.NewDeleteEvent(realtime.TableProducts, id)); err != nil {
			r.logger.Warn("Failed to publish product delete", zap.Uint("id", id), zap.Error(err))
		}
	}
	return nil
}

// publishRecord is best-effort; a feed failure never fails the write.
func (r *GormProductRepository) publishRecord(ctx context.Context, typ realtime.EventType, product *models.Product) {
	if r.feed == nil {
		return
	}
	ev, err := realtime.NewRecordEvent(realtime.TableProducts, typ, product)
	if err == nil {
		err = r.feed.Publish(ctx, ev)
	}
	if err != nil {
		r.logger.Warn("Failed to publish product change",
			zap.Uint("id", product.ID), zap.Error(err))
	}
}
