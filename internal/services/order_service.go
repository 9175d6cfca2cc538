package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rebika14/eyee-wear-store/internal/models"
	"github.com/rebika14/eyee-wear-store/internal/repository"
)

var (
	ErrNoItems       = errors.New("at least one item is required")
	ErrNoCustomer    = errors.New("customer email is required")
	ErrInvalidStatus = errors.New("invalid order status")
)

// EventPublisher fans order events out to the message broker. Publishing is
// best-effort everywhere it is used.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// OrderEvent is the broker payload for order lifecycle changes.
type OrderEvent struct {
	Type      string    `json:"type"`
	OrderID   uint      `json:"order_id"`
	Email     string    `json:"email"`
	Total     string    `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// CreateOrderInput carries everything captured at submission time. Item
// prices are the cart's snapshot, never a live catalog read.
type CreateOrderInput struct {
	Customer models.CustomerInfo
	Items    []models.CartLine
	Total    decimal.Decimal
	Paid     bool
}

// OrderCreator is the slice of OrderService the checkout flow depends on.
type OrderCreator interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
}

type OrderService struct {
	orders    repository.OrderRepository
	customers repository.CustomerRepository
	events    EventPublisher
	logger    *zap.Logger
}

func NewOrderService(orders repository.OrderRepository, customers repository.CustomerRepository, events EventPublisher, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders:    orders,
		customers: customers,
		events:    events,
		logger:    logger,
	}
}

// CreateOrder resolves the customer by email (creating it on first sight),
// then writes the order header and items in one transaction. A paid order is
// created as completed, otherwise pending.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, ErrNoItems
	}
	if input.Customer.Email == "" {
		return nil, ErrNoCustomer
	}

	customer, err := s.customers.EnsureByEmail(ctx, input.Customer)
	if err != nil {
		return nil, fmt.Errorf("resolve customer: %w", err)
	}

	status := models.OrderStatusPending
	if input.Paid {
		status = models.OrderStatusCompleted
	}

	items := make([]models.OrderItem, 0, len(input.Items))
	for _, line := range input.Items {
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
		})
	}

	order := &models.Order{
		CustomerID: customer.ID,
		Total:      input.Total,
		Status:     status,
		Items:      items,
	}
	if err := s.orders.CreateWithItems(ctx, order); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}
	order.Customer = customer

	s.publishEvent(ctx, "order.created", order)
	if input.Paid {
		s.publishEvent(ctx, "payment.completed", order)
	}

	s.logger.Info("Order created",
		zap.Uint("order_id", order.ID),
		zap.Uint("customer_id", customer.ID),
		zap.String("status", status),
		zap.String("total", order.Total.StringFixed(2)),
	)
	return order, nil
}

// ListOrders returns the joined order+customer projection for the admin view.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.orders.ListWithCustomers(ctx)
}

// UpdateStatus moves an order to one of the known statuses.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	order, err := s.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, "order.status_updated", order)
	return order, nil
}

func (s *OrderService) publishEvent(ctx context.Context, eventType string, order *models.Order) {
	if s.events == nil {
		return
	}
	email := ""
	if order.Customer != nil {
		email = order.Customer.Email
	}
	event := OrderEvent{
		Type:      eventType,
		OrderID:   order.ID,
		Email:     email,
		Total:     order.Total.StringFixed(2),
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err == nil {
		err = s.events.Publish(ctx, strconv.FormatUint(uint64(order.ID), 10), data)
	}
	if err != nil {
		s.logger.Warn("Failed to publish order event",
			zap.String("type", eventType), zap.Uint("order_id", order.ID), zap.Error(err))
	}
}
