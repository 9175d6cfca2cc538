package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rebika14/eyee-wear-store/internal/models"
)

type fakeOrderRepo struct {
	created       *models.Order
	createErr     error
	orders        []models.Order
	statusUpdated string
	statusID      uint
}

func (f *fakeOrderRepo) CreateWithItems(_ context.Context, order *models.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	order.ID = 42
	f.created = order
	return nil
}

func (f *fakeOrderRepo) ListWithCustomers(_ context.Context) ([]models.Order, error) {
	return f.orders, nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, id uint) (*models.Order, error) {
	for i := range f.orders {
		if f.orders[i].ID == id {
			return &f.orders[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id uint, status string) (*models.Order, error) {
	order, err := f.FindByID(context.Background(), id)
	if err != nil {
		return nil, err
	}
	order.Status = status
	f.statusID = id
	f.statusUpdated = status
	return order, nil
}

func (f *fakeOrderRepo) RecordReconciliation(_ context.Context, _ *models.PaymentReconciliation) error {
	return nil
}

type fakeCustomerRepo struct {
	customers map[string]*models.Customer
	nextID    uint
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: map[string]*models.Customer{}, nextID: 1}
}

func (f *fakeCustomerRepo) FindByEmail(_ context.Context, email string) (*models.Customer, error) {
	if c, ok := f.customers[email]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCustomerRepo) EnsureByEmail(_ context.Context, info models.CustomerInfo) (*models.Customer, error) {
	if c, ok := f.customers[info.Email]; ok {
		return c, nil
	}
	c := &models.Customer{ID: f.nextID, Name: info.Name, Email: info.Email, Phone: info.Phone}
	f.nextID++
	f.customers[info.Email] = c
	return c, nil
}

func (f *fakeCustomerRepo) List(_ context.Context) ([]models.Customer, error) {
	out := make([]models.Customer, 0, len(f.customers))
	for _, c := range f.customers {
		out = append(out, *c)
	}
	return out, nil
}

type fakePublisher struct {
	keys     []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, key string, value []byte) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.payloads = append(f.payloads, value)
	return nil
}

func orderInput() CreateOrderInput {
	return CreateOrderInput{
		Customer: testCustomer,
		Items: []models.CartLine{
			{ProductID: 1, Name: "Aviator", Price: decimal.RequireFromString("129.99"), Quantity: 2},
			{ProductID: 2, Name: "Wayfarer", Price: decimal.RequireFromString("149.99"), Quantity: 1},
		},
		Total: decimal.RequireFromString("509.97"),
		Paid:  true,
	}
}

func TestCreateOrder_RejectsEmptyInput(t *testing.T) {
	svc := NewOrderService(&fakeOrderRepo{}, newFakeCustomerRepo(), nil, zap.NewNop())

	input := orderInput()
	input.Items = nil
	_, err := svc.CreateOrder(context.Background(), input)
	assert.ErrorIs(t, err, ErrNoItems)

	input = orderInput()
	input.Customer.Email = ""
	_, err = svc.CreateOrder(context.Background(), input)
	assert.ErrorIs(t, err, ErrNoCustomer)
}

func TestCreateOrder_PaidOrderIsCompleted(t *testing.T) {
	repo := &fakeOrderRepo{}
	customers := newFakeCustomerRepo()
	svc := NewOrderService(repo, customers, nil, zap.NewNop())

	order, err := svc.CreateOrder(context.Background(), orderInput())
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	assert.Equal(t, uint(42), order.ID)
	require.NotNil(t, order.Customer)
	assert.Equal(t, testCustomer.Email, order.Customer.Email)

	// Item prices are the submission-time snapshot.
	require.Len(t, repo.created.Items, 2)
	assert.Equal(t, "129.99", repo.created.Items[0].Price.StringFixed(2))
	assert.Equal(t, 2, repo.created.Items[0].Quantity)
	assert.Equal(t, "149.99", repo.created.Items[1].Price.StringFixed(2))
}

func TestCreateOrder_UnpaidOrderIsPending(t *testing.T) {
	svc := NewOrderService(&fakeOrderRepo{}, newFakeCustomerRepo(), nil, zap.NewNop())

	input := orderInput()
	input.Paid = false
	order, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
}

func TestCreateOrder_ReusesExistingCustomer(t *testing.T) {
	repo := &fakeOrderRepo{}
	customers := newFakeCustomerRepo()
	svc := NewOrderService(repo, customers, nil, zap.NewNop())

	first, err := svc.CreateOrder(context.Background(), orderInput())
	require.NoError(t, err)
	second, err := svc.CreateOrder(context.Background(), orderInput())
	require.NoError(t, err)

	assert.Equal(t, first.CustomerID, second.CustomerID)
	assert.Len(t, customers.customers, 1)
}

func TestCreateOrder_PublishesEvents(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewOrderService(&fakeOrderRepo{}, newFakeCustomerRepo(), pub, zap.NewNop())

	// A paid order yields both the creation and the payment event.
	_, err := svc.CreateOrder(context.Background(), orderInput())
	require.NoError(t, err)

	require.Len(t, pub.payloads, 2)
	assert.Equal(t, "42", pub.keys[0])

	var event OrderEvent
	require.NoError(t, json.Unmarshal(pub.payloads[0], &event))
	assert.Equal(t, "order.created", event.Type)
	assert.Equal(t, uint(42), event.OrderID)
	assert.Equal(t, testCustomer.Email, event.Email)
	assert.Equal(t, "509.97", event.Total)

	require.NoError(t, json.Unmarshal(pub.payloads[1], &event))
	assert.Equal(t, "payment.completed", event.Type)

	// An unpaid order yields only the creation event.
	pub.payloads = nil
	input := orderInput()
	input.Paid = false
	_, err = svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, pub.payloads, 1)
	require.NoError(t, json.Unmarshal(pub.payloads[0], &event))
	assert.Equal(t, "order.created", event.Type)
}

func TestCreateOrder_PublishFailureDoesNotFailOrder(t *testing.T) {
	pub := &fakePublisher{err: assert.AnError}
	svc := NewOrderService(&fakeOrderRepo{}, newFakeCustomerRepo(), pub, zap.NewNop())

	order, err := svc.CreateOrder(context.Background(), orderInput())
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
}

func TestUpdateStatus(t *testing.T) {
	repo := &fakeOrderRepo{orders: []models.Order{{ID: 7, Status: models.OrderStatusPending}}}
	pub := &fakePublisher{}
	svc := NewOrderService(repo, newFakeCustomerRepo(), pub, zap.NewNop())

	order, err := svc.UpdateStatus(context.Background(), 7, models.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.Equal(t, uint(7), repo.statusID)

	var event OrderEvent
	require.Len(t, pub.payloads, 1)
	require.NoError(t, json.Unmarshal(pub.payloads[0], &event))
	assert.Equal(t, "order.status_updated", event.Type)

	_, err = svc.UpdateStatus(context.Background(), 7, "shipped-ish")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.UpdateStatus(context.Background(), 99, models.OrderStatusCancelled)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
