package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rebika14/eyee-wear-store/internal/models"
	"github.com/rebika14/eyee-wear-store/internal/repository"
)

type fakeCartStore struct {
	carts   map[string]*models.Cart
	deleted []string
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: map[string]*models.Cart{}}
}

func (f *fakeCartStore) GetCart(_ context.Context, sessionID string) (*models.Cart, error) {
	return f.carts[sessionID], nil
}

func (f *fakeCartStore) SaveCart(_ context.Context, cart *models.Cart) error {
	f.carts[cart.SessionID] = cart
	return nil
}

func (f *fakeCartStore) DeleteCart(_ context.Context, sessionID string) error {
	delete(f.carts, sessionID)
	f.deleted = append(f.deleted, sessionID)
	return nil
}

type fakePendingStore struct {
	txns map[string]*repository.PendingTransaction
}

func newFakePendingStore() *fakePendingStore {
	return &fakePendingStore{txns: map[string]*repository.PendingTransaction{}}
}

func (f *fakePendingStore) Get(_ context.Context, pidx string) (*repository.PendingTransaction, error) {
	return f.txns[pidx], nil
}

func (f *fakePendingStore) Save(_ context.Context, txn *repository.PendingTransaction) error {
	f.txns[txn.Pidx] = txn
	return nil
}

func (f *fakePendingStore) Delete(_ context.Context, pidx string) error {
	delete(f.txns, pidx)
	return nil
}

type fakeGateway struct {
	initiateResp   *InitiateResponse
	initiateErr    error
	initiateCalls  int
	initiateAmount decimal.Decimal

	lookupResp  *LookupResponse
	lookupErr   error
	lookupCalls int
}

func (f *fakeGateway) InitiatePayment(_ context.Context, amount decimal.Decimal, info models.CustomerInfo, _ string) (*InitiateResponse, error) {
	f.initiateCalls++
	f.initiateAmount = amount
	if !info.Complete() {
		return nil, ErrMissingCustomerInfo
	}
	return f.initiateResp, f.initiateErr
}

func (f *fakeGateway) LookupPayment(_ context.Context, pidx string) (*LookupResponse, error) {
	f.lookupCalls++
	return f.lookupResp, f.lookupErr
}

type fakeOrderCreator struct {
	input *CreateOrderInput
	order *models.Order
	err   error
}

func (f *fakeOrderCreator) CreateOrder(_ context.Context, input CreateOrderInput) (*models.Order, error) {
	f.input = &input
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

type fakeRecon struct {
	recs []*models.PaymentReconciliation
}

func (f *fakeRecon) RecordReconciliation(_ context.Context, rec *models.PaymentReconciliation) error {
	f.recs = append(f.recs, rec)
	return nil
}

func validDetails() ShippingDetails {
	return ShippingDetails{
		FirstName: "Asha",
		LastName:  "Shrestha",
		Email:     "asha@example.com",
		Phone:     "9800000000",
		Address:   "Thamel Marg",
		City:      "Kathmandu",
	}
}

func seededCart(sessionID string) *models.Cart {
	cart := &models.Cart{SessionID: sessionID}
	cart.Add(models.Product{ID: 1, Name: "Aviator", Price: decimal.RequireFromString("129.99")})
	cart.Add(models.Product{ID: 1, Name: "Aviator", Price: decimal.RequireFromString("129.99")})
	cart.Add(models.Product{ID: 2, Name: "Wayfarer", Price: decimal.RequireFromString("149.99")})
	return cart
}

type checkoutFixture struct {
	svc     *CheckoutService
	carts   *fakeCartStore
	pending *fakePendingStore
	gateway *fakeGateway
	orders  *fakeOrderCreator
	recon   *fakeRecon
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		carts:   newFakeCartStore(),
		pending: newFakePendingStore(),
		gateway: &fakeGateway{
			initiateResp: &InitiateResponse{Pidx: "px-1", PaymentURL: "https://pay.test/px-1"},
		},
		orders: &fakeOrderCreator{order: &models.Order{ID: 55, Status: models.OrderStatusCompleted}},
		recon:  &fakeRecon{},
	}
	f.svc = NewCheckoutService(
		f.carts, f.pending, f.gateway, f.orders, f.recon,
		decimal.RequireFromString("100.00"), zap.NewNop(),
	)
	return f
}

func TestCheckout_ReportsMissingFields(t *testing.T) {
	f := newCheckoutFixture()
	f.carts.carts["s1"] = seededCart("s1")

	details := validDetails()
	details.FirstName = ""
	details.Email = ""

	_, err := f.svc.Checkout(context.Background(), "s1", details)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{"FirstName", "Email"}, verr.MissingFields)
	assert.Zero(t, f.gateway.initiateCalls, "validation failure must not reach the gateway")
}

func TestCheckout_PostalCodeIsOptional(t *testing.T) {
	f := newCheckoutFixture()
	f.carts.carts["s1"] = seededCart("s1")

	details := validDetails()
	details.PostalCode = ""

	_, err := f.svc.Checkout(context.Background(), "s1", details)
	require.NoError(t, err)
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.svc.Checkout(context.Background(), "s1", validDetails())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, f.gateway.initiateCalls)
}

func TestCheckout_InitiatesWithShippingSurcharge(t *testing.T) {
	f := newCheckoutFixture()
	f.carts.carts["s1"] = seededCart("s1")

	result, err := f.svc.Checkout(context.Background(), "s1", validDetails())
	require.NoError(t, err)

	// 129.99*2 + 149.99 + 100.00 shipping
	assert.Equal(t, "509.97", f.gateway.initiateAmount.StringFixed(2))
	assert.Equal(t, int64(50997), AmountToPaisa(f.gateway.initiateAmount))
	assert.Equal(t, "https://pay.test/px-1", result.PaymentURL)
	assert.Equal(t, "509.97", result.Total.StringFixed(2))

	txn := f.pending.txns["px-1"]
	require.NotNil(t, txn, "pending transaction must be stored under the pidx")
	assert.Equal(t, "509.97", txn.Amount.StringFixed(2))
	assert.Equal(t, "s1", txn.SessionID)
	assert.Equal(t, "Asha Shrestha", txn.CustomerInfo.Name)
}

func TestCheckout_GatewayFailureLeavesCartAndPendingUntouched(t *testing.T) {
	f := newCheckoutFixture()
	f.carts.carts["s1"] = seededCart("s1")
	f.gateway.initiateResp = nil
	f.gateway.initiateErr = errors.New("gateway down")

	_, err := f.svc.Checkout(context.Background(), "s1", validDetails())
	require.Error(t, err)

	assert.Empty(t, f.pending.txns)
	assert.NotNil(t, f.carts.carts["s1"], "cart must survive a failed initiation")
	assert.Empty(t, f.carts.deleted)
}

func TestVerifyCallback_MissingPidx(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.svc.VerifyCallback(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingPidx)
	assert.Zero(t, f.gateway.lookupCalls, "missing pidx must not reach the gateway")
}

func TestVerifyCallback_CompletedCreatesOrder(t *testing.T) {
	f := newCheckoutFixture()
	f.carts.carts["s1"] = seededCart("s1")
	f.pending.txns["px-1"] = &repository.PendingTransaction{
		Pidx:         "px-1",
		Amount:       decimal.RequireFromString("509.97"),
		CustomerInfo: testCustomer,
		SessionID:    "s1",
	}
	// The gateway reports a different figure; it wins over the local cache.
	f.gateway.lookupResp = &LookupResponse{
		Status:        StatusCompleted,
		TotalAmount:   50997,
		TransactionID: "txn-7",
	}

	result, err := f.svc.VerifyCallback(context.Background(), "px-1")
	require.NoError(t, err)

	assert.Equal(t, "509.97", result.AmountPaid.StringFixed(2))
	assert.Equal(t, "txn-7", result.TransactionID)
	assert.Equal(t, uint(55), result.Order.ID)

	require.NotNil(t, f.orders.input)
	assert.True(t, f.orders.input.Paid)
	assert.Equal(t, "509.97", f.orders.input.Total.StringFixed(2))
	assert.Len(t, f.orders.input.Items, 2)
	assert.Equal(t, testCustomer, f.orders.input.Customer)

	assert.Nil(t, f.pending.txns["px-1"], "pending transaction must be cleared")
	assert.Nil(t, f.carts.carts["s1"], "cart must be cleared")
}

func TestVerifyCallback_NonCompletedKeepsCart(t *testing.T) {
	for _, status := range []string{"Pending", "Expired", "User canceled", "Refunded"} {
		t.Run(status, func(t *testing.T) {
			f := newCheckoutFixture()
			f.carts.carts["s1"] = seededCart("s1")
			f.pending.txns["px-1"] = &repository.PendingTransaction{
				Pidx: "px-1", SessionID: "s1", CustomerInfo: testCustomer,
			}
			f.gateway.lookupResp = &LookupResponse{Status: status}

			_, err := f.svc.VerifyCallback(context.Background(), "px-1")

			var notCompleted *PaymentNotCompletedError
			require.ErrorAs(t, err, &notCompleted)
			assert.Equal(t, status, notCompleted.Status)

			assert.Nil(t, f.orders.input, "no order may be created")
			assert.NotNil(t, f.carts.carts["s1"], "cart must be retained for retry")
			assert.NotNil(t, f.pending.txns["px-1"])
		})
	}
}

func TestVerifyCallback_LookupErrorKeepsCart(t *testing.T) {
	f := newCheckoutFixture()
	f.carts.carts["s1"] = seededCart("s1")
	f.gateway.lookupErr = errors.New("gateway timeout")

	_, err := f.svc.VerifyCallback(context.Background(), "px-1")
	require.Error(t, err)
	assert.Nil(t, f.orders.input)
	assert.NotNil(t, f.carts.carts["s1"])
}

func TestVerifyCallback_OrderFailureFlagsReconciliation(t *testing.T) {
	f := newCheckoutFixture()
	f.carts.carts["s1"] = seededCart("s1")
	f.pending.txns["px-1"] = &repository.PendingTransaction{
		Pidx: "px-1", SessionID: "s1", CustomerInfo: testCustomer,
	}
	f.gateway.lookupResp = &LookupResponse{Status: StatusCompleted, TotalAmount: 50997}
	f.orders.err = errors.New("db down")

	_, err := f.svc.VerifyCallback(context.Background(), "px-1")
	assert.ErrorIs(t, err, ErrOrderRecordingFailed)

	require.Len(t, f.recon.recs, 1)
	assert.Equal(t, "px-1", f.recon.recs[0].Pidx)
	assert.Equal(t, int64(50997), f.recon.recs[0].AmountPaisa)
	assert.Equal(t, testCustomer.Email, f.recon.recs[0].Email)
}

func TestVerifyCallback_UnknownTransactionFlagsReconciliation(t *testing.T) {
	f := newCheckoutFixture()
	f.gateway.lookupResp = &LookupResponse{Status: StatusCompleted, TotalAmount: 1999}

	_, err := f.svc.VerifyCallback(context.Background(), "px-gone")
	assert.ErrorIs(t, err, ErrOrderRecordingFailed)
	require.Len(t, f.recon.recs, 1)
	assert.Equal(t, "px-gone", f.recon.recs[0].Pidx)
}
