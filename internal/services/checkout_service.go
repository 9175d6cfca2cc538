package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rebika14/eyee-wear-store/internal/models"
	"github.com/rebika14/eyee-wear-store/internal/repository"
)

var (
	ErrEmptyCart = errors.New("cart is empty")

	// ErrMissingPidx means the callback arrived without a transaction index;
	// no lookup is attempted.
	ErrMissingPidx = errors.New("missing transaction index in payment callback")

	// ErrOrderRecordingFailed means the gateway confirmed the payment but the
	// order could not be written. The payment is flagged for manual
	// reconciliation.
	ErrOrderRecordingFailed = errors.New("payment succeeded but order recording failed")
)

// ValidationError lists the required shipping fields missing from a checkout
// request.
type ValidationError struct {
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.MissingFields, ", ")
}

// PaymentNotCompletedError is returned when the gateway reports any status
// other than Completed. The cart is left untouched so checkout can be
// retried.
type PaymentNotCompletedError struct {
	Status string
}

func (e *PaymentNotCompletedError) Error() string {
	return fmt.Sprintf("payment not completed, gateway status %q", e.Status)
}

// ShippingDetails is the checkout form. Postal code is the only optional
// field.
type ShippingDetails struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code"`
}

// CheckoutResult is returned on successful initiation; the caller redirects
// the user agent to PaymentURL.
type CheckoutResult struct {
	PaymentURL string          `json:"payment_url"`
	Pidx       string          `json:"pidx"`
	Total      decimal.Decimal `json:"total"`
}

// VerificationResult describes a verified payment and the order created for
// it.
type VerificationResult struct {
	Pidx          string          `json:"pidx"`
	TransactionID string          `json:"transaction_id,omitempty"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Order         *models.Order   `json:"order"`
}

// ReconciliationRecorder flags verified payments that could not be turned
// into orders.
type ReconciliationRecorder interface {
	RecordReconciliation(ctx context.Context, rec *models.PaymentReconciliation) error
}

// CheckoutService coordinates cart, gateway, pending transactions and order
// creation.
type CheckoutService struct {
	carts       repository.CartStore
	pending     repository.PendingStore
	gateway     PaymentGateway
	orders      OrderCreator
	recon       ReconciliationRecorder
	shippingFee decimal.Decimal
	validate    *validator.Validate
	logger      *zap.Logger
}

func NewCheckoutService(
	carts repository.CartStore,
	pending repository.PendingStore,
	gateway PaymentGateway,
	orders OrderCreator,
	recon ReconciliationRecorder,
	shippingFee decimal.Decimal,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:       carts,
		pending:     pending,
		gateway:     gateway,
		orders:      orders,
		recon:       recon,
		shippingFee: shippingFee,
		validate:    validator.New(),
		logger:      logger,
	}
}

// Checkout validates the shipping form, then initiates a gateway payment for
// the cart total plus the flat shipping fee. On success a pending transaction
// is stored under the returned pidx; the cart is not modified, so a failed
// initiation can simply be retried.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID string, details ShippingDetails) (*CheckoutResult, error) {
	if err := s.validateDetails(details); err != nil {
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart == nil || cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	total := cart.TotalPrice().Add(s.shippingFee)
	info := models.CustomerInfo{
		Name:  strings.TrimSpace(details.FirstName + " " + details.LastName),
		Email: details.Email,
		Phone: details.Phone,
	}

	resp, err := s.gateway.InitiatePayment(ctx, total, info, "Eyewear Order")
	if err != nil {
		return nil, err
	}

	txn := &repository.PendingTransaction{
		Pidx:         resp.Pidx,
		Amount:       total,
		CustomerInfo: info,
		SessionID:    sessionID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.pending.Save(ctx, txn); err != nil {
		return nil, fmt.Errorf("store pending transaction: %w", err)
	}

	s.logger.Info("Payment initiated",
		zap.String("pidx", resp.Pidx),
		zap.String("total", total.StringFixed(2)),
		zap.String("email", info.Email),
	)

	return &CheckoutResult{
		PaymentURL: resp.PaymentURL,
		Pidx:       resp.Pidx,
		Total:      total,
	}, nil
}

// VerifyCallback handles the return from the hosted payment page. A single
// lookup is authoritative: Completed clears the pending transaction and the
// cart and records the order with the gateway's amount; anything else leaves
// both in place for a retry.
func (s *CheckoutService) VerifyCallback(ctx context.Context, pidx string) (*VerificationResult, error) {
	if pidx == "" {
		return nil, ErrMissingPidx
	}

	lookup, err := s.gateway.LookupPayment(ctx, pidx)
	if err != nil {
		return nil, fmt.Errorf("verify payment: %w", err)
	}
	if lookup.Status != StatusCompleted {
		return nil, &PaymentNotCompletedError{Status: lookup.Status}
	}

	txn, err := s.pending.Get(ctx, pidx)
	if err != nil {
		return nil, fmt.Errorf("load pending transaction: %w", err)
	}
	if txn == nil {
		s.flagForReconciliation(ctx, pidx, lookup, "", "no pending transaction for verified payment")
		return nil, fmt.Errorf("%w: unknown transaction %s", ErrOrderRecordingFailed, pidx)
	}

	cart, err := s.carts.GetCart(ctx, txn.SessionID)
	if err != nil || cart == nil || cart.IsEmpty() {
		s.flagForReconciliation(ctx, pidx, lookup, txn.CustomerInfo.Email, "cart missing for verified payment")
		return nil, fmt.Errorf("%w: cart unavailable for %s", ErrOrderRecordingFailed, pidx)
	}

	if err := s.pending.Delete(ctx, pidx); err != nil {
		s.logger.Warn("Failed to clear pending transaction", zap.String("pidx", pidx), zap.Error(err))
	}
	if err := s.carts.DeleteCart(ctx, txn.SessionID); err != nil {
		s.logger.Warn("Failed to clear cart", zap.String("session_id", txn.SessionID), zap.Error(err))
	}

	// The gateway's amount is authoritative for financial records; the local
	// snapshot is only a fallback.
	amountPaid := txn.Amount
	if lookup.TotalAmount > 0 {
		amountPaid = PaisaToAmount(lookup.TotalAmount)
	}

	order, err := s.orders.CreateOrder(ctx, CreateOrderInput{
		Customer: txn.CustomerInfo,
		Items:    cart.Lines,
		Total:    amountPaid,
		Paid:     true,
	})
	if err != nil {
		s.flagForReconciliation(ctx, pidx, lookup, txn.CustomerInfo.Email, "order creation failed: "+err.Error())
		return nil, fmt.Errorf("%w: %v", ErrOrderRecordingFailed, err)
	}

	s.logger.Info("Payment verified",
		zap.String("pidx", pidx),
		zap.Uint("order_id", order.ID),
		zap.String("amount", amountPaid.StringFixed(2)),
	)

	return &VerificationResult{
		Pidx:          pidx,
		TransactionID: lookup.TransactionID,
		AmountPaid:    amountPaid,
		Order:         order,
	}, nil
}

func (s *CheckoutService) validateDetails(details ShippingDetails) error {
	err := s.validate.Struct(details)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return &ValidationError{MissingFields: missing}
}

func (s *CheckoutService) flagForReconciliation(ctx context.Context, pidx string, lookup *LookupResponse, email, detail string) {
	rec := &models.PaymentReconciliation{
		Pidx:        pidx,
		AmountPaisa: lookup.TotalAmount,
		Email:       email,
		Detail:      detail,
	}
	if err := s.recon.RecordReconciliation(ctx, rec); err != nil {
		s.logger.Error("Failed to record payment reconciliation",
			zap.String("pidx", pidx), zap.Error(err))
	} else {
		s.logger.Warn("Payment flagged for manual reconciliation",
			zap.String("pidx", pidx), zap.String("detail", detail))
	}
}
