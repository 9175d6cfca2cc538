package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rebika14/eyee-wear-store/internal/models"
)

// StatusCompleted is the only lookup status treated as a successful payment.
const StatusCompleted = "Completed"

var (
	// ErrMissingCustomerInfo is returned before any network call when the
	// customer snapshot is incomplete.
	ErrMissingCustomerInfo = errors.New("customer name, email and phone are required")

	// ErrNoPaymentURL is returned when the gateway accepted the initiate
	// request but sent no redirect URL back.
	ErrNoPaymentURL = errors.New("no payment URL received from gateway")
)

// InitiatePayload is the wire format of the gateway's initiate endpoint.
// Amount is in paisa.
type InitiatePayload struct {
	ReturnURL         string              `json:"return_url"`
	WebsiteURL        string              `json:"website_url"`
	Amount            int64               `json:"amount"`
	PurchaseOrderID   string              `json:"purchase_order_id"`
	PurchaseOrderName string              `json:"purchase_order_name"`
	CustomerInfo      models.CustomerInfo `json:"customer_info"`
}

type InitiateResponse struct {
	Pidx       string `json:"pidx"`
	PaymentURL string `json:"payment_url"`
	Error      string `json:"error,omitempty"`
}

type LookupResponse struct {
	Pidx          string `json:"pidx"`
	Status        string `json:"status"`
	TotalAmount   int64  `json:"total_amount"`
	TransactionID string `json:"transaction_id"`
	Error         string `json:"error,omitempty"`
}

// PaymentGateway is the contract the checkout flow depends on.
type PaymentGateway interface {
	InitiatePayment(ctx context.Context, amount decimal.Decimal, info models.CustomerInfo, orderName string) (*InitiateResponse, error)
	LookupPayment(ctx context.Context, pidx string) (*LookupResponse, error)
}

// AmountToPaisa converts a rupee amount to paisa, rounding half away from
// zero. The conversion must be exact; amounts are decimals, never floats.
func AmountToPaisa(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// PaisaToAmount converts a paisa amount back to rupees.
func PaisaToAmount(paisa int64) decimal.Decimal {
	return decimal.NewFromInt(paisa).Div(decimal.NewFromInt(100))
}

// NewPurchaseOrderID returns a collision-resistant purchase order id.
func NewPurchaseOrderID() string {
	return "eyewear-order-" + uuid.NewString()
}

// BuildInitiatePayload assembles the initiate request for the given rupee
// amount and customer snapshot.
func BuildInitiatePayload(amount decimal.Decimal, info models.CustomerInfo, orderName, returnURL, websiteURL string) InitiatePayload {
	return InitiatePayload{
		ReturnURL:         returnURL,
		WebsiteURL:        websiteURL,
		Amount:            AmountToPaisa(amount),
		PurchaseOrderID:   NewPurchaseOrderID(),
		PurchaseOrderName: orderName,
		CustomerInfo:      info,
	}
}

// KhaltiService calls the Khalti e-payment API. It holds the gateway secret,
// so it is the trusted side of the payment flow; browsers never talk to the
// gateway directly.
type KhaltiService struct {
	BaseURL    string
	SecretKey  string
	ReturnURL  string
	WebsiteURL string

	client *http.Client
}

func NewKhaltiService(baseURL, secretKey, returnURL, websiteURL string) *KhaltiService {
	return &KhaltiService{
		BaseURL:    baseURL,
		SecretKey:  secretKey,
		ReturnURL:  returnURL,
		WebsiteURL: websiteURL,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

// InitiatePayment validates the customer snapshot, then asks the gateway for
// a hosted payment page. No network call is made for incomplete input.
func (s *KhaltiService) InitiatePayment(ctx context.Context, amount decimal.Decimal, info models.CustomerInfo, orderName string) (*InitiateResponse, error) {
	if !info.Complete() {
		return nil, ErrMissingCustomerInfo
	}

	payload := BuildInitiatePayload(amount, info, orderName, s.ReturnURL, s.WebsiteURL)

	var resp InitiateResponse
	if err := s.post(ctx, "/epayment/initiate/", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("gateway rejected initiate: %s", resp.Error)
	}
	if resp.PaymentURL == "" {
		return nil, ErrNoPaymentURL
	}
	return &resp, nil
}

// LookupPayment fetches the authoritative state of a transaction.
func (s *KhaltiService) LookupPayment(ctx context.Context, pidx string) (*LookupResponse, error) {
	payload := map[string]string{"pidx": pidx}

	var resp LookupResponse
	if err := s.post(ctx, "/epayment/lookup/", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("gateway rejected lookup: %s", resp.Error)
	}
	return &resp, nil
}

func (s *KhaltiService) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Key "+s.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway error: status %d: %s", resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unexpected gateway response shape: %w", err)
	}
	return nil
}
