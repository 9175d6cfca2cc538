package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product categories and genders as stored in the catalog.
const (
	CategoryOptical    = "Optical"
	CategorySunglasses = "Sunglasses"

	GenderMen    = "men"
	GenderWomen  = "women"
	GenderUnisex = "unisex"
)

// Order statuses.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// ValidOrderStatus reports whether s is one of the known order statuses.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Product is a sellable catalog item. The storefront treats products as
// read-only; only admin actors mutate them.
type Product struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"not null" json:"name"`
	Category  string          `gorm:"type:varchar(50);not null" json:"category"`
	Gender    string          `gorm:"type:varchar(10);not null" json:"gender"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Image     string          `json:"image"`
	Colors    []string        `gorm:"serializer:json" json:"colors"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// Customer is deduplicated by email, the natural key used at checkout.
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type Order struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CustomerID uint            `gorm:"index;not null" json:"customer_id"`
	Total      decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total"`
	Status     string          `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	Customer   *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items      []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// OrderItem captures the unit price at purchase time. Later catalog price
// changes must not alter historical orders.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"index;not null" json:"order_id"`
	ProductID uint            `gorm:"not null" json:"product_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
}

// Account is a storefront login. Customers are a separate table keyed by
// email; an account's customer row is created at signup.
type Account struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone"`
	Role         string    `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// PaymentReconciliation records a payment that was confirmed by the gateway
// but whose order could not be persisted. These rows are worked off manually.
type PaymentReconciliation struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Pidx        string    `gorm:"uniqueIndex;not null" json:"pidx"`
	AmountPaisa int64     `gorm:"not null" json:"amount_paisa"`
	Email       string    `json:"email"`
	Detail      string    `json:"detail"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// CustomerInfo is the customer snapshot sent to the payment gateway and used
// for order creation after verification.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Complete reports whether all three fields are present.
func (c CustomerInfo) Complete() bool {
	return c.Name != "" && c.Email != "" && c.Phone != ""
}
