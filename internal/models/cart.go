package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrQuantityTooLow is returned when a quantity update asks for less than one
// unit. The stored quantity is left unchanged.
var ErrQuantityTooLow = errors.New("quantity must be at least 1")

// CartLine is one product in the cart. Price is copied from the catalog when
// the line is added so the cart total is stable against catalog edits.
type CartLine struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Cart holds the lines for one storefront session. It keeps at most one line
// per product id.
type Cart struct {
	SessionID string     `json:"session_id"`
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Add appends a line with quantity 1, or increments the quantity of the
// existing line for the same product.
func (c *Cart) Add(p Product) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == p.ID {
			c.Lines[i].Quantity++
			return
		}
	}
	c.Lines = append(c.Lines, CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  1,
	})
}

// UpdateQuantity sets the quantity of the line for productID. Quantities
// below 1 are rejected. Updating a product that is not in the cart is a no-op.
func (c *Cart) UpdateQuantity(productID uint, quantity int) error {
	if quantity < 1 {
		return ErrQuantityTooLow
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity = quantity
			return nil
		}
	}
	return nil
}

// Remove deletes the line for productID if present.
func (c *Cart) Remove(productID uint) {
	kept := c.Lines[:0]
	for _, line := range c.Lines {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	c.Lines = kept
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = nil
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// TotalPrice is recomputed on every call from the current lines.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}
