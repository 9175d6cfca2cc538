package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id uint, price string) Product {
	return Product{
		ID:    id,
		Name:  "Frame",
		Price: decimal.RequireFromString(price),
	}
}

func TestCart_AddMergesLines(t *testing.T) {
	cart := &Cart{SessionID: "s1"}

	cart.Add(product(1, "129.99"))
	cart.Add(product(2, "149.99"))
	cart.Add(product(1, "129.99"))

	require.Len(t, cart.Lines, 2)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	assert.Equal(t, 1, cart.Lines[1].Quantity)
}

func TestCart_NeverHoldsDuplicateProducts(t *testing.T) {
	cart := &Cart{SessionID: "s1"}

	for i := 0; i < 5; i++ {
		cart.Add(product(7, "10.00"))
		cart.Add(product(8, "20.00"))
	}
	require.NoError(t, cart.UpdateQuantity(7, 3))
	cart.Remove(8)
	cart.Add(product(8, "20.00"))

	seen := map[uint]bool{}
	for _, line := range cart.Lines {
		assert.False(t, seen[line.ProductID], "duplicate line for product %d", line.ProductID)
		seen[line.ProductID] = true
	}
}

func TestCart_UpdateQuantity(t *testing.T) {
	cart := &Cart{SessionID: "s1"}
	cart.Add(product(1, "129.99"))

	require.NoError(t, cart.UpdateQuantity(1, 4))
	assert.Equal(t, 4, cart.Lines[0].Quantity)

	// quantities below 1 are rejected and leave the line unchanged
	assert.ErrorIs(t, cart.UpdateQuantity(1, 0), ErrQuantityTooLow)
	assert.ErrorIs(t, cart.UpdateQuantity(1, -3), ErrQuantityTooLow)
	assert.Equal(t, 4, cart.Lines[0].Quantity)

	// updating an absent product is a no-op
	require.NoError(t, cart.UpdateQuantity(99, 2))
	require.Len(t, cart.Lines, 1)
}

func TestCart_RemoveAndClear(t *testing.T) {
	cart := &Cart{SessionID: "s1"}
	cart.Add(product(1, "129.99"))
	cart.Add(product(2, "149.99"))

	cart.Remove(1)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, uint(2), cart.Lines[0].ProductID)

	cart.Remove(42) // absent product is a no-op
	require.Len(t, cart.Lines, 1)

	cart.Clear()
	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.TotalPrice().IsZero())
}

func TestCart_TotalPriceTracksEveryMutation(t *testing.T) {
	cart := &Cart{SessionID: "s1"}

	cart.Add(product(1, "129.99"))
	cart.Add(product(1, "129.99"))
	cart.Add(product(2, "149.99"))
	assert.Equal(t, "409.97", cart.TotalPrice().StringFixed(2))

	require.NoError(t, cart.UpdateQuantity(2, 2))
	assert.Equal(t, "559.96", cart.TotalPrice().StringFixed(2))

	cart.Remove(1)
	assert.Equal(t, "299.98", cart.TotalPrice().StringFixed(2))
}
