package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// MaxQuantity is the largest quantity a cart line can hold. It matches the
// INTEGER column of the remote item store.
const MaxQuantity = math.MaxInt32

// ClampQuantity limits q to [1, MaxQuantity].
func ClampQuantity(q int) int {
	return min(max(q, 1), MaxQuantity)
}

// AddQuantity adds two non-negative quantities, saturating at MaxQuantity.
func AddQuantity(a, b int) int {
	a, b = min(max(a, 0), MaxQuantity), min(max(b, 0), MaxQuantity)
	if b > MaxQuantity-a {
		return MaxQuantity
	}
	return a + b
}

// CartLine is one product-quantity entry in a cart. UnitPrice is captured when
// the product is added and is never refreshed from the catalog afterwards.
type CartLine struct {
	ProductID   string          `json:"productId"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	DisplayName string          `json:"displayName,omitempty"`
	ImageRef    string          `json:"imageRef,omitempty"`
}

// Total is quantity x unit price.
func (l CartLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Item is the row shape kept by the remote per-user item store.
type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}
