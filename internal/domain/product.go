package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Price       decimal.Decimal        `json:"price"`
	Stock       int                    `json:"stock"`
	Image       string                 `json:"image,omitempty"`
	Specs       map[string]interface{} `json:"specs,omitempty"`
	Category    string                 `json:"category,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// CartLine snapshots the product for a cart entry.
func (p Product) CartLine(quantity int) CartLine {
	return CartLine{
		ProductID:   p.ID,
		Quantity:    quantity,
		UnitPrice:   p.Price,
		DisplayName: p.Name,
		ImageRef:    p.Image,
	}
}
