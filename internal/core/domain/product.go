package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog row the order core reads prices from and moves stock on.
// Catalog lifecycle (names, images, activation) is owned elsewhere.
type Product struct {
	ID            int64
	Name          string
	Price         decimal.Decimal
	SalePrice     decimal.NullDecimal
	StockQuantity int
	Version       int // bumped on every stock mutation
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EffectivePrice returns the sale price when one is set, otherwise the regular price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}
