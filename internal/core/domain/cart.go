package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ID        int64
	MemberID  int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal // captured when the item was added or last refreshed
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LineTotal is UnitPrice × Quantity.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// Cart is a read model over a member's cart items.
type Cart struct {
	MemberID  int64
	Items     []CartItem
	Total     decimal.Decimal
	ItemCount int
}

// NewCart builds the read model, summing line totals and quantities.
func NewCart(memberID int64, items []CartItem) Cart {
	cart := Cart{MemberID: memberID, Items: items, Total: decimal.Zero}
	for _, item := range items {
		cart.Total = cart.Total.Add(item.LineTotal())
		cart.ItemCount += item.Quantity
	}
	return cart
}

type ValidationErrorType string

const (
	ValidationOutOfStock   ValidationErrorType = "OUT_OF_STOCK"
	ValidationPriceChanged ValidationErrorType = "PRICE_CHANGED"
)

type ValidationError struct {
	Type      ValidationErrorType `json:"type"`
	ProductID int64               `json:"product_id"`
	Details   string              `json:"details"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors"`
}

// HasOutOfStock reports whether any collected error blocks checkout.
func (r ValidationResult) HasOutOfStock() bool {
	for _, e := range r.Errors {
		if e.Type == ValidationOutOfStock {
			return true
		}
	}
	return false
}
