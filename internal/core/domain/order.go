package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              int64
	MemberID        int64
	OrderNumber     string
	Status          OrderStatus
	TotalAmount     decimal.Decimal
	ShippingAmount  decimal.Decimal
	TaxAmount       decimal.Decimal
	DiscountAmount  decimal.Decimal
	ShippingAddress string
	Notes           string
	Deleted         bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem is immutable once written. Prices are copied from the cart at checkout.
type OrderItem struct {
	ID         int64
	OrderID    int64
	ProductID  int64
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
}

// NewOrderItem freezes a cart line into an order line.
func NewOrderItem(orderID int64, item CartItem, now time.Time) OrderItem {
	return OrderItem{
		OrderID:    orderID,
		ProductID:  item.ProductID,
		Quantity:   item.Quantity,
		UnitPrice:  item.UnitPrice,
		TotalPrice: item.LineTotal(),
		CreatedAt:  now,
	}
}
