package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/petstore-orders/internal/core/domain"
)

type checkoutRequest struct {
	ShippingAddress string `json:"shipping_address" validate:"required,max=500"`
	Notes           string `json:"notes" validate:"max=1000"`
}

type addCartItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gte=1,lte=99"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1,lte=99"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING CONFIRMED SHIPPED DELIVERED CANCELLED"`
}

type orderResponse struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"`
	MemberID        int64           `json:"member_id"`
	Status          string          `json:"status"`
	StatusID        int64           `json:"status_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAmount  decimal.Decimal `json:"shipping_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	ShippingAddress string          `json:"shipping_address"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func newOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		MemberID:        o.MemberID,
		Status:          o.Status.String(),
		StatusID:        int64(o.Status),
		TotalAmount:     o.TotalAmount,
		ShippingAmount:  o.ShippingAmount,
		TaxAmount:       o.TaxAmount,
		DiscountAmount:  o.DiscountAmount,
		ShippingAddress: o.ShippingAddress,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

type orderItemResponse struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order_id"`
	ProductID  int64           `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func newOrderItemResponses(items []domain.OrderItem) []orderItemResponse {
	out := make([]orderItemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, orderItemResponse{
			ID:         i.ID,
			OrderID:    i.OrderID,
			ProductID:  i.ProductID,
			Quantity:   i.Quantity,
			UnitPrice:  i.UnitPrice,
			TotalPrice: i.TotalPrice,
		})
	}
	return out
}

type orderPageResponse struct {
	Orders []orderResponse `json:"orders"`
	Page   int             `json:"page"`
	Size   int             `json:"size"`
	Total  int64           `json:"total"`
}

type cartItemResponse struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type cartResponse struct {
	MemberID  int64              `json:"member_id"`
	Items     []cartItemResponse `json:"items"`
	Total     decimal.Decimal    `json:"total"`
	ItemCount int                `json:"item_count"`
}

func newCartResponse(c domain.Cart) cartResponse {
	items := make([]cartItemResponse, 0, len(c.Items))
	for _, i := range c.Items {
		items = append(items, cartItemResponse{
			ProductID: i.ProductID,
			Quantity:  i.Quantity,
			UnitPrice: i.UnitPrice,
			LineTotal: i.LineTotal(),
		})
	}
	return cartResponse{MemberID: c.MemberID, Items: items, Total: c.Total, ItemCount: c.ItemCount}
}
