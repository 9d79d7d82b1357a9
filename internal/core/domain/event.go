package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderEventType string

const (
	OrderEventCreated       OrderEventType = "order.created"
	OrderEventStatusChanged OrderEventType = "order.status_changed"
	OrderEventCancelled     OrderEventType = "order.cancelled"
	OrderEventDeleted       OrderEventType = "order.deleted"
)

// OrderEvent is emitted after a committed change. Consumers must tolerate loss.
type OrderEvent struct {
	Type        OrderEventType  `json:"type"`
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	MemberID    int64           `json:"member_id"`
	FromStatus  string          `json:"from_status,omitempty"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// NewOrderEvent snapshots the order into an event of the given type.
func NewOrderEvent(t OrderEventType, order Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:        t,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		MemberID:    order.MemberID,
		Status:      order.Status.String(),
		TotalAmount: order.TotalAmount,
		OccurredAt:  at,
	}
}
