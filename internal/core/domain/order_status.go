package domain

import (
	"fmt"
	"slices"
)

// OrderStatus is the persisted status id.
type OrderStatus int64

const (
	OrderStatusPending   OrderStatus = 1
	OrderStatusConfirmed OrderStatus = 2
	OrderStatusShipped   OrderStatus = 3
	OrderStatusDelivered OrderStatus = 4
	OrderStatusCancelled OrderStatus = 5
)

var orderStatusNames = map[OrderStatus]string{
	OrderStatusPending:   "PENDING",
	OrderStatusConfirmed: "CONFIRMED",
	OrderStatusShipped:   "SHIPPED",
	OrderStatusDelivered: "DELIVERED",
	OrderStatusCancelled: "CANCELLED",
}

// orderStatusTransitions is the only source of truth for which moves are legal.
// Statuses without an entry are terminal.
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
}

func (s OrderStatus) String() string {
	if name, ok := orderStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int64(s))
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderStatusNames[s]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	return s.IsValid() && len(orderStatusTransitions[s]) == 0
}

// CanTransition reports whether the graph has an edge from -> to.
// A status never transitions to itself.
func CanTransition(from, to OrderStatus) bool {
	return slices.Contains(orderStatusTransitions[from], to)
}

// ValidateTransition checks a requested move and returns the taxonomy error for it.
func ValidateTransition(from, to OrderStatus) error {
	switch {
	case !to.IsValid():
		return ErrInvalidStatus
	case from == to:
		return ErrNoChange
	case !CanTransition(from, to):
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// ParseOrderStatus accepts a status name such as "SHIPPED".
func ParseOrderStatus(name string) (OrderStatus, bool) {
	for status, n := range orderStatusNames {
		if n == name {
			return status, true
		}
	}
	return 0, false
}
