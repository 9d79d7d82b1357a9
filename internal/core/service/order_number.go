package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rl1809/petstore-orders/internal/core/domain"
	"github.com/rl1809/petstore-orders/internal/port"
)

const (
	orderNumberAttempts = 10
	orderNumberLayout   = "20060102150405"
)

// generateOrderNumber returns prefix + second-precision timestamp + a two digit suffix,
// taking the first suffix not already used and not in taken. taken holds numbers that
// lost a unique-key race in an earlier attempt but may not be visible to this transaction.
func generateOrderNumber(ctx context.Context, orders port.OrderRepository, prefix string, now time.Time, taken map[string]bool) (string, error) {
	timestamp := now.Format(orderNumberLayout)

	for i := 1; i <= orderNumberAttempts; i++ {
		candidate := fmt.Sprintf("%s%s%02d", prefix, timestamp, i)
		if taken[candidate] {
			continue
		}

		exists, err := orders.ExistsByOrderNumber(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check order number: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", domain.ErrOrderNumberExhausted
}
