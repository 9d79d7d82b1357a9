package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rl1809/petstore-orders/internal/port"
)

const idempotencyKeyPrefix = "order:idempotency:"

// Reservation is the outcome of IdempotencyGuard.Begin.
type Reservation struct {
	IsNew   bool
	OrderID int64
}

// IdempotencyGuard maps (member, caller token) to the order created for it.
// Begin reserves nothing. Commit must only be called once the order is durable.
type IdempotencyGuard struct {
	cache port.CacheRepository
	ttl   time.Duration
}

func NewIdempotencyGuard(cache port.CacheRepository, ttl time.Duration) *IdempotencyGuard {
	return &IdempotencyGuard{cache: cache, ttl: ttl}
}

// Key scopes a caller token to one member.
func (g *IdempotencyGuard) Key(memberID int64, token string) string {
	return fmt.Sprintf("%s%d:%s", idempotencyKeyPrefix, memberID, token)
}

func (g *IdempotencyGuard) Begin(ctx context.Context, key string) (Reservation, error) {
	value, ok, err := g.cache.GetIdempotency(ctx, key)
	if err != nil {
		return Reservation{}, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return Reservation{IsNew: true}, nil
	}

	orderID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return Reservation{}, fmt.Errorf("corrupt idempotency record %q: %w", key, err)
	}
	return Reservation{OrderID: orderID}, nil
}

// Commit records key -> orderID. It returns false when another request already
// recorded an order for the same key; the first mapping is kept.
func (g *IdempotencyGuard) Commit(ctx context.Context, key string, orderID int64) (bool, error) {
	ok, err := g.cache.SetIdempotency(ctx, key, strconv.FormatInt(orderID, 10), g.ttl)
	if err != nil {
		return false, fmt.Errorf("idempotency commit failed: %w", err)
	}
	return ok, nil
}
