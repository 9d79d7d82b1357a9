package port

import (
	"context"
	"time"
)

type CacheRepository interface {
	// GetIdempotency returns the stored value and whether the key exists
	GetIdempotency(ctx context.Context, key string) (string, bool, error)

	// SetIdempotency stores value under key if absent, returns false if the key already exists
	SetIdempotency(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
}
