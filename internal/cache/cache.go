package cache

import (
	"context"
	"time"
)

// BytesCache — best-effort хранилище сериализованных представлений.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RateLimiter counts hits for key inside a fixed window.
// Возвращает (allowed, currentCount).
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}
