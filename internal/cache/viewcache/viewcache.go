// Package viewcache stores read models (public lookup, dashboard) as JSON in a
// BytesCache and knows which keys a shipment mutation makes stale.
package viewcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BearBump/FlashLane/internal/cache"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DashboardKey = "dashboard"
	CustomersKey = "customers"
)

// TrackKey maps a tracking number to the shipment id. Tracking numbers never
// change, so the alias is not invalidated.
func TrackKey(trackingNumber string) string {
	return "track:" + trackingNumber
}

func LookupKey(id uuid.UUID) string {
	return fmt.Sprintf("shipment:%s:lookup", id)
}

type Cache struct {
	c   cache.BytesCache
	ttl time.Duration
	log *zap.Logger
}

// New returns nil when c is nil or ttl is not positive; all methods accept a
// nil receiver and behave as an always-miss cache.
func New(c cache.BytesCache, ttl time.Duration, log *zap.Logger) *Cache {
	if c == nil || ttl <= 0 {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{c: c, ttl: ttl, log: log}
}

func (v *Cache) Load(ctx context.Context, key string, dst any) bool {
	if v == nil {
		return false
	}
	b, ok, err := v.c.Get(ctx, key)
	if err != nil {
		v.log.Warn("view cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		v.log.Warn("view cache entry corrupted", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (v *Cache) Store(ctx context.Context, key string, val any) {
	if v == nil {
		return
	}
	b, err := json.Marshal(val)
	if err != nil {
		v.log.Warn("view cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := v.c.Set(ctx, key, b, v.ttl); err != nil {
		v.log.Warn("view cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateShipment drops the public lookup of the shipment together with
// the aggregate views that list it.
func (v *Cache) InvalidateShipment(ctx context.Context, id uuid.UUID) error {
	if v == nil {
		return nil
	}
	return errors.Wrap(v.c.Delete(ctx, LookupKey(id), DashboardKey, CustomersKey), "invalidate shipment views")
}

func (v *Cache) InvalidateDashboard(ctx context.Context) error {
	if v == nil {
		return nil
	}
	return errors.Wrap(v.c.Delete(ctx, DashboardKey), "invalidate dashboard")
}
