// Package geocache keeps geocoded coordinates keyed by normalized address.
// The worker writes it, the public lookup only reads.
package geocache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BearBump/FlashLane/internal/cache"
	"github.com/BearBump/FlashLane/internal/integrations/geocoder"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const DefaultTTL = 30 * 24 * time.Hour

func Key(address string) string {
	return "geo:" + geocoder.Normalize(address)
}

type Cache struct {
	c   cache.BytesCache
	ttl time.Duration
	log *zap.Logger
}

func New(c cache.BytesCache, ttl time.Duration, log *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{c: c, ttl: ttl, log: log}
}

func (g *Cache) Get(ctx context.Context, address string) (*models.GeoPoint, bool, error) {
	b, ok, err := g.c.Get(ctx, Key(address))
	if err != nil || !ok {
		return nil, false, err
	}
	var pt models.GeoPoint
	if err := json.Unmarshal(b, &pt); err != nil {
		return nil, false, errors.Wrap(err, "decode geo point")
	}
	return &pt, true, nil
}

// Cached is the read path for the lookup: errors are logged and read as a miss.
func (g *Cache) Cached(ctx context.Context, address string) (*models.GeoPoint, bool) {
	if geocoder.Normalize(address) == "" {
		return nil, false
	}
	pt, ok, err := g.Get(ctx, address)
	if err != nil {
		g.log.Warn("geo cache read failed", zap.String("address", address), zap.Error(err))
		return nil, false
	}
	return pt, ok
}

func (g *Cache) Put(ctx context.Context, address string, pt models.GeoPoint) error {
	b, err := json.Marshal(pt)
	if err != nil {
		return errors.Wrap(err, "encode geo point")
	}
	return errors.Wrap(g.c.Set(ctx, Key(address), b, g.ttl), "store geo point")
}
