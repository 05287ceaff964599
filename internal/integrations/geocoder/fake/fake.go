package fake

import (
	"context"
	"hash/fnv"

	"github.com/BearBump/FlashLane/internal/integrations/geocoder"
	"github.com/BearBump/FlashLane/internal/models"
)

// Client — офлайн-геокодер для локального запуска: координаты детерминированно
// выводятся из нормализованного адреса.
type Client struct{}

func New() *Client { return &Client{} }

func (c *Client) Geocode(_ context.Context, address string) (models.GeoPoint, error) {
	norm := geocoder.Normalize(address)
	if norm == "" {
		return models.GeoPoint{}, geocoder.ErrNoMatch
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(norm))
	v := h.Sum64()

	lat := float64(v%180000)/1000 - 90
	lon := float64((v/180000)%360000)/1000 - 180
	return models.GeoPoint{Lat: lat, Lon: lon}, nil
}
