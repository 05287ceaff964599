package geocoder

import (
	"context"
	"strings"

	"github.com/BearBump/FlashLane/internal/models"
	"github.com/pkg/errors"
)

// ErrNoMatch — геокодер не нашёл адрес.
var ErrNoMatch = errors.New("address not found")

// ErrRateLimited is returned when the upstream answered 429.
var ErrRateLimited = errors.New("geocoder rate limited")

type Client interface {
	Geocode(ctx context.Context, address string) (models.GeoPoint, error)
}

// Normalize folds case and whitespace so "Lagos,  NG" and "lagos, ng" share a cache entry.
func Normalize(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}
