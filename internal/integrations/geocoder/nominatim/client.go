package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/BearBump/FlashLane/internal/integrations/geocoder"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// DefaultInterval — публичный Nominatim разрешает не больше 1 запроса в секунду.
const DefaultInterval = time.Second

type Client struct {
	baseURL   string
	userAgent string
	httpc     *http.Client
	pace      *rate.Limiter
}

// New — userAgent обязателен по правилам использования Nominatim.
func New(baseURL, userAgent string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = "flashlane-track-worker"
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
		pace: rate.NewLimiter(rate.Every(DefaultInterval), 1),
	}
}

// WithInterval sets the minimum gap between requests of this process.
// Zero or less disables pacing.
func (c *Client) WithInterval(every time.Duration) *Client {
	if every <= 0 {
		c.pace = rate.NewLimiter(rate.Inf, 1)
		return c
	}
	c.pace = rate.NewLimiter(rate.Every(every), 1)
	return c
}

type place struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (c *Client) Geocode(ctx context.Context, address string) (models.GeoPoint, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return models.GeoPoint{}, errors.Wrap(err, "parse base url")
	}
	u.Path = "/search"
	q := u.Query()
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("q", address)
	u.RawQuery = q.Encode()

	if err := c.pace.Wait(ctx); err != nil {
		return models.GeoPoint{}, errors.Wrap(err, "wait request slot")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return models.GeoPoint{}, errors.Wrap(err, "new request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return models.GeoPoint{}, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return models.GeoPoint{}, geocoder.ErrRateLimited
	}
	if resp.StatusCode/100 != 2 {
		return models.GeoPoint{}, fmt.Errorf("nominatim http %d", resp.StatusCode)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return models.GeoPoint{}, errors.Wrap(err, "decode")
	}
	if len(places) == 0 {
		return models.GeoPoint{}, errors.Wrapf(geocoder.ErrNoMatch, "%q", address)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return models.GeoPoint{}, errors.Wrap(err, "parse lat")
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return models.GeoPoint{}, errors.Wrap(err, "parse lon")
	}
	return models.GeoPoint{Lat: lat, Lon: lon}, nil
}
