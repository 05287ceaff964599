package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BearBump/FlashLane/internal/integrations/geocoder"
	"github.com/stretchr/testify/require"
)

func TestClient_Geocode_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "json", r.URL.Query().Get("format"))
		require.Equal(t, "Lagos, Nigeria", r.URL.Query().Get("q"))
		require.Equal(t, "flashlane-test", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"6.4550575","lon":"3.3941795","display_name":"Lagos"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "flashlane-test")
	pt, err := c.Geocode(context.Background(), "Lagos, Nigeria")
	require.NoError(t, err)
	require.InDelta(t, 6.4550575, pt.Lat, 1e-9)
	require.InDelta(t, 3.3941795, pt.Lon, 1e-9)
}

func TestClient_Geocode_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").Geocode(context.Background(), "nowhere")
	require.ErrorIs(t, err, geocoder.ErrNoMatch)
}

func TestClient_Geocode_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").Geocode(context.Background(), "Lagos")
	require.ErrorIs(t, err, geocoder.ErrRateLimited)
}

func TestClient_Geocode_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").Geocode(context.Background(), "Lagos")
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}

func TestClient_Geocode_PacesRequests(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[{"lat":"1","lon":"2"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "").WithInterval(150 * time.Millisecond)
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Geocode(context.Background(), "Accra")
		require.NoError(t, err)
	}
	require.GreaterOrEqual(t, time.Since(start), 290*time.Millisecond)
	require.EqualValues(t, 3, hits.Load())
}

func TestClient_Geocode_PaceHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"1","lon":"2"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "").WithInterval(time.Hour)
	_, err := c.Geocode(context.Background(), "Accra")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Geocode(ctx, "Accra")
	require.Error(t, err)
	require.Contains(t, err.Error(), "wait request slot")
}
