package main

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/BearBump/FlashLane/config"
	"github.com/BearBump/FlashLane/internal/broker/kafka"
	"github.com/BearBump/FlashLane/internal/broker/messages"
	"github.com/BearBump/FlashLane/internal/cache/rediscache"
	"github.com/BearBump/FlashLane/internal/integrations/geocoder"
	"github.com/BearBump/FlashLane/internal/integrations/geocoder/fake"
	"github.com/BearBump/FlashLane/internal/integrations/geocoder/geocache"
	"github.com/BearBump/FlashLane/internal/integrations/geocoder/nominatim"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/BearBump/FlashLane/internal/services/geocoding"
	"github.com/BearBump/FlashLane/internal/storage/memstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// chanConsumer отдаёт обработчику записи из канала.
type chanConsumer struct {
	in     chan []byte
	closed bool
}

func (c *chanConsumer) Consume(ctx context.Context, handle kafka.Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case v := <-c.in:
			if err := handle(ctx, nil, v); err != nil {
				return err
			}
		}
	}
}

func (c *chanConsumer) Close() error {
	c.closed = true
	return nil
}

func TestDefaultWorkerFactories(t *testing.T) {
	f := defaultWorkerFactories()

	cfg := &config.Config{}
	cfg.ApplyDefaults()

	_, ok := f.newGeocoder(cfg).(*fake.Client)
	require.True(t, ok)

	cfg.Geocoder.Mode = "nominatim"
	_, ok = f.newGeocoder(cfg).(*nominatim.Client)
	require.True(t, ok)

	_, err := f.newRedis(cfg)
	require.Error(t, err)

	require.Nil(t, f.newConsumer(cfg))

	lister, closeFn, err := f.newLister(cfg)
	require.NoError(t, err)
	require.Nil(t, lister)
	require.Nil(t, closeFn)

	cfg.Kafka.Host = "localhost"
	c := f.newConsumer(cfg)
	require.NotNil(t, c)
	_ = c.Close()
}

func TestRunTrackWorker_EndToEnd(t *testing.T) {
	mr := miniredis.RunT(t)

	st := memstore.New()
	require.NoError(t, st.InsertShipment(context.Background(), &models.Shipment{
		ID:             uuid.New(),
		TrackingNumber: "FL-1",
		Origin:         "Lagos, Nigeria",
		Destination:    "Accra, Ghana",
	}))

	cons := &chanConsumer{in: make(chan []byte, 1)}
	f := workerFactories{
		newRedis: func(*config.Config) (*rediscache.RedisCache, error) {
			return rediscache.New(mr.Addr()), nil
		},
		newLister: func(*config.Config) (geocoding.ShipmentLister, func(), error) {
			return st, nil, nil
		},
		newConsumer: func(*config.Config) messageConsumer { return cons },
		newGeocoder: func(*config.Config) geocoder.Client { return fake.New() },
	}

	cfg := &config.Config{}
	cfg.ApplyDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- RunTrackWorker(ctx, cfg, f, workerHTTPOpts{
			httpAddr: "127.0.0.1:0",
			onListen: func(addr string) { addrCh <- addr },
		})
	}()

	var base string
	select {
	case addr := <-addrCh:
		base = "http://" + addr
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for worker HTTP")
	}

	resp, err := http.Post(base+"/trigger", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		return mr.Exists(geocache.Key("Lagos, Nigeria")) && mr.Exists(geocache.Key("Accra, Ghana"))
	}, 2*time.Second, 20*time.Millisecond)

	b, err := json.Marshal(messages.ShipmentChanged{
		ShipmentID: uuid.New(),
		Change:     messages.ChangeEventRecorded,
		Location:   "Kumasi Hub",
	})
	require.NoError(t, err)
	cons.in <- b

	require.Eventually(t, func() bool {
		return mr.Exists(geocache.Key("Kumasi Hub"))
	}, 2*time.Second, 20*time.Millisecond)

	resp, err = http.Get(base + "/stats")
	require.NoError(t, err)
	var stats geocoding.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	resp.Body.Close()
	require.EqualValues(t, 1, stats.TotalMessages)
	require.EqualValues(t, 3, stats.TotalProcessed)
	require.NotNil(t, stats.LastTriggerAt)

	resp, err = http.Get(base + "/config")
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	require.Equal(t, "fake", out["geocoderMode"])
	require.NotContains(t, out, "jwtSecret")

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting worker to stop")
	}
	require.True(t, cons.closed)
}

func TestRunTrackWorker_RedisRequired(t *testing.T) {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	err := RunTrackWorker(context.Background(), cfg, defaultWorkerFactories(), workerHTTPOpts{})
	require.Error(t, err)
}
