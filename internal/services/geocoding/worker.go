// Package geocoding resolves shipment addresses to coordinates off the request
// path. Input comes from shipment.changed records and from periodic backfill
// over recent shipments; output goes to the geo cache read by public lookups.
package geocoding

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/FlashLane/internal/broker/messages"
	"github.com/BearBump/FlashLane/internal/integrations/geocoder"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type GeoStore interface {
	Get(ctx context.Context, address string) (*models.GeoPoint, bool, error)
	Put(ctx context.Context, address string, pt models.GeoPoint) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// ShipmentLister feeds backfill.
type ShipmentLister interface {
	ListShipments(ctx context.Context, f models.ShipmentFilter) ([]*models.Shipment, error)
}

const rateLimitKey = "geocoder"

type Worker struct {
	geocoder geocoder.Client
	store    GeoStore
	rl       RateLimiter
	lister   ShipmentLister
	log      *zap.Logger

	concurrency        int
	rateLimitPerMinute int64
	rateWait           time.Duration
	backfillInterval   time.Duration
	backfillBatch      int

	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalMessages       atomic.Int64
	totalProcessed      atomic.Int64
	totalCached         atomic.Int64
	totalNoMatch        atomic.Int64
	totalErrors         atomic.Int64
	inFlight            atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(gc geocoder.Client, store GeoStore, rl RateLimiter) *Worker {
	return &Worker{
		geocoder:           gc,
		store:              store,
		rl:                 rl,
		log:                zap.NewNop(),
		concurrency:        2,
		rateLimitPerMinute: 60,
		rateWait:           time.Second,
		backfillBatch:      100,
		triggerCh:          make(chan struct{}, 1),
		startedAtUnixNano:  time.Now().UTC().UnixNano(),
	}
}

func (w *Worker) WithSettings(concurrency int, rlPerMin int64) *Worker {
	if concurrency > 0 {
		w.concurrency = concurrency
	}
	if rlPerMin > 0 {
		w.rateLimitPerMinute = rlPerMin
	}
	return w
}

// WithBackfill enables the periodic sweep. interval 0 leaves only manual triggers.
func (w *Worker) WithBackfill(lister ShipmentLister, interval time.Duration, batch int) *Worker {
	w.lister = lister
	w.backfillInterval = interval
	if batch > 0 {
		w.backfillBatch = batch
	}
	return w
}

func (w *Worker) WithLogger(l *zap.Logger) *Worker {
	if l != nil {
		w.log = l
	}
	return w
}

// Trigger forces an immediate backfill cycle (best-effort, non-blocking).
func (w *Worker) Trigger() {
	w.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt      time.Time  `json:"startedAt"`
	LastCycleAt    *time.Time `json:"lastCycleAt,omitempty"`
	LastTriggerAt  *time.Time `json:"lastTriggerAt,omitempty"`
	TotalMessages  int64      `json:"totalMessages"`
	TotalProcessed int64      `json:"totalProcessed"`
	TotalCached    int64      `json:"totalCached"`
	TotalNoMatch   int64      `json:"totalNoMatch"`
	TotalErrors    int64      `json:"totalErrors"`
	InFlight       int64      `json:"inFlight"`
	LastError      string     `json:"lastError,omitempty"`
}

func (w *Worker) Stats() Stats {
	st := Stats{
		StartedAt:      time.Unix(0, w.startedAtUnixNano).UTC(),
		TotalMessages:  w.totalMessages.Load(),
		TotalProcessed: w.totalProcessed.Load(),
		TotalCached:    w.totalCached.Load(),
		TotalNoMatch:   w.totalNoMatch.Load(),
		TotalErrors:    w.totalErrors.Load(),
		InFlight:       w.inFlight.Load(),
	}
	if n := w.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := w.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	w.lastErrorMu.Lock()
	st.LastError = w.lastError
	w.lastErrorMu.Unlock()
	return st
}

// HandleMessage is the kafka handler. Undecodable records are logged and
// acknowledged; a failing address never blocks the partition.
func (w *Worker) HandleMessage(ctx context.Context, _ []byte, value []byte) error {
	w.totalMessages.Add(1)

	var msg messages.ShipmentChanged
	if err := json.Unmarshal(value, &msg); err != nil {
		w.recordError(errors.Wrap(err, "decode shipment changed"))
		w.log.Warn("skip undecodable record", zap.Error(err))
		return nil
	}
	if msg.Change == messages.ChangeDeleted {
		return nil
	}
	w.resolveAll(ctx, msg.Addresses())
	return ctx.Err()
}

// Run drives backfill until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if w.lister != nil && w.backfillInterval > 0 {
		t := time.NewTicker(w.backfillInterval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			w.backfillOnce(ctx)
		case <-w.triggerCh:
			w.backfillOnce(ctx)
		}
	}
}

func (w *Worker) backfillOnce(ctx context.Context) {
	if w.lister == nil {
		return
	}
	w.lastCycleUnixNano.Store(time.Now().UTC().UnixNano())

	items, err := w.lister.ListShipments(ctx, models.ShipmentFilter{Limit: w.backfillBatch})
	if err != nil {
		w.recordError(errors.Wrap(err, "list shipments for backfill"))
		return
	}

	var addrs []string
	seen := map[string]struct{}{}
	for _, sh := range items {
		for _, a := range []string{sh.Origin, sh.Destination} {
			n := geocoder.Normalize(a)
			if n == "" {
				continue
			}
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			addrs = append(addrs, a)
		}
	}
	w.resolveAll(ctx, addrs)
}

func (w *Worker) resolveAll(ctx context.Context, addrs []string) {
	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup
	for _, a := range addrs {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		w.inFlight.Add(1)
		go func(address string) {
			defer func() {
				w.inFlight.Add(-1)
				<-sem
				wg.Done()
			}()
			if err := w.resolve(ctx, address); err != nil {
				w.recordError(err)
				w.log.Warn("geocode address", zap.String("address", address), zap.Error(err))
			}
		}(a)
	}
	wg.Wait()
}

func (w *Worker) resolve(ctx context.Context, address string) error {
	if geocoder.Normalize(address) == "" {
		return nil
	}
	if _, ok, err := w.store.Get(ctx, address); err != nil {
		return errors.Wrap(err, "geo cache get")
	} else if ok {
		w.totalCached.Add(1)
		return nil
	}

	if err := w.waitForSlot(ctx); err != nil {
		return err
	}

	pt, err := w.geocoder.Geocode(ctx, address)
	w.totalProcessed.Add(1)
	if errors.Is(err, geocoder.ErrNoMatch) {
		w.totalNoMatch.Add(1)
		w.log.Debug("address not geocodable", zap.String("address", address))
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "geocode")
	}
	return errors.Wrap(w.store.Put(ctx, address, pt), "geo cache put")
}

// waitForSlot blocks until the shared per-minute budget has room.
func (w *Worker) waitForSlot(ctx context.Context) error {
	if w.rl == nil || w.rateLimitPerMinute <= 0 {
		return nil
	}
	for {
		allowed, n, err := w.rl.Allow(ctx, rateLimitKey, w.rateLimitPerMinute, time.Minute)
		if err != nil {
			// лимитер недоступен: не блокируем геокодинг
			w.log.Warn("geocoder rate limiter failed", zap.Error(err))
			return nil
		}
		if allowed {
			return nil
		}
		w.log.Debug("geocoder rate limit exceeded", zap.Int64("count", n))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.rateWait):
		}
	}
}

func (w *Worker) recordError(err error) {
	w.totalErrors.Add(1)
	w.lastErrorMu.Lock()
	w.lastError = err.Error()
	w.lastErrorMu.Unlock()
}
