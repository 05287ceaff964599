package main

import (
	"context"
	"time"

	"github.com/BearBump/FlashLane/config"
	"github.com/BearBump/FlashLane/internal/broker/kafka"
	"github.com/BearBump/FlashLane/internal/cache/rediscache"
	"github.com/BearBump/FlashLane/internal/integrations/geocoder"
	"github.com/BearBump/FlashLane/internal/integrations/geocoder/fake"
	"github.com/BearBump/FlashLane/internal/integrations/geocoder/geocache"
	"github.com/BearBump/FlashLane/internal/integrations/geocoder/nominatim"
	"github.com/BearBump/FlashLane/internal/logger"
	"github.com/BearBump/FlashLane/internal/services/geocoding"
	"github.com/BearBump/FlashLane/internal/storage/pgstore"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type messageConsumer interface {
	Consume(ctx context.Context, handle kafka.Handler) error
	Close() error
}

type workerFactories struct {
	newRedis    func(cfg *config.Config) (*rediscache.RedisCache, error)
	newLister   func(cfg *config.Config) (lister geocoding.ShipmentLister, closeFn func(), err error)
	newConsumer func(cfg *config.Config) messageConsumer
	newGeocoder func(cfg *config.Config) geocoder.Client
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newRedis: func(cfg *config.Config) (*rediscache.RedisCache, error) {
			if !cfg.Redis.Enabled() {
				return nil, errors.New("redis is required: geocoded points are shared through it")
			}
			return rediscache.New(cfg.Redis.Addr()), nil
		},
		newLister: func(cfg *config.Config) (geocoding.ShipmentLister, func(), error) {
			if !cfg.Database.Enabled() {
				return nil, nil, nil
			}
			st, err := pgstore.New(cfg.Database.ConnString())
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newConsumer: func(cfg *config.Config) messageConsumer {
			if !cfg.Kafka.Enabled() {
				return nil
			}
			return kafka.NewConsumer(cfg.Kafka.Brokers(), cfg.Kafka.ShipmentChangedTopicName, cfg.Kafka.WorkerConsumerGroup)
		},
		newGeocoder: func(cfg *config.Config) geocoder.Client {
			switch cfg.Geocoder.Mode {
			case "nominatim":
				return nominatim.New(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent)
			default:
				return fake.New()
			}
		},
	}
}

// RunTrackWorker собирает воркер и крутит его вместе с kafka consumer и
// служебным HTTP до отмены ctx.
func RunTrackWorker(ctx context.Context, cfg *config.Config, f workerFactories, httpOpts workerHTTPOpts) error {
	fl := cfg.FlashLane

	rc, err := f.newRedis(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	lister, closeLister, err := f.newLister(cfg)
	if err != nil {
		return errors.Wrap(err, "open storage")
	}
	if closeLister != nil {
		defer closeLister()
	}

	store := geocache.New(rc, time.Duration(fl.GeoCacheTTLDays)*24*time.Hour, logger.Named("geocache"))
	rl := rediscache.NewRateLimiterWithClient(rc.Client())

	w := geocoding.New(f.newGeocoder(cfg), store, rl).
		WithSettings(fl.WorkerConcurrency, int64(fl.WorkerRateLimitPerMinute)).
		WithLogger(logger.Named("worker"))
	if lister != nil {
		w = w.WithBackfill(lister, time.Duration(fl.WorkerBackfillIntervalSeconds)*time.Second, fl.WorkerBackfillBatchSize)
	} else {
		logger.Warn("database is not configured, backfill disabled")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 3)
	running := 0
	start := func(fn func() error) {
		running++
		go func() { errs <- fn() }()
	}

	start(func() error { return w.Run(runCtx) })

	if cons := f.newConsumer(cfg); cons != nil {
		defer func() { _ = cons.Close() }()
		logger.Info("kafka consumer started",
			zap.String("topic", cfg.Kafka.ShipmentChangedTopicName),
			zap.String("group", cfg.Kafka.WorkerConsumerGroup))
		start(func() error { return cons.Consume(runCtx, w.HandleMessage) })
	} else {
		logger.Warn("kafka is not configured, only backfill will run")
	}

	httpOpts.worker = w
	httpOpts.cfg = cfg
	if httpOpts.httpAddr == "" {
		httpOpts.httpAddr = fl.WorkerHTTPAddr
	}
	start(func() error { return runWorkerHTTPServer(runCtx, httpOpts) })

	err = <-errs
	cancel()
	for i := 1; i < running; i++ {
		<-errs
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
