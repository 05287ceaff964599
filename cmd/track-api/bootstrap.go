package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/FlashLane/config"
	"github.com/BearBump/FlashLane/internal/api/httpapi"
	"github.com/BearBump/FlashLane/internal/auth"
	"github.com/BearBump/FlashLane/internal/broker/kafka"
	"github.com/BearBump/FlashLane/internal/broker/messages"
	"github.com/BearBump/FlashLane/internal/cache"
	"github.com/BearBump/FlashLane/internal/cache/memlimit"
	"github.com/BearBump/FlashLane/internal/cache/rediscache"
	"github.com/BearBump/FlashLane/internal/cache/viewcache"
	"github.com/BearBump/FlashLane/internal/integrations/geocoder/geocache"
	"github.com/BearBump/FlashLane/internal/logger"
	"github.com/BearBump/FlashLane/internal/services/contact"
	"github.com/BearBump/FlashLane/internal/services/ledger"
	"github.com/BearBump/FlashLane/internal/services/shipments"
	"github.com/BearBump/FlashLane/internal/storage/memstore"
	"github.com/BearBump/FlashLane/internal/storage/pgstore"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// store — всё, что нужно сервисам от хранилища.
type store interface {
	shipments.Repository
	ledger.Repository
	contact.Repository
	CountMessages(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

type apiFactories struct {
	newStore     func(cfg *config.Config) (st store, closeFn func(), err error)
	newRedis     func(cfg *config.Config) *rediscache.RedisCache
	newPublisher func(cfg *config.Config) (p messages.Publisher, closeFn func() error)
}

func defaultAPIFactories() apiFactories {
	return apiFactories{
		newStore: func(cfg *config.Config) (store, func(), error) {
			if !cfg.Database.Enabled() {
				logger.Warn("database is not configured, using in-memory storage")
				return memstore.New(), nil, nil
			}
			st := mustOpenPostgresWithRetry(cfg.Database.ConnString(), 60*time.Second)
			return st, st.Close, nil
		},
		newRedis: func(cfg *config.Config) *rediscache.RedisCache {
			if !cfg.Redis.Enabled() {
				return nil
			}
			return rediscache.New(cfg.Redis.Addr())
		},
		newPublisher: func(cfg *config.Config) (messages.Publisher, func() error) {
			if !cfg.Kafka.Enabled() {
				return nil, nil
			}
			p := kafka.NewProducer(cfg.Kafka.Brokers())
			return p, p.Close
		},
	}
}

type trackAPIApp struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    trackAPIOpts
	handler *httpapi.API
	closers []func()
}

func mustBootstrapTrackAPI() *trackAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}
	if err := logger.Init(cfg.FlashLane.Environment); err != nil {
		panic(fmt.Sprintf("init logger: %v", err))
	}

	app, err := buildTrackAPI(cfg, defaultAPIFactories(), os.Getenv("swaggerPath"))
	if err != nil {
		panic(err)
	}
	app.ctx, app.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return app
}

func buildTrackAPI(cfg *config.Config, f apiFactories, swaggerPath string) (*trackAPIApp, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	fl := cfg.FlashLane
	app := &trackAPIApp{opts: trackAPIOpts{httpAddr: fl.HTTPAddr, swaggerPath: swaggerPath}}

	st, closeDB, err := f.newStore(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "open storage")
	}
	if closeDB != nil {
		app.closers = append(app.closers, closeDB)
	}

	var (
		views   *viewcache.Cache
		limiter cache.RateLimiter
		geo     *geocache.Cache
	)
	if rc := f.newRedis(cfg); rc != nil {
		views = viewcache.New(rc, time.Duration(fl.LookupCacheTTLSeconds)*time.Second, logger.Named("viewcache"))
		limiter = rediscache.NewRateLimiterWithClient(rc.Client())
		geo = geocache.New(rc, time.Duration(fl.GeoCacheTTLDays)*24*time.Hour, logger.Named("geocache"))
		app.closers = append(app.closers, func() { _ = rc.Close() })
	} else {
		logger.Warn("redis is not configured, using in-process rate limiter without view cache")
		ml := memlimit.New(time.Minute)
		limiter = ml
		app.closers = append(app.closers, ml.Close)
	}

	pub, closePub := f.newPublisher(cfg)
	if closePub != nil {
		app.closers = append(app.closers, func() { _ = closePub() })
	}
	notifier := messages.NewNotifier(pub, cfg.Kafka.ShipmentChangedTopicName, logger.Named("notifier"))

	led := ledger.New(st, views).
		WithNotifier(notifier).
		WithLogger(logger.Named("ledger"))

	retry := shipments.DefaultRetryPolicy()
	retry.MaxRetries = uint64(fl.LookupRetryMaxAttempts)
	svc := shipments.New(st, led, views).
		WithMessageCounter(st).
		WithNotifier(notifier).
		WithRetry(retry).
		WithLogger(logger.Named("shipments"))
	if geo != nil {
		svc = svc.WithGeo(geo)
	}

	app.handler = httpapi.New(httpapi.Deps{
		Shipments: svc,
		Ledger:    led,
		Contact:   contact.New(st, views).WithLogger(logger.Named("contact")),
		Verifier:  auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Limiter:   limiter,
		Store:     st,
		Log:       logger.Named("api"),
		TrackLimit: httpapi.Limit{
			Prefix:  httpapi.DefaultTrackLimit.Prefix,
			Max:     int64(fl.TrackRateLimit),
			Window:  time.Duration(fl.TrackRateWindowSeconds) * time.Second,
			Message: httpapi.DefaultTrackLimit.Message,
		},
		ContactLimit: httpapi.Limit{
			Prefix:  httpapi.DefaultContactLimit.Prefix,
			Max:     int64(fl.ContactRateLimit),
			Window:  time.Duration(fl.ContactRateWindowSeconds) * time.Second,
			Message: httpapi.DefaultContactLimit.Message,
		},
		SwaggerPath: swaggerPath,
	})
	return app, nil
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgstore.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgstore.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		logger.Warn("postgres is not ready yet", zap.Error(err))
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *trackAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *trackAPIApp) Run() error {
	return runTrackAPI(a.ctx, a.opts, a.handler.Routes())
}
