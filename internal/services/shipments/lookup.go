package shipments

import (
	"context"
	"strings"
	"time"

	"github.com/BearBump/FlashLane/internal/apperrors"
	"github.com/BearBump/FlashLane/internal/cache/viewcache"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/BearBump/FlashLane/internal/progress"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// RetryPolicy applies to read-only lookups only. Mutations are never retried.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxElapsed      time.Duration
	MaxRetries      uint64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval: 100 * time.Millisecond,
		MaxElapsed:      2 * time.Second,
		MaxRetries:      3,
	}
}

func (p RetryPolicy) backoff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.MaxElapsedTime = p.MaxElapsed
	return backoff.WithContext(backoff.WithMaxRetries(eb, p.MaxRetries), ctx)
}

type MapPoint struct {
	Kind    string           `json:"kind"` // origin | destination | current
	Address string           `json:"address"`
	Point   *models.GeoPoint `json:"point,omitempty"`
}

// Lookup is the public tracking view.
type Lookup struct {
	Shipment        *models.Shipment        `json:"shipment"`
	Events          []*models.TrackingEvent `json:"events"`
	Progress        progress.Progress       `json:"progress"`
	CurrentLocation string                  `json:"current_location,omitempty"`
	Map             []MapPoint              `json:"map,omitempty"`
}

// FindByTrackingNumber is the unauthenticated read path. Transient storage
// faults are retried; NotFound is returned as is.
func (s *Service) FindByTrackingNumber(ctx context.Context, raw string) (*Lookup, error) {
	number := strings.TrimSpace(raw)
	if number == "" {
		return nil, apperrors.Validation("tracking_number", "is required")
	}

	var cachedID uuid.UUID
	if s.views.Load(ctx, viewcache.TrackKey(number), &cachedID) {
		var l Lookup
		if s.views.Load(ctx, viewcache.LookupKey(cachedID), &l) {
			s.attachMap(ctx, &l)
			return &l, nil
		}
	}

	var l *Lookup
	op := func() error {
		var err error
		l, err = s.loadLookup(ctx, number)
		if err == nil {
			return nil
		}
		if apperrors.IsTransient(err) {
			s.log.Warn("tracking lookup retry", zap.String("tracking_number", number), zap.Error(err))
			return err
		}
		return backoff.Permanent(err)
	}
	if err := backoff.Retry(op, s.retry.backoff(ctx)); err != nil {
		return nil, errors.Wrap(err, "find shipment by tracking number")
	}

	s.views.Store(ctx, viewcache.TrackKey(number), l.Shipment.ID)
	s.views.Store(ctx, viewcache.LookupKey(l.Shipment.ID), l)
	s.attachMap(ctx, l)
	return l, nil
}

func (s *Service) loadLookup(ctx context.Context, number string) (*Lookup, error) {
	sh, err := s.repo.GetShipmentByTrackingNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	events, err := s.ledger.ListEvents(ctx, sh.ID)
	if err != nil {
		return nil, err
	}
	l := &Lookup{
		Shipment: sh,
		Events:   events,
		Progress: progress.Resolve(sh.Status),
	}
	if len(events) > 0 {
		l.CurrentLocation = events[0].Location
	}
	return l, nil
}

// attachMap adds coordinates known to the geocoding cache. Addresses not yet
// geocoded are listed without a point.
func (s *Service) attachMap(ctx context.Context, l *Lookup) {
	l.Map = l.Map[:0]
	points := []MapPoint{
		{Kind: "origin", Address: l.Shipment.Origin},
		{Kind: "destination", Address: l.Shipment.Destination},
	}
	if l.CurrentLocation != "" {
		points = append(points, MapPoint{Kind: "current", Address: l.CurrentLocation})
	}
	for _, p := range points {
		if p.Address == "" {
			continue
		}
		if s.geo != nil {
			if pt, ok := s.geo.Cached(ctx, p.Address); ok {
				p.Point = pt
			}
		}
		l.Map = append(l.Map, p)
	}
}
