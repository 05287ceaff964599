// Package shipments owns shipment records: creation with a tracking number,
// status transitions with their ledger entry, edits, deletion and the public
// lookup.
package shipments

import (
	"context"
	"strings"
	"time"

	"github.com/BearBump/FlashLane/internal/apperrors"
	"github.com/BearBump/FlashLane/internal/broker/messages"
	"github.com/BearBump/FlashLane/internal/cache/viewcache"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/BearBump/FlashLane/internal/services/ledger"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Repository interface {
	InsertShipment(ctx context.Context, sh *models.Shipment) error
	GetShipment(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	GetShipmentByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error)
	ListShipments(ctx context.Context, f models.ShipmentFilter) ([]*models.Shipment, error)
	UpdateShipmentStatus(ctx context.Context, id uuid.UUID, status models.Status, at time.Time) error
	UpdateShipmentDetails(ctx context.Context, sh *models.Shipment) error
	DeleteShipment(ctx context.Context, id uuid.UUID) error
	CountShipments(ctx context.Context, status *models.Status) (int, error)
	ListReceivers(ctx context.Context) ([]models.Contact, error)
}

// Transactor is implemented by repositories that can run several writes
// atomically. Writes issued with the ctx passed to fn join the transaction.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Ledger interface {
	RecordEvent(ctx context.Context, in ledger.RecordInput) (*models.TrackingEvent, error)
	RecordCreation(ctx context.Context, sh *models.Shipment) (*models.TrackingEvent, error)
	ListEvents(ctx context.Context, shipmentID uuid.UUID) ([]*models.TrackingEvent, error)
}

type MessageCounter interface {
	CountMessages(ctx context.Context) (int, error)
}

// GeoLookup returns cached coordinates of an address.
type GeoLookup interface {
	Cached(ctx context.Context, address string) (*models.GeoPoint, bool)
}

type Service struct {
	repo     Repository
	tx       Transactor
	ledger   Ledger
	views    *viewcache.Cache
	messages MessageCounter
	geo      GeoLookup
	notifier *messages.Notifier
	numbers  *NumberGenerator
	retry    RetryPolicy
	now      func() time.Time
	log      *zap.Logger
}

// New wires the service. When repo also implements Transactor, paired writes
// (shipment + seed event, status + event) are made atomic.
func New(repo Repository, l Ledger, views *viewcache.Cache) *Service {
	s := &Service{
		repo:    repo,
		ledger:  l,
		views:   views,
		numbers: NewNumberGenerator(),
		retry:   DefaultRetryPolicy(),
		now:     time.Now,
		log:     zap.NewNop(),
	}
	if tx, ok := repo.(Transactor); ok {
		s.tx = tx
	}
	return s
}

func (s *Service) WithMessageCounter(c MessageCounter) *Service {
	s.messages = c
	return s
}

func (s *Service) WithGeo(g GeoLookup) *Service {
	s.geo = g
	return s
}

func (s *Service) WithNotifier(n *messages.Notifier) *Service {
	s.notifier = n
	return s
}

func (s *Service) WithRetry(p RetryPolicy) *Service {
	s.retry = p
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	s.numbers.now = now
	return s
}

func (s *Service) WithLogger(l *zap.Logger) *Service {
	s.log = l
	return s
}

// CreateShipment persists a new pending shipment and its "Shipment Created"
// event. Without transaction support a failed seed event leaves the shipment
// in place; it is returned together with a PartialFailureError.
func (s *Service) CreateShipment(ctx context.Context, op *models.Operator, in ShipmentInput) (*models.Shipment, error) {
	if op == nil {
		return nil, errors.Wrap(apperrors.ErrUnauthorized, "create shipment")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	opID := op.ID
	sh := &models.Shipment{
		ID:             uuid.New(),
		UserID:         &opID,
		TrackingNumber: s.numbers.Next(),
		Status:         models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	in.apply(sh)

	if s.tx != nil {
		err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.repo.InsertShipment(ctx, sh); err != nil {
				return err
			}
			_, err := s.ledger.RecordCreation(ctx, sh)
			return err
		})
		if err != nil {
			return nil, errors.Wrap(err, "create shipment")
		}
	} else {
		if err := s.repo.InsertShipment(ctx, sh); err != nil {
			return nil, errors.Wrap(err, "create shipment")
		}
		if _, err := s.ledger.RecordCreation(ctx, sh); err != nil {
			s.log.Error("seed tracking event not recorded",
				zap.String("shipment_id", sh.ID.String()),
				zap.String("tracking_number", sh.TrackingNumber),
				zap.Error(err),
			)
			s.afterChange(ctx, sh, messages.ChangeCreated, "")
			return sh, &apperrors.PartialFailureError{Completed: "shipment create", Failed: "seed tracking event insert", Err: err}
		}
	}

	s.log.Info("shipment created",
		zap.String("shipment_id", sh.ID.String()),
		zap.String("tracking_number", sh.TrackingNumber),
		zap.String("operator_id", op.ID.String()),
	)
	s.afterChange(ctx, sh, messages.ChangeCreated, "")
	return sh, nil
}

type StatusChange struct {
	Shipment *models.Shipment      `json:"shipment"`
	Event    *models.TrackingEvent `json:"event,omitempty"`
}

// UpdateStatus sets the shipment status and appends a ledger event carrying
// the raw status value. Both inputs are validated before anything is written.
// If the event write fails after the status write succeeded (no transaction
// support), the result holds the updated shipment and the error is a
// PartialFailureError.
func (s *Service) UpdateStatus(ctx context.Context, op *models.Operator, id uuid.UUID, upd StatusUpdate) (*StatusChange, error) {
	if op == nil {
		return nil, errors.Wrap(apperrors.ErrUnauthorized, "update shipment status")
	}
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	status := models.Status(upd.Status)
	now := s.now().UTC()
	rec := ledger.RecordInput{
		ShipmentID:  id,
		Status:      models.EnumEventStatus(status),
		Location:    upd.Location,
		Description: upd.Description,
		Timestamp:   now,
	}

	var ev *models.TrackingEvent
	var partial error
	if s.tx != nil {
		err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.repo.UpdateShipmentStatus(ctx, id, status, now); err != nil {
				return err
			}
			var err error
			ev, err = s.ledger.RecordEvent(ctx, rec)
			return err
		})
		if err != nil {
			return nil, errors.Wrap(err, "update shipment status")
		}
	} else {
		if err := s.repo.UpdateShipmentStatus(ctx, id, status, now); err != nil {
			return nil, errors.Wrap(err, "update shipment status")
		}
		var err error
		ev, err = s.ledger.RecordEvent(ctx, rec)
		if err != nil {
			s.log.Error("status changed but history not recorded",
				zap.String("shipment_id", id.String()),
				zap.String("status", string(status)),
				zap.Error(err),
			)
			partial = &apperrors.PartialFailureError{Completed: "status update", Failed: "tracking event insert", Err: err}
		}
	}

	sh, err := s.repo.GetShipment(ctx, id)
	if err != nil {
		// статус уже записан; отдаём то, что знаем
		sh = &models.Shipment{ID: id, Status: status, UpdatedAt: now}
	}
	s.afterChange(ctx, sh, messages.ChangeStatusUpdated, strings.TrimSpace(upd.Location))
	return &StatusChange{Shipment: sh, Event: ev}, partial
}

// UpdateDetails overwrites addresses, contacts, package and cost. Status and
// the ledger are not touched.
func (s *Service) UpdateDetails(ctx context.Context, op *models.Operator, id uuid.UUID, in ShipmentInput) (*models.Shipment, error) {
	if op == nil {
		return nil, errors.Wrap(apperrors.ErrUnauthorized, "update shipment details")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	sh, err := s.repo.GetShipment(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "update shipment details")
	}
	in.apply(sh)
	sh.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateShipmentDetails(ctx, sh); err != nil {
		return nil, errors.Wrap(err, "update shipment details")
	}
	s.afterChange(ctx, sh, messages.ChangeDetailsUpdated, "")
	return sh, nil
}

// DeleteShipment removes the shipment. Its events go with it through the
// store's cascade.
func (s *Service) DeleteShipment(ctx context.Context, op *models.Operator, id uuid.UUID) error {
	if op == nil {
		return errors.Wrap(apperrors.ErrUnauthorized, "delete shipment")
	}
	if err := s.repo.DeleteShipment(ctx, id); err != nil {
		return errors.Wrap(err, "delete shipment")
	}
	s.log.Info("shipment deleted", zap.String("shipment_id", id.String()), zap.String("operator_id", op.ID.String()))
	s.afterChange(ctx, &models.Shipment{ID: id}, messages.ChangeDeleted, "")
	return nil
}

func (s *Service) GetShipment(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	sh, err := s.repo.GetShipment(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get shipment")
	}
	return sh, nil
}

func (s *Service) ListShipments(ctx context.Context, f ListFilter) ([]*models.Shipment, error) {
	mf := models.ShipmentFilter{Limit: f.Limit, Offset: f.Offset}
	if f.Status != "" {
		st := models.Status(f.Status)
		if !st.Valid() {
			return nil, apperrors.Validation("status", "is not a known shipment status")
		}
		mf.Status = &st
	}
	if mf.Limit <= 0 || mf.Limit > 500 {
		mf.Limit = 100
	}
	if mf.Offset < 0 {
		mf.Offset = 0
	}
	out, err := s.repo.ListShipments(ctx, mf)
	if err != nil {
		return nil, errors.Wrap(err, "list shipments")
	}
	return out, nil
}

func (s *Service) ListEvents(ctx context.Context, shipmentID uuid.UUID) ([]*models.TrackingEvent, error) {
	if _, err := s.repo.GetShipment(ctx, shipmentID); err != nil {
		return nil, errors.Wrap(err, "list tracking events")
	}
	return s.ledger.ListEvents(ctx, shipmentID)
}

func (s *Service) afterChange(ctx context.Context, sh *models.Shipment, kind messages.ChangeKind, location string) {
	if err := s.views.InvalidateShipment(ctx, sh.ID); err != nil {
		s.log.Warn("invalidate shipment views", zap.String("shipment_id", sh.ID.String()), zap.Error(err))
	}
	s.notifier.Notify(ctx, messages.ShipmentChanged{
		ShipmentID:     sh.ID,
		TrackingNumber: sh.TrackingNumber,
		Change:         kind,
		Status:         string(sh.Status),
		Origin:         sh.Origin,
		Destination:    sh.Destination,
		Location:       location,
		OccurredAt:     s.now().UTC(),
	})
}
