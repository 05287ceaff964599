// Package ledger keeps the per-shipment tracking event history.
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/BearBump/FlashLane/internal/apperrors"
	"github.com/BearBump/FlashLane/internal/broker/messages"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const creationDescription = "Shipment has been created and is awaiting pickup."

type Repository interface {
	InsertEvent(ctx context.Context, e *models.TrackingEvent) error
	ListEvents(ctx context.Context, shipmentID uuid.UUID) ([]*models.TrackingEvent, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*models.TrackingEvent, error)
	UpdateEvent(ctx context.Context, e *models.TrackingEvent) error
	DeleteEvent(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// Invalidator drops cached views that include the shipment.
type Invalidator interface {
	InvalidateShipment(ctx context.Context, shipmentID uuid.UUID) error
}

type RecordInput struct {
	ShipmentID  uuid.UUID
	Status      models.EventStatus
	Location    string
	Description string
	Timestamp   time.Time
}

type EventUpdate struct {
	Status      models.EventStatus
	Location    string
	Description string
	Timestamp   time.Time
}

type Service struct {
	repo     Repository
	views    Invalidator
	notifier *messages.Notifier
	now      func() time.Time
	log      *zap.Logger
}

func New(repo Repository, views Invalidator) *Service {
	return &Service{repo: repo, views: views, now: time.Now, log: zap.NewNop()}
}

func (s *Service) WithLogger(l *zap.Logger) *Service {
	s.log = l
	return s
}

// WithNotifier announces operator-made event changes so their locations get
// geocoded.
func (s *Service) WithNotifier(n *messages.Notifier) *Service {
	s.notifier = n
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// DefaultDescription — "Shipment status updated to Customs Hold".
func DefaultDescription(st models.EventStatus) string {
	return "Shipment status updated to " + st.Display()
}

// RecordEvent appends an event. Location is mandatory; an empty description
// is replaced with DefaultDescription.
func (s *Service) RecordEvent(ctx context.Context, in RecordInput) (*models.TrackingEvent, error) {
	e, err := s.buildEvent(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.InsertEvent(ctx, e); err != nil {
		return nil, errors.Wrap(err, "record tracking event")
	}
	s.invalidate(ctx, e.ShipmentID)
	return e, nil
}

// RecordCreation writes the seed event of a new shipment.
func (s *Service) RecordCreation(ctx context.Context, sh *models.Shipment) (*models.TrackingEvent, error) {
	return s.RecordEvent(ctx, RecordInput{
		ShipmentID:  sh.ID,
		Status:      models.LabelEventStatus(models.CreationLabel),
		Location:    sh.Origin,
		Description: creationDescription,
		Timestamp:   sh.CreatedAt,
	})
}

func (s *Service) ListEvents(ctx context.Context, shipmentID uuid.UUID) ([]*models.TrackingEvent, error) {
	events, err := s.repo.ListEvents(ctx, shipmentID)
	if err != nil {
		return nil, errors.Wrap(err, "list tracking events")
	}
	if events == nil {
		events = []*models.TrackingEvent{}
	}
	return events, nil
}

// LastLocation returns the location of the newest event, "" when there is none.
func (s *Service) LastLocation(ctx context.Context, shipmentID uuid.UUID) (string, error) {
	events, err := s.ListEvents(ctx, shipmentID)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return "", nil
	}
	return events[0].Location, nil
}

// AddEvent is the operator form of RecordEvent.
func (s *Service) AddEvent(ctx context.Context, op *models.Operator, in RecordInput) (*models.TrackingEvent, error) {
	if op == nil {
		return nil, errors.Wrap(apperrors.ErrUnauthorized, "add tracking event")
	}
	e, err := s.RecordEvent(ctx, in)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, e)
	return e, nil
}

// UpdateEvent overwrites status, location, description and timestamp.
func (s *Service) UpdateEvent(ctx context.Context, op *models.Operator, id uuid.UUID, upd EventUpdate) (*models.TrackingEvent, error) {
	if op == nil {
		return nil, errors.Wrap(apperrors.ErrUnauthorized, "update tracking event")
	}
	if upd.Status.IsZero() {
		return nil, apperrors.Validation("status", "is required")
	}
	if strings.TrimSpace(upd.Location) == "" {
		return nil, apperrors.Validation("location", "is required")
	}

	cur, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "update tracking event")
	}
	cur.Status = upd.Status
	cur.Location = strings.TrimSpace(upd.Location)
	cur.Description = strings.TrimSpace(upd.Description)
	if !upd.Timestamp.IsZero() {
		cur.Timestamp = upd.Timestamp.UTC()
	}
	if err := s.repo.UpdateEvent(ctx, cur); err != nil {
		return nil, errors.Wrap(err, "update tracking event")
	}
	s.invalidate(ctx, cur.ShipmentID)
	s.notify(ctx, cur)
	return cur, nil
}

// DeleteEvent removes one event. The shipment status is left as is even if
// the ledger no longer agrees with it.
func (s *Service) DeleteEvent(ctx context.Context, op *models.Operator, id uuid.UUID) error {
	if op == nil {
		return errors.Wrap(apperrors.ErrUnauthorized, "delete tracking event")
	}
	shipmentID, err := s.repo.DeleteEvent(ctx, id)
	if err != nil {
		return errors.Wrap(err, "delete tracking event")
	}
	s.invalidate(ctx, shipmentID)
	return nil
}

func (s *Service) buildEvent(in RecordInput) (*models.TrackingEvent, error) {
	if in.ShipmentID == uuid.Nil {
		return nil, apperrors.Validation("shipment_id", "is required")
	}
	if in.Status.IsZero() {
		return nil, apperrors.Validation("status", "is required")
	}
	loc := strings.TrimSpace(in.Location)
	if loc == "" {
		return nil, apperrors.Validation("location", "is required")
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		desc = DefaultDescription(in.Status)
	}
	ts := in.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	return &models.TrackingEvent{
		ID:          uuid.New(),
		ShipmentID:  in.ShipmentID,
		Status:      in.Status,
		Location:    loc,
		Description: desc,
		Timestamp:   ts.UTC(),
	}, nil
}

func (s *Service) invalidate(ctx context.Context, shipmentID uuid.UUID) {
	if s.views == nil {
		return
	}
	if err := s.views.InvalidateShipment(ctx, shipmentID); err != nil {
		s.log.Warn("invalidate shipment views", zap.String("shipment_id", shipmentID.String()), zap.Error(err))
	}
}

func (s *Service) notify(ctx context.Context, e *models.TrackingEvent) {
	s.notifier.Notify(ctx, messages.ShipmentChanged{
		ShipmentID: e.ShipmentID,
		Change:     messages.ChangeEventRecorded,
		Status:     e.Status.Raw(),
		Location:   e.Location,
		OccurredAt: s.now().UTC(),
	})
}
