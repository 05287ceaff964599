// Package memstore keeps shipments, events and messages in process memory.
// It backs the API when no database is configured and the service tests.
// It has no transactions.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BearBump/FlashLane/internal/apperrors"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Store struct {
	mu        sync.RWMutex
	shipments map[uuid.UUID]*models.Shipment
	events    map[uuid.UUID]*models.TrackingEvent
	messages  map[uuid.UUID]*models.ContactMessage
}

func New() *Store {
	return &Store{
		shipments: make(map[uuid.UUID]*models.Shipment),
		events:    make(map[uuid.UUID]*models.TrackingEvent),
		messages:  make(map[uuid.UUID]*models.ContactMessage),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func cloneShipment(sh *models.Shipment) *models.Shipment {
	c := *sh
	if sh.UserID != nil {
		id := *sh.UserID
		c.UserID = &id
	}
	return &c
}

func (s *Store) InsertShipment(_ context.Context, sh *models.Shipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shipments[sh.ID]; ok {
		return &apperrors.StorageError{Op: "insert shipment", Code: "23505", Err: errors.New("duplicate id")}
	}
	for _, other := range s.shipments {
		if other.TrackingNumber == sh.TrackingNumber {
			return &apperrors.StorageError{Op: "insert shipment", Code: "23505", Err: errors.New("duplicate tracking_number")}
		}
	}
	c := cloneShipment(sh)
	c.Status = c.Status.OrPending()
	s.shipments[sh.ID] = c
	return nil
}

func (s *Store) GetShipment(_ context.Context, id uuid.UUID) (*models.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.shipments[id]
	if !ok {
		return nil, errors.Wrap(apperrors.ErrNotFound, "select shipment")
	}
	return cloneShipment(sh), nil
}

func (s *Store) GetShipmentByTrackingNumber(_ context.Context, trackingNumber string) (*models.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sh := range s.shipments {
		if sh.TrackingNumber == trackingNumber {
			return cloneShipment(sh), nil
		}
	}
	return nil, errors.Wrap(apperrors.ErrNotFound, "select shipment by tracking number")
}

func (s *Store) sortedShipments() []*models.Shipment {
	out := make([]*models.Shipment, 0, len(s.shipments))
	for _, sh := range s.shipments {
		out = append(out, sh)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *Store) ListShipments(_ context.Context, f models.ShipmentFilter) ([]*models.Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	out := make([]*models.Shipment, 0)
	skipped := 0
	for _, sh := range s.sortedShipments() {
		if f.Status != nil && sh.Status != *f.Status {
			continue
		}
		if skipped < f.Offset {
			skipped++
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, cloneShipment(sh))
	}
	return out, nil
}

func (s *Store) UpdateShipmentStatus(_ context.Context, id uuid.UUID, status models.Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shipments[id]
	if !ok {
		return errors.Wrap(apperrors.ErrNotFound, "update shipment status")
	}
	sh.Status = status
	sh.UpdatedAt = at
	return nil
}

func (s *Store) UpdateShipmentDetails(_ context.Context, upd *models.Shipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shipments[upd.ID]
	if !ok {
		return errors.Wrap(apperrors.ErrNotFound, "update shipment details")
	}
	sh.Origin = upd.Origin
	sh.Destination = upd.Destination
	sh.Shipper = upd.Shipper
	sh.Receiver = upd.Receiver
	sh.Package = upd.Package
	sh.Cost = upd.Cost
	sh.UpdatedAt = upd.UpdatedAt
	return nil
}

// DeleteShipment удаляет и события отправления, как ON DELETE CASCADE.
func (s *Store) DeleteShipment(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shipments[id]; !ok {
		return errors.Wrap(apperrors.ErrNotFound, "delete shipment")
	}
	delete(s.shipments, id)
	for eid, e := range s.events {
		if e.ShipmentID == id {
			delete(s.events, eid)
		}
	}
	return nil
}

func (s *Store) CountShipments(_ context.Context, status *models.Status) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if status == nil {
		return len(s.shipments), nil
	}
	n := 0
	for _, sh := range s.shipments {
		if sh.Status == *status {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListReceivers(_ context.Context) ([]models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Contact, 0, len(s.shipments))
	for _, sh := range s.sortedShipments() {
		out = append(out, sh.Receiver)
	}
	return out, nil
}

func (s *Store) InsertEvent(_ context.Context, e *models.TrackingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shipments[e.ShipmentID]; !ok {
		return errors.Wrapf(apperrors.ErrNotFound, "insert tracking event: shipment %s", e.ShipmentID)
	}
	if e.Status.IsZero() || strings.TrimSpace(e.Location) == "" {
		return &apperrors.StorageError{Op: "insert tracking event", Code: "23514", Err: errors.New("check constraint violated")}
	}
	c := *e
	s.events[e.ID] = &c
	return nil
}

func (s *Store) ListEvents(_ context.Context, shipmentID uuid.UUID) ([]*models.TrackingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TrackingEvent
	for _, e := range s.events {
		if e.ShipmentID == shipmentID {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (s *Store) GetEvent(_ context.Context, id uuid.UUID) (*models.TrackingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, errors.Wrap(apperrors.ErrNotFound, "select tracking event")
	}
	c := *e
	return &c, nil
}

func (s *Store) UpdateEvent(_ context.Context, upd *models.TrackingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[upd.ID]
	if !ok {
		return errors.Wrap(apperrors.ErrNotFound, "update tracking event")
	}
	e.Status = upd.Status
	e.Location = upd.Location
	e.Description = upd.Description
	e.Timestamp = upd.Timestamp
	return nil
}

func (s *Store) DeleteEvent(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return uuid.Nil, errors.Wrap(apperrors.ErrNotFound, "delete tracking event")
	}
	delete(s.events, id)
	return e.ShipmentID, nil
}

func (s *Store) InsertMessage(_ context.Context, m *models.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *m
	s.messages[m.ID] = &c
	return nil
}

func (s *Store) ListMessages(_ context.Context) ([]*models.ContactMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.ContactMessage, 0, len(s.messages))
	for _, m := range s.messages {
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteMessage(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[id]; !ok {
		return errors.Wrap(apperrors.ErrNotFound, "delete contact message")
	}
	delete(s.messages, id)
	return nil
}

func (s *Store) CountMessages(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages), nil
}
