package mocks

import (
	"context"

	"github.com/BearBump/FlashLane/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) InsertEvent(ctx context.Context, e *models.TrackingEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockRepository) ListEvents(ctx context.Context, shipmentID uuid.UUID) ([]*models.TrackingEvent, error) {
	args := m.Called(ctx, shipmentID)
	var out []*models.TrackingEvent
	if v := args.Get(0); v != nil {
		out = v.([]*models.TrackingEvent)
	}
	return out, args.Error(1)
}

func (m *MockRepository) GetEvent(ctx context.Context, id uuid.UUID) (*models.TrackingEvent, error) {
	args := m.Called(ctx, id)
	var e *models.TrackingEvent
	if v := args.Get(0); v != nil {
		e = v.(*models.TrackingEvent)
	}
	return e, args.Error(1)
}

func (m *MockRepository) UpdateEvent(ctx context.Context, e *models.TrackingEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockRepository) DeleteEvent(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) InvalidateShipment(ctx context.Context, shipmentID uuid.UUID) error {
	return m.Called(ctx, shipmentID).Error(0)
}
