package mocks

import (
	"context"
	"time"

	"github.com/BearBump/FlashLane/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) InsertShipment(ctx context.Context, sh *models.Shipment) error {
	return m.Called(ctx, sh).Error(0)
}

func (m *MockRepository) GetShipment(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	args := m.Called(ctx, id)
	return shipmentArg(args, 0), args.Error(1)
}

func (m *MockRepository) GetShipmentByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	args := m.Called(ctx, trackingNumber)
	return shipmentArg(args, 0), args.Error(1)
}

func (m *MockRepository) ListShipments(ctx context.Context, f models.ShipmentFilter) ([]*models.Shipment, error) {
	args := m.Called(ctx, f)
	var out []*models.Shipment
	if v := args.Get(0); v != nil {
		out = v.([]*models.Shipment)
	}
	return out, args.Error(1)
}

func (m *MockRepository) UpdateShipmentStatus(ctx context.Context, id uuid.UUID, status models.Status, at time.Time) error {
	return m.Called(ctx, id, status, at).Error(0)
}

func (m *MockRepository) UpdateShipmentDetails(ctx context.Context, sh *models.Shipment) error {
	return m.Called(ctx, sh).Error(0)
}

func (m *MockRepository) DeleteShipment(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) CountShipments(ctx context.Context, status *models.Status) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) ListReceivers(ctx context.Context) ([]models.Contact, error) {
	args := m.Called(ctx)
	var out []models.Contact
	if v := args.Get(0); v != nil {
		out = v.([]models.Contact)
	}
	return out, args.Error(1)
}

func shipmentArg(args mock.Arguments, i int) *models.Shipment {
	if v := args.Get(i); v != nil {
		return v.(*models.Shipment)
	}
	return nil
}
