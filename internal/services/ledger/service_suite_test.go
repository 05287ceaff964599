package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/FlashLane/internal/apperrors"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	ledgermocks "github.com/BearBump/FlashLane/internal/services/ledger/mocks"
)

type ServiceSuite struct {
	suite.Suite

	repo  *ledgermocks.MockRepository
	views *ledgermocks.MockInvalidator
	svc   *Service
	now   time.Time
	op    *models.Operator
}

func (s *ServiceSuite) SetupTest() {
	s.repo = &ledgermocks.MockRepository{}
	s.views = &ledgermocks.MockInvalidator{}
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.svc = New(s.repo, s.views).WithClock(func() time.Time { return s.now })
	s.op = &models.Operator{ID: uuid.New()}
}

func (s *ServiceSuite) TestRecordEvent_DefaultDescription() {
	shipmentID := uuid.New()
	s.repo.On("InsertEvent", mock.Anything, mock.MatchedBy(func(e *models.TrackingEvent) bool {
		return e.ShipmentID == shipmentID &&
			e.Status == models.EnumEventStatus(models.StatusDelivered) &&
			e.Description == "Shipment status updated to Delivered" &&
			e.Location == "Berlin" &&
			e.Timestamp.Equal(s.now)
	})).Return(nil).Once()
	s.views.On("InvalidateShipment", mock.Anything, shipmentID).Return(nil).Once()

	e, err := s.svc.RecordEvent(context.Background(), RecordInput{
		ShipmentID: shipmentID,
		Status:     models.EnumEventStatus(models.StatusDelivered),
		Location:   "  Berlin ",
	})
	s.Require().NoError(err)
	s.Require().Equal("Shipment status updated to Delivered", e.Description)
	s.repo.AssertExpectations(s.T())
	s.views.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestRecordEvent_BlankLocationRejectedBeforeWrite() {
	for _, loc := range []string{"", "   ", "\t\n"} {
		_, err := s.svc.RecordEvent(context.Background(), RecordInput{
			ShipmentID: uuid.New(),
			Status:     models.EnumEventStatus(models.StatusInTransit),
			Location:   loc,
		})
		s.Require().ErrorIs(err, apperrors.ErrValidation)

		var ve *apperrors.ValidationError
		s.Require().True(errors.As(err, &ve))
		s.Require().Equal("location", ve.Field)
	}
	s.repo.AssertNotCalled(s.T(), "InsertEvent", mock.Anything, mock.Anything)
	s.views.AssertNotCalled(s.T(), "InvalidateShipment", mock.Anything, mock.Anything)
}

func (s *ServiceSuite) TestRecordCreation_SeedEvent() {
	sh := &models.Shipment{ID: uuid.New(), Origin: "Lagos", CreatedAt: s.now.Add(-time.Second)}
	s.repo.On("InsertEvent", mock.Anything, mock.MatchedBy(func(e *models.TrackingEvent) bool {
		return e.Status.Kind == models.EventStatusLabel &&
			e.Status.Label == models.CreationLabel &&
			e.Location == "Lagos" &&
			e.Description == "Shipment has been created and is awaiting pickup." &&
			e.Timestamp.Equal(sh.CreatedAt)
	})).Return(nil).Once()
	s.views.On("InvalidateShipment", mock.Anything, sh.ID).Return(nil).Once()

	_, err := s.svc.RecordCreation(context.Background(), sh)
	s.Require().NoError(err)
	s.repo.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestRecordEvent_StorageErrorPropagated() {
	cause := &apperrors.StorageError{Op: "insert tracking event", Code: "23514", Err: errors.New("check")}
	s.repo.On("InsertEvent", mock.Anything, mock.Anything).Return(cause).Once()

	_, err := s.svc.RecordEvent(context.Background(), RecordInput{
		ShipmentID: uuid.New(),
		Status:     models.LabelEventStatus("Arrived at hub"),
		Location:   "Accra",
	})
	var se *apperrors.StorageError
	s.Require().True(errors.As(err, &se))
	s.Require().Equal("23514", se.Code)
	s.views.AssertNotCalled(s.T(), "InvalidateShipment", mock.Anything, mock.Anything)
}

func (s *ServiceSuite) TestListEvents_EmptyIsNotNil() {
	id := uuid.New()
	s.repo.On("ListEvents", mock.Anything, id).Return(nil, nil).Once()

	events, err := s.svc.ListEvents(context.Background(), id)
	s.Require().NoError(err)
	s.Require().NotNil(events)
	s.Require().Empty(events)
}

func (s *ServiceSuite) TestLastLocation() {
	id := uuid.New()
	s.repo.On("ListEvents", mock.Anything, id).Return([]*models.TrackingEvent{
		{Location: "Frankfurt Hub"},
		{Location: "Lagos"},
	}, nil).Once()

	loc, err := s.svc.LastLocation(context.Background(), id)
	s.Require().NoError(err)
	s.Require().Equal("Frankfurt Hub", loc)
}

func (s *ServiceSuite) TestUpdateEvent_FullOverwrite() {
	id := uuid.New()
	shipmentID := uuid.New()
	ts := s.now.Add(-48 * time.Hour)
	s.repo.On("GetEvent", mock.Anything, id).Return(&models.TrackingEvent{
		ID: id, ShipmentID: shipmentID, Status: models.EnumEventStatus(models.StatusPickedUp),
		Location: "Old", Description: "old", Timestamp: s.now,
	}, nil).Once()
	s.repo.On("UpdateEvent", mock.Anything, mock.MatchedBy(func(e *models.TrackingEvent) bool {
		return e.ID == id && e.Location == "New" && e.Description == "" &&
			e.Status == models.LabelEventStatus("Sorted") && e.Timestamp.Equal(ts)
	})).Return(nil).Once()
	s.views.On("InvalidateShipment", mock.Anything, shipmentID).Return(nil).Once()

	_, err := s.svc.UpdateEvent(context.Background(), s.op, id, EventUpdate{
		Status: models.LabelEventStatus("Sorted"), Location: "New", Timestamp: ts,
	})
	s.Require().NoError(err)
	s.repo.AssertExpectations(s.T())
	s.views.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestDeleteEvent_InvalidatesOwner() {
	id := uuid.New()
	shipmentID := uuid.New()
	s.repo.On("DeleteEvent", mock.Anything, id).Return(shipmentID, nil).Once()
	s.views.On("InvalidateShipment", mock.Anything, shipmentID).Return(errors.New("redis down")).Once()

	// ошибка инвалидации только логируется
	s.Require().NoError(s.svc.DeleteEvent(context.Background(), s.op, id))
	s.repo.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestMutations_RequireOperator() {
	_, err := s.svc.AddEvent(context.Background(), nil, RecordInput{ShipmentID: uuid.New(), Status: models.EnumEventStatus(models.StatusPending), Location: "x"})
	s.Require().ErrorIs(err, apperrors.ErrUnauthorized)

	_, err = s.svc.UpdateEvent(context.Background(), nil, uuid.New(), EventUpdate{Status: models.EnumEventStatus(models.StatusPending), Location: "x"})
	s.Require().ErrorIs(err, apperrors.ErrUnauthorized)

	s.Require().ErrorIs(s.svc.DeleteEvent(context.Background(), nil, uuid.New()), apperrors.ErrUnauthorized)

	s.repo.AssertNotCalled(s.T(), "InsertEvent", mock.Anything, mock.Anything)
	s.repo.AssertNotCalled(s.T(), "GetEvent", mock.Anything, mock.Anything)
	s.repo.AssertNotCalled(s.T(), "UpdateEvent", mock.Anything, mock.Anything)
	s.repo.AssertNotCalled(s.T(), "DeleteEvent", mock.Anything, mock.Anything)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}
