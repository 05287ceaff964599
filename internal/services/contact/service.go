// Package contact stores messages sent through the public contact form.
package contact

import (
	"context"
	"strings"
	"time"

	"github.com/BearBump/FlashLane/internal/apperrors"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/BearBump/FlashLane/internal/validation"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Repository interface {
	InsertMessage(ctx context.Context, m *models.ContactMessage) error
	ListMessages(ctx context.Context) ([]*models.ContactMessage, error)
	DeleteMessage(ctx context.Context, id uuid.UUID) error
}

type DashboardInvalidator interface {
	InvalidateDashboard(ctx context.Context) error
}

type SubmitInput struct {
	Name    string `json:"name" validate:"min=2,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"max=300"`
	Message string `json:"message" validate:"min=10,max=5000"`
}

type Service struct {
	repo  Repository
	views DashboardInvalidator
	now   func() time.Time
	log   *zap.Logger
}

func New(repo Repository, views DashboardInvalidator) *Service {
	return &Service{repo: repo, views: views, now: time.Now, log: zap.NewNop()}
}

func (s *Service) WithLogger(l *zap.Logger) *Service {
	s.log = l
	return s
}

// Submit validates and stores a public contact message.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*models.ContactMessage, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	m := &models.ContactMessage{
		ID:        uuid.New(),
		FullName:  in.Name,
		Email:     in.Email,
		Message:   in.Message,
		CreatedAt: s.now().UTC(),
	}
	if in.Subject != "" {
		subj := in.Subject
		m.Subject = &subj
	}
	if err := s.repo.InsertMessage(ctx, m); err != nil {
		return nil, errors.Wrap(err, "submit contact message")
	}
	s.invalidate(ctx)
	return m, nil
}

func (s *Service) List(ctx context.Context, op *models.Operator) ([]*models.ContactMessage, error) {
	if op == nil {
		return nil, errors.Wrap(apperrors.ErrUnauthorized, "list contact messages")
	}
	out, err := s.repo.ListMessages(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list contact messages")
	}
	if out == nil {
		out = []*models.ContactMessage{}
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, op *models.Operator, id uuid.UUID) error {
	if op == nil {
		return errors.Wrap(apperrors.ErrUnauthorized, "delete contact message")
	}
	if err := s.repo.DeleteMessage(ctx, id); err != nil {
		return errors.Wrap(err, "delete contact message")
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.views == nil {
		return
	}
	if err := s.views.InvalidateDashboard(ctx); err != nil {
		s.log.Warn("invalidate dashboard", zap.Error(err))
	}
}
