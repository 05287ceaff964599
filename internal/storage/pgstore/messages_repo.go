package pgstore

import (
	"context"

	"github.com/BearBump/FlashLane/internal/apperrors"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func (s *Storage) InsertMessage(ctx context.Context, m *models.ContactMessage) error {
	_, err := s.q(ctx).Exec(ctx, `
INSERT INTO contact_messages (id, full_name, email, subject, message, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, m.ID, m.FullName, m.Email, m.Subject, m.Message, m.CreatedAt)
	return wrapErr("insert contact message", err)
}

func (s *Storage) ListMessages(ctx context.Context) ([]*models.ContactMessage, error) {
	rows, err := s.q(ctx).Query(ctx, `
SELECT id, full_name, email, subject, message, created_at
FROM contact_messages
ORDER BY created_at DESC
`)
	if err != nil {
		return nil, wrapErr("select contact messages", err)
	}
	defer rows.Close()

	var out []*models.ContactMessage
	for rows.Next() {
		var m models.ContactMessage
		if err := rows.Scan(&m.ID, &m.FullName, &m.Email, &m.Subject, &m.Message, &m.CreatedAt); err != nil {
			return nil, wrapErr("scan contact message", err)
		}
		out = append(out, &m)
	}
	if rows.Err() != nil {
		return nil, wrapErr("rows", rows.Err())
	}
	return out, nil
}

func (s *Storage) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete contact message", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrap(apperrors.ErrNotFound, "delete contact message")
	}
	return nil
}

func (s *Storage) CountMessages(ctx context.Context) (int, error) {
	var n int
	err := s.q(ctx).QueryRow(ctx, `SELECT count(*) FROM contact_messages`).Scan(&n)
	return n, wrapErr("count contact messages", err)
}
