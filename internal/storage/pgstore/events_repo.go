package pgstore

import (
	"context"

	"github.com/BearBump/FlashLane/internal/apperrors"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const foreignKeyViolation = "23503"

func scanEvent(row pgx.Row) (*models.TrackingEvent, error) {
	var e models.TrackingEvent
	var status string
	if err := row.Scan(&e.ID, &e.ShipmentID, &status, &e.Location, &e.Description, &e.Timestamp); err != nil {
		return nil, err
	}
	e.Status = models.ParseEventStatus(status)
	return &e, nil
}

func (s *Storage) InsertEvent(ctx context.Context, e *models.TrackingEvent) error {
	_, err := s.q(ctx).Exec(ctx, `
INSERT INTO tracking_events (id, shipment_id, status, location, description, event_time)
VALUES ($1,$2,$3,$4,$5,$6)
`, e.ID, e.ShipmentID, e.Status.Raw(), e.Location, e.Description, e.Timestamp)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		// единственный FK у событий ведёт на shipments
		return errors.Wrapf(apperrors.ErrNotFound, "insert tracking event: shipment %s", e.ShipmentID)
	}
	return wrapErr("insert tracking event", err)
}

// ListEvents — история отправления, новые сверху.
func (s *Storage) ListEvents(ctx context.Context, shipmentID uuid.UUID) ([]*models.TrackingEvent, error) {
	rows, err := s.q(ctx).Query(ctx, `
SELECT id, shipment_id, status, location, description, event_time
FROM tracking_events
WHERE shipment_id = $1
ORDER BY event_time DESC, id
`, shipmentID)
	if err != nil {
		return nil, wrapErr("select tracking events", err)
	}
	defer rows.Close()

	var out []*models.TrackingEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, wrapErr("scan tracking event", err)
		}
		out = append(out, e)
	}
	if rows.Err() != nil {
		return nil, wrapErr("rows", rows.Err())
	}
	return out, nil
}

func (s *Storage) GetEvent(ctx context.Context, id uuid.UUID) (*models.TrackingEvent, error) {
	e, err := scanEvent(s.q(ctx).QueryRow(ctx, `
SELECT id, shipment_id, status, location, description, event_time
FROM tracking_events WHERE id = $1
`, id))
	if err != nil {
		return nil, wrapErr("select tracking event", err)
	}
	return e, nil
}

func (s *Storage) UpdateEvent(ctx context.Context, e *models.TrackingEvent) error {
	tag, err := s.q(ctx).Exec(ctx, `
UPDATE tracking_events SET status = $2, location = $3, description = $4, event_time = $5
WHERE id = $1
`, e.ID, e.Status.Raw(), e.Location, e.Description, e.Timestamp)
	if err != nil {
		return wrapErr("update tracking event", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrap(apperrors.ErrNotFound, "update tracking event")
	}
	return nil
}

// DeleteEvent returns the owning shipment id. The shipment row is not touched.
func (s *Storage) DeleteEvent(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var shipmentID uuid.UUID
	err := s.q(ctx).QueryRow(ctx, `DELETE FROM tracking_events WHERE id = $1 RETURNING shipment_id`, id).Scan(&shipmentID)
	if err != nil {
		return uuid.Nil, wrapErr("delete tracking event", err)
	}
	return shipmentID, nil
}
