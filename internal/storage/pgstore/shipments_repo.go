package pgstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BearBump/FlashLane/internal/apperrors"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const shipmentColumns = `
  id, user_id, tracking_number, origin, destination, status,
  shipper_details, receiver_details, package_details, cost_details,
  created_at, updated_at`

type shipmentBlocks struct {
	shipper, receiver, pkg, cost []byte
}

func marshalBlocks(sh *models.Shipment) (shipmentBlocks, error) {
	var b shipmentBlocks
	var err error
	if b.shipper, err = json.Marshal(sh.Shipper); err != nil {
		return b, errors.Wrap(err, "marshal shipper_details")
	}
	if b.receiver, err = json.Marshal(sh.Receiver); err != nil {
		return b, errors.Wrap(err, "marshal receiver_details")
	}
	if b.pkg, err = json.Marshal(sh.Package); err != nil {
		return b, errors.Wrap(err, "marshal package_details")
	}
	if b.cost, err = json.Marshal(sh.Cost); err != nil {
		return b, errors.Wrap(err, "marshal cost_details")
	}
	return b, nil
}

func scanShipment(row pgx.Row) (*models.Shipment, error) {
	var sh models.Shipment
	var status *string
	var b shipmentBlocks
	if err := row.Scan(
		&sh.ID, &sh.UserID, &sh.TrackingNumber, &sh.Origin, &sh.Destination, &status,
		&b.shipper, &b.receiver, &b.pkg, &b.cost,
		&sh.CreatedAt, &sh.UpdatedAt,
	); err != nil {
		return nil, err
	}
	// NULL в status читается как pending
	if status != nil {
		sh.Status = models.Status(*status)
	}
	sh.Status = sh.Status.OrPending()

	for _, blk := range []struct {
		raw []byte
		dst any
	}{
		{b.shipper, &sh.Shipper},
		{b.receiver, &sh.Receiver},
		{b.pkg, &sh.Package},
		{b.cost, &sh.Cost},
	} {
		if len(blk.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(blk.raw, blk.dst); err != nil {
			return nil, errors.Wrap(err, "decode shipment block")
		}
	}
	return &sh, nil
}

func (s *Storage) InsertShipment(ctx context.Context, sh *models.Shipment) error {
	b, err := marshalBlocks(sh)
	if err != nil {
		return err
	}
	_, err = s.q(ctx).Exec(ctx, `
INSERT INTO shipments (
  id, user_id, tracking_number, origin, destination, status,
  shipper_details, receiver_details, package_details, cost_details,
  created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`, sh.ID, sh.UserID, sh.TrackingNumber, sh.Origin, sh.Destination, string(sh.Status.OrPending()),
		b.shipper, b.receiver, b.pkg, b.cost, sh.CreatedAt, sh.UpdatedAt)
	return wrapErr("insert shipment", err)
}

func (s *Storage) GetShipment(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	sh, err := scanShipment(s.q(ctx).QueryRow(ctx, `SELECT`+shipmentColumns+` FROM shipments WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("select shipment", err)
	}
	return sh, nil
}

func (s *Storage) GetShipmentByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	sh, err := scanShipment(s.q(ctx).QueryRow(ctx, `SELECT`+shipmentColumns+` FROM shipments WHERE tracking_number = $1`, trackingNumber))
	if err != nil {
		return nil, wrapErr("select shipment by tracking number", err)
	}
	return sh, nil
}

func (s *Storage) ListShipments(ctx context.Context, f models.ShipmentFilter) ([]*models.Shipment, error) {
	var status *string
	if f.Status != nil {
		v := string(*f.Status)
		status = &v
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.q(ctx).Query(ctx, `SELECT`+shipmentColumns+`
FROM shipments
WHERE ($1::text IS NULL OR COALESCE(status, 'pending') = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`, status, limit, f.Offset)
	if err != nil {
		return nil, wrapErr("select shipments", err)
	}
	defer rows.Close()

	out := make([]*models.Shipment, 0, limit)
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, wrapErr("scan shipment", err)
		}
		out = append(out, sh)
	}
	if rows.Err() != nil {
		return nil, wrapErr("rows", rows.Err())
	}
	return out, nil
}

func (s *Storage) UpdateShipmentStatus(ctx context.Context, id uuid.UUID, status models.Status, at time.Time) error {
	tag, err := s.q(ctx).Exec(ctx, `UPDATE shipments SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at)
	if err != nil {
		return wrapErr("update shipment status", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrap(apperrors.ErrNotFound, "update shipment status")
	}
	return nil
}

func (s *Storage) UpdateShipmentDetails(ctx context.Context, sh *models.Shipment) error {
	b, err := marshalBlocks(sh)
	if err != nil {
		return err
	}
	tag, err := s.q(ctx).Exec(ctx, `
UPDATE shipments SET
  origin = $2, destination = $3,
  shipper_details = $4, receiver_details = $5, package_details = $6, cost_details = $7,
  updated_at = $8
WHERE id = $1
`, sh.ID, sh.Origin, sh.Destination, b.shipper, b.receiver, b.pkg, b.cost, sh.UpdatedAt)
	if err != nil {
		return wrapErr("update shipment details", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrap(apperrors.ErrNotFound, "update shipment details")
	}
	return nil
}

// DeleteShipment удаляет отправление; события уходят каскадом (ON DELETE CASCADE).
func (s *Storage) DeleteShipment(ctx context.Context, id uuid.UUID) error {
	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM shipments WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete shipment", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrap(apperrors.ErrNotFound, "delete shipment")
	}
	return nil
}

func (s *Storage) CountShipments(ctx context.Context, status *models.Status) (int, error) {
	var st *string
	if status != nil {
		v := string(*status)
		st = &v
	}
	var n int
	err := s.q(ctx).QueryRow(ctx, `SELECT count(*) FROM shipments WHERE ($1::text IS NULL OR COALESCE(status, 'pending') = $1)`, st).Scan(&n)
	return n, wrapErr("count shipments", err)
}

// ListReceivers returns receiver blocks of all shipments, newest shipment first.
func (s *Storage) ListReceivers(ctx context.Context) ([]models.Contact, error) {
	rows, err := s.q(ctx).Query(ctx, `SELECT receiver_details FROM shipments ORDER BY created_at DESC`)
	if err != nil {
		return nil, wrapErr("select receivers", err)
	}
	defer rows.Close()

	var out []models.Contact
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, wrapErr("scan receiver", err)
		}
		var c models.Contact
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &c); err != nil {
				return nil, errors.Wrap(err, "decode receiver_details")
			}
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, wrapErr("rows", rows.Err())
	}
	return out, nil
}
