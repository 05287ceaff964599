package pgstore

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS shipments (
  id UUID PRIMARY KEY,
  user_id UUID NULL,
  tracking_number TEXT NOT NULL UNIQUE,
  origin TEXT NOT NULL DEFAULT '',
  destination TEXT NOT NULL DEFAULT '',
  status TEXT NULL CHECK (status IN ('pending','picked_up','in_transit','customs_hold','out_for_delivery','delivered','cancelled')),
  shipper_details JSONB NOT NULL DEFAULT '{}'::jsonb,
  receiver_details JSONB NOT NULL DEFAULT '{}'::jsonb,
  package_details JSONB NOT NULL DEFAULT '{}'::jsonb,
  cost_details JSONB NOT NULL DEFAULT '{}'::jsonb,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_shipments_created_at ON shipments(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_shipments_status ON shipments(status)`,
		`
CREATE TABLE IF NOT EXISTS tracking_events (
  id UUID PRIMARY KEY,
  shipment_id UUID NOT NULL REFERENCES shipments(id) ON DELETE CASCADE,
  status TEXT NOT NULL CHECK (btrim(status) <> ''),
  location TEXT NOT NULL DEFAULT '' CHECK (btrim(location) <> ''),
  description TEXT NOT NULL DEFAULT '',
  event_time TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_events_shipment_id_event_time ON tracking_events(shipment_id, event_time DESC)`,
		`
CREATE TABLE IF NOT EXISTS contact_messages (
  id UUID PRIMARY KEY,
  full_name TEXT NOT NULL,
  email TEXT NOT NULL,
  subject TEXT NULL,
  message TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_contact_messages_created_at ON contact_messages(created_at DESC)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
