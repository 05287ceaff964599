package messages

import (
	"time"

	"github.com/google/uuid"
)

type ChangeKind string

const (
	ChangeCreated        ChangeKind = "created"
	ChangeStatusUpdated  ChangeKind = "status_updated"
	ChangeDetailsUpdated ChangeKind = "details_updated"
	ChangeDeleted        ChangeKind = "deleted"
	ChangeEventRecorded  ChangeKind = "event_recorded"
)

// ShipmentChanged публикуется после каждой успешной мутации отправления.
// Воркер геокодирует адреса из сообщения.
type ShipmentChanged struct {
	ShipmentID     uuid.UUID  `json:"shipment_id"`
	TrackingNumber string     `json:"tracking_number,omitempty"`
	Change         ChangeKind `json:"change"`
	Status         string     `json:"status,omitempty"`
	Origin         string     `json:"origin,omitempty"`
	Destination    string     `json:"destination,omitempty"`
	Location       string     `json:"location,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

// Addresses returns the non-empty addresses worth geocoding.
func (m ShipmentChanged) Addresses() []string {
	var out []string
	seen := map[string]struct{}{}
	for _, a := range []string{m.Origin, m.Destination, m.Location} {
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
