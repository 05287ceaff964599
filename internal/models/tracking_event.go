package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// CreationLabel is written into the first event of every shipment.
const CreationLabel = "Shipment Created"

type EventStatusKind string

const (
	// EventStatusEnum — значение из перечня статусов отправления.
	EventStatusEnum EventStatusKind = "status"
	// EventStatusLabel — произвольная подпись ("Shipment Created" и т.п.).
	EventStatusLabel EventStatusKind = "label"
)

// EventStatus is the status column of a tracking event. In storage it is a
// single text value; on read it is classified as either an enum status or a
// free-form label so renderers do not have to guess.
type EventStatus struct {
	Kind   EventStatusKind
	Status Status
	Label  string
}

func EnumEventStatus(s Status) EventStatus {
	return EventStatus{Kind: EventStatusEnum, Status: s}
}

func LabelEventStatus(label string) EventStatus {
	return EventStatus{Kind: EventStatusLabel, Label: label}
}

func ParseEventStatus(raw string) EventStatus {
	if s := Status(raw); s.Valid() {
		return EnumEventStatus(s)
	}
	return LabelEventStatus(raw)
}

// Raw is the value persisted in the store.
func (e EventStatus) Raw() string {
	if e.Kind == EventStatusEnum {
		return string(e.Status)
	}
	return e.Label
}

func (e EventStatus) Display() string {
	if e.Kind == EventStatusEnum {
		return e.Status.Label()
	}
	return e.Label
}

func (e EventStatus) IsZero() bool {
	return e.Raw() == ""
}

type eventStatusJSON struct {
	Kind    EventStatusKind `json:"kind"`
	Value   string          `json:"value"`
	Display string          `json:"display"`
}

func (e EventStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventStatusJSON{Kind: e.Kind, Value: e.Raw(), Display: e.Display()})
}

// UnmarshalJSON accepts either the object form or a bare string.
func (e *EventStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err == nil {
		*e = ParseEventStatus(raw)
		return nil
	}
	var obj eventStatusJSON
	if err := json.Unmarshal(b, &obj); err != nil {
		return errors.Wrap(err, "decode event status")
	}
	switch obj.Kind {
	case EventStatusLabel:
		*e = LabelEventStatus(obj.Value)
	default:
		*e = ParseEventStatus(obj.Value)
	}
	return nil
}

type TrackingEvent struct {
	ID          uuid.UUID   `json:"id"`
	ShipmentID  uuid.UUID   `json:"shipment_id"`
	Status      EventStatus `json:"status"`
	Location    string      `json:"location"`
	Description string      `json:"description"`
	Timestamp   time.Time   `json:"timestamp"`
}
