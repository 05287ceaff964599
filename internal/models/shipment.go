package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

// Статусы отправления. Порядок в AllStatuses совпадает с порядком конвейера,
// cancelled идёт последним и в конвейер не входит.
const (
	StatusPending        Status = "pending"
	StatusPickedUp       Status = "picked_up"
	StatusInTransit      Status = "in_transit"
	StatusCustomsHold    Status = "customs_hold"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

var AllStatuses = []Status{
	StatusPending,
	StatusPickedUp,
	StatusInTransit,
	StatusCustomsHold,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// OrPending treats an absent status as pending.
func (s Status) OrPending() Status {
	if s == "" {
		return StatusPending
	}
	return s
}

// Label returns the human readable form: "out_for_delivery" -> "Out For Delivery".
func (s Status) Label() string {
	return HumanizeStatus(string(s.OrPending()))
}

func HumanizeStatus(raw string) string {
	parts := strings.Split(raw, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

type Contact struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact"`
}

type PackageDetails struct {
	Weight           float64 `json:"weight"`
	Dimensions       string  `json:"dimensions"`
	Type             string  `json:"type"`
	Description      string  `json:"description"`
	ServiceMode      string  `json:"service_mode"`
	PaymentStatus    string  `json:"payment_status"`
	ExpectedDelivery string  `json:"expected_delivery"`
}

type CostDetails struct {
	Shipping  decimal.Decimal `json:"shipping"`
	Tax       decimal.Decimal `json:"tax"`
	Insurance decimal.Decimal `json:"insurance"`
	Total     decimal.Decimal `json:"total"`
}

type Shipment struct {
	ID             uuid.UUID      `json:"id"`
	UserID         *uuid.UUID     `json:"user_id,omitempty"`
	TrackingNumber string         `json:"tracking_number"`
	Origin         string         `json:"origin"`
	Destination    string         `json:"destination"`
	Status         Status         `json:"status"`
	Shipper        Contact        `json:"shipper_details"`
	Receiver       Contact        `json:"receiver_details"`
	Package        PackageDetails `json:"package_details"`
	Cost           CostDetails    `json:"cost_details"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type ShipmentFilter struct {
	Status *Status
	Limit  int
	Offset int
}

// GeoPoint — координаты адреса, полученные геокодером.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
