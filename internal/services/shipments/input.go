package shipments

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/BearBump/FlashLane/internal/cost"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/BearBump/FlashLane/internal/validation"
	"github.com/pkg/errors"
)

// FormValue is a flat form field that may arrive as a JSON string, number or
// null. It is kept as text; numeric fields are parsed permissively later.
type FormValue string

func (v *FormValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return errors.Wrap(err, "decode form value")
		}
		*v = FormValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.Wrap(err, "form value must be a string or a number")
	}
	*v = FormValue(n.String())
	return nil
}

func (v FormValue) String() string { return strings.TrimSpace(string(v)) }

// ShipmentInput mirrors the operator shipment form. Costs and weight are
// coerced to zero when empty or unparseable; any client-side total is ignored.
type ShipmentInput struct {
	Origin      string `json:"origin" validate:"notblank,max=500"`
	Destination string `json:"destination" validate:"notblank,max=500"`

	ShipperName    string `json:"shipper_name" validate:"max=200"`
	ShipperAddress string `json:"shipper_address" validate:"max=500"`
	ShipperContact string `json:"shipper_contact" validate:"max=200"`

	ReceiverName    string `json:"receiver_name" validate:"max=200"`
	ReceiverAddress string `json:"receiver_address" validate:"max=500"`
	ReceiverContact string `json:"receiver_contact" validate:"max=200"`

	Weight           FormValue `json:"weight"`
	Dimensions       string    `json:"dimensions" validate:"max=100"`
	PackageType      string    `json:"package_type" validate:"max=100"`
	Description      string    `json:"description" validate:"max=2000"`
	ServiceMode      string    `json:"service_mode" validate:"omitempty,oneof=Standard Express Priority Economy"`
	PaymentStatus    string    `json:"payment_status" validate:"omitempty,oneof=Paid Pending"`
	ExpectedDelivery string    `json:"expected_delivery" validate:"max=50"`

	ShippingCost FormValue `json:"shipping_cost"`
	Tax          FormValue `json:"tax"`
	Insurance    FormValue `json:"insurance"`
	Total        FormValue `json:"total"`
}

func (in ShipmentInput) Validate() error {
	return validation.Struct(in)
}

func parseWeight(v FormValue) float64 {
	f, err := strconv.ParseFloat(v.String(), 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

// apply writes the form onto sh, leaving identity and status alone.
func (in ShipmentInput) apply(sh *models.Shipment) {
	sh.Origin = strings.TrimSpace(in.Origin)
	sh.Destination = strings.TrimSpace(in.Destination)
	sh.Shipper = models.Contact{
		Name:    strings.TrimSpace(in.ShipperName),
		Address: strings.TrimSpace(in.ShipperAddress),
		Contact: strings.TrimSpace(in.ShipperContact),
	}
	sh.Receiver = models.Contact{
		Name:    strings.TrimSpace(in.ReceiverName),
		Address: strings.TrimSpace(in.ReceiverAddress),
		Contact: strings.TrimSpace(in.ReceiverContact),
	}
	sh.Package = models.PackageDetails{
		Weight:           parseWeight(in.Weight),
		Dimensions:       strings.TrimSpace(in.Dimensions),
		Type:             strings.TrimSpace(in.PackageType),
		Description:      strings.TrimSpace(in.Description),
		ServiceMode:      orDefault(in.ServiceMode, "Standard"),
		PaymentStatus:    orDefault(in.PaymentStatus, "Pending"),
		ExpectedDelivery: strings.TrimSpace(in.ExpectedDelivery),
	}
	sh.Cost = cost.FromInput(in.ShippingCost.String(), in.Tax.String(), in.Insurance.String())
}

// StatusUpdate — форма смены статуса.
type StatusUpdate struct {
	Status      string `json:"status" validate:"required,shipment_status"`
	Location    string `json:"location" validate:"notblank,max=500"`
	Description string `json:"description" validate:"max=2000"`
}

func (u StatusUpdate) Validate() error {
	return validation.Struct(u)
}

type ListFilter struct {
	Status string
	Limit  int
	Offset int
}
