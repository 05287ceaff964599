// Package invoice renders the printable receipt for a shipment.
package invoice

import (
	"time"

	"github.com/BearBump/FlashLane/internal/cost"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/shopspring/decimal"
)

const (
	Brand     = "FlashLane Logistics"
	dateStyle = "January 2, 2006"
	na        = "N/A"
)

type Party struct {
	Name    string
	Address string
	Contact string
}

type LineItem struct {
	Service     string
	Description string
	Type        string
	Shipping    string
	Tax         string
	Total       string
}

// View — всё, что нужно шаблону; суммы уже отформатированы.
type View struct {
	Brand          string
	GeneratedOn    string
	TrackingNumber string
	ShipmentDate   string
	Sender         Party
	Receiver       Party
	ServiceMode    string
	Weight         string
	PaymentStatus  string
	Item           LineItem
	Subtotal       string
	Tax            string
	Insurance      string
	Total          string
	// Reconciled is false when the stored total differs from the component sum.
	// The stored total is still what the invoice shows.
	Reconciled bool
}

func Build(sh *models.Shipment, now time.Time) View {
	pkg := sh.Package
	c := sh.Cost

	mode := orDefault(pkg.ServiceMode, "Standard")
	v := View{
		Brand:          Brand,
		GeneratedOn:    now.Format(dateStyle),
		TrackingNumber: sh.TrackingNumber,
		Sender:         party(sh.Shipper),
		Receiver:       party(sh.Receiver),
		ServiceMode:    mode,
		Weight:         decimal.NewFromFloat(pkg.Weight).String() + " kg",
		PaymentStatus:  orDefault(pkg.PaymentStatus, "Pending"),
		Item: LineItem{
			Service:     "FlashLane " + mode + " Delivery",
			Description: orDefault(pkg.Description, "Standard logistics services"),
			Type:        orDefault(pkg.Type, "Package"),
			Shipping:    cost.Format(c.Shipping),
			Tax:         cost.Format(c.Tax),
			Total:       cost.Format(c.Total),
		},
		Subtotal:   cost.Format(c.Shipping),
		Tax:        cost.Format(c.Tax),
		Insurance:  cost.Format(c.Insurance),
		Total:      cost.Format(c.Total),
		Reconciled: cost.Reconciles(c),
	}
	if !sh.CreatedAt.IsZero() {
		v.ShipmentDate = sh.CreatedAt.Format(dateStyle)
	} else {
		v.ShipmentDate = na
	}
	return v
}

func party(c models.Contact) Party {
	return Party{
		Name:    orDefault(c.Name, na),
		Address: orDefault(c.Address, na),
		Contact: orDefault(c.Contact, na),
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

type Row struct {
	ShipmentID     string    `json:"shipment_id"`
	TrackingNumber string    `json:"tracking_number"`
	Customer       string    `json:"customer"`
	Amount         string    `json:"amount"`
	PaymentStatus  string    `json:"payment_status"`
	CreatedAt      time.Time `json:"created_at"`
}

type Summary struct {
	TotalRevenue string `json:"total_revenue"`
	Paid         int    `json:"paid"`
	Pending      int    `json:"pending"`
	Rows         []Row  `json:"rows"`
}

// Summarize builds the invoices overview. Revenue is the sum of stored totals.
func Summarize(shipments []*models.Shipment) Summary {
	revenue := decimal.Zero
	s := Summary{Rows: make([]Row, 0, len(shipments))}
	for _, sh := range shipments {
		revenue = revenue.Add(sh.Cost.Total)
		status := orDefault(sh.Package.PaymentStatus, "Pending")
		if status == "Paid" {
			s.Paid++
		} else {
			s.Pending++
		}
		s.Rows = append(s.Rows, Row{
			ShipmentID:     sh.ID.String(),
			TrackingNumber: sh.TrackingNumber,
			Customer:       orDefault(sh.Receiver.Name, na),
			Amount:         cost.Format(sh.Cost.Total),
			PaymentStatus:  status,
			CreatedAt:      sh.CreatedAt,
		})
	}
	s.TotalRevenue = cost.Format(revenue)
	return s
}
