// Package cost computes shipment charges. Every path that writes cost_details
// goes through FromInput so the stored total always matches its components.
package cost

import (
	"strings"

	"github.com/BearBump/FlashLane/internal/models"
	"github.com/shopspring/decimal"
)

func ComputeTotal(shipping, tax, insurance decimal.Decimal) decimal.Decimal {
	return nonNegative(shipping).Add(nonNegative(tax)).Add(nonNegative(insurance))
}

// ParseAmount is permissive: empty, unparseable or negative input yields 0.
func ParseAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return nonNegative(d)
}

func FromInput(shipping, tax, insurance string) models.CostDetails {
	c := models.CostDetails{
		Shipping:  ParseAmount(shipping),
		Tax:       ParseAmount(tax),
		Insurance: ParseAmount(insurance),
	}
	c.Total = ComputeTotal(c.Shipping, c.Tax, c.Insurance)
	return c
}

// Reconciles reports whether the stored total equals the sum of components.
func Reconciles(c models.CostDetails) bool {
	return c.Total.Equal(ComputeTotal(c.Shipping, c.Tax, c.Insurance))
}

func Format(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
