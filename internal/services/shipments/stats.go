package shipments

import (
	"context"
	"strings"

	"github.com/BearBump/FlashLane/internal/cache/viewcache"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/pkg/errors"
)

const recentShipments = 5

type Dashboard struct {
	TotalShipments int                `json:"total_shipments"`
	InTransit      int                `json:"in_transit"`
	Delivered      int                `json:"delivered"`
	Messages       int                `json:"messages"`
	Recent         []*models.Shipment `json:"recent"`
}

func (s *Service) DashboardStats(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	if s.views.Load(ctx, viewcache.DashboardKey, &d) {
		return &d, nil
	}

	var err error
	if d.TotalShipments, err = s.repo.CountShipments(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "count shipments")
	}
	inTransit := models.StatusInTransit
	if d.InTransit, err = s.repo.CountShipments(ctx, &inTransit); err != nil {
		return nil, errors.Wrap(err, "count in transit")
	}
	delivered := models.StatusDelivered
	if d.Delivered, err = s.repo.CountShipments(ctx, &delivered); err != nil {
		return nil, errors.Wrap(err, "count delivered")
	}
	if s.messages != nil {
		if d.Messages, err = s.messages.CountMessages(ctx); err != nil {
			return nil, errors.Wrap(err, "count messages")
		}
	}
	if d.Recent, err = s.repo.ListShipments(ctx, models.ShipmentFilter{Limit: recentShipments}); err != nil {
		return nil, errors.Wrap(err, "recent shipments")
	}

	s.views.Store(ctx, viewcache.DashboardKey, d)
	return &d, nil
}

type Customer struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	Contact       string `json:"contact"`
	ShipmentCount int    `json:"shipment_count"`
}

// Customers groups receivers by case-insensitive name, ordered by their most
// recent shipment. Address and contact come from that shipment.
func (s *Service) Customers(ctx context.Context) ([]Customer, error) {
	var cached []Customer
	if s.views.Load(ctx, viewcache.CustomersKey, &cached) {
		return cached, nil
	}

	receivers, err := s.repo.ListReceivers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list receivers")
	}

	byName := make(map[string]*Customer)
	order := make([]string, 0)
	for _, r := range receivers {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		c, ok := byName[key]
		if !ok {
			c = &Customer{
				Name:    name,
				Address: orDefault(r.Address, "N/A"),
				Contact: orDefault(r.Contact, "N/A"),
			}
			byName[key] = c
			order = append(order, key)
		}
		c.ShipmentCount++
	}

	out := make([]Customer, 0, len(order))
	for _, k := range order {
		out = append(out, *byName[k])
	}

	s.views.Store(ctx, viewcache.CustomersKey, out)
	return out, nil
}
