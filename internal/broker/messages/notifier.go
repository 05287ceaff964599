package messages

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Notifier publishes ShipmentChanged best-effort: failures are logged and
// never returned to the caller. A nil Notifier does nothing.
type Notifier struct {
	p     Publisher
	topic string
	log   *zap.Logger
}

func NewNotifier(p Publisher, topic string, log *zap.Logger) *Notifier {
	if p == nil || topic == "" {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{p: p, topic: topic, log: log}
}

func (n *Notifier) Notify(ctx context.Context, msg ShipmentChanged) {
	if n == nil {
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		n.log.Error("marshal shipment changed", zap.Error(err))
		return
	}
	if err := n.p.Publish(ctx, n.topic, []byte(msg.ShipmentID.String()), b); err != nil {
		n.log.Warn("publish shipment changed",
			zap.String("shipment_id", msg.ShipmentID.String()),
			zap.String("change", string(msg.Change)),
			zap.Error(err),
		)
	}
}
