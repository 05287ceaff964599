// Package progress maps a shipment status onto the step pipeline shown by the
// tracker.
package progress

import "github.com/BearBump/FlashLane/internal/models"

type StepState string

const (
	StepCompleted StepState = "completed"
	StepCurrent   StepState = "current"
	StepPending   StepState = "pending"
)

type Step struct {
	ID             models.Status `json:"id"`
	Label          string        `json:"label"`
	State          StepState     `json:"state"`
	ActionRequired bool          `json:"action_required,omitempty"`
}

type Progress struct {
	Status      models.Status `json:"status"`
	Steps       []Step        `json:"steps"`
	ActiveIndex int           `json:"active_index"`
	// Cancelled is set for the side state that has no place in the pipeline.
	// ActiveIndex stays at 0 in that case.
	Cancelled bool `json:"cancelled,omitempty"`
}

type stepDef struct {
	id    models.Status
	label string
}

var basePipeline = []stepDef{
	{models.StatusPending, "Order Confirmed"},
	{models.StatusPickedUp, "Picked by Courier"},
	{models.StatusInTransit, "On The Way"},
	{models.StatusOutForDelivery, "Out for Delivery"},
	{models.StatusDelivered, "Delivered"},
}

var customsStep = stepDef{models.StatusCustomsHold, "Customs Hold"}

func Resolve(status models.Status) Progress {
	status = status.OrPending()

	defs := make([]stepDef, 0, len(basePipeline)+1)
	for _, d := range basePipeline {
		defs = append(defs, d)
		// таможня вставляется только когда она активна
		if d.id == models.StatusInTransit && status == models.StatusCustomsHold {
			defs = append(defs, customsStep)
		}
	}

	active := 0
	for i, d := range defs {
		if d.id == status {
			active = i
			break
		}
	}

	steps := make([]Step, len(defs))
	for i, d := range defs {
		st := StepPending
		switch {
		case i < active:
			st = StepCompleted
		case i == active:
			st = StepCurrent
		}
		steps[i] = Step{
			ID:             d.id,
			Label:          d.label,
			State:          st,
			ActionRequired: st == StepCurrent && d.id == models.StatusCustomsHold,
		}
	}

	return Progress{
		Status:      status,
		Steps:       steps,
		ActiveIndex: active,
		Cancelled:   status == models.StatusCancelled,
	}
}

// Current returns the active step.
func (p Progress) Current() Step {
	return p.Steps[p.ActiveIndex]
}
