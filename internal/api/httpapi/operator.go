package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/BearBump/FlashLane/internal/apperrors"
	"github.com/BearBump/FlashLane/internal/invoice"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/BearBump/FlashLane/internal/progress"
	"github.com/BearBump/FlashLane/internal/services/ledger"
	"github.com/BearBump/FlashLane/internal/services/shipments"
	"github.com/pkg/errors"
)

func (a *API) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := a.d.Shipments.DashboardStats(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) customers(w http.ResponseWriter, r *http.Request) {
	c, err := a.d.Shipments.Customers(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if c == nil {
		c = []shipments.Customer{}
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) invoices(w http.ResponseWriter, r *http.Request) {
	list, err := a.d.Shipments.ListShipments(r.Context(), shipments.ListFilter{Limit: 500})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice.Summarize(list))
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Validation(name, "must be an integer")
	}
	return n, nil
}

func (a *API) listShipments(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	list, err := a.d.Shipments.ListShipments(r.Context(), shipments.ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*models.Shipment{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) createShipment(w http.ResponseWriter, r *http.Request) {
	var in shipments.ShipmentInput
	if err := decode(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	sh, err := a.d.Shipments.CreateShipment(r.Context(), operator(r), in)
	if err != nil {
		if errors.Is(err, apperrors.ErrPartialFailure) && sh != nil {
			a.writeErrorWith(w, r, err, sh)
			return
		}
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sh)
}

type shipmentDetail struct {
	Shipment *models.Shipment  `json:"shipment"`
	Progress progress.Progress `json:"progress"`
}

func (a *API) getShipment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.writeError(w, r, apperrors.Validation("id", "must be a UUID"))
		return
	}
	sh, err := a.d.Shipments.GetShipment(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shipmentDetail{Shipment: sh, Progress: progress.Resolve(sh.Status)})
}

func (a *API) updateShipment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.writeError(w, r, apperrors.Validation("id", "must be a UUID"))
		return
	}
	var in shipments.ShipmentInput
	if err := decode(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	sh, err := a.d.Shipments.UpdateDetails(r.Context(), operator(r), id, in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sh)
}

func (a *API) deleteShipment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.writeError(w, r, apperrors.Validation("id", "must be a UUID"))
		return
	}
	if err := a.d.Shipments.DeleteShipment(r.Context(), operator(r), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.writeError(w, r, apperrors.Validation("id", "must be a UUID"))
		return
	}
	var upd shipments.StatusUpdate
	if err := decode(w, r, &upd); err != nil {
		a.writeError(w, r, err)
		return
	}
	res, err := a.d.Shipments.UpdateStatus(r.Context(), operator(r), id, upd)
	if err != nil {
		if errors.Is(err, apperrors.ErrPartialFailure) && res != nil {
			a.writeErrorWith(w, r, err, res)
			return
		}
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) operatorInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.writeError(w, r, apperrors.Validation("id", "must be a UUID"))
		return
	}
	sh, err := a.d.Shipments.GetShipment(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.renderInvoice(w, r, sh)
}

func (a *API) listEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.writeError(w, r, apperrors.Validation("id", "must be a UUID"))
		return
	}
	evs, err := a.d.Shipments.ListEvents(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, evs)
}

// eventForm — тело запроса для добавления/правки события. status принимает
// как строку, так и объектную форму {kind, value}.
type eventForm struct {
	Status      models.EventStatus `json:"status"`
	Location    string             `json:"location"`
	Description string             `json:"description"`
	Timestamp   *time.Time         `json:"timestamp"`
}

func (f eventForm) timestamp() time.Time {
	if f.Timestamp == nil {
		return time.Time{}
	}
	return *f.Timestamp
}

func (a *API) addEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.writeError(w, r, apperrors.Validation("id", "must be a UUID"))
		return
	}
	var f eventForm
	if err := decode(w, r, &f); err != nil {
		a.writeError(w, r, err)
		return
	}
	e, err := a.d.Ledger.AddEvent(r.Context(), operator(r), ledger.RecordInput{
		ShipmentID:  id,
		Status:      f.Status,
		Location:    f.Location,
		Description: f.Description,
		Timestamp:   f.timestamp(),
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (a *API) updateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.writeError(w, r, apperrors.Validation("id", "must be a UUID"))
		return
	}
	var f eventForm
	if err := decode(w, r, &f); err != nil {
		a.writeError(w, r, err)
		return
	}
	e, err := a.d.Ledger.UpdateEvent(r.Context(), operator(r), id, ledger.EventUpdate{
		Status:      f.Status,
		Location:    f.Location,
		Description: f.Description,
		Timestamp:   f.timestamp(),
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (a *API) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.writeError(w, r, apperrors.Validation("id", "must be a UUID"))
		return
	}
	if err := a.d.Ledger.DeleteEvent(r.Context(), operator(r), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listMessages(w http.ResponseWriter, r *http.Request) {
	ms, err := a.d.Contact.List(r.Context(), operator(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if ms == nil {
		ms = []*models.ContactMessage{}
	}
	writeJSON(w, http.StatusOK, ms)
}

func (a *API) deleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.writeError(w, r, apperrors.Validation("id", "must be a UUID"))
		return
	}
	if err := a.d.Contact.Delete(r.Context(), operator(r), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
