package httpapi

import (
	"net/http"

	"github.com/BearBump/FlashLane/internal/apperrors"
	"github.com/BearBump/FlashLane/internal/invoice"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/BearBump/FlashLane/internal/services/contact"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func (a *API) trackShipment(w http.ResponseWriter, r *http.Request) {
	l, err := a.d.Shipments.FindByTrackingNumber(r.Context(), chi.URLParam(r, "trackingNumber"))
	if err != nil {
		a.writeTrackError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (a *API) publicInvoice(w http.ResponseWriter, r *http.Request) {
	l, err := a.d.Shipments.FindByTrackingNumber(r.Context(), chi.URLParam(r, "trackingNumber"))
	if err != nil {
		a.writeTrackError(w, r, err)
		return
	}
	a.renderInvoice(w, r, l.Shipment)
}

func (a *API) writeTrackError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Shipment not found", Code: "not_found"})
		return
	}
	a.writeError(w, r, err)
}

func (a *API) renderInvoice(w http.ResponseWriter, r *http.Request, sh *models.Shipment) {
	v := invoice.Build(sh, a.d.Now())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := invoice.Render(w, v); err != nil {
		// заголовки уже могли уйти, остаётся только залогировать
		a.d.Log.Error("render invoice", zap.String("tracking_number", sh.TrackingNumber), zap.Error(err))
	}
}

func (a *API) submitContact(w http.ResponseWriter, r *http.Request) {
	var in contact.SubmitInput
	if err := decode(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	m, err := a.d.Contact.Submit(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "id": m.ID})
}
