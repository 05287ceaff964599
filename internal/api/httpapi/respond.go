package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/BearBump/FlashLane/internal/apperrors"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// genericMessage is what public callers see for any storage fault.
const genericMessage = "Something went wrong. Please try again later."

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
	// Data carries the partially applied result, e.g. the shipment whose
	// status changed while the history write failed.
	Data any `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// classify maps the error taxonomy to an HTTP status and a body. detailed
// controls whether internal messages are exposed (operators only).
func classify(err error, detailed bool) (int, errorBody) {
	var ve *apperrors.ValidationError
	var pf *apperrors.PartialFailureError
	var se *apperrors.StorageError

	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, errorBody{Error: ve.Field + " " + ve.Message, Code: "validation_failed", Field: ve.Field}
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, errorBody{Error: "unauthorized", Code: "unauthorized"}
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "not found", Code: "not_found"}
	case errors.Is(err, apperrors.ErrRateLimited):
		return http.StatusTooManyRequests, errorBody{Error: apperrors.ErrRateLimited.Error(), Code: "rate_limited"}
	case errors.As(err, &pf):
		msg := genericMessage
		if detailed {
			msg = pf.Error()
		}
		return http.StatusInternalServerError, errorBody{Error: msg, Code: "partial_failure"}
	case errors.As(err, &se):
		status, code := http.StatusInternalServerError, "storage_error"
		if se.IsTransient() {
			status, code = http.StatusServiceUnavailable, "storage_unavailable"
		}
		msg := genericMessage
		if detailed {
			msg = err.Error()
		}
		return status, errorBody{Error: msg, Code: code}
	default:
		msg := genericMessage
		if detailed {
			msg = err.Error()
		}
		return http.StatusInternalServerError, errorBody{Error: msg, Code: "internal"}
	}
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	a.writeErrorWith(w, r, err, nil)
}

// writeErrorWith logs server-side faults in full and attaches data to the body.
func (a *API) writeErrorWith(w http.ResponseWriter, r *http.Request, err error, data any) {
	status, body := classify(err, operator(r) != nil)
	body.Data = data
	if status >= http.StatusInternalServerError {
		a.d.Log.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeJSON(w, status, body)
}

func (a *API) reject(w http.ResponseWriter, r *http.Request, err error) {
	a.d.Log.Debug("rejected request", zap.String("path", r.URL.Path), zap.Error(err))
	writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Code: "unauthorized"})
}

// decode reads a JSON body; malformed input is a validation error on "body".
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return apperrors.Validation("body", "must be valid JSON")
	}
	return nil
}
