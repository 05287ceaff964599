// Package httpapi exposes the public tracking site and the operator back
// office over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/BearBump/FlashLane/internal/auth"
	"github.com/BearBump/FlashLane/internal/cache"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/BearBump/FlashLane/internal/services/contact"
	"github.com/BearBump/FlashLane/internal/services/ledger"
	"github.com/BearBump/FlashLane/internal/services/shipments"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Limit is a fixed-window budget per client IP.
type Limit struct {
	Prefix  string
	Max     int64
	Window  time.Duration
	Message string
}

var (
	DefaultTrackLimit = Limit{
		Prefix:  "track_",
		Max:     20,
		Window:  time.Minute,
		Message: "Too many searches. Please wait a minute.",
	}
	DefaultContactLimit = Limit{
		Prefix:  "contact_",
		Max:     3,
		Window:  10 * time.Minute,
		Message: "Too many messages. Please try again in 10 minutes.",
	}
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Shipments *shipments.Service
	Ledger    *ledger.Service
	Contact   *contact.Service
	Verifier  *auth.Verifier
	Limiter   cache.RateLimiter
	Store     Pinger
	Log       *zap.Logger

	TrackLimit   Limit
	ContactLimit Limit

	// SwaggerPath may be empty; docs routes are skipped then.
	SwaggerPath string
	Now         func() time.Time
}

type API struct {
	d Deps
}

func New(d Deps) *API {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.TrackLimit.Max == 0 {
		d.TrackLimit = DefaultTrackLimit
	}
	if d.ContactLimit.Max == 0 {
		d.ContactLimit = DefaultContactLimit
	}
	return &API{d: d}
}

func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", a.healthz)
	a.mountDocs(r)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.With(a.rateLimit(a.d.TrackLimit)).Get("/track/{trackingNumber}", a.trackShipment)
			r.With(a.rateLimit(a.d.TrackLimit)).Get("/track/{trackingNumber}/invoice", a.publicInvoice)
			r.With(a.rateLimit(a.d.ContactLimit)).Post("/contact", a.submitContact)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(a.d.Verifier, a.reject))

			r.Get("/dashboard", a.dashboard)
			r.Get("/customers", a.customers)
			r.Get("/invoices", a.invoices)

			r.Route("/shipments", func(r chi.Router) {
				r.Get("/", a.listShipments)
				r.Post("/", a.createShipment)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", a.getShipment)
					r.Put("/", a.updateShipment)
					r.Delete("/", a.deleteShipment)
					r.Post("/status", a.updateStatus)
					r.Get("/invoice", a.operatorInvoice)
					r.Get("/events", a.listEvents)
					r.Post("/events", a.addEvent)
				})
			})

			r.Put("/events/{id}", a.updateEvent)
			r.Delete("/events/{id}", a.deleteEvent)

			r.Get("/messages", a.listMessages)
			r.Delete("/messages/{id}", a.deleteMessage)
		})
	})
	return r
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	if a.d.Store != nil {
		if err := a.d.Store.Ping(r.Context()); err != nil {
			a.d.Log.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// mountDocs serves swagger with no-cache + cachebuster.
func (a *API) mountDocs(r chi.Router) {
	if a.d.SwaggerPath == "" {
		return
	}
	fi, err := os.Stat(a.d.SwaggerPath)
	if err != nil {
		a.d.Log.Warn("swagger file not found, docs disabled", zap.String("path", a.d.SwaggerPath))
		return
	}
	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, a.d.SwaggerPath)
	})
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/swagger.json?v="+fi.ModTime().Format("20060102150405"))))
}

func operator(r *http.Request) *models.Operator {
	return auth.FromContext(r.Context())
}

func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}
