package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/BearBump/FlashLane/internal/apperrors"
	"github.com/BearBump/FlashLane/internal/auth"
	"github.com/BearBump/FlashLane/internal/cache/memlimit"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/BearBump/FlashLane/internal/services/contact"
	"github.com/BearBump/FlashLane/internal/services/ledger"
	"github.com/BearBump/FlashLane/internal/services/shipments"
	"github.com/BearBump/FlashLane/internal/storage/memstore"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type APISuite struct {
	suite.Suite

	store   *memstore.Store
	limiter *memlimit.RateLimiter
	srv     *httptest.Server
	token   string
}

func (s *APISuite) SetupTest() {
	s.store = memstore.New()
	s.limiter = memlimit.New(0)

	l := ledger.New(s.store, nil)
	verifier := auth.NewVerifier("test-secret", "flashlane")
	tok, err := verifier.Issue(models.Operator{ID: uuid.New(), Email: "ops@flashlane.test"}, time.Hour)
	s.Require().NoError(err)
	s.token = tok

	api := New(Deps{
		Shipments:    shipments.New(s.store, l, nil).WithMessageCounter(s.store),
		Ledger:       l,
		Contact:      contact.New(s.store, nil),
		Verifier:     verifier,
		Limiter:      s.limiter,
		Store:        s.store,
		TrackLimit:   Limit{Prefix: "track_", Max: 3, Window: time.Minute, Message: DefaultTrackLimit.Message},
		ContactLimit: DefaultContactLimit,
		Now:          func() time.Time { return time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC) },
	})
	s.srv = httptest.NewServer(api.Routes())
}

func (s *APISuite) TearDownTest() {
	s.srv.Close()
	s.limiter.Close()
}

func (s *APISuite) do(method, path string, body any, authed bool, hdr ...string) (*http.Response, []byte) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, rd)
	s.Require().NoError(err)
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, out
}

func (s *APISuite) createShipment() models.Shipment {
	resp, body := s.do(http.MethodPost, "/api/v1/shipments/", map[string]any{
		"origin":        "Lagos",
		"destination":   "London",
		"receiver_name": "Ben",
		"shipping_cost": "10",
		"tax":           1.5,
		"insurance":     "",
		"total":         "999",
	}, true)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, string(body))
	var sh models.Shipment
	s.Require().NoError(json.Unmarshal(body, &sh))
	return sh
}

func (s *APISuite) TestOperatorRoutesRequireToken() {
	resp, body := s.do(http.MethodGet, "/api/v1/shipments/", nil, false)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Contains(string(body), `"code":"unauthorized"`)

	resp, _ = s.do(http.MethodGet, "/api/v1/dashboard", nil, false, "Authorization", "Bearer garbage")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *APISuite) TestCreateAndTrack() {
	sh := s.createShipment()
	s.True(strings.HasPrefix(sh.TrackingNumber, "FLL-"))
	s.Equal("11.5", sh.Cost.Total.String())

	resp, body := s.do(http.MethodGet, "/api/v1/track/"+sh.TrackingNumber, nil, false)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))

	var l shipments.Lookup
	s.Require().NoError(json.Unmarshal(body, &l))
	s.Equal(sh.ID, l.Shipment.ID)
	s.Require().Len(l.Events, 1)
	s.Equal(models.CreationLabel, l.Events[0].Status.Display())
	s.Equal("Lagos", l.CurrentLocation)
	s.Equal(0, l.Progress.ActiveIndex)

	resp, body = s.do(http.MethodGet, "/api/v1/track/FLL-NOPE", nil, false)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Contains(string(body), "Shipment not found")
}

func (s *APISuite) TestStatusUpdateAppendsEvent() {
	sh := s.createShipment()
	path := "/api/v1/shipments/" + sh.ID.String()

	resp, body := s.do(http.MethodPost, path+"/status", map[string]string{"status": "in_transit", "location": "  Paris  "}, true)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))

	var res shipments.StatusChange
	s.Require().NoError(json.Unmarshal(body, &res))
	s.Equal(models.StatusInTransit, res.Shipment.Status)
	s.Equal("Paris", res.Event.Location)
	s.Equal("Shipment status updated to In Transit", res.Event.Description)

	resp, body = s.do(http.MethodGet, path+"/events", nil, true)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var evs []models.TrackingEvent
	s.Require().NoError(json.Unmarshal(body, &evs))
	s.Len(evs, 2)
	s.Equal("in_transit", evs[0].Status.Raw())

	resp, body = s.do(http.MethodGet, path, nil, true)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(body), `"active_index":2`)
}

func (s *APISuite) TestStatusUpdateValidation() {
	sh := s.createShipment()
	path := "/api/v1/shipments/" + sh.ID.String() + "/status"

	resp, body := s.do(http.MethodPost, path, map[string]string{"status": "in_transit", "location": "   "}, true)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Contains(string(body), `"field":"location"`)

	resp, body = s.do(http.MethodPost, path, map[string]string{"status": "lost", "location": "Paris"}, true)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Contains(string(body), `"field":"status"`)

	resp, _ = s.do(http.MethodPost, "/api/v1/shipments/not-a-uuid/status", map[string]string{"status": "delivered", "location": "x"}, true)
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/api/v1/shipments/"+uuid.NewString()+"/status", map[string]string{"status": "delivered", "location": "x"}, true)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *APISuite) TestEventsCRUD() {
	sh := s.createShipment()
	resp, body := s.do(http.MethodPost, "/api/v1/shipments/"+sh.ID.String()+"/events",
		map[string]any{"status": "Arrived at hub", "location": "Accra"}, true)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, string(body))

	var ev models.TrackingEvent
	s.Require().NoError(json.Unmarshal(body, &ev))
	s.Equal(models.EventStatusLabel, ev.Status.Kind)

	resp, body = s.do(http.MethodPut, "/api/v1/events/"+ev.ID.String(),
		map[string]any{"status": "customs_hold", "location": "Accra Port", "description": "Held"}, true)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))
	s.Contains(string(body), `"display":"Customs Hold"`)

	resp, _ = s.do(http.MethodDelete, "/api/v1/events/"+ev.ID.String(), nil, true)
	s.Equal(http.StatusNoContent, resp.StatusCode)

	resp, _ = s.do(http.MethodDelete, "/api/v1/events/"+ev.ID.String(), nil, true)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *APISuite) TestAddEventToMissingShipment() {
	resp, body := s.do(http.MethodPost, "/api/v1/shipments/"+uuid.New().String()+"/events",
		map[string]any{"status": "in_transit", "location": "Hub"}, true)
	s.Require().Equal(http.StatusNotFound, resp.StatusCode, string(body))
	s.Contains(string(body), `"code":"not_found"`)
}

func (s *APISuite) TestInvoices() {
	sh := s.createShipment()

	resp, body := s.do(http.MethodGet, "/api/v1/track/"+sh.TrackingNumber+"/invoice", nil, false)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Contains(resp.Header.Get("Content-Type"), "text/html")
	s.Contains(string(body), "$11.50")
	s.Contains(string(body), "March 6, 2024")

	resp, body = s.do(http.MethodGet, "/api/v1/shipments/"+sh.ID.String()+"/invoice", nil, true)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(body), sh.TrackingNumber)

	resp, body = s.do(http.MethodGet, "/api/v1/invoices", nil, true)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(body), `"total_revenue":"$11.50"`)
	s.Contains(string(body), `"pending":1`)
}

func (s *APISuite) TestDeleteShipmentCascades() {
	sh := s.createShipment()
	resp, _ := s.do(http.MethodDelete, "/api/v1/shipments/"+sh.ID.String(), nil, true)
	s.Equal(http.StatusNoContent, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/api/v1/track/"+sh.TrackingNumber, nil, false)
	s.Equal(http.StatusNotFound, resp.StatusCode)

	evs, err := s.store.ListEvents(context.Background(), sh.ID)
	s.Require().NoError(err)
	s.Empty(evs)
}

func (s *APISuite) TestTrackRateLimitPerIP() {
	for i := 0; i < 3; i++ {
		resp, _ := s.do(http.MethodGet, "/api/v1/track/FLL-X", nil, false, "X-Forwarded-For", "203.0.113.7")
		s.Equal(http.StatusNotFound, resp.StatusCode)
	}
	resp, body := s.do(http.MethodGet, "/api/v1/track/FLL-X", nil, false, "X-Forwarded-For", "203.0.113.7")
	s.Equal(http.StatusTooManyRequests, resp.StatusCode)
	s.Contains(string(body), "Too many searches")
	s.Equal("60", resp.Header.Get("Retry-After"))

	resp, _ = s.do(http.MethodGet, "/api/v1/track/FLL-X", nil, false, "X-Forwarded-For", "198.51.100.1")
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *APISuite) TestContactFlow() {
	resp, body := s.do(http.MethodPost, "/api/v1/contact", map[string]string{
		"name": "A", "email": "a@example.com", "message": "hello there, friend",
	}, false)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Contains(string(body), `"field":"name"`)

	resp, body = s.do(http.MethodPost, "/api/v1/contact", map[string]string{
		"name": "Ada", "email": "ada@example.com", "message": "Where is my parcel?",
	}, false)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, string(body))

	resp, body = s.do(http.MethodGet, "/api/v1/messages", nil, true)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var ms []models.ContactMessage
	s.Require().NoError(json.Unmarshal(body, &ms))
	s.Require().Len(ms, 1)

	resp, body = s.do(http.MethodGet, "/api/v1/dashboard", nil, true)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(body), `"messages":1`)

	resp, _ = s.do(http.MethodDelete, "/api/v1/messages/"+ms[0].ID.String(), nil, true)
	s.Equal(http.StatusNoContent, resp.StatusCode)
}

func (s *APISuite) TestMalformedBody() {
	req, err := http.NewRequest(http.MethodPost, s.srv.URL+"/api/v1/contact", strings.NewReader("{"))
	s.Require().NoError(err)
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *APISuite) TestHealthz() {
	resp, body := s.do(http.MethodGet, "/healthz", nil, false)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(body), "ok")
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func TestClassify(t *testing.T) {
	transient := errors.Wrap(&apperrors.StorageError{Op: "select", Conn: true, Err: errors.New("dial tcp 10.0.0.5:5432: refused")}, "lookup")

	status, body := classify(transient, false)
	require.Equal(t, http.StatusServiceUnavailable, status)
	require.Equal(t, genericMessage, body.Error)
	require.NotContains(t, body.Error, "10.0.0.5")

	_, body = classify(transient, true)
	require.Contains(t, body.Error, "10.0.0.5")

	status, body = classify(&apperrors.StorageError{Op: "insert", Code: "23505", Err: errors.New("dup")}, false)
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "storage_error", body.Code)

	status, body = classify(&apperrors.PartialFailureError{Completed: "a", Failed: "b", Err: errors.New("x")}, true)
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "partial_failure", body.Code)

	status, _ = classify(errors.Wrap(apperrors.ErrRateLimited, "track"), false)
	require.Equal(t, http.StatusTooManyRequests, status)

	status, _ = classify(errors.New("boom"), false)
	require.Equal(t, http.StatusInternalServerError, status)
}
