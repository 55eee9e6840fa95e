package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"BrentShift/internal/domain/models"
	"BrentShift/internal/loader"
	"BrentShift/internal/usecase"
	pkgcache "BrentShift/pkg/cache"
	applogger "BrentShift/pkg/logger"

	"github.com/labstack/echo/v4"
)

type fakeStore struct {
	records []models.EventRecord
	err     error
}

func (f *fakeStore) Init(context.Context) error { return nil }
func (f *fakeStore) Save(context.Context, []*models.ChangePointReport) error {
	return nil
}
func (f *fakeStore) Load(context.Context) ([]models.EventRecord, error) {
	return f.records, f.err
}
func (f *fakeStore) Close() error { return nil }

type fakeTrigger struct {
	msgType string
	payload interface{}
}

func (f *fakeTrigger) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	f.msgType = msgType
	f.payload = payload
	return nil
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func writePrices(t *testing.T) string {
	t.Helper()
	csv := "Date,Price\n2020-01-01,20.5\n2020-01-02,21.0\n2020-02-01,22.5\n"
	path := filepath.Join(t.TempDir(), "prices.csv")
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatalf("write prices: %v", err)
	}
	return path
}

func newTestServer(t *testing.T, store *fakeStore, trigger *fakeTrigger) *echo.Echo {
	t.Helper()
	log := testLogger(t)
	events := usecase.NewEventsUseCase(store, loader.New(log), pkgcache.NewMemoryCache(),
		time.Second, writePrices(t), log)

	e := echo.New()
	var h *EventsEchoHandler
	if trigger != nil {
		h = NewEventsEchoHandler(log, events, trigger)
	} else {
		h = NewEventsEchoHandler(log, events, nil)
	}
	h.RegisterRoutes(e)
	return e
}

func TestChangePointsEndpoint(t *testing.T) {
	pct := 42.0
	store := &fakeStore{records: []models.EventRecord{{
		Date: "2020-02-01", MeanBefore: 0.001, MeanAfter: 0.05,
		Delta: 0.049, PercentChange: &pct, Confidence: 0.9, StdDev: 0.002,
	}}}
	e := newTestServer(t, store, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/change_points", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "2020-02-01") || !strings.Contains(body, "\"Confidence\":0.9") {
		t.Fatalf("response missing event fields: %s", body)
	}
}

func TestChangePointsNotFound(t *testing.T) {
	store := &fakeStore{err: models.ErrFileNotFound}
	e := newTestServer(t, store, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/change_points", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing events table, got %d", rec.Code)
	}
}

func TestHistoricalPricesRangeFilter(t *testing.T) {
	e := newTestServer(t, &fakeStore{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/historical_prices?from=2020-01-02&to=2020-01-31", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if strings.Contains(body, "2020-01-01") || strings.Contains(body, "2020-02-01") {
		t.Fatalf("range filter not applied: %s", body)
	}
	if !strings.Contains(body, "2020-01-02") {
		t.Fatalf("in-range price missing: %s", body)
	}
}

func TestHistoricalPricesBadRange(t *testing.T) {
	e := newTestServer(t, &fakeStore{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/historical_prices?from=yesterday", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed date, got %d", rec.Code)
	}
}

func TestDetectWithoutQueue(t *testing.T) {
	e := newTestServer(t, &fakeStore{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/detect", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when queue disabled, got %d", rec.Code)
	}
}

func TestDetectEnqueues(t *testing.T) {
	trigger := &fakeTrigger{}
	e := newTestServer(t, &fakeStore{}, trigger)

	req := httptest.NewRequest(http.MethodPost, "/api/detect",
		strings.NewReader(`{"aggregate":"monthly"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if trigger.msgType != usecase.JobTypeDetect {
		t.Fatalf("enqueued message type %q", trigger.msgType)
	}
	job, ok := trigger.payload.(usecase.DetectJob)
	if !ok {
		t.Fatalf("unexpected payload type %T", trigger.payload)
	}
	if job.Aggregate != "monthly" {
		t.Fatalf("aggregate not carried through: %q", job.Aggregate)
	}
}
