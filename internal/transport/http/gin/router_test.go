package httpgin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/tix-events/internal/clock"
	"github.com/kirinyoku/tix-events/internal/domain"
	redisrepo "github.com/kirinyoku/tix-events/internal/repository/redis"
	"github.com/kirinyoku/tix-events/internal/service"
	"github.com/kirinyoku/tix-events/internal/service/importer"
	"github.com/kirinyoku/tix-events/internal/service/ledger"
	"github.com/kirinyoku/tix-events/internal/service/registry"
	"github.com/kirinyoku/tix-events/internal/service/report"
	"github.com/kirinyoku/tix-events/internal/testutil"
	"github.com/kirinyoku/tix-events/internal/uow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reportTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T, opts Options) (*gin.Engine, *testutil.MemStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := testutil.NewMemStore()
	tx := uow.NewUoW(store)

	l := ledger.New(store.Events(), tx, ledger.Config{})
	svcs := &service.Services{
		Ledger:   l,
		Registry: registry.New(store.Attendees(), l, tx),
		Importer: importer.New(l, logger),
		Report:   report.New(l, clock.NewFixed(reportTime)),
	}

	return NewRouter(svcs, opts, logger), store
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doForm(r http.Handler, path string, form url.Values, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range header {
		req.Header[k] = v
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func seedEvent(store *testutil.MemStore, capacity, sold int, price domain.Cents) domain.Event {
	return store.Seed(domain.Event{
		Title:            "Show",
		Date:             domain.NewDate(2025, 5, 1),
		Capacity:         capacity,
		TicketsSold:      sold,
		TicketPriceCents: price,
	})
}

func TestRoot(t *testing.T) {
	r, _ := newTestRouter(t, Options{})

	w := doJSON(t, r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Event Management API"}`, w.Body.String())
}

func TestCreateAndGetEvent(t *testing.T) {
	r, _ := newTestRouter(t, Options{})

	w := doJSON(t, r, http.MethodPost, "/events", map[string]any{
		"title":              "Gala",
		"date":               "2025-05-01",
		"capacity":           10,
		"ticket_price_cents": 500,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	created := decode[domain.Event](t, w)
	assert.Equal(t, "Gala", created.Title)
	assert.Equal(t, 0, created.TicketsSold)
	assert.Contains(t, w.Body.String(), `"date":"2025-05-01"`)

	w = doJSON(t, r, http.MethodGet, "/events/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, decode[domain.Event](t, w))
}

func TestCreateEvent_Invalid(t *testing.T) {
	r, _ := newTestRouter(t, Options{})

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "missing title", body: map[string]any{"date": "2025-05-01"}},
		{name: "missing date", body: map[string]any{"title": "A"}},
		{name: "bad date", body: map[string]any{"title": "A", "date": "May 1"}},
		{name: "negative capacity", body: map[string]any{"title": "A", "date": "2025-05-01", "capacity": -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/events", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decode[ErrorResponse](t, w).Detail)
		})
	}
}

func TestGetEvent_NotFound(t *testing.T) {
	r, _ := newTestRouter(t, Options{})

	w := doJSON(t, r, http.MethodGet, "/events/9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Event not found"}`, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/events/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetEvent_ETag(t *testing.T) {
	r, store := newTestRouter(t, Options{})
	seedEvent(store, 10, 0, 100)

	w := doJSON(t, r, http.MethodGet, "/events/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tag := w.Header().Get("ETag")
	require.NotEmpty(t, tag)

	req := httptest.NewRequest(http.MethodGet, "/events/1", nil)
	req.Header.Set("If-None-Match", tag)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestListEvents(t *testing.T) {
	r, store := newTestRouter(t, Options{})
	store.Seed(domain.Event{Title: "Rock", Date: domain.NewDate(2025, 1, 1)})
	store.Seed(domain.Event{Title: "Jazz", Date: domain.NewDate(2025, 2, 1)})

	w := doJSON(t, r, http.MethodGet, "/events?title=ROC", nil)
	require.Equal(t, http.StatusOK, w.Code)
	events := decode[[]domain.Event](t, w)
	require.Len(t, events, 1)
	assert.Equal(t, "Rock", events[0].Title)

	w = doJSON(t, r, http.MethodGet, "/events?date_from=2025-02-01&date_to=2025-02-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Event](t, w), 1)

	w = doJSON(t, r, http.MethodGet, "/events?title=none", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/events?date_from=01-02-2025", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateEvent(t *testing.T) {
	r, store := newTestRouter(t, Options{})
	seedEvent(store, 10, 4, 100)

	w := doJSON(t, r, http.MethodPut, "/events/1", map[string]any{"capacity": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":"capacity cannot be less than tickets sold"}`, w.Body.String())

	e, _ := store.Event(1)
	assert.Equal(t, 10, e.Capacity)

	w = doJSON(t, r, http.MethodPut, "/events/1", map[string]any{"title": "Renamed", "location": nil})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[domain.Event](t, w)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, 10, updated.Capacity)

	w = doJSON(t, r, http.MethodPut, "/events/2", map[string]any{"title": "X"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteEvent_KeepsAttendees(t *testing.T) {
	r, store := newTestRouter(t, Options{})
	seedEvent(store, 10, 0, 100)

	w := doJSON(t, r, http.MethodPost, "/events/1/attendees", AttendeeRequest{Name: "Bob", Email: "bob@x.com"})
	require.Equal(t, http.StatusOK, w.Code)
	a := decode[domain.Attendee](t, w)

	w = doJSON(t, r, http.MethodDelete, "/events/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	w = doJSON(t, r, http.MethodDelete, "/events/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/attendees/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, a, decode[domain.Attendee](t, w))

	w = doJSON(t, r, http.MethodGet, "/events/1/attendees", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterAttendee_SoldOut(t *testing.T) {
	r, store := newTestRouter(t, Options{})
	seedEvent(store, 1, 1, 100)

	w := doJSON(t, r, http.MethodPost, "/events/1/attendees", AttendeeRequest{Name: "Bob", Email: "bob@x.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":"Event is sold out"}`, w.Body.String())
	assert.Zero(t, store.AttendeeCount(1))
}

func TestPurchase_Form(t *testing.T) {
	r, store := newTestRouter(t, Options{})
	seedEvent(store, 5, 0, 1250)

	w := doForm(r, "/events/1/purchase", url.Values{
		"buyer_name":  {"Alice"},
		"buyer_email": {"a@x.com"},
		"quantity":    {"3"},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"tickets_purchased":3,"revenue_cents":3750,"tickets_sold":3}`, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/events/1/attendees", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Attendee](t, w), 3)
}

func TestPurchase_DefaultQuantityJSON(t *testing.T) {
	r, store := newTestRouter(t, Options{})
	seedEvent(store, 5, 0, 100)

	w := doJSON(t, r, http.MethodPost, "/events/1/purchase", map[string]any{
		"buyer_name":  "Alice",
		"buyer_email": "a@x.com",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[domain.PurchaseResult](t, w).TicketsPurchased)
}

func TestPurchase_Rejected(t *testing.T) {
	r, store := newTestRouter(t, Options{})
	seedEvent(store, 5, 3, 100)

	tests := []struct {
		name   string
		path   string
		qty    string
		status int
		detail string
	}{
		{name: "zero quantity", path: "/events/1/purchase", qty: "0", status: http.StatusBadRequest, detail: "quantity must be >= 1"},
		{name: "quantity above int4", path: "/events/1/purchase", qty: "3000000000", status: http.StatusBadRequest, detail: "quantity must be <= 2147483647"},
		{name: "not enough", path: "/events/1/purchase", qty: "3", status: http.StatusBadRequest, detail: "Not enough tickets available"},
		{name: "unknown event", path: "/events/7/purchase", qty: "1", status: http.StatusNotFound, detail: "Event not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doForm(r, tt.path, url.Values{
				"buyer_name":  {"Alice"},
				"buyer_email": {"a@x.com"},
				"quantity":    {tt.qty},
			}, nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.detail, decode[ErrorResponse](t, w).Detail)
		})
	}

	e, _ := store.Event(1)
	assert.Equal(t, 3, e.TicketsSold)
	assert.Zero(t, store.AttendeeCount(1))
}

type memIdempotency struct {
	mu     sync.Mutex
	locks  map[string]bool
	stored map[string]redisrepo.StoredResponse
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{
		locks:  make(map[string]bool),
		stored: make(map[string]redisrepo.StoredResponse),
	}
}

func (m *memIdempotency) AcquireLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *memIdempotency) SaveResult(_ context.Context, key string, status int, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored[key] = redisrepo.StoredResponse{Status: status, Body: body}
	return nil
}

func (m *memIdempotency) GetResult(_ context.Context, key string) (redisrepo.StoredResponse, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.stored[key]
	return res, ok, nil
}

func (m *memIdempotency) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

func TestPurchase_IdempotencyKeyReplays(t *testing.T) {
	r, store := newTestRouter(t, Options{Idempotency: newMemIdempotency()})
	seedEvent(store, 5, 0, 100)

	form := url.Values{"buyer_name": {"Alice"}, "buyer_email": {"a@x.com"}, "quantity": {"2"}}
	header := http.Header{"Idempotency-Key": {"abc"}}

	first := doForm(r, "/events/1/purchase", form, header)
	require.Equal(t, http.StatusOK, first.Code)

	second := doForm(r, "/events/1/purchase", form, header)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "abc", second.Header().Get("Idempotency-Key"))

	e, _ := store.Event(1)
	assert.Equal(t, 2, e.TicketsSold)
}

type stubLimiter struct {
	allowed bool
}

func (s stubLimiter) Allow(context.Context, string) (redisrepo.Decision, error) {
	return redisrepo.Decision{Allowed: s.allowed, RetryAfter: 1500 * time.Millisecond}, nil
}

func TestRateLimit(t *testing.T) {
	r, store := newTestRouter(t, Options{Limiter: stubLimiter{allowed: false}})
	seedEvent(store, 5, 0, 100)

	w := doJSON(t, r, http.MethodPost, "/events/1/attendees", AttendeeRequest{Name: "Bob", Email: "bob@x.com"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))

	// reads are not limited
	w = doJSON(t, r, http.MethodGet, "/events/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateAttendee(t *testing.T) {
	r, store := newTestRouter(t, Options{})
	seedEvent(store, 5, 0, 100)

	w := doJSON(t, r, http.MethodPost, "/events/1/attendees", AttendeeRequest{Name: "Bob", Email: "bob@x.com"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPut, "/attendees/1", AttendeeRequest{Name: "Robert", Email: " r@x.com "})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"name":"Robert","email":"r@x.com","event_id":1}`, w.Body.String())

	w = doJSON(t, r, http.MethodPut, "/attendees/5", AttendeeRequest{Name: "X", Email: "x@x.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Attendee not found"}`, w.Body.String())
}

func TestSalesReport(t *testing.T) {
	r, store := newTestRouter(t, Options{})
	seedEvent(store, 10, 4, 500)

	w := doJSON(t, r, http.MethodGet, "/reports/sales", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"report": [{
			"event_id": 1,
			"title": "Show",
			"date": "2025-05-01",
			"capacity": 10,
			"tickets_sold": 4,
			"tickets_available": 6,
			"revenue_cents": 2000
		}],
		"generated_at": "2025-03-01T12:00:00Z"
	}`, w.Body.String())
}

func multipartUpload(t *testing.T, field, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "events.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/import/events", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImportEvents(t *testing.T) {
	r, _ := newTestRouter(t, Options{})

	csv := "Event Title,Date,Capacity,TicketPrice\n" +
		",2024-05-01,10,5\n" +
		"Expo,2024-05-02,20,12.5\n"

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartUpload(t, "file", csv))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[domain.ImportResult](t, w)
	require.Len(t, res.Created, 1)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 2, res.Created[0].Row)
	assert.Equal(t, "Missing title", res.Errors[0].Error)

	w = doJSON(t, r, http.MethodGet, "/events/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.Cents(1250), decode[domain.Event](t, w).TicketPriceCents)
}

func TestImportEvents_MissingFile(t *testing.T) {
	r, _ := newTestRouter(t, Options{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartUpload(t, "upload", "Title\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportEvents_TooLarge(t *testing.T) {
	r, _ := newTestRouter(t, Options{ImportMaxBytes: 64})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartUpload(t, "file", "Title,Date\n"+strings.Repeat("A,2024-01-01\n", 20)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
