package attendancehandler

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"timesheet/internal/domain/attendance"
	"timesheet/internal/platform/ledger/memledger"
	"timesheet/internal/transport/http/api"
	"timesheet/internal/transport/http/middleware"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type responseBody struct {
	Success bool               `json:"success"`
	Data    attendanceResponse `json:"data"`
	Error   *api.Error         `json:"error"`
}

func newTestRouter(t *testing.T, store attendance.LedgerStore, clock attendance.Clock, guard func(http.Handler) http.Handler) http.Handler {
	t.Helper()
	service := attendance.NewService(store, clock)
	handler := NewHandler(service, 20, guard)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Route("/api/v1", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})
	return r
}

func post(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) responseBody {
	t.Helper()
	var body responseBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return body
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(attendance.TimestampLayout, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return parsed
}

func TestAttendanceDayFlow(t *testing.T) {
	clock := &testClock{now: mustTime(t, "2024-01-10 08:00:00")}
	router := newTestRouter(t, memledger.New(), clock, nil)
	payload := `{"employeeId":"am01","employeeName":"Ana Mussa"}`

	rec := post(t, router, "/api/v1/attendance/access", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body.Data.Action != attendance.ActionCreateCheckIn || body.Data.LedgerID != "AM01" {
		t.Fatalf("unexpected check-in response: %+v", body.Data)
	}
	if body.Data.Record == nil || body.Data.Record.CheckIn != "2024-01-10 08:00:00" || body.Data.Record.Project != "--" {
		t.Fatalf("unexpected record: %+v", body.Data.Record)
	}
	if len(body.Data.RecentRecords) != 1 {
		t.Fatalf("expected 1 recent record, got %d", len(body.Data.RecentRecords))
	}
	if body.Data.ExportURL != "/api/v1/attendance/ledgers/AM01/export?format=xlsx" {
		t.Fatalf("unexpected export url %q", body.Data.ExportURL)
	}

	clock.Set(mustTime(t, "2024-01-10 12:00:00"))
	rec = post(t, router, "/api/v1/attendance/access", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if action := decode(t, rec).Data.Action; action != attendance.ActionAwaitCheckOut {
		t.Fatalf("expected check-out available, got %s", action)
	}

	clock.Set(mustTime(t, "2024-01-10 17:00:00"))
	rec = post(t, router, "/api/v1/attendance/check-out", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body = decode(t, rec)
	if body.Data.Action != attendance.ActionCompleteCheckOut {
		t.Fatalf("expected check-out, got %s", body.Data.Action)
	}
	if !body.Data.Record.Hours.Valid || body.Data.Record.Hours.Decimal.String() != "9" {
		t.Fatalf("expected 9 hours, got %+v", body.Data.Record.Hours)
	}

	clock.Set(mustTime(t, "2024-01-10 18:00:00"))
	rec = post(t, router, "/api/v1/attendance/access", payload)
	if action := decode(t, rec).Data.Action; action != attendance.ActionAlreadyCompleted {
		t.Fatalf("expected already completed, got %s", action)
	}
}

func TestCheckOutWithoutCheckIn(t *testing.T) {
	clock := &testClock{now: mustTime(t, "2024-01-10 17:00:00")}
	router := newTestRouter(t, memledger.New(), clock, nil)

	rec := post(t, router, "/api/v1/attendance/check-out", `{"employeeId":"AM01","employeeName":"Ana"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if body := decode(t, rec); body.Error == nil || body.Error.Code != "not_checked_in" {
		t.Fatalf("unexpected error body: %s", rec.Body.String())
	}
}

func TestAccessValidation(t *testing.T) {
	clock := &testClock{now: mustTime(t, "2024-01-10 08:00:00")}
	router := newTestRouter(t, memledger.New(), clock, nil)

	cases := []struct {
		name string
		body string
		want int
		code string
	}{
		{"malformed json", `{"employeeId":`, http.StatusBadRequest, "invalid_payload"},
		{"missing id", `{"employeeName":"Ana"}`, http.StatusBadRequest, "validation_error"},
		{"missing name", `{"employeeId":"AM01"}`, http.StatusBadRequest, "validation_error"},
		{"sheet-unsafe id", `{"employeeId":"AM/01","employeeName":"Ana"}`, http.StatusBadRequest, "validation_error"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := post(t, router, "/api/v1/attendance/access", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			body := decode(t, rec)
			if body.Error == nil || body.Error.Code != tc.code {
				t.Fatalf("expected %s, got %s", tc.code, rec.Body.String())
			}
			if tc.code == "validation_error" && body.Error.Details["fields"] == nil {
				t.Fatal("expected field details")
			}
		})
	}
}

type failingStore struct {
	*memledger.Store
}

func (failingStore) ReadAllRows(ctx context.Context, ledgerID string) ([][]string, error) {
	return nil, errors.New("quota exceeded")
}

func TestLedgerUnavailable(t *testing.T) {
	clock := &testClock{now: mustTime(t, "2024-01-10 08:00:00")}
	router := newTestRouter(t, failingStore{memledger.New()}, clock, nil)

	rec := post(t, router, "/api/v1/attendance/access", `{"employeeId":"AM01","employeeName":"Ana"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if body := decode(t, rec); body.Error == nil || body.Error.Code != "ledger_unavailable" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func seedLedger(t *testing.T, router http.Handler, clock *testClock, days ...string) {
	t.Helper()
	for _, day := range days {
		clock.Set(mustTime(t, day+" 08:00:00"))
		if rec := post(t, router, "/api/v1/attendance/access", `{"employeeId":"AM01","employeeName":"Ana"}`); rec.Code != http.StatusCreated {
			t.Fatalf("seed %s: expected 201, got %d", day, rec.Code)
		}
		clock.Set(mustTime(t, day+" 16:30:00"))
		if rec := post(t, router, "/api/v1/attendance/check-out", `{"employeeId":"AM01","employeeName":"Ana"}`); rec.Code != http.StatusOK {
			t.Fatalf("seed %s: expected 200, got %d", day, rec.Code)
		}
	}
}

func TestListRecordsFiltersAndPaginates(t *testing.T) {
	clock := &testClock{}
	router := newTestRouter(t, memledger.New(), clock, nil)
	seedLedger(t, router, clock, "2024-01-08", "2024-01-09", "2024-01-10", "2024-01-11")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/ledgers/am01?from=2024-01-09&to=2024-01-11&limit=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if total := rec.Header().Get("X-Total-Count"); total != "3" {
		t.Fatalf("expected total 3, got %q", total)
	}
	var body struct {
		Data []attendance.DayRecord `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 2 || body.Data[0].Date != "2024-01-11" || body.Data[1].Date != "2024-01-10" {
		t.Fatalf("unexpected page: %+v", body.Data)
	}
	if body.Data[0].Hours.Decimal.String() != "8.5" {
		t.Fatalf("expected 8.5 hours, got %s", body.Data[0].Hours.Decimal)
	}
}

func TestListRecordsRejectsBadRange(t *testing.T) {
	clock := &testClock{now: mustTime(t, "2024-01-10 08:00:00")}
	router := newTestRouter(t, memledger.New(), clock, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/ledgers/AM01?from=2024-02-01&to=2024-01-01", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListRecordsUnknownLedger(t *testing.T) {
	clock := &testClock{now: mustTime(t, "2024-01-10 08:00:00")}
	router := newTestRouter(t, memledger.New(), clock, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/ledgers/ZZ99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestExportCSV(t *testing.T) {
	clock := &testClock{}
	router := newTestRouter(t, memledger.New(), clock, nil)
	seedLedger(t, router, clock, "2024-01-10")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/ledgers/AM01/export?format=csv", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("unexpected content type %q", ct)
	}
	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 || rows[1][attendance.ColHours] != "8.5" {
		t.Fatalf("unexpected csv rows: %v", rows)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	clock := &testClock{now: mustTime(t, "2024-01-10 08:00:00")}
	router := newTestRouter(t, memledger.New(), clock, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/ledgers/AM01/export?format=docx", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAdminGuardProtectsLedgerRoutes(t *testing.T) {
	clock := &testClock{now: mustTime(t, "2024-01-10 08:00:00")}
	deny := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", "")
		})
	}
	router := newTestRouter(t, memledger.New(), clock, deny)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/ledgers", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	if rec := post(t, router, "/api/v1/attendance/access", `{"employeeId":"AM01","employeeName":"Ana"}`); rec.Code != http.StatusCreated {
		t.Fatalf("expected kiosk route to stay open, got %d", rec.Code)
	}
}

func TestRecentSortsNewestFirstAndLimits(t *testing.T) {
	records := []attendance.DayRecord{{Date: "2024-01-08"}, {Date: "2024-01-10"}, {Date: "2024-01-09"}}
	got := recent(records, 2)
	if len(got) != 2 || got[0].Date != "2024-01-10" || got[1].Date != "2024-01-09" {
		t.Fatalf("unexpected recent records: %+v", got)
	}
	if records[0].Date != "2024-01-08" {
		t.Fatal("expected input to be left unsorted")
	}
}
