package attendancehandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"timesheet/internal/domain/attendance"
	"timesheet/internal/platform/export"
	"timesheet/internal/requestctx"
	"timesheet/internal/transport/http/api"
	"timesheet/internal/transport/http/middleware"
	"timesheet/internal/transport/http/shared"
)

const defaultRecentRecords = 20

type Handler struct {
	Service       *attendance.Service
	RecentRecords int
	BasePath      string
	adminOnly     func(http.Handler) http.Handler
}

// NewHandler wires the attendance routes. adminOnly guards the ledger listing
// and export routes; nil leaves them open.
func NewHandler(service *attendance.Service, recentRecords int, adminOnly func(http.Handler) http.Handler) *Handler {
	if recentRecords <= 0 {
		recentRecords = defaultRecentRecords
	}
	if adminOnly == nil {
		adminOnly = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{Service: service, RecentRecords: recentRecords, BasePath: "/api/v1", adminOnly: adminOnly}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Post("/access", h.handleAccess)
		r.Post("/check-out", h.handleCheckOut)
		r.Group(func(r chi.Router) {
			r.Use(h.adminOnly)
			r.Get("/ledgers", h.handleListLedgers)
			r.Get("/ledgers/{employeeID}", h.handleListRecords)
			r.Get("/ledgers/{employeeID}/export", h.handleExport)
		})
	})
}

type attendancePayload struct {
	EmployeeID   string `json:"employeeId"`
	EmployeeName string `json:"employeeName"`
	Project      string `json:"project"`
}

type attendanceResponse struct {
	Action        attendance.Action      `json:"action"`
	State         attendance.State       `json:"state"`
	LedgerID      string                 `json:"ledgerId"`
	EmployeeName  string                 `json:"employeeName"`
	Status        string                 `json:"status"`
	Record        *attendance.DayRecord  `json:"record,omitempty"`
	RecentRecords []attendance.DayRecord `json:"recentRecords,omitempty"`
	ExportURL     string                 `json:"exportUrl"`
}

func (h *Handler) handleAccess(w http.ResponseWriter, r *http.Request) {
	h.reconcile(w, r, h.Service.Access)
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	h.reconcile(w, r, h.Service.CheckOut)
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, in attendance.Input) (attendance.Result, error)) {
	var payload attendancePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	r = r.WithContext(requestctx.WithActor(r.Context(), attendance.LedgerID(payload.EmployeeID)))
	result, err := fn(r.Context(), attendance.Input{
		EmployeeID:   payload.EmployeeID,
		EmployeeName: payload.EmployeeName,
		Project:      payload.Project,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := attendanceResponse{
		Action:       result.Action,
		State:        result.State,
		LedgerID:     result.LedgerID,
		EmployeeName: result.EmployeeName,
		Status:       result.Status,
		ExportURL:    h.exportURL(result.LedgerID),
	}
	if result.Record.Date != "" {
		rec := result.Record
		resp.Record = &rec
	}

	ledger, err := h.Service.Snapshot(r.Context(), result.LedgerID)
	if err != nil {
		requestctx.Logger(r.Context()).Warn("recent records unavailable", "ledgerId", result.LedgerID, "err", err)
	} else {
		resp.RecentRecords = recent(ledger.Records, h.RecentRecords)
	}

	if result.Action == attendance.ActionCreateCheckIn {
		api.Created(w, resp, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, resp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListLedgers(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Service.Ledgers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(ids)))
	api.Success(w, ids, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	validator := shared.NewValidator()
	days := shared.ParseDateRange(validator, r)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	ledger, err := h.Service.Snapshot(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	filtered := make([]attendance.DayRecord, 0, len(ledger.Records))
	for _, rec := range ledger.Records {
		if days.Contains(rec.Date) {
			filtered = append(filtered, rec)
		}
	}
	sortNewestFirst(filtered)

	page := shared.ParsePage(r, 50, 500)
	w.Header().Set("X-Total-Count", strconv.Itoa(len(filtered)))
	api.Success(w, shared.Paginate(filtered, page), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	rawFormat := r.URL.Query().Get("format")
	validator := shared.NewValidator()
	validator.Enum("format", rawFormat, []string{string(export.FormatCSV), string(export.FormatXLSX), string(export.FormatPDF)}, "must be one of csv, xlsx, pdf")
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "format", Reason: err.Error()}})
		return
	}

	ledger, err := h.Service.Snapshot(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, ledger); err != nil {
		requestctx.Logger(r.Context()).Error("ledger export failed", "ledgerId", ledger.ID, "format", format, "err", err)
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to render export", middleware.GetRequestID(r.Context()))
		return
	}

	api.Attachment(w, format.ContentType(), format.Filename(ledger.ID), &buf)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())

	var validationErr *attendance.ValidationError
	switch {
	case errors.As(err, &validationErr):
		issues := make([]shared.ValidationIssue, 0, len(validationErr.Issues))
		for _, issue := range validationErr.Issues {
			issues = append(issues, shared.ValidationIssue{Field: issue.Field, Reason: issue.Reason})
		}
		shared.FailValidation(w, requestID, issues)
	case errors.Is(err, attendance.ErrNotCheckedIn):
		api.Fail(w, http.StatusConflict, "not_checked_in", attendance.StatusNotCheckedIn, requestID)
	case errors.Is(err, attendance.ErrLedgerNotFound):
		api.Fail(w, http.StatusNotFound, "ledger_not_found", "ledger not found", requestID)
	case errors.Is(err, attendance.ErrLedgerAccess):
		requestctx.Logger(r.Context()).Warn("ledger access failed", "err", err)
		api.Fail(w, http.StatusBadGateway, "ledger_unavailable", "ledger storage is unavailable", requestID)
	default:
		requestctx.Logger(r.Context()).Error("attendance request failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
	}
}

func (h *Handler) exportURL(ledgerID string) string {
	return fmt.Sprintf("%s/attendance/ledgers/%s/export?format=%s", h.BasePath, url.PathEscape(ledgerID), export.FormatXLSX)
}

func recent(records []attendance.DayRecord, limit int) []attendance.DayRecord {
	out := make([]attendance.DayRecord, len(records))
	copy(out, records)
	sortNewestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortNewestFirst(records []attendance.DayRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})
}

