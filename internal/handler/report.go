package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/export"
	"github.com/Wodenvase/BharatLedger/internal/model"
)

const defaultTrendMonths = 6

type Reporter interface {
	CategoryBreakdown(ctx context.Context, userID uuid.UUID, month time.Time) ([]model.CategorySpending, error)
	MonthlyTrend(ctx context.Context, userID uuid.UUID, months int) ([]model.MonthlyTrend, error)
	Statement(ctx context.Context, userID uuid.UUID, from, to time.Time) (*export.Statement, error)
}

type ReportHandler struct {
	reportService Reporter
	now           func() time.Time
	logger        *logrus.Logger
}

func NewReportHandler(reportService Reporter, logger *logrus.Logger) *ReportHandler {
	return &ReportHandler{reportService: reportService, now: time.Now, logger: logger}
}

func (h *ReportHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/categories", h.Categories).Methods("GET")
	router.HandleFunc("/monthly", h.Monthly).Methods("GET")
	router.HandleFunc("/statement.pdf", h.StatementPDF).Methods("GET")
	router.HandleFunc("/tally.xml", h.TallyXML).Methods("GET")
}

// Categories handles ?month=YYYY-MM, defaulting to the current month.
func (h *ReportHandler) Categories(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	month := h.now()
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := time.ParseInLocation("2006-01", v, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid month: expected YYYY-MM")
			return
		}
		month = m
	}

	breakdown, err := h.reportService.CategoryBreakdown(r.Context(), userID, month)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	months, err := intParam(r.URL.Query(), "months", defaultTrendMonths)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trend, err := h.reportService.MonthlyTrend(r.Context(), userID, months)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, trend)
}

func (h *ReportHandler) StatementPDF(w http.ResponseWriter, r *http.Request) {
	h.renderStatement(w, r, "application/pdf", "pdf", export.WritePDF)
}

func (h *ReportHandler) TallyXML(w http.ResponseWriter, r *http.Request) {
	h.renderStatement(w, r, "application/xml", "xml", export.WriteTallyXML)
}

// renderStatement buffers the document so a rendering failure can still be
// reported as a JSON error.
func (h *ReportHandler) renderStatement(
	w http.ResponseWriter,
	r *http.Request,
	contentType, ext string,
	render func(io.Writer, *export.Statement) error,
) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	from, to, err := h.statementPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := h.reportService.Statement(r.Context(), userID, from, to)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgInternal)
		return
	}

	var buf bytes.Buffer
	if err := render(&buf, st); err != nil {
		writeServiceError(w, r, h.logger, fmt.Errorf("render %s statement: %w", ext, err), msgInternal)
		return
	}

	name := fmt.Sprintf("bharatledger_%s_%s.%s", from.Format("20060102"), to.Format("20060102"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// statementPeriod reads ?from=&to= as dates; the default is the current month to date.
func (h *ReportHandler) statementPeriod(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	now := h.now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)

	if v := q.Get("from"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			return from, to, fmt.Errorf("invalid from: expected YYYY-MM-DD")
		}
		from = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			return from, to, fmt.Errorf("invalid to: expected YYYY-MM-DD")
		}
		to = t
	}
	return from, to, nil
}
