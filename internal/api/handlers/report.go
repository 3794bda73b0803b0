// Package handlers contains the HTTP handler implementations for the
// reporting API. Service contracts are defined locally and injected via the
// constructors, enabling test mocking without coupling to concrete types.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"teltrip/internal/core"
	"teltrip/internal/export"
	"teltrip/internal/types"
)

// Aggregator is the aggregation entry point consumed by the report handler.
type Aggregator interface {
	// AggregateAccount returns one nine-field row per subscriber of the
	// account; accountID zero means "use the configured default".
	AggregateAccount(ctx context.Context, accountID int64) ([]types.AggregatedRow, error)
}

// ReportResponse is the payload of GET /api/fetch-data.
type ReportResponse struct {
	OK     bool                  `json:"ok"`
	Data   []types.AggregatedRow `json:"data"`
	Totals types.Totals          `json:"totals"`
}

// ReportHandler serves the aggregated report in JSON and CSV form.
type ReportHandler struct {
	aggregator Aggregator
	logger     *slog.Logger
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(aggregator Aggregator, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{aggregator: aggregator, logger: logger}
}

// RegisterRoutes mounts the report endpoints.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/fetch-data", h.HandleFetchData)
	r.Get("/fetch-data.csv", h.HandleFetchDataCSV)
}

// HandleFetchData runs the aggregation and returns the full row set with
// report-level totals.
func (h *ReportHandler) HandleFetchData(w http.ResponseWriter, r *http.Request) {
	rows, err := h.aggregate(w, r)
	if err != nil {
		return
	}
	core.JSON(w, r, http.StatusOK, ReportResponse{
		OK:     true,
		Data:   rows,
		Totals: types.ComputeTotals(rows),
	})
}

// HandleFetchDataCSV runs the aggregation and streams the rows as a CSV
// attachment.
func (h *ReportHandler) HandleFetchDataCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := h.aggregate(w, r)
	if err != nil {
		return
	}

	filename := fmt.Sprintf("teltrip_dashboard_%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := export.WriteCSV(w, rows); err != nil {
		h.logger.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}

// aggregate parses the account ID and runs the aggregation, writing the
// error response itself on failure.
func (h *ReportHandler) aggregate(w http.ResponseWriter, r *http.Request) ([]types.AggregatedRow, error) {
	accountID, err := parseAccountID(r)
	if err != nil {
		core.Error(w, r, err)
		return nil, err
	}

	rows, err := h.aggregator.AggregateAccount(r.Context(), accountID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "aggregation failed", "account_id", accountID, "error", err)
		core.Error(w, r, err)
		return nil, err
	}
	return rows, nil
}

// parseAccountID reads the optional accountId query parameter. Absent means
// zero (the service falls back to its configured default); present but
// non-numeric or non-positive is a validation error.
func parseAccountID(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("accountId")
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, types.NewAppError(
			types.ErrCodeValidationInvalidAccount,
			fmt.Sprintf("accountId must be a positive integer, got %q", raw),
			err,
		)
	}
	return id, nil
}
