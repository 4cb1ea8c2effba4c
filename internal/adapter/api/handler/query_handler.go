package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/V4T54L/runtime-analytics/internal/analytics"
	"github.com/V4T54L/runtime-analytics/internal/domain"
	"github.com/V4T54L/runtime-analytics/internal/format"
	"github.com/V4T54L/runtime-analytics/internal/usecase"
)

// Querier answers prompts and predefined reports.
type Querier interface {
	Prompt(ctx context.Context, text string) (usecase.Result, error)
	Report(ctx context.Context, name string, dr analytics.DateRange) (usecase.Result, error)
}

// QueryHandler serves prompt and report results.
type QueryHandler struct {
	querier Querier
	logger  *slog.Logger
}

func NewQueryHandler(q Querier, logger *slog.Logger) *QueryHandler {
	return &QueryHandler{querier: q, logger: logger}
}

// Prompt handles GET /query?prompt=...&format=...
func (h *QueryHandler) Prompt(w http.ResponseWriter, r *http.Request) {
	prompt := r.URL.Query().Get("prompt")
	if prompt == "" {
		http.Error(w, "Bad Request: missing prompt", http.StatusBadRequest)
		return
	}
	res, err := h.querier.Prompt(r.Context(), prompt)
	h.respond(w, r, res, err)
}

// Report handles GET /reports/{name}?start_date=...&end_date=...
func (h *QueryHandler) Report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dr := analytics.DateRange{Start: q.Get("start_date"), End: q.Get("end_date")}
	res, err := h.querier.Report(r.Context(), r.PathValue("name"), dr)
	h.respond(w, r, res, err)
}

type reportInfo struct {
	Name     string          `json:"name"`
	Function domain.Function `json:"function"`
	Period   string          `json:"period,omitempty"`
}

// ListReports handles GET /reports.
func (h *QueryHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports := analytics.Reports()
	out := make([]reportInfo, len(reports))
	for i, rep := range reports {
		out[i] = reportInfo{Name: rep.Name, Function: rep.Function, Period: string(rep.Period)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *QueryHandler) respond(w http.ResponseWriter, r *http.Request, res usecase.Result, err error) {
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("failed to answer query", "error", err)
			http.Error(w, "Internal Server Error", status)
			return
		}
		http.Error(w, err.Error(), status)
		return
	}

	mode, err := format.ParseMode(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("format") == "" {
		writeJSON(w, http.StatusOK, res)
		return
	}

	switch mode {
	case format.CSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	case format.JSON:
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	if err := format.Write(w, mode, res.Table); err != nil {
		h.logger.Error("failed to write result", "error", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnresolvedIntent), errors.Is(err, domain.ErrUnknownFunction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnknownReport), errors.Is(err, domain.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownColumn), errors.Is(err, domain.ErrInvalidRange):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
