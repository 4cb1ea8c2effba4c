package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/V4T54L/runtime-analytics/internal/domain"
	"github.com/V4T54L/runtime-analytics/internal/usecase"
)

// LineIngester persists raw scheduler log lines.
type LineIngester interface {
	Ingest(ctx context.Context, r io.Reader) (usecase.IngestReport, error)
}

// IngestHandler handles HTTP requests carrying raw log lines.
type IngestHandler struct {
	useCase     LineIngester
	logger      *slog.Logger
	maxBodySize int64
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(uc LineIngester, logger *slog.Logger, maxBodySize int64) *IngestHandler {
	return &IngestHandler{
		useCase:     uc,
		logger:      logger,
		maxBodySize: maxBodySize,
	}
}

// ServeHTTP ingests a text/plain body, one log line per line, and replies with
// the ingestion report.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "text/plain" {
			http.Error(w, "Unsupported Media Type: "+ct, http.StatusUnsupportedMediaType)
			return
		}
	}

	// Enforce max body size
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	report, err := h.useCase.Ingest(r.Context(), r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			http.Error(w, "http: request body too large", http.StatusRequestEntityTooLarge)
		case errors.Is(err, domain.ErrNoData):
			http.Error(w, "Bad Request: empty body", http.StatusBadRequest)
		case errors.Is(err, domain.ErrPartialAppend):
			h.logger.Warn("ingest request partially stored", "error", err, "failed_rows", report.FailedRows)
			writeJSON(w, http.StatusServiceUnavailable, report)
		case errors.Is(err, domain.ErrSchemaViolation):
			http.Error(w, "Unprocessable Entity: "+err.Error(), http.StatusUnprocessableEntity)
		default:
			h.logger.Error("failed to process ingest request", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, report)
}
