package api

import (
	"log/slog"
	"net/http"

	"github.com/V4T54L/runtime-analytics/internal/adapter/api/handler"
	"github.com/V4T54L/runtime-analytics/internal/adapter/api/middleware"
	"github.com/V4T54L/runtime-analytics/internal/pkg/config"
)

// NewRouter wires the ingest, query, report and event endpoints.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	ingester handler.LineIngester,
	querier handler.Querier,
	events http.Handler,
) http.Handler {
	mux := http.NewServeMux()

	ingestHandler := handler.NewIngestHandler(ingester, logger, cfg.MaxBodySize)
	queryHandler := handler.NewQueryHandler(querier, logger)

	// Routes
	mux.Handle("POST /ingest", ingestHandler)
	mux.HandleFunc("GET /query", queryHandler.Prompt)
	mux.HandleFunc("GET /reports", queryHandler.ListReports)
	mux.HandleFunc("GET /reports/{name}", queryHandler.Report)
	mux.Handle("GET /events", events)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return middleware.Logging(logger)(mux)
}
