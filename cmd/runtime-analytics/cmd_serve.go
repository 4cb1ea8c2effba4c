package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/V4T54L/runtime-analytics/internal/adapter/api"
	"github.com/V4T54L/runtime-analytics/internal/adapter/api/handler"
	"github.com/V4T54L/runtime-analytics/internal/usecase"
)

var serveFlags struct {
	addr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve ingestion, queries and refresh events over HTTP",
	Long: `Starts the HTTP API (POST /ingest, GET /query, GET /reports, GET /events),
the Prometheus /metrics endpoint and the refresh loop that invalidates cached
results when a newer run_date lands in the store.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "", "HTTP listen address (defaults to HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	if serveFlags.addr != "" {
		a.cfg.HTTPAddr = serveFlags.addr
	}

	g, ctx := errgroup.WithContext(cmd.Context())

	q, err := a.query(ctx)
	if err != nil {
		return err
	}
	ingest := usecase.NewIngestLinesUseCase(a.store, a.metrics, a.logger)
	broker := handler.NewSSEBroker(ctx, a.logger, a.cfg.SSEHeartbeat)
	refresher := usecase.NewRefresher(a.store, a.cache, broker, a.metrics, a.cfg.RefreshInterval, a.logger)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           api.NewRouter(a.cfg, a.logger, ingest, q, broker),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		// cancels /events streams on shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error { return listen(ctx, srv, "http", a.logger) })
	g.Go(func() error { return listen(ctx, metricsServer(a.cfg.MetricsAddr), "metrics", a.logger) })
	g.Go(func() error { return refresher.Run(ctx) })
	if a.redis != nil {
		g.Go(func() error {
			a.redis.StartHealthCheck(ctx, 5*time.Second)
			return nil
		})
	}

	return g.Wait()
}
