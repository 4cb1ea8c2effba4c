package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/V4T54L/runtime-analytics/internal/domain"
	"github.com/V4T54L/runtime-analytics/internal/usecase"
)

var watchFlags struct {
	dir      string
	interval time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Ingest new inbox files as they arrive",
	Long: `Watches the inbox for new log files and ingests them. A periodic sweep
catches anything the file notifications missed. Runs are paced by
WATCH_RATE_LIMIT so a burst of writes triggers a single ingest.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.StringVar(&watchFlags.dir, "inbox", "", "Inbox directory (defaults to INBOX_DIR)")
	f.DurationVar(&watchFlags.interval, "interval", 0, "Sweep interval (defaults to WATCH_INTERVAL)")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	src, err := a.inbox(watchFlags.dir)
	if err != nil {
		return err
	}
	uc := usecase.NewIngestFilesUseCase(src, a.store, a.metrics, a.logger)

	interval := a.cfg.WatchInterval
	if watchFlags.interval > 0 {
		interval = watchFlags.interval
	}
	limit := rate.Inf
	if a.cfg.WatchRateLimit > 0 {
		limit = rate.Limit(a.cfg.WatchRateLimit)
	}

	g, ctx := errgroup.WithContext(cmd.Context())

	signals, err := src.Notify(ctx)
	if err != nil {
		return err
	}

	g.Go(func() error { return listen(ctx, metricsServer(a.cfg.MetricsAddr), "metrics", a.logger) })
	g.Go(func() error {
		return watchLoop(ctx, uc, signals, interval, rate.NewLimiter(limit, 1), a.logger.With("component", "watch", "dir", src.Dir()))
	})
	return g.Wait()
}

// watchLoop ingests once at start, then on every notification or sweep tick.
// It only returns once ctx is done.
func watchLoop(ctx context.Context, uc *usecase.IngestFilesUseCase, signals <-chan struct{}, interval time.Duration, limiter *rate.Limiter, logger *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ingest := func(reason string) {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		report, err := uc.Run(ctx)
		switch {
		case errors.Is(err, domain.ErrNoData):
			logger.Debug("no pending files", "trigger", reason)
		case err != nil:
			logger.Error("failed to ingest inbox", "trigger", reason, "error", err)
		default:
			logger.Info("ingested inbox", "trigger", reason, "files", report.Files, "inserted", report.Inserted, "duplicates", report.Duplicates)
		}
	}

	logger.Info("watching inbox", "interval", interval)
	ingest("start")
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-signals:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				// A nil channel never fires; sweeps keep the inbox drained.
				logger.Warn("file notifications stopped, falling back to periodic sweeps")
				signals = nil
				continue
			}
			ingest("notify")
		case <-ticker.C:
			ingest("sweep")
		}
	}
}
