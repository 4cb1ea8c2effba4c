package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/V4T54L/runtime-analytics/internal/adapter/metrics"
	"github.com/V4T54L/runtime-analytics/internal/domain"
)

// RefreshEvent announces that the store holds a newer run_date.
type RefreshEvent struct {
	LatestRunDate   string    `json:"latest_run_date"`
	PreviousRunDate string    `json:"previous_run_date,omitempty"`
	DetectedAt      time.Time `json:"detected_at"`
}

// Publisher fans refresh events out to subscribers. It must not block.
type Publisher interface {
	Publish(event RefreshEvent)
}

// Refresher polls the latest run_date and, when it moves, drops cached results
// and publishes a RefreshEvent.
type Refresher struct {
	repo      domain.JobLogRepository
	cache     domain.ResultCache
	publisher Publisher
	metrics   *metrics.Metrics
	interval  time.Duration
	logger    *slog.Logger

	mu   sync.Mutex
	last time.Time
}

// NewRefresher creates a refresher. cache and publisher may be nil.
func NewRefresher(repo domain.JobLogRepository, cache domain.ResultCache, publisher Publisher, m *metrics.Metrics, interval time.Duration, logger *slog.Logger) *Refresher {
	return &Refresher{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		metrics:   m,
		interval:  interval,
		logger:    logger.With("component", "refresher"),
	}
}

// Run checks immediately and then on every tick until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("refresher started", "interval", r.interval)
	for {
		if _, err := r.Check(ctx); err != nil && ctx.Err() == nil {
			r.logger.Warn("failed to check latest run date", "error", err)
		}
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Check reads the latest run_date once. The first observation only sets the
// baseline; a later change invalidates and publishes.
func (r *Refresher) Check(ctx context.Context) (bool, error) {
	latest, ok, err := r.repo.LatestRunDate(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	r.metrics.LatestRunDate.Set(float64(latest.Unix()))

	r.mu.Lock()
	previous := r.last
	r.last = latest
	r.mu.Unlock()

	if previous.IsZero() || previous.Equal(latest) {
		return false, nil
	}

	if r.cache != nil {
		if err := r.cache.Invalidate(ctx); err != nil {
			r.logger.Warn("failed to invalidate result cache", "error", err)
		}
	}
	event := RefreshEvent{
		LatestRunDate:   latest.Format(domain.DateLayout),
		PreviousRunDate: previous.Format(domain.DateLayout),
		DetectedAt:      time.Now().UTC(),
	}
	if r.publisher != nil {
		r.publisher.Publish(event)
	}
	r.logger.Info("new run date detected", "latest_run_date", event.LatestRunDate, "previous_run_date", event.PreviousRunDate)
	return true, nil
}
