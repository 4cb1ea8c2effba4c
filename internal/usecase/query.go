package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/V4T54L/runtime-analytics/internal/adapter/metrics"
	"github.com/V4T54L/runtime-analytics/internal/analytics"
	"github.com/V4T54L/runtime-analytics/internal/domain"
)

// Interpreter resolves a free-text prompt into a function and parameters.
type Interpreter interface {
	Interpret(ctx context.Context, prompt string) (domain.InterpretedQuery, error)
}

// Result is one answered prompt or report.
type Result struct {
	Function domain.Function `json:"function"`
	Params   domain.Params   `json:"params"`
	Report   string          `json:"report,omitempty"`
	Example  string          `json:"example,omitempty"`
	Score    float64         `json:"score,omitempty"`
	RunDate  string          `json:"latest_run_date"`
	Cached   bool            `json:"cached"`
	Table    domain.Table    `json:"table"`
}

// QueryUseCase answers prompts and predefined reports against the store.
// Results are cached under the latest run_date, so new data makes older
// entries unreachable without explicit invalidation.
type QueryUseCase struct {
	interpreter Interpreter
	registry    *analytics.Registry
	repo        domain.JobLogRepository
	cache       domain.ResultCache
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time

	mu           sync.Mutex
	estimator    *analytics.Estimator
	estimatorFor time.Time
}

// NewQueryUseCase creates a new QueryUseCase. cache may be nil.
func NewQueryUseCase(
	interpreter Interpreter,
	registry *analytics.Registry,
	repo domain.JobLogRepository,
	cache domain.ResultCache,
	m *metrics.Metrics,
	logger *slog.Logger,
) *QueryUseCase {
	return &QueryUseCase{
		interpreter: interpreter,
		registry:    registry,
		repo:        repo,
		cache:       cache,
		metrics:     m,
		logger:      logger.With("component", "query"),
		now:         time.Now,
	}
}

// WithClock overrides the clock used to resolve report periods.
func (uc *QueryUseCase) WithClock(now func() time.Time) *QueryUseCase {
	uc.now = now
	return uc
}

// Prompt interprets text and runs the matched function. An unmatched prompt
// returns domain.ErrUnresolvedIntent with the text echoed.
func (uc *QueryUseCase) Prompt(ctx context.Context, text string) (Result, error) {
	q, err := uc.interpreter.Interpret(ctx, text)
	if err != nil {
		uc.count("prompt", err)
		return Result{}, fmt.Errorf("failed to interpret prompt: %w", err)
	}
	if !q.Resolved() {
		err := fmt.Errorf("%w: %q", domain.ErrUnresolvedIntent, text)
		uc.count("prompt", err)
		return Result{}, err
	}

	res, err := uc.Run(ctx, q.Function, q.Params)
	uc.count("prompt", err)
	if err != nil {
		return Result{}, err
	}
	res.Example = q.Example
	res.Score = q.Score
	return res, nil
}

// Report runs a predefined report, bypassing interpretation. dr narrows the
// run_date window and is required by range reports.
func (uc *QueryUseCase) Report(ctx context.Context, name string, dr analytics.DateRange) (Result, error) {
	rep, err := analytics.FindReport(name)
	if err != nil {
		uc.count("report", err)
		return Result{}, err
	}
	params, err := rep.Bind(uc.now(), dr)
	if err != nil {
		uc.count("report", err)
		return Result{}, err
	}
	res, err := uc.Run(ctx, rep.Function, params)
	uc.count("report", err)
	if err != nil {
		return Result{}, err
	}
	res.Report = rep.Name
	return res, nil
}

// LatestRunDate returns the most recent run_date in the store.
func (uc *QueryUseCase) LatestRunDate(ctx context.Context) (time.Time, bool, error) {
	return uc.repo.LatestRunDate(ctx)
}

// Run invokes fn over the scoped dataset. Equality filters on stored columns are
// pushed to the store; ranges and date bounds are applied in memory.
func (uc *QueryUseCase) Run(ctx context.Context, fn domain.Function, params domain.Params) (Result, error) {
	if params == nil {
		params = domain.Params{}
	}
	if _, err := uc.registry.Lookup(fn); err != nil {
		return Result{}, err
	}

	latest, ok, err := uc.repo.LatestRunDate(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read latest run date: %w", err)
	}
	if !ok {
		return Result{}, domain.ErrNoData
	}

	res := Result{Function: fn, Params: params, RunDate: latest.Format(domain.DateLayout)}

	key, err := cacheKey(latest, fn, params)
	if err != nil {
		return Result{}, err
	}
	if uc.cache != nil {
		if t, err := uc.cache.Get(ctx, key); err == nil {
			res.Table, res.Cached = t, true
			return res, nil
		} else if !errors.Is(err, domain.ErrCacheMiss) {
			uc.logger.Warn("cache read failed", "error", err)
		}
	}

	ds, err := uc.dataset(ctx, latest, params)
	if err != nil {
		return Result{}, err
	}

	t, err := uc.registry.Run(fn, ds, params)
	if err != nil {
		return Result{}, err
	}
	res.Table = t

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, key, t); err != nil {
			uc.logger.Warn("cache write failed", "error", err)
		}
	}
	uc.logger.Debug("query answered", "function", fn, "rows", t.Len(), "dataset_rows", ds.Len())
	return res, nil
}

func (uc *QueryUseCase) dataset(ctx context.Context, latest time.Time, params domain.Params) (domain.Dataset, error) {
	scope, err := analytics.Scope(params)
	if err != nil {
		return domain.Dataset{}, err
	}
	pushed, inMemory := analytics.Pushdown(scope)

	rows, err := uc.repo.Load(ctx, pushed)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("failed to load job runs: %w", err)
	}

	est, err := uc.estimatorAt(ctx, latest, rows, len(pushed) == 0)
	if err != nil {
		return domain.Dataset{}, err
	}
	ds := est.Enrich(domain.NewDataset(rows))
	return analytics.ApplyFilters(ds, inMemory)
}

// estimatorAt returns the estimator fitted on the full store as of latest,
// refitting only when latest changes.
func (uc *QueryUseCase) estimatorAt(ctx context.Context, latest time.Time, rows []domain.StoredRow, complete bool) (*analytics.Estimator, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.estimator != nil && uc.estimatorFor.Equal(latest) {
		return uc.estimator, nil
	}
	if !complete {
		all, err := uc.repo.Load(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to load job runs for estimation: %w", err)
		}
		rows = all
	}
	uc.estimator = analytics.FitEstimator(rows)
	uc.estimatorFor = latest
	uc.logger.Info("duration estimator fitted", "rows", len(rows), "latest_run_date", latest.Format(domain.DateLayout))
	return uc.estimator, nil
}

func (uc *QueryUseCase) count(kind string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUnresolvedIntent):
		outcome = "unresolved"
	case errors.Is(err, domain.ErrUnknownFunction), errors.Is(err, domain.ErrUnknownReport):
		outcome = "unknown_function"
	case errors.Is(err, domain.ErrNoData):
		outcome = "no_data"
	case errors.Is(err, domain.ErrInvalidRange):
		outcome = "invalid_range"
	default:
		outcome = "error"
	}
	uc.metrics.PromptsTotal.WithLabelValues(kind, outcome).Inc()
}

// cacheKey hashes the run date, function and parameters. encoding/json sorts map
// keys, so equal params give equal keys.
func cacheKey(latest time.Time, fn domain.Function, params domain.Params) (string, error) {
	b, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode params: %w", err)
	}
	sum := sha256.Sum256(append([]byte(string(fn)+"|"), b...))
	return latest.Format(domain.DateLayout) + ":" + hex.EncodeToString(sum[:12]), nil
}
