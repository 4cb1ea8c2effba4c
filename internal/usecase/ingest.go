package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/V4T54L/runtime-analytics/internal/adapter/metrics"
	"github.com/V4T54L/runtime-analytics/internal/domain"
	"github.com/V4T54L/runtime-analytics/internal/features"
	"github.com/V4T54L/runtime-analytics/internal/parser"
)

const (
	defaultRetryCount   = 3
	defaultRetryBackoff = 1 * time.Second
)

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	RunID        string `json:"run_id"`
	Files        int    `json:"files"`
	Lines        int    `json:"lines"`
	Parsed       int    `json:"parsed"`
	Rejected     int    `json:"rejected"`
	Duplicates   int    `json:"duplicates"`
	Inserted     int    `json:"inserted"`
	FailedChunks int    `json:"failed_chunks"`
	FailedRows   int    `json:"failed_rows"`
}

// pipeline is the part of ingestion shared by files and request bodies:
// derive features over the whole batch, then append it idempotently.
type pipeline struct {
	repo         domain.JobLogRepository
	metrics      *metrics.Metrics
	logger       *slog.Logger
	retryBackoff time.Duration
}

func (p *pipeline) persist(ctx context.Context, report *IngestReport, records []domain.ParsedRecord, stats parser.Stats) error {
	report.Lines += stats.Lines
	report.Parsed += stats.Parsed
	report.Rejected += stats.Rejected
	p.metrics.LinesTotal.WithLabelValues("parsed").Add(float64(stats.Parsed))
	p.metrics.LinesTotal.WithLabelValues("rejected").Add(float64(stats.Rejected))

	if len(records) == 0 {
		p.logger.Info("no parsable lines in batch", "run_id", report.RunID, "lines", stats.Lines)
		return nil
	}

	// 1. Features need the full batch: job_count and sequencing group across files.
	batch := features.Derive(records)

	// 2. Append with retries; the store skips rows it already holds.
	res, err := p.appendWithRetry(ctx, batch)
	if err != nil {
		return err
	}

	report.Duplicates += res.Duplicates
	report.Inserted += res.Inserted
	report.FailedChunks += res.FailedChunks
	report.FailedRows += res.FailedRows
	p.metrics.RowsInserted.Add(float64(res.Inserted))
	p.metrics.DuplicatesSkipped.Add(float64(res.Duplicates))
	p.metrics.FailedChunks.Add(float64(res.FailedChunks))

	if res.FailedChunks > 0 {
		p.logger.Warn("some chunks were skipped", "run_id", report.RunID, "failed_chunks", res.FailedChunks, "failed_rows", res.FailedRows)
		return fmt.Errorf("%w: %d rows in %d chunks not stored", domain.ErrPartialAppend, res.FailedRows, res.FailedChunks)
	}
	return nil
}

func (p *pipeline) appendWithRetry(ctx context.Context, batch []domain.FeatureRecord) (domain.AppendResult, error) {
	var lastErr error
	for i := 0; i < defaultRetryCount; i++ {
		res, err := p.repo.Append(ctx, batch)
		if err == nil {
			return res, nil
		}
		if errors.Is(err, domain.ErrSchemaViolation) {
			return res, err
		}
		lastErr = err
		p.logger.Warn("failed to append batch, retrying...", "attempt", i+1, "error", err)
		select {
		case <-time.After(p.retryBackoff):
		case <-ctx.Done():
			return domain.AppendResult{}, ctx.Err()
		}
	}
	return domain.AppendResult{}, lastErr
}

func newRunID() string {
	return uuid.NewString()
}
