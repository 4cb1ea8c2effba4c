package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/V4T54L/runtime-analytics/internal/adapter/metrics"
	"github.com/V4T54L/runtime-analytics/internal/domain"
	"github.com/V4T54L/runtime-analytics/internal/parser"
)

// IngestLinesUseCase ingests raw log lines from a stream, such as an HTTP body.
type IngestLinesUseCase struct {
	pipeline
}

// NewIngestLinesUseCase creates a new IngestLinesUseCase.
func NewIngestLinesUseCase(repo domain.JobLogRepository, m *metrics.Metrics, logger *slog.Logger) *IngestLinesUseCase {
	return &IngestLinesUseCase{
		pipeline: pipeline{
			repo:         repo,
			metrics:      m,
			logger:       logger.With("component", "ingest_lines"),
			retryBackoff: defaultRetryBackoff,
		},
	}
}

// WithRetryBackoff overrides the wait between append attempts.
func (uc *IngestLinesUseCase) WithRetryBackoff(d time.Duration) *IngestLinesUseCase {
	uc.retryBackoff = d
	return uc
}

// Ingest parses and persists every line of r. An empty stream is domain.ErrNoData.
func (uc *IngestLinesUseCase) Ingest(ctx context.Context, r io.Reader) (IngestReport, error) {
	report := IngestReport{RunID: newRunID()}

	records, stats, err := parser.ParseReader(r)
	if err != nil {
		return report, fmt.Errorf("failed to read lines: %w", err)
	}
	if stats.Lines == 0 {
		return report, domain.ErrNoData
	}

	if err := uc.persist(ctx, &report, records, stats); err != nil {
		return report, err
	}
	uc.logger.Info("lines ingested", "run_id", report.RunID, "lines", report.Lines, "inserted", report.Inserted, "duplicates", report.Duplicates)
	return report, nil
}
