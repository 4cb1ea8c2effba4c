package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/V4T54L/runtime-analytics/internal/adapter/metrics"
	"github.com/V4T54L/runtime-analytics/internal/domain"
	"github.com/V4T54L/runtime-analytics/internal/parser"
)

var progressMilestones = []int{25, 50, 75, 100}

// IngestFilesUseCase parses every pending file of a source as one batch, persists
// it, and only then marks the files processed. A crash before the move leaves the
// files pending; re-ingesting them is safe because appends are idempotent.
type IngestFilesUseCase struct {
	pipeline
	source domain.LogSource
}

// NewIngestFilesUseCase creates a new IngestFilesUseCase.
func NewIngestFilesUseCase(source domain.LogSource, repo domain.JobLogRepository, m *metrics.Metrics, logger *slog.Logger) *IngestFilesUseCase {
	return &IngestFilesUseCase{
		pipeline: pipeline{
			repo:         repo,
			metrics:      m,
			logger:       logger.With("component", "ingest_files"),
			retryBackoff: defaultRetryBackoff,
		},
		source: source,
	}
}

// WithRetryBackoff overrides the wait between append attempts.
func (uc *IngestFilesUseCase) WithRetryBackoff(d time.Duration) *IngestFilesUseCase {
	uc.retryBackoff = d
	return uc
}

// Run ingests all pending files. It returns domain.ErrNoData when there are none.
func (uc *IngestFilesUseCase) Run(ctx context.Context) (IngestReport, error) {
	report := IngestReport{RunID: newRunID()}

	files, err := uc.source.List(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list input files: %w", err)
	}
	if len(files) == 0 {
		return report, domain.ErrNoData
	}
	report.Files = len(files)
	uc.logger.Info("ingestion started", "run_id", report.RunID, "files", len(files))

	// 1. Parse every file into one batch.
	var records []domain.ParsedRecord
	var stats parser.Stats
	next := 0
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		recs, s, err := uc.parseFile(path)
		if err != nil {
			return report, err
		}
		records = append(records, recs...)
		stats.Add(s)

		pct := (i + 1) * 100 / len(files)
		for next < len(progressMilestones) && pct >= progressMilestones[next] {
			uc.logger.Info("parsing progress", "run_id", report.RunID, "percent", progressMilestones[next], "files_done", i+1, "records", len(records))
			next++
		}
	}

	// 2. Derive and persist.
	if err := uc.persist(ctx, &report, records, stats); err != nil {
		uc.logger.Error("failed to persist batch, files left pending", "run_id", report.RunID, "error", err)
		return report, err
	}

	// 3. Move files only after the batch is stored.
	for _, path := range files {
		if err := uc.source.MarkProcessed(ctx, path); err != nil {
			return report, fmt.Errorf("failed to mark %s processed: %w", path, err)
		}
		uc.metrics.FilesProcessed.Inc()
	}

	uc.logger.Info("ingestion finished",
		"run_id", report.RunID,
		"files", report.Files,
		"lines", report.Lines,
		"rejected", report.Rejected,
		"inserted", report.Inserted,
		"duplicates", report.Duplicates,
	)
	return report, nil
}

func (uc *IngestFilesUseCase) parseFile(path string) ([]domain.ParsedRecord, parser.Stats, error) {
	f, err := uc.source.Open(path)
	if err != nil {
		return nil, parser.Stats{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	recs, stats, err := parser.ParseReader(f)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if stats.Rejected > 0 {
		uc.logger.Debug("lines rejected", "file", path, "rejected", stats.Rejected)
	}
	return recs, stats, nil
}
