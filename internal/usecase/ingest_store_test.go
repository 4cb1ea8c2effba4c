package usecase

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/V4T54L/runtime-analytics/internal/adapter/repository/sqlstore"
	"github.com/V4T54L/runtime-analytics/internal/adapter/source/inbox"
	"github.com/V4T54L/runtime-analytics/internal/domain"
)

// An insert fault inside the store must not move the files: the rows were
// never written, so the next run has to see them again.
func TestIngestFilesUseCase_FailingInsertsOnSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "jobs.db")
	inboxDir := filepath.Join(dir, "logs")

	repo, err := sqlstore.Open(ctx, "sqlite", dbPath, discard, 4)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer repo.Close()

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, `CREATE TRIGGER fail_insert BEFORE INSERT ON job_logs BEGIN SELECT RAISE(ABORT, 'io fault'); END`); err != nil {
		t.Fatalf("failed to create trigger: %v", err)
	}

	if err := os.MkdirAll(inboxDir, 0755); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(inboxDir, "day1.txt")
	if err := os.WriteFile(file, []byte(hundredLineFile()), 0644); err != nil {
		t.Fatal(err)
	}
	src, err := inbox.New(inboxDir, "*.txt", "processed", discard)
	if err != nil {
		t.Fatal(err)
	}
	uc := NewIngestFilesUseCase(src, repo, newMetrics(), discard).WithRetryBackoff(time.Millisecond)

	report, err := uc.Run(ctx)
	if !errors.Is(err, domain.ErrPartialAppend) {
		t.Fatalf("expected ErrPartialAppend, got %v (report %+v)", err, report)
	}
	if report.Inserted != 0 || report.FailedChunks != 3 || report.FailedRows != 10 {
		t.Errorf("unexpected report %+v", report)
	}
	if _, err := os.Stat(file); err != nil {
		t.Errorf("expected the file to stay in the inbox: %v", err)
	}

	if _, err := db.ExecContext(ctx, `DROP TRIGGER fail_insert`); err != nil {
		t.Fatal(err)
	}
	report, err = uc.Run(ctx)
	if err != nil {
		t.Fatalf("expected the rerun to succeed, got %v", err)
	}
	if report.Inserted != 10 {
		t.Errorf("expected 10 inserted on rerun, got %+v", report)
	}
	if _, err := os.Stat(filepath.Join(inboxDir, "processed", "day1.txt")); err != nil {
		t.Errorf("expected the file to be moved after a full append: %v", err)
	}
}
