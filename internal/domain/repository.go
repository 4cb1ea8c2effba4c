package domain

import (
	"context"
	"io"
	"time"
)

// AppendResult summarizes one incremental append.
type AppendResult struct {
	Received     int
	Duplicates   int
	Inserted     int
	FailedChunks int
	FailedRows   int
}

// JobLogRepository defines the canonical, append-only job run store.
type JobLogRepository interface {
	// EnsureSchema creates the table and indexes if they do not exist.
	EnsureSchema(ctx context.Context) error

	// Append inserts the records whose dedup key is not yet stored.
	// Zero new records is a normal outcome. A failing chunk is skipped and counted.
	Append(ctx context.Context, records []FeatureRecord) (AppendResult, error)

	// Load returns rows matching every filter. Only equality and set membership
	// are supported; unknown columns return ErrUnknownColumn.
	Load(ctx context.Context, filters Filters) ([]StoredRow, error)

	// LatestRunDate returns the most recent run_date, or ok=false on an empty store.
	LatestRunDate(ctx context.Context) (date time.Time, ok bool, err error)
}

// LogSource defines where raw log files come from and where they go once persisted.
type LogSource interface {
	// List returns the pending files in processing order.
	List(ctx context.Context) ([]string, error)

	// Open opens one pending file for reading.
	Open(path string) (io.ReadCloser, error)

	// MarkProcessed moves a file out of the pending set.
	// It must only be called after the file's records were persisted.
	MarkProcessed(ctx context.Context, path string) error
}

// ResultCache stores analytics results under keys scoped to a store version.
type ResultCache interface {
	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) (Table, error)

	// Set stores a result.
	Set(ctx context.Context, key string, table Table) error

	// Invalidate drops every cached result.
	Invalidate(ctx context.Context) error
}
