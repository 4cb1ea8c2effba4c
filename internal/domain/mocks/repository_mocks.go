package mocks

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/V4T54L/runtime-analytics/internal/domain"
)

// MockJobLogRepository is an in-memory domain.JobLogRepository for testing.
// It keeps dedup semantics so use case tests can check idempotency.
type MockJobLogRepository struct {
	mu          sync.Mutex
	Rows        []domain.StoredRow
	Appended    [][]domain.FeatureRecord
	LoadFilters []domain.Filters
	SchemaCalls int
	SchemaErr   error
	AppendErr   error
	// AppendErrs is consumed one per call before AppendErr applies.
	AppendErrs []error
	// FailNext makes the next calls report the whole batch as one failed chunk.
	FailNext  int
	LoadErr   error
	LatestErr error
}

func (m *MockJobLogRepository) EnsureSchema(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SchemaCalls++
	return m.SchemaErr
}

func (m *MockJobLogRepository) Append(ctx context.Context, records []domain.FeatureRecord) (domain.AppendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.AppendErrs) > 0 {
		err := m.AppendErrs[0]
		m.AppendErrs = m.AppendErrs[1:]
		if err != nil {
			return domain.AppendResult{}, err
		}
	}
	if m.AppendErr != nil {
		return domain.AppendResult{}, m.AppendErr
	}
	if m.FailNext > 0 {
		m.FailNext--
		return domain.AppendResult{Received: len(records), FailedChunks: 1, FailedRows: len(records)}, nil
	}
	m.Appended = append(m.Appended, records)

	seen := make(map[domain.DedupKey]bool, len(m.Rows))
	for _, r := range m.Rows {
		seen[r.Key()] = true
	}
	res := domain.AppendResult{Received: len(records)}
	for _, r := range records {
		if seen[r.Key()] {
			res.Duplicates++
			continue
		}
		seen[r.Key()] = true
		m.Rows = append(m.Rows, r)
		res.Inserted++
	}
	return res, nil
}

func (m *MockJobLogRepository) Load(ctx context.Context, filters domain.Filters) ([]domain.StoredRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadFilters = append(m.LoadFilters, filters)
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	var out []domain.StoredRow
	for _, r := range m.Rows {
		run := domain.JobRun{StoredRow: r}
		keep := true
		for _, f := range filters {
			v, err := run.Value(f.Field)
			if err != nil {
				return nil, err
			}
			if !f.Match(v) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockJobLogRepository) LatestRunDate(ctx context.Context) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LatestErr != nil {
		return time.Time{}, false, m.LatestErr
	}
	var latest time.Time
	for _, r := range m.Rows {
		if r.RunDate.After(latest) {
			latest = r.RunDate
		}
	}
	return latest, !latest.IsZero(), nil
}

// MockLogSource serves file contents from memory.
type MockLogSource struct {
	mu        sync.Mutex
	Files     map[string]string
	Order     []string
	Processed []string
	ListErr   error
	MarkErr   error
}

func (m *MockLogSource) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var pending []string
	for _, name := range m.Order {
		if _, ok := m.Files[name]; ok {
			pending = append(pending, name)
		}
	}
	return pending, nil
}

func (m *MockLogSource) Open(path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return io.NopCloser(strings.NewReader(m.Files[path])), nil
}

func (m *MockLogSource) MarkProcessed(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkErr != nil {
		return m.MarkErr
	}
	delete(m.Files, path)
	m.Processed = append(m.Processed, path)
	return nil
}

// MockResultCache is a map-backed domain.ResultCache.
type MockResultCache struct {
	mu          sync.Mutex
	Entries     map[string]domain.Table
	Gets        int
	Hits        int
	Invalidated int
}

func (m *MockResultCache) Get(ctx context.Context, key string) (domain.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	t, ok := m.Entries[key]
	if !ok {
		return domain.Table{}, domain.ErrCacheMiss
	}
	m.Hits++
	return t, nil
}

func (m *MockResultCache) Set(ctx context.Context, key string, table domain.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Entries == nil {
		m.Entries = make(map[string]domain.Table)
	}
	m.Entries[key] = table
	return nil
}

func (m *MockResultCache) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = nil
	m.Invalidated++
	return nil
}
