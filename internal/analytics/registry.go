// Package analytics holds the table-producing functions that answer prompts and reports.
package analytics

import (
	"fmt"
	"sync"

	"github.com/V4T54L/runtime-analytics/internal/domain"
)

// Func computes a result table from a dataset. A function whose required columns
// are absent returns a typed empty table, not an error.
type Func func(ds domain.Dataset, p domain.Params) (domain.Table, error)

// Registry maps function names to implementations.
type Registry struct {
	mu    sync.RWMutex
	funcs map[domain.Function]Func
}

// NewRegistry returns a registry with every built-in function registered.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[domain.Function]Func)}
	r.Register(domain.FuncSelectJobsByMetricRank, SelectJobsByMetricRank)
	r.Register(domain.FuncJobCountByType, JobCountByType)
	r.Register(domain.FuncUniqueJobsPerDay, UniqueJobsPerDay)
	r.Register(domain.FuncAggregateByField, AggregateByField)
	r.Register(domain.FuncFilterJobs, FilterJobs)
	r.Register(domain.FuncPredictionAccuracyPerJobType, PredictionAccuracyPerJobType)
	r.Register(domain.FuncTopAnomalyScores, TopAnomalyScores)
	r.Register(domain.FuncDurationByTypeComparison, DurationByTypeComparison)
	return r
}

// Register adds or replaces a function.
func (r *Registry) Register(name domain.Function, f Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = f
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name domain.Function) (Func, error) {
	r.mu.RLock()
	f, ok := r.funcs[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFunction, name)
	}
	return f, nil
}

// Run looks up and invokes a function.
func (r *Registry) Run(name domain.Function, ds domain.Dataset, p domain.Params) (domain.Table, error) {
	f, err := r.Lookup(name)
	if err != nil {
		return domain.Table{}, err
	}
	if p == nil {
		p = domain.Params{}
	}
	t, err := f(ds, p)
	if err != nil {
		return domain.Table{}, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}
