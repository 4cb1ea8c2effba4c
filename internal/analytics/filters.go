package analytics

import (
	"github.com/V4T54L/runtime-analytics/internal/domain"
)

// Scope turns the scoping parameters of a query into predicates: the "filters"
// map plus start_date/end_date as inclusive bounds on run_date.
func Scope(p domain.Params) (domain.Filters, error) {
	fs, err := p.Filters()
	if err != nil {
		return nil, err
	}
	if start := p.String(domain.ParamStartDate, ""); start != "" {
		fs = append(fs, domain.Filter{Field: domain.ColRunDate, Op: domain.OpGte, Value: start})
	}
	if end := p.String(domain.ParamEndDate, ""); end != "" {
		fs = append(fs, domain.Filter{Field: domain.ColRunDate, Op: domain.OpLte, Value: end})
	}
	return fs, nil
}

// Pushdown splits predicates into those the store can evaluate (equality or set
// membership on a canonical column) and those applied in memory.
func Pushdown(fs domain.Filters) (store, memory domain.Filters) {
	for _, f := range fs {
		if f.Exact() && domain.IsColumn(f.Field) {
			store = append(store, f)
		} else {
			memory = append(memory, f)
		}
	}
	return store, memory
}

// ApplyFilters keeps the rows matching every predicate. A predicate on an optional
// column that the dataset lacks matches nothing.
func ApplyFilters(ds domain.Dataset, fs domain.Filters) (domain.Dataset, error) {
	if len(fs) == 0 {
		return ds, nil
	}
	for _, f := range fs {
		if err := domain.ValidateColumn(f.Field); err != nil {
			return domain.Dataset{}, err
		}
	}

	out := domain.Dataset{Rows: make([]domain.JobRun, 0, len(ds.Rows)), Enriched: ds.Enriched}
	for _, r := range ds.Rows {
		keep := true
		for _, f := range fs {
			v, err := r.Value(f.Field)
			if err != nil {
				return domain.Dataset{}, err
			}
			if !f.Match(v) {
				keep = false
				break
			}
		}
		if keep {
			out.Rows = append(out.Rows, r)
		}
	}
	return out, nil
}
