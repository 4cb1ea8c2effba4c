package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/V4T54L/runtime-analytics/internal/domain"
)

const relativeErrorEpsilon = 1e-5

// rowColumns are the columns of row-level results: canonical columns plus any
// optional column the dataset carries.
func rowColumns(ds domain.Dataset) []string {
	cols := append([]string(nil), domain.Columns...)
	for _, c := range []string{domain.ColPredictedDuration, domain.ColAnomalyScore} {
		if ds.Enriched[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

func values(r domain.JobRun, cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i], _ = r.Value(c)
	}
	return out
}

// SelectJobsByMetricRank ranks one row per job_id by a metric. config_count breaks
// ties in the opposite direction: among equally fast jobs the larger workload
// ranks first, among equally slow jobs the smaller one does.
func SelectJobsByMetricRank(ds domain.Dataset, p domain.Params) (domain.Table, error) {
	n := p.Int(domain.ParamN, 10)
	metric := p.String(domain.ParamMetric, domain.ColDuration)
	ascending := p.Bool(domain.ParamAscending, false)

	cols := append([]string{"rank"}, rowColumns(ds)...)
	t := domain.NewTable(cols...)
	if !ds.Has(metric) || n <= 0 {
		return t, nil
	}

	type ranked struct {
		row    domain.JobRun
		metric any
	}
	seen := make(map[string]bool)
	var unique []ranked
	for _, r := range ds.Rows {
		if seen[r.JobID] {
			continue
		}
		seen[r.JobID] = true
		v, _ := r.Value(metric)
		unique = append(unique, ranked{row: r, metric: v})
	}

	sort.SliceStable(unique, func(i, j int) bool {
		c := domain.CompareValues(unique[i].metric, unique[j].metric)
		if c != 0 {
			if ascending {
				return c < 0
			}
			return c > 0
		}
		if ascending {
			return unique[i].row.ConfigCount > unique[j].row.ConfigCount
		}
		return unique[i].row.ConfigCount < unique[j].row.ConfigCount
	})

	for i, u := range unique {
		if i >= n {
			break
		}
		t.Append(append([]any{i + 1}, values(u.row, cols[1:])...)...)
	}
	return t, nil
}

// JobCountByType counts runs and sums config_count per type.
func JobCountByType(ds domain.Dataset, _ domain.Params) (domain.Table, error) {
	t := domain.NewTable(domain.ColType, "run_count", "total_config_count")

	type agg struct{ runs, configs int }
	groups := make(map[string]*agg)
	for _, r := range ds.Rows {
		g, ok := groups[r.Type]
		if !ok {
			g = &agg{}
			groups[r.Type] = g
		}
		g.runs++
		g.configs += r.ConfigCount
	}

	for _, typ := range sortedKeys(groups) {
		g := groups[typ]
		t.Append(typ, g.runs, g.configs)
	}
	return t, nil
}

// UniqueJobsPerDay counts rows per (run_date, id).
func UniqueJobsPerDay(ds domain.Dataset, _ domain.Params) (domain.Table, error) {
	t := domain.NewTable(domain.ColRunDate, domain.ColID, "count")

	type key struct {
		runDate string
		id      int
	}
	counts := make(map[key]int)
	var keys []key
	for _, r := range ds.Rows {
		k := key{runDate: r.RunDate.Format(domain.DateLayout), id: r.ID}
		if _, ok := counts[k]; !ok {
			keys = append(keys, k)
		}
		counts[k]++
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].runDate != keys[j].runDate {
			return keys[i].runDate < keys[j].runDate
		}
		return keys[i].id < keys[j].id
	})

	for _, k := range keys {
		t.Append(k.runDate, k.id, counts[k])
	}
	return t, nil
}

var aggregations = map[string]func(vals []any) any{
	"mean":   func(v []any) any { return mean(numbers(v)) },
	"sum":    func(v []any) any { return sum(numbers(v)) },
	"median": func(v []any) any { return median(numbers(v)) },
	"count":  func(v []any) any { return len(v) },
	"min":    func(v []any) any { return extreme(v, -1) },
	"max":    func(v []any) any { return extreme(v, 1) },
}

// AggregateByField groups rows by one column and aggregates another.
func AggregateByField(ds domain.Dataset, p domain.Params) (domain.Table, error) {
	groupBy := p.String(domain.ParamGroupBy, domain.ColType)
	field := p.String(domain.ParamAggField, domain.ColDuration)
	ops := p.Strings(domain.ParamOps)
	if len(ops) == 0 {
		ops = []string{"mean"}
	}

	cols := []string{groupBy}
	for _, op := range ops {
		if _, ok := aggregations[op]; !ok {
			return domain.Table{}, fmt.Errorf("unsupported aggregation %q", op)
		}
		cols = append(cols, field+"_"+op)
	}
	t := domain.NewTable(cols...)
	if !ds.Has(groupBy) || !ds.Has(field) {
		return t, nil
	}

	groups := make(map[string][]any)
	groupKeys := make(map[string]any)
	var order []string
	for _, r := range ds.Rows {
		k, _ := r.Value(groupBy)
		if k == nil {
			continue
		}
		ks := fmt.Sprint(k)
		if _, ok := groupKeys[ks]; !ok {
			groupKeys[ks] = k
			order = append(order, ks)
		}
		v, _ := r.Value(field)
		if v != nil {
			groups[ks] = append(groups[ks], v)
		} else if _, ok := groups[ks]; !ok {
			groups[ks] = nil
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return domain.CompareValues(groupKeys[order[i]], groupKeys[order[j]]) < 0
	})

	for _, ks := range order {
		row := []any{groupKeys[ks]}
		for _, op := range ops {
			row = append(row, aggregations[op](groups[ks]))
		}
		t.Append(row...)
	}
	return t, nil
}

// FilterJobs returns the rows matching the "filters" parameter.
func FilterJobs(ds domain.Dataset, p domain.Params) (domain.Table, error) {
	cols := rowColumns(ds)
	t := domain.NewTable(cols...)

	fs, err := p.Filters()
	if err != nil {
		return domain.Table{}, err
	}
	filtered, err := ApplyFilters(ds, fs)
	if err != nil {
		return domain.Table{}, err
	}
	for _, r := range filtered.Rows {
		t.Append(values(r, cols)...)
	}
	return t, nil
}

// PredictionAccuracyPerJobType reports the estimator error per type.
func PredictionAccuracyPerJobType(ds domain.Dataset, _ domain.Params) (domain.Table, error) {
	t := domain.NewTable(domain.ColType, "total_runs", "avg_absolute_error", "avg_relative_error")
	if !ds.Has(domain.ColPredictedDuration) {
		return t, nil
	}

	type agg struct {
		runs        int
		abs, relErr float64
	}
	groups := make(map[string]*agg)
	for _, r := range ds.Rows {
		if r.PredictedDuration == nil {
			continue
		}
		g, ok := groups[r.Type]
		if !ok {
			g = &agg{}
			groups[r.Type] = g
		}
		absErr := math.Abs(*r.PredictedDuration - float64(r.Duration))
		g.runs++
		g.abs += absErr
		g.relErr += absErr / (float64(r.Duration) + relativeErrorEpsilon)
	}

	for _, typ := range sortedKeys(groups) {
		g := groups[typ]
		t.Append(typ, g.runs, g.abs/float64(g.runs), g.relErr/float64(g.runs))
	}
	return t, nil
}

// TopAnomalyScores keeps the n job identities with the highest anomaly score and
// lists all their scored runs, highest score first. run_id is the run's position
// by timestamp within its job identity.
func TopAnomalyScores(ds domain.Dataset, p domain.Params) (domain.Table, error) {
	t := domain.NewTable(domain.ColRiskDate, domain.ColID, domain.ColType, domain.ColAnomalyScore,
		"run_timestamp", domain.ColConfigCount, "run_id")
	n := p.Int(domain.ParamN, 10)
	if !ds.Has(domain.ColAnomalyScore) || n <= 0 {
		return t, nil
	}

	type group struct {
		runs []domain.JobRun
		max  float64
	}
	groups := make(map[string]*group)
	var order []string
	for _, r := range ds.Rows {
		if r.AnomalyScore == nil {
			continue
		}
		id := r.JobIdentity()
		g, ok := groups[id]
		if !ok {
			g = &group{max: math.Inf(-1)}
			groups[id] = g
			order = append(order, id)
		}
		g.runs = append(g.runs, r)
		g.max = math.Max(g.max, *r.AnomalyScore)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return groups[order[i]].max > groups[order[j]].max
	})
	if len(order) > n {
		order = order[:n]
	}

	type scored struct {
		run   domain.JobRun
		runID string
	}
	var out []scored
	for _, id := range order {
		g := groups[id]
		byTime := append([]domain.JobRun(nil), g.runs...)
		sort.SliceStable(byTime, func(i, j int) bool {
			return byTime[i].Timestamp.Before(byTime[j].Timestamp)
		})
		for k, r := range byTime {
			out = append(out, scored{run: r, runID: fmt.Sprintf("%d of %d", k+1, len(byTime))})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].run.AnomalyScore > *out[j].run.AnomalyScore
	})

	for _, s := range out {
		ts, _ := s.run.Value(domain.ColTimestamp)
		rd, _ := s.run.Value(domain.ColRiskDate)
		t.Append(rd, s.run.ID, s.run.Type, *s.run.AnomalyScore, ts, s.run.ConfigCount, s.runID)
	}
	return t, nil
}

// DurationByTypeComparison compares the total minutes per type on run_date with a
// reference date, one week earlier by default. run_date defaults to the latest
// run_date in the dataset.
func DurationByTypeComparison(ds domain.Dataset, p domain.Params) (domain.Table, error) {
	t := domain.NewTable(domain.ColType, "duration_minutes", "reference_minutes", domain.ColJobCount, "delta_minutes")
	if ds.Len() == 0 {
		return t, nil
	}

	runDate, err := dateParam(p, domain.ParamRunDate, latestRunDate(ds))
	if err != nil {
		return domain.Table{}, err
	}
	refDate, err := dateParam(p, domain.ParamRefDate, runDate.AddDate(0, 0, -7))
	if err != nil {
		return domain.Table{}, err
	}

	current := make(map[string]int)
	jobs := make(map[string]int)
	reference := make(map[string]int)
	for _, r := range ds.Rows {
		switch {
		case r.RunDate.Equal(runDate):
			current[r.Type] += r.Duration
			jobs[r.Type]++
		case r.RunDate.Equal(refDate):
			reference[r.Type] += r.Duration
		}
	}

	for _, typ := range sortedKeys(current) {
		cur := float64(current[typ]) / 60
		var ref, delta any
		if secs, ok := reference[typ]; ok {
			ref = float64(secs) / 60
			delta = cur - float64(secs)/60
		}
		t.Append(typ, cur, ref, jobs[typ], delta)
	}
	return t, nil
}

func dateParam(p domain.Params, key string, def time.Time) (time.Time, error) {
	s := p.String(key, "")
	if s == "" {
		return def, nil
	}
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func latestRunDate(ds domain.Dataset) time.Time {
	var latest time.Time
	for _, r := range ds.Rows {
		if r.RunDate.After(latest) {
			latest = r.RunDate
		}
	}
	return latest
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func numbers(vals []any) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if _, isText := v.(string); isText {
			continue
		}
		if f, ok := domain.ToFloat(v); ok {
			out = append(out, f)
		}
	}
	return out
}

func sum(xs []float64) any {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func mean(xs []float64) any {
	if len(xs) == 0 {
		return nil
	}
	return sum(xs).(float64) / float64(len(xs))
}

func median(xs []float64) any {
	if len(xs) == 0 {
		return nil
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// extreme returns the minimum (dir < 0) or maximum (dir > 0) value.
func extreme(vals []any, dir int) any {
	var best any
	for _, v := range vals {
		if best == nil || domain.CompareValues(v, best)*dir > 0 {
			best = v
		}
	}
	return best
}
