package domain

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// Function is the closed set of analytics operations a catalog entry may target.
type Function string

const (
	FuncSelectJobsByMetricRank       Function = "select_jobs_by_metric_rank"
	FuncJobCountByType               Function = "job_count_by_type"
	FuncUniqueJobsPerDay             Function = "unique_jobs_per_day"
	FuncAggregateByField             Function = "aggregate_by_field"
	FuncFilterJobs                   Function = "filter_jobs"
	FuncPredictionAccuracyPerJobType Function = "prediction_accuracy_per_job_type"
	FuncTopAnomalyScores             Function = "top_anomaly_scores"
	FuncDurationByTypeComparison     Function = "duration_by_type_comparison"
)

// Functions returns every known function in declaration order.
func Functions() []Function {
	return []Function{
		FuncSelectJobsByMetricRank,
		FuncJobCountByType,
		FuncUniqueJobsPerDay,
		FuncAggregateByField,
		FuncFilterJobs,
		FuncPredictionAccuracyPerJobType,
		FuncTopAnomalyScores,
		FuncDurationByTypeComparison,
	}
}

// ParseFunction maps a name to a Function.
func ParseFunction(name string) (Function, error) {
	for _, f := range Functions() {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFunction, name)
}

// Params are the named arguments of an analytics function.
type Params map[string]any

// Well-known parameter keys.
const (
	ParamN         = "n"
	ParamAscending = "ascending"
	ParamMetric    = "metric"
	ParamFilters   = "filters"
	ParamStartDate = "start_date"
	ParamEndDate   = "end_date"
	ParamGroupBy   = "group_by"
	ParamAggField  = "agg_field"
	ParamOps       = "operations"
	ParamRunDate   = "run_date"
	ParamRefDate   = "reference_date"
)

// Clone returns a copy; a nested filter map is copied too.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		if m, ok := asMap(v); ok {
			v = maps.Clone(m)
		}
		out[k] = v
	}
	return out
}

// Int returns an integer parameter or def when absent or not numeric.
func (p Params) Int(key string, def int) int {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return def
}

// Bool returns a boolean parameter or def.
func (p Params) Bool(key string, def bool) bool {
	switch b := p[key].(type) {
	case bool:
		return b
	case string:
		if v, err := strconv.ParseBool(b); err == nil {
			return v
		}
	}
	return def
}

// String returns a string parameter or def.
func (p Params) String(key, def string) string {
	if s, ok := p[key].(string); ok && s != "" {
		return s
	}
	return def
}

// Strings returns a list parameter; a single string becomes a one-element list.
func (p Params) Strings(key string) []string {
	v, ok := p[key]
	if !ok {
		return nil
	}
	if s, ok := v.(string); ok {
		return []string{s}
	}
	list, ok := AsList(v)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, fmt.Sprint(item))
	}
	return out
}

// FilterMap returns the raw "filters" map.
func (p Params) FilterMap() map[string]any {
	m, _ := asMap(p[ParamFilters])
	return m
}

// Filters parses the "filters" parameter.
func (p Params) Filters() (Filters, error) {
	m := p.FilterMap()
	if len(m) == 0 {
		return nil, nil
	}
	return ParseFilters(m)
}

// MergeParams overlays override on base. Override wins per key; the filters map
// is merged key by key so a date scope does not erase a default type filter.
func MergeParams(base, override Params) Params {
	out := base.Clone()
	for k, v := range override {
		if k == ParamFilters {
			baseFilters, _ := asMap(out[k])
			extra, ok := asMap(v)
			if ok && baseFilters != nil {
				merged := maps.Clone(baseFilters)
				maps.Copy(merged, extra)
				out[k] = merged
				continue
			}
		}
		out[k] = v
	}
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Params:
		return map[string]any(m), true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

// InterpretedQuery is the outcome of resolving one free-text prompt.
// An empty Function is the explicit "no match" result.
type InterpretedQuery struct {
	Function Function
	Params   Params
	Example  string
	Score    float64
}

// Resolved reports whether an intent was matched.
func (q InterpretedQuery) Resolved() bool {
	return q.Function != ""
}
