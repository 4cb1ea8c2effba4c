package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/V4T54L/runtime-analytics/internal/domain"
)

// Period scopes a report to a window ending now. PeriodRange reports take their
// window from the caller instead.
type Period string

const (
	PeriodAll       Period = ""
	PeriodYesterday Period = "yesterday"
	PeriodWeek      Period = "week"
	PeriodMonth     Period = "month"
	PeriodYear      Period = "year"
	PeriodRange     Period = "range"
)

// DateRange holds inclusive run_date bounds in domain.DateLayout. Either side
// may be empty.
type DateRange struct {
	Start string
	End   string
}

// IsZero reports whether no bound is set.
func (d DateRange) IsZero() bool { return d.Start == "" && d.End == "" }

// Report is a named, fixed function invocation.
type Report struct {
	Name     string
	Function domain.Function
	Params   domain.Params
	Period   Period
}

func slowJobs() domain.Params {
	return domain.Params{domain.ParamN: 10, domain.ParamMetric: domain.ColDuration, domain.ParamAscending: false}
}

// Reports returns the predefined reports in display order.
func Reports() []Report {
	return []Report{
		{Name: "Top Slow Jobs (Yesterday)", Function: domain.FuncSelectJobsByMetricRank, Params: slowJobs(), Period: PeriodYesterday},
		{Name: "Top Slow Jobs This Week", Function: domain.FuncSelectJobsByMetricRank, Params: slowJobs(), Period: PeriodWeek},
		{Name: "Top Slow Jobs This Month", Function: domain.FuncSelectJobsByMetricRank, Params: slowJobs(), Period: PeriodMonth},
		{Name: "Top Slow Jobs This Year", Function: domain.FuncSelectJobsByMetricRank, Params: slowJobs(), Period: PeriodYear},
		{Name: "Top Slow Jobs for Date Range", Function: domain.FuncSelectJobsByMetricRank, Params: slowJobs(), Period: PeriodRange},
		{Name: "Job Count by Type", Function: domain.FuncJobCountByType, Params: domain.Params{}},
		{Name: "Unique Jobs Per Day", Function: domain.FuncUniqueJobsPerDay, Params: domain.Params{}},
		{Name: "Average Duration by Type", Function: domain.FuncAggregateByField, Params: domain.Params{
			domain.ParamGroupBy:  domain.ColType,
			domain.ParamAggField: domain.ColDuration,
			domain.ParamOps:      []string{"mean"},
		}},
		{Name: "Prediction Accuracy per Job Type", Function: domain.FuncPredictionAccuracyPerJobType, Params: domain.Params{}},
		{Name: "Top Anomaly Scores", Function: domain.FuncTopAnomalyScores, Params: domain.Params{domain.ParamN: 10}},
	}
}

// FindReport looks a report up by name, ignoring case and surrounding space.
func FindReport(name string) (Report, error) {
	want := strings.TrimSpace(name)
	for _, r := range Reports() {
		if strings.EqualFold(r.Name, want) {
			return r, nil
		}
	}
	return Report{}, fmt.Errorf("%w: %q", domain.ErrUnknownReport, name)
}

// ScopedParams returns the report params with its period resolved against now.
// Weeks start on Monday.
func (r Report) ScopedParams(now time.Time) domain.Params {
	p := r.Params.Clone()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var key string
	var from time.Time
	switch r.Period {
	case PeriodYesterday:
		key, from = domain.ColRunDate, today.AddDate(0, 0, -1)
	case PeriodWeek:
		key, from = domain.ColRunDate+" >=", today.AddDate(0, 0, -((int(today.Weekday())+6)%7))
	case PeriodMonth:
		key, from = domain.ColRunDate+" >=", today.AddDate(0, 0, 1-today.Day())
	case PeriodYear:
		key, from = domain.ColRunDate+" >=", time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
	default:
		return p
	}
	return domain.MergeParams(p, domain.Params{
		domain.ParamFilters: map[string]any{key: from.Format(domain.DateLayout)},
	})
}

// Bind scopes the report to now and narrows it to dr. A range report needs both
// bounds; other reports accept an optional range on top of their period.
func (r Report) Bind(now time.Time, dr DateRange) (domain.Params, error) {
	if r.Period == PeriodRange && (dr.Start == "" || dr.End == "") {
		return nil, fmt.Errorf("%w: report %q needs start_date and end_date", domain.ErrInvalidRange, r.Name)
	}
	p := r.ScopedParams(now)
	if dr.IsZero() {
		return p, nil
	}

	var start, end time.Time
	for _, b := range []struct {
		key, value string
		t          *time.Time
	}{
		{domain.ParamStartDate, dr.Start, &start},
		{domain.ParamEndDate, dr.End, &end},
	} {
		if b.value == "" {
			continue
		}
		t, err := time.Parse(domain.DateLayout, b.value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %q is not YYYY-MM-DD", domain.ErrInvalidRange, b.key, b.value)
		}
		*b.t = t
		p[b.key] = b.value
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return nil, fmt.Errorf("%w: end_date %s is before start_date %s", domain.ErrInvalidRange, dr.End, dr.Start)
	}
	return p, nil
}
