package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Canonical column names of the job_logs table.
const (
	ColRiskDate    = "riskdate"
	ColID          = "id"
	ColType        = "type"
	ColTimestamp   = "timestamp"
	ColRunDate     = "run_date"
	ColDuration    = "duration"
	ColConfigCount = "config_count"
	ColJobID       = "job_id"
	ColDay         = "day"
	ColMonth       = "month"
	ColYear        = "year"
	ColWeek        = "week"
	ColLogHour     = "log_hour"
	ColMonthEnd    = "month_end"
	ColQuarterEnd  = "quarter_end"
	ColYearEnd     = "year_end"
	ColJobCount    = "job_count"
	ColJobSequence = "job_sequence"
	ColJobRunCount = "job_run_count"
	ColJobOrder    = "job_order"

	// Optional columns populated by the duration estimator.
	ColPredictedDuration = "predicted_duration"
	ColAnomalyScore      = "anomaly_score"
)

// Columns lists the canonical store columns in table order.
var Columns = []string{
	ColRiskDate, ColID, ColType, ColTimestamp, ColRunDate, ColDuration, ColConfigCount,
	ColJobID, ColDay, ColMonth, ColYear, ColWeek, ColLogHour,
	ColMonthEnd, ColQuarterEnd, ColYearEnd,
	ColJobCount, ColJobSequence, ColJobRunCount, ColJobOrder,
}

var canonical = func() map[string]bool {
	m := make(map[string]bool, len(Columns))
	for _, c := range Columns {
		m[c] = true
	}
	return m
}()

// IsColumn reports whether name is a canonical store column.
func IsColumn(name string) bool {
	return canonical[name]
}

func isOptionalColumn(name string) bool {
	return name == ColPredictedDuration || name == ColAnomalyScore
}

// JobRun is a stored row plus the optional estimator outputs.
type JobRun struct {
	StoredRow
	PredictedDuration *float64
	AnomalyScore      *float64
}

// Dataset is the read-side input of every analytics function.
type Dataset struct {
	Rows []JobRun
	// Enriched holds the optional columns that have been populated on Rows.
	Enriched map[string]bool
}

// NewDataset wraps stored rows without optional columns.
func NewDataset(rows []StoredRow) Dataset {
	runs := make([]JobRun, len(rows))
	for i, r := range rows {
		runs[i] = JobRun{StoredRow: r}
	}
	return Dataset{Rows: runs, Enriched: map[string]bool{}}
}

// Has reports whether column is available on the dataset.
func (d Dataset) Has(column string) bool {
	if IsColumn(column) {
		return true
	}
	return d.Enriched[column]
}

// Len returns the number of rows.
func (d Dataset) Len() int { return len(d.Rows) }

// Value returns the value of a named column. Dates and timestamps are returned in
// their canonical text form so they compare correctly as strings.
func (r JobRun) Value(column string) (any, error) {
	switch column {
	case ColRiskDate:
		return formatDate(r.RiskDate), nil
	case ColID:
		return r.ID, nil
	case ColType:
		return r.Type, nil
	case ColTimestamp:
		if !r.HasTimestamp() {
			return nil, nil
		}
		return r.Timestamp.Format(TimestampLayout), nil
	case ColRunDate:
		return formatDate(r.RunDate), nil
	case ColDuration:
		return r.Duration, nil
	case ColConfigCount:
		return r.ConfigCount, nil
	case ColJobID:
		return r.JobID, nil
	case ColDay:
		return r.Day, nil
	case ColMonth:
		return r.Month, nil
	case ColYear:
		return r.Year, nil
	case ColWeek:
		return r.Week, nil
	case ColLogHour:
		return r.LogHour, nil
	case ColMonthEnd:
		return r.MonthEnd, nil
	case ColQuarterEnd:
		return r.QuarterEnd, nil
	case ColYearEnd:
		return r.YearEnd, nil
	case ColJobCount:
		return derefInt(r.JobCount), nil
	case ColJobSequence:
		return derefInt(r.JobSequence), nil
	case ColJobRunCount:
		return derefInt(r.JobRunCount), nil
	case ColJobOrder:
		return r.JobOrder, nil
	case ColPredictedDuration:
		return derefFloat(r.PredictedDuration), nil
	case ColAnomalyScore:
		return derefFloat(r.AnomalyScore), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
}

// ValidateColumn returns ErrUnknownColumn when name is neither canonical nor optional.
func ValidateColumn(name string) error {
	if IsColumn(name) || isOptionalColumn(name) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownColumn, name)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func derefInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func derefFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// ToFloat converts numeric values, and numeric strings, to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// CompareValues orders two column values. Numbers compare numerically, everything
// else by its text form. nil sorts before any value.
func CompareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	_, aStr := a.(string)
	_, bStr := b.(string)
	if !aStr || !bStr {
		fa, okA := ToFloat(a)
		fb, okB := ToFloat(b)
		if okA && okB {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
