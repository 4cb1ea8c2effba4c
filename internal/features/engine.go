// Package features derives calendar and sequencing columns for a batch of parsed records.
package features

import (
	"fmt"
	"sort"
	"time"

	"github.com/V4T54L/runtime-analytics/internal/domain"
)

// Derive computes every FeatureRecord field for one ingestion batch.
// The output keeps the input order. Records without a timestamp get calendar
// fields left empty and nil sequencing fields; they never join a group.
func Derive(records []domain.ParsedRecord) []domain.FeatureRecord {
	out := make([]domain.FeatureRecord, len(records))
	for i, r := range records {
		out[i] = calendar(r)
	}

	jobsPerDay := make(map[string]map[string]struct{})
	groups := make(map[groupKey][]int)
	var order []groupKey
	for i, f := range out {
		if !f.HasTimestamp() {
			continue
		}
		day := f.RunDate.Format(domain.DateLayout)
		if jobsPerDay[day] == nil {
			jobsPerDay[day] = make(map[string]struct{})
		}
		jobsPerDay[day][f.JobID] = struct{}{}

		k := groupKey{runDate: day, jobID: f.JobID}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	for _, k := range order {
		idx := groups[k]
		count := len(jobsPerDay[k.runDate])

		for pos, i := range idx {
			out[i].JobCount = domain.IntPtr(count)
			out[i].JobRunCount = domain.IntPtr(pos + 1)
		}

		// Stable sort keeps encounter order for equal timestamps.
		ranked := append([]int(nil), idx...)
		sort.SliceStable(ranked, func(a, b int) bool {
			return out[ranked[a]].Timestamp.Before(out[ranked[b]].Timestamp)
		})
		for rank, i := range ranked {
			seq := rank + 1
			out[i].JobSequence = domain.IntPtr(seq)
			out[i].JobOrder = fmt.Sprintf("%d of %d", seq, len(idx))
		}
	}
	return out
}

type groupKey struct {
	runDate string
	jobID   string
}

func calendar(r domain.ParsedRecord) domain.FeatureRecord {
	f := domain.FeatureRecord{
		ParsedRecord: r,
		JobID:        r.JobIdentity(),
	}
	if !r.HasTimestamp() {
		return f
	}
	ts := r.Timestamp
	f.Day = ts.Format("Mon")
	f.Month = ts.Month().String()
	f.Year = ts.Year()
	f.Week = Week(ts)
	f.LogHour = ts.Hour()
	f.MonthEnd = flag(IsMonthEnd(ts))
	f.QuarterEnd = flag(IsMonthEnd(ts) && ts.Month()%3 == 0)
	f.YearEnd = flag(ts.Month() == time.December && ts.Day() == 31)
	return f
}

// Week returns the Sunday-first week of the year and the year, e.g. "27_2025".
// Days before the first Sunday fall in week 00.
func Week(t time.Time) string {
	week := (t.YearDay() - 1 + 7 - int(t.Weekday())) / 7
	return fmt.Sprintf("%02d_%d", week, t.Year())
}

// IsMonthEnd reports whether t falls on the last day of its month.
func IsMonthEnd(t time.Time) bool {
	return t.AddDate(0, 0, 1).Month() != t.Month()
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
