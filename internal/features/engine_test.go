package features

import (
	"testing"
	"time"

	"github.com/V4T54L/runtime-analytics/internal/domain"
)

func rec(ts time.Time, riskdate string, id int, typ string, runDate string) domain.ParsedRecord {
	rd, _ := time.Parse(domain.DateLayout, riskdate)
	run, _ := time.Parse(domain.DateLayout, runDate)
	return domain.ParsedRecord{
		Timestamp:   ts,
		ConfigCount: 10,
		RiskDate:    rd,
		ID:          id,
		Type:        typ,
		RunDate:     run,
		Duration:    60,
	}
}

func at(h, m, s, ms int) time.Time {
	return time.Date(2025, 7, 6, h, m, s, ms*int(time.Millisecond), time.UTC)
}

func TestDerive_FiveJobsTwice(t *testing.T) {
	var in []domain.ParsedRecord
	types := []string{"SNSI", "STDV", "STRV", "PSTR", "FSTR"}
	for run := 0; run < 2; run++ {
		for i, typ := range types {
			in = append(in, rec(at(8+run, i, 0, 0), "2025-07-05", i+1, typ, "2025-07-06"))
		}
	}

	out := Derive(in)
	if len(out) != len(in) {
		t.Fatalf("expected %d records, got %d", len(in), len(out))
	}

	for i, f := range out {
		if f.JobCount == nil || *f.JobCount != 5 {
			t.Errorf("record %d: expected job_count 5, got %v", i, f.JobCount)
		}
		wantSeq := i/5 + 1
		if f.JobSequence == nil || *f.JobSequence != wantSeq {
			t.Errorf("record %d: expected job_sequence %d, got %v", i, wantSeq, f.JobSequence)
		}
		if f.JobRunCount == nil || *f.JobRunCount != wantSeq {
			t.Errorf("record %d: expected job_run_count %d, got %v", i, wantSeq, f.JobRunCount)
		}
		wantOrder := map[int]string{1: "1 of 2", 2: "2 of 2"}[wantSeq]
		if f.JobOrder != wantOrder {
			t.Errorf("record %d: expected job_order %q, got %q", i, wantOrder, f.JobOrder)
		}
	}
	if out[0].JobID != "2025-07-05_1_SNSI" {
		t.Errorf("expected job_id 2025-07-05_1_SNSI, got %s", out[0].JobID)
	}
}

func TestDerive_SequenceFollowsTimestampNotEncounter(t *testing.T) {
	in := []domain.ParsedRecord{
		rec(at(12, 0, 0, 0), "2025-07-05", 7, "SNSI", "2025-07-06"),
		rec(at(9, 0, 0, 0), "2025-07-05", 7, "SNSI", "2025-07-06"),
		rec(at(10, 0, 0, 0), "2025-07-05", 7, "SNSI", "2025-07-06"),
	}
	out := Derive(in)

	wantSeq := []int{3, 1, 2}
	wantRunCount := []int{1, 2, 3}
	for i := range out {
		if *out[i].JobSequence != wantSeq[i] {
			t.Errorf("record %d: expected job_sequence %d, got %d", i, wantSeq[i], *out[i].JobSequence)
		}
		if *out[i].JobRunCount != wantRunCount[i] {
			t.Errorf("record %d: expected job_run_count %d, got %d", i, wantRunCount[i], *out[i].JobRunCount)
		}
	}
	if out[1].JobOrder != "1 of 3" {
		t.Errorf("expected job_order \"1 of 3\", got %q", out[1].JobOrder)
	}
}

func TestDerive_TieKeepsFirstSeen(t *testing.T) {
	same := at(9, 30, 0, 500)
	a := rec(same, "2025-07-05", 1, "PSTR", "2025-07-06")
	b := rec(same, "2025-07-05", 1, "PSTR", "2025-07-06")
	a.Duration, b.Duration = 10, 20

	out := Derive([]domain.ParsedRecord{a, b})
	if *out[0].JobSequence != 1 || *out[1].JobSequence != 2 {
		t.Errorf("expected sequences 1,2 on tie, got %d,%d", *out[0].JobSequence, *out[1].JobSequence)
	}
}

func TestDerive_JobCountIsDistinctPerRunDate(t *testing.T) {
	in := []domain.ParsedRecord{
		rec(at(1, 0, 0, 0), "2025-07-05", 1, "SNSI", "2025-07-06"),
		rec(at(2, 0, 0, 0), "2025-07-05", 1, "SNSI", "2025-07-06"),
		rec(at(3, 0, 0, 0), "2025-07-05", 2, "SNSI", "2025-07-06"),
		rec(at(4, 0, 0, 0), "2025-07-05", 1, "SNSI", "2025-07-07"),
	}
	out := Derive(in)

	want := []int{2, 2, 2, 1}
	for i := range out {
		if *out[i].JobCount != want[i] {
			t.Errorf("record %d: expected job_count %d, got %d", i, want[i], *out[i].JobCount)
		}
	}
	if *out[3].JobSequence != 1 || out[3].JobOrder != "1 of 1" {
		t.Errorf("expected separate run_date group, got seq %d order %q", *out[3].JobSequence, out[3].JobOrder)
	}
}

func TestDerive_MissingTimestampKeptWithNullMarkers(t *testing.T) {
	in := []domain.ParsedRecord{
		rec(at(1, 0, 0, 0), "2025-07-05", 1, "SNSI", "2025-07-06"),
		rec(time.Time{}, "2025-07-05", 1, "SNSI", "2025-07-06"),
		rec(at(2, 0, 0, 0), "2025-07-05", 1, "SNSI", "2025-07-06"),
	}
	out := Derive(in)

	if len(out) != 3 {
		t.Fatalf("expected 3 records, got %d", len(out))
	}
	missing := out[1]
	if missing.JobCount != nil || missing.JobSequence != nil || missing.JobRunCount != nil || missing.JobOrder != "" {
		t.Errorf("expected nil sequencing markers, got %+v", missing)
	}
	if missing.JobID != "2025-07-05_1_SNSI" {
		t.Errorf("expected job_id to still be set, got %q", missing.JobID)
	}
	if out[2].JobOrder != "2 of 2" {
		t.Errorf("expected missing row excluded from group, got %q", out[2].JobOrder)
	}
}

func TestCalendarFeatures(t *testing.T) {
	tests := []struct {
		name       string
		ts         time.Time
		day        string
		month      string
		week       string
		monthEnd   int
		quarterEnd int
		yearEnd    int
	}{
		{"sunday in july", time.Date(2025, 7, 6, 14, 0, 0, 0, time.UTC), "Sun", "July", "27_2025", 0, 0, 0},
		{"before first sunday", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "Wed", "January", "00_2025", 0, 0, 0},
		{"leap day", time.Date(2024, 2, 29, 6, 0, 0, 0, time.UTC), "Thu", "February", "08_2024", 1, 0, 0},
		{"quarter end", time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC), "Mon", "March", "13_2025", 1, 1, 0},
		{"year end", time.Date(2025, 12, 31, 1, 0, 0, 0, time.UTC), "Wed", "December", "52_2025", 1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Derive([]domain.ParsedRecord{rec(tt.ts, "2025-01-01", 1, "SNSI", "2025-01-01")})[0]
			if f.Day != tt.day || f.Month != tt.month || f.Week != tt.week {
				t.Errorf("expected %s/%s/%s, got %s/%s/%s", tt.day, tt.month, tt.week, f.Day, f.Month, f.Week)
			}
			if f.MonthEnd != tt.monthEnd || f.QuarterEnd != tt.quarterEnd || f.YearEnd != tt.yearEnd {
				t.Errorf("expected flags %d/%d/%d, got %d/%d/%d", tt.monthEnd, tt.quarterEnd, tt.yearEnd, f.MonthEnd, f.QuarterEnd, f.YearEnd)
			}
			if f.Year != tt.ts.Year() || f.LogHour != tt.ts.Hour() {
				t.Errorf("unexpected year/hour %d/%d", f.Year, f.LogHour)
			}
		})
	}
}
