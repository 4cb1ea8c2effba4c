package main

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/V4T54L/runtime-analytics/internal/parser"
)

func TestGenerate(t *testing.T) {
	runDate := time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC)
	lines := generate(rand.New(rand.NewPCG(1, 2)), runDate, 50, 0.5)

	var parsed int
	var last time.Time
	for _, line := range lines {
		rec, ok := parser.Parse(line)
		if !ok {
			continue
		}
		parsed++
		if !rec.RunDate.Equal(runDate) {
			t.Errorf("unexpected run_date %s", rec.RunDate)
		}
		if rec.ID < 1 || rec.ID > maxJobID {
			t.Errorf("id %d out of range", rec.ID)
		}
		if rec.Timestamp.Before(last) {
			t.Errorf("timestamps out of order at %q", line)
		}
		last = rec.Timestamp
	}
	if parsed != 50 {
		t.Errorf("expected 50 export lines, got %d", parsed)
	}
}
