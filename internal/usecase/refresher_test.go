package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/V4T54L/runtime-analytics/internal/domain/mocks"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []RefreshEvent
}

func (p *recordingPublisher) Publish(e RefreshEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestRefresher_Check(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MockJobLogRepository{}
	cache := &mocks.MockResultCache{}
	pub := &recordingPublisher{}
	r := NewRefresher(repo, cache, pub, newMetrics(), time.Hour, discard)

	if changed, err := r.Check(ctx); err != nil || changed {
		t.Fatalf("expected no change on an empty store, got %v, %v", changed, err)
	}

	lines := NewIngestLinesUseCase(repo, newMetrics(), discard)
	if _, err := lines.Ingest(ctx, strings.NewReader(hundredLineFile())); err != nil {
		t.Fatal(err)
	}
	if changed, _ := r.Check(ctx); changed {
		t.Error("expected the first observation to only set the baseline")
	}
	if changed, _ := r.Check(ctx); changed {
		t.Error("expected no change while the run date is stable")
	}

	next := logLine("2025-07-08 09:00:00,000", 3, "2025-07-07", 9, "STDV", "2025-07-08", 30)
	if _, err := lines.Ingest(ctx, strings.NewReader(next)); err != nil {
		t.Fatal(err)
	}
	changed, err := r.Check(ctx)
	if err != nil || !changed {
		t.Fatalf("expected a change, got %v, %v", changed, err)
	}
	if cache.Invalidated != 1 {
		t.Errorf("expected one invalidation, got %d", cache.Invalidated)
	}
	if pub.count() != 1 || pub.events[0].LatestRunDate != "2025-07-08" || pub.events[0].PreviousRunDate != "2025-07-07" {
		t.Errorf("unexpected events %+v", pub.events)
	}
}

func TestRefresher_RunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := &mocks.MockJobLogRepository{}
	r := NewRefresher(repo, nil, nil, newMetrics(), 5*time.Millisecond, discard)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop after cancel")
	}
}
