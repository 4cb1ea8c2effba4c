package inbox

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestInbox_Notify(t *testing.T) {
	b, dir := setupTestInbox(t, "*.txt")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals, err := b.Notify(ctx)
	if err != nil {
		t.Fatalf("failed to watch inbox: %v", err)
	}

	writeFile(t, filepath.Join(dir, "2025-07-07.txt"), "line\n")

	select {
	case <-signals:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a signal for a new pending file")
	}

	cancel()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-signals:
			if !ok {
				goleak.VerifyNone(t)
				return
			}
		case <-deadline:
			t.Fatal("signal channel was not closed after cancel")
		}
	}
}

func TestInbox_NotifyMissingDir(t *testing.T) {
	b, dir := setupTestInbox(t, "*.txt")
	b.dir = filepath.Join(dir, "gone")

	if _, err := b.Notify(context.Background()); err == nil {
		t.Error("expected an error for a missing directory")
	}
}
