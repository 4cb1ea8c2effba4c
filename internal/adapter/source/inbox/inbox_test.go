package inbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func setupTestInbox(t *testing.T, pattern string) (*Inbox, string) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b, err := New(dir, pattern, "", logger)
	if err != nil {
		t.Fatalf("failed to create inbox: %v", err)
	}
	return b, dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestInbox_ListAndMarkProcessed(t *testing.T) {
	ctx := context.Background()
	b, dir := setupTestInbox(t, "")

	writeFile(t, filepath.Join(dir, "b.txt"), "two")
	writeFile(t, filepath.Join(dir, "a.txt"), "one")
	writeFile(t, filepath.Join(dir, "notes.md"), "ignored")
	writeFile(t, filepath.Join(dir, "processed", "old.txt"), "done")

	files, err := b.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	want := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Fatalf("unexpected files (-want +got):\n%s", diff)
	}

	if err := b.MarkProcessed(ctx, files[0]); err != nil {
		t.Fatalf("mark processed failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "processed", "a.txt")); err != nil {
		t.Errorf("expected a.txt in processed dir: %v", err)
	}

	files, _ = b.List(ctx)
	if len(files) != 1 {
		t.Errorf("expected 1 pending file after move, got %v", files)
	}
}

func TestInbox_MarkProcessedKeepsExistingFile(t *testing.T) {
	ctx := context.Background()
	b, dir := setupTestInbox(t, "")

	writeFile(t, filepath.Join(dir, "processed", "a.txt"), "first")
	writeFile(t, filepath.Join(dir, "a.txt"), "second")

	if err := b.MarkProcessed(ctx, filepath.Join(dir, "a.txt")); err != nil {
		t.Fatalf("mark processed failed: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "processed"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected both files kept in processed dir, got %d", len(entries))
	}
	data, _ := os.ReadFile(filepath.Join(dir, "processed", "a.txt"))
	if string(data) != "first" {
		t.Errorf("expected original processed file untouched, got %q", data)
	}
}

func TestInbox_RecursivePattern(t *testing.T) {
	b, dir := setupTestInbox(t, "**/*.txt")

	writeFile(t, filepath.Join(dir, "2025", "07", "run.txt"), "x")
	writeFile(t, filepath.Join(dir, "top.txt"), "y")
	writeFile(t, filepath.Join(dir, "processed", "2025", "old.txt"), "z")

	files, err := b.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", files)
	}
	if !b.Match(filepath.Join(dir, "2025", "07", "run.txt")) {
		t.Error("expected nested file to match")
	}
	if b.Match(filepath.Join(dir, "processed", "x.txt")) {
		t.Error("expected processed file not to match")
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := New(t.TempDir(), "[", "", logger); err == nil {
		t.Fatal("expected an error for an invalid pattern")
	}
}
