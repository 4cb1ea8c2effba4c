// Package inbox serves pending scheduler log files from a directory and moves
// them aside once their records are persisted.
package inbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// DefaultPattern matches scheduler exports at the top of the inbox.
	DefaultPattern = "*.txt"
	// DefaultProcessedDir is the subdirectory receiving persisted files.
	DefaultProcessedDir = "processed"
)

// Inbox implements domain.LogSource over a local directory.
type Inbox struct {
	dir          string
	pattern      string
	processedDir string
	logger       *slog.Logger
}

// New creates the inbox and processed directories if needed.
func New(dir, pattern, processedName string, logger *slog.Logger) (*Inbox, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if processedName == "" {
		processedName = DefaultProcessedDir
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid inbox pattern %q", pattern)
	}

	processed := filepath.Join(dir, processedName)
	if err := os.MkdirAll(processed, 0755); err != nil {
		return nil, fmt.Errorf("failed to create processed directory %s: %w", processed, err)
	}

	return &Inbox{
		dir:          dir,
		pattern:      pattern,
		processedDir: processedName,
		logger:       logger.With("component", "inbox", "dir", dir),
	}, nil
}

// Dir returns the inbox directory.
func (b *Inbox) Dir() string { return b.dir }

// List returns the pending files sorted by name, skipping the processed directory.
func (b *Inbox) List(ctx context.Context) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(b.dir), b.pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		if first, _, _ := strings.Cut(m, "/"); first == b.processedDir {
			continue
		}
		files = append(files, filepath.Join(b.dir, filepath.FromSlash(m)))
	}
	sort.Strings(files)
	return files, nil
}

// Match reports whether an absolute or inbox-relative path is a pending file name.
func (b *Inbox) Match(p string) bool {
	rel, err := filepath.Rel(b.dir, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)
	if first, _, _ := strings.Cut(rel, "/"); first == b.processedDir {
		return false
	}
	ok, _ := doublestar.Match(b.pattern, rel)
	return ok
}

// Open opens one pending file.
func (b *Inbox) Open(p string) (io.ReadCloser, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", p, err)
	}
	return f, nil
}

// MarkProcessed moves a file under the processed directory, keeping its relative
// path. An existing file of the same name gets a timestamp suffix instead of being replaced.
func (b *Inbox) MarkProcessed(ctx context.Context, p string) error {
	rel, err := filepath.Rel(b.dir, p)
	if err != nil {
		return fmt.Errorf("file %s is outside the inbox: %w", p, err)
	}
	target := filepath.Join(b.dir, b.processedDir, rel)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
	}
	if _, err := os.Stat(target); err == nil {
		ext := path.Ext(target)
		target = fmt.Sprintf("%s.%d%s", strings.TrimSuffix(target, ext), time.Now().UnixNano(), ext)
	}
	if err := os.Rename(p, target); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", p, target, err)
	}
	b.logger.Info("moved processed file", "from", p, "to", target)
	return nil
}
