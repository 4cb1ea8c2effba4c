package inbox

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Notify watches the inbox directory and signals on the returned channel when a
// pending file is created or written. Signals coalesce while nobody reads. The
// channel is closed once ctx is done. Only the top-level directory is watched;
// files in subdirectories are picked up by the next List.
func (b *Inbox) Notify(ctx context.Context) (<-chan struct{}, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(b.dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", b.dir, err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer fsw.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
					continue
				}
				if !b.Match(ev.Name) {
					continue
				}
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				b.logger.Warn("watcher error", "error", err)
			}
		}
	}()
	return out, nil
}
