package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/V4T54L/runtime-analytics/internal/usecase"
)

type frame struct {
	event string
	data  []byte
}

// SSEBroker fans refresh events out to connected /events clients.
type SSEBroker struct {
	logger    *slog.Logger
	clients   map[chan frame]struct{}
	mu        sync.RWMutex
	events    chan usecase.RefreshEvent
	heartbeat time.Duration
}

// NewSSEBroker creates a broker and starts its loop; it stops when ctx is done.
func NewSSEBroker(ctx context.Context, logger *slog.Logger, heartbeat time.Duration) *SSEBroker {
	b := &SSEBroker{
		logger:    logger.With("component", "sse"),
		clients:   make(map[chan frame]struct{}),
		events:    make(chan usecase.RefreshEvent, 64),
		heartbeat: heartbeat,
	}
	go b.run(ctx)
	return b
}

// Publish queues a refresh event without blocking the refresher.
func (b *SSEBroker) Publish(event usecase.RefreshEvent) {
	select {
	case b.events <- event:
	default:
		b.logger.Warn("refresh event channel is full, dropping event", "latest_run_date", event.LatestRunDate)
	}
}

// Clients reports the number of connected subscribers.
func (b *SSEBroker) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// ServeHTTP streams events to one client until it disconnects.
func (b *SSEBroker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := make(chan frame, 8)
	b.addClient(ch)
	defer b.removeClient(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-ch:
			if !ok {
				return
			}
			if f.event == "" {
				fmt.Fprint(w, ": ping\n\n")
			} else {
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", f.event, f.data)
			}
			flusher.Flush()
		}
	}
}

func (b *SSEBroker) addClient(ch chan frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[ch] = struct{}{}
	b.logger.Debug("client connected", "clients", len(b.clients))
}

func (b *SSEBroker) removeClient(ch chan frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[ch]; ok {
		delete(b.clients, ch)
		close(ch)
		b.logger.Debug("client disconnected", "clients", len(b.clients))
	}
}

func (b *SSEBroker) broadcast(f frame) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- f:
		default:
			// slow client, skip
		}
	}
}

func (b *SSEBroker) run(ctx context.Context) {
	var tick <-chan time.Time
	if b.heartbeat > 0 {
		ticker := time.NewTicker(b.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.events:
			data, err := json.Marshal(ev)
			if err != nil {
				b.logger.Error("failed to marshal refresh event", "error", err)
				continue
			}
			b.broadcast(frame{event: "refresh", data: data})
		case <-tick:
			b.broadcast(frame{})
		}
	}
}
