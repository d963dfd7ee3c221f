package bus

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/ajramos/courrier/internal/courrier"
)

// VersionSource reports the change token of each direction's slot
type VersionSource interface {
	Version(ctx context.Context, d courrier.Direction) (int64, error)
}

// DefaultPollInterval is used when a Watcher is given no interval
const DefaultPollInterval = 750 * time.Millisecond

// Watcher turns writes made by other processes into events. It polls the
// version token of every direction and emits Event{Direction: d} when it
// moves. Versions announced through Publish are marked as seen, so a
// process is not signalled about its own changes.
type Watcher struct {
	source     VersionSource
	directions []courrier.Direction
	interval   time.Duration
	logger     *log.Logger

	mu   sync.Mutex
	seen map[courrier.Direction]int64

	local *LocalBus
}

// NewWatcher creates a watcher for the given directions (all when empty).
// The current versions are taken as the baseline.
func NewWatcher(ctx context.Context, source VersionSource, interval time.Duration, logger *log.Logger, directions ...courrier.Direction) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if len(directions) == 0 {
		directions = courrier.Directions()
	}
	w := &Watcher{
		source:     source,
		directions: directions,
		interval:   interval,
		logger:     logger,
		seen:       make(map[courrier.Direction]int64, len(directions)),
		local:      NewLocalBus(),
	}
	for _, d := range directions {
		if v, err := source.Version(ctx, d); err == nil {
			w.seen[d] = v
		}
	}
	return w
}

// Subscribe registers h for changes detected in the medium
func (w *Watcher) Subscribe(h Handler) func() {
	return w.local.Subscribe(h)
}

// Publish marks the version carried by ev as seen for its direction. Only
// that exact version is marked: a write another process made since then
// still differs and is reported by the next Poll. Events without a
// version, and global events, mark nothing.
func (w *Watcher) Publish(ev Event) {
	if ev.Version == 0 || ev.Direction == "" {
		return
	}
	for _, d := range w.directions {
		if d != ev.Direction {
			continue
		}
		w.mu.Lock()
		w.seen[d] = ev.Version
		w.mu.Unlock()
	}
}

// Poll checks every direction once and emits an event for each one whose
// version moved. It returns the directions that changed.
func (w *Watcher) Poll(ctx context.Context) []courrier.Direction {
	var changed []courrier.Direction
	for _, d := range w.directions {
		v, err := w.source.Version(ctx, d)
		if err != nil {
			w.logger.Printf("WARN: watcher version check for %s: %v", d, err)
			continue
		}
		w.mu.Lock()
		last, known := w.seen[d]
		w.seen[d] = v
		w.mu.Unlock()
		if known && last == v {
			continue
		}
		changed = append(changed, d)
	}
	for _, d := range changed {
		w.local.Publish(Event{Direction: d, Origin: "watcher"})
	}
	return changed
}

// Run polls until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}
