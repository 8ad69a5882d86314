// Package watcher polls a build's watched module files for changes and
// hands each debounced batch to a change handler, for the `forge watch`
// command (spec.md §11).
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"forge/internal/logging"
)

// EventType represents the type of file system event.
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
)

// Event represents a detected change to a watched file.
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// String returns a string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// ChangeHandler is invoked with the batch of changes since the last
// debounced firing. It should trigger a rebuild and call SetWatchFiles
// with the new build's watch set.
type ChangeHandler func(events []Event)

// Config contains watcher configuration.
type Config struct {
	DebounceMs     int
	PollInterval   time.Duration
	IgnorePatterns []string
}

// DefaultConfig returns the default watcher configuration.
func DefaultConfig() Config {
	return Config{
		DebounceMs:   200,
		PollInterval: 300 * time.Millisecond,
		IgnorePatterns: []string{
			"node_modules/**",
			".git/**",
		},
	}
}

// Watcher polls a set of files (a build's reported WatchFiles) for
// modification, creation, or deletion, and fires a debounced handler.
type Watcher struct {
	config  Config
	logger  *logging.Logger
	handler ChangeHandler

	mu      sync.Mutex
	files   map[string]time.Time // path -> last known mtime
	debounc *Debouncer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Watcher.
func New(config Config, logger *logging.Logger, handler ChangeHandler) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		config:  config,
		logger:  logger,
		handler: handler,
		files:   make(map[string]time.Time),
		debounc: NewDebouncer(time.Duration(config.DebounceMs) * time.Millisecond),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetWatchFiles replaces the set of files being watched, used after each
// successful rebuild (a chunk graph may reference different modules).
func (w *Watcher) SetWatchFiles(paths []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := make(map[string]time.Time, len(paths))
	for _, p := range paths {
		if w.isIgnored(p) {
			continue
		}
		if mt, ok := w.files[p]; ok {
			next[p] = mt
		} else {
			next[p] = w.statModTime(p)
		}
	}
	w.files = next
}

// Start begins polling in the background.
func (w *Watcher) Start() {
	w.logger.Info("Starting watcher", map[string]interface{}{
		"pollInterval": w.config.PollInterval.String(),
	})

	w.wg.Add(1)
	go w.loop()
}

// Stop halts polling and waits for the poll goroutine to exit.
func (w *Watcher) Stop() {
	w.cancel()
	w.debounc.Cancel()
	w.wg.Wait()
	w.logger.Info("Watcher stopped", nil)
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	interval := w.config.PollInterval
	if interval <= 0 {
		interval = 300 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.poll()
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *Watcher) poll() {
	w.mu.Lock()
	var events []Event
	for path, lastMod := range w.files {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				if !lastMod.IsZero() {
					events = append(events, Event{Type: EventDelete, Path: path, Timestamp: time.Now()})
					w.files[path] = time.Time{}
				}
			}
			continue
		}
		if lastMod.IsZero() {
			events = append(events, Event{Type: EventCreate, Path: path, Timestamp: time.Now()})
			w.files[path] = info.ModTime()
			continue
		}
		if info.ModTime().After(lastMod) {
			events = append(events, Event{Type: EventModify, Path: path, Timestamp: time.Now()})
			w.files[path] = info.ModTime()
		}
	}
	w.mu.Unlock()

	if len(events) == 0 {
		return
	}

	w.debounc.Trigger(func() {
		w.logger.Debug("Changes detected", map[string]interface{}{
			"eventCount": len(events),
		})
		if w.handler != nil {
			w.handler(events)
		}
	})
}

func (w *Watcher) statModTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func (w *Watcher) isIgnored(path string) bool {
	for _, pattern := range w.config.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
			return true
		}
		if strings.Contains(pattern, "**") {
			parts := strings.Split(pattern, "**")
			if len(parts) == 2 &&
				strings.HasPrefix(path, strings.TrimSuffix(parts[0], "/")) &&
				(parts[1] == "" || strings.HasSuffix(path, strings.TrimPrefix(parts[1], "/"))) {
				return true
			}
		}
	}
	return false
}
