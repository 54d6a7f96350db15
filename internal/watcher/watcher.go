// Package watcher discovers spreadsheet drops in a watched directory and
// dispatches each file to the pipeline exactly once, after its size has
// stopped changing. Stabilization polling runs per candidate so one large
// drop never blocks discovery of the next.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"lorry/internal/config"
	"lorry/internal/logging"
)

// ProcessFunc ingests one stabilized file. A nil error marks the run
// successful and (with delete_after_processing) allows source deletion.
type ProcessFunc func(ctx context.Context, path string) error

// Watcher observes one directory non-recursively.
type Watcher struct {
	dir         string
	patterns    []string
	ignore      []string
	interval    time.Duration
	deleteAfter bool
	process     ProcessFunc
	logger      *slog.Logger

	mu         sync.Mutex
	running    bool
	inflight   map[string]struct{}
	dispatched map[string]struct{}

	fsw    *fsnotify.Watcher
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a watcher from configuration.
func New(cfg *config.Config, process ProcessFunc, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	interval := time.Duration(cfg.Watch.StabilizationSeconds) * time.Second
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{
		dir:         cfg.Paths.WatchDir,
		patterns:    append([]string(nil), cfg.Watch.Patterns...),
		ignore:      append([]string(nil), cfg.Watch.IgnorePatterns...),
		interval:    interval,
		deleteAfter: cfg.Watch.DeleteAfterProcessing,
		process:     process,
		logger:      logger.With(logging.String("component", "watcher")),
	}
}

// Start begins watching. Files already present in the directory are treated
// as fresh drops.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("watcher already running")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.ctx = runCtx
	w.cancel = cancel
	w.running = true
	w.inflight = make(map[string]struct{})
	w.dispatched = make(map[string]struct{})

	w.wg.Add(1)
	go w.loop()

	w.scanExisting()
	w.logger.Info("watching directory", logging.String("dir", w.dir))
	return nil
}

// Stop terminates the watch and waits for in-flight candidates to finish
// their current unit of work.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	fsw := w.fsw
	w.running = false
	w.cancel = nil
	w.fsw = nil
	w.mu.Unlock()

	cancel()
	_ = fsw.Close()
	w.wg.Wait()
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) {
				w.consider(event.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", logging.Error(err))
		}
	}
}

func (w *Watcher) scanExisting() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("initial directory scan failed", logging.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.consider(filepath.Join(w.dir, entry.Name()))
	}
}

// consider adds a candidate to the in-flight set and starts its
// stabilization poller. Events for files already in flight or already
// dispatched are ignored.
func (w *Watcher) consider(path string) {
	if !w.matches(path) {
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	if _, busy := w.inflight[path]; busy {
		w.mu.Unlock()
		return
	}
	if _, done := w.dispatched[path]; done {
		w.mu.Unlock()
		return
	}
	w.inflight[path] = struct{}{}
	w.mu.Unlock()

	w.wg.Add(1)
	go w.stabilize(path)
}

func (w *Watcher) matches(path string) bool {
	name := filepath.Base(path)
	for _, pattern := range w.ignore {
		if ok, _ := filepath.Match(pattern, name); ok {
			return false
		}
	}
	for _, pattern := range w.patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// stabilize polls the candidate's size until two consecutive polls agree,
// then dispatches it. A candidate that disappears mid-wait is dropped
// silently.
func (w *Watcher) stabilize(path string) {
	defer w.wg.Done()
	defer func() {
		w.mu.Lock()
		delete(w.inflight, path)
		w.mu.Unlock()
	}()

	lastSize := int64(-1)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
		}

		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				w.logger.Debug("candidate disappeared while stabilizing", logging.String("file", path))
				return
			}
			w.logger.Warn("stat candidate failed", logging.String("file", path), logging.Error(err))
			return
		}
		if info.Size() == lastSize {
			break
		}
		lastSize = info.Size()
	}

	w.dispatch(path)
}

func (w *Watcher) dispatch(path string) {
	w.mu.Lock()
	if _, done := w.dispatched[path]; done {
		w.mu.Unlock()
		return
	}
	w.dispatched[path] = struct{}{}
	w.mu.Unlock()

	w.logger.Info("file stable, dispatching", logging.String("file", path))
	err := w.process(w.ctx, path)
	if err != nil {
		w.logger.Error("processing failed", logging.String("file", path), logging.Error(err))
		return
	}

	if w.deleteAfter {
		if err := os.Remove(path); err != nil {
			w.logger.Warn("delete processed file failed", logging.String("file", path), logging.Error(err))
		} else {
			w.logger.Info("deleted processed file", logging.String("file", path))
		}
	}
}
