// Package daemon ties the watcher and the pipeline together behind a
// single-instance lock.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofrs/flock"

	"lorry/internal/checkpoint"
	"lorry/internal/config"
	"lorry/internal/logging"
	"lorry/internal/pipeline"
	"lorry/internal/printing"
	"lorry/internal/render"
	"lorry/internal/store"
	"lorry/internal/watcher"
)

// Daemon owns the long-running ingestion services and enforces
// single-instance execution via a lock file.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	pipe    *pipeline.Pipeline
	watcher *watcher.Watcher

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status reports daemon runtime information.
type Status struct {
	Running      bool
	WatchDir     string
	DatabasePath string
	LockFilePath string
}

// New wires the store, renderer, printer, pipeline, and watcher from cfg.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	recordStore, err := store.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}

	checkpoints := checkpoint.NewStore(cfg.CheckpointPath())
	renderer := render.NewPDF(cfg.Render.CompanyName, cfg.Render.ItemsPerPage)

	var printer pipeline.Printer
	if cfg.Print.Enabled {
		printer = printing.NewManager(cfg, logger)
	}

	pipe, err := pipeline.New(cfg, recordStore, checkpoints, renderer, printer, logger)
	if err != nil {
		_ = recordStore.Close()
		return nil, err
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logger.With(logging.String("component", "daemon")),
		store:    recordStore,
		pipe:     pipe,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.watcher = watcher.New(cfg, d.processFile, logger)
	return d, nil
}

func (d *Daemon) processFile(ctx context.Context, path string) error {
	_, err := d.pipe.Process(ctx, path)
	return err
}

// Process runs the pipeline once for a single file, outside the watch loop.
func (d *Daemon) Process(ctx context.Context, path string) (*pipeline.Summary, error) {
	return d.pipe.Process(ctx, path)
}

// Start acquires the instance lock and begins watching.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another lorry instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.watcher.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start watcher: %w", err)
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("watch_dir", d.cfg.Paths.WatchDir),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Stop halts watching, waits for in-flight work, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.watcher.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release instance lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and releases held resources.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Store exposes the record store for read-only status surfaces.
func (d *Daemon) Store() *store.Store { return d.store }

// Status returns current runtime information.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		WatchDir:     d.cfg.Paths.WatchDir,
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
	}
}
