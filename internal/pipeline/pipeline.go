// Package pipeline orchestrates ingestion of one stabilized source file:
// resume from checkpoint, stream and validate records, assign identifiers,
// persist in batches, render the printable document, and clear the
// checkpoint once everything downstream has succeeded.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"lorry/internal/checkpoint"
	"lorry/internal/config"
	"lorry/internal/logging"
	"lorry/internal/lrid"
	"lorry/internal/record"
	"lorry/internal/render"
	"lorry/internal/tabular"
	"lorry/internal/validate"
)

// State names one phase of a run. failed is reachable from every
// non-terminal state.
type State string

const (
	StateIdle       State = "idle"
	StateResuming   State = "resuming"
	StateStreaming  State = "streaming"
	StateBatching   State = "batching"
	StateFinalizing State = "finalizing"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Printer is the optional print collaborator. Print failures are logged,
// never escalated to run failures.
type Printer interface {
	PrintPDF(ctx context.Context, path string) error
}

// Persister flushes validated records in idempotent batches. Implementations
// retry transient failures internally; an error returned here is final for
// the run.
type Persister interface {
	Insert(ctx context.Context, records []*record.Record, batchSize int) error
}

// Summary reports the outcome of one run.
type Summary struct {
	RunID      string
	SourcePath string
	OutputPath string
	RowsSeen   int
	ValidCount int
	ErrorCount int
	Resumed    bool
	ResumeRow  int
	Duration   time.Duration
}

// Pipeline processes stabilized files. Runs are serialized: the checkpoint
// document has a single writer even when several files stabilize at once.
// The identifier generator is shared across runs; the sequence never repeats
// within one process, so two files ingested on the same day cannot collide
// on the generated primary key.
type Pipeline struct {
	cfg         *config.Config
	store       Persister
	checkpoints *checkpoint.Store
	renderer    render.Renderer
	printer     Printer
	logger      *slog.Logger
	mapping     tabular.Mapping
	validator   *validate.Validator
	gen         *lrid.Generator

	runMu sync.Mutex
}

// New constructs a Pipeline. printer may be nil when printing is disabled.
func New(
	cfg *config.Config,
	recordStore Persister,
	checkpoints *checkpoint.Store,
	renderer render.Renderer,
	printer Printer,
	logger *slog.Logger,
) (*Pipeline, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	mapping, err := tabular.NewMapping(cfg.Mapping.Columns)
	if err != nil {
		return nil, fmt.Errorf("build column mapping: %w", err)
	}
	return &Pipeline{
		cfg:         cfg,
		store:       recordStore,
		checkpoints: checkpoints,
		renderer:    renderer,
		printer:     printer,
		logger:      logger.With(logging.String("component", "pipeline")),
		mapping:     mapping,
		validator:   validate.New(cfg.RequiredFields()),
		gen: lrid.New(
			cfg.LRID.Pattern,
			cfg.LRID.BranchCode,
			cfg.LRID.SequenceWidth,
		),
	}, nil
}

// run carries the mutable state of one file's ingestion.
type run struct {
	state   State
	logger  *slog.Logger
	source  string
	started time.Time

	rowsSeen   int
	valid      []*record.Record
	validBase  int
	errorCount int
	gen        *lrid.Generator
	batch      []*record.Record
}

// validCount is the file-total valid count: rows validated by earlier
// interrupted runs plus this run's.
func (r *run) validCount() int {
	return r.validBase + len(r.valid)
}

func (r *run) transition(to State) {
	r.logger.Debug("state transition",
		logging.String("from", string(r.state)),
		logging.String("to", string(to)),
	)
	r.state = to
}

// fail moves the run to the failed state and wraps err with the state it
// interrupted. The error is reported to the caller, never re-panicked; the
// watcher keeps running for subsequent files.
func (r *run) fail(err error) error {
	from := r.state
	r.transition(StateFailed)
	r.logger.Error("run failed",
		logging.String("file", r.source),
		logging.String("state", string(from)),
		logging.Int("rows_seen", r.rowsSeen),
		logging.Int("valid", len(r.valid)),
		logging.Int("errors", r.errorCount),
		logging.Error(err),
	)
	return fmt.Errorf("%s: %w", from, err)
}

// Process ingests one source file end to end and returns its summary. On
// failure the checkpoint is left in place so the next invocation resumes.
func (p *Pipeline) Process(ctx context.Context, path string) (*Summary, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	runID := uuid.NewString()
	r := &run{
		state:   StateIdle,
		source:  path,
		started: time.Now(),
		logger:  p.logger.With(logging.String("run_id", runID), logging.String("file", path)),
		gen:     p.gen,
	}
	r.logger.Info("processing started")

	resumeRow, resumed, err := p.resume(r)
	if err != nil {
		return nil, r.fail(err)
	}

	if err := p.stream(ctx, r, resumeRow); err != nil {
		return nil, r.fail(err)
	}

	outputPath, err := p.finalize(ctx, r)
	if err != nil {
		return nil, r.fail(err)
	}

	r.transition(StateDone)
	summary := &Summary{
		RunID:      runID,
		SourcePath: path,
		OutputPath: outputPath,
		RowsSeen:   r.rowsSeen,
		ValidCount: r.validCount(),
		ErrorCount: r.errorCount,
		Resumed:    resumed,
		ResumeRow:  resumeRow,
		Duration:   time.Since(r.started),
	}
	p.logSummary(summary)
	return summary, nil
}

// resume consults the checkpoint store. Progress recorded for any other
// path is ignored; only an entry for this exact file is honored.
func (p *Pipeline) resume(r *run) (int, bool, error) {
	r.transition(StateResuming)

	progress, err := p.checkpoints.Load(r.source)
	if err != nil {
		return 0, false, fmt.Errorf("load checkpoint: %w", err)
	}
	if progress == nil {
		return 0, false, nil
	}

	r.rowsSeen = progress.LastRow
	r.validBase = progress.ValidCount
	r.errorCount = progress.ErrorCount
	// The shared generator may already be past the checkpointed value;
	// seeding never rewinds it, only advances it.
	if progress.LastSequence > r.gen.Last() {
		r.gen.Seed(progress.LastSequence)
	}
	r.logger.Info("resuming from checkpoint",
		logging.Int("row", progress.LastRow),
		logging.Int("valid", progress.ValidCount),
		logging.Int("errors", progress.ErrorCount),
	)
	return progress.LastRow, true, nil
}

func (p *Pipeline) stream(ctx context.Context, r *run, startRow int) error {
	r.transition(StateStreaming)

	reader := tabular.NewReader(p.mapping, p.cfg.Processing.ChunkSize, r.logger)
	for rec, err := range reader.Stream(r.source, startRow) {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if violations := p.validator.Check(rec); len(violations) > 0 {
			r.errorCount++
			r.logger.Warn("record failed validation",
				logging.Int("row", rec.Row),
				logging.Any("violations", violations),
			)
		} else {
			rec.ID = r.gen.Generate()
			r.batch = append(r.batch, rec)
			r.valid = append(r.valid, rec)
			if len(r.batch) >= p.cfg.Database.BatchSize {
				if err := p.flushBatch(ctx, r); err != nil {
					return err
				}
			}
		}

		r.rowsSeen = rec.Row + 1
		if r.rowsSeen%p.cfg.Processing.CheckpointInterval == 0 {
			if err := p.saveCheckpoint(r); err != nil {
				return err
			}
		}
	}

	// Stream exhausted: flush whatever is buffered.
	return p.flushBatch(ctx, r)
}

func (p *Pipeline) flushBatch(ctx context.Context, r *run) error {
	if len(r.batch) == 0 {
		return nil
	}
	r.transition(StateBatching)
	if err := p.store.Insert(ctx, r.batch, p.cfg.Database.BatchSize); err != nil {
		return err
	}
	r.logger.Info("batch persisted", logging.Int("records", len(r.batch)))
	r.batch = r.batch[:0]
	r.transition(StateStreaming)
	return nil
}

// saveCheckpoint overwrites this file's progress entry. The last issued
// sequence value rides along so a resumed run never reuses an identifier.
// The recorded row can cover records still buffered for the next flush; a
// crash inside that window replays them on resume, and the natural-key
// upsert absorbs the duplicates.
func (p *Pipeline) saveCheckpoint(r *run) error {
	err := p.checkpoints.Save(checkpoint.Progress{
		Path:         r.source,
		LastRow:      r.rowsSeen,
		ValidCount:   r.validCount(),
		ErrorCount:   r.errorCount,
		LastSequence: r.gen.Last(),
	})
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	r.logger.Debug("checkpoint saved", logging.Int("row", r.rowsSeen))
	return nil
}

// finalize renders the document, optionally prints it, and clears the
// checkpoint. Rendering failures fail the run; print failures do not.
func (p *Pipeline) finalize(ctx context.Context, r *run) (string, error) {
	r.transition(StateFinalizing)

	if r.validCount() == 0 {
		return "", fmt.Errorf("no valid records in %s (%d rows errored)", r.source, r.errorCount)
	}

	// A resumed run may find nothing left to render: earlier runs already
	// persisted every valid row. Persistence is the source of truth, so the
	// run still completes and the checkpoint is cleared.
	outputPath := ""
	if len(r.valid) > 0 {
		outputPath = p.outputPath(r)
		batchSize := p.cfg.Processing.RenderBatchSize
		for start := 0; start < len(r.valid); start += batchSize {
			end := start + batchSize
			if end > len(r.valid) {
				end = len(r.valid)
			}
			var err error
			if start == 0 {
				err = p.renderer.CreateDocument(r.valid[start:end], outputPath)
			} else {
				err = p.renderer.AppendToDocument(r.valid[start:end], outputPath)
			}
			if err != nil {
				return "", fmt.Errorf("render document: %w", err)
			}
		}
		r.logger.Info("document rendered",
			logging.String("output", outputPath),
			logging.Int("records", len(r.valid)),
		)

		if p.printer != nil && p.cfg.Print.Enabled {
			if err := p.printer.PrintPDF(ctx, outputPath); err != nil {
				r.logger.Warn("print failed", logging.String("output", outputPath), logging.Error(err))
			}
		}
	}

	if err := p.checkpoints.Clear(r.source); err != nil {
		return "", fmt.Errorf("clear checkpoint: %w", err)
	}
	return outputPath, nil
}

func (p *Pipeline) outputPath(r *run) string {
	name := fmt.Sprintf("lr_batch_%s_%d.pdf", sanitizeName(p.cfg.LRID.BranchCode), len(r.valid))
	return filepath.Join(p.cfg.Paths.OutputDir, name)
}

func sanitizeName(s string) string {
	if s == "" {
		return "main"
	}
	return s
}

func (p *Pipeline) logSummary(s *Summary) {
	perSecond := 0.0
	if seconds := s.Duration.Seconds(); seconds > 0 {
		perSecond = float64(s.RowsSeen) / seconds
	}
	p.logger.Info("processing completed",
		logging.String("run_id", s.RunID),
		logging.String("file", s.SourcePath),
		logging.String("output", s.OutputPath),
		logging.Int("rows_seen", s.RowsSeen),
		logging.Int("valid", s.ValidCount),
		logging.Int("errors", s.ErrorCount),
		logging.Bool("resumed", s.Resumed),
		logging.Duration("duration", s.Duration),
		logging.Float64("rows_per_second", perSecond),
	)
}
