package isolation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"media-processor/domain/isolation"

	"golang.org/x/sync/errgroup"
)

// Layout names the intermediate locations of one run
type Layout struct {
	ChunksDir     string // split segments
	ProcessedDir  string // filtered segments
	ExtractedPath string // full working audio
}

// NewLayout places intermediates next to the output file
func NewLayout(outputDir string) Layout {
	chunks := filepath.Join(outputDir, "chunks")
	return Layout{
		ChunksDir:     chunks,
		ProcessedDir:  filepath.Join(outputDir, "processed_chunks"),
		ExtractedPath: filepath.Join(chunks, "full_audio.wav"),
	}
}

// Recorder receives pipeline measurements
type Recorder interface {
	ObserveStage(stage string, d time.Duration)
	SegmentDone(ok bool)
	RunDone(err error)
	SetAudioDuration(seconds float64)
	SetWorkers(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveStage(string, time.Duration) {}
func (nopRecorder) SegmentDone(bool)                   {}
func (nopRecorder) RunDone(error)                      {}
func (nopRecorder) SetAudioDuration(float64)           {}
func (nopRecorder) SetWorkers(int)                     {}

// Runner splits and filters segments on a bounded pool of workers
type Runner struct {
	splitter        isolation.Splitter
	filter          isolation.Filter
	workspace       isolation.Workspace
	workers         int
	cancelOnFailure bool
	logger          *slog.Logger
	recorder        Recorder
}

// RunnerOption is a functional option for configuring Runner
type RunnerOption func(*Runner)

// WithWorkers sets the pool size; values below 1 use the logical core count
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithCancelOnFailure stops in-flight siblings when a segment fails.
// By default every worker runs to completion before the failure is reported.
func WithCancelOnFailure(cancel bool) RunnerOption {
	return func(r *Runner) {
		r.cancelOnFailure = cancel
	}
}

// WithRunnerLogger sets the logger
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRunnerRecorder sets the metrics recorder
func WithRunnerRecorder(rec Recorder) RunnerOption {
	return func(r *Runner) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// NewRunner creates a Runner
func NewRunner(splitter isolation.Splitter, filter isolation.Filter, workspace isolation.Workspace, opts ...RunnerOption) *Runner {
	r := &Runner{
		splitter:  splitter,
		filter:    filter,
		workspace: workspace,
		workers:   runtime.NumCPU(),
		logger:    slog.New(slog.DiscardHandler),
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Workers returns the pool size
func (r *Runner) Workers() int {
	return r.workers
}

// Run splits every segment out of sourcePath and filters it. All workers are
// joined before Run returns. The result is ordered by segment index and has
// SourcePath and FilteredPath set. If any segment fails, no result is
// returned and the error joins every segment failure.
func (r *Runner) Run(ctx context.Context, sourcePath string, segments []isolation.Segment, layout Layout) ([]isolation.Segment, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no segments to process", isolation.ErrInvalidInput)
	}
	for _, dir := range []string{layout.ChunksDir, layout.ProcessedDir} {
		if err := r.workspace.EnsureDir(dir); err != nil {
			return nil, err
		}
	}

	results := slices.Clone(segments)
	slices.SortFunc(results, func(a, b isolation.Segment) int { return a.Index - b.Index })
	errs := make([]error, len(results))

	g := new(errgroup.Group)
	runCtx := ctx
	if r.cancelOnFailure {
		g, runCtx = errgroup.WithContext(ctx)
	}
	g.SetLimit(r.workers)
	r.recorder.SetWorkers(r.workers)

	for i := range results {
		g.Go(func() error {
			seg, err := r.process(runCtx, sourcePath, results[i], layout)
			r.recorder.SegmentDone(err == nil)
			if err != nil {
				r.logger.Error("chunk failed",
					slog.Int("chunk", results[i].Index),
					slog.String("error", err.Error()),
				)
				errs[i] = err
				if r.cancelOnFailure {
					return err
				}
				return nil
			}
			results[i] = seg
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) process(ctx context.Context, sourcePath string, seg isolation.Segment, layout Layout) (isolation.Segment, error) {
	if err := ctx.Err(); err != nil {
		return seg, fmt.Errorf("chunk %d: %w", seg.Index, err)
	}

	start := time.Now()
	seg.SourcePath = filepath.Join(layout.ChunksDir, seg.FileName())
	if err := r.splitter.Split(ctx, sourcePath, seg, seg.SourcePath); err != nil {
		return seg, err
	}
	r.logger.Debug("chunk split",
		slog.Int("chunk", seg.Index),
		slog.String("start", isolation.FormatSeconds(seg.StartTime)),
		slog.String("duration", isolation.FormatSeconds(seg.Duration)),
	)

	filtered, err := r.filter.Filter(ctx, seg.SourcePath, layout.ProcessedDir)
	if err != nil {
		return seg, err
	}
	if !r.workspace.Exists(filtered) {
		return seg, isolation.ToolFailure(isolation.StageFilter, "deep-filter", fmt.Errorf("chunk %d: output %s was not written", seg.Index, filtered))
	}
	seg.FilteredPath = filtered

	r.logger.Info("chunk filtered",
		slog.Int("chunk", seg.Index),
		slog.Duration("elapsed", time.Since(start)),
	)
	return seg, nil
}
