package isolation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"media-processor/domain/isolation"
	"media-processor/domain/settings"
)

// RunLocker takes exclusive ownership of an output directory for one run
type RunLocker func(dir string) (release func() error, err error)

// Options tunes the chunking of a run
type Options struct {
	Chunks            int     // requested chunk count, defaults to the logical core count
	Overlap           float64 // seconds shared by neighbouring chunks and the crossfade
	KeepIntermediates bool    // keep chunk directories after a successful run
}

// Request describes one isolation run. Input and output paths come from the
// validated settings.
type Request struct {
	MuxOutputPath string // optional: also write the video with the isolated audio
}

// Result contains the results of a successful run
type Result struct {
	OutputPath string
	MuxedPath  string
	Duration   float64
	Segments   []isolation.Segment
	Graph      isolation.FilterGraph
	Elapsed    time.Duration
}

// Service extracts, chunks, filters and reassembles the vocal track of a video
type Service struct {
	extractor isolation.AudioExtractor
	prober    isolation.DurationProber
	runner    *Runner
	merger    isolation.Merger
	muxer     isolation.Muxer
	workspace isolation.Workspace
	cfg       settings.Validated
	opts      Options
	locker    RunLocker
	logger    *slog.Logger
	recorder  Recorder
	output    io.Writer
}

// ServiceOption is a functional option for configuring Service
type ServiceOption func(*Service)

// WithMuxer enables writing a video with the isolated audio
func WithMuxer(m isolation.Muxer) ServiceOption {
	return func(s *Service) { s.muxer = m }
}

// WithRunLocker sets the output directory lock
func WithRunLocker(l RunLocker) ServiceOption {
	return func(s *Service) { s.locker = l }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(rec Recorder) ServiceOption {
	return func(s *Service) {
		if rec != nil {
			s.recorder = rec
		}
	}
}

// WithOutput sets where progress lines are printed
func WithOutput(w io.Writer) ServiceOption {
	return func(s *Service) {
		if w != nil {
			s.output = w
		}
	}
}

// NewService creates a new isolation service for validated settings
func NewService(
	extractor isolation.AudioExtractor,
	prober isolation.DurationProber,
	runner *Runner,
	merger isolation.Merger,
	workspace isolation.Workspace,
	cfg settings.Validated,
	opts Options,
	serviceOpts ...ServiceOption,
) *Service {
	if opts.Chunks <= 0 {
		opts.Chunks = runtime.NumCPU()
	}
	if opts.Overlap <= 0 {
		opts.Overlap = isolation.DefaultOverlap
	}
	s := &Service{
		extractor: extractor,
		prober:    prober,
		runner:    runner,
		merger:    merger,
		workspace: workspace,
		cfg:       cfg,
		opts:      opts,
		logger:    slog.New(slog.DiscardHandler),
		recorder:  nopRecorder{},
		output:    io.Discard,
	}
	for _, opt := range serviceOpts {
		opt(s)
	}
	return s
}

// Isolate runs the pipeline end to end. Any stage failure stops the run and
// leaves intermediate files on disk for inspection; they are removed only
// after a successful run.
func (s *Service) Isolate(ctx context.Context, req Request) (result *Result, err error) {
	started := time.Now()
	defer func() {
		s.recorder.RunDone(err)
		if err != nil {
			s.logger.Error("isolation failed", slog.String("error", err.Error()))
		}
	}()

	global := s.cfg.Global()
	outputDir := filepath.Dir(global.OutputPath)
	layout := NewLayout(outputDir)

	if req.MuxOutputPath != "" && s.muxer == nil {
		return nil, &isolation.StageError{Stage: isolation.StagePrepare, Err: fmt.Errorf("%w: no muxer configured", isolation.ErrInvalidInput)}
	}

	fmt.Fprintf(s.output, "Input video: %s\n", global.InputPath)
	fmt.Fprintf(s.output, "Output audio: %s\n\n", global.OutputPath)

	// Step 1: Prepare output directory
	fmt.Fprintf(s.output, "[1/6] Preparing %s...\n", outputDir)
	release, err := s.prepare(outputDir, layout, req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := release(); rerr != nil {
			s.logger.Warn("failed to release run lock", slog.String("error", rerr.Error()))
		}
	}()

	// Step 2: Extract audio
	fmt.Fprintf(s.output, "[2/6] Extracting audio...\n")
	stageStart := time.Now()
	if err := s.extractor.ExtractAudio(ctx, global.InputPath, layout.ExtractedPath); err != nil {
		return nil, err
	}
	s.recorder.ObserveStage(isolation.StageExtract, time.Since(stageStart))

	duration, err := s.prober.Duration(ctx, layout.ExtractedPath)
	if err != nil {
		return nil, err
	}
	s.recorder.SetAudioDuration(duration)
	fmt.Fprintf(s.output, "      Duration: %ss\n\n", isolation.FormatSeconds(duration))

	// Step 3: Plan chunks
	chunks := isolation.FitChunkCount(duration, s.opts.Chunks, s.opts.Overlap)
	if chunks < s.opts.Chunks {
		s.logger.Info("reduced chunk count for short audio",
			slog.Int("requested", s.opts.Chunks),
			slog.Int("chunks", chunks),
		)
	}
	segments, err := isolation.PlanSegments(duration, chunks, s.opts.Overlap)
	if err != nil {
		return nil, &isolation.StageError{Stage: isolation.StagePlan, Err: err}
	}
	fmt.Fprintf(s.output, "[3/6] Planned %d chunks with %ss overlap\n\n", len(segments), isolation.FormatSeconds(s.opts.Overlap))

	// Step 4: Split and filter
	fmt.Fprintf(s.output, "[4/6] Filtering chunks on %d workers...\n", s.runner.Workers())
	stageStart = time.Now()
	segments, err = s.runner.Run(ctx, layout.ExtractedPath, segments, layout)
	if err != nil {
		return nil, fmt.Errorf("chunk processing failed: %w", err)
	}
	s.recorder.ObserveStage(isolation.StageFilter, time.Since(stageStart))
	fmt.Fprintf(s.output, "      Filtered %d chunks\n\n", len(segments))

	// Step 5: Merge with crossfades
	fmt.Fprintf(s.output, "[5/6] Merging chunks...\n")
	paths := make([]string, len(segments))
	for i, seg := range segments {
		paths[i] = seg.FilteredPath
	}
	graph, err := isolation.BuildCrossfadeGraph(paths, s.opts.Overlap)
	if err != nil {
		return nil, &isolation.StageError{Stage: isolation.StageGraph, Err: err}
	}
	s.logger.Debug("filter graph built", slog.Int("stages", graph.Stages), slog.String("graph", graph.Description))

	stageStart = time.Now()
	if err := s.merger.Merge(ctx, graph, paths, global.OutputPath); err != nil {
		return nil, err
	}
	s.recorder.ObserveStage(isolation.StageMerge, time.Since(stageStart))
	fmt.Fprintf(s.output, "      Created: %s\n\n", global.OutputPath)

	if req.MuxOutputPath != "" {
		fmt.Fprintf(s.output, "      Muxing into %s...\n", req.MuxOutputPath)
		stageStart = time.Now()
		if err := s.muxer.Mux(ctx, global.InputPath, global.OutputPath, req.MuxOutputPath); err != nil {
			return nil, err
		}
		s.recorder.ObserveStage(isolation.StageMux, time.Since(stageStart))
		fmt.Fprintf(s.output, "      Created: %s\n\n", req.MuxOutputPath)
	}

	// Step 6: Clean up
	fmt.Fprintf(s.output, "[6/6] Cleaning up...\n")
	s.cleanup(layout)

	elapsed := time.Since(started)
	fmt.Fprintf(s.output, "Done! Completed in %s\n", elapsed.Round(time.Second))

	return &Result{
		OutputPath: global.OutputPath,
		MuxedPath:  req.MuxOutputPath,
		Duration:   duration,
		Segments:   segments,
		Graph:      graph,
		Elapsed:    elapsed,
	}, nil
}

// prepare creates the output directory, takes the run lock and clears the
// stale output audio and intermediates.
func (s *Service) prepare(outputDir string, layout Layout, req Request) (func() error, error) {
	fail := func(err error) error {
		return &isolation.StageError{Stage: isolation.StagePrepare, Err: err}
	}

	if err := s.workspace.EnsureDir(outputDir); err != nil {
		return nil, fail(err)
	}

	release := func() error { return nil }
	if s.locker != nil {
		r, err := s.locker(outputDir)
		if err != nil {
			return nil, &isolation.StageError{Stage: isolation.StageLock, Err: err}
		}
		release = r
	}

	if err := s.workspace.RemoveFile(s.cfg.Global().OutputPath); err != nil {
		release()
		return nil, fail(err)
	}

	// The muxed video is the user's file; it is only replaced with overwrite
	if req.MuxOutputPath != "" && s.workspace.Exists(req.MuxOutputPath) {
		if !s.cfg.Global().Overwrite {
			release()
			return nil, fail(fmt.Errorf("%w: %s already exists (enable overwrite to replace it)", isolation.ErrInvalidInput, req.MuxOutputPath))
		}
		if err := s.workspace.RemoveFile(req.MuxOutputPath); err != nil {
			release()
			return nil, fail(err)
		}
	}

	for _, dir := range []string{layout.ChunksDir, layout.ProcessedDir} {
		if err := s.workspace.RemoveAll(dir); err != nil {
			release()
			return nil, fail(err)
		}
	}
	if err := s.workspace.EnsureDir(layout.ChunksDir); err != nil {
		release()
		return nil, fail(err)
	}
	return release, nil
}

func (s *Service) cleanup(layout Layout) {
	if s.opts.KeepIntermediates {
		s.logger.Info("keeping intermediates",
			slog.String("chunks", layout.ChunksDir),
			slog.String("processed", layout.ProcessedDir),
		)
		return
	}
	for _, dir := range []string{layout.ChunksDir, layout.ProcessedDir} {
		if err := s.workspace.RemoveAll(dir); err != nil {
			s.logger.Warn("failed to remove intermediates", slog.String("dir", dir), slog.String("error", err.Error()))
		}
	}
}
