package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	appdist "media-processor/application/distribution"
	appisolation "media-processor/application/isolation"
	"media-processor/domain/isolation"
	"media-processor/domain/settings"
	"media-processor/infrastructure/config"
	"media-processor/infrastructure/deepfilter"
	"media-processor/infrastructure/drive"
	"media-processor/infrastructure/ffmpeg"
	"media-processor/infrastructure/filesystem"
	"media-processor/infrastructure/logging"
	"media-processor/infrastructure/metrics"

	"github.com/spf13/cobra"
)

var (
	isolateInputPath      string
	isolateOutputPath     string
	isolateVideoOutput    string
	isolateChunks         int
	isolateWorkers        int
	isolateOverlap        float64
	isolateAudioCodec     string
	isolateSampleRate     int
	isolateChannels       int
	isolateVideoCodec     string
	isolateStrictness     string
	isolateOverwrite      bool
	isolateKeep           bool
	isolateCancelOnFail   bool
	isolateUpload         bool
	isolatePrune          bool
	isolateMetricsOutFile string
)

var isolateCmd = &cobra.Command{
	Use:   "isolate",
	Short: "Isolate the vocals of a video into a WAV file",
	Long: `Isolate vocals through the complete pipeline:
1. Extract mono 48 kHz PCM audio from the video
2. Probe its duration and plan overlapping chunks
3. Split and filter every chunk with DeepFilterNet in parallel
4. Crossfade the filtered chunks into the output WAV
5. Optionally mux the vocals back into the video (--video-output)
6. Optionally upload the results to Google Drive (--upload)

Intermediate chunks are written next to the output and removed after a
successful run. They are kept when a run fails.

Example:
  media-processor isolate --input service.mp4 --output out/vocals.wav

  media-processor isolate \
    --input service.mp4 \
    --output out/vocals.wav \
    --video-output out/service-vocals.mp4 \
    --chunks 8 --workers 4 --overwrite`,
	RunE: runIsolate,
}

func init() {
	rootCmd.AddCommand(isolateCmd)
	f := isolateCmd.Flags()
	f.StringVar(&isolateInputPath, "input", "", "Path to source video file (required)")
	f.StringVar(&isolateOutputPath, "output", "", "Path of the isolated WAV file (required)")
	f.StringVar(&isolateVideoOutput, "video-output", "", "Also write the video with the isolated audio to this path")
	f.IntVar(&isolateChunks, "chunks", 0, "Number of chunks (default from config, 0 = one per CPU)")
	f.IntVar(&isolateWorkers, "workers", 0, "Concurrent filter workers (default from config, 0 = one per CPU)")
	f.Float64Var(&isolateOverlap, "overlap", 0, "Seconds of overlap and crossfade between chunks (default from config)")
	f.StringVar(&isolateAudioCodec, "audio-codec", "", "Audio codec for --video-output: aac, mp3, flac, opus")
	f.IntVar(&isolateSampleRate, "sample-rate", 0, "Audio sample rate for --video-output")
	f.IntVar(&isolateChannels, "channels", 0, "Audio channels for --video-output")
	f.StringVar(&isolateVideoCodec, "video-codec", "", "Video codec for --video-output: h264, h265, vp8, vp9, copy")
	f.StringVar(&isolateStrictness, "strictness", "", "Encoder strictness: very, strict, normal, unofficial, experimental")
	f.BoolVar(&isolateOverwrite, "overwrite", false, "Replace existing output files")
	f.BoolVar(&isolateKeep, "keep-intermediates", false, "Keep chunk directories after a successful run")
	f.BoolVar(&isolateCancelOnFail, "cancel-on-failure", false, "Stop running chunks as soon as one fails")
	f.BoolVar(&isolateUpload, "upload", false, "Upload the results to the configured Google Drive folder")
	f.BoolVar(&isolatePrune, "prune", false, "With --upload, delete the oldest media in the folder when Drive is full")
	f.StringVar(&isolateMetricsOutFile, "metrics-textfile", "", "Write run metrics to this file (default from config)")

	isolateCmd.MarkFlagRequired("input")
	isolateCmd.MarkFlagRequired("output")
}

// applyIsolateFlags overrides config values with flags that were set explicitly
func applyIsolateFlags(cmd *cobra.Command, c *config.Config) {
	changed := cmd.Flags().Changed
	if changed("chunks") {
		c.Processing.Chunks = isolateChunks
	}
	if changed("workers") {
		c.Processing.Workers = isolateWorkers
	}
	if changed("overlap") {
		c.Processing.OverlapSeconds = isolateOverlap
	}
	if changed("audio-codec") {
		c.Audio.Codec = isolateAudioCodec
	}
	if changed("sample-rate") {
		c.Audio.SampleRate = isolateSampleRate
	}
	if changed("channels") {
		c.Audio.Channels = isolateChannels
	}
	if changed("video-codec") {
		c.Video.Codec = isolateVideoCodec
	}
	if changed("strictness") {
		c.Global.Strictness = isolateStrictness
	}
	if changed("overwrite") {
		c.Global.Overwrite = isolateOverwrite
	}
	if changed("keep-intermediates") {
		c.Processing.KeepIntermediates = isolateKeep
	}
	if changed("cancel-on-failure") {
		c.Processing.CancelOnFailure = isolateCancelOnFail
	}
	if changed("metrics-textfile") {
		c.Metrics.Textfile = isolateMetricsOutFile
	}
}

func runIsolate(cmd *cobra.Command, args []string) error {
	loaded, err := GetConfig()
	if err != nil {
		return err
	}
	c := *loaded
	applyIsolateFlags(cmd, &c)
	if err := c.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(&c, os.Stderr)
	if err != nil {
		return err
	}
	logger, runID := logging.WithRunID(logger)

	validated, err := buildSettings(&c, isolateInputPath, isolateOutputPath)
	if err != nil {
		return err
	}
	for _, w := range validated.Warnings() {
		logger.Warn(w)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	extractor := ffmpeg.NewExtractor(ffmpeg.WithExtractorFFmpegPath(c.Tools.FFmpeg))
	deps := IsolateDependencies{
		Extractor: extractor,
		Splitter:  extractor,
		Prober:    ffmpeg.NewProber(ffmpeg.WithFFprobePath(c.Tools.FFprobe)),
		Filter:    deepfilter.NewFilter(deepfilter.WithBinaryPath(c.Tools.DeepFilter)),
		Merger:    ffmpeg.NewMerger(validated, ffmpeg.WithMergerFFmpegPath(c.Tools.FFmpeg)),
		Workspace: filesystem.NewChecker(),
		Locker:    lockOutputDir,
		Metrics:   metrics.New(),
		Logger:    logger,
	}

	logger.Info("starting isolation",
		slog.String("run_id", runID),
		slog.String("input", isolateInputPath),
		slog.String("output", isolateOutputPath),
	)

	result, err := RunIsolateWithDependencies(ctx, deps, validated, IsolateInput{
		Chunks:            c.Processing.Chunks,
		Workers:           c.Processing.Workers,
		Overlap:           c.Processing.OverlapSeconds,
		CancelOnFailure:   c.Processing.CancelOnFailure,
		KeepIntermediates: c.Processing.KeepIntermediates,
		VideoOutputPath:   isolateVideoOutput,
		MetricsTextfile:   c.Metrics.Textfile,
	}, os.Stdout)
	if err != nil {
		return err
	}

	if !isolateUpload {
		return nil
	}
	if c.Google.OutputFolderID == "" {
		return fmt.Errorf("--upload requires google.output_folder_id in the config")
	}
	client, err := drive.NewClientWithOAuth(ctx, drive.OAuthConfig{
		CredentialsFile: c.Google.CredentialsFile,
		TokenFile:       c.Google.TokenFile,
	})
	if err != nil {
		return fmt.Errorf("failed to create Google Drive client: %w", err)
	}
	service := appdist.NewUploadService(client, c.Google.OutputFolderID, os.Stdout, appdist.WithPruning(isolatePrune))
	fmt.Fprintln(os.Stdout, "Uploading results...")
	if _, err := service.UploadAll(ctx, result.OutputPath, result.MuxedPath); err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	return nil
}

// buildSettings runs the config through the settings validator
func buildSettings(c *config.Config, inputPath, outputPath string) (settings.Validated, error) {
	s, err := c.Settings(inputPath, outputPath)
	if err != nil {
		return settings.Validated{}, err
	}
	return s.Validate()
}

func lockOutputDir(dir string) (func() error, error) {
	lock, err := filesystem.AcquireRunLock(dir)
	if err != nil {
		return nil, err
	}
	return lock.Release, nil
}

// IsolateDependencies are the adapters the isolate command runs against
type IsolateDependencies struct {
	Extractor isolation.AudioExtractor
	Splitter  isolation.Splitter
	Prober    isolation.DurationProber
	Filter    isolation.Filter
	Merger    interface {
		isolation.Merger
		isolation.Muxer
	}
	Workspace isolation.Workspace
	Locker    appisolation.RunLocker
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// IsolateInput holds the per-run processing options
type IsolateInput struct {
	Chunks            int
	Workers           int
	Overlap           float64
	CancelOnFailure   bool
	KeepIntermediates bool
	VideoOutputPath   string
	MetricsTextfile   string
}

// RunIsolateWithDependencies runs the isolate command with injected dependencies (for testing)
func RunIsolateWithDependencies(
	ctx context.Context,
	deps IsolateDependencies,
	validated settings.Validated,
	input IsolateInput,
	output OutputWriter,
) (*appisolation.Result, error) {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	// Verify tools are available if the adapters support it
	for _, adapter := range []any{deps.Extractor, deps.Prober, deps.Filter} {
		if verifiable, ok := adapter.(interface{ VerifyInstalled(context.Context) error }); ok {
			verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := verifiable.VerifyInstalled(verifyCtx)
			cancel()
			if err != nil {
				return nil, fmt.Errorf("tool verification failed: %w", err)
			}
		}
	}

	runner := appisolation.NewRunner(deps.Splitter, deps.Filter, deps.Workspace,
		appisolation.WithWorkers(input.Workers),
		appisolation.WithCancelOnFailure(input.CancelOnFailure),
		appisolation.WithRunnerLogger(logger),
		appisolation.WithRunnerRecorder(deps.Metrics),
	)

	opts := []appisolation.ServiceOption{
		appisolation.WithLogger(logger),
		appisolation.WithRecorder(deps.Metrics),
		appisolation.WithOutput(output),
	}
	if deps.Locker != nil {
		opts = append(opts, appisolation.WithRunLocker(deps.Locker))
	}
	if input.VideoOutputPath != "" {
		opts = append(opts, appisolation.WithMuxer(deps.Merger))
	}

	service := appisolation.NewService(
		deps.Extractor,
		deps.Prober,
		runner,
		deps.Merger,
		deps.Workspace,
		validated,
		appisolation.Options{
			Chunks:            input.Chunks,
			Overlap:           input.Overlap,
			KeepIntermediates: input.KeepIntermediates,
		},
		opts...,
	)

	result, err := service.Isolate(ctx, appisolation.Request{MuxOutputPath: input.VideoOutputPath})

	if werr := deps.Metrics.WriteTextfile(input.MetricsTextfile); werr != nil {
		logger.Warn("failed to write metrics", slog.String("error", werr.Error()))
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
