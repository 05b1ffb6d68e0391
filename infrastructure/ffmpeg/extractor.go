package ffmpeg

import (
	"context"
	"fmt"

	"media-processor/domain/isolation"
	"media-processor/infrastructure/process"
)

// Working format for extracted and split audio: mono 16-bit PCM at 48 kHz
const (
	WorkingSampleRate = 48000
	WorkingChannels   = 1
	WorkingCodec      = "pcm_s16le"
)

// Extractor implements isolation.AudioExtractor and isolation.Splitter using ffmpeg
type Extractor struct {
	ffmpegPath string
	runner     process.CommandRunner
}

// ExtractorOption is a functional option for configuring Extractor
type ExtractorOption func(*Extractor)

// WithExtractorFFmpegPath sets a custom ffmpeg executable path
func WithExtractorFFmpegPath(path string) ExtractorOption {
	return func(e *Extractor) {
		if path != "" {
			e.ffmpegPath = path
		}
	}
}

// WithExtractorCommandRunner sets a custom command runner (for testing)
func WithExtractorCommandRunner(runner process.CommandRunner) ExtractorOption {
	return func(e *Extractor) {
		e.runner = runner
	}
}

// NewExtractor creates a new FFmpeg-based audio extractor
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		ffmpegPath: "ffmpeg",
		runner:     &process.ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ExtractAudio implements isolation.AudioExtractor
func (e *Extractor) ExtractAudio(ctx context.Context, videoPath, outputPath string) error {
	cmd := process.NewCommand(e.ffmpegPath).
		AddFlag("-y"). // Working files are always replaced
		AddFlag("-i", videoPath).
		AddFlag("-vn")
	workingFormat(cmd).AddArgument(outputPath)

	if err := e.runner.Run(ctx, cmd); err != nil {
		return isolation.ToolFailure(isolation.StageExtract, "ffmpeg", err)
	}
	return nil
}

// Split implements isolation.Splitter
func (e *Extractor) Split(ctx context.Context, sourcePath string, seg isolation.Segment, outputPath string) error {
	cmd := process.NewCommand(e.ffmpegPath).
		AddFlag("-y").
		AddFlag("-ss", isolation.FormatSeconds(seg.StartTime)). // Input position
		AddFlag("-t", isolation.FormatSeconds(seg.Duration)).
		AddFlag("-i", sourcePath)
	workingFormat(cmd).AddArgument(outputPath)

	if err := e.runner.Run(ctx, cmd); err != nil {
		return isolation.ToolFailure(isolation.StageSplit, "ffmpeg", fmt.Errorf("chunk %d: %w", seg.Index, err))
	}
	return nil
}

// VerifyInstalled checks that ffmpeg is available
func (e *Extractor) VerifyInstalled(ctx context.Context) error {
	if _, err := e.runner.Output(ctx, process.NewCommand(e.ffmpegPath).AddFlag("-version")); err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	return nil
}

func workingFormat(cmd *process.Command) *process.Command {
	return cmd.
		AddFlag("-ar", fmt.Sprint(WorkingSampleRate)).
		AddFlag("-ac", fmt.Sprint(WorkingChannels)).
		AddFlag("-c:a", WorkingCodec)
}

// Ensure Extractor implements the isolation ports
var (
	_ isolation.AudioExtractor = (*Extractor)(nil)
	_ isolation.Splitter       = (*Extractor)(nil)
)
