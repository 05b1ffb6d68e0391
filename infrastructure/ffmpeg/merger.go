package ffmpeg

import (
	"context"
	"fmt"

	"media-processor/domain/isolation"
	"media-processor/domain/settings"
	"media-processor/infrastructure/process"
)

// Merger implements isolation.Merger and isolation.Muxer using ffmpeg
type Merger struct {
	ffmpegPath string
	runner     process.CommandRunner
	settings   settings.Validated
}

// MergerOption is a functional option for configuring Merger
type MergerOption func(*Merger)

// WithMergerFFmpegPath sets a custom ffmpeg executable path
func WithMergerFFmpegPath(path string) MergerOption {
	return func(m *Merger) {
		if path != "" {
			m.ffmpegPath = path
		}
	}
}

// WithMergerCommandRunner sets a custom command runner (for testing)
func WithMergerCommandRunner(runner process.CommandRunner) MergerOption {
	return func(m *Merger) {
		m.runner = runner
	}
}

// NewMerger creates a merger that encodes user-facing outputs with the validated settings
func NewMerger(cfg settings.Validated, opts ...MergerOption) *Merger {
	m := &Merger{
		ffmpegPath: "ffmpeg",
		runner:     &process.ExecCommandRunner{},
		settings:   cfg,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge implements isolation.Merger. A passthrough graph maps its single
// input directly; otherwise the crossfade graph output label is mapped.
func (m *Merger) Merge(ctx context.Context, graph isolation.FilterGraph, segmentPaths []string, outputPath string) error {
	if len(segmentPaths) != graph.Inputs {
		return fmt.Errorf("%w: graph expects %d inputs, got %d", isolation.ErrInvalidInput, graph.Inputs, len(segmentPaths))
	}

	cmd := process.NewCommand(m.ffmpegPath).AddFlag(m.settings.OverwriteFlag())
	for _, p := range segmentPaths {
		cmd.AddFlag("-i", p)
	}
	if !graph.IsPassthrough() {
		cmd.AddFlag("-filter_complex", graph.Description).
			AddFlag("-map", graph.MapLabel())
	}
	cmd.AddFlag("-c:a", WorkingCodec).
		AddFlag("-ar", fmt.Sprint(WorkingSampleRate)).
		AddArgument(outputPath)

	if err := m.runner.Run(ctx, cmd); err != nil {
		return isolation.ToolFailure(isolation.StageMerge, "ffmpeg", err)
	}
	return nil
}

// Mux implements isolation.Muxer, replacing the video's audio with audioPath
func (m *Merger) Mux(ctx context.Context, videoPath, audioPath, outputPath string) error {
	audio := m.settings.Audio()
	cmd := process.NewCommand(m.ffmpegPath).
		AddFlag(m.settings.OverwriteFlag()).
		AddFlag("-i", videoPath).
		AddFlag("-i", audioPath).
		AddFlag("-c:v", m.settings.Video().Codec.Encoder()).
		AddFlag("-c:a", audio.Codec.Encoder()).
		AddFlag("-ar", fmt.Sprint(audio.SampleRate)).
		AddFlag("-ac", fmt.Sprint(audio.Channels)).
		AddFlag("-strict", m.settings.Global().Strictness.String()).
		AddFlag("-map", "0:v").
		AddFlag("-map", "1:a").
		AddFlag("-shortest").
		AddArgument(outputPath)

	if err := m.runner.Run(ctx, cmd); err != nil {
		return isolation.ToolFailure(isolation.StageMux, "ffmpeg", err)
	}
	return nil
}

// Ensure Merger implements the isolation ports
var (
	_ isolation.Merger = (*Merger)(nil)
	_ isolation.Muxer  = (*Merger)(nil)
)
