package ffmpeg

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"media-processor/domain/isolation"
	"media-processor/infrastructure/process"
)

// Prober implements isolation.DurationProber using ffprobe
type Prober struct {
	ffprobePath string
	runner      process.CommandRunner
}

// ProberOption is a functional option for configuring Prober
type ProberOption func(*Prober)

// WithFFprobePath sets a custom ffprobe executable path
func WithFFprobePath(path string) ProberOption {
	return func(p *Prober) {
		if path != "" {
			p.ffprobePath = path
		}
	}
}

// WithProberCommandRunner sets a custom command runner (for testing)
func WithProberCommandRunner(runner process.CommandRunner) ProberOption {
	return func(p *Prober) {
		p.runner = runner
	}
}

// NewProber creates a new ffprobe-based duration prober
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		ffprobePath: "ffprobe",
		runner:      &process.ExecCommandRunner{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Duration implements isolation.DurationProber
func (p *Prober) Duration(ctx context.Context, mediaPath string) (float64, error) {
	cmd := process.NewCommand(p.ffprobePath).
		AddFlag("-v", "error").
		AddFlag("-show_entries", "format=duration").
		AddFlag("-of", "default=noprint_wrappers=1:nokey=1").
		AddArgument(mediaPath)

	out, err := p.runner.Output(ctx, cmd)
	if err != nil {
		return -1, isolation.ToolFailure(isolation.StageProbe, "ffprobe", err)
	}
	return ParseDuration(string(out))
}

// ParseDuration parses ffprobe's single-line duration output
func ParseDuration(output string) (float64, error) {
	value := strings.TrimSpace(output)
	d, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return -1, &isolation.StageError{
			Stage: isolation.StageProbe,
			Tool:  "ffprobe",
			Err:   fmt.Errorf("%w: unparseable output %q", isolation.ErrDurationProbeFailed, value),
		}
	}
	return d, nil
}

// VerifyInstalled checks that ffprobe is available
func (p *Prober) VerifyInstalled(ctx context.Context) error {
	if _, err := p.runner.Output(ctx, process.NewCommand(p.ffprobePath).AddFlag("-version")); err != nil {
		return fmt.Errorf("ffprobe not found or not executable: %w", err)
	}
	return nil
}

// Ensure Prober implements isolation.DurationProber
var _ isolation.DurationProber = (*Prober)(nil)
