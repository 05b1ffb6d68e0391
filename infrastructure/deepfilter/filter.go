package deepfilter

import (
	"context"
	"fmt"
	"path/filepath"

	"media-processor/domain/isolation"
	"media-processor/infrastructure/process"
)

// Filter implements isolation.Filter by running the DeepFilterNet CLI
type Filter struct {
	binaryPath string
	runner     process.CommandRunner
}

// Option is a functional option for configuring Filter
type Option func(*Filter)

// WithBinaryPath sets a custom deep-filter executable path
func WithBinaryPath(path string) Option {
	return func(f *Filter) {
		if path != "" {
			f.binaryPath = path
		}
	}
}

// WithCommandRunner sets a custom command runner (for testing)
func WithCommandRunner(runner process.CommandRunner) Option {
	return func(f *Filter) {
		f.runner = runner
	}
}

// NewFilter creates a new DeepFilterNet filter
func NewFilter(opts ...Option) *Filter {
	f := &Filter{
		binaryPath: "deep-filter",
		runner:     &process.ExecCommandRunner{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Filter implements isolation.Filter. The tool writes a file with the same
// name as its input into outputDir.
//
// -D enables delay compensation so the output keeps the input's length;
// without it the filtered chunk comes out shorter and the crossfade offsets drift.
func (f *Filter) Filter(ctx context.Context, segmentPath, outputDir string) (string, error) {
	cmd := process.NewCommand(f.binaryPath).
		AddFlag("-D").
		AddFlag("-o", outputDir).
		AddArgument(segmentPath)

	if err := f.runner.Run(ctx, cmd); err != nil {
		return "", isolation.ToolFailure(isolation.StageFilter, "deep-filter", fmt.Errorf("%s: %w", filepath.Base(segmentPath), err))
	}
	return filepath.Join(outputDir, filepath.Base(segmentPath)), nil
}

// VerifyInstalled checks that deep-filter is available
func (f *Filter) VerifyInstalled(ctx context.Context) error {
	if _, err := f.runner.Output(ctx, process.NewCommand(f.binaryPath).AddFlag("--version")); err != nil {
		return fmt.Errorf("deep-filter not found or not executable: %w", err)
	}
	return nil
}

// Ensure Filter implements isolation.Filter
var _ isolation.Filter = (*Filter)(nil)
