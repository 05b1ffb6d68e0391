package cmd

import (
	"context"
	"fmt"
	"time"

	"media-processor/infrastructure/deepfilter"
	"media-processor/infrastructure/ffmpeg"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the external tools are installed",
	Long: `Check that ffmpeg, ffprobe and deep-filter can be executed with the
configured paths.

Example:
  media-processor check`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// ToolCheck names a tool and how to verify it
type ToolCheck struct {
	Name   string
	Path   string
	Verify func(ctx context.Context) error
}

func runCheck(cmd *cobra.Command, args []string) error {
	c, err := GetConfig()
	if err != nil {
		return err
	}

	tools := []ToolCheck{
		{Name: "ffmpeg", Path: c.Tools.FFmpeg, Verify: ffmpeg.NewExtractor(ffmpeg.WithExtractorFFmpegPath(c.Tools.FFmpeg)).VerifyInstalled},
		{Name: "ffprobe", Path: c.Tools.FFprobe, Verify: ffmpeg.NewProber(ffmpeg.WithFFprobePath(c.Tools.FFprobe)).VerifyInstalled},
		{Name: "deep-filter", Path: c.Tools.DeepFilter, Verify: deepfilter.NewFilter(deepfilter.WithBinaryPath(c.Tools.DeepFilter)).VerifyInstalled},
	}
	return RunCheckWithDependencies(cmd.Context(), tools, cmd.OutOrStdout())
}

// RunCheckWithDependencies runs the check command with injected dependencies (for testing)
func RunCheckWithDependencies(ctx context.Context, tools []ToolCheck, output OutputWriter) error {
	rows := make([][]string, 0, len(tools))
	missing := 0
	for _, tool := range tools {
		verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := tool.Verify(verifyCtx)
		cancel()

		status := "ok"
		if err != nil {
			status = "missing"
			missing++
		}
		rows = append(rows, []string{tool.Name, tool.Path, status})
	}

	fmt.Fprintln(output, renderTable([]string{"Tool", "Path", "Status"}, rows))
	if missing > 0 {
		return fmt.Errorf("%d of %d tools unavailable", missing, len(tools))
	}
	return nil
}
