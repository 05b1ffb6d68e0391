package cmd

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"media-processor/domain/isolation"
	"media-processor/infrastructure/ffmpeg"

	"github.com/spf13/cobra"
)

var (
	planInputPath string
	planDuration  float64
	planChunks    int
	planOverlap   float64
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show chunk boundaries and the crossfade graph for a run",
	Long: `Show how a run would split its audio without processing anything.

The duration is given with --duration or probed from --input.

Example:
  media-processor plan --duration 100 --chunks 4
  media-processor plan --input service.mp4`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVar(&planInputPath, "input", "", "Media file to probe for its duration")
	planCmd.Flags().Float64Var(&planDuration, "duration", 0, "Audio duration in seconds")
	planCmd.Flags().IntVar(&planChunks, "chunks", 0, "Number of chunks (default from config, 0 = one per CPU)")
	planCmd.Flags().Float64Var(&planOverlap, "overlap", 0, "Seconds of overlap between chunks (default from config)")
	planCmd.MarkFlagsMutuallyExclusive("input", "duration")
	planCmd.MarkFlagsOneRequired("input", "duration")
}

func runPlan(cmd *cobra.Command, args []string) error {
	c, err := GetConfig()
	if err != nil {
		return err
	}

	chunks := c.Processing.Chunks
	if cmd.Flags().Changed("chunks") {
		chunks = planChunks
	}
	overlap := c.Processing.OverlapSeconds
	if cmd.Flags().Changed("overlap") {
		overlap = planOverlap
	}

	var prober isolation.DurationProber
	if planInputPath != "" {
		prober = ffmpeg.NewProber(ffmpeg.WithFFprobePath(c.Tools.FFprobe))
	}

	return RunPlanWithDependencies(cmd.Context(), prober, PlanInput{
		InputPath: planInputPath,
		Duration:  planDuration,
		Chunks:    chunks,
		Overlap:   overlap,
	}, cmd.OutOrStdout())
}

// PlanInput holds the plan command's options
type PlanInput struct {
	InputPath string
	Duration  float64
	Chunks    int
	Overlap   float64
}

// RunPlanWithDependencies runs the plan command with injected dependencies (for testing)
func RunPlanWithDependencies(ctx context.Context, prober isolation.DurationProber, input PlanInput, output OutputWriter) error {
	if !(input.Overlap > 0) {
		return fmt.Errorf("%w: overlap must be positive, got %s", isolation.ErrInvalidInput, isolation.FormatSeconds(input.Overlap))
	}

	duration := input.Duration
	if input.InputPath != "" {
		d, err := prober.Duration(ctx, input.InputPath)
		if err != nil {
			return err
		}
		duration = d
	}

	requested := input.Chunks
	if requested <= 0 {
		requested = runtime.NumCPU()
	}
	chunks := isolation.FitChunkCount(duration, requested, input.Overlap)

	segments, err := isolation.PlanSegments(duration, chunks, input.Overlap)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Duration: %ss\n", isolation.FormatSeconds(duration))
	if chunks != requested {
		fmt.Fprintf(output, "Chunks:   %d (reduced from %d for %ss overlap)\n", chunks, requested, isolation.FormatSeconds(input.Overlap))
	} else {
		fmt.Fprintf(output, "Chunks:   %d\n", chunks)
	}
	fmt.Fprintln(output)

	rows := make([][]string, 0, len(segments))
	paths := make([]string, 0, len(segments))
	for _, seg := range segments {
		rows = append(rows, []string{
			strconv.Itoa(seg.Index),
			seg.FileName(),
			isolation.FormatSeconds(seg.StartTime),
			isolation.FormatSeconds(seg.End()),
			isolation.FormatSeconds(seg.Duration),
		})
		paths = append(paths, seg.FileName())
	}
	fmt.Fprintln(output, renderTable([]string{"#", "File", "Start", "End", "Duration"}, rows, 0, 2, 3, 4))
	fmt.Fprintln(output)

	graph, err := isolation.BuildCrossfadeGraph(paths, input.Overlap)
	if err != nil {
		return err
	}
	if graph.IsPassthrough() {
		fmt.Fprintln(output, "Merge: single chunk, no crossfade")
		return nil
	}
	fmt.Fprintf(output, "Merge: %d crossfade stages\n", graph.Stages)
	fmt.Fprintln(output, graph.Description)
	return nil
}
