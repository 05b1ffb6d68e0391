//go:build integration

package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	appisolation "media-processor/application/isolation"
	"media-processor/cmd"
	"media-processor/domain/isolation"
	"media-processor/domain/settings"
	"media-processor/infrastructure/filesystem"

	"github.com/cucumber/godog"
)

// fakeTools stands in for ffmpeg, ffprobe and deep-filter. Every call writes
// a real file so the filesystem workspace sees the same layout as a real run.
type fakeTools struct {
	mu          sync.Mutex
	duration    float64
	failChunks  map[int]bool
	splits      []isolation.Segment
	mergeGraph  *isolation.FilterGraph
	mergeInputs []string
	muxed       string
}

func (f *fakeTools) ExtractAudio(ctx context.Context, videoPath, outputPath string) error {
	return os.WriteFile(outputPath, []byte("pcm"), 0o644)
}

func (f *fakeTools) Duration(ctx context.Context, mediaPath string) (float64, error) {
	return f.duration, nil
}

func (f *fakeTools) Split(ctx context.Context, sourcePath string, seg isolation.Segment, outputPath string) error {
	f.mu.Lock()
	f.splits = append(f.splits, seg)
	f.mu.Unlock()
	return os.WriteFile(outputPath, []byte("chunk"), 0o644)
}

func (f *fakeTools) Filter(ctx context.Context, segmentPath, outputDir string) (string, error) {
	var index int
	if _, err := fmt.Sscanf(filepath.Base(segmentPath), "chunk_%d.wav", &index); err != nil {
		return "", err
	}
	if f.failChunks[index] {
		return "", isolation.ToolFailure(isolation.StageFilter, "deep-filter", fmt.Errorf("chunk %d: exit status 1", index))
	}
	out := filepath.Join(outputDir, filepath.Base(segmentPath))
	return out, os.WriteFile(out, []byte("vocals"), 0o644)
}

func (f *fakeTools) Merge(ctx context.Context, graph isolation.FilterGraph, segmentPaths []string, outputPath string) error {
	f.mergeGraph = &graph
	f.mergeInputs = append([]string(nil), segmentPaths...)
	return os.WriteFile(outputPath, []byte("merged"), 0o644)
}

func (f *fakeTools) Mux(ctx context.Context, videoPath, audioPath, outputPath string) error {
	f.muxed = outputPath
	return os.WriteFile(outputPath, []byte("video"), 0o644)
}

type isolateContext struct {
	tempDir   string
	inputPath string
	tools     *fakeTools
	input     cmd.IsolateInput
	overwrite bool
	output    bytes.Buffer
	result    *appisolation.Result
	err       error
}

var SharedIsolateContext = &isolateContext{}

func InitializeIsolateScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedIsolateContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "isolate-test-*")
		if err != nil {
			return c, err
		}
		*testCtx = isolateContext{
			tempDir: tempDir,
			tools:   &fakeTools{failChunks: map[int]bool{}},
			input:   cmd.IsolateInput{Workers: 2, Overlap: 1},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^a source video "([^"]*)" with (\d+(?:\.\d+)?) seconds of audio$`, testCtx.aSourceVideoWithSecondsOfAudio)
	ctx.Step(`^the run uses (\d+) chunks with (\d+(?:\.\d+)?) seconds? of overlap$`, testCtx.theRunUsesChunksWithOverlap)
	ctx.Step(`^deep-filter fails on chunk (\d+)$`, testCtx.deepFilterFailsOnChunk)
	ctx.Step(`^intermediates are kept$`, testCtx.intermediatesAreKept)
	ctx.Step(`^overwriting is enabled$`, testCtx.overwritingIsEnabled)
	ctx.Step(`^a previous output "([^"]*)" exists$`, testCtx.aPreviousOutputExists)
	ctx.Step(`^I isolate the vocals into "([^"]*)"$`, testCtx.iIsolateTheVocalsInto)
	ctx.Step(`^I isolate the vocals into "([^"]*)" and mux the video into "([^"]*)"$`, testCtx.iIsolateAndMux)
	ctx.Step(`^the run should succeed$`, testCtx.theRunShouldSucceed)
	ctx.Step(`^the run should fail with an external tool error$`, testCtx.theRunShouldFailWithAnExternalToolError)
	ctx.Step(`^the run should fail with an invalid input error$`, testCtx.theRunShouldFailWithAnInvalidInputError)
	ctx.Step(`^the audio should be split into:$`, testCtx.theAudioShouldBeSplitInto)
	ctx.Step(`^the merge graph should be:$`, testCtx.theMergeGraphShouldBe)
	ctx.Step(`^the merge should be a passthrough of "([^"]*)"$`, testCtx.theMergeShouldBeAPassthroughOf)
	ctx.Step(`^no merge should have run$`, testCtx.noMergeShouldHaveRun)
	ctx.Step(`^"([^"]*)" should exist in the output directory$`, testCtx.shouldExistInTheOutputDirectory)
	ctx.Step(`^"([^"]*)" should not exist in the output directory$`, testCtx.shouldNotExistInTheOutputDirectory)
	ctx.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
}

func (s *isolateContext) outPath(name string) string {
	return filepath.Join(s.tempDir, "out", name)
}

func (s *isolateContext) aSourceVideoWithSecondsOfAudio(name string, seconds float64) error {
	s.inputPath = filepath.Join(s.tempDir, name)
	s.tools.duration = seconds
	return os.WriteFile(s.inputPath, []byte("video"), 0o644)
}

func (s *isolateContext) theRunUsesChunksWithOverlap(chunks int, overlap float64) error {
	s.input.Chunks = chunks
	s.input.Overlap = overlap
	return nil
}

func (s *isolateContext) deepFilterFailsOnChunk(index int) error {
	s.tools.failChunks[index] = true
	return nil
}

func (s *isolateContext) intermediatesAreKept() error {
	s.input.KeepIntermediates = true
	return nil
}

func (s *isolateContext) overwritingIsEnabled() error {
	s.overwrite = true
	return nil
}

func (s *isolateContext) aPreviousOutputExists(name string) error {
	if err := os.MkdirAll(filepath.Join(s.tempDir, "out"), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.outPath(name), []byte("stale"), 0o644)
}

func (s *isolateContext) iIsolateTheVocalsInto(name string) error {
	return s.run(name)
}

func (s *isolateContext) iIsolateAndMux(name, video string) error {
	s.input.VideoOutputPath = s.outPath(video)
	return s.run(name)
}

func (s *isolateContext) run(name string) error {
	cfg := settings.New()
	for _, err := range []error{
		cfg.SetInputPath(s.inputPath),
		cfg.SetOutputPath(s.outPath(name)),
		cfg.SetOverwrite(s.overwrite),
	} {
		if err != nil {
			return err
		}
	}
	validated, err := cfg.Validate()
	if err != nil {
		return err
	}

	deps := cmd.IsolateDependencies{
		Extractor: s.tools,
		Splitter:  s.tools,
		Prober:    s.tools,
		Filter:    s.tools,
		Merger:    s.tools,
		Workspace: filesystem.NewChecker(),
	}
	s.result, s.err = cmd.RunIsolateWithDependencies(context.Background(), deps, validated, s.input, &s.output)
	return nil
}

func (s *isolateContext) theRunShouldSucceed() error {
	if s.err != nil {
		return fmt.Errorf("expected success, got: %w", s.err)
	}
	if _, err := os.Stat(s.result.OutputPath); err != nil {
		return fmt.Errorf("output not written: %w", err)
	}
	return nil
}

func (s *isolateContext) theRunShouldFailWithAnExternalToolError() error {
	if !errors.Is(s.err, isolation.ErrExternalToolFailure) {
		return fmt.Errorf("expected external tool failure, got: %v", s.err)
	}
	return nil
}

func (s *isolateContext) theRunShouldFailWithAnInvalidInputError() error {
	if !errors.Is(s.err, isolation.ErrInvalidInput) {
		return fmt.Errorf("expected invalid input error, got: %v", s.err)
	}
	return nil
}

func (s *isolateContext) theAudioShouldBeSplitInto(table *godog.Table) error {
	splits := append([]isolation.Segment(nil), s.tools.splits...)
	sort.Slice(splits, func(i, j int) bool { return splits[i].Index < splits[j].Index })

	rows := table.Rows[1:]
	if len(rows) != len(splits) {
		return fmt.Errorf("expected %d splits, got %d", len(rows), len(splits))
	}
	for i, row := range rows {
		index, err := strconv.Atoi(row.Cells[0].Value)
		if err != nil {
			return err
		}
		seg := splits[i]
		start := isolation.FormatSeconds(seg.StartTime)
		duration := isolation.FormatSeconds(seg.Duration)
		if seg.Index != index || start != row.Cells[1].Value || duration != row.Cells[2].Value {
			return fmt.Errorf("split %d: got index=%d start=%s duration=%s, want %s/%s/%s",
				i, seg.Index, start, duration, row.Cells[0].Value, row.Cells[1].Value, row.Cells[2].Value)
		}
	}
	return nil
}

func (s *isolateContext) theMergeGraphShouldBe(doc *godog.DocString) error {
	if s.tools.mergeGraph == nil {
		return fmt.Errorf("merge did not run")
	}
	want := strings.TrimSpace(doc.Content)
	if s.tools.mergeGraph.Description != want {
		return fmt.Errorf("graph mismatch:\n got: %s\nwant: %s", s.tools.mergeGraph.Description, want)
	}
	for i, path := range s.tools.mergeInputs {
		if filepath.Base(path) != fmt.Sprintf("chunk_%d.wav", i) {
			return fmt.Errorf("merge input %d is %s", i, path)
		}
	}
	return nil
}

func (s *isolateContext) theMergeShouldBeAPassthroughOf(name string) error {
	if s.tools.mergeGraph == nil {
		return fmt.Errorf("merge did not run")
	}
	if !s.tools.mergeGraph.IsPassthrough() {
		return fmt.Errorf("expected passthrough, got graph %q", s.tools.mergeGraph.Description)
	}
	if len(s.tools.mergeInputs) != 1 || filepath.Base(s.tools.mergeInputs[0]) != name {
		return fmt.Errorf("expected single input %s, got %v", name, s.tools.mergeInputs)
	}
	return nil
}

func (s *isolateContext) noMergeShouldHaveRun() error {
	if s.tools.mergeGraph != nil {
		return fmt.Errorf("merge ran with %d inputs", len(s.tools.mergeInputs))
	}
	return nil
}

func (s *isolateContext) shouldExistInTheOutputDirectory(rel string) error {
	if _, err := os.Stat(s.outPath(rel)); err != nil {
		return fmt.Errorf("expected %s to exist: %w", rel, err)
	}
	return nil
}

func (s *isolateContext) shouldNotExistInTheOutputDirectory(rel string) error {
	if _, err := os.Stat(s.outPath(rel)); err == nil {
		return fmt.Errorf("expected %s to be removed", rel)
	}
	return nil
}

func (s *isolateContext) theOutputShouldContain(text string) error {
	if !strings.Contains(s.output.String(), text) {
		return fmt.Errorf("output does not contain %q:\n%s", text, s.output.String())
	}
	return nil
}
