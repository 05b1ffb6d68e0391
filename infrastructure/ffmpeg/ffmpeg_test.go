package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"media-processor/domain/isolation"
	"media-processor/domain/settings"
	"media-processor/infrastructure/process"
)

// mockRunner records commands and returns canned results
type mockRunner struct {
	commands []*process.Command
	output   []byte
	err      error
}

func (m *mockRunner) Run(ctx context.Context, cmd *process.Command) error {
	m.commands = append(m.commands, cmd)
	return m.err
}

func (m *mockRunner) Output(ctx context.Context, cmd *process.Command) ([]byte, error) {
	m.commands = append(m.commands, cmd)
	return m.output, m.err
}

func (m *mockRunner) lastArgs(t *testing.T) []string {
	t.Helper()
	if len(m.commands) == 0 {
		t.Fatal("no command was run")
	}
	return m.commands[len(m.commands)-1].Args()
}

func validated(t *testing.T, configure func(s *settings.Settings)) settings.Validated {
	t.Helper()
	input := filepath.Join(t.TempDir(), "in.mp4")
	if err := os.WriteFile(input, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	s := settings.New()
	if err := s.SetInputPath(input); err != nil {
		t.Fatal(err)
	}
	s.SetOutputPath("/out/vocals.wav")
	if configure != nil {
		configure(s)
	}
	v, err := s.Validate()
	if err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	return v
}

func TestExtractor_ExtractAudio(t *testing.T) {
	runner := &mockRunner{}
	e := NewExtractor(WithExtractorCommandRunner(runner), WithExtractorFFmpegPath("/opt/ffmpeg"))

	if err := e.ExtractAudio(context.Background(), "/videos/talk show.mp4", "/work/full.wav"); err != nil {
		t.Fatalf("ExtractAudio() unexpected error: %v", err)
	}

	want := []string{"-y", "-i", "/videos/talk show.mp4", "-vn", "-ar", "48000", "-ac", "1", "-c:a", "pcm_s16le", "/work/full.wav"}
	if got := runner.lastArgs(t); !reflect.DeepEqual(got, want) {
		t.Errorf("args = %q, want %q", got, want)
	}
	if runner.commands[0].Name() != "/opt/ffmpeg" {
		t.Errorf("executable = %q", runner.commands[0].Name())
	}
}

func TestExtractor_Split(t *testing.T) {
	runner := &mockRunner{}
	e := NewExtractor(WithExtractorCommandRunner(runner))
	seg := isolation.Segment{Index: 1, StartTime: 25, Duration: 26.0000004}

	if err := e.Split(context.Background(), "/work/full.wav", seg, "/work/chunks/chunk_1.wav"); err != nil {
		t.Fatalf("Split() unexpected error: %v", err)
	}

	want := []string{"-y", "-ss", "25.000000", "-t", "26.000000", "-i", "/work/full.wav", "-ar", "48000", "-ac", "1", "-c:a", "pcm_s16le", "/work/chunks/chunk_1.wav"}
	if got := runner.lastArgs(t); !reflect.DeepEqual(got, want) {
		t.Errorf("args = %q, want %q", got, want)
	}
}

func TestExtractor_Failures(t *testing.T) {
	runner := &mockRunner{err: errors.New("exit status 1")}
	e := NewExtractor(WithExtractorCommandRunner(runner))

	err := e.ExtractAudio(context.Background(), "in.mp4", "out.wav")
	var se *isolation.StageError
	if !errors.As(err, &se) || se.Stage != isolation.StageExtract {
		t.Errorf("ExtractAudio() error = %v, want extract StageError", err)
	}
	if !errors.Is(err, isolation.ErrExternalToolFailure) {
		t.Errorf("ExtractAudio() error = %v, want ErrExternalToolFailure", err)
	}

	err = e.Split(context.Background(), "in.wav", isolation.Segment{Index: 2}, "out.wav")
	if !errors.As(err, &se) || se.Stage != isolation.StageSplit {
		t.Errorf("Split() error = %v, want split StageError", err)
	}
	if !strings.Contains(err.Error(), "chunk 2") {
		t.Errorf("Split() error = %v, want chunk index", err)
	}

	if err := e.VerifyInstalled(context.Background()); err == nil {
		t.Error("VerifyInstalled() expected error")
	}
}

func TestProber_Duration(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		runErr  error
		want    float64
		wantErr error
	}{
		{name: "plain value", output: "100.000000\n", want: 100},
		{name: "surrounding whitespace", output: "  3599.987 \r\n", want: 3599.987},
		{name: "zero", output: "0", want: 0},
		{name: "not available", output: "N/A\n", want: -1, wantErr: isolation.ErrDurationProbeFailed},
		{name: "empty", output: "", want: -1, wantErr: isolation.ErrDurationProbeFailed},
		{name: "negative", output: "-3.5", want: -1, wantErr: isolation.ErrDurationProbeFailed},
		{name: "tool failure", runErr: errors.New("exit status 1"), want: -1, wantErr: isolation.ErrExternalToolFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockRunner{output: []byte(tt.output), err: tt.runErr}
			p := NewProber(WithProberCommandRunner(runner))

			got, err := p.Duration(context.Background(), "/work/full.wav")
			if got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Duration() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Duration() unexpected error: %v", err)
			}
			want := []string{"-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", "/work/full.wav"}
			if args := runner.lastArgs(t); !reflect.DeepEqual(args, want) {
				t.Errorf("args = %q, want %q", args, want)
			}
		})
	}
}

func TestMerger_Merge(t *testing.T) {
	paths := []string{"/p/chunk_0.wav", "/p/chunk_1.wav", "/p/chunk_2.wav"}
	graph, err := isolation.BuildCrossfadeGraph(paths, 1)
	if err != nil {
		t.Fatal(err)
	}
	runner := &mockRunner{}
	m := NewMerger(validated(t, nil), WithMergerCommandRunner(runner))

	if err := m.Merge(context.Background(), graph, paths, "/out/vocals.wav"); err != nil {
		t.Fatalf("Merge() unexpected error: %v", err)
	}

	want := []string{
		"-n",
		"-i", "/p/chunk_0.wav",
		"-i", "/p/chunk_1.wav",
		"-i", "/p/chunk_2.wav",
		"-filter_complex", graph.Description,
		"-map", "[outa]",
		"-c:a", "pcm_s16le",
		"-ar", "48000",
		"/out/vocals.wav",
	}
	if got := runner.lastArgs(t); !reflect.DeepEqual(got, want) {
		t.Errorf("args = %q, want %q", got, want)
	}
}

func TestMerger_MergePassthrough(t *testing.T) {
	graph, _ := isolation.BuildCrossfadeGraph([]string{"/p/chunk_0.wav"}, 1)
	runner := &mockRunner{}
	m := NewMerger(validated(t, func(s *settings.Settings) { s.SetOverwrite(true) }), WithMergerCommandRunner(runner))

	if err := m.Merge(context.Background(), graph, []string{"/p/chunk_0.wav"}, "/out/vocals.wav"); err != nil {
		t.Fatalf("Merge() unexpected error: %v", err)
	}

	want := []string{"-y", "-i", "/p/chunk_0.wav", "-c:a", "pcm_s16le", "-ar", "48000", "/out/vocals.wav"}
	if got := runner.lastArgs(t); !reflect.DeepEqual(got, want) {
		t.Errorf("args = %q, want %q", got, want)
	}
}

func TestMerger_MergeInputMismatch(t *testing.T) {
	graph, _ := isolation.BuildCrossfadeGraph([]string{"a", "b"}, 1)
	runner := &mockRunner{}
	m := NewMerger(validated(t, nil), WithMergerCommandRunner(runner))

	err := m.Merge(context.Background(), graph, []string{"a"}, "out.wav")
	if !errors.Is(err, isolation.ErrInvalidInput) {
		t.Errorf("Merge() error = %v, want ErrInvalidInput", err)
	}
	if len(runner.commands) != 0 {
		t.Error("Merge() ran ffmpeg despite mismatched inputs")
	}
}

func TestMerger_Mux(t *testing.T) {
	runner := &mockRunner{}
	cfg := validated(t, func(s *settings.Settings) {
		s.SetOverwrite(true)
		s.SetAudioCodec(settings.Opus)
		s.SetSampleRate(24000)
		s.SetChannels(1)
		s.SetVideoCodec(settings.VP9)
		s.SetStrictness(settings.Normal)
	})
	m := NewMerger(cfg, WithMergerCommandRunner(runner))

	if err := m.Mux(context.Background(), "/v/in.mp4", "/out/vocals.wav", "/out/in_vocals.mkv"); err != nil {
		t.Fatalf("Mux() unexpected error: %v", err)
	}

	want := []string{
		"-y",
		"-i", "/v/in.mp4",
		"-i", "/out/vocals.wav",
		"-c:v", "libvpx-vp9",
		"-c:a", "libopus",
		"-ar", "24000",
		"-ac", "1",
		"-strict", "normal",
		"-map", "0:v",
		"-map", "1:a",
		"-shortest",
		"/out/in_vocals.mkv",
	}
	if got := runner.lastArgs(t); !reflect.DeepEqual(got, want) {
		t.Errorf("args = %q, want %q", got, want)
	}
}
