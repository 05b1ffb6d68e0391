package deepfilter

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"media-processor/domain/isolation"
	"media-processor/infrastructure/process"
)

type mockRunner struct {
	commands []*process.Command
	err      error
}

func (m *mockRunner) Run(ctx context.Context, cmd *process.Command) error {
	m.commands = append(m.commands, cmd)
	return m.err
}

func (m *mockRunner) Output(ctx context.Context, cmd *process.Command) ([]byte, error) {
	m.commands = append(m.commands, cmd)
	return nil, m.err
}

func TestFilter_Filter(t *testing.T) {
	runner := &mockRunner{}
	f := NewFilter(WithCommandRunner(runner), WithBinaryPath("/usr/local/bin/deep-filter"))

	got, err := f.Filter(context.Background(), "/out/chunks/chunk_3.wav", "/out/processed_chunks")
	if err != nil {
		t.Fatalf("Filter() unexpected error: %v", err)
	}
	if got != "/out/processed_chunks/chunk_3.wav" {
		t.Errorf("Filter() = %q, want /out/processed_chunks/chunk_3.wav", got)
	}

	cmd := runner.commands[0]
	if cmd.Name() != "/usr/local/bin/deep-filter" {
		t.Errorf("executable = %q", cmd.Name())
	}
	want := []string{"-D", "-o", "/out/processed_chunks", "/out/chunks/chunk_3.wav"}
	if !reflect.DeepEqual(cmd.Args(), want) {
		t.Errorf("args = %q, want %q", cmd.Args(), want)
	}
}

func TestFilter_Failure(t *testing.T) {
	runner := &mockRunner{err: errors.New("exit status 2")}
	f := NewFilter(WithCommandRunner(runner))

	_, err := f.Filter(context.Background(), "/out/chunks/chunk_2.wav", "/out/processed_chunks")
	if !errors.Is(err, isolation.ErrExternalToolFailure) {
		t.Fatalf("Filter() error = %v, want ErrExternalToolFailure", err)
	}
	var se *isolation.StageError
	if !errors.As(err, &se) || se.Stage != isolation.StageFilter || se.Tool != "deep-filter" {
		t.Errorf("Filter() error = %#v, want filter StageError", err)
	}
	if !strings.Contains(err.Error(), "chunk_2.wav") {
		t.Errorf("Filter() error = %v, want the chunk name", err)
	}
}
