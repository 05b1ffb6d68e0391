package isolation

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestBuildCrossfadeGraph(t *testing.T) {
	tests := []struct {
		name    string
		paths   []string
		overlap float64
		want    string
		stages  int
	}{
		{
			name:    "two segments",
			paths:   []string{"c0.wav", "c1.wav"},
			overlap: 1,
			want:    "[0:a][1:a]acrossfade=d=1.000000:c1=tri:c2=tri[a0]; [a0]amerge=inputs=1[outa]",
			stages:  1,
		},
		{
			name:    "four segments",
			paths:   []string{"c0.wav", "c1.wav", "c2.wav", "c3.wav"},
			overlap: 1,
			want: "[0:a][1:a]acrossfade=d=1.000000:c1=tri:c2=tri[a0]; " +
				"[a0][2:a]acrossfade=d=1.000000:c1=tri:c2=tri[a1]; " +
				"[a1][3:a]acrossfade=d=1.000000:c1=tri:c2=tri[a2]; " +
				"[a2]amerge=inputs=1[outa]",
			stages: 3,
		},
		{
			name:    "fractional overlap",
			paths:   []string{"a.wav", "b.wav", "c.wav"},
			overlap: 0.25,
			want: "[0:a][1:a]acrossfade=d=0.250000:c1=tri:c2=tri[a0]; " +
				"[a0][2:a]acrossfade=d=0.250000:c1=tri:c2=tri[a1]; " +
				"[a1]amerge=inputs=1[outa]",
			stages: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildCrossfadeGraph(tt.paths, tt.overlap)
			if err != nil {
				t.Fatalf("BuildCrossfadeGraph() unexpected error: %v", err)
			}
			if got.Description != tt.want {
				t.Errorf("Description =\n%q\nwant\n%q", got.Description, tt.want)
			}
			if got.Stages != tt.stages {
				t.Errorf("Stages = %d, want %d", got.Stages, tt.stages)
			}
			if got.Inputs != len(tt.paths) {
				t.Errorf("Inputs = %d, want %d", got.Inputs, len(tt.paths))
			}
			if got.IsPassthrough() {
				t.Error("IsPassthrough() = true for a multi-segment graph")
			}
		})
	}
}

func TestBuildCrossfadeGraph_StageCount(t *testing.T) {
	for n := 2; n <= 32; n++ {
		paths := make([]string, n)
		for i := range paths {
			paths[i] = fmt.Sprintf("chunk_%d.wav", i)
		}
		g, err := BuildCrossfadeGraph(paths, 1.5)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if got := strings.Count(g.Description, "acrossfade="); got != n-1 {
			t.Errorf("n=%d: %d acrossfade stages, want %d", n, got, n-1)
		}
		if got := strings.Count(g.Description, "d=1.500000:"); got != n-1 {
			t.Errorf("n=%d: %d stages with the shared overlap, want %d", n, got, n-1)
		}
		wantTail := fmt.Sprintf("[a%d]amerge=inputs=1[outa]", n-2)
		if !strings.HasSuffix(g.Description, wantTail) {
			t.Errorf("n=%d: description does not end with %q", n, wantTail)
		}
	}
}

func TestBuildCrossfadeGraph_SingleSegment(t *testing.T) {
	g, err := BuildCrossfadeGraph([]string{"only.wav"}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.IsPassthrough() {
		t.Error("IsPassthrough() = false, want true")
	}
	if g.Stages != 0 || g.Description != "" {
		t.Errorf("got %+v, want a passthrough graph", g)
	}
}

func TestBuildCrossfadeGraph_Errors(t *testing.T) {
	if _, err := BuildCrossfadeGraph(nil, 1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty paths error = %v, want ErrInvalidInput", err)
	}
	if _, err := BuildCrossfadeGraph([]string{"a", "b"}, 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero overlap error = %v, want ErrInvalidInput", err)
	}
}

func TestStageError(t *testing.T) {
	cause := errors.New("exit status 1")
	err := ToolFailure(StageFilter, "deep-filter", cause)

	if !errors.Is(err, ErrExternalToolFailure) {
		t.Error("ToolFailure() does not match ErrExternalToolFailure")
	}
	if !errors.Is(err, cause) {
		t.Error("ToolFailure() does not wrap the cause")
	}
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatal("ToolFailure() is not a *StageError")
	}
	if se.Stage != StageFilter || se.Tool != "deep-filter" {
		t.Errorf("StageError = %+v", se)
	}
	if !strings.Contains(err.Error(), "filter stage (deep-filter)") {
		t.Errorf("Error() = %q", err.Error())
	}
}
