package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"media-processor/domain/isolation"
)

type stubProber struct {
	duration float64
	calls    int
}

func (p *stubProber) Duration(ctx context.Context, mediaPath string) (float64, error) {
	p.calls++
	return p.duration, nil
}

func TestRunPlanWithDependencies_RejectsNonPositiveOverlap(t *testing.T) {
	for _, overlap := range []float64{0, -1} {
		prober := &stubProber{duration: 100}
		var out bytes.Buffer

		err := RunPlanWithDependencies(context.Background(), prober, PlanInput{InputPath: "service.mp4", Chunks: 4, Overlap: overlap}, &out)
		if !errors.Is(err, isolation.ErrInvalidInput) {
			t.Errorf("overlap %v: error = %v, want ErrInvalidInput", overlap, err)
		}
		if out.Len() != 0 {
			t.Errorf("overlap %v: expected no output, got:\n%s", overlap, out.String())
		}
		if prober.calls != 0 {
			t.Errorf("overlap %v: prober called %d times", overlap, prober.calls)
		}
	}
}

func TestRunPlanWithDependencies_ProbesInput(t *testing.T) {
	prober := &stubProber{duration: 100}
	var out bytes.Buffer

	if err := RunPlanWithDependencies(context.Background(), prober, PlanInput{InputPath: "service.mp4", Chunks: 4, Overlap: 1}, &out); err != nil {
		t.Fatalf("RunPlanWithDependencies() error = %v", err)
	}
	if prober.calls != 1 {
		t.Errorf("prober calls = %d, want 1", prober.calls)
	}
	for _, want := range []string{"Duration: 100.000000s", "Chunks:   4", "Merge: 3 crossfade stages"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}
