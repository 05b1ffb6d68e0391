package isolation

import (
	"fmt"
	"strings"
)

// OutputLabel is the filter graph label bound to the final mix
const OutputLabel = "outa"

// FilterGraph is the transcoder instruction set that re-links filtered segments
type FilterGraph struct {
	Description string // empty for a passthrough graph
	Inputs      int
	Stages      int
}

// IsPassthrough reports whether the single input is copied without crossfades
func (g FilterGraph) IsPassthrough() bool {
	return g.Stages == 0
}

// MapLabel returns the -map argument for the graph output
func (g FilterGraph) MapLabel() string {
	return "[" + OutputLabel + "]"
}

// BuildCrossfadeGraph chains segments left to right through acrossfade stages.
// Stage 0 blends inputs 0 and 1 into a0, stage k blends a(k-1) with input k+1.
// Every stage uses the same overlap as its window.
func BuildCrossfadeGraph(segmentPaths []string, overlap float64) (FilterGraph, error) {
	n := len(segmentPaths)
	switch {
	case n == 0:
		return FilterGraph{}, fmt.Errorf("%w: no segments to merge", ErrInvalidInput)
	case n == 1:
		return FilterGraph{Inputs: 1}, nil
	}
	if overlap <= 0 {
		return FilterGraph{}, fmt.Errorf("%w: crossfade overlap must be positive, got %s", ErrInvalidInput, FormatSeconds(overlap))
	}

	d := FormatSeconds(overlap)
	var b strings.Builder
	for i := 0; i < n-1; i++ {
		left := fmt.Sprintf("[%d:a]", i)
		if i > 0 {
			left = fmt.Sprintf("[a%d]", i-1)
		}
		fmt.Fprintf(&b, "%s[%d:a]acrossfade=d=%s:c1=tri:c2=tri[a%d]; ", left, i+1, d, i)
	}
	fmt.Fprintf(&b, "[a%d]amerge=inputs=1[%s]", n-2, OutputLabel)

	return FilterGraph{
		Description: b.String(),
		Inputs:      n,
		Stages:      n - 1,
	}, nil
}
