package isolation

import (
	"fmt"
	"math"
	"strconv"
)

// DefaultOverlap is the overlap between consecutive segments in seconds.
// The crossfade window uses the same value.
const DefaultOverlap = 1.0

// Segment is a time-bounded slice of the extracted audio
type Segment struct {
	Index        int
	StartTime    float64 // seconds
	Duration     float64 // seconds
	SourcePath   string  // split output, set by the runner
	FilteredPath string  // filter output, set by the runner
}

// End returns the exclusive end of the segment window in seconds
func (s Segment) End() float64 {
	return s.StartTime + s.Duration
}

// FileName returns the file name used for this segment's split and filtered output
func (s Segment) FileName() string {
	return fmt.Sprintf("chunk_%d.wav", s.Index)
}

// PlanSegments divides totalDuration into numChunks windows. Every window but
// the last extends overlap seconds into the next one; the last window is
// clamped to the end of the source.
func PlanSegments(totalDuration float64, numChunks int, overlap float64) ([]Segment, error) {
	if math.IsNaN(totalDuration) || totalDuration <= 0 {
		return nil, fmt.Errorf("%w: total duration must be positive, got %s", ErrInvalidInput, FormatSeconds(totalDuration))
	}
	if numChunks <= 0 {
		return nil, fmt.Errorf("%w: chunk count must be positive, got %d", ErrInvalidInput, numChunks)
	}
	if math.IsNaN(overlap) || overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must not be negative, got %s", ErrInvalidInput, FormatSeconds(overlap))
	}

	base := totalDuration / float64(numChunks)
	if numChunks > 1 && overlap >= base {
		return nil, fmt.Errorf("%w: overlap %ss must be shorter than chunk length %ss", ErrInvalidInput, FormatSeconds(overlap), FormatSeconds(base))
	}

	segments := make([]Segment, numChunks)
	for i := range segments {
		start := float64(i) * base
		duration := base + overlap
		if i == numChunks-1 {
			duration = totalDuration - start
		}
		segments[i] = Segment{
			Index:     i,
			StartTime: start,
			Duration:  duration,
		}
	}
	return segments, nil
}

// FitChunkCount lowers requested so every chunk is at least twice the overlap
// long. The result is never below 1.
func FitChunkCount(totalDuration float64, requested int, overlap float64) int {
	if requested < 1 {
		requested = 1
	}
	if overlap <= 0 || totalDuration <= 0 {
		return requested
	}
	limit := math.Floor(totalDuration / (2 * overlap))
	if math.IsNaN(limit) || limit < 1 {
		return 1
	}
	if limit >= float64(requested) {
		return requested
	}
	return int(limit)
}

// FormatSeconds renders seconds with microsecond precision
func FormatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
