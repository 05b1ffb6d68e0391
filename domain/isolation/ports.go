package isolation

import "context"

// AudioExtractor pulls the full audio track out of a video as working PCM
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoPath, outputPath string) error
}

// DurationProber reads the duration of a media file in seconds.
// It returns -1 with the error on failure.
type DurationProber interface {
	Duration(ctx context.Context, mediaPath string) (float64, error)
}

// Splitter carves one segment window out of the full audio
type Splitter interface {
	Split(ctx context.Context, sourcePath string, seg Segment, outputPath string) error
}

// Filter runs vocal isolation on one segment file and returns the path it wrote.
// The output keeps the input's file name inside outputDir.
type Filter interface {
	Filter(ctx context.Context, segmentPath, outputDir string) (string, error)
}

// Merger joins filtered segments into one audio file using graph
type Merger interface {
	Merge(ctx context.Context, graph FilterGraph, segmentPaths []string, outputPath string) error
}

// Muxer combines the source video with the isolated audio track
type Muxer interface {
	Mux(ctx context.Context, videoPath, audioPath, outputPath string) error
}

// Workspace owns the output and intermediate directories of one run
type Workspace interface {
	Exists(path string) bool
	EnsureDir(path string) error
	RemoveFile(path string) error
	RemoveAll(path string) error
}
