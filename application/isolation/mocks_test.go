package isolation

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"media-processor/domain/isolation"
)

// --- Mock implementations for testing ---

// mockWorkspace implements isolation.Workspace in memory
type mockWorkspace struct {
	mu      sync.Mutex
	files   map[string]bool
	dirs    map[string]bool
	removed []string
	dirErr  error
}

func newMockWorkspace() *mockWorkspace {
	return &mockWorkspace{files: map[string]bool{}, dirs: map[string]bool{}}
}

func (m *mockWorkspace) add(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = true
}

func (m *mockWorkspace) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[path] || m.dirs[path]
}

func (m *mockWorkspace) EnsureDir(path string) error {
	if m.dirErr != nil {
		return m.dirErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[path] = true
	return nil
}

func (m *mockWorkspace) RemoveFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	m.removed = append(m.removed, path)
	return nil
}

func (m *mockWorkspace) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for f := range m.files {
		if f == path || filepath.Dir(f) == path {
			delete(m.files, f)
		}
	}
	delete(m.dirs, path)
	m.removed = append(m.removed, path)
	return nil
}

// mockSplitter implements isolation.Splitter
type mockSplitter struct {
	ws *mockWorkspace

	mu    sync.Mutex
	calls []isolation.Segment
}

func (m *mockSplitter) Split(ctx context.Context, sourcePath string, seg isolation.Segment, outputPath string) error {
	m.mu.Lock()
	m.calls = append(m.calls, seg)
	m.mu.Unlock()
	m.ws.add(outputPath)
	return nil
}

// mockFilter implements isolation.Filter. Chunks listed in fail return an
// error; chunks listed in skipWrite succeed without writing output.
type mockFilter struct {
	ws         *mockWorkspace
	fail       map[string]bool
	skipWrite  map[string]bool
	delay      time.Duration
	blockOnCtx bool

	mu       sync.Mutex
	active   int
	peak     int
	finished []string
}

func (m *mockFilter) Filter(ctx context.Context, segmentPath, outputDir string) (string, error) {
	m.mu.Lock()
	m.active++
	if m.active > m.peak {
		m.peak = m.active
	}
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.active--
		m.finished = append(m.finished, filepath.Base(segmentPath))
		m.mu.Unlock()
	}()

	name := filepath.Base(segmentPath)
	if m.fail[name] {
		return "", isolation.ToolFailure(isolation.StageFilter, "deep-filter", errors.New("exit status 1"))
	}
	if m.blockOnCtx {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(2 * time.Second):
		}
	} else if m.delay > 0 {
		time.Sleep(m.delay)
	}

	out := filepath.Join(outputDir, name)
	if !m.skipWrite[name] {
		m.ws.add(out)
	}
	return out, nil
}

// mockExtractor implements isolation.AudioExtractor
type mockExtractor struct {
	ws    *mockWorkspace
	err   error
	calls int
}

func (m *mockExtractor) ExtractAudio(ctx context.Context, videoPath, outputPath string) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.ws.add(outputPath)
	return nil
}

// mockProber implements isolation.DurationProber
type mockProber struct {
	duration float64
	err      error
}

func (m *mockProber) Duration(ctx context.Context, mediaPath string) (float64, error) {
	if m.err != nil {
		return -1, m.err
	}
	return m.duration, nil
}

// mockMerger implements isolation.Merger and isolation.Muxer
type mockMerger struct {
	ws       *mockWorkspace
	mergeErr error

	merges   int
	graph    isolation.FilterGraph
	paths    []string
	output   string
	muxes    int
	muxedOut string
}

func (m *mockMerger) Merge(ctx context.Context, graph isolation.FilterGraph, segmentPaths []string, outputPath string) error {
	m.merges++
	m.graph = graph
	m.paths = append([]string(nil), segmentPaths...)
	m.output = outputPath
	if m.mergeErr != nil {
		return m.mergeErr
	}
	m.ws.add(outputPath)
	return nil
}

func (m *mockMerger) Mux(ctx context.Context, videoPath, audioPath, outputPath string) error {
	m.muxes++
	m.muxedOut = outputPath
	m.ws.add(outputPath)
	return nil
}

// mockRecorder implements Recorder
type mockRecorder struct {
	mu       sync.Mutex
	stages   []string
	ok       int
	failed   int
	runErr   error
	runs     int
	duration float64
	workers  int
}

func (m *mockRecorder) ObserveStage(stage string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = append(m.stages, stage)
}

func (m *mockRecorder) SegmentDone(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.ok++
	} else {
		m.failed++
	}
}

func (m *mockRecorder) RunDone(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	m.runErr = err
}

func (m *mockRecorder) SetAudioDuration(seconds float64) { m.duration = seconds }
func (m *mockRecorder) SetWorkers(n int)                 { m.workers = n }
