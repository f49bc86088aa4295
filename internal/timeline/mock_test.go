package timeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/book-expert/dub-service/internal/core"
	"github.com/book-expert/logger"
	"github.com/stretchr/testify/require"
)

var (
	errMockProbe   = errors.New("mock probe error")
	errMockStretch = errors.New("mock stretch error")
	errMockMix     = errors.New("mock mix error")
	errMockConcat  = errors.New("mock concat error")
)

// mockTranscoder models asset durations in memory so timing arithmetic can be
// verified without running an external transcoding engine.
type mockTranscoder struct {
	mu        sync.Mutex
	durations map[string]float64

	probeShouldFail   bool
	stretchShouldFail bool
	mixShouldFail     bool
	concatShouldFail  bool

	stretchStages [][]float64
	mixCalls      int
	mixOverlays   []core.Overlay
	concatCalls   int
	concatInputs  []string
}

func newMockTranscoder() *mockTranscoder {
	return &mockTranscoder{durations: make(map[string]float64)}
}

func (m *mockTranscoder) setDuration(path string, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.durations[path] = seconds
}

func (m *mockTranscoder) duration(path string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.durations[path]
}

func (m *mockTranscoder) ProbeDuration(_ context.Context, path string) (float64, error) {
	if m.probeShouldFail {
		return 0, errMockProbe
	}

	return m.duration(path), nil
}

func (m *mockTranscoder) TimeStretch(_ context.Context, inputPath, outputPath string, stages []float64) error {
	if m.stretchShouldFail {
		return errMockStretch
	}

	product := 1.0
	for _, stage := range stages {
		product *= stage
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stretchStages = append(m.stretchStages, stages)
	m.durations[outputPath] = m.durations[inputPath] / product

	return nil
}

func (m *mockTranscoder) PadTo(_ context.Context, inputPath, outputPath string, seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.durations[outputPath] = max(m.durations[inputPath], seconds)

	return nil
}

func (m *mockTranscoder) TrimTo(_ context.Context, inputPath, outputPath string, seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.durations[outputPath] = min(m.durations[inputPath], seconds)

	return nil
}

func (m *mockTranscoder) Silence(_ context.Context, outputPath string, seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.durations[outputPath] = seconds

	return nil
}

func (m *mockTranscoder) OverlayMix(_ context.Context, basePath, outputPath string, inputs []core.Overlay) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mixCalls++

	if m.mixShouldFail {
		return errMockMix
	}

	m.mixOverlays = append([]core.Overlay(nil), inputs...)
	m.durations[outputPath] = m.durations[basePath]

	return nil
}

func (m *mockTranscoder) Concat(_ context.Context, inputPaths []string, outputPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.concatCalls++

	if m.concatShouldFail {
		return errMockConcat
	}

	m.concatInputs = append([]string(nil), inputPaths...)

	total := 0.0
	for _, path := range inputPaths {
		total += m.durations[path]
	}

	m.durations[outputPath] = total

	return nil
}

func (m *mockTranscoder) ReplaceAudio(_ context.Context, _, _, outputPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.durations[outputPath] = 0

	return nil
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	testLogger, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	return testLogger
}
