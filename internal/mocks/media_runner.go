package mocks

import (
	"context"
	"os"
	"sync"

	"github.com/praaatap/vibeedit-backend/internal/platform/ffmpeg"
	"github.com/praaatap/vibeedit-backend/internal/service"
)

// MockMediaRunner implements service.MediaRunner for testing render
// submissions without ffmpeg installed.
//
// Every Run invocation is recorded. By default Run succeeds and, when
// WriteOutputs is set, creates an empty file at the invocation's final
// argument so later stages and downloads find their input on disk. Probe
// returns ProbeResult. Runs happen on scheduler workers, so all state is
// mutex-guarded.
type MockMediaRunner struct {
	RunFn   func(ctx context.Context, args []string) error
	ProbeFn func(ctx context.Context, path string) (*ffmpeg.ProbeInfo, error)

	// WriteOutputs makes the default Run create the output file.
	WriteOutputs bool

	// ProbeResult is returned by the default Probe.
	ProbeResult ffmpeg.ProbeInfo

	mu       sync.Mutex
	runCalls [][]string
}

// Ensure MockMediaRunner implements service.MediaRunner
var _ service.MediaRunner = (*MockMediaRunner)(nil)

// NewMockMediaRunner creates a runner whose Probe reports a 10 second
// 1920x1080 mp4.
func NewMockMediaRunner() *MockMediaRunner {
	return &MockMediaRunner{
		ProbeResult: ffmpeg.ProbeInfo{
			DurationSeconds: 10,
			Width:           1920,
			Height:          1080,
			FormatName:      "mov,mp4,m4a,3gp,3g2,mj2",
			VideoCodec:      "h264",
			AudioCodec:      "aac",
		},
	}
}

// Run implements the service.MediaRunner interface
func (m *MockMediaRunner) Run(ctx context.Context, args []string) error {
	m.mu.Lock()
	m.runCalls = append(m.runCalls, append([]string(nil), args...))
	m.mu.Unlock()

	if m.RunFn != nil {
		return m.RunFn(ctx, args)
	}

	if m.WriteOutputs && len(args) > 0 {
		if err := os.WriteFile(args[len(args)-1], []byte("media"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// Probe implements the service.MediaRunner interface
func (m *MockMediaRunner) Probe(ctx context.Context, path string) (*ffmpeg.ProbeInfo, error) {
	if m.ProbeFn != nil {
		return m.ProbeFn(ctx, path)
	}

	info := m.ProbeResult
	return &info, nil
}

// RunCalls returns a copy of every recorded Run invocation, in order.
func (m *MockMediaRunner) RunCalls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([][]string, len(m.runCalls))
	copy(calls, m.runCalls)
	return calls
}
