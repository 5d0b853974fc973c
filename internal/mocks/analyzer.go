package mocks

import (
	"context"
	"io"

	"github.com/praaatap/vibeedit-backend/internal/service"
)

// MockAnalyzer implements service.Analyzer for testing.
type MockAnalyzer struct {
	// ProviderName is returned by Name; defaults to "mock".
	ProviderName string

	AnalyzeTranscriptFn func(ctx context.Context, req service.AnalysisRequest) (*service.Analysis, error)
	DetectEmotionsFn    func(ctx context.Context, transcript string, includeTimestamps bool) (*service.EmotionReport, error)
	SuggestClipsFn      func(ctx context.Context, req service.AnalysisRequest) (*service.Analysis, error)

	// Analysis and Report are returned by the defaults when no Fn is set.
	Analysis *service.Analysis
	Report   *service.EmotionReport
	Err      error
}

// Ensure MockAnalyzer implements service.Analyzer
var _ service.Analyzer = (*MockAnalyzer)(nil)

// Name implements the service.Analyzer interface
func (m *MockAnalyzer) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// AnalyzeTranscript implements the service.Analyzer interface
func (m *MockAnalyzer) AnalyzeTranscript(
	ctx context.Context,
	req service.AnalysisRequest,
) (*service.Analysis, error) {
	if m.AnalyzeTranscriptFn != nil {
		return m.AnalyzeTranscriptFn(ctx, req)
	}
	return m.Analysis, m.Err
}

// DetectEmotions implements the service.Analyzer interface
func (m *MockAnalyzer) DetectEmotions(
	ctx context.Context,
	transcript string,
	includeTimestamps bool,
) (*service.EmotionReport, error) {
	if m.DetectEmotionsFn != nil {
		return m.DetectEmotionsFn(ctx, transcript, includeTimestamps)
	}
	return m.Report, m.Err
}

// SuggestClips implements the service.Analyzer interface
func (m *MockAnalyzer) SuggestClips(
	ctx context.Context,
	req service.AnalysisRequest,
) (*service.Analysis, error) {
	if m.SuggestClipsFn != nil {
		return m.SuggestClipsFn(ctx, req)
	}
	return m.Analysis, m.Err
}

// MockTranscriber implements service.Transcriber for testing.
type MockTranscriber struct {
	TranscribeFn func(ctx context.Context, audio io.Reader, filename string) (string, error)

	// Transcript and Err are returned by the default implementation.
	Transcript string
	Err        error
}

// Ensure MockTranscriber implements service.Transcriber
var _ service.Transcriber = (*MockTranscriber)(nil)

// Transcribe implements the service.Transcriber interface
func (m *MockTranscriber) Transcribe(
	ctx context.Context,
	audio io.Reader,
	filename string,
) (string, error) {
	if m.TranscribeFn != nil {
		return m.TranscribeFn(ctx, audio, filename)
	}
	return m.Transcript, m.Err
}
