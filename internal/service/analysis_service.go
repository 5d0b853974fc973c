package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/praaatap/vibeedit-backend/internal/domain"
	"github.com/praaatap/vibeedit-backend/internal/platform/ffmpeg"
	"github.com/praaatap/vibeedit-backend/internal/platform/storage"
	"github.com/praaatap/vibeedit-backend/internal/store"
	"github.com/praaatap/vibeedit-backend/internal/task"
)

// AnalysisService submits language-model analysis of video transcripts as
// background tasks. Clip suggestion can start from a raw transcript or from
// an uploaded video, in which case the audio is extracted and transcribed
// first.
type AnalysisService interface {
	// Provider reports the name of the configured analysis provider.
	Provider() string

	// Transcription reports whether a transcription backend is configured.
	Transcription() bool

	// SubmitAnalyze schedules a transcript analysis.
	// Returns ErrEmptyTranscript if the request has no transcript.
	SubmitAnalyze(ctx context.Context, ownerID uuid.UUID, req AnalysisRequest) (uuid.UUID, error)

	// SubmitEmotions schedules emotion detection over a transcript.
	SubmitEmotions(ctx context.Context, ownerID uuid.UUID, transcript string, includeTimestamps bool) (uuid.UUID, error)

	// SubmitClips schedules clip suggestion. When the request carries a
	// transcript it is analyzed directly; otherwise videoID must identify a
	// ready video, whose audio is extracted and transcribed before analysis.
	SubmitClips(ctx context.Context, ownerID uuid.UUID, videoID *uuid.UUID, req AnalysisRequest) (uuid.UUID, error)
}

// ErrTranscriptionUnavailable indicates clip suggestion from a video was
// requested but no transcription backend is configured.
var ErrTranscriptionUnavailable = errors.New("no transcription backend configured")

// AnalysisServiceError wraps errors from the analysis service with context.
type AnalysisServiceError struct {
	// Operation is the operation that failed (e.g., "submit_analyze")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for AnalysisServiceError.
func (e *AnalysisServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("analysis service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *AnalysisServiceError) Unwrap() error {
	return e.Err
}

// NewAnalysisServiceError creates a new AnalysisServiceError.
// It returns known sentinel errors directly without wrapping, and maps
// store-level sentinels to their service-level equivalents.
func NewAnalysisServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrEmptyTranscript) || errors.Is(err, ErrTranscriptionUnavailable) ||
		errors.Is(err, ErrVideoNotFound) || errors.Is(err, ErrVideoNotReady) ||
		errors.Is(err, ErrNotOwned) {
		return err
	}

	if errors.Is(err, store.ErrVideoNotFound) {
		return ErrVideoNotFound
	}

	return &AnalysisServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// analysisServiceImpl implements the AnalysisService interface
type analysisServiceImpl struct {
	analyzer    Analyzer
	transcriber Transcriber
	videos      store.VideoStore
	media       *storage.Store
	runner      MediaRunner
	scheduler   *task.Scheduler
	logger      *slog.Logger
}

// Ensure analysisServiceImpl implements the AnalysisService interface
var _ AnalysisService = (*analysisServiceImpl)(nil)

// NewAnalysisService creates a new AnalysisService.
// It returns an error if any required dependency is nil. transcriber may be
// nil, in which case clip suggestion from a video is rejected with
// ErrTranscriptionUnavailable.
func NewAnalysisService(
	analyzer Analyzer,
	transcriber Transcriber,
	videos store.VideoStore,
	media *storage.Store,
	runner MediaRunner,
	scheduler *task.Scheduler,
	logger *slog.Logger,
) (AnalysisService, error) {
	if analyzer == nil {
		return nil, &AnalysisServiceError{Operation: "create_service", Message: "analyzer cannot be nil"}
	}
	if videos == nil {
		return nil, &AnalysisServiceError{Operation: "create_service", Message: "videos cannot be nil"}
	}
	if media == nil {
		return nil, &AnalysisServiceError{Operation: "create_service", Message: "media cannot be nil"}
	}
	if runner == nil {
		return nil, &AnalysisServiceError{Operation: "create_service", Message: "runner cannot be nil"}
	}
	if scheduler == nil {
		return nil, &AnalysisServiceError{Operation: "create_service", Message: "scheduler cannot be nil"}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &analysisServiceImpl{
		analyzer:    analyzer,
		transcriber: transcriber,
		videos:      videos,
		media:       media,
		runner:      runner,
		scheduler:   scheduler,
		logger:      logger.With(slog.String("component", "analysis_service")),
	}, nil
}

// Provider implements AnalysisService.Provider.
func (s *analysisServiceImpl) Provider() string {
	return s.analyzer.Name()
}

// Transcription implements AnalysisService.Transcription.
func (s *analysisServiceImpl) Transcription() bool {
	return s.transcriber != nil
}

// SubmitAnalyze implements AnalysisService.SubmitAnalyze.
func (s *analysisServiceImpl) SubmitAnalyze(
	ctx context.Context,
	ownerID uuid.UUID,
	req AnalysisRequest,
) (uuid.UUID, error) {
	const name = "ai.analyze"

	if req.Transcript == "" {
		return uuid.Nil, ErrEmptyTranscript
	}
	req = req.Normalize()

	work := func(ctx context.Context, p *task.Progress) (any, error) {
		p.Update(10, map[string]any{"stage": "analyze", "provider": s.analyzer.Name()})
		return s.analyzer.AnalyzeTranscript(ctx, req)
	}

	return s.submit(name, ownerID, work, map[string]any{
		"provider": s.analyzer.Name(),
		"platform": req.Platform,
		"tone":     req.Tone,
	})
}

// SubmitEmotions implements AnalysisService.SubmitEmotions.
func (s *analysisServiceImpl) SubmitEmotions(
	ctx context.Context,
	ownerID uuid.UUID,
	transcript string,
	includeTimestamps bool,
) (uuid.UUID, error) {
	const name = "ai.emotions"

	if transcript == "" {
		return uuid.Nil, ErrEmptyTranscript
	}

	work := func(ctx context.Context, p *task.Progress) (any, error) {
		p.Update(10, map[string]any{"stage": "detect_emotions", "provider": s.analyzer.Name()})
		return s.analyzer.DetectEmotions(ctx, transcript, includeTimestamps)
	}

	return s.submit(name, ownerID, work, map[string]any{
		"provider": s.analyzer.Name(),
	})
}

// SubmitClips implements AnalysisService.SubmitClips.
func (s *analysisServiceImpl) SubmitClips(
	ctx context.Context,
	ownerID uuid.UUID,
	videoID *uuid.UUID,
	req AnalysisRequest,
) (uuid.UUID, error) {
	const name = "ai.clips"

	req = req.Normalize()
	md := map[string]any{
		"provider": s.analyzer.Name(),
		"platform": req.Platform,
		"tone":     req.Tone,
	}

	if req.Transcript != "" {
		work := func(ctx context.Context, p *task.Progress) (any, error) {
			p.Update(10, map[string]any{"stage": "analyze", "provider": s.analyzer.Name()})
			analysis, err := s.analyzer.SuggestClips(ctx, req)
			if err != nil {
				return nil, err
			}
			return map[string]any{"analysis": analysis}, nil
		}
		return s.submit(name, ownerID, work, md)
	}

	if videoID == nil {
		return uuid.Nil, ErrEmptyTranscript
	}
	if s.transcriber == nil {
		return uuid.Nil, ErrTranscriptionUnavailable
	}

	video, err := s.readyVideo(ctx, ownerID, *videoID)
	if err != nil {
		return uuid.Nil, NewAnalysisServiceError(name, "failed to resolve video", err)
	}
	md["video_id"] = video.ID.String()

	return s.submit(name, ownerID, s.clipPipelineWork(video, req), md)
}

// clipPipelineWork builds the extract-transcribe-analyze work unit for clip
// suggestion from a video.
func (s *analysisServiceImpl) clipPipelineWork(video *domain.Video, req AnalysisRequest) task.WorkFunc {
	storagePath := video.StoragePath

	return func(ctx context.Context, p *task.Progress) (any, error) {
		input, err := s.media.Abs(storagePath)
		if err != nil {
			return nil, err
		}

		scratch, err := os.MkdirTemp("", "transcribe-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create scratch directory: %w", err)
		}
		defer func() { _ = os.RemoveAll(scratch) }()

		p.Update(5, map[string]any{"stage": "extract_audio"})
		audioPath := filepath.Join(scratch, "audio.mp3")
		args, err := ffmpeg.ExtractAudioArgs(input, audioPath, "mp3")
		if err != nil {
			return nil, err
		}
		if err := s.runner.Run(ctx, args); err != nil {
			return nil, fmt.Errorf("audio extraction failed: %w", err)
		}

		p.Update(35, map[string]any{"stage": "transcribe"})
		audio, err := os.Open(audioPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open extracted audio: %w", err)
		}
		transcript, err := s.transcriber.Transcribe(ctx, audio, filepath.Base(audioPath))
		_ = audio.Close()
		if err != nil {
			return nil, fmt.Errorf("transcription failed: %w", err)
		}

		p.Update(65, map[string]any{"stage": "analyze", "provider": s.analyzer.Name()})
		req.Transcript = transcript
		analysis, err := s.analyzer.SuggestClips(ctx, req)
		if err != nil {
			return nil, err
		}

		return map[string]any{
			"analysis":   analysis,
			"transcript": transcript,
		}, nil
	}
}

// submit schedules an analysis work unit with the standard decoration.
func (s *analysisServiceImpl) submit(
	name string,
	ownerID uuid.UUID,
	work task.WorkFunc,
	md map[string]any,
) (uuid.UUID, error) {
	id, err := s.scheduler.Submit(name, work,
		task.WithOwner(ownerID.String()),
		task.WithMetadata(md))
	if err != nil {
		return uuid.Nil, NewAnalysisServiceError(name, "failed to schedule task", err)
	}

	s.logger.Info("analysis task submitted",
		"task", name,
		"task_id", id,
		"provider", s.analyzer.Name())

	return id, nil
}

// readyVideo loads a video, verifies ownership, and requires its probe to
// have completed.
func (s *analysisServiceImpl) readyVideo(ctx context.Context, ownerID, videoID uuid.UUID) (*domain.Video, error) {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, store.ErrVideoNotFound) {
			return nil, ErrVideoNotFound
		}
		s.logger.Error("failed to retrieve video",
			"error", err,
			"video_id", videoID)
		return nil, err
	}

	if video.OwnerID != ownerID {
		s.logger.Debug("blocked analysis of another user's video",
			"video_id", videoID,
			"user_id", ownerID)
		return nil, ErrNotOwned
	}
	if video.Status != domain.VideoStatusReady {
		return nil, ErrVideoNotReady
	}

	return video, nil
}
