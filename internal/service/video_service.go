package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/praaatap/vibeedit-backend/internal/domain"
	"github.com/praaatap/vibeedit-backend/internal/platform/ffmpeg"
	"github.com/praaatap/vibeedit-backend/internal/platform/logger"
	"github.com/praaatap/vibeedit-backend/internal/platform/storage"
	"github.com/praaatap/vibeedit-backend/internal/store"
	"github.com/praaatap/vibeedit-backend/internal/task"
)

// MediaRunner executes ffmpeg work on behalf of render tasks. Satisfied by
// *ffmpeg.Runner; tests substitute a fake so render submissions can be
// exercised without the binaries installed.
type MediaRunner interface {
	Run(ctx context.Context, args []string) error
	Probe(ctx context.Context, path string) (*ffmpeg.ProbeInfo, error)
}

// VideoService manages uploaded videos and submits every render operation on
// them as a background task. Submission methods validate their inputs up
// front and return the id of the scheduled task; the media work happens on
// the scheduler's workers with stage-by-stage progress.
type VideoService interface {
	// Upload stores the incoming video, persists its metadata, and schedules
	// a probe task that records duration and dimensions before marking the
	// video ready. Returns the video and the probe task id.
	Upload(ctx context.Context, ownerID uuid.UUID, title, filename, contentType string, r io.Reader) (*domain.Video, uuid.UUID, error)

	// Get retrieves a video owned by the given user.
	// Returns ErrVideoNotFound or ErrNotOwned.
	Get(ctx context.Context, ownerID, videoID uuid.UUID) (*domain.Video, error)

	// List retrieves all videos owned by the given user, newest first.
	List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Video, error)

	// OpenSource opens the stored source file of a video for streaming.
	// The caller closes the file.
	OpenSource(ctx context.Context, ownerID, videoID uuid.UUID) (*os.File, *domain.Video, error)

	// OpenResult opens the output artifact of a completed render task. For
	// batch exports, platform selects which artifact; it is ignored
	// otherwise. Returns the open file and its filename.
	OpenResult(ctx context.Context, ownerID, taskID uuid.UUID, platform string) (*os.File, string, error)

	// SubmitProcess schedules a chain of operations applied in order.
	SubmitProcess(ctx context.Context, ownerID, videoID uuid.UUID, ops []ProcessOp) (uuid.UUID, error)

	// SubmitSpeed schedules a playback speed change (0.25x to 4x).
	SubmitSpeed(ctx context.Context, ownerID, videoID uuid.UUID, speed float64) (uuid.UUID, error)

	// SubmitFilter schedules a color and sharpness adjustment.
	SubmitFilter(ctx context.Context, ownerID, videoID uuid.UUID, params ffmpeg.FilterParams) (uuid.UUID, error)

	// SubmitFilterPreset schedules a named filter preset.
	SubmitFilterPreset(ctx context.Context, ownerID, videoID uuid.UUID, preset string) (uuid.UUID, error)

	// SubmitTransform schedules crop, rotate, and flip operations, applied
	// in that order. At least one must be present.
	SubmitTransform(ctx context.Context, ownerID, videoID uuid.UUID, params TransformParams) (uuid.UUID, error)

	// SubmitAudioExtract schedules extraction of the audio track
	// (mp3, aac, wav, or flac).
	SubmitAudioExtract(ctx context.Context, ownerID, videoID uuid.UUID, format string) (uuid.UUID, error)

	// SubmitAudioVolume schedules a volume adjustment (0.0 to 3.0).
	SubmitAudioVolume(ctx context.Context, ownerID, videoID uuid.UUID, volume float64) (uuid.UUID, error)

	// SubmitAudioFade schedules audio fade in/out, in seconds.
	SubmitAudioFade(ctx context.Context, ownerID, videoID uuid.UUID, fadeIn, fadeOut float64) (uuid.UUID, error)

	// SubmitAudioRemove schedules muting of the video.
	SubmitAudioRemove(ctx context.Context, ownerID, videoID uuid.UUID) (uuid.UUID, error)

	// SubmitExport schedules an export at a format and quality tier.
	SubmitExport(ctx context.Context, ownerID, videoID uuid.UUID, params ExportParams) (uuid.UUID, error)

	// SubmitPlatformExport schedules an export sized and paced for a social
	// platform.
	SubmitPlatformExport(ctx context.Context, ownerID, videoID uuid.UUID, platform string) (uuid.UUID, error)

	// SubmitBatchExport schedules one task that exports for each platform in
	// turn.
	SubmitBatchExport(ctx context.Context, ownerID, videoID uuid.UUID, platforms []string) (uuid.UUID, error)

	// SubmitThumbnail schedules a single-frame grab.
	SubmitThumbnail(ctx context.Context, ownerID, videoID uuid.UUID, params ThumbnailParams) (uuid.UUID, error)

	// SubmitGIF schedules a two-pass animated GIF export.
	SubmitGIF(ctx context.Context, ownerID, videoID uuid.UUID, params GIFParams) (uuid.UUID, error)
}

// Common sentinel errors for VideoService
var (
	// ErrVideoNotFound indicates that the video does not exist
	ErrVideoNotFound = errors.New("video not found")

	// ErrVideoNotReady indicates the video's probe has not completed yet, so
	// render operations cannot run against it. API layer should map this to
	// HTTP 409 Conflict.
	ErrVideoNotReady = errors.New("video is not ready for processing")

	// ErrUnknownOperation indicates a processing chain step with an
	// unrecognized kind.
	ErrUnknownOperation = errors.New("unknown processing operation")

	// ErrNoOperations indicates a processing request with nothing to do.
	ErrNoOperations = errors.New("no operations requested")

	// ErrTaskNotFinished indicates a download was requested for a task that
	// has not completed. API layer should map this to HTTP 409 Conflict.
	ErrTaskNotFinished = errors.New("task has not completed")

	// ErrNoArtifact indicates a completed task has no downloadable output.
	ErrNoArtifact = errors.New("task produced no downloadable output")
)

// VideoServiceError wraps errors from the video service with context.
type VideoServiceError struct {
	// Operation is the operation that failed (e.g., "upload", "submit_export")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for VideoServiceError.
func (e *VideoServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("video service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("video service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *VideoServiceError) Unwrap() error {
	return e.Err
}

// NewVideoServiceError creates a new VideoServiceError.
// It returns known sentinel errors directly without wrapping, and maps
// store-level sentinels to their service-level equivalents.
func NewVideoServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrVideoNotFound) || errors.Is(err, ErrVideoNotReady) ||
		errors.Is(err, ErrNotOwned) || errors.Is(err, ErrNoOperations) {
		return err
	}

	if errors.Is(err, store.ErrVideoNotFound) {
		return ErrVideoNotFound
	}

	return &VideoServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// videoServiceImpl implements the VideoService interface
type videoServiceImpl struct {
	videos         store.VideoStore
	media          *storage.Store
	runner         MediaRunner
	scheduler      *task.Scheduler
	db             *sql.DB
	maxUploadBytes int64
	logger         *slog.Logger
}

// Ensure videoServiceImpl implements the VideoService interface
var _ VideoService = (*videoServiceImpl)(nil)

// NewVideoService creates a new VideoService.
// It returns an error if any of the required dependencies are nil.
// maxUploadBytes caps upload sizes; zero disables the cap.
func NewVideoService(
	videos store.VideoStore,
	media *storage.Store,
	runner MediaRunner,
	scheduler *task.Scheduler,
	db *sql.DB,
	maxUploadBytes int64,
	logger *slog.Logger,
) (VideoService, error) {
	if videos == nil {
		return nil, &VideoServiceError{Operation: "create_service", Message: "videos cannot be nil"}
	}
	if media == nil {
		return nil, &VideoServiceError{Operation: "create_service", Message: "media cannot be nil"}
	}
	if runner == nil {
		return nil, &VideoServiceError{Operation: "create_service", Message: "runner cannot be nil"}
	}
	if scheduler == nil {
		return nil, &VideoServiceError{Operation: "create_service", Message: "scheduler cannot be nil"}
	}
	if db == nil {
		return nil, &VideoServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &videoServiceImpl{
		videos:         videos,
		media:          media,
		runner:         runner,
		scheduler:      scheduler,
		db:             db,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "video_service")),
	}, nil
}

// Upload implements VideoService.Upload.
func (s *videoServiceImpl) Upload(
	ctx context.Context,
	ownerID uuid.UUID,
	title, filename, contentType string,
	r io.Reader,
) (*domain.Video, uuid.UUID, error) {
	if !domain.AllowedContentTypes[contentType] {
		return nil, uuid.Nil, NewVideoServiceError("upload",
			fmt.Sprintf("content type %q is not an accepted video type", contentType),
			domain.ErrUnsupportedContentType)
	}

	rel, size, err := s.media.SaveUpload(filename, r, s.maxUploadBytes)
	if err != nil {
		if errors.Is(err, storage.ErrFileTooLarge) {
			s.logger.Debug("upload rejected for size",
				"user_id", ownerID,
				"filename", logger.Sanitize(filename))
		} else {
			s.logger.Error("failed to store upload",
				"error", err,
				"user_id", ownerID)
		}
		return nil, uuid.Nil, NewVideoServiceError("upload", "failed to store upload", err)
	}

	video, err := domain.NewVideo(ownerID, title, filename, rel, contentType, size)
	if err != nil {
		s.discardUpload(rel)
		return nil, uuid.Nil, NewVideoServiceError("upload", "invalid video data", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.videos.WithTx(tx).Create(ctx, video)
	})
	if err != nil {
		s.logger.Error("failed to save video",
			"error", err,
			"video_id", video.ID,
			"user_id", ownerID)
		s.discardUpload(rel)
		return nil, uuid.Nil, NewVideoServiceError("upload", "failed to save video", err)
	}

	probeID, err := s.submitProbe(ctx, video)
	if err != nil {
		// The row and file are useless without probe metadata; undo both so
		// a retried upload starts clean.
		if derr := s.videos.Delete(ctx, video.ID); derr != nil {
			s.logger.Error("failed to remove video after probe submission failure",
				"error", derr,
				"video_id", video.ID)
		}
		s.discardUpload(rel)
		return nil, uuid.Nil, NewVideoServiceError("upload", "failed to schedule probe", err)
	}

	s.logger.Info("video uploaded",
		"video_id", video.ID,
		"user_id", ownerID,
		"size_bytes", size,
		"probe_task_id", probeID)

	return video, probeID, nil
}

// discardUpload removes a stored upload that will never be referenced.
func (s *videoServiceImpl) discardUpload(rel string) {
	if err := s.media.Remove(rel); err != nil {
		s.logger.Warn("failed to remove orphaned upload",
			"error", err,
			"path", rel)
	}
}

// submitProbe schedules the ffprobe task that records duration and
// dimensions and flips the video to ready. Probes run at high priority so
// fresh uploads become usable ahead of queued renders.
func (s *videoServiceImpl) submitProbe(ctx context.Context, video *domain.Video) (uuid.UUID, error) {
	videoID := video.ID
	storagePath := video.StoragePath

	work := func(ctx context.Context, p *task.Progress) (any, error) {
		abs, err := s.media.Abs(storagePath)
		if err != nil {
			return nil, err
		}

		p.Update(25, map[string]any{"stage": "probe"})
		info, err := s.runner.Probe(ctx, abs)
		if err != nil {
			return nil, err
		}

		p.Update(75, map[string]any{"stage": "record"})
		if err := s.videos.UpdateProbeInfo(ctx, videoID, info.DurationSeconds, info.Width, info.Height); err != nil {
			return nil, err
		}

		return map[string]any{
			"duration_seconds": info.DurationSeconds,
			"width":            info.Width,
			"height":           info.Height,
		}, nil
	}

	id, err := s.scheduler.Submit("video.probe", work,
		task.WithOwner(video.OwnerID.String()),
		task.WithPriority(task.PriorityHigh),
		task.WithMetadata(map[string]any{"video_id": videoID.String()}))
	if err != nil {
		return uuid.Nil, err
	}

	s.scheduler.OnComplete(id, func(snap task.Snapshot) error {
		if snap.Status == task.StatusFailed {
			s.logger.Warn("video probe failed; video stays unprocessable",
				"video_id", videoID,
				"task_id", snap.ID,
				"error", snap.Error)
		}
		return nil
	})

	return id, nil
}

// Get implements VideoService.Get.
func (s *videoServiceImpl) Get(ctx context.Context, ownerID, videoID uuid.UUID) (*domain.Video, error) {
	video, err := s.ownedVideo(ctx, ownerID, videoID)
	if err != nil {
		return nil, NewVideoServiceError("get", "failed to retrieve video", err)
	}
	return video, nil
}

// List implements VideoService.List.
func (s *videoServiceImpl) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Video, error) {
	videos, err := s.videos.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list videos",
			"error", err,
			"user_id", ownerID)
		return nil, NewVideoServiceError("list", "failed to list videos", err)
	}
	return videos, nil
}

// OpenSource implements VideoService.OpenSource.
func (s *videoServiceImpl) OpenSource(
	ctx context.Context,
	ownerID, videoID uuid.UUID,
) (*os.File, *domain.Video, error) {
	video, err := s.ownedVideo(ctx, ownerID, videoID)
	if err != nil {
		return nil, nil, NewVideoServiceError("open_source", "failed to retrieve video", err)
	}

	f, err := s.media.Open(video.StoragePath)
	if err != nil {
		s.logger.Error("stored video file missing",
			"error", err,
			"video_id", videoID,
			"path", video.StoragePath)
		return nil, nil, NewVideoServiceError("open_source", "failed to open stored file", err)
	}

	return f, video, nil
}

// OpenResult implements VideoService.OpenResult.
func (s *videoServiceImpl) OpenResult(
	ctx context.Context,
	ownerID, taskID uuid.UUID,
	platform string,
) (*os.File, string, error) {
	snap, err := s.scheduler.Status(taskID)
	if err != nil {
		return nil, "", err
	}
	if snap.Owner != ownerID.String() {
		return nil, "", ErrNotOwned
	}
	if snap.Status != task.StatusCompleted {
		return nil, "", fmt.Errorf("%w: status is %s", ErrTaskNotFinished, snap.Status)
	}

	rel := resultPath(snap.Result, platform)
	if rel == "" {
		return nil, "", ErrNoArtifact
	}

	f, err := s.media.Open(rel)
	if err != nil {
		s.logger.Error("task output file missing",
			"error", err,
			"task_id", taskID,
			"path", rel)
		return nil, "", NewVideoServiceError("open_result", "failed to open task output", err)
	}

	return f, filepath.Base(rel), nil
}

// resultPath digs the output path out of a completed task's result. Render
// tasks report {"output_path": ...}; batch exports report
// {"outputs": {platform: path}}.
func resultPath(result any, platform string) string {
	m, ok := result.(map[string]any)
	if !ok {
		return ""
	}

	if platform != "" {
		outputs, ok := m["outputs"].(map[string]string)
		if !ok {
			return ""
		}
		return outputs[platform]
	}

	rel, _ := m["output_path"].(string)
	return rel
}

// ownedVideo loads a video and verifies the requester owns it.
func (s *videoServiceImpl) ownedVideo(ctx context.Context, ownerID, videoID uuid.UUID) (*domain.Video, error) {
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
		s.logger.Debug("blocked access to another user's video",
			"video_id", videoID,
			"user_id", ownerID)
		return nil, ErrNotOwned
	}

	return video, nil
}

// readyVideo loads an owned video and requires its probe to have completed,
// since renders rely on the recorded duration and dimensions.
func (s *videoServiceImpl) readyVideo(ctx context.Context, ownerID, videoID uuid.UUID) (*domain.Video, error) {
	video, err := s.ownedVideo(ctx, ownerID, videoID)
	if err != nil {
		return nil, err
	}
	if video.Status != domain.VideoStatusReady {
		return nil, ErrVideoNotReady
	}
	return video, nil
}
