// Package api provides HTTP handlers for the API.
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/praaatap/vibeedit-backend/internal/api/shared"
	"github.com/praaatap/vibeedit-backend/internal/platform/logger"
	"github.com/praaatap/vibeedit-backend/internal/service"
)

// uploadMemoryLimit caps how much of a multipart upload is buffered in
// memory before spilling to a temp file.
const uploadMemoryLimit = 32 << 20 // 32 MiB

// VideoHandler handles video library HTTP requests: upload, metadata,
// listing, the editing pipeline, and source download.
type VideoHandler struct {
	videoService service.VideoService
	logger       *slog.Logger
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(videoService service.VideoService, logger *slog.Logger) *VideoHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for VideoHandler")
	}

	return &VideoHandler{
		videoService: videoService,
		logger:       logger.With(slog.String("component", "video_handler")),
	}
}

// Upload handles POST /videos requests. The body is a multipart form with a
// "file" part and an optional "title" field. The response carries the stored
// video and the id of the probe task that fills in duration and dimensions.
func (h *VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "A video file is required")
		return
	}
	defer func() { _ = file.Close() }()

	title := r.FormValue("title")
	contentType := header.Header.Get("Content-Type")

	video, probeTaskID, err := h.videoService.Upload(
		r.Context(), userID, title, header.Filename, contentType, file)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to upload video")
		return
	}

	log.Info("video uploaded",
		slog.String("video_id", video.ID.String()),
		slog.String("user_id", userID.String()),
		slog.Int64("size_bytes", video.SizeBytes))

	shared.RespondWithJSON(w, r, http.StatusCreated, UploadResponse{
		Video:       video,
		ProbeTaskID: probeTaskID,
	})
}

// Get handles GET /videos/{id} requests.
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, videoID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	video, err := h.videoService.Get(r.Context(), userID, videoID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get video")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, video)
}

// List handles GET /videos requests, returning the caller's library newest
// first.
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	videos, err := h.videoService.List(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list videos")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, VideoListResponse{Videos: videos})
}

// Process handles POST /videos/{id}/process requests, scheduling a
// multi-step editing pipeline over the video.
func (h *VideoHandler) Process(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, videoID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req ProcessRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ops := make([]service.ProcessOp, 0, len(req.Operations))
	for _, op := range req.Operations {
		ops = append(ops, op.op())
	}

	taskID, err := h.videoService.SubmitProcess(r.Context(), userID, videoID, ops)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule processing")
		return
	}

	log.Info("processing scheduled",
		slog.String("video_id", videoID.String()),
		slog.String("task_id", taskID.String()),
		slog.Int("operations", len(ops)))

	respondSubmitted(w, r, taskID)
}

// Download handles GET /videos/{id}/download requests, streaming the
// original uploaded file. Rendered results are served by the task download
// endpoint instead.
func (h *VideoHandler) Download(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, videoID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	f, video, err := h.videoService.OpenSource(r.Context(), userID, videoID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to open video")
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", video.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", video.Filename))

	// ServeContent picks up range requests, which video players rely on.
	http.ServeContent(w, r, video.Filename, video.UpdatedAt, f)
}
