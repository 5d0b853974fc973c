package api

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/praaatap/vibeedit-backend/internal/api/shared"
	"github.com/praaatap/vibeedit-backend/internal/platform/ffmpeg"
	"github.com/praaatap/vibeedit-backend/internal/platform/logger"
	"github.com/praaatap/vibeedit-backend/internal/service"
)

// exportFormats describes the supported containers for the formats listing.
var exportFormats = []FormatInfo{
	{Format: "mp4", Description: "Most compatible format, great for web", Codec: "H.264"},
	{Format: "webm", Description: "Open format, smaller file size", Codec: "VP9"},
	{Format: "mov", Description: "Apple format, high quality", Codec: "H.264"},
	{Format: "gif", Description: "Animated images, limited colors", Codec: "GIF"},
}

// ExportHandler handles export HTTP requests: format/quality renders,
// platform-targeted renders, thumbnails, and GIFs. Each render endpoint
// schedules a background task and answers 202 with the task id.
type ExportHandler struct {
	videoService service.VideoService
	logger       *slog.Logger
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(videoService service.VideoService, logger *slog.Logger) *ExportHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ExportHandler")
	}

	return &ExportHandler{
		videoService: videoService,
		logger:       logger.With(slog.String("component", "export_handler")),
	}
}

// Export handles POST /export/video requests. Format defaults to mp4,
// quality to high.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req ExportRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	params := service.ExportParams{
		Format:  ffmpeg.FormatMP4,
		Quality: ffmpeg.QualityHigh,
		FPS:     req.FPS,
	}
	if req.Format != "" {
		params.Format = ffmpeg.Format(req.Format)
	}
	if req.Quality != "" {
		params.Quality = ffmpeg.Quality(req.Quality)
	}

	taskID, err := h.videoService.SubmitExport(r.Context(), userID, req.VideoID, params)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule export")
		return
	}

	respondSubmitted(w, r, taskID)
}

// Platform handles POST /export/platform requests, rendering to one social
// platform's specs.
func (h *ExportHandler) Platform(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req PlatformExportRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	taskID, err := h.videoService.SubmitPlatformExport(r.Context(), userID, req.VideoID, req.Platform)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule platform export")
		return
	}

	respondSubmitted(w, r, taskID)
}

// Batch handles POST /export/batch requests, rendering one video for
// several platforms inside a single task.
func (h *ExportHandler) Batch(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req BatchExportRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	taskID, err := h.videoService.SubmitBatchExport(r.Context(), userID, req.VideoID, req.Platforms)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule batch export")
		return
	}

	log.Info("batch export scheduled",
		slog.String("video_id", req.VideoID.String()),
		slog.String("task_id", taskID.String()),
		slog.Int("platforms", len(req.Platforms)))

	respondSubmitted(w, r, taskID)
}

// Thumbnail handles POST /export/thumbnail requests, extracting a single
// frame as JPEG.
func (h *ExportHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req ThumbnailRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	params := service.ThumbnailParams{
		Timestamp: req.Timestamp,
		Width:     req.Width,
		Height:    req.Height,
	}

	taskID, err := h.videoService.SubmitThumbnail(r.Context(), userID, req.VideoID, params)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule thumbnail extraction")
		return
	}

	respondSubmitted(w, r, taskID)
}

// GIF handles POST /export/gif requests, rendering an animated GIF with the
// two-pass palette pipeline.
func (h *ExportHandler) GIF(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req GIFRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	params := service.GIFParams{
		Width:     req.Width,
		FPS:       req.FPS,
		StartTime: req.StartTime,
		Duration:  req.Duration,
	}

	taskID, err := h.videoService.SubmitGIF(r.Context(), userID, req.VideoID, params)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule GIF export")
		return
	}

	respondSubmitted(w, r, taskID)
}

// Formats handles GET /export/formats requests.
func (h *ExportHandler) Formats(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, FormatsResponse{Formats: exportFormats})
}

// Platforms handles GET /export/platforms requests. The listing follows the
// encoder's platform table so it never drifts from what an export accepts.
func (h *ExportHandler) Platforms(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(ffmpeg.PlatformSpecs))
	for name := range ffmpeg.PlatformSpecs {
		names = append(names, name)
	}
	sort.Strings(names)

	platforms := make([]PlatformInfo, 0, len(names))
	for _, name := range names {
		spec := ffmpeg.PlatformSpecs[name]
		platforms = append(platforms, PlatformInfo{
			Platform:           name,
			Width:              spec.Width,
			Height:             spec.Height,
			FPS:                spec.FPS,
			MaxDurationSeconds: spec.MaxDurationSeconds,
			Bitrate:            spec.Bitrate,
		})
	}

	shared.RespondWithJSON(w, r, http.StatusOK, PlatformsResponse{Platforms: platforms})
}
