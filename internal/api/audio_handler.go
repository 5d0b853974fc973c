package api

import (
	"log/slog"
	"net/http"

	"github.com/praaatap/vibeedit-backend/internal/platform/logger"
	"github.com/praaatap/vibeedit-backend/internal/service"
)

// defaultAudioFormat is used by audio extraction when the request omits one.
const defaultAudioFormat = "mp3"

// AudioHandler handles audio track HTTP requests: extraction, volume,
// fades, and removal. Each endpoint schedules a background render and
// answers 202 with the task id.
type AudioHandler struct {
	videoService service.VideoService
	logger       *slog.Logger
}

// NewAudioHandler creates a new AudioHandler.
func NewAudioHandler(videoService service.VideoService, logger *slog.Logger) *AudioHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AudioHandler")
	}

	return &AudioHandler{
		videoService: videoService,
		logger:       logger.With(slog.String("component", "audio_handler")),
	}
}

// Extract handles POST /audio/extract requests, pulling the audio track out
// as mp3, aac, wav, or flac.
func (h *AudioHandler) Extract(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req AudioExtractRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	format := req.Format
	if format == "" {
		format = defaultAudioFormat
	}

	taskID, err := h.videoService.SubmitAudioExtract(r.Context(), userID, req.VideoID, format)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule audio extraction")
		return
	}

	respondSubmitted(w, r, taskID)
}

// Volume handles POST /audio/volume requests.
func (h *AudioHandler) Volume(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req AudioVolumeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	taskID, err := h.videoService.SubmitAudioVolume(r.Context(), userID, req.VideoID, req.Volume)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule volume adjustment")
		return
	}

	respondSubmitted(w, r, taskID)
}

// Fade handles POST /audio/fade requests.
func (h *AudioHandler) Fade(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req AudioFadeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	taskID, err := h.videoService.SubmitAudioFade(
		r.Context(), userID, req.VideoID, req.FadeIn, req.FadeOut)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule audio fade")
		return
	}

	respondSubmitted(w, r, taskID)
}

// Remove handles POST /audio/remove requests, producing a muted copy.
func (h *AudioHandler) Remove(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req AudioRemoveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	taskID, err := h.videoService.SubmitAudioRemove(r.Context(), userID, req.VideoID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule audio removal")
		return
	}

	respondSubmitted(w, r, taskID)
}
