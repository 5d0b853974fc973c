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

// presetDescriptions gives each filter preset a human-readable summary for
// the presets listing.
var presetDescriptions = map[string]string{
	"vibrant":  "Increased saturation and contrast",
	"muted":    "Soft, desaturated look",
	"warm":     "Warm, golden tones",
	"cool":     "Cool, blue tones",
	"dramatic": "High contrast, cinematic",
	"soft":     "Soft, dreamy look",
}

// EffectsHandler handles visual effect HTTP requests: speed, color filters,
// and geometric transforms. Each endpoint schedules a background render and
// answers 202 with the task id.
type EffectsHandler struct {
	videoService service.VideoService
	logger       *slog.Logger
}

// NewEffectsHandler creates a new EffectsHandler.
func NewEffectsHandler(videoService service.VideoService, logger *slog.Logger) *EffectsHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for EffectsHandler")
	}

	return &EffectsHandler{
		videoService: videoService,
		logger:       logger.With(slog.String("component", "effects_handler")),
	}
}

// Speed handles POST /effects/speed requests.
func (h *EffectsHandler) Speed(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req SpeedRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	taskID, err := h.videoService.SubmitSpeed(r.Context(), userID, req.VideoID, req.Speed)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule speed adjustment")
		return
	}

	respondSubmitted(w, r, taskID)
}

// Filter handles POST /effects/filter requests with custom color
// adjustments.
func (h *EffectsHandler) Filter(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req FilterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	taskID, err := h.videoService.SubmitFilter(r.Context(), userID, req.VideoID, req.params())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule filter")
		return
	}

	respondSubmitted(w, r, taskID)
}

// FilterPreset handles POST /effects/filter/preset requests.
func (h *EffectsHandler) FilterPreset(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req FilterPresetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	taskID, err := h.videoService.SubmitFilterPreset(r.Context(), userID, req.VideoID, req.Preset)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule filter preset")
		return
	}

	respondSubmitted(w, r, taskID)
}

// Transform handles POST /effects/transform requests combining crop,
// rotate, and flip in one render.
func (h *EffectsHandler) Transform(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req TransformRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	taskID, err := h.videoService.SubmitTransform(r.Context(), userID, req.VideoID, req.params())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule transform")
		return
	}

	respondSubmitted(w, r, taskID)
}

// Presets handles GET /effects/presets requests, listing the named color
// grades. The list follows the encoder's preset table so it never drifts
// from what a render accepts.
func (h *EffectsHandler) Presets(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(ffmpeg.FilterPresets))
	for name := range ffmpeg.FilterPresets {
		names = append(names, name)
	}
	sort.Strings(names)

	presets := make([]PresetInfo, 0, len(names))
	for _, name := range names {
		presets = append(presets, PresetInfo{
			Name:        name,
			Description: presetDescriptions[name],
		})
	}

	shared.RespondWithJSON(w, r, http.StatusOK, PresetsResponse{Presets: presets})
}
