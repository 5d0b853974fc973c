package api

import (
	"log/slog"
	"net/http"

	"github.com/praaatap/vibeedit-backend/internal/api/shared"
	"github.com/praaatap/vibeedit-backend/internal/platform/logger"
	"github.com/praaatap/vibeedit-backend/internal/service"
)

// AnalysisHandler handles AI analysis HTTP requests: transcript analysis,
// emotion detection, clip suggestion, and provider discovery.
type AnalysisHandler struct {
	// analysisService is nil when no AI provider is configured; the
	// submission endpoints then answer 503.
	analysisService service.AnalysisService
	logger          *slog.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler. analysisService may be
// nil for deployments without an AI provider.
func NewAnalysisHandler(analysisService service.AnalysisService, logger *slog.Logger) *AnalysisHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AnalysisHandler")
	}

	return &AnalysisHandler{
		analysisService: analysisService,
		logger:          logger.With(slog.String("component", "analysis_handler")),
	}
}

// available writes a 503 response and returns false when no AI provider is
// configured.
func (h *AnalysisHandler) available(w http.ResponseWriter, r *http.Request) bool {
	if h.analysisService == nil {
		HandleAPIError(w, r, service.ErrNoProvider, "")
		return false
	}
	return true
}

// Analyze handles POST /ai/analyze requests, scheduling clip suggestion
// over a transcript the client already has.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if !h.available(w, r) {
		return
	}

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req AnalyzeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	taskID, err := h.analysisService.SubmitAnalyze(r.Context(), userID, req.analysisRequest())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule analysis")
		return
	}

	log.Debug("analysis scheduled",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", userID.String()))

	respondSubmitted(w, r, taskID)
}

// Emotions handles POST /ai/emotions requests, scheduling per-segment
// emotion detection over a transcript.
func (h *AnalysisHandler) Emotions(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if !h.available(w, r) {
		return
	}

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req EmotionsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	taskID, err := h.analysisService.SubmitEmotions(
		r.Context(), userID, req.Transcript, req.IncludeTimestamps)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule emotion detection")
		return
	}

	respondSubmitted(w, r, taskID)
}

// Clips handles POST /ai/clips requests. With a transcript in the body the
// analysis runs directly; with only a video_id the video's audio is
// extracted and transcribed first, which requires a transcription backend.
func (h *AnalysisHandler) Clips(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if !h.available(w, r) {
		return
	}

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req ClipsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	taskID, err := h.analysisService.SubmitClips(
		r.Context(), userID, req.VideoID, req.analysisRequest())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to schedule clip suggestion")
		return
	}

	log.Debug("clip suggestion scheduled",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", userID.String()))

	respondSubmitted(w, r, taskID)
}

// Providers handles GET /ai/providers requests, reporting which AI backends
// this deployment runs with.
func (h *AnalysisHandler) Providers(w http.ResponseWriter, r *http.Request) {
	resp := ProviderResponse{Provider: "none"}
	if h.analysisService != nil {
		resp.Provider = h.analysisService.Provider()
		resp.Transcription = h.analysisService.Transcription()
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
