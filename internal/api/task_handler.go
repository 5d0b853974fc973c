package api

import (
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/praaatap/vibeedit-backend/internal/api/shared"
	"github.com/praaatap/vibeedit-backend/internal/platform/logger"
	"github.com/praaatap/vibeedit-backend/internal/service"
	"github.com/praaatap/vibeedit-backend/internal/task"
)

// TaskHandler handles background task HTTP requests: status polling,
// listing, cancellation, and downloading rendered results.
type TaskHandler struct {
	scheduler    *task.Scheduler
	videoService service.VideoService
	logger       *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(
	scheduler *task.Scheduler,
	videoService service.VideoService,
	logger *slog.Logger,
) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		scheduler:    scheduler,
		videoService: videoService,
		logger:       logger.With(slog.String("component", "task_handler")),
	}
}

// Get handles GET /tasks/{id} requests. The snapshot carries status,
// progress, metadata, and the result once the task completes.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	snap, err := h.scheduler.Status(taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}
	if snap.Owner != userID.String() {
		HandleAPIError(w, r, service.ErrNotOwned, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, snap)
}

// List handles GET /tasks requests. An optional ?status= query narrows the
// listing to one lifecycle state.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var status task.Status
	if param := r.URL.Query().Get("status"); param != "" {
		status = task.Status(param)
		if !status.Valid() {
			shared.RespondWithError(w, r, http.StatusBadRequest,
				"Status must be one of: pending, running, completed, failed, cancelled")
			return
		}
	}

	tasks := make([]task.Snapshot, 0)
	for snap := range h.scheduler.ListForOwner(userID.String(), status) {
		tasks = append(tasks, snap)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: tasks})
}

// Cancel handles DELETE /tasks/{id} requests. Only pending tasks can be
// cancelled; running tasks keep their worker until they return.
func (h *TaskHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	snap, err := h.scheduler.Status(taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}
	if snap.Owner != userID.String() {
		HandleAPIError(w, r, service.ErrNotOwned, "")
		return
	}

	if !h.scheduler.Cancel(taskID) {
		shared.RespondWithError(w, r, http.StatusConflict, "Task can no longer be cancelled")
		return
	}

	log.Info("task cancelled by owner",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", userID.String()))

	snap, err = h.scheduler.Status(taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, snap)
}

// Download handles GET /tasks/{id}/download requests, streaming the file a
// completed task produced. Batch exports render one file per platform;
// ?platform= selects which one.
func (h *TaskHandler) Download(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	platform := r.URL.Query().Get("platform")

	f, filename, err := h.videoService.OpenResult(r.Context(), userID, taskID, platform)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to open task result")
		return
	}
	defer func() { _ = f.Close() }()

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	modTime := time.Time{}
	if info, err := f.Stat(); err == nil {
		modTime = info.ModTime()
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	http.ServeContent(w, r, filename, modTime, f)
}
