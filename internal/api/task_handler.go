// Package api exposes the task sync engine to a presentation layer over
// HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/knollbase/taskmirror/internal/api/shared"
	"github.com/knollbase/taskmirror/internal/task"
)

// RegisterTaskRequest seeds an optimistic record for a job that was just
// submitted to the job service.
type RegisterTaskRequest struct {
	TaskID   string         `json:"task_id"   validate:"required"`
	Name     string         `json:"name"`
	TaskType string         `json:"task_type"`
	Message  string         `json:"message"`
	Payload  map[string]any `json:"payload"`
}

// StartPollingRequest optionally overrides the poll interval.
type StartPollingRequest struct {
	IntervalMS int `json:"interval_ms" validate:"min=0"`
}

// ListTasksResponse is the payload for the task list endpoints.
type ListTasksResponse struct {
	Tasks       []task.Task `json:"tasks"`
	ActiveCount int         `json:"active_count"`
}

// StatusResponse reports the engine's observable flags.
type StatusResponse struct {
	Loading     bool              `json:"loading"`
	Polling     bool              `json:"polling"`
	DrawerOpen  bool              `json:"drawer_open"`
	ActiveCount int               `json:"active_count"`
	LastError   string            `json:"last_error,omitempty"`
	Summary     *task.ListSummary `json:"summary,omitempty"`
}

// DrawerResponse reports the drawer flag after a drawer mutation.
type DrawerResponse struct {
	DrawerOpen bool `json:"drawer_open"`
}

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	monitor   *task.Monitor
	validator *validator.Validate
	logger    *slog.Logger
}

// NewTaskHandler creates a TaskHandler around the given monitor.
func NewTaskHandler(monitor *task.Monitor, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		monitor:   monitor,
		validator: validator.New(),
		logger:    logger,
	}
}

// Routes mounts every task endpoint on the given router.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Get("/tasks", h.ListTasks)
	r.Post("/tasks", h.RegisterTask)
	r.Post("/tasks/refresh", h.RefreshAll)
	r.Post("/tasks/{id}/refresh", h.RefreshTask)
	r.Post("/tasks/{id}/cancel", h.CancelTask)
	r.Get("/status", h.GetStatus)
	r.Post("/polling/start", h.StartPolling)
	r.Post("/polling/stop", h.StopPolling)
	r.Post("/session/reset", h.ResetSession)
	r.Post("/drawer/open", h.OpenDrawer)
	r.Post("/drawer/close", h.CloseDrawer)
	r.Post("/drawer/toggle", h.ToggleDrawer)
}

// ListTasks handles GET /api/tasks. It reads the current registry without
// touching the remote service.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, ListTasksResponse{
		Tasks:       h.monitor.SortedTasks(),
		ActiveCount: h.monitor.ActiveCount(),
	})
}

// RefreshAll handles POST /api/tasks/refresh: a full-list refresh with
// optional filter params in the body, returning the reconciled registry.
// Remote failures are absorbed by the engine; the response still carries
// the (unchanged) registry and the failure shows up in GET /api/status.
func (h *TaskHandler) RefreshAll(w http.ResponseWriter, r *http.Request) {
	var params task.ListParams
	if r.ContentLength > 0 {
		if err := shared.DecodeJSON(r, &params); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
	}

	h.monitor.LoadTasks(r.Context(), params)

	shared.RespondWithJSON(w, r, http.StatusOK, ListTasksResponse{
		Tasks:       h.monitor.SortedTasks(),
		ActiveCount: h.monitor.ActiveCount(),
	})
}

// RegisterTask handles POST /api/tasks.
func (h *TaskHandler) RegisterTask(w http.ResponseWriter, r *http.Request) {
	var req RegisterTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	h.monitor.RegisterQueuedTask(task.QueuedTask{
		TaskID:   req.TaskID,
		Name:     req.Name,
		TaskType: req.TaskType,
		Message:  req.Message,
		Payload:  req.Payload,
	})

	record, ok := h.monitor.Task(req.TaskID)
	if !ok {
		h.logger.Error("registered task missing from registry", "task_id", req.TaskID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to register task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, record)
}

// RefreshTask handles POST /api/tasks/{id}/refresh and returns the record
// as known after the reconciliation attempt.
func (h *TaskHandler) RefreshTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.monitor.RefreshTask(r.Context(), id)

	record, ok := h.monitor.Task(id)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, record)
}

// CancelTask handles POST /api/tasks/{id}/cancel. The request is accepted
// regardless of the remote outcome; a rejection is surfaced through the
// engine's notifier and last-error slot rather than this response.
func (h *TaskHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.monitor.CancelTask(r.Context(), id)

	if record, ok := h.monitor.Task(id); ok {
		shared.RespondWithJSON(w, r, http.StatusAccepted, record)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, map[string]string{"task_id": id})
}

// GetStatus handles GET /api/status.
func (h *TaskHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Loading:     h.monitor.Loading(),
		Polling:     h.monitor.IsPolling(),
		DrawerOpen:  h.monitor.DrawerOpen(),
		ActiveCount: h.monitor.ActiveCount(),
		Summary:     h.monitor.Summary(),
	}
	if err := h.monitor.LastError(); err != nil {
		resp.LastError = err.Error()
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// StartPolling handles POST /api/polling/start.
func (h *TaskHandler) StartPolling(w http.ResponseWriter, r *http.Request) {
	var req StartPollingRequest
	if r.ContentLength > 0 {
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
		if err := h.validator.Struct(req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
			return
		}
	}

	h.monitor.StartPolling(time.Duration(req.IntervalMS) * time.Millisecond)
	w.WriteHeader(http.StatusNoContent)
}

// StopPolling handles POST /api/polling/stop.
func (h *TaskHandler) StopPolling(w http.ResponseWriter, r *http.Request) {
	h.monitor.StopPolling()
	w.WriteHeader(http.StatusNoContent)
}

// ResetSession handles POST /api/session/reset.
func (h *TaskHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	h.monitor.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// OpenDrawer handles POST /api/drawer/open.
func (h *TaskHandler) OpenDrawer(w http.ResponseWriter, r *http.Request) {
	h.monitor.OpenDrawer()
	shared.RespondWithJSON(w, r, http.StatusOK, DrawerResponse{DrawerOpen: true})
}

// CloseDrawer handles POST /api/drawer/close.
func (h *TaskHandler) CloseDrawer(w http.ResponseWriter, r *http.Request) {
	h.monitor.CloseDrawer()
	shared.RespondWithJSON(w, r, http.StatusOK, DrawerResponse{DrawerOpen: false})
}

// ToggleDrawer handles POST /api/drawer/toggle.
func (h *TaskHandler) ToggleDrawer(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, DrawerResponse{DrawerOpen: h.monitor.ToggleDrawer()})
}
