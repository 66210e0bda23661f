package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/taskquery"
)

// TaskHandler handles task CRUD, listing and stats requests.
type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks *service.TaskService, log *slog.Logger) *TaskHandler {
	if log == nil {
		log = slog.Default()
	}

	return &TaskHandler{
		tasks:  tasks,
		logger: log.With(slog.String("component", "task_handler")),
	}
}

// List handles GET /api/tasks. Filter, sort and page-size parameters are
// passed through as raw strings; compilation and validation happen in one
// place so every invalid field is reported, not just the first.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := taskquery.Params{
		Limit:        q.Get("limit"),
		Status:       q.Get("status"),
		AssigneeID:   q.Get("assignee_id"),
		CreatedByID:  q.Get("created_by_id"),
		DeadlineFrom: q.Get("deadline_from"),
		DeadlineTo:   q.Get("deadline_to"),
		Search:       q.Get("search"),
		SortBy:       q.Get("sort_by"),
		SortOrder:    q.Get("sort_order"),
	}

	page, err := h.tasks.List(r.Context(), params, q.Get("cursor"))
	if err != nil {
		if fields := QueryFieldDetails(err); fields != nil {
			shared.RespondWithFieldErrors(w, r,
				http.StatusBadRequest, GetSafeErrorMessage(err), fields)
			return
		}
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	resp := TaskPageResponse{
		Items:   newTaskResponses(page.Items),
		HasMore: page.HasMore,
	}
	if page.NextCursor != "" {
		resp.NextCursor = &page.NextCursor
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, resp, "")
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := h.tasks.Create(r.Context(), service.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TaskStatus(req.Status),
		Deadline:    req.Deadline,
		AssigneeID:  req.AssigneeID,
	}, userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task create handled", slog.String("task_id", task.Task.ID.String()))

	shared.RespondWithSuccess(w, r, http.StatusCreated, newTaskResponse(task), "")
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseIDParam(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	task, err := h.tasks.Get(r.Context(), taskID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, newTaskResponse(task), "")
}

// UpdateStatus handles PATCH /api/tasks/{id}/status.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	taskID, err := parseIDParam(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	var req UpdateTaskStatusRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := h.tasks.UpdateStatus(r.Context(), taskID, domain.TaskStatus(req.Status), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, newTaskResponse(task), "")
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	taskID, err := parseIDParam(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	if err := h.tasks.Delete(r.Context(), taskID, userID); err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, nil, "Task deleted")
}

// Stats handles GET /api/tasks/stats/summary.
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.tasks.Stats(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, StatsResponse{
		Total:      counts.Total,
		Todo:       counts.Todo,
		InProgress: counts.InProgress,
		Done:       counts.Done,
	}, "")
}

// parseIDParam extracts and parses the {id} URL parameter.
func parseIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		return uuid.Nil, errors.New("missing id parameter")
	}
	return uuid.Parse(raw)
}
