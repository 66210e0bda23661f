package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// UserHandler handles user directory requests.
type UserHandler struct {
	userStore store.UserStore
	logger    *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userStore store.UserStore, log *slog.Logger) *UserHandler {
	if log == nil {
		log = slog.Default()
	}

	return &UserHandler{
		userStore: userStore,
		logger:    log.With(slog.String("component", "user_handler")),
	}
}

// List handles GET /api/users. Returns the full directory ordered by
// display name; assignment pickers need all users at once.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userStore.List(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, out, "")
}

// Me handles GET /api/users/me, returning the authenticated user's profile.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.userStore.GetByID(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, newUserResponse(user), "")
}

// DeleteMe handles DELETE /api/users/me. Account deletion is refused with a
// conflict while any task still references the user as creator or assignee.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.userStore.Delete(r.Context(), userID); err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, nil, "Account deleted")
}
