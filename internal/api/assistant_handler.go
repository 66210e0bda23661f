package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/service/assistant"
)

// AssistantHandler handles natural-language task queries.
type AssistantHandler struct {
	resolver *assistant.Resolver
	logger   *slog.Logger
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(resolver *assistant.Resolver, log *slog.Logger) *AssistantHandler {
	if log == nil {
		log = slog.Default()
	}

	return &AssistantHandler{
		resolver: resolver,
		logger:   log.With(slog.String("component", "assistant_handler")),
	}
}

// Query handles POST /api/assistant/query. Unrecognized queries are a
// successful response carrying a help message, not an error; only blank
// input is rejected.
func (h *AssistantHandler) Query(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req AssistantQueryRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	reply, err := h.resolver.Resolve(r.Context(), req.Query, userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("assistant query handled",
		slog.String("query_type", reply.QueryType))

	resp := AssistantQueryResponse{
		Response:  reply.Response,
		QueryType: reply.QueryType,
		Metadata:  reply.Metadata,
	}
	// Count and summary intents carry no task list; keep tasks null there.
	if reply.Tasks != nil {
		resp.Tasks = newTaskResponses(reply.Tasks)
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, resp, "")
}

// Examples handles GET /api/assistant/examples.
func (h *AssistantHandler) Examples(w http.ResponseWriter, r *http.Request) {
	queries, tips := assistant.ExampleQueries()

	shared.RespondWithSuccess(w, r, http.StatusOK, ExamplesResponse{
		Queries: queries,
		Tips:    tips,
	}, "")
}
