// Package assistant resolves free-text task questions against the same
// filter and aggregation primitives the listing endpoint uses.
//
// Classification is a fixed, ordered keyword table, deliberately not a
// language model. Each rule maps to one filter specification or aggregate
// and renders a bounded narrative; anything unrecognized yields a help
// message, which is a successful response, not an error.
package assistant

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// modelUsed identifies the resolver implementation in reply metadata.
const modelUsed = "rule_based_parser"

// Reply is the outcome of resolving one free-text query.
type Reply struct {
	// Response is the rendered narrative.
	Response string

	// Tasks carries the fetched task list for list intents, nil otherwise.
	Tasks []*store.TaskWithUsers

	// QueryType names the intent that fired (e.g. "overdue_tasks").
	QueryType string

	// Metadata describes how the reply was produced.
	Metadata Metadata
}

// Metadata describes the resolution itself.
type Metadata struct {
	// ExecutionTime is the wall-clock resolution time in seconds.
	ExecutionTime float64 `json:"execution_time"`

	// ModelUsed identifies the classifier; always "rule_based_parser".
	ModelUsed string `json:"model_used"`
}

// Resolver classifies free-text queries and executes the matching intent.
type Resolver struct {
	tasks  store.TaskStore
	logger *slog.Logger
	now    func() time.Time // Injectable for testing
}

// NewResolver creates a new Resolver over the given task store.
func NewResolver(tasks store.TaskStore, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}

	return &Resolver{
		tasks:  tasks,
		logger: log.With(slog.String("component", "assistant_resolver")),
		now:    time.Now,
	}
}

// Resolve classifies the query against the ordered rule table and executes
// the first matching intent on behalf of the acting user.
// Returns ErrEmptyQuery for blank input; never fails on well-formed text,
// since unrecognized queries resolve to the "unknown" intent with a help message.
// Store failures propagate unchanged (store.ErrUnavailable).
func (r *Resolver) Resolve(
	ctx context.Context,
	query string,
	actingUserID uuid.UUID,
) (*Reply, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	started := r.now()
	normalized := strings.ToLower(query)

	queryType := QueryTypeUnknown
	narrative := helpNarrative
	var tasks []*store.TaskWithUsers

	for _, rule := range rules {
		if !rule.match(normalized) {
			continue
		}

		text, fetched, err := rule.run(ctx, r, actingUserID)
		if err != nil {
			log.Error("intent execution failed",
				slog.String("query_type", rule.queryType),
				slog.String("error", err.Error()))
			return nil, err
		}

		queryType = rule.queryType
		narrative = text
		tasks = fetched
		break
	}

	elapsed := r.now().Sub(started)

	log.Debug("resolved query",
		slog.String("query_type", queryType),
		slog.Int("task_count", len(tasks)),
		slog.Duration("elapsed", elapsed))

	return &Reply{
		Response:  narrative,
		Tasks:     tasks,
		QueryType: queryType,
		Metadata: Metadata{
			ExecutionTime: elapsed.Seconds(),
			ModelUsed:     modelUsed,
		},
	}, nil
}

// ExampleQueries returns sample inputs and usage tips for the resolver.
// Served by the examples endpoint so clients can present suggestions.
func ExampleQueries() (queries, tips []string) {
	queries = []string{
		"Show me all pending tasks",
		"How many tasks are completed?",
		"What tasks are due today?",
		"Show overdue tasks",
		"Show my tasks",
		"What tasks are in progress?",
		"List all tasks",
	}
	tips = []string{
		"Be specific in your questions",
		"Use keywords like 'show', 'list', 'how many', 'count'",
		"Mention task status: pending, completed, in progress, overdue",
		"Ask about deadlines: today, overdue, due soon",
	}
	return queries, tips
}
