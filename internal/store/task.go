package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/taskquery"
)

// TaskWithUsers pairs a task with its resolved assignee and creator.
// Listing and retrieval always decorate tasks this way so the API layer
// never issues follow-up user lookups.
type TaskWithUsers struct {
	Task      domain.Task
	Assignee  domain.User
	CreatedBy domain.User
}

// StatusCounts aggregates task counts grouped by status.
type StatusCounts struct {
	Total      int
	Todo       int
	InProgress int
	Done       int
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns ErrInvalidEntity if the assignee or creator does not exist
	// (foreign key violation).
	// Returns validation errors from the domain Task if data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID, decorated with its
	// assignee and creator.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*TaskWithUsers, error)

	// UpdateStatus changes only the status of an existing task and
	// refreshes its updated_at timestamp.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error

	// Delete removes a task from the store by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// List executes one page of a keyset scan: it applies the spec's
	// predicates, seeks past the cursor position when one is given, orders
	// by the spec's sort field (ties broken by ID in the scan direction)
	// and returns at most limit rows. The limit is passed explicitly so the
	// pagination engine can over-fetch by one row to detect further pages.
	// Returns ErrUnavailable on data access failure.
	List(
		ctx context.Context,
		spec *taskquery.FilterSpec,
		cursor *taskquery.Cursor,
		limit int,
	) ([]*TaskWithUsers, error)

	// CountMatching counts all tasks matching the spec's predicates,
	// ignoring its sort and limit. Used for aggregate intents that must not
	// be capped by the fetch limit.
	CountMatching(ctx context.Context, spec *taskquery.FilterSpec) (int, error)

	// CountByStatus returns task counts grouped by status in one round trip.
	CountByStatus(ctx context.Context) (*StatusCounts, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller.
	WithTx(tx *sql.Tx) TaskStore
}
