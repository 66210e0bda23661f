// Package service implements the application's use cases on top of the
// store interfaces.
package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/phrazzld/taskflow-api/internal/taskquery"
)

// TaskPage is one page of a keyset traversal.
// NextCursor is empty only when the page itself is empty; a non-empty final
// page still carries a cursor, which simply yields an empty page when used.
type TaskPage struct {
	Items      []*store.TaskWithUsers
	HasMore    bool
	NextCursor string
}

// TaskService coordinates task reads and writes. Listing implements keyset
// pagination: filters and cursor are compiled once per request, the store is
// asked for one row more than the page size, and the surplus row (if any)
// proves that further pages exist. Mutations run their read-check-write
// sequence inside a single transaction.
type TaskService struct {
	db     *sql.DB
	tasks  store.TaskStore
	users  store.UserStore
	logger *slog.Logger
}

// NewTaskService creates a new TaskService. The database handle scopes
// multi-step mutations to one transaction.
func NewTaskService(
	db *sql.DB,
	tasks store.TaskStore,
	users store.UserStore,
	log *slog.Logger,
) *TaskService {
	if log == nil {
		log = slog.Default()
	}

	return &TaskService{
		db:     db,
		tasks:  tasks,
		users:  users,
		logger: log.With(slog.String("component", "task_service")),
	}
}

// List executes one page of a filtered keyset scan.
// Returns taskquery.ErrInvalidQuery (with field detail) for bad parameters
// and taskquery.ErrInvalidCursor for a malformed pagination token.
// The traversal is snapshot-less: concurrent writes ahead of the cursor can
// surface or hide rows between two fetches of the same traversal.
func (s *TaskService) List(
	ctx context.Context,
	params taskquery.Params,
	cursorToken string,
) (*TaskPage, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	spec, err := taskquery.Compile(params)
	if err != nil {
		return nil, err
	}

	var cursor *taskquery.Cursor
	if cursorToken != "" {
		cursor, err = taskquery.DecodeCursor(cursorToken)
		if err != nil {
			return nil, err
		}
	}

	// Fetch one row beyond the page size: its presence is the has_more signal.
	rows, err := s.tasks.List(ctx, spec, cursor, spec.Limit+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(rows) > spec.Limit
	if hasMore {
		rows = rows[:spec.Limit]
	}

	page := &TaskPage{
		Items:   rows,
		HasMore: hasMore,
	}

	if len(rows) > 0 {
		last := rows[len(rows)-1].Task
		page.NextCursor = taskquery.EncodeCursor(sortValueOf(&last, spec.SortBy), last.ID)
	}

	log.Debug("listed task page",
		slog.Int("count", len(rows)),
		slog.Bool("has_more", hasMore))
	return page, nil
}

// sortValueOf extracts the task's value for the given sort field.
func sortValueOf(task *domain.Task, field taskquery.SortField) time.Time {
	if field == taskquery.SortByCreatedAt {
		return task.CreatedAt
	}
	return task.Deadline
}

// CreateTaskParams carries the attributes of a task to be created.
type CreateTaskParams struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	Deadline    time.Time
	AssigneeID  uuid.UUID
}

// Create validates and persists a new task on behalf of the acting user.
// Returns store.ErrUserNotFound when the assignee does not exist.
func (s *TaskService) Create(
	ctx context.Context,
	params CreateTaskParams,
	actingUserID uuid.UUID,
) (*store.TaskWithUsers, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(
		params.Title,
		params.Description,
		params.Status,
		params.Deadline,
		params.AssigneeID,
		actingUserID,
	)
	if err != nil {
		return nil, err
	}

	var created *store.TaskWithUsers
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.tasks.WithTx(tx)

		// Resolve the assignee inside the transaction so a dangling
		// reference reads as a missing user, not as a generic constraint
		// violation, and cannot be deleted between the check and the insert.
		if _, err := s.users.WithTx(tx).GetByID(ctx, params.AssigneeID); err != nil {
			return err
		}

		if err := tasks.Create(ctx, task); err != nil {
			return err
		}

		var err error
		created, err = tasks.GetByID(ctx, task.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("created_by_id", actingUserID.String()))

	return created, nil
}

// Get retrieves a task decorated with its assignee and creator.
func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (*store.TaskWithUsers, error) {
	return s.tasks.GetByID(ctx, id)
}

// UpdateStatus changes a task's status on behalf of the acting user.
// Only the task's creator or assignee may do so; anyone else gets
// domain.ErrNotTaskParticipant.
func (s *TaskService) UpdateStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status domain.TaskStatus,
	actingUserID uuid.UUID,
) (*store.TaskWithUsers, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// The participant check and the write share a transaction so the guard
	// cannot race a concurrent reassignment.
	var updated *store.TaskWithUsers
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.tasks.WithTx(tx)

		current, err := tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}

		if !current.Task.IsParticipant(actingUserID) {
			log.Warn("status update rejected: user is not a participant",
				slog.String("task_id", taskID.String()),
				slog.String("user_id", actingUserID.String()))
			return domain.ErrNotTaskParticipant
		}

		if err := tasks.UpdateStatus(ctx, taskID, status); err != nil {
			return err
		}

		updated, err = tasks.GetByID(ctx, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info("task status updated",
		slog.String("task_id", taskID.String()),
		slog.String("status", string(status)),
		slog.String("user_id", actingUserID.String()))

	return updated, nil
}

// Delete removes a task on behalf of the acting user.
// Only the task's creator or assignee may do so.
func (s *TaskService) Delete(
	ctx context.Context,
	taskID uuid.UUID,
	actingUserID uuid.UUID,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.tasks.WithTx(tx)

		current, err := tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}

		if !current.Task.IsParticipant(actingUserID) {
			log.Warn("delete rejected: user is not a participant",
				slog.String("task_id", taskID.String()),
				slog.String("user_id", actingUserID.String()))
			return domain.ErrNotTaskParticipant
		}

		return tasks.Delete(ctx, taskID)
	})
	if err != nil {
		return err
	}

	log.Info("task deleted",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", actingUserID.String()))
	return nil
}

// Stats aggregates task counts grouped by status.
func (s *TaskService) Stats(ctx context.Context) (*store.StatusCounts, error) {
	return s.tasks.CountByStatus(ctx)
}
