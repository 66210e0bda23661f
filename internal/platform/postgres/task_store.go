package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/phrazzld/taskflow-api/internal/taskquery"
)

// taskColumns selects a task row decorated with its assignee and creator.
const taskColumns = `
	t.id, t.title, t.description, t.status, t.deadline,
	t.assignee_id, t.created_by_id, t.created_at, t.updated_at,
	a.id, a.email, a.username, a.display_name, a.created_at, a.updated_at,
	c.id, c.email, c.username, c.display_name, c.created_at, c.updated_at`

// taskJoins attaches the assignee and creator rows to each task.
const taskJoins = `
	FROM tasks t
	JOIN users a ON a.id = t.assignee_id
	JOIN users c ON c.id = t.created_by_id`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.TaskStore.Create
// It saves a new task to the database, handling domain validation.
// Returns store.ErrInvalidEntity if the assignee or creator doesn't exist
// (foreign key violation).
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (id, title, description, status, deadline,
			assignee_id, created_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Title,
		nullableText(task.Description),
		task.Status,
		task.Deadline,
		task.AssigneeID,
		task.CreatedByID,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during task creation",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()),
				slog.String("assignee_id", task.AssigneeID.String()))
			return fmt.Errorf("%w: assignee or creator does not exist",
				store.ErrInvalidEntity)
		}

		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("assignee_id", task.AssigneeID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// It retrieves a task by its unique ID, decorated with assignee and creator.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*store.TaskWithUsers, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := "SELECT" + taskColumns + taskJoins + " WHERE t.id = $1"

	row := s.db.QueryRowContext(ctx, query, id)
	task, err := scanTaskWithUsers(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	return task, nil
}

// UpdateStatus implements store.TaskStore.UpdateStatus
// It updates the status of an existing task and refreshes updated_at.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.TaskStatus,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.IsValid() {
		return domain.ErrInvalidTaskStatus
	}

	query := `
		UPDATE tasks
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update task status",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Info("task status updated successfully",
		slog.String("task_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// Delete implements store.TaskStore.Delete
// It removes a task from the store by its ID.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Info("task deleted successfully", slog.String("task_id", id.String()))
	return nil
}

// List implements store.TaskStore.List
// It executes one page of a keyset scan. The cursor, when present, becomes a
// strict tuple inequality on (sort column, id) in the scan direction, which
// keeps the traversal duplicate-free and gap-free when several tasks share a
// sort value.
func (s *PostgresTaskStore) List(
	ctx context.Context,
	spec *taskquery.FilterSpec,
	cursor *taskquery.Cursor,
	limit int,
) ([]*store.TaskWithUsers, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args := buildListSQL(spec, cursor, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var tasks []*store.TaskWithUsers
	for rows.Next() {
		task, err := scanTaskWithUsers(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("task", "list", "failed to scan row", MapError(err))
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "list", "row iteration failed", MapError(err))
	}

	if tasks == nil {
		tasks = []*store.TaskWithUsers{}
	}

	log.Debug("listed tasks",
		slog.Int("count", len(tasks)),
		slog.Bool("with_cursor", cursor != nil))
	return tasks, nil
}

// CountMatching implements store.TaskStore.CountMatching
// It counts every task matching the spec's predicates, ignoring sort and limit.
func (s *PostgresTaskStore) CountMatching(
	ctx context.Context,
	spec *taskquery.FilterSpec,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	b := newArgBinder()
	query := "SELECT count(*) FROM tasks t"
	if where := buildPredicates(spec, b); len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, b.args...).Scan(&count); err != nil {
		log.Error("failed to count tasks", slog.String("error", err.Error()))
		return 0, MapError(err)
	}

	return count, nil
}

// CountByStatus implements store.TaskStore.CountByStatus
// It aggregates task counts grouped by status in a single round trip.
func (s *PostgresTaskStore) CountByStatus(ctx context.Context) (*store.StatusCounts, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = 'todo'),
			count(*) FILTER (WHERE status = 'in_progress'),
			count(*) FILTER (WHERE status = 'done')
		FROM tasks
	`

	var counts store.StatusCounts
	err := s.db.QueryRowContext(ctx, query).Scan(
		&counts.Total,
		&counts.Todo,
		&counts.InProgress,
		&counts.Done,
	)
	if err != nil {
		log.Error("failed to count tasks by status", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return &counts, nil
}

// argBinder collects positional query arguments and hands out their
// placeholders, so predicate construction stays order-independent.
type argBinder struct {
	args []any
}

func newArgBinder() *argBinder {
	return &argBinder{}
}

// bind registers a query argument and returns its $n placeholder.
func (b *argBinder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// sortColumn maps a whitelisted sort field to its qualified column.
// The compiler guarantees the field is whitelisted; anything else is a
// programming error.
func sortColumn(field taskquery.SortField) string {
	switch field {
	case taskquery.SortByCreatedAt:
		return "t.created_at"
	default:
		return "t.deadline"
	}
}

// buildPredicates translates the filter spec into SQL predicates, appending
// their arguments to the binder. All predicates compose by AND; the search
// term alone expands to an OR over title and description.
func buildPredicates(spec *taskquery.FilterSpec, b *argBinder) []string {
	var where []string

	if spec == nil {
		return where
	}

	if spec.Status != nil {
		where = append(where, "t.status = "+b.bind(*spec.Status))
	}

	if spec.ExcludeStatus != nil {
		where = append(where, "t.status <> "+b.bind(*spec.ExcludeStatus))
	}

	if spec.AssigneeID != nil {
		where = append(where, "t.assignee_id = "+b.bind(*spec.AssigneeID))
	}

	if spec.CreatedByID != nil {
		where = append(where, "t.created_by_id = "+b.bind(*spec.CreatedByID))
	}

	if spec.DeadlineFrom != nil {
		where = append(where, "t.deadline >= "+b.bind(*spec.DeadlineFrom))
	}

	if spec.DeadlineTo != nil {
		where = append(where, "t.deadline <= "+b.bind(*spec.DeadlineTo))
	}

	if spec.DeadlineLT != nil {
		where = append(where, "t.deadline < "+b.bind(*spec.DeadlineLT))
	}

	if spec.Search != "" {
		pattern := "%" + escapeLikePattern(spec.Search) + "%"
		placeholder := b.bind(pattern)
		where = append(where, fmt.Sprintf(
			"(t.title ILIKE %s OR t.description ILIKE %s)", placeholder, placeholder))
	}

	return where
}

// buildListSQL assembles the full page query: filter predicates, the keyset
// seek predicate derived from the cursor, deterministic ordering on
// (sort column, id) and the row limit.
func buildListSQL(
	spec *taskquery.FilterSpec,
	cursor *taskquery.Cursor,
	limit int,
) (string, []any) {
	b := newArgBinder()
	where := buildPredicates(spec, b)

	col := sortColumn(spec.SortBy)
	direction := "ASC"
	comparator := ">"
	if spec.SortOrder == taskquery.SortDesc {
		direction = "DESC"
		comparator = "<"
	}

	if cursor != nil {
		where = append(where, fmt.Sprintf(
			"(%s, t.id) %s (%s, %s)",
			col, comparator, b.bind(cursor.SortValue), b.bind(cursor.ID)))
	}

	query := "SELECT" + taskColumns + taskJoins
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(
		" ORDER BY %s %s, t.id %s LIMIT %s",
		col, direction, direction, b.bind(limit))

	return query, b.args
}

// escapeLikePattern escapes the LIKE metacharacters in a search term so the
// term always matches literally.
func escapeLikePattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTaskWithUsers reads one decorated task row.
func scanTaskWithUsers(row rowScanner) (*store.TaskWithUsers, error) {
	var t store.TaskWithUsers
	var description sql.NullString
	var status string

	err := row.Scan(
		&t.Task.ID,
		&t.Task.Title,
		&description,
		&status,
		&t.Task.Deadline,
		&t.Task.AssigneeID,
		&t.Task.CreatedByID,
		&t.Task.CreatedAt,
		&t.Task.UpdatedAt,
		&t.Assignee.ID,
		&t.Assignee.Email,
		&t.Assignee.Username,
		&t.Assignee.DisplayName,
		&t.Assignee.CreatedAt,
		&t.Assignee.UpdatedAt,
		&t.CreatedBy.ID,
		&t.CreatedBy.Email,
		&t.CreatedBy.Username,
		&t.CreatedBy.DisplayName,
		&t.CreatedBy.CreatedAt,
		&t.CreatedBy.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Task.Description = description.String
	t.Task.Status = domain.TaskStatus(status)
	return &t, nil
}

// nullableText maps an empty string to SQL NULL.
func nullableText(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
