package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/phrazzld/taskflow-api/internal/taskquery"
)

// Query type identifiers reported back to the caller.
const (
	QueryTypeListIncomplete = "list_incomplete_tasks"
	QueryTypeCountCompleted = "count_completed_tasks"
	QueryTypeDueToday       = "tasks_due_today"
	QueryTypeOverdue        = "overdue_tasks"
	QueryTypeMyTasks        = "my_tasks"
	QueryTypeInProgress     = "tasks_in_progress"
	QueryTypeAllSummary     = "all_tasks"
	QueryTypeUnknown        = "unknown"
)

// fetchCap bounds how many tasks a list intent pulls from the store.
// Narratives derived from these fetches undercount sets larger than the
// cap; exact totals come from the count intents, which aggregate uncapped.
const fetchCap = 10

// rule is one entry of the ordered intent table. Rules are evaluated in
// slice order and the first match wins, so priority is positional and an
// input matching several triggers resolves to the earliest one.
type rule struct {
	queryType string
	match     func(query string) bool
	run       func(ctx context.Context, r *Resolver, userID uuid.UUID) (string, []*store.TaskWithUsers, error)
}

// rules is the fixed intent table, highest priority first.
var rules = []rule{
	{
		queryType: QueryTypeListIncomplete,
		match: func(q string) bool {
			return containsAny(q, "pending", "incomplete", "not completed", "not done", "todo")
		},
		run: runListIncomplete,
	},
	{
		queryType: QueryTypeCountCompleted,
		match: func(q string) bool {
			return containsAny(q, "how many", "count", "number of") &&
				containsAny(q, "completed", "done", "finished")
		},
		run: runCountCompleted,
	},
	{
		queryType: QueryTypeDueToday,
		match: func(q string) bool {
			return containsAny(q, "due today", "today's tasks", "deadline today")
		},
		run: runDueToday,
	},
	{
		queryType: QueryTypeOverdue,
		match: func(q string) bool {
			return containsAny(q, "overdue", "late", "past deadline")
		},
		run: runOverdue,
	},
	{
		queryType: QueryTypeMyTasks,
		match: func(q string) bool {
			return containsAny(q, "my tasks", "assigned to me", "my assignments")
		},
		run: runMyTasks,
	},
	{
		queryType: QueryTypeInProgress,
		match: func(q string) bool {
			return containsAny(q, "in progress", "ongoing")
		},
		run: runInProgress,
	},
	{
		queryType: QueryTypeAllSummary,
		match: func(q string) bool {
			return containsAny(q, "all tasks", "show all", "list all")
		},
		run: runAllSummary,
	},
}

// containsAny reports whether the query contains at least one of the given
// lowercase substrings.
func containsAny(query string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(query, kw) {
			return true
		}
	}
	return false
}

// listSpec is the shared base for the list intents: deadline-ascending so
// the most urgent tasks lead the narrative.
func listSpec() *taskquery.FilterSpec {
	return &taskquery.FilterSpec{
		SortBy:    taskquery.SortByDeadline,
		SortOrder: taskquery.SortAsc,
		Limit:     fetchCap,
	}
}

func runListIncomplete(
	ctx context.Context,
	r *Resolver,
	_ uuid.UUID,
) (string, []*store.TaskWithUsers, error) {
	done := domain.TaskStatusDone
	spec := listSpec()
	spec.ExcludeStatus = &done

	tasks, err := r.tasks.List(ctx, spec, nil, fetchCap)
	if err != nil {
		return "", nil, err
	}

	return renderIncomplete(tasks), tasks, nil
}

func runCountCompleted(
	ctx context.Context,
	r *Resolver,
	_ uuid.UUID,
) (string, []*store.TaskWithUsers, error) {
	done := domain.TaskStatusDone
	count, err := r.tasks.CountMatching(ctx, &taskquery.FilterSpec{Status: &done})
	if err != nil {
		return "", nil, err
	}

	return renderCountCompleted(count), nil, nil
}

func runDueToday(
	ctx context.Context,
	r *Resolver,
	_ uuid.UUID,
) (string, []*store.TaskWithUsers, error) {
	// "Today" is the current UTC calendar day; deadlines are compared in
	// UTC everywhere to keep day boundaries unambiguous.
	now := r.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	spec := listSpec()
	spec.DeadlineFrom = &dayStart
	spec.DeadlineLT = &dayEnd

	tasks, err := r.tasks.List(ctx, spec, nil, fetchCap)
	if err != nil {
		return "", nil, err
	}

	return renderDueToday(tasks), tasks, nil
}

func runOverdue(
	ctx context.Context,
	r *Resolver,
	_ uuid.UUID,
) (string, []*store.TaskWithUsers, error) {
	now := r.now().UTC()
	done := domain.TaskStatusDone

	spec := listSpec()
	spec.ExcludeStatus = &done
	spec.DeadlineLT = &now

	tasks, err := r.tasks.List(ctx, spec, nil, fetchCap)
	if err != nil {
		return "", nil, err
	}

	return renderOverdue(tasks), tasks, nil
}

func runMyTasks(
	ctx context.Context,
	r *Resolver,
	userID uuid.UUID,
) (string, []*store.TaskWithUsers, error) {
	spec := listSpec()
	spec.AssigneeID = &userID

	tasks, err := r.tasks.List(ctx, spec, nil, fetchCap)
	if err != nil {
		return "", nil, err
	}

	return renderMyTasks(tasks), tasks, nil
}

func runInProgress(
	ctx context.Context,
	r *Resolver,
	_ uuid.UUID,
) (string, []*store.TaskWithUsers, error) {
	inProgress := domain.TaskStatusInProgress
	spec := listSpec()
	spec.Status = &inProgress

	tasks, err := r.tasks.List(ctx, spec, nil, fetchCap)
	if err != nil {
		return "", nil, err
	}

	return renderInProgress(tasks), tasks, nil
}

func runAllSummary(
	ctx context.Context,
	r *Resolver,
	_ uuid.UUID,
) (string, []*store.TaskWithUsers, error) {
	counts, err := r.tasks.CountByStatus(ctx)
	if err != nil {
		return "", nil, err
	}

	return renderAllSummary(counts), nil, nil
}
