package assistant

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/mocks"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/phrazzld/taskflow-api/internal/taskquery"
)

func stubTask(title string, status domain.TaskStatus, deadline time.Time, assignee string) *store.TaskWithUsers {
	return &store.TaskWithUsers{
		Task: domain.Task{
			ID:       uuid.New(),
			Title:    title,
			Status:   status,
			Deadline: deadline,
		},
		Assignee: domain.User{ID: uuid.New(), DisplayName: assignee},
	}
}

func stubTasks(n int) []*store.TaskWithUsers {
	tasks := make([]*store.TaskWithUsers, 0, n)
	for i := 0; i < n; i++ {
		tasks = append(tasks, stubTask(
			fmt.Sprintf("Task %d", i+1),
			domain.TaskStatusTodo,
			time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			"Alex"))
	}
	return tasks
}

func newTestResolver(taskStore *mocks.MockTaskStore, now time.Time) *Resolver {
	r := NewResolver(taskStore, nil)
	r.now = func() time.Time { return now }
	return r
}

func TestResolve_EmptyQuery(t *testing.T) {
	t.Parallel()

	r := NewResolver(&mocks.MockTaskStore{}, nil)

	for _, q := range []string{"", "   ", "\t\n"} {
		reply, err := r.Resolve(context.Background(), q, uuid.New())
		assert.Nil(t, reply)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}
}

func TestResolve_ClassifiesIntents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query     string
		queryType string
	}{
		{"Show me all pending tasks", QueryTypeListIncomplete},
		{"which tasks are INCOMPLETE?", QueryTypeListIncomplete},
		{"what's not done yet", QueryTypeListIncomplete},
		{"How many tasks are completed?", QueryTypeCountCompleted},
		{"count the finished ones", QueryTypeCountCompleted},
		{"What tasks are due today?", QueryTypeDueToday},
		{"show today's tasks", QueryTypeDueToday},
		{"Show overdue tasks", QueryTypeOverdue},
		{"anything past deadline?", QueryTypeOverdue},
		{"Show my tasks", QueryTypeMyTasks},
		{"what is assigned to me", QueryTypeMyTasks},
		{"What tasks are in progress?", QueryTypeInProgress},
		{"ongoing work", QueryTypeInProgress},
		{"List all tasks", QueryTypeAllSummary},
		{"what's the weather like?", QueryTypeUnknown},
		{"delete everything", QueryTypeUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			t.Parallel()

			taskStore := &mocks.MockTaskStore{
				ListFn: func(context.Context, *taskquery.FilterSpec, *taskquery.Cursor, int) ([]*store.TaskWithUsers, error) {
					return []*store.TaskWithUsers{}, nil
				},
			}
			r := newTestResolver(taskStore, time.Now())

			reply, err := r.Resolve(context.Background(), tc.query, uuid.New())

			require.NoError(t, err)
			assert.Equal(t, tc.queryType, reply.QueryType)
		})
	}
}

func TestResolve_FirstMatchWins(t *testing.T) {
	t.Parallel()

	// "pending" (list incomplete) outranks "overdue"; "overdue" outranks
	// "my tasks". Priority is positional in the rule table.
	tests := []struct {
		query     string
		queryType string
	}{
		{"show my pending tasks", QueryTypeListIncomplete},
		{"overdue tasks among my tasks", QueryTypeOverdue},
		{"how many of my done tasks", QueryTypeCountCompleted},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			t.Parallel()

			taskStore := &mocks.MockTaskStore{
				ListFn: func(context.Context, *taskquery.FilterSpec, *taskquery.Cursor, int) ([]*store.TaskWithUsers, error) {
					return []*store.TaskWithUsers{}, nil
				},
			}
			r := newTestResolver(taskStore, time.Now())

			reply, err := r.Resolve(context.Background(), tc.query, uuid.New())

			require.NoError(t, err)
			assert.Equal(t, tc.queryType, reply.QueryType)
		})
	}
}

func TestResolve_CountCompletedNarrative(t *testing.T) {
	t.Parallel()

	tests := []struct {
		count int
		want  string
	}{
		{0, "You have 0 completed tasks."},
		{1, "You have 1 completed task."},
		{3, "You have 3 completed tasks."},
	}

	for _, tc := range tests {
		taskStore := &mocks.MockTaskStore{
			CountMatchingFn: func(_ context.Context, spec *taskquery.FilterSpec) (int, error) {
				require.NotNil(t, spec.Status)
				assert.Equal(t, domain.TaskStatusDone, *spec.Status)
				return tc.count, nil
			},
		}
		r := newTestResolver(taskStore, time.Now())

		reply, err := r.Resolve(context.Background(), "how many tasks are completed?", uuid.New())

		require.NoError(t, err)
		assert.Equal(t, tc.want, reply.Response)
		assert.Nil(t, reply.Tasks, "count intents carry no task list")
	}
}

func TestResolve_IncompleteListTruncation(t *testing.T) {
	t.Parallel()

	t.Run("more fetched than listed", func(t *testing.T) {
		t.Parallel()

		taskStore := &mocks.MockTaskStore{
			ListFn: func(_ context.Context, spec *taskquery.FilterSpec, _ *taskquery.Cursor, limit int) ([]*store.TaskWithUsers, error) {
				require.NotNil(t, spec.ExcludeStatus)
				assert.Equal(t, domain.TaskStatusDone, *spec.ExcludeStatus)
				assert.Equal(t, 10, limit)
				return stubTasks(10), nil
			},
		}
		r := newTestResolver(taskStore, time.Now())

		reply, err := r.Resolve(context.Background(), "show pending tasks", uuid.New())

		require.NoError(t, err)
		assert.Contains(t, reply.Response, "I found 10 incomplete tasks.")
		assert.Contains(t, reply.Response, "1. Task 1 (Status: todo, Assignee: Alex)")
		assert.Contains(t, reply.Response, "5. Task 5 (Status: todo, Assignee: Alex)")
		assert.NotContains(t, reply.Response, "6. Task 6")
		assert.Contains(t, reply.Response, "... and 5 more.")
		assert.Len(t, reply.Tasks, 10, "full fetch is returned even when the narrative truncates")
	})

	t.Run("five or fewer listed in full", func(t *testing.T) {
		t.Parallel()

		taskStore := &mocks.MockTaskStore{
			ListFn: func(context.Context, *taskquery.FilterSpec, *taskquery.Cursor, int) ([]*store.TaskWithUsers, error) {
				return stubTasks(3), nil
			},
		}
		r := newTestResolver(taskStore, time.Now())

		reply, err := r.Resolve(context.Background(), "show pending tasks", uuid.New())

		require.NoError(t, err)
		assert.Contains(t, reply.Response, "I found 3 incomplete tasks.")
		assert.Contains(t, reply.Response, "3. Task 3")
		assert.NotContains(t, reply.Response, "more.")
	})

	t.Run("none found", func(t *testing.T) {
		t.Parallel()

		taskStore := &mocks.MockTaskStore{
			ListFn: func(context.Context, *taskquery.FilterSpec, *taskquery.Cursor, int) ([]*store.TaskWithUsers, error) {
				return []*store.TaskWithUsers{}, nil
			},
		}
		r := newTestResolver(taskStore, time.Now())

		reply, err := r.Resolve(context.Background(), "show pending tasks", uuid.New())

		require.NoError(t, err)
		assert.Equal(t, "I found 0 incomplete tasks. ", reply.Response)
	})
}

func TestResolve_DueTodayUsesUTCDayBounds(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 4, 15, 17, 30, 0, 0, time.UTC)

	var gotSpec *taskquery.FilterSpec
	taskStore := &mocks.MockTaskStore{
		ListFn: func(_ context.Context, spec *taskquery.FilterSpec, _ *taskquery.Cursor, _ int) ([]*store.TaskWithUsers, error) {
			gotSpec = spec
			return []*store.TaskWithUsers{
				stubTask("Standup notes", domain.TaskStatusTodo, now, "Sam"),
			}, nil
		},
	}
	r := newTestResolver(taskStore, now)

	reply, err := r.Resolve(context.Background(), "what is due today?", uuid.New())

	require.NoError(t, err)
	require.NotNil(t, gotSpec)
	assert.Equal(t, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), *gotSpec.DeadlineFrom)
	assert.Equal(t, time.Date(2026, 4, 16, 0, 0, 0, 0, time.UTC), *gotSpec.DeadlineLT)
	assert.Equal(t, "There is 1 task due today. Here they are:\n1. Standup notes (Assignee: Sam)\n",
		reply.Response)
}

func TestResolve_OverdueExcludesDoneAndUsesNow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC)

	var gotSpec *taskquery.FilterSpec
	taskStore := &mocks.MockTaskStore{
		ListFn: func(_ context.Context, spec *taskquery.FilterSpec, _ *taskquery.Cursor, _ int) ([]*store.TaskWithUsers, error) {
			gotSpec = spec
			return []*store.TaskWithUsers{
				stubTask("Renew cert", domain.TaskStatusTodo,
					time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), "Sam"),
			}, nil
		},
	}
	r := newTestResolver(taskStore, now)

	reply, err := r.Resolve(context.Background(), "show overdue tasks", uuid.New())

	require.NoError(t, err)
	require.NotNil(t, gotSpec)
	require.NotNil(t, gotSpec.ExcludeStatus)
	assert.Equal(t, domain.TaskStatusDone, *gotSpec.ExcludeStatus)
	assert.Equal(t, now, *gotSpec.DeadlineLT)
	assert.Equal(t,
		"You have 1 overdue task. Here they are:\n1. Renew cert (Deadline: 2026-04-10, Assignee: Sam)\n",
		reply.Response)
}

func TestResolve_MyTasksFiltersByActingUser(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	var gotSpec *taskquery.FilterSpec
	taskStore := &mocks.MockTaskStore{
		ListFn: func(_ context.Context, spec *taskquery.FilterSpec, _ *taskquery.Cursor, _ int) ([]*store.TaskWithUsers, error) {
			gotSpec = spec
			return stubTasks(7), nil
		},
	}
	r := newTestResolver(taskStore, time.Now())

	reply, err := r.Resolve(context.Background(), "show my tasks", userID)
	require.NoError(t, err)
	require.NotNil(t, gotSpec)
	require.NotNil(t, gotSpec.AssigneeID)
	assert.Equal(t, userID, *gotSpec.AssigneeID)
	assert.Contains(t, reply.Response, "You have 7 tasks assigned to you.")
	assert.Contains(t, reply.Response, "... and 2 more.")
}

func TestResolve_AllSummary(t *testing.T) {
	t.Parallel()

	taskStore := &mocks.MockTaskStore{
		CountByStatusFn: func(context.Context) (*store.StatusCounts, error) {
			return &store.StatusCounts{Total: 6, Todo: 3, InProgress: 2, Done: 1}, nil
		},
	}
	r := newTestResolver(taskStore, time.Now())

	reply, err := r.Resolve(context.Background(), "list all tasks", uuid.New())

	require.NoError(t, err)
	assert.Equal(t,
		"You have 6 tasks in total:\n- To Do: 3\n- In Progress: 2\n- Done: 1",
		reply.Response)
	assert.Nil(t, reply.Tasks)
}

func TestResolve_UnknownQueryGetsHelp(t *testing.T) {
	t.Parallel()

	r := newTestResolver(&mocks.MockTaskStore{}, time.Now())

	reply, err := r.Resolve(context.Background(), "make me a sandwich", uuid.New())

	require.NoError(t, err)
	assert.Equal(t, QueryTypeUnknown, reply.QueryType)
	assert.Contains(t, reply.Response, "I couldn't understand your query")
	assert.Contains(t, reply.Response, "'Show me all pending tasks'")
	assert.Nil(t, reply.Tasks)
}

func TestResolve_MetadataAlwaysPresent(t *testing.T) {
	t.Parallel()

	r := newTestResolver(&mocks.MockTaskStore{
		ListFn: func(context.Context, *taskquery.FilterSpec, *taskquery.Cursor, int) ([]*store.TaskWithUsers, error) {
			return []*store.TaskWithUsers{}, nil
		},
	}, time.Now())

	for _, q := range []string{"show pending tasks", "gibberish"} {
		reply, err := r.Resolve(context.Background(), q, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, "rule_based_parser", reply.Metadata.ModelUsed)
		assert.GreaterOrEqual(t, reply.Metadata.ExecutionTime, 0.0)
	}
}

func TestResolve_StoreFailurePropagates(t *testing.T) {
	t.Parallel()

	r := newTestResolver(&mocks.MockTaskStore{
		ListFn: func(context.Context, *taskquery.FilterSpec, *taskquery.Cursor, int) ([]*store.TaskWithUsers, error) {
			return nil, store.ErrUnavailable
		},
	}, time.Now())

	reply, err := r.Resolve(context.Background(), "show pending tasks", uuid.New())

	assert.Nil(t, reply)
	assert.ErrorIs(t, err, store.ErrUnavailable)
}
