package service

import (
	"context"
	"fmt"
	"sort"
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

// fakeTaskRows emulates the store's keyset scan over an in-memory data set:
// it sorts by the spec's sort tuple, seeks strictly past the cursor and
// respects the limit, exactly as the SQL does.
func fakeTaskRows(data []*store.TaskWithUsers) func(
	ctx context.Context,
	spec *taskquery.FilterSpec,
	cursor *taskquery.Cursor,
	limit int,
) ([]*store.TaskWithUsers, error) {
	return func(
		_ context.Context,
		spec *taskquery.FilterSpec,
		cursor *taskquery.Cursor,
		limit int,
	) ([]*store.TaskWithUsers, error) {
		sortValue := func(t *store.TaskWithUsers) time.Time {
			if spec.SortBy == taskquery.SortByCreatedAt {
				return t.Task.CreatedAt
			}
			return t.Task.Deadline
		}

		asc := spec.SortOrder == taskquery.SortAsc

		rows := make([]*store.TaskWithUsers, len(data))
		copy(rows, data)
		sort.SliceStable(rows, func(i, j int) bool {
			vi, vj := sortValue(rows[i]), sortValue(rows[j])
			if !vi.Equal(vj) {
				if asc {
					return vi.Before(vj)
				}
				return vi.After(vj)
			}
			if asc {
				return rows[i].Task.ID.String() < rows[j].Task.ID.String()
			}
			return rows[i].Task.ID.String() > rows[j].Task.ID.String()
		})

		var out []*store.TaskWithUsers
		for _, row := range rows {
			if cursor != nil {
				v := sortValue(row)
				// Strict tuple comparison in the scan direction.
				past := false
				if asc {
					past = v.After(cursor.SortValue) ||
						(v.Equal(cursor.SortValue) && row.Task.ID.String() > cursor.ID.String())
				} else {
					past = v.Before(cursor.SortValue) ||
						(v.Equal(cursor.SortValue) && row.Task.ID.String() < cursor.ID.String())
				}
				if !past {
					continue
				}
			}
			out = append(out, row)
			if len(out) == limit {
				break
			}
		}
		if out == nil {
			out = []*store.TaskWithUsers{}
		}
		return out, nil
	}
}

func makeTask(title string, deadline time.Time) *store.TaskWithUsers {
	assignee := domain.User{ID: uuid.New(), DisplayName: "Assignee"}
	creator := domain.User{ID: uuid.New(), DisplayName: "Creator"}

	return &store.TaskWithUsers{
		Task: domain.Task{
			ID:          uuid.New(),
			Title:       title,
			Status:      domain.TaskStatusTodo,
			Deadline:    deadline,
			AssigneeID:  assignee.ID,
			CreatedByID: creator.ID,
			CreatedAt:   time.Now().UTC(),
		},
		Assignee:  assignee,
		CreatedBy: creator,
	}
}

func TestTaskServiceList_TraversesAllPagesWithoutDuplicatesOrGaps(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	data := make([]*store.TaskWithUsers, 0, 25)
	for i := 0; i < 25; i++ {
		data = append(data, makeTask(
			fmt.Sprintf("task-%02d", i),
			base.Add(time.Duration(i)*time.Hour)))
	}

	taskStore := &mocks.MockTaskStore{ListFn: fakeTaskRows(data)}
	svc := NewTaskService(mocks.NewDB(), taskStore, &mocks.MockUserStore{}, nil)

	params := taskquery.Params{Limit: "10"}

	seen := map[uuid.UUID]bool{}
	cursor := ""
	var pages []*TaskPage
	for {
		page, err := svc.List(context.Background(), params, cursor)
		require.NoError(t, err)
		pages = append(pages, page)

		for _, item := range page.Items {
			assert.False(t, seen[item.Task.ID], "row %s seen twice", item.Task.Title)
			seen[item.Task.ID] = true
		}

		if len(page.Items) == 0 {
			break
		}
		cursor = page.NextCursor
	}

	require.Len(t, pages, 4)
	assert.Len(t, pages[0].Items, 10)
	assert.True(t, pages[0].HasMore)
	assert.Len(t, pages[1].Items, 10)
	assert.True(t, pages[1].HasMore)
	assert.Len(t, pages[2].Items, 5)
	assert.False(t, pages[2].HasMore)
	assert.NotEmpty(t, pages[2].NextCursor, "non-empty final page still carries a cursor")
	assert.Empty(t, pages[3].Items)
	assert.False(t, pages[3].HasMore)
	assert.Empty(t, pages[3].NextCursor)

	assert.Len(t, seen, 25, "every row visited exactly once")
}

func TestTaskServiceList_TieBreakOnSharedSortValue(t *testing.T) {
	t.Parallel()

	// All rows share one deadline, so ordering falls entirely on the ID
	// tie-break. The traversal must still visit each row exactly once.
	deadline := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	data := make([]*store.TaskWithUsers, 0, 7)
	for i := 0; i < 7; i++ {
		data = append(data, makeTask(fmt.Sprintf("dup-%d", i), deadline))
	}

	taskStore := &mocks.MockTaskStore{ListFn: fakeTaskRows(data)}
	svc := NewTaskService(mocks.NewDB(), taskStore, &mocks.MockUserStore{}, nil)

	params := taskquery.Params{Limit: "3"}

	seen := map[uuid.UUID]bool{}
	cursor := ""
	for {
		page, err := svc.List(context.Background(), params, cursor)
		require.NoError(t, err)
		if len(page.Items) == 0 {
			break
		}
		for _, item := range page.Items {
			assert.False(t, seen[item.Task.ID])
			seen[item.Task.ID] = true
		}
		cursor = page.NextCursor
	}

	assert.Len(t, seen, 7)
}

func TestTaskServiceList_OverFetchesByOneRow(t *testing.T) {
	t.Parallel()

	taskStore := &mocks.MockTaskStore{ListFn: fakeTaskRows(nil)}
	svc := NewTaskService(mocks.NewDB(), taskStore, &mocks.MockUserStore{}, nil)

	_, err := svc.List(context.Background(), taskquery.Params{Limit: "10"}, "")
	require.NoError(t, err)

	require.Len(t, taskStore.ListCalls, 1)
	assert.Equal(t, 11, taskStore.ListCalls[0].Limit)
	assert.Nil(t, taskStore.ListCalls[0].Cursor)
}

func TestTaskServiceList_EmptyResult(t *testing.T) {
	t.Parallel()

	taskStore := &mocks.MockTaskStore{ListFn: fakeTaskRows(nil)}
	svc := NewTaskService(mocks.NewDB(), taskStore, &mocks.MockUserStore{}, nil)

	page, err := svc.List(context.Background(), taskquery.Params{}, "")

	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.NextCursor)
}

func TestTaskServiceList_InvalidParams(t *testing.T) {
	t.Parallel()

	taskStore := &mocks.MockTaskStore{}
	svc := NewTaskService(mocks.NewDB(), taskStore, &mocks.MockUserStore{}, nil)

	_, err := svc.List(context.Background(), taskquery.Params{Limit: "nope"}, "")

	assert.ErrorIs(t, err, taskquery.ErrInvalidQuery)
	assert.Empty(t, taskStore.ListCalls, "store must not be touched on invalid input")
}

func TestTaskServiceList_InvalidCursor(t *testing.T) {
	t.Parallel()

	taskStore := &mocks.MockTaskStore{}
	svc := NewTaskService(mocks.NewDB(), taskStore, &mocks.MockUserStore{}, nil)

	_, err := svc.List(context.Background(), taskquery.Params{}, "garbage-token")

	assert.ErrorIs(t, err, taskquery.ErrInvalidCursor)
	assert.Empty(t, taskStore.ListCalls)
}

func TestTaskServiceList_CursorSurvivesRowDeletion(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	data := make([]*store.TaskWithUsers, 0, 6)
	for i := 0; i < 6; i++ {
		data = append(data, makeTask(
			fmt.Sprintf("task-%d", i),
			base.Add(time.Duration(i)*time.Hour)))
	}

	taskStore := &mocks.MockTaskStore{ListFn: fakeTaskRows(data)}
	svc := NewTaskService(mocks.NewDB(), taskStore, &mocks.MockUserStore{}, nil)

	page1, err := svc.List(context.Background(), taskquery.Params{Limit: "3"}, "")
	require.NoError(t, err)
	require.Len(t, page1.Items, 3)

	// Delete the row the cursor was derived from; the cursor marks a
	// position, so the remaining rows must still all be reachable.
	anchorID := page1.Items[2].Task.ID
	var remaining []*store.TaskWithUsers
	for _, row := range data {
		if row.Task.ID != anchorID {
			remaining = append(remaining, row)
		}
	}
	taskStore.ListFn = fakeTaskRows(remaining)

	page2, err := svc.List(context.Background(), taskquery.Params{Limit: "3"}, page1.NextCursor)
	require.NoError(t, err)
	assert.Len(t, page2.Items, 3)

	got := map[uuid.UUID]bool{}
	for _, item := range append(page1.Items, page2.Items...) {
		got[item.Task.ID] = true
	}
	assert.Len(t, got, 6, "no rows skipped after anchor deletion")
}

func TestTaskServiceCreate(t *testing.T) {
	t.Parallel()

	assigneeID := uuid.New()
	actorID := uuid.New()
	deadline := time.Now().UTC().Add(24 * time.Hour)

	t.Run("persists and returns the decorated task", func(t *testing.T) {
		t.Parallel()

		var created *domain.Task
		taskStore := &mocks.MockTaskStore{
			CreateFn: func(_ context.Context, task *domain.Task) error {
				created = task
				return nil
			},
			GetByIDFn: func(_ context.Context, id uuid.UUID) (*store.TaskWithUsers, error) {
				return &store.TaskWithUsers{Task: *created}, nil
			},
		}
		userStore := &mocks.MockUserStore{
			GetByIDFn: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
				return &domain.User{ID: id}, nil
			},
		}
		svc := NewTaskService(mocks.NewDB(), taskStore, userStore, nil)

		got, err := svc.Create(context.Background(), CreateTaskParams{
			Title:      "Ship release",
			Deadline:   deadline,
			AssigneeID: assigneeID,
		}, actorID)

		require.NoError(t, err)
		assert.Equal(t, "Ship release", got.Task.Title)
		assert.Equal(t, domain.TaskStatusTodo, got.Task.Status, "status defaults to todo")
		assert.Equal(t, actorID, created.CreatedByID)
	})

	t.Run("commit failure surfaces as a transaction error", func(t *testing.T) {
		t.Parallel()

		taskStore := &mocks.MockTaskStore{
			GetByIDFn: func(_ context.Context, id uuid.UUID) (*store.TaskWithUsers, error) {
				return &store.TaskWithUsers{}, nil
			},
		}
		userStore := &mocks.MockUserStore{
			GetByIDFn: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
				return &domain.User{ID: id}, nil
			},
		}
		svc := NewTaskService(mocks.NewCommitFailDB(), taskStore, userStore, nil)

		_, err := svc.Create(context.Background(), CreateTaskParams{
			Title:      "Doomed commit",
			Deadline:   deadline,
			AssigneeID: assigneeID,
		}, actorID)

		assert.ErrorIs(t, err, store.ErrTransactionFailed)
	})

	t.Run("unknown assignee", func(t *testing.T) {
		t.Parallel()

		svc := NewTaskService(mocks.NewDB(), &mocks.MockTaskStore{}, &mocks.MockUserStore{}, nil)

		_, err := svc.Create(context.Background(), CreateTaskParams{
			Title:      "Orphan",
			Deadline:   deadline,
			AssigneeID: uuid.New(),
		}, actorID)

		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

func TestTaskServiceUpdateStatus_ParticipantsOnly(t *testing.T) {
	t.Parallel()

	task := makeTask("Guarded", time.Now().UTC())
	taskStore := &mocks.MockTaskStore{
		GetByIDFn: func(_ context.Context, id uuid.UUID) (*store.TaskWithUsers, error) {
			return task, nil
		},
	}
	svc := NewTaskService(mocks.NewDB(), taskStore, &mocks.MockUserStore{}, nil)

	_, err := svc.UpdateStatus(
		context.Background(), task.Task.ID, domain.TaskStatusDone, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotTaskParticipant)

	_, err = svc.UpdateStatus(
		context.Background(), task.Task.ID, domain.TaskStatusDone, task.Task.AssigneeID)
	assert.NoError(t, err)

	_, err = svc.UpdateStatus(
		context.Background(), task.Task.ID, domain.TaskStatusDone, task.Task.CreatedByID)
	assert.NoError(t, err)
}

func TestTaskServiceDelete_ParticipantsOnly(t *testing.T) {
	t.Parallel()

	task := makeTask("Doomed", time.Now().UTC())
	deleted := false
	taskStore := &mocks.MockTaskStore{
		GetByIDFn: func(_ context.Context, id uuid.UUID) (*store.TaskWithUsers, error) {
			return task, nil
		},
		DeleteFn: func(_ context.Context, id uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	svc := NewTaskService(mocks.NewDB(), taskStore, &mocks.MockUserStore{}, nil)

	err := svc.Delete(context.Background(), task.Task.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotTaskParticipant)
	assert.False(t, deleted)

	err = svc.Delete(context.Background(), task.Task.ID, task.Task.CreatedByID)
	assert.NoError(t, err)
	assert.True(t, deleted)
}
