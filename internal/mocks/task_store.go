// Package mocks provides hand-written test doubles for the store and
// service interfaces.
package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/phrazzld/taskflow-api/internal/taskquery"
)

// MockTaskStore is a configurable mock implementation of store.TaskStore.
// Each method delegates to the corresponding Fn field when set and returns
// zero values otherwise.
type MockTaskStore struct {
	CreateFn        func(ctx context.Context, task *domain.Task) error
	GetByIDFn       func(ctx context.Context, id uuid.UUID) (*store.TaskWithUsers, error)
	UpdateStatusFn  func(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error
	DeleteFn        func(ctx context.Context, id uuid.UUID) error
	ListFn          func(ctx context.Context, spec *taskquery.FilterSpec, cursor *taskquery.Cursor, limit int) ([]*store.TaskWithUsers, error)
	CountMatchingFn func(ctx context.Context, spec *taskquery.FilterSpec) (int, error)
	CountByStatusFn func(ctx context.Context) (*store.StatusCounts, error)

	// ListCalls records the arguments of every List invocation.
	ListCalls []ListCall
}

// ListCall captures one invocation of List.
type ListCall struct {
	Spec   *taskquery.FilterSpec
	Cursor *taskquery.Cursor
	Limit  int
}

var _ store.TaskStore = (*MockTaskStore)(nil)

func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	return nil
}

func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*store.TaskWithUsers, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, store.ErrTaskNotFound
}

func (m *MockTaskStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *MockTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *MockTaskStore) List(
	ctx context.Context,
	spec *taskquery.FilterSpec,
	cursor *taskquery.Cursor,
	limit int,
) ([]*store.TaskWithUsers, error) {
	m.ListCalls = append(m.ListCalls, ListCall{Spec: spec, Cursor: cursor, Limit: limit})
	if m.ListFn != nil {
		return m.ListFn(ctx, spec, cursor, limit)
	}
	return nil, nil
}

func (m *MockTaskStore) CountMatching(ctx context.Context, spec *taskquery.FilterSpec) (int, error) {
	if m.CountMatchingFn != nil {
		return m.CountMatchingFn(ctx, spec)
	}
	return 0, nil
}

func (m *MockTaskStore) CountByStatus(ctx context.Context) (*store.StatusCounts, error) {
	if m.CountByStatusFn != nil {
		return m.CountByStatusFn(ctx)
	}
	return &store.StatusCounts{}, nil
}

func (m *MockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return m
}
