package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/mocks"
	"github.com/phrazzld/taskflow-api/internal/store"
)

func directoryUser(username string) *domain.User {
	return &domain.User{
		ID:          uuid.New(),
		Email:       username + "@example.com",
		Username:    username,
		DisplayName: username,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
}

func TestUserHandlerList(t *testing.T) {
	t.Parallel()

	t.Run("returns directory without credentials", func(t *testing.T) {
		t.Parallel()

		userStore := &mocks.MockUserStore{
			ListFn: func(context.Context) ([]*domain.User, error) {
				alice := directoryUser("alice")
				alice.HashedPassword = "$2a$10$secret"
				return []*domain.User{alice, directoryUser("bob")}, nil
			},
		}
		handler := NewUserHandler(userStore, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		rec := httptest.NewRecorder()
		handler.List(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var envelope struct {
			Success bool           `json:"success"`
			Data    []UserResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		assert.True(t, envelope.Success)
		require.Len(t, envelope.Data, 2)
		assert.Equal(t, "alice", envelope.Data[0].Username)
		assert.NotContains(t, rec.Body.String(), "secret")
	})

	t.Run("store outage is a 503", func(t *testing.T) {
		t.Parallel()

		userStore := &mocks.MockUserStore{
			ListFn: func(context.Context) ([]*domain.User, error) {
				return nil, store.ErrUnavailable
			},
		}
		handler := NewUserHandler(userStore, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		rec := httptest.NewRecorder()
		handler.List(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestUserHandlerMe(t *testing.T) {
	t.Parallel()

	t.Run("returns authenticated user's profile", func(t *testing.T) {
		t.Parallel()

		user := directoryUser("carol")
		userStore := &mocks.MockUserStore{
			GetByIDFn: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
				require.Equal(t, user.ID, id)
				return user, nil
			},
		}
		handler := NewUserHandler(userStore, nil)

		req := withUser(httptest.NewRequest(http.MethodGet, "/api/users/me", nil), user.ID)
		rec := httptest.NewRecorder()
		handler.Me(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var envelope struct {
			Data UserResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		assert.Equal(t, user.ID, envelope.Data.ID)
		assert.Equal(t, "carol", envelope.Data.Username)
	})

	t.Run("missing identity is a 401", func(t *testing.T) {
		t.Parallel()

		handler := NewUserHandler(&mocks.MockUserStore{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		rec := httptest.NewRecorder()
		handler.Me(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestUserHandlerDeleteMe(t *testing.T) {
	t.Parallel()

	t.Run("deletes the authenticated user", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		var deleted uuid.UUID
		userStore := &mocks.MockUserStore{
			DeleteFn: func(_ context.Context, id uuid.UUID) error {
				deleted = id
				return nil
			},
		}
		handler := NewUserHandler(userStore, nil)

		req := withUser(httptest.NewRequest(http.MethodDelete, "/api/users/me", nil), userID)
		rec := httptest.NewRecorder()
		handler.DeleteMe(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID, deleted)
	})

	t.Run("user with tasks gets a 409", func(t *testing.T) {
		t.Parallel()

		userStore := &mocks.MockUserStore{
			DeleteFn: func(context.Context, uuid.UUID) error {
				return store.ErrUserHasTasks
			},
		}
		handler := NewUserHandler(userStore, nil)

		req := withUser(httptest.NewRequest(http.MethodDelete, "/api/users/me", nil), uuid.New())
		rec := httptest.NewRecorder()
		handler.DeleteMe(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}
