// Package api implements the HTTP handlers, request/response models and
// error mapping for the REST interface.
package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/service/assistant"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Username    string `json:"username" validate:"required,min=3,max=50"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=100"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the request body for login. Identifier accepts either the
// email address or the username.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// RefreshTokenRequest is the request body for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse is returned after a successful register, login or refresh.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// UserResponse is the public projection of a user.
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateTaskRequest is the request body for task creation.
type CreateTaskRequest struct {
	Title       string    `json:"title" validate:"required,min=1,max=200"`
	Description string    `json:"description"`
	Status      string    `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	Deadline    time.Time `json:"deadline" validate:"required"`
	AssigneeID  uuid.UUID `json:"assignee_id" validate:"required"`
}

// UpdateTaskStatusRequest is the request body for the status update endpoint.
type UpdateTaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=todo in_progress done"`
}

// TaskResponse is a task decorated with its assignee and creator.
type TaskResponse struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      string       `json:"status"`
	Deadline    time.Time    `json:"deadline"`
	AssigneeID  uuid.UUID    `json:"assignee_id"`
	CreatedByID uuid.UUID    `json:"created_by_id"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Assignee    UserResponse `json:"assignee"`
	CreatedBy   UserResponse `json:"created_by"`
}

// TaskPageResponse is one page of a task listing.
// NextCursor is null only when Items is empty.
type TaskPageResponse struct {
	Items      []TaskResponse `json:"items"`
	HasMore    bool           `json:"has_more"`
	NextCursor *string        `json:"next_cursor"`
}

// StatsResponse reports task counts grouped by status.
type StatsResponse struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
}

// AssistantQueryRequest is the request body for the assistant endpoint.
type AssistantQueryRequest struct {
	Query string `json:"query"`
}

// AssistantQueryResponse is the assistant's answer to one query.
// Tasks is null for count and summary intents.
type AssistantQueryResponse struct {
	Response  string             `json:"response"`
	Tasks     []TaskResponse     `json:"tasks"`
	QueryType string             `json:"query_type"`
	Metadata  assistant.Metadata `json:"metadata"`
}

// ExamplesResponse lists sample assistant queries and usage tips.
type ExamplesResponse struct {
	Queries []string `json:"queries"`
	Tips    []string `json:"tips"`
}

// newUserResponse projects a domain user into its public representation.
func newUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
	}
}

// newTaskResponse projects a decorated task into its API representation.
func newTaskResponse(t *store.TaskWithUsers) TaskResponse {
	return TaskResponse{
		ID:          t.Task.ID,
		Title:       t.Task.Title,
		Description: t.Task.Description,
		Status:      string(t.Task.Status),
		Deadline:    t.Task.Deadline,
		AssigneeID:  t.Task.AssigneeID,
		CreatedByID: t.Task.CreatedByID,
		CreatedAt:   t.Task.CreatedAt,
		UpdatedAt:   t.Task.UpdatedAt,
		Assignee:    newUserResponse(&t.Assignee),
		CreatedBy:   newUserResponse(&t.CreatedBy),
	}
}

// newTaskResponses projects a slice of decorated tasks, preserving order.
// Always returns a non-nil slice so pages serialize as [] rather than null.
func newTaskResponses(tasks []*store.TaskWithUsers) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, newTaskResponse(t))
	}
	return out
}
