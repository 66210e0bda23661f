package domain

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Task validation errors. All wrap ErrValidation so callers can match the
// whole family with errors.Is.
var (
	ErrEmptyTaskID      = fmt.Errorf("%w: task ID cannot be empty", ErrValidation)
	ErrEmptyTaskTitle   = fmt.Errorf("%w: task title cannot be empty", ErrValidation)
	ErrTaskTitleTooLong = fmt.Errorf("%w: task title must be at most 200 characters", ErrValidation)
	ErrEmptyAssignee    = fmt.Errorf("%w: task assignee cannot be empty", ErrValidation)
	ErrEmptyCreator     = fmt.Errorf("%w: task creator cannot be empty", ErrValidation)
	ErrZeroDeadline     = fmt.Errorf("%w: task deadline must be set", ErrValidation)
)

// TaskStatus represents the workflow state of a task.
// Transitions between statuses are unrestricted: any status may follow any other.
type TaskStatus string

// Task status values
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// IsValid checks if the task status is one of the known values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

// maxTaskTitleLength is the maximum allowed title length in characters.
const maxTaskTitleLength = 200

// Task represents a unit of work tracked by the application.
// Every task is owned by its creator and assigned to exactly one user;
// both must reference existing users.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Deadline    time.Time  `json:"deadline"`
	AssigneeID  uuid.UUID  `json:"assignee_id"`
	CreatedByID uuid.UUID  `json:"created_by_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTask creates a new Task with the given attributes.
// It generates a new UUID for the task ID, defaults the status to "todo"
// when none is given, and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewTask(
	title, description string,
	status TaskStatus,
	deadline time.Time,
	assigneeID, createdByID uuid.UUID,
) (*Task, error) {
	if status == "" {
		status = TaskStatusTodo
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Status:      status,
		Deadline:    deadline,
		AssigneeID:  assigneeID,
		CreatedByID: createdByID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.Title == "" {
		return ErrEmptyTaskTitle
	}

	if utf8.RuneCountInString(t.Title) > maxTaskTitleLength {
		return ErrTaskTitleTooLong
	}

	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}

	if t.Deadline.IsZero() {
		return ErrZeroDeadline
	}

	if t.AssigneeID == uuid.Nil {
		return ErrEmptyAssignee
	}

	if t.CreatedByID == uuid.Nil {
		return ErrEmptyCreator
	}

	return nil
}

// IsOverdue reports whether the task's deadline has passed without the
// task being done, evaluated against the given instant.
// "Overdue" is derived, never stored.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status != TaskStatusDone && t.Deadline.Before(now)
}

// IsParticipant reports whether the given user is the task's creator or
// assignee. Only participants may mutate a task.
func (t *Task) IsParticipant(userID uuid.UUID) bool {
	return t.CreatedByID == userID || t.AssigneeID == userID
}
