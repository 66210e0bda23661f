// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidTaskStatus is returned when a task status is not one of
	// the known status values.
	ErrInvalidTaskStatus = fmt.Errorf("%w: invalid task status", ErrValidation)

	// ErrNotTaskParticipant is returned when a user who is neither the
	// creator nor the assignee of a task attempts to mutate it.
	ErrNotTaskParticipant = errors.New("user is not the task creator or assignee")
)
