// Package apperror defines the failure kinds shared by the engines and the
// HTTP layer. Callers test kinds with errors.Is against the sentinels.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation error")
	ErrConflict         = errors.New("conflict")
	ErrInvalidState     = errors.New("invalid state")
	ErrCapacityExceeded = errors.New("capacity exceeded")
)

type AppError struct {
	Err     error
	Message string
	Field   string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a write that lost an optimistic concurrency race.
func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// InvalidState reports an operation whose preconditions on the current
// status of a resource do not hold.
func InvalidState(resource, id, message string) *AppError {
	return &AppError{
		Err:     ErrInvalidState,
		Message: fmt.Sprintf("%s %s: %s", resource, id, message),
	}
}

// CapacityError carries how many places were asked for and how many are left.
type CapacityError struct {
	Resource  string
	ID        string
	Requested int
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s %s: %d requested, %d available", e.Resource, e.ID, e.Requested, e.Available)
}

func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}

func CapacityExceeded(resource, id string, requested, available int) *CapacityError {
	return &CapacityError{
		Resource:  resource,
		ID:        id,
		Requested: requested,
		Available: available,
	}
}
