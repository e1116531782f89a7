package services

import (
	"errors"
	"fmt"
)

// Common service errors. Handlers map these to HTTP status codes with
// errors.Is, so typed errors below wrap the matching sentinel.
var (
	ErrNotFound        = errors.New("record not found")
	ErrValidation      = errors.New("validation failed")
	ErrInvalidState    = errors.New("invalid state transition")
	ErrComputation     = errors.New("computation failed")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidPassword = errors.New("invalid password")
	ErrDuplicate       = errors.New("duplicate record")
)

// ValidationError reports a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports a missing or soft-deleted resource
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidStateError reports a rejected lifecycle transition
type InvalidStateError struct {
	Current   string
	Attempted string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s from status %s", e.Attempted, e.Current)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// ComputationError reports a failed aggregate or balance computation
type ComputationError struct {
	Detail string
	Err    error
}

func (e *ComputationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

func (e *ComputationError) Unwrap() error { return ErrComputation }
