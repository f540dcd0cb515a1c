package services

import "fmt"

// ValidationError is returned before any remote call when input is rejected
type ValidationError struct {
	Message string
	Details interface{}
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned when no local show has the requested id
type NotFoundError struct {
	ID uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("show %d not found", e.ID)
}

// PersistenceError wraps a local database failure
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("local store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ConflictError is returned when a request with the same idempotency key is
// still being processed
type ConflictError struct {
	Key string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("request with idempotency key %q is in progress", e.Key)
}

// EmailError wraps a failed invite delivery
type EmailError struct {
	NotConfigured bool
	StatusCode    int
	Err           error
}

func (e *EmailError) Error() string {
	return fmt.Sprintf("invite email: %v", e.Err)
}

func (e *EmailError) Unwrap() error {
	return e.Err
}
