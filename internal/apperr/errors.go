// Package apperr defines the sentinel errors shared by every layer.
// Callers match them with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation failed")
	ErrPersistence   = errors.New("persistence failure")

	// ErrIncorrectSecret is recoverable: the lock gate re-prompts on it.
	ErrIncorrectSecret = errors.New("incorrect password")
	// ErrLocked is returned when a locked note is accessed without a candidate secret.
	ErrLocked = errors.New("note is locked")
	// ErrAborted ends a lock gate retry loop.
	ErrAborted = errors.New("aborted")
)
