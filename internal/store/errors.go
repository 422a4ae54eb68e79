package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a user with the same email).
	ErrDuplicate = errors.New("entity already exists")

	// ErrConflict is returned when an operation loses against the current
	// state of the aggregate (e.g., accepting an answer on a question that
	// was decided concurrently). The conditional update that detects it is
	// the authority under concurrent requests, not any prior read.
	ErrConflict = errors.New("operation conflicts with current state")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrQuestionNotFound indicates that the requested question does not exist.
	ErrQuestionNotFound = fmt.Errorf("%w: question", ErrNotFound)

	// ErrAnswerNotFound indicates that the requested answer does not exist.
	ErrAnswerNotFound = fmt.Errorf("%w: answer", ErrNotFound)

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrEmailExists indicates that a user with the given email already exists.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)

	// Entity-specific "conflict" errors

	// ErrQuestionDecided indicates that the question already has an accepted
	// answer; the first accept won.
	ErrQuestionDecided = fmt.Errorf("%w: question already has an accepted answer", ErrConflict)

	// ErrAnswerIsAccepted indicates that the answer is the accepted answer of
	// its question and cannot be deleted while accepted.
	ErrAnswerIsAccepted = fmt.Errorf("%w: accepted answer cannot be deleted", ErrConflict)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflictError checks if the error is any kind of "conflict" error.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflict)
}
