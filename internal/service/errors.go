package service

import (
	"errors"
	"fmt"

	"github.com/SFrisendal/overflow/internal/domain"
	"github.com/SFrisendal/overflow/internal/store"
	"github.com/SFrisendal/overflow/internal/tags"
)

// Common sentinel errors for QuestionService. The API layer maps these to
// HTTP status codes.
var (
	// ErrQuestionNotFound indicates that the question does not exist.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrAnswerNotFound indicates that the answer does not exist.
	ErrAnswerNotFound = errors.New("answer not found")
)

// passthroughSentinels are expected error conditions that callers check with
// errors.Is. They cross the service boundary unwrapped.
var passthroughSentinels = []error{
	ErrQuestionNotFound,
	ErrAnswerNotFound,
	domain.ErrValidation,
	domain.ErrEmptyIdentity,
	domain.ErrEmptyTitle,
	domain.ErrContentTooShort,
	domain.ErrNoTags,
	domain.ErrTooManyTags,
	domain.ErrUnknownTags,
	domain.ErrNotOwner,
	domain.ErrAnswerMismatch,
	domain.ErrAlreadyAccepted,
	domain.ErrAnswerAccepted,
	tags.ErrCacheUnavailable,
	store.ErrConflict,
}

// QuestionServiceError wraps unexpected errors from the question service
// with the failing operation attached.
type QuestionServiceError struct {
	// Operation is the operation that failed (e.g., "create_question")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for QuestionServiceError.
func (e *QuestionServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("question service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("question service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *QuestionServiceError) Unwrap() error {
	return e.Err
}

// NewQuestionServiceError creates a new QuestionServiceError.
// Known sentinel errors pass through directly without wrapping, after store
// "not found" sentinels are translated to their service-level equivalents.
func NewQuestionServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, store.ErrQuestionNotFound) {
		return ErrQuestionNotFound
	}
	if errors.Is(err, store.ErrAnswerNotFound) {
		return ErrAnswerNotFound
	}

	for _, sentinel := range passthroughSentinels {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	return &QuestionServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
