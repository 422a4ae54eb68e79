// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrNotOwner is returned when a caller attempts a mutation reserved
	// for the original asker of a question.
	ErrNotOwner = errors.New("operation restricted to the question asker")

	// ErrAnswerMismatch is returned when an answer does not belong to the
	// stated question.
	ErrAnswerMismatch = errors.New("answer does not belong to question")

	// ErrAlreadyAccepted is returned when accepting an answer on a question
	// that already has an accepted answer. The first accept wins.
	ErrAlreadyAccepted = errors.New("question already has an accepted answer")

	// ErrAnswerAccepted is returned when deleting an answer that is the
	// accepted answer of its question.
	ErrAnswerAccepted = errors.New("accepted answer cannot be deleted")

	// ErrUnknownTags is returned when a proposed tag list contains slugs
	// that do not exist in the tag catalog.
	ErrUnknownTags = errors.New("unknown tags")
)
