package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/SFrisendal/overflow/internal/api/shared"
	"github.com/SFrisendal/overflow/internal/domain"
	"github.com/SFrisendal/overflow/internal/service"
	"github.com/SFrisendal/overflow/internal/service/auth"
	"github.com/SFrisendal/overflow/internal/store"
	"github.com/SFrisendal/overflow/internal/tags"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden

	// Not found errors. An answer under the wrong question is treated as
	// absent rather than revealing it exists elsewhere.
	case errors.Is(err, service.ErrQuestionNotFound),
		errors.Is(err, service.ErrAnswerNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, domain.ErrAnswerMismatch):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, domain.ErrAlreadyAccepted),
		errors.Is(err, domain.ErrAnswerAccepted),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, store.ErrConflict):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyIdentity),
		errors.Is(err, domain.ErrEmptyTitle),
		errors.Is(err, domain.ErrContentTooShort),
		errors.Is(err, domain.ErrNoTags),
		errors.Is(err, domain.ErrTooManyTags),
		errors.Is(err, domain.ErrUnknownTags),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// The tag catalog being cold is a temporary condition
	case errors.Is(err, tags.ErrCacheUnavailable):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"

	case errors.Is(err, domain.ErrNotOwner):
		return "Only the question asker may do this"

	case errors.Is(err, service.ErrQuestionNotFound):
		return "Question not found"

	case errors.Is(err, service.ErrAnswerNotFound),
		errors.Is(err, domain.ErrAnswerMismatch):
		return "Answer not found"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, domain.ErrAlreadyAccepted):
		return "Question already has an accepted answer"

	case errors.Is(err, domain.ErrAnswerAccepted):
		return "The accepted answer cannot be deleted"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, domain.ErrEmptyTitle):
		return "Title is required"

	case errors.Is(err, domain.ErrContentTooShort):
		return "Content is too short"

	case errors.Is(err, domain.ErrNoTags):
		return "At least one tag is required"

	case errors.Is(err, domain.ErrTooManyTags):
		return "A maximum of 5 tags is allowed"

	case errors.Is(err, domain.ErrUnknownTags):
		return "One or more tags do not exist"

	case errors.Is(err, domain.ErrInvalidEmail), errors.Is(err, domain.ErrEmptyEmail):
		return "Invalid email address"

	case errors.Is(err, domain.ErrEmptyDisplayName):
		return "Display name is required"

	case errors.Is(err, domain.ErrPasswordTooShort), errors.Is(err, domain.ErrPasswordTooLong):
		return "Password must be between 12 and 72 characters"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyIdentity),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	case errors.Is(err, tags.ErrCacheUnavailable):
		return "Tag validation is temporarily unavailable"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps the error to a status code and safe message and writes
// the response, logging the underlying error. An empty userMessage selects
// the safe message derived from the error.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'LoginRequest.Email' Error:Field validation for
	// 'Email' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, validationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// validationTagMessage maps validation tags to user-friendly error messages
func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	default:
		return "validation failed"
	}
}
