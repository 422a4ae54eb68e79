package api

import (
	"github.com/google/uuid"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,min=2,max=64"`
	Password    string `json:"password"     validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// DisplayName is the public name recorded on the user's posts
	DisplayName string `json:"display_name"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`
}

// CreateQuestionRequest defines the payload for posting a question.
// Content length and tag validity are enforced by the domain and the tag
// catalog; the struct tags only reject the obviously malformed.
type CreateQuestionRequest struct {
	Title    string   `json:"title"     validate:"required"`
	Content  string   `json:"content"   validate:"required"`
	TagSlugs []string `json:"tag_slugs" validate:"required,min=1,max=5"`
}

// UpdateQuestionRequest defines the payload for replacing a question's
// title, content and tags.
type UpdateQuestionRequest struct {
	Title    string   `json:"title"     validate:"required"`
	Content  string   `json:"content"   validate:"required"`
	TagSlugs []string `json:"tag_slugs" validate:"required,min=1,max=5"`
}

// CreateAnswerRequest defines the payload for posting an answer.
type CreateAnswerRequest struct {
	Content string `json:"content" validate:"required"`
}

// UpdateAnswerRequest defines the payload for replacing an answer's content.
type UpdateAnswerRequest struct {
	Content string `json:"content" validate:"required"`
}
