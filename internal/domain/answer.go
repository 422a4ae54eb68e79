package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Answer
var (
	ErrEmptyAnswerID         = errors.New("answer ID cannot be empty")
	ErrEmptyAnswerQuestionID = errors.New("answer question ID cannot be empty")
)

// Answer is owned by its parent question. The owning question id and the
// responder identity are immutable after creation; only the content (and the
// accepted flag, via the question's accept transition) change afterwards.
type Answer struct {
	ID                   uuid.UUID  `json:"id"`
	QuestionID           uuid.UUID  `json:"question_id"`
	Content              string     `json:"content"`
	ResponderID          uuid.UUID  `json:"responder_id"`
	ResponderDisplayName string     `json:"responder_display_name"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            *time.Time `json:"updated_at,omitempty"`
	Accepted             bool       `json:"accepted"`
}

// NewAnswer creates a new Answer to the given question by the given responder.
// Returns an error if validation fails.
func NewAnswer(questionID uuid.UUID, responder Identity, content string) (*Answer, error) {
	if err := responder.Validate(); err != nil {
		return nil, err
	}

	answer := &Answer{
		ID:                   uuid.New(),
		QuestionID:           questionID,
		Content:              content,
		ResponderID:          responder.ID,
		ResponderDisplayName: responder.DisplayName,
		CreatedAt:            time.Now().UTC(),
	}

	if err := answer.Validate(); err != nil {
		return nil, err
	}

	return answer, nil
}

// Validate checks if the Answer has valid data.
func (a *Answer) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyAnswerID
	}

	if a.QuestionID == uuid.Nil {
		return ErrEmptyAnswerQuestionID
	}

	if len(StripMarkup(a.Content)) < MinContentLength {
		return ErrContentTooShort
	}

	if a.ResponderID == uuid.Nil || a.ResponderDisplayName == "" {
		return ErrEmptyIdentity
	}

	return nil
}

// UpdateContent replaces the answer's content and stamps the update time.
// Ownership transfer is not possible; only content changes.
func (a *Answer) UpdateContent(content string) error {
	if len(StripMarkup(content)) < MinContentLength {
		return ErrContentTooShort
	}

	now := time.Now().UTC()
	a.Content = content
	a.UpdatedAt = &now
	return nil
}

// BelongsTo reports whether the answer is owned by the given question.
func (a *Answer) BelongsTo(questionID uuid.UUID) bool {
	return a.QuestionID == questionID
}
