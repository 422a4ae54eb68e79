package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Content and tag rules shared by questions and answers.
const (
	// MinContentLength is the minimum content length measured after
	// stripping markup, not on the raw rich text.
	MinContentLength = 10

	// MaxTags is the maximum number of tags a question may carry.
	MaxTags = 5
)

// Common validation errors for Question
var (
	ErrEmptyQuestionID = errors.New("question ID cannot be empty")
	ErrEmptyTitle      = errors.New("title cannot be empty")
	ErrContentTooShort = errors.New("content must be at least 10 characters after stripping markup")
	ErrNoTags          = errors.New("at least one tag is required")
	ErrTooManyTags     = errors.New("a maximum of 5 tags is allowed")
)

var markupPattern = regexp.MustCompile(`<[^>]*>`)

// StripMarkup removes markup elements from rich text content so length rules
// apply to what the reader actually sees.
func StripMarkup(content string) string {
	return strings.TrimSpace(markupPattern.ReplaceAllString(content, ""))
}

// Question is the aggregate root for a posted question and its owned answers.
// Answers are a composition: they live and die with their parent question.
// The answer counter must equal the number of live answers at all times, and
// HasAcceptedAnswer is true iff exactly one answer is marked accepted.
type Question struct {
	ID                uuid.UUID  `json:"id"`
	Title             string     `json:"title"`
	Content           string     `json:"content"`
	TagSlugs          []string   `json:"tag_slugs"`
	AskerID           uuid.UUID  `json:"asker_id"`
	AskerDisplayName  string     `json:"asker_display_name"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
	ViewCount         int        `json:"view_count"`
	AnswerCount       int        `json:"answer_count"`
	HasAcceptedAnswer bool       `json:"has_accepted_answer"`
	Answers           []*Answer  `json:"answers,omitempty"`
}

// NewQuestion creates a new Question asked by the given identity.
// Counters start at zero and no answer is accepted.
// Returns an error if validation fails.
func NewQuestion(asker Identity, title, content string, tagSlugs []string) (*Question, error) {
	if err := asker.Validate(); err != nil {
		return nil, err
	}

	question := &Question{
		ID:               uuid.New(),
		Title:            strings.TrimSpace(title),
		Content:          content,
		TagSlugs:         tagSlugs,
		AskerID:          asker.ID,
		AskerDisplayName: asker.DisplayName,
		CreatedAt:        time.Now().UTC(),
	}

	if err := question.Validate(); err != nil {
		return nil, err
	}

	return question, nil
}

// Validate checks if the Question has valid data.
// Returns an error if any field fails validation.
func (q *Question) Validate() error {
	if q.ID == uuid.Nil {
		return ErrEmptyQuestionID
	}

	if strings.TrimSpace(q.Title) == "" {
		return ErrEmptyTitle
	}

	if len(StripMarkup(q.Content)) < MinContentLength {
		return ErrContentTooShort
	}

	if len(q.TagSlugs) == 0 {
		return ErrNoTags
	}

	if len(q.TagSlugs) > MaxTags {
		return ErrTooManyTags
	}

	if q.AskerID == uuid.Nil || q.AskerDisplayName == "" {
		return ErrEmptyIdentity
	}

	return nil
}

// ApplyUpdate replaces the question's title, content and tags wholesale and
// stamps the update time. Only the original asker may update; asker identity
// itself is immutable after creation.
func (q *Question) ApplyUpdate(caller Identity, title, content string, tagSlugs []string) error {
	if err := q.AuthorizeMutation(caller); err != nil {
		return err
	}

	updated := *q
	updated.Title = strings.TrimSpace(title)
	updated.Content = content
	updated.TagSlugs = tagSlugs
	if err := updated.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	q.Title = updated.Title
	q.Content = content
	q.TagSlugs = tagSlugs
	q.UpdatedAt = &now
	return nil
}

// AuthorizeMutation checks that the caller is the original asker.
// Returns ErrNotOwner otherwise.
func (q *Question) AuthorizeMutation(caller Identity) error {
	if err := caller.Validate(); err != nil {
		return err
	}
	if caller.ID != q.AskerID {
		return ErrNotOwner
	}
	return nil
}

// GuardAccept checks that the given answer can be accepted on this question:
// the answer must belong to this question and no answer may already be
// accepted. The first accept wins; later attempts fail with ErrAlreadyAccepted.
func (q *Question) GuardAccept(answer *Answer) error {
	if !answer.BelongsTo(q.ID) {
		return ErrAnswerMismatch
	}
	if q.HasAcceptedAnswer {
		return ErrAlreadyAccepted
	}
	return nil
}

// GuardDeleteAnswer checks that the given answer can be removed from this
// question. The accepted answer can never be deleted while accepted.
func (q *Question) GuardDeleteAnswer(answer *Answer) error {
	if !answer.BelongsTo(q.ID) {
		return ErrAnswerMismatch
	}
	if answer.Accepted {
		return ErrAnswerAccepted
	}
	return nil
}
