package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType identifies one variant of the closed event set.
type EventType string

// The closed set of domain event variants.
const (
	TypeQuestionCreated    EventType = "question.created"
	TypeQuestionUpdated    EventType = "question.updated"
	TypeQuestionDeleted    EventType = "question.deleted"
	TypeAnswerCountUpdated EventType = "answer.count_updated"
	TypeAnswerAccepted     EventType = "answer.accepted"
)

// Event is a serialized domain event on the questions topic. Each event
// carries enough data for a downstream consumer to rebuild its projection
// without a follow-up read.
type Event struct {
	// ID is a unique identifier for this event, used by consumers for
	// idempotent handling of redeliveries.
	ID uuid.UUID `json:"id"`

	// Type indicates the event variant carried in Payload.
	Type EventType `json:"type"`

	// QuestionID is the aggregate the event belongs to.
	QuestionID uuid.UUID `json:"question_id"`

	// Payload is the variant-specific data serialized as JSON.
	Payload json.RawMessage `json:"payload"`

	// OccurredAt is when the mutation was committed. Consumers resolve
	// conflicting updates with this field, not with arrival order.
	OccurredAt time.Time `json:"occurred_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event of the given type for the given question.
func NewEvent(eventType EventType, questionID uuid.UUID, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s payload: %w", eventType, err)
	}

	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		QuestionID: questionID,
		Payload:    payloadBytes,
		OccurredAt: time.Now().UTC(),
	}, nil
}

// QuestionCreatedPayload is emitted when a question is first posted.
type QuestionCreatedPayload struct {
	QuestionID uuid.UUID `json:"question_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	TagSlugs   []string  `json:"tag_slugs"`
}

// QuestionUpdatedPayload is emitted when a question's title, content or tags
// are replaced. Applied to a prior projection it reproduces exactly what the
// update transition wrote.
type QuestionUpdatedPayload struct {
	QuestionID uuid.UUID `json:"question_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	TagSlugs   []string  `json:"tag_slugs"`
}

// QuestionDeletedPayload is emitted when a question and its answers are removed.
type QuestionDeletedPayload struct {
	QuestionID uuid.UUID `json:"question_id"`
}

// AnswerCountUpdatedPayload is emitted whenever the number of live answers
// changes, carrying the new total.
type AnswerCountUpdatedPayload struct {
	QuestionID  uuid.UUID `json:"question_id"`
	AnswerCount int       `json:"answer_count"`
}

// AnswerAcceptedPayload is emitted when an answer is accepted.
type AnswerAcceptedPayload struct {
	QuestionID uuid.UUID `json:"question_id"`
}
