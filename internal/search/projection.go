// Package search maintains a read-side projection of questions rebuilt purely
// from the events on the questions topic. It is the in-process stand-in for
// the indexing consumer that would otherwise live in a separate process.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SFrisendal/overflow/internal/events"
)

// Document is one question as the search side sees it. It carries only the
// fields delivered by events; view counts never reach this projection.
type Document struct {
	QuestionID  uuid.UUID `json:"question_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	TagSlugs    []string  `json:"tag_slugs"`
	AnswerCount int       `json:"answer_count"`
	HasAccepted bool      `json:"has_accepted_answer"`

	// UpdatedAt is the occurred_at of the newest event applied to this
	// document. Older events arriving late are dropped against it.
	UpdatedAt time.Time `json:"updated_at"`
}

// Projection applies question events to an in-memory document index. It is
// safe for concurrent use and tolerates redelivered and out-of-order events:
// each document keeps the timestamp of the newest event applied to it and
// ignores anything older.
type Projection struct {
	mu     sync.RWMutex
	docs   map[uuid.UUID]*Document
	logger *slog.Logger
}

var _ events.Subscriber = (*Projection)(nil)

// NewProjection creates an empty Projection.
func NewProjection(logger *slog.Logger) *Projection {
	if logger == nil {
		logger = slog.Default()
	}
	return &Projection{
		docs:   make(map[uuid.UUID]*Document),
		logger: logger.With("component", "search_projection"),
	}
}

// HandleEvent applies one event to the index.
func (p *Projection) HandleEvent(ctx context.Context, event *events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch event.Type {
	case events.TypeQuestionCreated:
		var payload events.QuestionCreatedPayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
		}
		doc, ok := p.docs[event.QuestionID]
		if !ok {
			doc = &Document{QuestionID: event.QuestionID}
			p.docs[event.QuestionID] = doc
		}
		if event.OccurredAt.Before(doc.UpdatedAt) {
			return nil
		}
		doc.Title = payload.Title
		doc.Content = payload.Content
		doc.TagSlugs = append([]string(nil), payload.TagSlugs...)
		doc.UpdatedAt = event.OccurredAt

	case events.TypeQuestionUpdated:
		var payload events.QuestionUpdatedPayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
		}
		doc, ok := p.docs[event.QuestionID]
		if !ok {
			// The create event may still be in flight; index what we have.
			doc = &Document{QuestionID: event.QuestionID}
			p.docs[event.QuestionID] = doc
		}
		if event.OccurredAt.Before(doc.UpdatedAt) {
			return nil
		}
		doc.Title = payload.Title
		doc.Content = payload.Content
		doc.TagSlugs = append([]string(nil), payload.TagSlugs...)
		doc.UpdatedAt = event.OccurredAt

	case events.TypeQuestionDeleted:
		delete(p.docs, event.QuestionID)

	case events.TypeAnswerCountUpdated:
		var payload events.AnswerCountUpdatedPayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
		}
		if doc, ok := p.docs[event.QuestionID]; ok {
			if event.OccurredAt.Before(doc.UpdatedAt) {
				return nil
			}
			doc.AnswerCount = payload.AnswerCount
			doc.UpdatedAt = event.OccurredAt
		}

	case events.TypeAnswerAccepted:
		if doc, ok := p.docs[event.QuestionID]; ok {
			doc.HasAccepted = true
			if event.OccurredAt.After(doc.UpdatedAt) {
				doc.UpdatedAt = event.OccurredAt
			}
		}

	default:
		p.logger.Warn("ignoring unknown event type",
			"event_type", event.Type,
			"event_id", event.ID)
	}

	return nil
}

// Get returns a copy of the indexed document for the given question, if any.
func (p *Projection) Get(questionID uuid.UUID) (Document, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	doc, ok := p.docs[questionID]
	if !ok {
		return Document{}, false
	}
	return copyDocument(doc), true
}

// Search returns the documents whose title or content contains the query,
// case-insensitively, newest first. An empty query matches everything.
func (p *Projection) Search(query string) []Document {
	needle := strings.ToLower(strings.TrimSpace(query))

	p.mu.RLock()
	defer p.mu.RUnlock()

	var matches []Document
	for _, doc := range p.docs {
		if needle == "" ||
			strings.Contains(strings.ToLower(doc.Title), needle) ||
			strings.Contains(strings.ToLower(doc.Content), needle) {
			matches = append(matches, copyDocument(doc))
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].UpdatedAt.After(matches[j].UpdatedAt)
	})
	return matches
}

// Len reports how many questions are currently indexed.
func (p *Projection) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.docs)
}

func copyDocument(doc *Document) Document {
	out := *doc
	out.TagSlugs = append([]string(nil), doc.TagSlugs...)
	return out
}
