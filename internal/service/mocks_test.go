package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/SFrisendal/overflow/internal/domain"
	"github.com/SFrisendal/overflow/internal/events"
	"github.com/SFrisendal/overflow/internal/store"
)

// memoryQuestionStore is an in-memory store.QuestionStore used by the unit
// tests. Optional fail fields force specific operations to error so failure
// paths can be exercised.
type memoryQuestionStore struct {
	mu        sync.Mutex
	questions map[uuid.UUID]*domain.Question
	answers   map[uuid.UUID]*domain.Answer

	failCreate       error
	failAccept       error
	failDeleteAnswer error
}

var _ store.QuestionStore = (*memoryQuestionStore)(nil)

func newMemoryQuestionStore() *memoryQuestionStore {
	return &memoryQuestionStore{
		questions: make(map[uuid.UUID]*domain.Question),
		answers:   make(map[uuid.UUID]*domain.Answer),
	}
}

func (m *memoryQuestionStore) Create(ctx context.Context, question *domain.Question) error {
	if m.failCreate != nil {
		return m.failCreate
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	q := *question
	m.questions[q.ID] = &q
	return nil
}

func (m *memoryQuestionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.questions[id]
	if !ok {
		return nil, store.ErrQuestionNotFound
	}

	out := *q
	out.Answers = nil
	for _, a := range m.answers {
		if a.QuestionID == id {
			answer := *a
			out.Answers = append(out.Answers, &answer)
		}
	}
	sort.Slice(out.Answers, func(i, j int) bool {
		return out.Answers[i].CreatedAt.Before(out.Answers[j].CreatedAt)
	})
	return &out, nil
}

func (m *memoryQuestionStore) List(ctx context.Context, tagSlug string) ([]*domain.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Question
	for _, q := range m.questions {
		if tagSlug != "" && !hasSlug(q.TagSlugs, tagSlug) {
			continue
		}
		question := *q
		question.Answers = nil
		out = append(out, &question)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func hasSlug(slugs []string, slug string) bool {
	for _, s := range slugs {
		if s == slug {
			return true
		}
	}
	return false
}

func (m *memoryQuestionStore) Update(ctx context.Context, question *domain.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.questions[question.ID]
	if !ok {
		return store.ErrQuestionNotFound
	}
	existing.Title = question.Title
	existing.Content = question.Content
	existing.TagSlugs = question.TagSlugs
	existing.UpdatedAt = question.UpdatedAt
	return nil
}

func (m *memoryQuestionStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.questions[id]; !ok {
		return store.ErrQuestionNotFound
	}
	delete(m.questions, id)
	for answerID, a := range m.answers {
		if a.QuestionID == id {
			delete(m.answers, answerID)
		}
	}
	return nil
}

func (m *memoryQuestionStore) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.questions[id]
	if !ok {
		return store.ErrQuestionNotFound
	}
	q.ViewCount++
	return nil
}

func (m *memoryQuestionStore) CreateAnswer(ctx context.Context, answer *domain.Answer) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.questions[answer.QuestionID]
	if !ok {
		return 0, store.ErrQuestionNotFound
	}
	q.AnswerCount++
	a := *answer
	m.answers[a.ID] = &a
	return q.AnswerCount, nil
}

func (m *memoryQuestionStore) GetAnswerByID(ctx context.Context, id uuid.UUID) (*domain.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.answers[id]
	if !ok {
		return nil, store.ErrAnswerNotFound
	}
	out := *a
	return &out, nil
}

func (m *memoryQuestionStore) UpdateAnswer(ctx context.Context, answer *domain.Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.answers[answer.ID]
	if !ok {
		return store.ErrAnswerNotFound
	}
	existing.Content = answer.Content
	existing.UpdatedAt = answer.UpdatedAt
	return nil
}

func (m *memoryQuestionStore) DeleteAnswer(ctx context.Context, answerID uuid.UUID) (int, error) {
	if m.failDeleteAnswer != nil {
		return 0, m.failDeleteAnswer
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.answers[answerID]
	if !ok {
		return 0, store.ErrAnswerNotFound
	}
	if a.Accepted {
		return 0, store.ErrAnswerIsAccepted
	}
	delete(m.answers, answerID)

	q, ok := m.questions[a.QuestionID]
	if !ok {
		return 0, store.ErrQuestionNotFound
	}
	q.AnswerCount--
	return q.AnswerCount, nil
}

func (m *memoryQuestionStore) AcceptAnswer(ctx context.Context, questionID, answerID uuid.UUID) error {
	if m.failAccept != nil {
		return m.failAccept
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.questions[questionID]
	if !ok {
		return store.ErrQuestionNotFound
	}
	if q.HasAcceptedAnswer {
		return store.ErrQuestionDecided
	}
	a, ok := m.answers[answerID]
	if !ok || a.QuestionID != questionID {
		return store.ErrAnswerNotFound
	}
	q.HasAcceptedAnswer = true
	a.Accepted = true
	return nil
}

func (m *memoryQuestionStore) WithTx(tx *sql.Tx) store.QuestionStore {
	return m
}

// recordingOutbox collects enqueued events in order.
type recordingOutbox struct {
	mu         sync.Mutex
	enqueued   []*events.Event
	enqueueErr error
}

var _ store.OutboxStore = (*recordingOutbox)(nil)

func (o *recordingOutbox) Enqueue(ctx context.Context, event *events.Event) error {
	if o.enqueueErr != nil {
		return o.enqueueErr
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.enqueued = append(o.enqueued, event)
	return nil
}

func (o *recordingOutbox) ListPending(ctx context.Context, limit int) ([]*events.Event, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*events.Event, len(o.enqueued))
	copy(out, o.enqueued)
	return out, nil
}

func (o *recordingOutbox) MarkPublished(ctx context.Context, eventID uuid.UUID) error {
	return nil
}

func (o *recordingOutbox) RecordFailure(ctx context.Context, eventID uuid.UUID, deliveryErr error) error {
	return nil
}

func (o *recordingOutbox) WithTx(tx *sql.Tx) store.OutboxStore {
	return o
}

func (o *recordingOutbox) events() []*events.Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*events.Event, len(o.enqueued))
	copy(out, o.enqueued)
	return out
}

// stubTagValidator validates against a fixed slug set.
type stubTagValidator struct {
	known map[string]bool
	err   error
}

func (v *stubTagValidator) IsValid(ctx context.Context, slugs []string) (bool, error) {
	if v.err != nil {
		return false, v.err
	}
	if len(slugs) == 0 {
		return false, nil
	}
	for _, slug := range slugs {
		if !v.known[slug] {
			return false, nil
		}
	}
	return true, nil
}

// countingNudger counts dispatcher wake-ups.
type countingNudger struct {
	count atomic.Int64
}

func (n *countingNudger) Nudge() {
	n.count.Add(1)
}
