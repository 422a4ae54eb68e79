package api

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/SFrisendal/overflow/internal/domain"
	"github.com/SFrisendal/overflow/internal/service"
	"github.com/SFrisendal/overflow/internal/store"
)

// stubQuestionService implements service.QuestionService with function
// fields so each test overrides only the calls it cares about.
type stubQuestionService struct {
	createQuestionFn func(ctx context.Context, asker domain.Identity, title, content string, tagSlugs []string) (*domain.Question, error)
	getQuestionFn    func(ctx context.Context, questionID uuid.UUID) (*domain.Question, error)
	listQuestionsFn  func(ctx context.Context, tagSlug string) ([]*domain.Question, error)
	updateQuestionFn func(ctx context.Context, caller domain.Identity, questionID uuid.UUID, title, content string, tagSlugs []string) (*domain.Question, error)
	deleteQuestionFn func(ctx context.Context, caller domain.Identity, questionID uuid.UUID) error
	postAnswerFn     func(ctx context.Context, responder domain.Identity, questionID uuid.UUID, content string) (*domain.Answer, error)
	updateAnswerFn   func(ctx context.Context, questionID, answerID uuid.UUID, content string) (*domain.Answer, error)
	deleteAnswerFn   func(ctx context.Context, questionID, answerID uuid.UUID) error
	acceptAnswerFn   func(ctx context.Context, caller domain.Identity, questionID, answerID uuid.UUID) error
}

var _ service.QuestionService = (*stubQuestionService)(nil)

var errStubNotConfigured = errors.New("stub method not configured")

func (s *stubQuestionService) CreateQuestion(
	ctx context.Context,
	asker domain.Identity,
	title, content string,
	tagSlugs []string,
) (*domain.Question, error) {
	if s.createQuestionFn == nil {
		return nil, errStubNotConfigured
	}
	return s.createQuestionFn(ctx, asker, title, content, tagSlugs)
}

func (s *stubQuestionService) GetQuestion(
	ctx context.Context,
	questionID uuid.UUID,
) (*domain.Question, error) {
	if s.getQuestionFn == nil {
		return nil, errStubNotConfigured
	}
	return s.getQuestionFn(ctx, questionID)
}

func (s *stubQuestionService) ListQuestions(
	ctx context.Context,
	tagSlug string,
) ([]*domain.Question, error) {
	if s.listQuestionsFn == nil {
		return nil, errStubNotConfigured
	}
	return s.listQuestionsFn(ctx, tagSlug)
}

func (s *stubQuestionService) UpdateQuestion(
	ctx context.Context,
	caller domain.Identity,
	questionID uuid.UUID,
	title, content string,
	tagSlugs []string,
) (*domain.Question, error) {
	if s.updateQuestionFn == nil {
		return nil, errStubNotConfigured
	}
	return s.updateQuestionFn(ctx, caller, questionID, title, content, tagSlugs)
}

func (s *stubQuestionService) DeleteQuestion(
	ctx context.Context,
	caller domain.Identity,
	questionID uuid.UUID,
) error {
	if s.deleteQuestionFn == nil {
		return errStubNotConfigured
	}
	return s.deleteQuestionFn(ctx, caller, questionID)
}

func (s *stubQuestionService) PostAnswer(
	ctx context.Context,
	responder domain.Identity,
	questionID uuid.UUID,
	content string,
) (*domain.Answer, error) {
	if s.postAnswerFn == nil {
		return nil, errStubNotConfigured
	}
	return s.postAnswerFn(ctx, responder, questionID, content)
}

func (s *stubQuestionService) UpdateAnswer(
	ctx context.Context,
	questionID, answerID uuid.UUID,
	content string,
) (*domain.Answer, error) {
	if s.updateAnswerFn == nil {
		return nil, errStubNotConfigured
	}
	return s.updateAnswerFn(ctx, questionID, answerID, content)
}

func (s *stubQuestionService) DeleteAnswer(ctx context.Context, questionID, answerID uuid.UUID) error {
	if s.deleteAnswerFn == nil {
		return errStubNotConfigured
	}
	return s.deleteAnswerFn(ctx, questionID, answerID)
}

func (s *stubQuestionService) AcceptAnswer(ctx context.Context, caller domain.Identity, questionID, answerID uuid.UUID) error {
	if s.acceptAnswerFn == nil {
		return errStubNotConfigured
	}
	return s.acceptAnswerFn(ctx, caller, questionID, answerID)
}

// memoryUserStore is an in-memory store.UserStore for handler tests.
type memoryUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

var _ store.UserStore = (*memoryUserStore)(nil)

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (m *memoryUserStore) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return store.ErrEmailExists
		}
	}
	u := *user
	m.users[u.ID] = &u
	return nil
}

func (m *memoryUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (m *memoryUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			out := *u
			return &out, nil
		}
	}
	return nil, store.ErrUserNotFound
}
