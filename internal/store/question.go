package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/SFrisendal/overflow/internal/domain"
)

// QuestionStore defines the interface for question and answer persistence.
//
// Counter deltas and flag sets are applied as indivisible operations scoped to
// one question row, never as a read-then-write split across two round trips,
// so concurrent requests on the same question cannot lose updates.
type QuestionStore interface {
	// Create saves a new question to the store.
	// Returns validation errors from the domain Question if data is invalid.
	Create(ctx context.Context, question *domain.Question) error

	// GetByID retrieves a question by its unique ID, including its answers.
	// Returns ErrQuestionNotFound if the question does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Question, error)

	// List retrieves questions ordered by creation time, newest first,
	// without their answers. A non-empty tagSlug restricts the result to
	// questions carrying that tag.
	List(ctx context.Context, tagSlug string) ([]*domain.Question, error)

	// Update replaces the question's title, content, tags and update
	// timestamp. Counters and flags are not touched by this method.
	// Returns ErrQuestionNotFound if the question does not exist.
	Update(ctx context.Context, question *domain.Question) error

	// Delete removes the question. Its answers are owned by the question
	// and are removed with it.
	// Returns ErrQuestionNotFound if the question does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// IncrementViewCount adds one to the question's view counter as a
	// single atomic update.
	IncrementViewCount(ctx context.Context, id uuid.UUID) error

	// CreateAnswer appends an answer and increments the parent question's
	// answer counter by exactly one, returning the new counter value.
	// Returns ErrQuestionNotFound if the parent question does not exist.
	CreateAnswer(ctx context.Context, answer *domain.Answer) (int, error)

	// GetAnswerByID retrieves an answer by its unique ID.
	// Returns ErrAnswerNotFound if the answer does not exist.
	GetAnswerByID(ctx context.Context, id uuid.UUID) (*domain.Answer, error)

	// UpdateAnswer replaces the answer's content and update timestamp.
	// Returns ErrAnswerNotFound if the answer does not exist.
	UpdateAnswer(ctx context.Context, answer *domain.Answer) error

	// DeleteAnswer removes a non-accepted answer and decrements the parent
	// question's answer counter by exactly one, returning the new counter
	// value. Returns ErrAnswerNotFound if the answer does not exist and
	// ErrAnswerIsAccepted if the answer is currently accepted.
	DeleteAnswer(ctx context.Context, answerID uuid.UUID) (int, error)

	// AcceptAnswer marks the answer accepted and the question decided as
	// one atomic unit, guarded by the question not yet being decided.
	// Returns ErrQuestionDecided if another answer won the accept race,
	// ErrQuestionNotFound or ErrAnswerNotFound when either side is absent.
	AcceptAnswer(ctx context.Context, questionID, answerID uuid.UUID) error

	// WithTx returns a new QuestionStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) QuestionStore
}
