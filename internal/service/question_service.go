package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SFrisendal/overflow/internal/domain"
	"github.com/SFrisendal/overflow/internal/events"
	"github.com/SFrisendal/overflow/internal/store"
)

// TagValidator reports whether every proposed tag slug exists in the tag
// catalog. A single unknown slug fails the whole list.
type TagValidator interface {
	IsValid(ctx context.Context, slugs []string) (bool, error)
}

// DispatcherNudger wakes the outbox dispatcher after a commit so delivery
// starts without waiting for the next poll tick.
type DispatcherNudger interface {
	Nudge()
}

// QuestionService provides question and answer lifecycle operations.
//
// Every mutation commits its aggregate change and the matching outbox event
// in one transaction; there is no code path that writes one without the
// other. Per-operation authorization beyond the asker checks below (e.g.
// must-be-responder on answer edits) is enforced by the HTTP layer before
// calls reach this service.
type QuestionService interface {
	// CreateQuestion validates and posts a new question asked by the given
	// identity. All tag slugs must exist in the tag catalog.
	CreateQuestion(
		ctx context.Context,
		asker domain.Identity,
		title, content string,
		tagSlugs []string,
	) (*domain.Question, error)

	// GetQuestion retrieves a question with its answers and registers the
	// view in the background. The returned snapshot does not include the
	// view being counted.
	GetQuestion(ctx context.Context, questionID uuid.UUID) (*domain.Question, error)

	// ListQuestions retrieves questions newest first, without answers.
	// A non-empty tagSlug restricts the result to questions carrying it.
	ListQuestions(ctx context.Context, tagSlug string) ([]*domain.Question, error)

	// UpdateQuestion replaces the question's title, content and tags.
	// Only the original asker may update.
	UpdateQuestion(
		ctx context.Context,
		caller domain.Identity,
		questionID uuid.UUID,
		title, content string,
		tagSlugs []string,
	) (*domain.Question, error)

	// DeleteQuestion removes the question and all its answers.
	// Only the original asker may delete.
	DeleteQuestion(ctx context.Context, caller domain.Identity, questionID uuid.UUID) error

	// PostAnswer adds an answer to the question by the given responder.
	PostAnswer(
		ctx context.Context,
		responder domain.Identity,
		questionID uuid.UUID,
		content string,
	) (*domain.Answer, error)

	// UpdateAnswer replaces the content of an answer on the given question.
	UpdateAnswer(
		ctx context.Context,
		questionID, answerID uuid.UUID,
		content string,
	) (*domain.Answer, error)

	// DeleteAnswer removes a non-accepted answer from the given question.
	DeleteAnswer(ctx context.Context, questionID, answerID uuid.UUID) error

	// AcceptAnswer marks the answer as the question's accepted answer.
	// Only the original asker may accept. The first accept wins;
	// acceptance is permanent.
	AcceptAnswer(ctx context.Context, caller domain.Identity, questionID, answerID uuid.UUID) error
}

// questionServiceImpl implements the QuestionService interface
type questionServiceImpl struct {
	db        *sql.DB
	questions store.QuestionStore
	outbox    store.OutboxStore
	tagCache  TagValidator
	nudger    DispatcherNudger
	logger    *slog.Logger

	// viewTimeout bounds the background view-count write after the read
	// request that triggered it has already returned.
	viewTimeout time.Duration

	// runInTx is injectable for testing
	runInTx func(ctx context.Context, db *sql.DB, fn store.TxFn) error
}

var _ QuestionService = (*questionServiceImpl)(nil)

// NewQuestionService creates a new QuestionService.
// It returns an error if any of the required dependencies are nil.
func NewQuestionService(
	db *sql.DB,
	questions store.QuestionStore,
	outbox store.OutboxStore,
	tagCache TagValidator,
	nudger DispatcherNudger,
	logger *slog.Logger,
) (QuestionService, error) {
	if db == nil {
		return nil, &QuestionServiceError{
			Operation: "create_service",
			Message:   "db cannot be nil",
		}
	}
	if questions == nil {
		return nil, &QuestionServiceError{
			Operation: "create_service",
			Message:   "questions store cannot be nil",
		}
	}
	if outbox == nil {
		return nil, &QuestionServiceError{
			Operation: "create_service",
			Message:   "outbox store cannot be nil",
		}
	}
	if tagCache == nil {
		return nil, &QuestionServiceError{
			Operation: "create_service",
			Message:   "tag cache cannot be nil",
		}
	}
	if nudger == nil {
		return nil, &QuestionServiceError{
			Operation: "create_service",
			Message:   "nudger cannot be nil",
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &questionServiceImpl{
		db:          db,
		questions:   questions,
		outbox:      outbox,
		tagCache:    tagCache,
		nudger:      nudger,
		logger:      logger.With("component", "question_service"),
		viewTimeout: 5 * time.Second,
		runInTx:     store.RunInTransaction,
	}, nil
}

// validateTags checks every proposed slug against the tag catalog cache.
func (s *questionServiceImpl) validateTags(ctx context.Context, tagSlugs []string) error {
	valid, err := s.tagCache.IsValid(ctx, tagSlugs)
	if err != nil {
		s.logger.Error("tag validation unavailable",
			"error", err,
			"tag_slugs", tagSlugs)
		return err
	}
	if !valid {
		return domain.ErrUnknownTags
	}
	return nil
}

// commitWithEvent runs the mutation and the outbox insert for its event in
// one transaction, then nudges the dispatcher once the commit has succeeded.
func (s *questionServiceImpl) commitWithEvent(
	ctx context.Context,
	event *events.Event,
	mutate func(ctx context.Context, questions store.QuestionStore) error,
) error {
	err := s.runInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := mutate(ctx, s.questions.WithTx(tx)); err != nil {
			return err
		}
		return s.outbox.WithTx(tx).Enqueue(ctx, event)
	})
	if err != nil {
		return err
	}

	s.nudger.Nudge()
	return nil
}

// CreateQuestion validates the question and its tags, then commits the new
// aggregate together with a question.created outbox event.
func (s *questionServiceImpl) CreateQuestion(
	ctx context.Context,
	asker domain.Identity,
	title, content string,
	tagSlugs []string,
) (*domain.Question, error) {
	question, err := domain.NewQuestion(asker, title, content, tagSlugs)
	if err != nil {
		return nil, NewQuestionServiceError("create_question", "invalid question", err)
	}

	if err := s.validateTags(ctx, question.TagSlugs); err != nil {
		return nil, NewQuestionServiceError("create_question", "tag validation failed", err)
	}

	event, err := events.NewEvent(events.TypeQuestionCreated, question.ID, events.QuestionCreatedPayload{
		QuestionID: question.ID,
		Title:      question.Title,
		Content:    question.Content,
		CreatedAt:  question.CreatedAt,
		TagSlugs:   question.TagSlugs,
	})
	if err != nil {
		return nil, NewQuestionServiceError("create_question", "failed to build event", err)
	}

	err = s.commitWithEvent(ctx, event, func(ctx context.Context, questions store.QuestionStore) error {
		return questions.Create(ctx, question)
	})
	if err != nil {
		s.logger.Error("failed to create question",
			"error", err,
			"asker_id", asker.ID)
		return nil, NewQuestionServiceError("create_question", "failed to save question", err)
	}

	s.logger.Info("question created",
		"question_id", question.ID,
		"asker_id", asker.ID,
		"tag_slugs", question.TagSlugs)
	return question, nil
}

// GetQuestion retrieves the question with its answers. The view counter is
// incremented in the background; a failed increment never fails the read.
func (s *questionServiceImpl) GetQuestion(
	ctx context.Context,
	questionID uuid.UUID,
) (*domain.Question, error) {
	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, store.ErrQuestionNotFound) {
			return nil, ErrQuestionNotFound
		}
		s.logger.Error("failed to retrieve question",
			"error", err,
			"question_id", questionID)
		return nil, NewQuestionServiceError("get_question", "failed to retrieve question", err)
	}

	go func() {
		viewCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.viewTimeout)
		defer cancel()

		if err := s.questions.IncrementViewCount(viewCtx, questionID); err != nil {
			s.logger.Warn("failed to register question view",
				"error", err,
				"question_id", questionID)
		}
	}()

	return question, nil
}

// ListQuestions retrieves questions newest first, optionally filtered by tag.
func (s *questionServiceImpl) ListQuestions(
	ctx context.Context,
	tagSlug string,
) ([]*domain.Question, error) {
	questions, err := s.questions.List(ctx, tagSlug)
	if err != nil {
		s.logger.Error("failed to list questions",
			"error", err,
			"tag_slug", tagSlug)
		return nil, NewQuestionServiceError("list_questions", "failed to list questions", err)
	}
	return questions, nil
}

// UpdateQuestion loads the aggregate, applies the asker-only update with
// validation, and commits the change with a question.updated outbox event.
func (s *questionServiceImpl) UpdateQuestion(
	ctx context.Context,
	caller domain.Identity,
	questionID uuid.UUID,
	title, content string,
	tagSlugs []string,
) (*domain.Question, error) {
	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, NewQuestionServiceError("update_question", "failed to retrieve question", err)
	}

	if err := s.validateTags(ctx, tagSlugs); err != nil {
		return nil, NewQuestionServiceError("update_question", "tag validation failed", err)
	}

	if err := question.ApplyUpdate(caller, title, content, tagSlugs); err != nil {
		return nil, NewQuestionServiceError("update_question", "update rejected", err)
	}

	event, err := events.NewEvent(events.TypeQuestionUpdated, question.ID, events.QuestionUpdatedPayload{
		QuestionID: question.ID,
		Title:      question.Title,
		Content:    question.Content,
		TagSlugs:   question.TagSlugs,
	})
	if err != nil {
		return nil, NewQuestionServiceError("update_question", "failed to build event", err)
	}

	err = s.commitWithEvent(ctx, event, func(ctx context.Context, questions store.QuestionStore) error {
		return questions.Update(ctx, question)
	})
	if err != nil {
		s.logger.Error("failed to update question",
			"error", err,
			"question_id", questionID)
		return nil, NewQuestionServiceError("update_question", "failed to save question", err)
	}

	s.logger.Info("question updated",
		"question_id", questionID,
		"caller_id", caller.ID)
	return question, nil
}

// DeleteQuestion removes the question and its answers after the asker-only
// check, committing the removal with a question.deleted outbox event.
func (s *questionServiceImpl) DeleteQuestion(
	ctx context.Context,
	caller domain.Identity,
	questionID uuid.UUID,
) error {
	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return NewQuestionServiceError("delete_question", "failed to retrieve question", err)
	}

	if err := question.AuthorizeMutation(caller); err != nil {
		return NewQuestionServiceError("delete_question", "delete rejected", err)
	}

	event, err := events.NewEvent(events.TypeQuestionDeleted, questionID, events.QuestionDeletedPayload{
		QuestionID: questionID,
	})
	if err != nil {
		return NewQuestionServiceError("delete_question", "failed to build event", err)
	}

	err = s.commitWithEvent(ctx, event, func(ctx context.Context, questions store.QuestionStore) error {
		return questions.Delete(ctx, questionID)
	})
	if err != nil {
		s.logger.Error("failed to delete question",
			"error", err,
			"question_id", questionID)
		return NewQuestionServiceError("delete_question", "failed to delete question", err)
	}

	s.logger.Info("question deleted",
		"question_id", questionID,
		"caller_id", caller.ID)
	return nil
}

// PostAnswer appends an answer and commits it together with the incremented
// answer counter and an answer.count_updated outbox event carrying the new
// total.
func (s *questionServiceImpl) PostAnswer(
	ctx context.Context,
	responder domain.Identity,
	questionID uuid.UUID,
	content string,
) (*domain.Answer, error) {
	answer, err := domain.NewAnswer(questionID, responder, content)
	if err != nil {
		return nil, NewQuestionServiceError("post_answer", "invalid answer", err)
	}

	err = s.runInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		count, err := s.questions.WithTx(tx).CreateAnswer(ctx, answer)
		if err != nil {
			return err
		}

		event, err := events.NewEvent(events.TypeAnswerCountUpdated, questionID, events.AnswerCountUpdatedPayload{
			QuestionID:  questionID,
			AnswerCount: count,
		})
		if err != nil {
			return err
		}
		return s.outbox.WithTx(tx).Enqueue(ctx, event)
	})
	if err != nil {
		s.logger.Error("failed to post answer",
			"error", err,
			"question_id", questionID,
			"responder_id", responder.ID)
		return nil, NewQuestionServiceError("post_answer", "failed to save answer", err)
	}

	s.nudger.Nudge()
	s.logger.Info("answer posted",
		"answer_id", answer.ID,
		"question_id", questionID,
		"responder_id", responder.ID)
	return answer, nil
}

// UpdateAnswer replaces the content of an answer. The answer must belong to
// the stated question. No event is emitted; answer content is not part of
// any downstream projection.
func (s *questionServiceImpl) UpdateAnswer(
	ctx context.Context,
	questionID, answerID uuid.UUID,
	content string,
) (*domain.Answer, error) {
	answer, err := s.questions.GetAnswerByID(ctx, answerID)
	if err != nil {
		return nil, NewQuestionServiceError("update_answer", "failed to retrieve answer", err)
	}

	if !answer.BelongsTo(questionID) {
		return nil, domain.ErrAnswerMismatch
	}

	if err := answer.UpdateContent(content); err != nil {
		return nil, NewQuestionServiceError("update_answer", "update rejected", err)
	}

	if err := s.questions.UpdateAnswer(ctx, answer); err != nil {
		s.logger.Error("failed to update answer",
			"error", err,
			"answer_id", answerID,
			"question_id", questionID)
		return nil, NewQuestionServiceError("update_answer", "failed to save answer", err)
	}

	s.logger.Info("answer updated",
		"answer_id", answerID,
		"question_id", questionID)
	return answer, nil
}

// DeleteAnswer removes a non-accepted answer and commits the decremented
// answer counter with an answer.count_updated outbox event.
func (s *questionServiceImpl) DeleteAnswer(
	ctx context.Context,
	questionID, answerID uuid.UUID,
) error {
	answer, err := s.questions.GetAnswerByID(ctx, answerID)
	if err != nil {
		return NewQuestionServiceError("delete_answer", "failed to retrieve answer", err)
	}

	if !answer.BelongsTo(questionID) {
		return domain.ErrAnswerMismatch
	}

	err = s.runInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		count, err := s.questions.WithTx(tx).DeleteAnswer(ctx, answerID)
		if err != nil {
			return err
		}

		event, err := events.NewEvent(events.TypeAnswerCountUpdated, questionID, events.AnswerCountUpdatedPayload{
			QuestionID:  questionID,
			AnswerCount: count,
		})
		if err != nil {
			return err
		}
		return s.outbox.WithTx(tx).Enqueue(ctx, event)
	})
	if err != nil {
		if errors.Is(err, store.ErrAnswerIsAccepted) {
			return domain.ErrAnswerAccepted
		}
		s.logger.Error("failed to delete answer",
			"error", err,
			"answer_id", answerID,
			"question_id", questionID)
		return NewQuestionServiceError("delete_answer", "failed to delete answer", err)
	}

	s.nudger.Nudge()
	s.logger.Info("answer deleted",
		"answer_id", answerID,
		"question_id", questionID)
	return nil
}

// AcceptAnswer marks the answer accepted and the question decided. The
// domain guard gives a friendly rejection on the loaded snapshot; the
// store's conditional update remains the authority under concurrent accepts.
func (s *questionServiceImpl) AcceptAnswer(
	ctx context.Context,
	caller domain.Identity,
	questionID, answerID uuid.UUID,
) error {
	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return NewQuestionServiceError("accept_answer", "failed to retrieve question", err)
	}

	if err := question.AuthorizeMutation(caller); err != nil {
		return NewQuestionServiceError("accept_answer", "caller is not the asker", err)
	}

	answer, err := s.questions.GetAnswerByID(ctx, answerID)
	if err != nil {
		return NewQuestionServiceError("accept_answer", "failed to retrieve answer", err)
	}

	if err := question.GuardAccept(answer); err != nil {
		return NewQuestionServiceError("accept_answer", "accept rejected", err)
	}

	event, err := events.NewEvent(events.TypeAnswerAccepted, questionID, events.AnswerAcceptedPayload{
		QuestionID: questionID,
	})
	if err != nil {
		return NewQuestionServiceError("accept_answer", "failed to build event", err)
	}

	err = s.commitWithEvent(ctx, event, func(ctx context.Context, questions store.QuestionStore) error {
		return questions.AcceptAnswer(ctx, questionID, answerID)
	})
	if err != nil {
		if errors.Is(err, store.ErrQuestionDecided) {
			return domain.ErrAlreadyAccepted
		}
		s.logger.Error("failed to accept answer",
			"error", err,
			"answer_id", answerID,
			"question_id", questionID)
		return NewQuestionServiceError("accept_answer", "failed to accept answer", err)
	}

	s.logger.Info("answer accepted",
		"answer_id", answerID,
		"question_id", questionID)
	return nil
}
