package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/SFrisendal/overflow/internal/domain"
	"github.com/SFrisendal/overflow/internal/platform/logger"
	"github.com/SFrisendal/overflow/internal/store"
)

// PostgresQuestionStore implements the store.QuestionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresQuestionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuestionStore creates a new PostgreSQL implementation of the
// QuestionStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
func NewPostgresQuestionStore(db store.DBTX, logger *slog.Logger) *PostgresQuestionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresQuestionStore{
		db:     db,
		logger: logger.With(slog.String("component", "question_store")),
	}
}

// Ensure PostgresQuestionStore implements store.QuestionStore interface
var _ store.QuestionStore = (*PostgresQuestionStore)(nil)

// WithTx implements store.QuestionStore.WithTx
func (s *PostgresQuestionStore) WithTx(tx *sql.Tx) store.QuestionStore {
	return &PostgresQuestionStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.QuestionStore.Create
func (s *PostgresQuestionStore) Create(ctx context.Context, question *domain.Question) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := question.Validate(); err != nil {
		log.Warn("question validation failed during create",
			slog.String("error", err.Error()),
			slog.String("question_id", question.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	tagSlugs, err := json.Marshal(question.TagSlugs)
	if err != nil {
		return fmt.Errorf("failed to serialize tag slugs: %w", err)
	}

	query := `
		INSERT INTO questions (id, title, content, tag_slugs, asker_id, asker_display_name,
			created_at, updated_at, view_count, answer_count, has_accepted_answer)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		question.ID,
		question.Title,
		question.Content,
		tagSlugs,
		question.AskerID,
		question.AskerDisplayName,
		question.CreatedAt,
		question.UpdatedAt,
		question.ViewCount,
		question.AnswerCount,
		question.HasAcceptedAnswer,
	)

	if err != nil {
		log.Error("failed to create question",
			slog.String("error", err.Error()),
			slog.String("question_id", question.ID.String()))
		return err
	}

	log.Info("question created successfully",
		slog.String("question_id", question.ID.String()),
		slog.String("asker_id", question.AskerID.String()))
	return nil
}

const questionColumns = `id, title, content, tag_slugs, asker_id, asker_display_name,
	created_at, updated_at, view_count, answer_count, has_accepted_answer`

// scanQuestion scans one question row from the given scanner.
func scanQuestion(scan func(dest ...any) error) (*domain.Question, error) {
	var question domain.Question
	var tagSlugs []byte
	var updatedAt sql.NullTime

	err := scan(
		&question.ID,
		&question.Title,
		&question.Content,
		&tagSlugs,
		&question.AskerID,
		&question.AskerDisplayName,
		&question.CreatedAt,
		&updatedAt,
		&question.ViewCount,
		&question.AnswerCount,
		&question.HasAcceptedAnswer,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(tagSlugs, &question.TagSlugs); err != nil {
		return nil, fmt.Errorf("failed to deserialize tag slugs: %w", err)
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		question.UpdatedAt = &t
	}

	return &question, nil
}

// GetByID implements store.QuestionStore.GetByID
// It retrieves a question with all of its answers.
func (s *PostgresQuestionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`

	row := s.db.QueryRowContext(ctx, query, id)
	question, err := scanQuestion(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("question not found", slog.String("question_id", id.String()))
			return nil, store.ErrQuestionNotFound
		}
		log.Error("failed to get question by ID",
			slog.String("error", err.Error()),
			slog.String("question_id", id.String()))
		return nil, err
	}

	answers, err := s.listAnswers(ctx, id)
	if err != nil {
		log.Error("failed to list answers for question",
			slog.String("error", err.Error()),
			slog.String("question_id", id.String()))
		return nil, err
	}
	question.Answers = answers

	return question, nil
}

// List implements store.QuestionStore.List
func (s *PostgresQuestionStore) List(ctx context.Context, tagSlug string) ([]*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + questionColumns + ` FROM questions`
	args := []any{}
	if tagSlug != "" {
		query += ` WHERE tag_slugs @> jsonb_build_array($1::text)`
		args = append(args, tagSlug)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list questions",
			slog.String("error", err.Error()),
			slog.String("tag", tagSlug))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var questions []*domain.Question
	for rows.Next() {
		question, err := scanQuestion(rows.Scan)
		if err != nil {
			log.Error("failed to scan question row", slog.String("error", err.Error()))
			return nil, err
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	if questions == nil {
		questions = []*domain.Question{}
	}
	return questions, nil
}

// Update implements store.QuestionStore.Update
// Counters and flags are owned by their dedicated single-statement updates
// and deliberately excluded here.
func (s *PostgresQuestionStore) Update(ctx context.Context, question *domain.Question) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := question.Validate(); err != nil {
		log.Warn("question validation failed during update",
			slog.String("error", err.Error()),
			slog.String("question_id", question.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	tagSlugs, err := json.Marshal(question.TagSlugs)
	if err != nil {
		return fmt.Errorf("failed to serialize tag slugs: %w", err)
	}

	query := `
		UPDATE questions
		SET title = $1, content = $2, tag_slugs = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		question.Title,
		question.Content,
		tagSlugs,
		question.UpdatedAt,
		question.ID,
	)
	if err != nil {
		log.Error("failed to update question",
			slog.String("error", err.Error()),
			slog.String("question_id", question.ID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		log.Debug("question not found for update",
			slog.String("question_id", question.ID.String()))
		return store.ErrQuestionNotFound
	}

	log.Info("question updated successfully",
		slog.String("question_id", question.ID.String()))
	return nil
}

// Delete implements store.QuestionStore.Delete
// Child answers are removed by the questions FK cascade.
func (s *PostgresQuestionStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete question",
			slog.String("error", err.Error()),
			slog.String("question_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrQuestionNotFound
	}

	log.Info("question deleted successfully", slog.String("question_id", id.String()))
	return nil
}

// IncrementViewCount implements store.QuestionStore.IncrementViewCount
// The increment is a single atomic update so concurrent reads never lose
// counts to interleaving.
func (s *PostgresQuestionStore) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE questions SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to increment view count",
			slog.String("error", err.Error()),
			slog.String("question_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrQuestionNotFound
	}
	return nil
}

const answerColumns = `id, question_id, content, responder_id, responder_display_name,
	created_at, updated_at, accepted`

func scanAnswer(scan func(dest ...any) error) (*domain.Answer, error) {
	var answer domain.Answer
	var updatedAt sql.NullTime

	err := scan(
		&answer.ID,
		&answer.QuestionID,
		&answer.Content,
		&answer.ResponderID,
		&answer.ResponderDisplayName,
		&answer.CreatedAt,
		&updatedAt,
		&answer.Accepted,
	)
	if err != nil {
		return nil, err
	}

	if updatedAt.Valid {
		t := updatedAt.Time
		answer.UpdatedAt = &t
	}
	return &answer, nil
}

// listAnswers loads all answers of one question, oldest first.
func (s *PostgresQuestionStore) listAnswers(ctx context.Context, questionID uuid.UUID) ([]*domain.Answer, error) {
	query := `SELECT ` + answerColumns + ` FROM answers WHERE question_id = $1 ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, questionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var answers []*domain.Answer
	for rows.Next() {
		answer, err := scanAnswer(rows.Scan)
		if err != nil {
			return nil, err
		}
		answers = append(answers, answer)
	}
	return answers, rows.Err()
}

// CreateAnswer implements store.QuestionStore.CreateAnswer
// The counter bump and the insert must run in the same transaction; call this
// through WithTx.
func (s *PostgresQuestionStore) CreateAnswer(ctx context.Context, answer *domain.Answer) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := answer.Validate(); err != nil {
		log.Warn("answer validation failed during create",
			slog.String("error", err.Error()),
			slog.String("answer_id", answer.ID.String()))
		return 0, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	var newCount int
	err := s.db.QueryRowContext(ctx,
		`UPDATE questions SET answer_count = answer_count + 1 WHERE id = $1 RETURNING answer_count`,
		answer.QuestionID,
	).Scan(&newCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrQuestionNotFound
		}
		log.Error("failed to increment answer count",
			slog.String("error", err.Error()),
			slog.String("question_id", answer.QuestionID.String()))
		return 0, err
	}

	query := `
		INSERT INTO answers (id, question_id, content, responder_id, responder_display_name,
			created_at, updated_at, accepted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		answer.ID,
		answer.QuestionID,
		answer.Content,
		answer.ResponderID,
		answer.ResponderDisplayName,
		answer.CreatedAt,
		answer.UpdatedAt,
		answer.Accepted,
	)
	if err != nil {
		if isPgError(err, pgForeignKeyViolationCode) {
			return 0, store.ErrQuestionNotFound
		}
		log.Error("failed to create answer",
			slog.String("error", err.Error()),
			slog.String("answer_id", answer.ID.String()))
		return 0, err
	}

	log.Info("answer created successfully",
		slog.String("answer_id", answer.ID.String()),
		slog.String("question_id", answer.QuestionID.String()),
		slog.Int("answer_count", newCount))
	return newCount, nil
}

// GetAnswerByID implements store.QuestionStore.GetAnswerByID
func (s *PostgresQuestionStore) GetAnswerByID(ctx context.Context, id uuid.UUID) (*domain.Answer, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + answerColumns + ` FROM answers WHERE id = $1`

	row := s.db.QueryRowContext(ctx, query, id)
	answer, err := scanAnswer(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAnswerNotFound
		}
		log.Error("failed to get answer by ID",
			slog.String("error", err.Error()),
			slog.String("answer_id", id.String()))
		return nil, err
	}
	return answer, nil
}

// UpdateAnswer implements store.QuestionStore.UpdateAnswer
func (s *PostgresQuestionStore) UpdateAnswer(ctx context.Context, answer *domain.Answer) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := answer.Validate(); err != nil {
		log.Warn("answer validation failed during update",
			slog.String("error", err.Error()),
			slog.String("answer_id", answer.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `UPDATE answers SET content = $1, updated_at = $2 WHERE id = $3`
	result, err := s.db.ExecContext(ctx, query, answer.Content, answer.UpdatedAt, answer.ID)
	if err != nil {
		log.Error("failed to update answer",
			slog.String("error", err.Error()),
			slog.String("answer_id", answer.ID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrAnswerNotFound
	}
	return nil
}

// DeleteAnswer implements store.QuestionStore.DeleteAnswer
// The delete is guarded on accepted = FALSE so the accepted answer can never
// be removed, regardless of what the caller read earlier. Call through WithTx
// so the counter decrement commits with the removal.
func (s *PostgresQuestionStore) DeleteAnswer(ctx context.Context, answerID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var questionID uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM answers WHERE id = $1 AND accepted = FALSE RETURNING question_id`,
		answerID,
	).Scan(&questionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Distinguish a missing answer from an accepted one.
			var accepted bool
			checkErr := s.db.QueryRowContext(ctx,
				`SELECT accepted FROM answers WHERE id = $1`, answerID).Scan(&accepted)
			if checkErr == nil && accepted {
				return 0, store.ErrAnswerIsAccepted
			}
			return 0, store.ErrAnswerNotFound
		}
		log.Error("failed to delete answer",
			slog.String("error", err.Error()),
			slog.String("answer_id", answerID.String()))
		return 0, err
	}

	var newCount int
	err = s.db.QueryRowContext(ctx,
		`UPDATE questions SET answer_count = answer_count - 1 WHERE id = $1 RETURNING answer_count`,
		questionID,
	).Scan(&newCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrQuestionNotFound
		}
		log.Error("failed to decrement answer count",
			slog.String("error", err.Error()),
			slog.String("question_id", questionID.String()))
		return 0, err
	}

	log.Info("answer deleted successfully",
		slog.String("answer_id", answerID.String()),
		slog.String("question_id", questionID.String()),
		slog.Int("answer_count", newCount))
	return newCount, nil
}

// AcceptAnswer implements store.QuestionStore.AcceptAnswer
// Both flag sets are conditional single-statement updates; under concurrent
// accepts exactly one caller flips the question and everyone else gets
// ErrQuestionDecided. Call through WithTx so both flags commit together.
func (s *PostgresQuestionStore) AcceptAnswer(ctx context.Context, questionID, answerID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE questions SET has_accepted_answer = TRUE WHERE id = $1 AND has_accepted_answer = FALSE`,
		questionID)
	if err != nil {
		log.Error("failed to mark question decided",
			slog.String("error", err.Error()),
			slog.String("question_id", questionID.String()))
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		var exists bool
		checkErr := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM questions WHERE id = $1)`, questionID).Scan(&exists)
		if checkErr == nil && !exists {
			return store.ErrQuestionNotFound
		}
		return store.ErrQuestionDecided
	}

	result, err = s.db.ExecContext(ctx,
		`UPDATE answers SET accepted = TRUE WHERE id = $1 AND question_id = $2 AND accepted = FALSE`,
		answerID, questionID)
	if err != nil {
		log.Error("failed to mark answer accepted",
			slog.String("error", err.Error()),
			slog.String("answer_id", answerID.String()))
		return err
	}
	rowsAffected, err = result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrAnswerNotFound
	}

	log.Info("answer accepted successfully",
		slog.String("question_id", questionID.String()),
		slog.String("answer_id", answerID.String()))
	return nil
}
