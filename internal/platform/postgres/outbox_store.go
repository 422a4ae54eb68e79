package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/SFrisendal/overflow/internal/events"
	"github.com/SFrisendal/overflow/internal/platform/logger"
	"github.com/SFrisendal/overflow/internal/store"
)

// PostgresOutboxStore implements the store.OutboxStore interface.
// Outbox rows live in the same database as the aggregates so Enqueue can join
// the mutation's transaction through WithTx.
type PostgresOutboxStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresOutboxStore creates a new PostgreSQL implementation of the
// OutboxStore interface.
func NewPostgresOutboxStore(db store.DBTX, logger *slog.Logger) *PostgresOutboxStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresOutboxStore{
		db:     db,
		logger: logger.With(slog.String("component", "outbox_store")),
	}
}

// Ensure PostgresOutboxStore implements store.OutboxStore interface
var _ store.OutboxStore = (*PostgresOutboxStore)(nil)

// WithTx implements store.OutboxStore.WithTx
func (s *PostgresOutboxStore) WithTx(tx *sql.Tx) store.OutboxStore {
	return &PostgresOutboxStore{
		db:     tx,
		logger: s.logger,
	}
}

// Enqueue implements store.OutboxStore.Enqueue
func (s *PostgresOutboxStore) Enqueue(ctx context.Context, event *events.Event) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO outbox_events (id, event_type, question_id, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		event.ID,
		string(event.Type),
		event.QuestionID,
		[]byte(event.Payload),
		event.OccurredAt,
	)
	if err != nil {
		log.Error("failed to enqueue outbox event",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", string(event.Type)))
		return err
	}

	log.Debug("outbox event enqueued",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.Type)))
	return nil
}

// ListPending implements store.OutboxStore.ListPending
// SKIP LOCKED keeps rows exclusive only for the duration of the statement (or
// of the surrounding transaction when called through WithTx), so concurrent
// dispatchers can still pick up the same row. Delivery is at-least-once and
// consumers deduplicate on event ID, so the occasional double-send is accepted.
func (s *PostgresOutboxStore) ListPending(ctx context.Context, limit int) ([]*events.Event, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, event_type, question_id, payload, occurred_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY occurred_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		log.Error("failed to list pending outbox events", slog.String("error", err.Error()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var pending []*events.Event
	for rows.Next() {
		var event events.Event
		var eventType string
		if err := rows.Scan(
			&event.ID,
			&eventType,
			&event.QuestionID,
			&event.Payload,
			&event.OccurredAt,
		); err != nil {
			log.Error("failed to scan outbox row", slog.String("error", err.Error()))
			return nil, err
		}
		event.Type = events.EventType(eventType)
		pending = append(pending, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return pending, nil
}

// MarkPublished implements store.OutboxStore.MarkPublished
func (s *PostgresOutboxStore) MarkPublished(ctx context.Context, eventID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE outbox_events SET published_at = NOW(), last_error = NULL WHERE id = $1`,
		eventID)
	if err != nil {
		log.Error("failed to mark outbox event published",
			slog.String("error", err.Error()),
			slog.String("event_id", eventID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// RecordFailure implements store.OutboxStore.RecordFailure
func (s *PostgresOutboxStore) RecordFailure(ctx context.Context, eventID uuid.UUID, deliveryErr error) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx,
		`UPDATE outbox_events SET attempts = attempts + 1, last_error = $2 WHERE id = $1`,
		eventID, deliveryErr.Error())
	if err != nil {
		log.Error("failed to record outbox delivery failure",
			slog.String("error", err.Error()),
			slog.String("event_id", eventID.String()))
		return err
	}
	return nil
}
