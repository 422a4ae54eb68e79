package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/SFrisendal/overflow/internal/events"
)

// OutboxStore persists domain events in the same database as the aggregates
// they describe, so the event row and the mutation commit or roll back as one
// atomic unit. A dispatcher drains pending rows and publishes them with
// retry, which is what makes delivery at-least-once instead of best-effort.
type OutboxStore interface {
	// Enqueue inserts a pending outbox row for the event. Call it through
	// WithTx inside the same transaction as the aggregate mutation.
	Enqueue(ctx context.Context, event *events.Event) error

	// ListPending returns up to limit undelivered events, oldest first.
	ListPending(ctx context.Context, limit int) ([]*events.Event, error)

	// MarkPublished records that the event was delivered to the channel.
	MarkPublished(ctx context.Context, eventID uuid.UUID) error

	// RecordFailure increments the event's attempt counter and stores the
	// delivery error, leaving the row pending for a later sweep.
	RecordFailure(ctx context.Context, eventID uuid.UUID, deliveryErr error) error

	// WithTx returns a new OutboxStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) OutboxStore
}
