package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrPublishFailed is returned when an event could not be delivered to the
// message channel. A mutation that already committed is never rolled back
// because of it; callers log it as a degraded-success outcome.
var ErrPublishFailed = errors.New("event publication failed")

// Publisher delivers domain events to the message channel.
type Publisher interface {
	// Publish attempts delivery of the event. Delivery is at-least-once;
	// a nil return means the channel accepted the event at least once.
	Publish(ctx context.Context, event *Event) error
}

// Subscriber consumes events from the channel. Implementations must be
// idempotent: the same event may be delivered more than once.
type Subscriber interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *Event) error
}

// Bus is an in-process implementation of the message channel: a single
// logical topic that fans each published event out to all subscribers.
// A failing subscriber does not block delivery to the others.
type Bus struct {
	subscribers []Subscriber
	mu          sync.RWMutex
	logger      *slog.Logger
}

// NewBus creates a new Bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make([]Subscriber, 0),
		logger:      logger.With("component", "event_bus"),
	}
}

// Ensure Bus implements Publisher
var _ Publisher = (*Bus)(nil)

// Subscribe registers a new subscriber to receive events.
func (b *Bus) Subscribe(subscriber Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, subscriber)
	b.logger.Debug("registered new subscriber", "subscriber_count", len(b.subscribers))
}

// Publish delivers the event to every subscriber. If a subscriber fails the
// event is still delivered to the rest, and the failure is reported wrapped
// in ErrPublishFailed so the caller can retry the whole delivery; subscribers
// tolerate the resulting duplicates.
func (b *Bus) Publish(ctx context.Context, event *Event) error {
	b.mu.RLock()
	subscribers := make([]Subscriber, len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.RUnlock()

	b.logger.Debug("publishing event",
		"event_id", event.ID,
		"event_type", event.Type,
		"question_id", event.QuestionID,
		"subscriber_count", len(subscribers))

	var firstErr error
	for i, subscriber := range subscribers {
		if err := subscriber.HandleEvent(ctx, event); err != nil {
			b.logger.Error("subscriber failed to process event",
				"error", err,
				"subscriber_index", i,
				"event_id", event.ID,
				"event_type", event.Type)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if firstErr != nil {
		return errors.Join(ErrPublishFailed, firstErr)
	}
	return nil
}
