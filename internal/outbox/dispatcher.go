// Package outbox drains persisted domain events and publishes them to the
// message channel. Writing the event row in the same transaction as the
// aggregate mutation and dispatching it here is what closes the dual-write
// gap: a crash after commit delays delivery instead of losing the event.
package outbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SFrisendal/overflow/internal/events"
	"github.com/SFrisendal/overflow/internal/store"
)

// DispatcherConfig holds configuration for the outbox dispatcher.
type DispatcherConfig struct {
	// PollInterval is how often the dispatcher sweeps for pending events
	// when no nudge arrives.
	PollInterval time.Duration

	// BatchSize is the maximum number of pending events drained per sweep.
	BatchSize int
}

// DefaultDispatcherConfig returns a DispatcherConfig with reasonable defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		PollInterval: 5 * time.Second,
		BatchSize:    50,
	}
}

// Dispatcher is a background loop that claims pending outbox rows and
// publishes them. Failed deliveries stay pending with their error recorded
// and are retried on a later sweep, giving at-least-once delivery; consumers
// handle the duplicates.
type Dispatcher struct {
	outbox    store.OutboxStore
	publisher events.Publisher
	config    DispatcherConfig
	logger    *slog.Logger

	nudgeCh    chan struct{}
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(
	outbox store.OutboxStore,
	publisher events.Publisher,
	config DispatcherConfig,
	logger *slog.Logger,
) *Dispatcher {
	if outbox == nil {
		panic("outbox store cannot be nil")
	}
	if publisher == nil {
		panic("publisher cannot be nil")
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultDispatcherConfig().PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultDispatcherConfig().BatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		outbox:     outbox,
		publisher:  publisher,
		config:     config,
		logger:     logger.With("component", "outbox_dispatcher"),
		nudgeCh:    make(chan struct{}, 1),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the dispatch loop.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.run()
	d.logger.Info("outbox dispatcher started",
		"poll_interval", d.config.PollInterval,
		"batch_size", d.config.BatchSize)
}

// Stop cancels the dispatch loop and waits for it to finish the current sweep.
func (d *Dispatcher) Stop() {
	d.cancelFunc()
	d.wg.Wait()
	d.logger.Info("outbox dispatcher stopped")
}

// Nudge wakes the dispatcher ahead of its poll interval. Services call this
// right after committing a mutation so events usually go out immediately; a
// full nudge channel is fine since a sweep is already due.
func (d *Dispatcher) Nudge() {
	select {
	case d.nudgeCh <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-d.nudgeCh:
		case <-ticker.C:
		}
		d.Sweep(d.ctx)
	}
}

// Sweep drains one batch of pending events. It is exported so callers can
// force a drain in tests and during shutdown.
func (d *Dispatcher) Sweep(ctx context.Context) {
	pending, err := d.outbox.ListPending(ctx, d.config.BatchSize)
	if err != nil {
		d.logger.Error("failed to list pending outbox events", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	d.logger.Debug("draining outbox", "pending", len(pending))

	for _, event := range pending {
		if ctx.Err() != nil {
			return
		}

		if err := d.publisher.Publish(ctx, event); err != nil {
			d.logger.Error("outbox event delivery failed",
				"error", err,
				"event_id", event.ID,
				"event_type", event.Type)
			if recordErr := d.outbox.RecordFailure(ctx, event.ID, err); recordErr != nil {
				d.logger.Error("failed to record outbox delivery failure",
					"error", recordErr,
					"event_id", event.ID)
			}
			continue
		}

		if err := d.outbox.MarkPublished(ctx, event.ID); err != nil {
			// The event went out but stayed pending; it will be sent
			// again, which consumers tolerate.
			d.logger.Error("failed to mark outbox event published",
				"error", err,
				"event_id", event.ID)
		}
	}
}
