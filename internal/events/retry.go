package events

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// RetryConfig bounds the delivery attempts of a RetryingPublisher.
type RetryConfig struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int

	// BaseDelay is the delay before the first retry; subsequent retries
	// back off exponentially with jitter.
	BaseDelay time.Duration
}

// DefaultRetryConfig returns a RetryConfig with reasonable defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 5,
		BaseDelay:  200 * time.Millisecond,
	}
}

// RetryingPublisher wraps a Publisher with bounded exponential-backoff retry
// for transient channel unavailability. After the attempts are exhausted the
// delivery failure is surfaced to the caller; the caller decides what a
// failed publication means (it never undoes a committed mutation).
type RetryingPublisher struct {
	inner  Publisher
	config RetryConfig
	logger *slog.Logger
	rng    *rand.Rand
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetryingPublisher wraps the given publisher with retry behavior.
func NewRetryingPublisher(inner Publisher, config RetryConfig, logger *slog.Logger) *RetryingPublisher {
	if inner == nil {
		panic("inner publisher cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = DefaultRetryConfig().MaxRetries
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = DefaultRetryConfig().BaseDelay
	}

	return &RetryingPublisher{
		inner:  inner,
		config: config,
		logger: logger.With("component", "retrying_publisher"),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:  sleepContext,
	}
}

// Ensure RetryingPublisher implements Publisher
var _ Publisher = (*RetryingPublisher)(nil)

// Publish attempts delivery, retrying with exponential backoff and jitter
// until it succeeds or the bounded attempts are exhausted.
func (p *RetryingPublisher) Publish(ctx context.Context, event *Event) error {
	var lastErr error

	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		err := p.inner.Publish(ctx, event)
		if err == nil {
			if attempt > 0 {
				p.logger.Info("event delivered after retry",
					"event_id", event.ID,
					"event_type", event.Type,
					"attempt", attempt+1)
			}
			return nil
		}
		lastErr = err

		if attempt >= p.config.MaxRetries {
			break
		}

		// delay = base * 2^attempt * (0.5 + rand(0, 0.5))
		backoff := float64(p.config.BaseDelay) * math.Pow(2, float64(attempt))
		jitter := 0.5 + p.rng.Float64()*0.5
		delay := time.Duration(backoff * jitter)

		p.logger.Warn("event delivery failed, retrying",
			"error", err,
			"event_id", event.ID,
			"event_type", event.Type,
			"attempt", attempt+1,
			"max_attempts", p.config.MaxRetries+1,
			"delay", delay)

		if err := p.sleep(ctx, delay); err != nil {
			return fmt.Errorf("%w: %v", ErrPublishFailed, err)
		}
	}

	p.logger.Error("event delivery failed after all attempts",
		"error", lastErr,
		"event_id", event.ID,
		"event_type", event.Type,
		"attempts", p.config.MaxRetries+1)
	return fmt.Errorf("%w: exhausted %d attempts: %v",
		ErrPublishFailed, p.config.MaxRetries+1, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
