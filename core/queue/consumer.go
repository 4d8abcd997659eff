package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// Consumer repeatedly takes the lowest-key envelope from the store and
// routes it to the handler registered for its type. Because TakeLowest is
// atomic on the store side, any number of consumers may run against the
// same queue and each envelope is delivered to exactly one of them.
//
// There is no acknowledgement step beyond the take itself: an envelope
// lost to a crash or handler failure after a successful take is not
// redelivered.
type Consumer struct {
	store      Store
	handlers   map[string]Handler
	fallback   Handler
	consumerID uuid.UUID
	sem        chan struct{}
	wg         sync.WaitGroup
	mu         sync.RWMutex

	pollInterval    time.Duration
	shutdownTimeout time.Duration
	backoffInitial  time.Duration
	backoffMax      time.Duration
	logger          *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	processed    atomic.Int64
	failed       atomic.Int64
	decodeErrors atomic.Int64
	active       atomic.Int32
}

// ConsumerStats provides observability metrics for monitoring and tests.
type ConsumerStats struct {
	Processed    int64 // Envelopes processed by a handler, including handler failures
	Failed       int64 // Envelopes whose handler returned an error or panicked
	DecodeErrors int64 // Malformed members skipped
	Active       int32 // Envelopes currently being processed
	IsRunning    bool  // Whether the consumer loop is active
}

// NewConsumer creates a consumer for the given store. Register handlers
// before calling Start.
func NewConsumer(store Store, opts ...ConsumerOption) (*Consumer, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	options := &consumerOptions{
		pollInterval:          500 * time.Millisecond,
		shutdownTimeout:       30 * time.Second,
		maxConcurrentHandlers: 1,
		backoffInitial:        500 * time.Millisecond,
		backoffMax:            30 * time.Second,
		logger:                slog.New(slog.NewTextHandler(io.Discard, nil)), // No-op logger by default
	}

	for _, opt := range opts {
		opt(options)
	}

	return &Consumer{
		store:           store,
		handlers:        make(map[string]Handler),
		consumerID:      uuid.New(),
		sem:             make(chan struct{}, options.maxConcurrentHandlers),
		pollInterval:    options.pollInterval,
		shutdownTimeout: options.shutdownTimeout,
		backoffInitial:  options.backoffInitial,
		backoffMax:      options.backoffMax,
		logger:          options.logger,
	}, nil
}

// NewConsumerFromConfig creates a Consumer from configuration. Additional
// options override config values.
func NewConsumerFromConfig(cfg Config, store Store, opts ...ConsumerOption) (*Consumer, error) {
	allOpts := append([]ConsumerOption{
		WithPollInterval(cfg.PollInterval),
		WithConsumerShutdownTimeout(cfg.ShutdownTimeout),
		WithMaxConcurrentHandlers(cfg.MaxConcurrentHandlers),
		WithConsumerBackoff(cfg.BackoffInitialInterval, cfg.BackoffMaxInterval),
	}, opts...)

	return NewConsumer(store, allOpts...)
}

// RegisterHandler registers a handler for its task type.
func (c *Consumer) RegisterHandler(handler Handler) {
	if handler == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[handler.Name()] = handler
}

// RegisterHandlers registers multiple handlers.
func (c *Consumer) RegisterHandlers(handlers ...Handler) {
	for _, h := range handlers {
		c.RegisterHandler(h)
	}
}

// RegisterFallback registers the handler used for envelope types with no
// dedicated handler.
func (c *Consumer) RegisterFallback(handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallback = handler
}

// Start begins consuming envelopes. Blocks until the context is cancelled.
// Envelopes are taken one at a time so deliveries follow the store's
// global sort-key order; processing overlaps up to the configured handler
// concurrency.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return errors.New("consumer already started")
	}
	if len(c.handlers) == 0 && c.fallback == nil {
		c.mu.Unlock()
		return ErrNoHandlers
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	c.logger.InfoContext(c.ctx, "consumer started",
		slog.String("consumer_id", c.consumerID.String()),
		slog.Duration("poll_interval", c.pollInterval),
		slog.Int("max_concurrent", cap(c.sem)))

	for {
		select {
		case <-c.ctx.Done():
			c.logger.InfoContext(context.Background(), "consumer stopping",
				slog.String("consumer_id", c.consumerID.String()))
			return c.ctx.Err()
		case c.sem <- struct{}{}:
		}

		// The select above picks arbitrarily when both cases are ready;
		// re-check so a cancelled consumer never starts another take.
		if c.ctx.Err() != nil {
			<-c.sem
			continue
		}

		e, err := c.takeWithRetry()
		if err != nil {
			<-c.sem
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue // loop exits on the next select
			}
			if errors.Is(err, ErrDecode) {
				// The offending member is already removed; skip it and keep going.
				c.decodeErrors.Add(1)
				c.logger.ErrorContext(c.ctx, "skipping malformed envelope",
					slog.String("consumer_id", c.consumerID.String()),
					slog.String("error", err.Error()))
				continue
			}
			c.logger.ErrorContext(c.ctx, "failed to take envelope",
				slog.String("consumer_id", c.consumerID.String()),
				slog.String("error", err.Error()))
			continue
		}

		if e == nil {
			// Empty queue is a normal signal, not an error.
			<-c.sem
			select {
			case <-c.ctx.Done():
			case <-time.After(c.pollInterval):
			}
			continue
		}

		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			defer func() { <-c.sem }()
			c.process(e)
		}()
	}
}

// Stop gracefully shuts down the consumer, waiting for active handlers to
// complete up to the shutdown timeout.
func (c *Consumer) Stop() error {
	c.mu.Lock()
	if c.cancel == nil {
		c.mu.Unlock()
		return errors.New("consumer not started")
	}
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	cancel()

	c.logger.InfoContext(context.Background(), "consumer stopping, waiting for active handlers",
		slog.String("consumer_id", c.consumerID.String()),
		slog.Duration("timeout", c.shutdownTimeout))

	ctx, ctxCancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
	defer ctxCancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout exceeded after %s", c.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
func (c *Consumer) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- c.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = c.Stop()
			<-errCh
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// Stats returns current consumer statistics.
func (c *Consumer) Stats() ConsumerStats {
	c.mu.RLock()
	isRunning := c.cancel != nil
	c.mu.RUnlock()

	return ConsumerStats{
		Processed:    c.processed.Load(),
		Failed:       c.failed.Load(),
		DecodeErrors: c.decodeErrors.Load(),
		Active:       c.active.Load(),
		IsRunning:    isRunning,
	}
}

// Healthcheck validates that the consumer is running and not saturated.
// Suitable for health check endpoints; check the returned error with
// errors.Is against ErrConsumerNotRunning and ErrConsumerOverloaded.
func (c *Consumer) Healthcheck(ctx context.Context) error {
	stats := c.Stats()

	if !stats.IsRunning {
		return errors.Join(ErrHealthcheckFailed, ErrConsumerNotRunning)
	}

	if stats.Active >= int32(cap(c.sem)) {
		return errors.Join(ErrHealthcheckFailed, ErrConsumerOverloaded,
			fmt.Errorf("%d/%d handler slots busy", stats.Active, cap(c.sem)))
	}

	return nil
}

// takeWithRetry takes the lowest-key envelope, retrying store
// unavailability with exponential backoff until cancelled. Each retry is
// logged once, so log frequency decays as the interval grows.
func (c *Consumer) takeWithRetry() (*Envelope, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.backoffInitial
	policy.MaxInterval = c.backoffMax
	policy.MaxElapsedTime = 0 // retry until cancelled

	var e *Envelope
	op := func() error {
		var err error
		e, err = c.store.TakeLowest(c.ctx)
		if err != nil && !errors.Is(err, ErrStoreUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		c.logger.WarnContext(c.ctx, "store unavailable, retrying take",
			slog.String("consumer_id", c.consumerID.String()),
			slog.Duration("next_attempt_in", next),
			slog.String("error", err.Error()))
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(policy, c.ctx), notify); err != nil {
		return nil, err
	}
	return e, nil
}

// process executes the handler for a taken envelope. Panics are recovered
// and counted as failures so one bad handler cannot crash the loop.
func (c *Consumer) process(e *Envelope) {
	start := time.Now()

	c.active.Add(1)
	defer c.active.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			c.failed.Add(1)
			c.processed.Add(1)
			c.logger.ErrorContext(c.ctx, "handler panicked",
				slog.String("consumer_id", c.consumerID.String()),
				slog.Int64("envelope_id", e.ID),
				slog.String("type", e.Type),
				slog.Any("panic", r))
		}
	}()

	c.mu.RLock()
	handler, ok := c.handlers[e.Type]
	if !ok {
		handler = c.fallback
	}
	c.mu.RUnlock()

	if handler == nil {
		// The envelope is already gone from the store; all we can do is
		// report it.
		c.failed.Add(1)
		c.processed.Add(1)
		c.logger.ErrorContext(c.ctx, "no handler registered for envelope type",
			slog.String("consumer_id", c.consumerID.String()),
			slog.Int64("envelope_id", e.ID),
			slog.String("type", e.Type))
		return
	}

	// Handlers run on an independent context: shutdown waits for them
	// rather than interrupting mid-processing.
	err := handler.Handle(context.WithoutCancel(c.ctx), e)
	duration := time.Since(start)
	c.processed.Add(1)

	if err != nil {
		c.failed.Add(1)
		c.logger.ErrorContext(c.ctx, "handler failed, envelope is not redelivered",
			slog.String("consumer_id", c.consumerID.String()),
			slog.Int64("envelope_id", e.ID),
			slog.String("type", e.Type),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return
	}

	c.logger.InfoContext(c.ctx, "envelope processed",
		slog.String("consumer_id", c.consumerID.String()),
		slog.Int64("envelope_id", e.ID),
		slog.String("type", e.Type),
		slog.String("priority", e.Priority.String()),
		slog.Duration("duration", duration))
}
