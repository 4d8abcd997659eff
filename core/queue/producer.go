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

// Producer generates envelopes and inserts them into the store on a fixed
// interval. Store unavailability is retried indefinitely with bounded
// exponential backoff; each retry is logged once, so log frequency decays
// as the interval grows.
type Producer struct {
	store      Store
	generator  Generator
	producerID uuid.UUID
	nextID     atomic.Int64

	interval        time.Duration
	shutdownTimeout time.Duration
	backoffInitial  time.Duration
	backoffMax      time.Duration
	logger          *slog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	produced atomic.Int64
	failed   atomic.Int64
}

// ProducerStats provides observability metrics for monitoring and tests.
type ProducerStats struct {
	Produced  int64 // Total envelopes successfully inserted
	Failed    int64 // Total envelopes that could not be inserted
	IsRunning bool  // Whether the producer loop is active
}

// NewProducer creates a producer for the given store.
func NewProducer(store Store, opts ...ProducerOption) (*Producer, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	options := &producerOptions{
		generator:       MixedPriorityGenerator(),
		interval:        time.Second,
		shutdownTimeout: 30 * time.Second,
		backoffInitial:  500 * time.Millisecond,
		backoffMax:      30 * time.Second,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)), // No-op logger by default
	}

	for _, opt := range opts {
		opt(options)
	}

	p := &Producer{
		store:           store,
		generator:       options.generator,
		producerID:      uuid.New(),
		interval:        options.interval,
		shutdownTimeout: options.shutdownTimeout,
		backoffInitial:  options.backoffInitial,
		backoffMax:      options.backoffMax,
		logger:          options.logger,
	}

	// Envelope IDs only need uniqueness per producer run; seeding from the
	// clock keeps them distinct across restarts as well.
	p.nextID.Store(time.Now().UnixMicro())

	return p, nil
}

// NewProducerFromConfig creates a Producer from configuration. Additional
// options override config values.
func NewProducerFromConfig(cfg Config, store Store, opts ...ProducerOption) (*Producer, error) {
	allOpts := append([]ProducerOption{
		WithProduceInterval(cfg.ProduceInterval),
		WithProducerShutdownTimeout(cfg.ShutdownTimeout),
		WithProducerBackoff(cfg.BackoffInitialInterval, cfg.BackoffMaxInterval),
	}, opts...)

	return NewProducer(store, allOpts...)
}

// Start begins producing envelopes. Blocks until the context is cancelled.
func (p *Producer) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return errors.New("producer already started")
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.mu.Unlock()

	p.logger.InfoContext(p.ctx, "producer started",
		slog.String("producer_id", p.producerID.String()),
		slog.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			p.logger.InfoContext(context.Background(), "producer stopping",
				slog.String("producer_id", p.producerID.String()))
			return p.ctx.Err()
		case <-ticker.C:
			// The select above picks arbitrarily when both cases are
			// ready; re-check so a cancelled producer never starts
			// another insert.
			if p.ctx.Err() != nil {
				continue
			}
			p.wg.Add(1)
			p.produceOne()
			p.wg.Done()
		}
	}
}

// Stop gracefully shuts down the producer, waiting for an in-flight insert
// to complete so no envelope partially lands.
func (p *Producer) Stop() error {
	p.mu.Lock()
	if p.cancel == nil {
		p.mu.Unlock()
		return errors.New("producer not started")
	}
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), p.shutdownTimeout)
	defer ctxCancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout exceeded after %s", p.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
func (p *Producer) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- p.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = p.Stop()
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

// Stats returns current producer statistics.
func (p *Producer) Stats() ProducerStats {
	p.mu.Lock()
	isRunning := p.cancel != nil
	p.mu.Unlock()

	return ProducerStats{
		Produced:  p.produced.Load(),
		Failed:    p.failed.Load(),
		IsRunning: isRunning,
	}
}

// produceOne builds the next envelope and inserts it, retrying store
// unavailability until the context is cancelled.
func (p *Producer) produceOne() {
	taskType, priority, payload := p.generator()

	e := &Envelope{
		ID:        p.nextID.Add(1),
		Type:      taskType,
		Priority:  priority,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}

	if err := p.insertWithRetry(e); err != nil {
		p.failed.Add(1)
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			p.logger.ErrorContext(p.ctx, "failed to insert envelope",
				slog.String("producer_id", p.producerID.String()),
				slog.Int64("envelope_id", e.ID),
				slog.String("error", err.Error()))
		}
		return
	}

	p.produced.Add(1)
	p.logger.InfoContext(p.ctx, "envelope inserted",
		slog.String("producer_id", p.producerID.String()),
		slog.Int64("envelope_id", e.ID),
		slog.String("type", e.Type),
		slog.String("priority", e.Priority.String()))
}

func (p *Producer) insertWithRetry(e *Envelope) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.backoffInitial
	policy.MaxInterval = p.backoffMax
	policy.MaxElapsedTime = 0 // retry until cancelled

	op := func() error {
		err := p.store.Insert(p.ctx, e)
		if err != nil && !errors.Is(err, ErrStoreUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		p.logger.WarnContext(p.ctx, "store unavailable, retrying insert",
			slog.String("producer_id", p.producerID.String()),
			slog.Int64("envelope_id", e.ID),
			slog.Duration("next_attempt_in", next),
			slog.String("error", err.Error()))
	}

	return backoff.RetryNotify(op, backoff.WithContext(policy, p.ctx), notify)
}
