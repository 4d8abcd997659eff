package queue

import (
	"log/slog"
	"time"
)

// ConsumerOption is a functional option for configuring a consumer.
type ConsumerOption func(*consumerOptions)

type consumerOptions struct {
	pollInterval          time.Duration
	shutdownTimeout       time.Duration
	maxConcurrentHandlers int
	backoffInitial        time.Duration
	backoffMax            time.Duration
	logger                *slog.Logger
}

// WithPollInterval configures the wait between polls of an empty queue.
func WithPollInterval(d time.Duration) ConsumerOption {
	return func(o *consumerOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithConsumerShutdownTimeout configures the maximum wait for active
// handlers to complete during shutdown.
func WithConsumerShutdownTimeout(d time.Duration) ConsumerOption {
	return func(o *consumerOptions) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}

// WithMaxConcurrentHandlers configures how many envelopes may be processed
// at once. Envelopes are still taken from the store one at a time, in
// global sort-key order; concurrency only overlaps processing.
func WithMaxConcurrentHandlers(n int) ConsumerOption {
	return func(o *consumerOptions) {
		if n > 0 {
			o.maxConcurrentHandlers = n
		}
	}
}

// WithConsumerBackoff configures the exponential backoff bounds used when
// the store is unavailable.
func WithConsumerBackoff(initial, max time.Duration) ConsumerOption {
	return func(o *consumerOptions) {
		if initial > 0 {
			o.backoffInitial = initial
		}
		if max > 0 {
			o.backoffMax = max
		}
	}
}

// WithConsumerLogger configures structured logging for consumer operations.
func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(o *consumerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
