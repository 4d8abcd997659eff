package queue

import (
	"log/slog"
	"time"
)

// ProducerOption is a functional option for configuring a producer.
type ProducerOption func(*producerOptions)

type producerOptions struct {
	generator       Generator
	interval        time.Duration
	shutdownTimeout time.Duration
	backoffInitial  time.Duration
	backoffMax      time.Duration
	logger          *slog.Logger
}

// WithGenerator sets the task generator. Defaults to
// MixedPriorityGenerator when not provided.
func WithGenerator(g Generator) ProducerOption {
	return func(o *producerOptions) {
		if g != nil {
			o.generator = g
		}
	}
}

// WithProduceInterval configures the delay between generated tasks.
func WithProduceInterval(d time.Duration) ProducerOption {
	return func(o *producerOptions) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithProducerShutdownTimeout configures the maximum wait for an in-flight
// insert to complete during shutdown.
func WithProducerShutdownTimeout(d time.Duration) ProducerOption {
	return func(o *producerOptions) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}

// WithProducerBackoff configures the exponential backoff bounds used when
// the store is unavailable.
func WithProducerBackoff(initial, max time.Duration) ProducerOption {
	return func(o *producerOptions) {
		if initial > 0 {
			o.backoffInitial = initial
		}
		if max > 0 {
			o.backoffMax = max
		}
	}
}

// WithProducerLogger configures structured logging for producer operations.
func WithProducerLogger(logger *slog.Logger) ProducerOption {
	return func(o *producerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
