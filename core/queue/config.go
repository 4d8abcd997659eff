package queue

import "time"

// Config holds the configuration for producer and consumer roles.
// Designed for environment-based configuration using popular env parsing
// libraries.
type Config struct {
	// Shared
	QueueKey string `env:"ZPQ_QUEUE_KEY" envDefault:"zpq:tasks"`

	// Consumer configuration
	PollInterval          time.Duration `env:"ZPQ_POLL_INTERVAL" envDefault:"500ms"`
	MaxConcurrentHandlers int           `env:"ZPQ_MAX_CONCURRENT_HANDLERS" envDefault:"1"`

	// Producer configuration
	ProduceInterval time.Duration `env:"ZPQ_PRODUCE_INTERVAL" envDefault:"1s"`

	// Backoff policy for retrying an unavailable store
	BackoffInitialInterval time.Duration `env:"ZPQ_BACKOFF_INITIAL_INTERVAL" envDefault:"500ms"`
	BackoffMaxInterval     time.Duration `env:"ZPQ_BACKOFF_MAX_INTERVAL" envDefault:"30s"`

	// Lifecycle
	ShutdownTimeout time.Duration `env:"ZPQ_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns sensible defaults for production use.
func DefaultConfig() Config {
	return Config{
		QueueKey:               DefaultQueueKey,
		PollInterval:           500 * time.Millisecond,
		MaxConcurrentHandlers:  1,
		ProduceInterval:        time.Second,
		BackoffInitialInterval: 500 * time.Millisecond,
		BackoffMaxInterval:     30 * time.Second,
		ShutdownTimeout:        30 * time.Second,
	}
}
