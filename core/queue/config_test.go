package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zpqio/zpq/core/queue"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := queue.DefaultConfig()

	assert.Equal(t, queue.DefaultQueueKey, cfg.QueueKey)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, time.Second, cfg.ProduceInterval)
	assert.Equal(t, 1, cfg.MaxConcurrentHandlers)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestNewFromConfig_WithEmptyConfig(t *testing.T) {
	t.Parallel()

	// Zero values fall back to the built-in defaults via the option guards.
	emptyConfig := queue.Config{}
	store := queue.NewMemoryStore()

	t.Run("NewProducerFromConfig with empty config", func(t *testing.T) {
		producer, err := queue.NewProducerFromConfig(emptyConfig, store)
		require.NoError(t, err)
		assert.NotNil(t, producer)
	})

	t.Run("NewConsumerFromConfig with empty config", func(t *testing.T) {
		consumer, err := queue.NewConsumerFromConfig(emptyConfig, store)
		require.NoError(t, err)
		assert.NotNil(t, consumer)
	})
}

func TestNewFromConfig_OptionsOverrideConfig(t *testing.T) {
	t.Parallel()

	cfg := queue.DefaultConfig()
	store := queue.NewMemoryStore()

	consumer, err := queue.NewConsumerFromConfig(cfg, store,
		queue.WithMaxConcurrentHandlers(8),
		queue.WithPollInterval(50*time.Millisecond),
	)
	require.NoError(t, err)
	assert.NotNil(t, consumer)

	producer, err := queue.NewProducerFromConfig(cfg, store,
		queue.WithProduceInterval(50*time.Millisecond),
	)
	require.NoError(t, err)
	assert.NotNil(t, producer)
}
