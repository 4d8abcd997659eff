package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zpqio/zpq/core/config"
)

type testQueueConfig struct {
	QueueKey     string        `env:"TEST_QUEUE_KEY" envDefault:"zpq:tasks"`
	PollInterval time.Duration `env:"TEST_POLL_INTERVAL" envDefault:"500ms"`
}

type testRedisConfig struct {
	URL string `env:"TEST_REDIS_URL" envDefault:"redis://localhost:6379/0"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testQueueConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "zpq:tasks", cfg.QueueKey)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
}

func TestLoad_CachesPerType(t *testing.T) {
	t.Setenv("TEST_REDIS_URL", "redis://first:6379/0")

	var first testRedisConfig
	require.NoError(t, config.Load(&first))
	assert.Equal(t, "redis://first:6379/0", first.URL)

	// The environment changes, but the cached value wins.
	t.Setenv("TEST_REDIS_URL", "redis://second:6379/0")

	var second testRedisConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, first, second)
}

func TestLoad_NilTarget(t *testing.T) {
	var cfg *testQueueConfig
	assert.Error(t, config.Load(cfg))
}

func TestMustLoad(t *testing.T) {
	assert.NotPanics(t, func() {
		var cfg testQueueConfig
		config.MustLoad(&cfg)
	})
}
