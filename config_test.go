package notify_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notify"
	"github.com/dmitrymomot/notify/config"
)

func TestConfig(t *testing.T) {
	// t.Setenv forbids t.Parallel.

	t.Run("defaults", func(t *testing.T) {
		var cfg notify.Config
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 50, cfg.BatchSize)
		assert.Equal(t, 5*time.Second, cfg.PullInterval)
		assert.Equal(t, 30*time.Second, cfg.SendTimeout)
		assert.Equal(t, 5*time.Minute, cfg.StaleAfter)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("NOTIFY_BATCH_SIZE", "10")
		t.Setenv("NOTIFY_PULL_INTERVAL", "1s")

		var cfg notify.Config
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 10, cfg.BatchSize)
		assert.Equal(t, time.Second, cfg.PullInterval)
	})

	t.Run("options cover every knob", func(t *testing.T) {
		var cfg notify.Config
		require.NoError(t, config.Load(&cfg))
		assert.Len(t, cfg.Options(), 4)
	})
}
