package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notify/config"
)

type testConfig struct {
	Endpoint string        `env:"TEST_NOTIFY_ENDPOINT,required"`
	Token    string        `env:"TEST_NOTIFY_TOKEN"`
	Timeout  time.Duration `env:"TEST_NOTIFY_TIMEOUT" envDefault:"30s"`
}

func TestLoad(t *testing.T) {
	// t.Setenv forbids t.Parallel.

	t.Run("parses env into struct", func(t *testing.T) {
		t.Setenv("TEST_NOTIFY_ENDPOINT", "https://gateway.example.com")
		t.Setenv("TEST_NOTIFY_TIMEOUT", "5s")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "https://gateway.example.com", cfg.Endpoint)
		assert.Empty(t, cfg.Token)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
	})

	t.Run("defaults apply when unset", func(t *testing.T) {
		t.Setenv("TEST_NOTIFY_ENDPOINT", "https://gateway.example.com")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 30*time.Second, cfg.Timeout)
	})

	t.Run("missing required variable", func(t *testing.T) {
		// TEST_NOTIFY_ENDPOINT is deliberately left unset.
		var cfg testConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParse)
	})

	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[testConfig](nil)
		assert.ErrorIs(t, err, config.ErrNilPointer)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on failure", func(t *testing.T) {
		// TEST_NOTIFY_ENDPOINT is deliberately left unset.
		var cfg testConfig
		assert.Panics(t, func() { config.MustLoad(&cfg) })
	})

	t.Run("succeeds with valid env", func(t *testing.T) {
		t.Setenv("TEST_NOTIFY_ENDPOINT", "https://gateway.example.com")

		var cfg testConfig
		assert.NotPanics(t, func() { config.MustLoad(&cfg) })
		assert.Equal(t, "https://gateway.example.com", cfg.Endpoint)
	})
}
