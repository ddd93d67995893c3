package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pushkit/pkg/config"
)

type serverTestConfig struct {
	Addr    string `env:"TEST_SRV_ADDR" envDefault:":9090"`
	Workers int    `env:"TEST_SRV_WORKERS" envDefault:"4"`
}

type requiredTestConfig struct {
	Secret string `env:"TEST_REQUIRED_SECRET,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		var cfg serverTestConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, 4, cfg.Workers)
	})

	t.Run("cached between calls", func(t *testing.T) {
		var first serverTestConfig
		require.NoError(t, config.Load(&first))

		// Env changes after the first load must not leak into the cache.
		t.Setenv("TEST_SRV_ADDR", ":7070")

		var second serverTestConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, first.Addr, second.Addr)
	})

	t.Run("missing required variable", func(t *testing.T) {
		var cfg requiredTestConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[serverTestConfig](nil)
		assert.ErrorIs(t, err, config.ErrNilPointer)
	})
}
