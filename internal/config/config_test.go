package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 5, cfg.TxMaxAttempts)
	assert.False(t, cfg.StrictCapacity)
	assert.Equal(t, "benevolat.games", cfg.NatsSubject)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STRICT_CAPACITY", "true")
	t.Setenv("TX_MAX_ATTEMPTS", "3")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg, err := LoadConfig(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.StrictCapacity)
	assert.Equal(t, 3, cfg.TxMaxAttempts)
	assert.Equal(t, "nats://localhost:4222", cfg.NatsURL)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Run("attempts", func(t *testing.T) {
		t.Setenv("TX_MAX_ATTEMPTS", "0")
		_, err := LoadConfig(viper.New())
		assert.Error(t, err)
	})
	t.Run("driver", func(t *testing.T) {
		t.Setenv("DATABASE_DRIVER", "mysql")
		_, err := LoadConfig(viper.New())
		assert.Error(t, err)
	})
}
