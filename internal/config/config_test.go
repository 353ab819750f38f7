package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "MAX_PEERS", "TICK_RATE", "WIRE_CODEC", "LOG_LEVEL", "LOG_FORMAT", "DATABASE_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, 10567, cfg.Port)
	assert.Equal(t, 12, cfg.MaxPeers)
	assert.Equal(t, 60, cfg.TickRate)
	assert.Equal(t, "json", cfg.WireCodec)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_PEERS", "4")
	t.Setenv("WIRE_CODEC", "msgpack")
	t.Setenv("TICK_RATE", "not-a-number")

	cfg := Load()

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 4, cfg.MaxPeers)
	assert.Equal(t, "msgpack", cfg.WireCodec)
	assert.Equal(t, 60, cfg.TickRate, "invalid values fall back")
}
