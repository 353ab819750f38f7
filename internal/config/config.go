package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/ugaemi/bombarena-server/internal/game"
)

type Config struct {
	Port        int
	MaxPeers    int
	TickRate    int
	WireCodec   string
	LogLevel    string
	LogFormat   string
	DatabaseURL string
}

// Load reads a .env file when present, then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment variables")
	}

	return &Config{
		Port:        getEnvInt("PORT", game.DefaultPort),
		MaxPeers:    getEnvInt("MAX_PEERS", game.MaxPeers),
		TickRate:    getEnvInt("TICK_RATE", game.TickRate),
		WireCodec:   getEnv("WIRE_CODEC", "json"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}
