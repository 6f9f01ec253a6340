// Package config loads process-wide configuration from environment
// variables (optionally seeded from a .env file), the same pattern
// internal/llm.LoadConfig uses for its own purpose-scoped settings.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is every environment-derived setting cmd/kairos needs outside the
// LLM subsystem, which loads its own config via llm.LoadConfig.
type Config struct {
	DBPath      string
	HTTPAddr    string
	Timezone    string
	MirrorRedis string // AAWO_MIRROR_REDIS_ADDR; loaded but not read by cmd/kairos, which builds no mirror or ledger
	LogUseCases bool
	LogLevel    string
}

// Load reads a .env file if present (silently ignored if absent, matching
// godotenv.Load's convention for optional local overrides) then resolves
// Config from environment variables, falling back to defaults.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		DBPath:   "aawo.db",
		HTTPAddr: ":8080",
		Timezone: "UTC",
		LogLevel: "info",
	}

	if v := os.Getenv("AAWO_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("AAWO_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("AAWO_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("AAWO_MIRROR_REDIS_ADDR"); v != "" {
		cfg.MirrorRedis = v
	}
	if v := os.Getenv("AAWO_LOG_USE_CASES"); v != "" {
		cfg.LogUseCases, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("AAWO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg
}
