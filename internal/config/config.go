// Package config centralises configuration parsing for the presence bot.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures runtime configuration values for the bot.
type Config struct {
	DiscordToken  string
	GuildID       string // guild to register slash commands in; empty = global
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	APIBaseURL    string // event API base URL; empty disables notifications
	APIToken      string
	ExportDir     string
	HTTPAddress   string        // metrics/health listener
	PageSize      int           // activities per page in paginated embeds
	PaginatorTTL  time.Duration // interaction lifetime before eviction
	Debug         bool
}

// Load reads environment variables into Config, applying sensible defaults
// for local dev.
func Load() Config {
	return Config{
		DiscordToken:  getEnv("DISCORD_TOKEN", ""),
		GuildID:       getEnv("GUILD_ID", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		APIBaseURL:    getEnv("API_BASE_URL", ""),
		APIToken:      getEnv("API_TOKEN", ""),
		ExportDir:     getEnv("EXPORT_DIR", "exports"),
		HTTPAddress:   getEnv("HTTP_ADDRESS", ":8080"),
		PageSize:      getIntEnv("PAGE_SIZE", 10),
		PaginatorTTL:  getDurationEnv("PAGINATOR_TTL", 5*time.Minute),
		Debug:         getBoolEnv("DEBUG", false),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDurationEnv accepts only positive durations; zero or negative values
// would break ticker-driven loops downstream, so they fall back.
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
