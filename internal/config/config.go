// Package config provides configuration for the chat gateway.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the gateway configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Session store
	StoreBackend   string
	StoreShards    int
	DatabaseURL    string
	RedisURL       string
	RedisKeyPrefix string

	// Response generation
	LLMProvider  string
	LLMBaseURL   string
	LLMAPIKey    string
	LLMModel     string
	LLMMaxTokens int
	LLMTimeout   time.Duration
	SystemPrompt string

	// Context document
	ContextFile    string
	ContextURL     string
	ContextTimeout time.Duration

	// Message admission
	MaxMessageLength int
	PolicyFile       string

	// WebSocket settings
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64
}

// DefaultSystemPrompt is used when SYSTEM_PROMPT is unset.
const DefaultSystemPrompt = "You are Clompanion, a helpful and concise AI assistant."

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		HTTPPort:         getEnvInt("HTTP_PORT", 8080),
		StoreBackend:     getEnv("STORE_BACKEND", "memory"),
		StoreShards:      getEnvInt("STORE_SHARDS", 32),
		DatabaseURL:      getEnv("DATABASE_URL", ":memory:"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisKeyPrefix:   getEnv("REDIS_KEY_PREFIX", "clompanion"),
		LLMProvider:      getEnv("LLM_PROVIDER", "mock"),
		LLMBaseURL:       getEnv("LLM_BASE_URL", ""),
		LLMAPIKey:        getEnv("LLM_API_KEY", ""),
		LLMModel:         getEnv("LLM_MODEL", ""),
		LLMMaxTokens:     getEnvInt("LLM_MAX_TOKENS", 1024),
		LLMTimeout:       time.Duration(getEnvInt("LLM_TIMEOUT_MS", 30000)) * time.Millisecond,
		SystemPrompt:     getEnv("SYSTEM_PROMPT", DefaultSystemPrompt),
		ContextFile:      getEnv("CONTEXT_FILE", ""),
		ContextURL:       getEnv("CONTEXT_URL", ""),
		ContextTimeout:   time.Duration(getEnvInt("CONTEXT_TIMEOUT_MS", 5000)) * time.Millisecond,
		MaxMessageLength: getEnvInt("MAX_MESSAGE_LENGTH", 8000),
		PolicyFile:       getEnv("POLICY_FILE", ""),
		PingInterval:     time.Duration(getEnvInt("WS_PING_INTERVAL_MS", 30000)) * time.Millisecond,
		WriteTimeout:     time.Duration(getEnvInt("WS_WRITE_TIMEOUT_MS", 10000)) * time.Millisecond,
		ReadTimeout:      time.Duration(getEnvInt("WS_READ_TIMEOUT_MS", 60000)) * time.Millisecond,
		MaxMessageSize:   int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 65536)),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
