package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_PORT", "STORE_BACKEND", "LLM_PROVIDER", "LLM_TIMEOUT_MS", "SYSTEM_PROMPT"} {
		t.Setenv(key, "")
	}
	cfg := Load()

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, "mock", cfg.LLMProvider)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, DefaultSystemPrompt, cfg.SystemPrompt)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("LLM_TIMEOUT_MS", "1500")
	t.Setenv("MAX_MESSAGE_LENGTH", "12")

	cfg := Load()

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "sqlite", cfg.StoreBackend)
	assert.Equal(t, 1500*time.Millisecond, cfg.LLMTimeout)
	assert.Equal(t, 12, cfg.MaxMessageLength)
}

func TestLoadIgnoresMalformedInt(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-number")

	assert.Equal(t, 8080, Load().HTTPPort, "malformed value falls back to the default")
}
