package llm

import (
	"fmt"
	"log"

	"github.com/xiaot623/clompanion/internal/config"
)

// Provider names accepted by NewGenerator.
const (
	ProviderMock      = "mock"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// NewGenerator creates the generator selected by cfg.LLMProvider.
func NewGenerator(cfg *config.Config) (Generator, error) {
	switch cfg.LLMProvider {
	case "", ProviderMock:
		log.Println("LLM_PROVIDER=mock, using mock generator")
		return NewMockClient(), nil
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMMaxTokens, cfg.SystemPrompt), nil
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMMaxTokens, cfg.SystemPrompt), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}
