package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/xiaot623/clompanion/internal/domain"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient generates replies through an OpenAI-compatible chat completions API.
// A custom base URL lets it talk to LiteLLM or any compatible proxy.
type OpenAIClient struct {
	client       *openai.Client
	model        string
	maxTokens    int
	systemPrompt string
}

// NewOpenAIClient creates a new OpenAI generator.
func NewOpenAIClient(baseURL, apiKey, model string, maxTokens int, systemPrompt string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAIClient{
		client:       openai.NewClientWithConfig(cfg),
		model:        model,
		maxTokens:    maxTokens,
		systemPrompt: systemPrompt,
	}
}

// Ensure OpenAIClient implements Generator interface.
var _ Generator = (*OpenAIClient)(nil)

// Generate sends the conversation as a non-streaming chat completion.
func (c *OpenAIClient) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	var messages []openai.ChatCompletionMessage
	if system := buildSystemPrompt(c.systemPrompt, req.Context); system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, m := range buildConversation(req) {
		role := openai.ChatMessageRoleUser
		if m.Role == domain.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("chat completion returned empty content")
	}
	return content, nil
}
