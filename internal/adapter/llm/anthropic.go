package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/xiaot623/clompanion/internal/domain"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicClient generates replies through the Anthropic Messages API.
type AnthropicClient struct {
	client       anthropic.Client
	model        string
	maxTokens    int64
	systemPrompt string
}

// NewAnthropicClient creates a new Anthropic generator.
func NewAnthropicClient(baseURL, apiKey, model string, maxTokens int, systemPrompt string) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// the service does not retry collaborator failures
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &AnthropicClient{
		client:       anthropic.NewClient(opts...),
		model:        model,
		maxTokens:    int64(maxTokens),
		systemPrompt: systemPrompt,
	}
}

// Ensure AnthropicClient implements Generator interface.
var _ Generator = (*AnthropicClient)(nil)

// Generate sends the conversation to the Messages API.
func (c *AnthropicClient) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	var messages []anthropic.MessageParam
	for _, m := range buildConversation(req) {
		if m.Role == domain.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  messages,
	}
	if system := buildSystemPrompt(c.systemPrompt, req.Context); system != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: system},
		}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("messages request failed: %w", err)
	}

	var content strings.Builder
	for _, block := range message.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			content.WriteString(variant.Text)
		}
	}

	text := strings.TrimSpace(content.String())
	if text == "" {
		return "", errors.New("messages response contained no text")
	}
	return text, nil
}
