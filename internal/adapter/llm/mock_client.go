package llm

import (
	"context"
	"fmt"
)

// MockClient is a deterministic Generator for tests and local runs.
type MockClient struct{}

// NewMockClient creates a new mock generator.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Ensure MockClient implements Generator interface.
var _ Generator = (*MockClient)(nil)

// Generate echoes the prompt together with how much context it was given.
func (m *MockClient) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	turn := len(req.History)/2 + 1
	reply := fmt.Sprintf("[MOCK] Received your message: %q (turn %d).", truncate(req.Prompt, 100), turn)
	if req.Context != nil && req.Context.Source != "" {
		reply += fmt.Sprintf(" Context: %s.", req.Context.Source)
	}
	return reply, nil
}

// truncate truncates a string to the given length.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
