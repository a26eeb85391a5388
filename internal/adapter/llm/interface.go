// Package llm provides the response-generation collaborator and its clients.
package llm

import (
	"context"

	"github.com/xiaot623/clompanion/internal/domain"
)

// Generator produces an assistant reply for one chat turn.
type Generator interface {
	// Generate returns the reply text. Any failure, including an empty
	// completion, is reported as an error.
	Generate(ctx context.Context, req *GenerateRequest) (string, error)
}

// GenerateRequest is the input of one generation call.
type GenerateRequest struct {
	// Prompt is the trimmed user text of the current turn.
	Prompt string
	// History is the session log preceding Prompt, oldest first.
	History []domain.Message
	// Context is an optional document to ground the reply.
	Context *domain.ContextDocument
}
