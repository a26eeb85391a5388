package llm

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/xiaot623/clompanion/internal/domain"
)

// ChatMessage is a provider-neutral prompt message.
type ChatMessage struct {
	Role    domain.Role
	Content string
}

// buildSystemPrompt merges the configured instruction with the context document.
func buildSystemPrompt(systemPrompt string, doc *domain.ContextDocument) string {
	if doc == nil || len(doc.Data) == 0 {
		return systemPrompt
	}

	data, err := json.MarshalIndent(doc.Data, "", "  ")
	if err != nil {
		log.Printf("WARN: context document %s dropped, cannot encode: %v", doc.Source, err)
		return systemPrompt
	}

	var b strings.Builder
	b.WriteString(systemPrompt)
	if systemPrompt != "" {
		b.WriteString("\n\n")
	}
	if doc.Source != "" {
		fmt.Fprintf(&b, "Context document (%s):\n", doc.Source)
	} else {
		b.WriteString("Context document:\n")
	}
	b.Write(data)
	return b.String()
}

// buildConversation lays out history followed by the current prompt.
// Entries with a role other than user or assistant are skipped.
func buildConversation(req *GenerateRequest) []ChatMessage {
	messages := make([]ChatMessage, 0, len(req.History)+1)
	for _, m := range req.History {
		if !m.Role.Valid() {
			continue
		}
		messages = append(messages, ChatMessage{Role: m.Role, Content: m.Content})
	}
	return append(messages, ChatMessage{Role: domain.RoleUser, Content: req.Prompt})
}
