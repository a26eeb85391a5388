package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/xiaot623/clompanion/internal/adapter/llm"
	"github.com/xiaot623/clompanion/internal/domain"
	"github.com/xiaot623/clompanion/internal/policy"
)

// ChatRequest is one inbound chat turn. A nil Message means the field was absent.
type ChatRequest struct {
	Message   *string
	SessionID string
}

// ChatReply is the outcome of a successful turn.
type ChatReply struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
	MessageID string `json:"message_id"`
}

// HandleMessage runs one chat turn: validate, resolve the session, record the
// user message, generate, record the assistant message.
//
// If generation fails the user message stays in the log and the error wraps
// domain.ErrUpstream.
func (s *Service) HandleMessage(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	if req.Message == nil {
		return nil, fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}
	text := strings.TrimSpace(*req.Message)
	if text == "" {
		return nil, fmt.Errorf("%w: message cannot be empty", domain.ErrInvalidInput)
	}

	if err := s.checkPolicy(ctx, text, req.SessionID); err != nil {
		return nil, err
	}

	sessionID, isNew, err := s.store.GetOrCreate(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	if isNew {
		log.Printf("Session created: %s", sessionID)
	}

	userMsg := domain.NewMessage(domain.RoleUser, text)
	if err := s.store.Append(ctx, sessionID, userMsg); err != nil {
		return nil, turnError("append user message", err)
	}

	history, err := s.priorHistory(ctx, sessionID, userMsg.ID)
	if err != nil {
		return nil, err
	}

	reply, err := s.generate(ctx, &llm.GenerateRequest{
		Prompt:  text,
		History: history,
		Context: s.fetchContext(ctx),
	})
	if err != nil {
		log.Printf("ERROR: generation failed for session %s: %v", sessionID, err)
		return nil, fmt.Errorf("%w: generate reply: %w", domain.ErrUpstream, err)
	}

	assistantMsg := domain.NewMessage(domain.RoleAssistant, reply)
	if err := s.store.Append(ctx, sessionID, assistantMsg); err != nil {
		return nil, turnError("append assistant message", err)
	}

	return &ChatReply{
		SessionID: sessionID,
		Response:  reply,
		MessageID: assistantMsg.ID,
	}, nil
}

// turnError wraps a store failure that happens after the session was resolved.
// A session deleted mid-turn fails the turn as an internal error, never as not found.
func turnError(action string, err error) error {
	if errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("failed to %s: session deleted during turn", action)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func (s *Service) checkPolicy(ctx context.Context, text, sessionID string) error {
	if s.policyEngine == nil {
		return nil
	}

	maxLength := 0
	if s.config != nil {
		maxLength = s.config.MaxMessageLength
	}
	if maxLength <= 0 {
		// no configured cap; keep the comparison in the policy satisfiable
		maxLength = utf8.RuneCountInString(text)
	}

	res, err := s.policyEngine.Evaluate(ctx, policy.Input{
		Message:   text,
		Length:    utf8.RuneCountInString(text),
		MaxLength: maxLength,
		SessionID: sessionID,
	})
	if err != nil {
		return fmt.Errorf("failed to evaluate message policy: %w", err)
	}
	if !res.Allowed() {
		reason := res.Reason
		if reason == "" {
			reason = "message rejected by policy"
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, reason)
	}
	return nil
}

// priorHistory returns the session log up to, but excluding, the current user message.
func (s *Service) priorHistory(ctx context.Context, sessionID, currentID string) ([]domain.Message, error) {
	messages, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, turnError("load history", err)
	}
	for i, m := range messages {
		if m.ID == currentID {
			return messages[:i], nil
		}
	}
	return messages, nil
}

// fetchContext returns the context document, or nil when none is configured
// or the supplier fails. A failed fetch never fails the turn.
func (s *Service) fetchContext(ctx context.Context) *domain.ContextDocument {
	if s.contextSupplier == nil {
		return nil
	}
	if s.config != nil && s.config.ContextTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ContextTimeout)
		defer cancel()
	}

	doc, err := s.contextSupplier.Fetch(ctx)
	if err != nil {
		log.Printf("WARN: context document unavailable, continuing without it: %v", err)
		return nil
	}
	return doc
}

func (s *Service) generate(ctx context.Context, req *llm.GenerateRequest) (string, error) {
	if s.config != nil && s.config.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.LLMTimeout)
		defer cancel()
	}

	reply, err := s.generator.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", errors.New("generator returned an empty reply")
	}
	return reply, nil
}
