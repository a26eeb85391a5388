package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/xiaot623/clompanion/internal/domain"
)

// GetHistory returns the ordered log of a session.
func (s *Service) GetHistory(ctx context.Context, sessionID string) ([]domain.Message, error) {
	messages, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return messages, nil
}

// ClearHistory deletes a session. Unknown sessions are not an error.
func (s *Service) ClearHistory(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// ListSessions returns every known session, oldest first.
func (s *Service) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	sessions, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []domain.SessionSummary{}
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].SessionID < sessions[j].SessionID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions, nil
}
