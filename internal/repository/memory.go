package repository

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/xiaot623/clompanion/internal/domain"
)

// MemoryStore implements Store with sharded in-process maps.
//
// Each shard guards only its map; every session carries its own mutex, so
// operations on different sessions never wait on each other beyond a brief
// shard lookup, and operations on one session are serialized.
type MemoryStore struct {
	shards []*memoryShard
}

type memoryShard struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	mu      sync.Mutex
	session domain.Session
	// deleted is set once the entry is unlinked from its shard; holders of a
	// stale pointer must treat the session as absent.
	deleted bool
}

// NewMemoryStore creates an in-memory store with the given shard count.
func NewMemoryStore(shards int) *MemoryStore {
	if shards <= 0 {
		shards = 1
	}
	s := &MemoryStore{shards: make([]*memoryShard, shards)}
	for i := range s.shards {
		s.shards[i] = &memoryShard{sessions: make(map[string]*sessionEntry)}
	}
	return s
}

func (s *MemoryStore) shardFor(sessionID string) *memoryShard {
	return s.shards[xxhash.Sum64String(sessionID)%uint64(len(s.shards))]
}

func (s *MemoryStore) lookup(sessionID string) *sessionEntry {
	shard := s.shardFor(sessionID)
	shard.mu.RLock()
	entry := shard.sessions[sessionID]
	shard.mu.RUnlock()
	return entry
}

// GetOrCreate gets an existing session or creates a new one.
func (s *MemoryStore) GetOrCreate(ctx context.Context, sessionID string) (string, bool, error) {
	if sessionID == "" {
		sessionID = domain.NewSessionID()
	}

	if s.lookup(sessionID) != nil {
		return sessionID, false, nil
	}

	shard := s.shardFor(sessionID)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if _, ok := shard.sessions[sessionID]; ok {
		return sessionID, false, nil
	}
	shard.sessions[sessionID] = &sessionEntry{
		session: domain.Session{ID: sessionID, CreatedAt: time.Now()},
	}
	return sessionID, true, nil
}

// Append adds a message to a session log.
func (s *MemoryStore) Append(ctx context.Context, sessionID string, msg domain.Message) error {
	entry := s.lookup(sessionID)
	if entry == nil {
		return domain.ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.deleted {
		return domain.ErrSessionNotFound
	}
	entry.session.Messages = append(entry.session.Messages, msg)
	return nil
}

// Get returns a copy of the session log.
func (s *MemoryStore) Get(ctx context.Context, sessionID string) ([]domain.Message, error) {
	entry := s.lookup(sessionID)
	if entry == nil {
		return nil, domain.ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.deleted {
		return nil, domain.ErrSessionNotFound
	}
	snapshot := make([]domain.Message, len(entry.session.Messages))
	copy(snapshot, entry.session.Messages)
	return snapshot, nil
}

// Delete removes a session if present.
func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	shard := s.shardFor(sessionID)
	shard.mu.Lock()
	entry, ok := shard.sessions[sessionID]
	if ok {
		delete(shard.sessions, sessionID)
	}
	shard.mu.Unlock()

	if !ok {
		return nil
	}

	entry.mu.Lock()
	entry.deleted = true
	entry.session.Messages = nil
	entry.mu.Unlock()
	return nil
}

// List returns a summary of all sessions.
func (s *MemoryStore) List(ctx context.Context) ([]domain.SessionSummary, error) {
	var summaries []domain.SessionSummary
	for _, shard := range s.shards {
		shard.mu.RLock()
		entries := make([]*sessionEntry, 0, len(shard.sessions))
		for _, entry := range shard.sessions {
			entries = append(entries, entry)
		}
		shard.mu.RUnlock()

		for _, entry := range entries {
			entry.mu.Lock()
			if !entry.deleted {
				summaries = append(summaries, entry.session.Summary())
			}
			entry.mu.Unlock()
		}
	}
	return summaries, nil
}

// Close releases nothing; the store lives as long as the process.
func (s *MemoryStore) Close() error {
	return nil
}

// Ensure MemoryStore implements Store interface.
var _ Store = (*MemoryStore)(nil)
