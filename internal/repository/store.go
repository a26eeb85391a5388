// Package repository defines the session store interface and its implementations.
package repository

import (
	"context"
	"fmt"

	"github.com/xiaot623/clompanion/internal/config"
	"github.com/xiaot623/clompanion/internal/domain"
)

// Store is a concurrency-safe keyed store of append-only message logs.
type Store interface {
	// GetOrCreate returns sessionID if it is known, creates it if it is not,
	// and generates a fresh id when sessionID is empty. isNew reports creation.
	GetOrCreate(ctx context.Context, sessionID string) (id string, isNew bool, err error)

	// Append adds msg to the end of the session log.
	// It fails with domain.ErrSessionNotFound if the session does not exist.
	Append(ctx context.Context, sessionID string, msg domain.Message) error

	// Get returns a snapshot of the session log in append order.
	// It fails with domain.ErrSessionNotFound if the session does not exist.
	Get(ctx context.Context, sessionID string) ([]domain.Message, error)

	// Delete removes the session and its messages. Deleting an unknown session succeeds.
	Delete(ctx context.Context, sessionID string) error

	// List returns a summary of every known session.
	List(ctx context.Context) ([]domain.SessionSummary, error)

	// Lifecycle
	Close() error
}

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// New creates the store selected by cfg.StoreBackend.
func New(cfg *config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case "", BackendMemory:
		return NewMemoryStore(cfg.StoreShards), nil
	case BackendSQLite:
		return NewSQLiteStore(cfg.DatabaseURL)
	case BackendRedis:
		return NewRedisStore(cfg.RedisURL, cfg.RedisKeyPrefix)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
