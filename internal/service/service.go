// Package service implements the chat-turn orchestration.
package service

import (
	"github.com/xiaot623/clompanion/internal/adapter/contextdoc"
	"github.com/xiaot623/clompanion/internal/adapter/llm"
	"github.com/xiaot623/clompanion/internal/config"
	"github.com/xiaot623/clompanion/internal/policy"
	"github.com/xiaot623/clompanion/internal/repository"
)

// Service drives the session store and the generation collaborator.
type Service struct {
	store           repository.Store
	generator       llm.Generator
	contextSupplier contextdoc.Supplier
	policyEngine    *policy.Engine
	config          *config.Config
}

// New creates a service. contextSupplier and policyEngine may be nil.
func New(store repository.Store, generator llm.Generator, contextSupplier contextdoc.Supplier, cfg *config.Config, policyEngine *policy.Engine) *Service {
	return &Service{
		store:           store,
		generator:       generator,
		contextSupplier: contextSupplier,
		policyEngine:    policyEngine,
		config:          cfg,
	}
}
