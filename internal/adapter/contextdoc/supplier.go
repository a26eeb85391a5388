// Package contextdoc supplies the optional context document attached to each chat turn.
package contextdoc

import (
	"context"

	"github.com/xiaot623/clompanion/internal/config"
	"github.com/xiaot623/clompanion/internal/domain"
)

// Supplier returns a structured context document or fails.
type Supplier interface {
	Fetch(ctx context.Context) (*domain.ContextDocument, error)
}

// New returns the supplier configured by cfg, or nil when none is configured.
// CONTEXT_URL takes precedence over CONTEXT_FILE.
func New(cfg *config.Config) Supplier {
	switch {
	case cfg.ContextURL != "":
		return NewHTTPSupplier(cfg.ContextURL, cfg.ContextTimeout)
	case cfg.ContextFile != "":
		return NewFileSupplier(cfg.ContextFile)
	default:
		return nil
	}
}
