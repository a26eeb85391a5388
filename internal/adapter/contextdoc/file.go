package contextdoc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xiaot623/clompanion/internal/domain"
)

// FileSupplier reads the context document from a JSON or YAML file on every fetch,
// so edits to the file apply to the next turn without a restart.
type FileSupplier struct {
	path string
}

// NewFileSupplier creates a file-backed supplier.
func NewFileSupplier(path string) *FileSupplier {
	return &FileSupplier{path: path}
}

// Fetch reads and decodes the file. A missing file yields an error wrapping os.ErrNotExist.
func (f *FileSupplier) Fetch(ctx context.Context) (*domain.ContextDocument, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read context file: %w", err)
	}

	data := map[string]any{}
	switch strings.ToLower(filepath.Ext(f.path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &data)
	default:
		err = json.Unmarshal(raw, &data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse context file %s: %w", f.path, err)
	}

	return &domain.ContextDocument{
		Source: filepath.Base(f.path),
		Data:   normalize(data).(map[string]any),
	}, nil
}

// normalize rewrites YAML maps with non-string keys into map[string]any so the
// document stays JSON-encodable.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalize(item)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range val {
			val[i] = normalize(item)
		}
		return val
	default:
		return v
	}
}

// Ensure FileSupplier implements Supplier interface.
var _ Supplier = (*FileSupplier)(nil)
