package contextdoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/clompanion/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileSupplierJSON(t *testing.T) {
	path := writeFile(t, "profile.json", `{"name":"Ada","interests":["math"]}`)

	doc, err := NewFileSupplier(path).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "profile.json", doc.Source)
	assert.Equal(t, "Ada", doc.Data["name"])
}

func TestFileSupplierYAML(t *testing.T) {
	path := writeFile(t, "profile.yaml", "name: Ada\nlevel: 3\n")

	doc, err := NewFileSupplier(path).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", doc.Data["name"])
	assert.Equal(t, 3, doc.Data["level"])
}

func TestFileSupplierYAMLNonStringKeys(t *testing.T) {
	path := writeFile(t, "scores.yaml", "name: Ada\nscores:\n  1: high\n  2: low\nitems:\n  - 10: ten\n")

	doc, err := NewFileSupplier(path).Fetch(context.Background())
	require.NoError(t, err)

	scores, ok := doc.Data["scores"].(map[string]any)
	require.True(t, ok, "nested map keys must be strings, got %T", doc.Data["scores"])
	assert.Equal(t, "high", scores["1"])

	items, ok := doc.Data["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, map[string]any{"10": "ten"}, items[0])

	_, err = json.Marshal(doc.Data)
	assert.NoError(t, err)
}

func TestFileSupplierMissing(t *testing.T) {
	_, err := NewFileSupplier(filepath.Join(t.TempDir(), "nope.json")).Fetch(context.Background())
	assert.True(t, errors.Is(err, os.ErrNotExist), "expected not-exist, got %v", err)
}

func TestFileSupplierMalformed(t *testing.T) {
	path := writeFile(t, "bad.json", `{"name":`)
	_, err := NewFileSupplier(path).Fetch(context.Background())
	assert.Error(t, err)
}

func TestHTTPSupplier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method: %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"topic":"billing"}`)
	}))
	defer server.Close()

	doc, err := NewHTTPSupplier(server.URL, time.Second).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, server.URL, doc.Source)
	assert.Equal(t, "billing", doc.Data["topic"])
}

func TestHTTPSupplierStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewHTTPSupplier(server.URL, time.Second).Fetch(context.Background())
	assert.ErrorContains(t, err, "404")
}

func TestNewSelectsSupplier(t *testing.T) {
	assert.Nil(t, New(&config.Config{}))
	assert.IsType(t, &FileSupplier{}, New(&config.Config{ContextFile: "ctx.json"}))
	assert.IsType(t, &HTTPSupplier{}, New(&config.Config{ContextFile: "ctx.json", ContextURL: "http://x"}))
}
