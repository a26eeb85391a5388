package contextdoc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xiaot623/clompanion/internal/domain"
)

// maxDocumentBytes caps the response body read from the context endpoint.
const maxDocumentBytes = 1 << 20

// HTTPSupplier fetches the context document as a JSON object over HTTP GET.
type HTTPSupplier struct {
	url    string
	client *http.Client
}

// NewHTTPSupplier creates an HTTP-backed supplier.
func NewHTTPSupplier(url string, timeout time.Duration) *HTTPSupplier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSupplier{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch requests the document and decodes it.
func (h *HTTPSupplier) Fetch(ctx context.Context) (*domain.ContextDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch context: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("context endpoint returned status %d", resp.StatusCode)
	}

	data := map[string]any{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal context: %w", err)
	}

	return &domain.ContextDocument{
		Source: h.url,
		Data:   data,
	}, nil
}

// Ensure HTTPSupplier implements Supplier interface.
var _ Supplier = (*HTTPSupplier)(nil)
