// Package http adapts the engine to HTTP: a component fetcher that
// resolves URL addresses, and a small JSON API for rendering documents
// and executing actions.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/futurepaul/hypernote-pages/pkg/domain"
)

// Fetcher implements ports.ComponentFetcher for http(s) addresses. The
// component definition is expected as AST JSON.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher. A nil client uses http.DefaultClient.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client}
}

// Fetch resolves an address by GET.
func (f *Fetcher) Fetch(ctx context.Context, address string) (*domain.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid component address %s: %w", address, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("component fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", domain.ErrComponentNotFound, address)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("component fetch %s: unexpected status %d", address, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("component fetch %s: %w", address, err)
	}
	var node domain.Node
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("component %s is not valid AST JSON: %w", address, err)
	}
	return &node, nil
}
