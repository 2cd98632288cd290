package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/futurepaul/hypernote-pages/pkg/domain"
)

// Fetcher implements ports.ComponentFetcher from an in-memory map of
// address -> component AST.
type Fetcher struct {
	mu         sync.RWMutex
	components map[string]*domain.Node

	// Fetches counts Fetch calls, including misses. Tests use it to
	// verify that duplicate addresses collapse onto one fetch.
	Fetches atomic.Int64
}

// NewFetcher creates an empty fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{components: make(map[string]*domain.Node)}
}

// Add registers a component AST under an address.
func (f *Fetcher) Add(address string, node *domain.Node) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.components[address] = node
}

// AddJSON registers a component from its JSON interchange form.
// This mirrors how authored components arrive off the wire.
func (f *Fetcher) AddJSON(address string, data []byte) error {
	var node domain.Node
	if err := json.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("failed to parse component %s: %w", address, err)
	}
	f.Add(address, &node)
	return nil
}

// Fetch resolves an address to its component AST.
func (f *Fetcher) Fetch(_ context.Context, address string) (*domain.Node, error) {
	f.Fetches.Add(1)
	f.mu.RLock()
	defer f.mu.RUnlock()
	node, ok := f.components[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrComponentNotFound, address)
	}
	return node, nil
}
