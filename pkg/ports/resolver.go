package ports

import (
	"context"

	"github.com/futurepaul/hypernote-pages/pkg/domain"
)

// ComponentFetcher resolves an opaque component address to its authored
// AST. The address structure (naddr, URL, file path) is the fetcher's
// concern; the engine only needs "resolve to AST or fail".
//
// Returns domain.ErrComponentNotFound (possibly wrapped) when the address
// does not resolve.
type ComponentFetcher interface {
	Fetch(ctx context.Context, address string) (*domain.Node, error)
}
