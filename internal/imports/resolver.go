// Package imports resolves a document's root-level component imports.
//
// Each {localName -> address} entry resolves independently: one entry's
// failure never blocks the others, and a failed entry is simply absent
// from the resulting map so its usages fall through to unknown-element
// handling. Identical addresses requested within one document load share
// a single underlying fetch.
package imports

import (
	"context"
	"log/slog"
	"sync"

	"github.com/futurepaul/hypernote-pages/pkg/domain"
	"github.com/futurepaul/hypernote-pages/pkg/observability"
	"github.com/futurepaul/hypernote-pages/pkg/ports"
	"golang.org/x/sync/singleflight"
)

// Resolver fans out import fetches through a ComponentFetcher.
type Resolver struct {
	fetcher ports.ComponentFetcher
	logger  *slog.Logger
	metrics *observability.Metrics
	group   singleflight.Group
}

// New creates a Resolver. metrics may be nil.
func New(fetcher ports.ComponentFetcher, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{fetcher: fetcher, logger: logger, metrics: metrics}
}

// ResolveAll resolves every import entry and returns the components that
// succeeded. Entries fan out one goroutine each; there is deliberately no
// fixed slot cap. Duplicate addresses collapse onto one fetch via
// singleflight.
func (r *Resolver) ResolveAll(ctx context.Context, declared map[string]string) map[string]*domain.Node {
	if len(declared) == 0 || r.fetcher == nil {
		return nil
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		resolved = make(map[string]*domain.Node, len(declared))
	)
	for localName, address := range declared {
		wg.Add(1)
		go func(localName, address string) {
			defer wg.Done()
			v, err, _ := r.group.Do(address, func() (any, error) {
				return r.fetcher.Fetch(ctx, address)
			})
			if err != nil {
				r.logger.Warn("import failed", "name", localName, "address", address, "err", err)
				r.metrics.IncImportFailure()
				return
			}
			node, ok := v.(*domain.Node)
			if !ok || node == nil {
				r.logger.Warn("import resolved to nothing", "name", localName, "address", address)
				r.metrics.IncImportFailure()
				return
			}
			mu.Lock()
			resolved[localName] = node
			mu.Unlock()
		}(localName, address)
	}
	wg.Wait()
	return resolved
}
