package ports

import (
	"context"
	"testing"

	"github.com/futurepaul/hypernote-pages/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunComponentFetcherContract verifies that a ComponentFetcher adheres to
// the interface contract: a known address resolves to an AST, an unknown
// one fails with domain.ErrComponentNotFound, and failures are per-address
// (a bad address never poisons a good one).
func RunComponentFetcherContract(t *testing.T, fetcher ComponentFetcher, knownAddress string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Fetch Known", func(t *testing.T) {
		node, err := fetcher.Fetch(ctx, knownAddress)
		require.NoError(t, err, "Fetch should resolve a known address")
		require.NotNil(t, node)
	})

	t.Run("Fetch Unknown", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, "contract-test-missing-address")
		assert.ErrorIs(t, err, domain.ErrComponentNotFound)
	})

	t.Run("Known After Unknown", func(t *testing.T) {
		_, _ = fetcher.Fetch(ctx, "contract-test-missing-address")
		node, err := fetcher.Fetch(ctx, knownAddress)
		require.NoError(t, err, "a failed fetch must not affect later fetches")
		require.NotNil(t, node)
	})
}

// RunQuerySourceContract verifies Lookup semantics for a QuerySource that
// has the given name populated and nothing else.
func RunQuerySourceContract(t *testing.T, source QuerySource, knownName string) {
	t.Helper()

	t.Run("Lookup Known", func(t *testing.T) {
		v, ok := source.Lookup(knownName)
		require.True(t, ok, "known query should be available")
		assert.NotNil(t, v)
	})

	t.Run("Lookup Pending", func(t *testing.T) {
		_, ok := source.Lookup("contract-test-missing-query")
		assert.False(t, ok, "missing query must report not-yet-available, not error")
	})
}
