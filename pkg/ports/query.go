package ports

import "context"

// QuerySource supplies the named external query results that enter scope
// (profile records, event lists, addressable records). The engine treats
// every value as opaque and tolerates "not yet available" at every read.
type QuerySource interface {
	// Lookup returns the current value for a query name. The second
	// return is false while the result has not arrived yet.
	Lookup(name string) (any, bool)

	// Snapshot returns every currently available result as a copy the
	// caller owns; results arriving later never mutate it.
	Snapshot() map[string]any
}

// Watchable is implemented by query sources that can signal updates.
// The engine re-renders when a name is received on the channel; it owns
// no retry or backoff policy, only consumption.
type Watchable interface {
	// Watch returns a channel that receives the name of each query whose
	// value changed. The channel closes when ctx is canceled.
	Watch(ctx context.Context) (<-chan string, error)
}

// RecordSource serves the point lookups that data-bound primitives
// trigger themselves: a single event by id, a profile by identity.
// Implementations are expected to start the underlying fetch on first
// miss and surface the value on a later render.
type RecordSource interface {
	Note(ctx context.Context, id string) (any, bool)
	Profile(ctx context.Context, pubkey string) (any, bool)
}
