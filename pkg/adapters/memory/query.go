// Package memory provides in-memory implementations of the engine's
// ports. They back tests and embedded usage where no network exists.
package memory

import (
	"context"
	"sync"
)

// QuerySource implements ports.QuerySource and ports.Watchable with a
// plain map. Safe for concurrent use.
type QuerySource struct {
	mu       sync.RWMutex
	results  map[string]any
	watchers []chan string

	notes    map[string]any
	profiles map[string]any
}

// NewQuerySource creates an empty source.
func NewQuerySource() *QuerySource {
	return &QuerySource{
		results:  make(map[string]any),
		notes:    make(map[string]any),
		profiles: make(map[string]any),
	}
}

// Set stores a query result and notifies watchers.
func (q *QuerySource) Set(name string, value any) {
	q.mu.Lock()
	q.results[name] = value
	watchers := make([]chan string, len(q.watchers))
	copy(watchers, q.watchers)
	q.mu.Unlock()

	for _, w := range watchers {
		select {
		case w <- name:
		default: // slow watcher, drop rather than block the writer
		}
	}
}

// Lookup returns the current value for a query name.
func (q *QuerySource) Lookup(name string) (any, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	v, ok := q.results[name]
	return v, ok
}

// Snapshot copies every currently available result.
func (q *QuerySource) Snapshot() map[string]any {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make(map[string]any, len(q.results))
	for k, v := range q.results {
		out[k] = v
	}
	return out
}

// Watch returns a channel receiving the name of each updated query.
func (q *QuerySource) Watch(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, 16)
	q.mu.Lock()
	q.watchers = append(q.watchers, ch)
	q.mu.Unlock()

	go func() {
		<-ctx.Done()
		q.mu.Lock()
		for i, w := range q.watchers {
			if w == ch {
				q.watchers = append(q.watchers[:i], q.watchers[i+1:]...)
				break
			}
		}
		q.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// SetNote seeds a record for the note-by-id primitive.
func (q *QuerySource) SetNote(id string, record any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notes[id] = record
}

// SetProfile seeds a record for the profile-by-identity primitive.
func (q *QuerySource) SetProfile(pubkey string, record any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.profiles[pubkey] = record
}

// Note implements ports.RecordSource.
func (q *QuerySource) Note(_ context.Context, id string) (any, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	v, ok := q.notes[id]
	return v, ok
}

// Profile implements ports.RecordSource.
func (q *QuerySource) Profile(_ context.Context, pubkey string) (any, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	v, ok := q.profiles[pubkey]
	return v, ok
}
