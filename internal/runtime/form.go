package runtime

import (
	"strings"
	"sync"

	"github.com/futurepaul/hypernote-pages/internal/expr"
)

// FormState owns the current field values of one document instance.
// Values are always strings; any coercion happens at the evaluation and
// action boundaries, never here.
type FormState struct {
	mu     sync.RWMutex
	values map[string]string

	// deferred holds fields whose declared default is a queries.* or
	// state.* reference, to be seeded once that data arrives.
	deferred map[string]string
}

// NewFormState seeds literal defaults immediately and records referenced
// defaults for later. A default is a reference when it starts with
// "queries." or "state.".
func NewFormState(declared map[string]string) *FormState {
	f := &FormState{
		values:   make(map[string]string),
		deferred: make(map[string]string),
	}
	for field, def := range declared {
		if isReferenceDefault(def) {
			f.deferred[field] = def
			continue
		}
		f.values[field] = def
	}
	return f
}

func isReferenceDefault(def string) bool {
	return strings.HasPrefix(def, "queries.") || strings.HasPrefix(def, "state.")
}

// ApplyDeferred evaluates pending referenced defaults against scope.
// A field the user has already edited (currently non-empty) is never
// overwritten; a default that resolves stops being pending.
func (f *FormState) ApplyDeferred(e *expr.Evaluator, scope expr.Scope) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for field, ref := range f.deferred {
		v, ok := e.Eval(ref, scope)
		if !ok {
			continue // data not here yet, keep waiting
		}
		if f.values[field] == "" {
			f.values[field] = expr.Stringify(v)
		}
		delete(f.deferred, field)
	}
}

// Set stores one field value.
func (f *FormState) Set(field, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[field] = value
}

// Get returns the current value of a field.
func (f *FormState) Get(field string) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values[field]
}

// Snapshot copies the current values for an immutable render scope.
func (f *FormState) Snapshot() map[string]string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Reset clears every field. Called only after a successful publish of an
// action declared with clear: true.
func (f *FormState) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = make(map[string]string)
}
