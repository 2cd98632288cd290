package runtime

import (
	"github.com/futurepaul/hypernote-pages/pkg/domain"
)

// itemBinding carries the iteration variable for a child scope.
type itemBinding struct {
	name  string
	value any
	index int
}

// Scope is the immutable-per-render evaluation context. Derivations copy
// the struct and replace one field; the maps themselves are never written
// after construction.
type Scope struct {
	// Queries holds external query results keyed by query name.
	Queries map[string]any
	// State is the document's declared static state.
	State map[string]any
	// Form is a snapshot of current form field values.
	Form map[string]string
	// Props carries caller-supplied attributes inside an imported
	// component subtree.
	Props map[string]any
	// Components maps local element names to resolved imported ASTs.
	// Cleared in component child scopes: imports resolve one level only.
	Components map[string]*domain.Node
	// Identity is the current signed-in pubkey, "" when signed out.
	Identity string

	item *itemBinding
}

// Root implements expr.Scope. Namespaces resolve before bare query and
// state names so "form.x" can never be shadowed by a query called "form".
func (s *Scope) Root(name string) (any, bool) {
	if s.item != nil {
		switch name {
		case s.item.name:
			return s.item.value, true
		case "index":
			return float64(s.item.index), true
		}
	}
	switch name {
	case "form":
		return stringMapToAny(s.Form), s.Form != nil
	case "state":
		return s.State, s.State != nil
	case "props":
		return s.Props, s.Props != nil
	case "queries":
		return s.Queries, s.Queries != nil
	case "user":
		if s.Identity == "" {
			return nil, false
		}
		return map[string]any{"pubkey": s.Identity}, true
	}
	if v, ok := s.Queries[name]; ok {
		return v, true
	}
	if v, ok := s.State[name]; ok {
		return v, true
	}
	return nil, false
}

// WithItem derives the child scope for one iteration pass. Only the bound
// item name and the index are shadowed; every other entry stays visible.
func (s *Scope) WithItem(name string, value any, index int) *Scope {
	child := *s
	child.item = &itemBinding{name: name, value: value, index: index}
	return &child
}

// ForComponent derives the scope an imported component renders under:
// props replaced with the caller's attributes and the components map
// cleared. The cleared map is the structural enforcement of the
// one-level-import invariant.
func (s *Scope) ForComponent(props map[string]any) *Scope {
	child := *s
	child.Props = props
	child.Components = nil
	child.item = nil
	return &child
}

// Component looks up a resolved import by local element name.
func (s *Scope) Component(name string) (*domain.Node, bool) {
	n, ok := s.Components[name]
	return n, ok
}

func stringMapToAny(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
