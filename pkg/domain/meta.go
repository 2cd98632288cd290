package domain

// Meta holds the frontmatter declarations the engine consumes.
// It uses "mapstructure" tags so the compiler can decode the generic YAML
// map the parser hands over. Keys the engine does not interpret (queries,
// background, styling) are preserved in Extra for external collaborators.
type Meta struct {
	Title string `json:"title,omitempty" mapstructure:"title"`

	// Imports maps a local element name to an opaque component address.
	// Only honored at the document root; imported components cannot
	// declare further imports.
	Imports map[string]string `json:"imports,omitempty" mapstructure:"imports"`

	// Form maps a field name to its default: either a plain literal or a
	// "queries.*" / "state.*" reference seeded once the data arrives.
	Form map[string]string `json:"form,omitempty" mapstructure:"form"`

	// State is the document's declared static state.
	State map[string]any `json:"state,omitempty" mapstructure:"state"`

	// Actions maps an action name to its declarative recipe.
	Actions map[string]ActionDefinition `json:"actions,omitempty" mapstructure:"actions"`

	// Extra carries frontmatter keys owned by external collaborators.
	Extra map[string]any `json:"-" mapstructure:",remain"`
}

// Document pairs decoded frontmatter with the renderable AST.
type Document struct {
	Meta  Meta    `json:"meta"`
	Nodes []*Node `json:"nodes"`
}
