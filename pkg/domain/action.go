package domain

// ActionDefinition is a declarative recipe for building one publishable
// event from the current scope. Declared once per document, looked up by
// name at invocation time.
type ActionDefinition struct {
	// Kind is a literal number or a numeric string.
	Kind any `json:"kind" mapstructure:"kind"`

	// Content is either a string leaf or a mapping whose leaves resolve
	// independently. Leaves prefixed "form." / "state." / "queries."
	// evaluate as paths; "now" and "user"/"user.pubkey" are special
	// tokens; everything else passes through unchanged.
	Content any `json:"content" mapstructure:"content"`

	// Tags declares rows of references/literals, each resolved like a
	// content leaf and coerced to string.
	Tags [][]any `json:"tags,omitempty" mapstructure:"tags"`

	// Base optionally references an existing record to merge under the
	// resolved content. Empty-string values after the merge delete keys.
	Base string `json:"base,omitempty" mapstructure:"base"`

	// Clear resets all form fields after a successful publish.
	Clear bool `json:"clear,omitempty" mapstructure:"clear"`
}

// Event is the unsigned output of action execution. Its shape must match
// the external signer's expected input exactly.
type Event struct {
	Kind      int        `json:"kind"`
	Content   string     `json:"content"`
	Tags      [][]string `json:"tags"`
	CreatedAt int64      `json:"created_at"`
}

// SignedEvent is an Event after the external signer has stamped it.
// The engine treats ID, PubKey and Sig as opaque.
type SignedEvent struct {
	Event
	ID     string `json:"id"`
	PubKey string `json:"pubkey"`
	Sig    string `json:"sig"`
}
