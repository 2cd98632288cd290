package domain

// Render node kinds. Structural kinds mirror the AST; element kinds are
// the evaluated built-in primitives the host UI knows how to draw.
const (
	RenderText      = "text"
	RenderHeading   = "heading"
	RenderParagraph = "paragraph"
	RenderEmphasis  = "emphasis"
	RenderStrong    = "strong"
	RenderCode      = "code"
	RenderCodeBlock = "code_block"
	RenderLink      = "link"
	RenderImage     = "image"
	RenderList      = "list"
	RenderListItem  = "list_item"

	RenderHStack   = "hstack"
	RenderVStack   = "vstack"
	RenderZStack   = "zstack"
	RenderNote     = "note"
	RenderProfile  = "profile"
	RenderInput    = "input"
	RenderTextarea = "textarea"
	RenderButton   = "button"
	RenderUnknown  = "unknown"
)

// RenderNode is one node of the evaluated output tree. All expressions
// have already been resolved; hosts (terminal, HTTP, native UI) consume
// this tree without touching scope or the evaluator.
type RenderNode struct {
	Kind string `json:"kind"`

	Text    string `json:"text,omitempty"`
	URL     string `json:"url,omitempty"`
	Level   int    `json:"level,omitempty"`
	Ordered bool   `json:"ordered,omitempty"`

	// Attrs holds the evaluated element attributes, stringified.
	Attrs map[string]string `json:"attrs,omitempty"`

	// Field names the bound form field for input/textarea primitives.
	Field string `json:"field,omitempty"`
	// Action names the declared action a button triggers.
	Action string `json:"action,omitempty"`
	// Key is the per-item render identity inside an iteration.
	Key string `json:"key,omitempty"`

	Children []*RenderNode `json:"children,omitempty"`
}
