package domain

// NodeKind discriminates the AST union produced by the external parser.
// The renderer never sees raw text; it only walks these nodes.
type NodeKind string

const (
	KindText        NodeKind = "text"
	KindHeading     NodeKind = "heading"
	KindParagraph   NodeKind = "paragraph"
	KindEmphasis    NodeKind = "emphasis"
	KindStrong      NodeKind = "strong"
	KindCodeInline  NodeKind = "code_inline"
	KindCodeBlock   NodeKind = "code_block"
	KindLink        NodeKind = "link"
	KindImage       NodeKind = "image"
	KindList        NodeKind = "list"
	KindListItem    NodeKind = "list_item"
	KindFrontmatter NodeKind = "frontmatter"
	KindElement     NodeKind = "element"
	KindInlineExpr  NodeKind = "inline_expression"
	KindBlockExpr   NodeKind = "block_expression"
	KindFragment    NodeKind = "fragment"
)

// AttrKind tells the renderer whether an attribute value is a plain string
// or an expression to evaluate against the current scope. The tag is
// assigned by the parser, never inferred here.
type AttrKind string

const (
	AttrLiteral    AttrKind = "literal"
	AttrExpression AttrKind = "expression"
)

// Attribute is one entry of an element's ordered attribute list.
type Attribute struct {
	Name  string   `json:"name"`
	Value string   `json:"value"`
	Kind  AttrKind `json:"kind"`
}

// Node is a read-only AST node. Which fields are meaningful depends on Kind:
// Text carries text content (and the raw YAML for frontmatter nodes), Expr
// the raw expression string, Name and Attributes describe elements.
type Node struct {
	Kind NodeKind `json:"kind"`

	Text    string `json:"text,omitempty"`
	Expr    string `json:"expr,omitempty"`
	Level   int    `json:"level,omitempty"`
	URL     string `json:"url,omitempty"`
	Ordered bool   `json:"ordered,omitempty"`

	Name        string      `json:"name,omitempty"`
	Attributes  []Attribute `json:"attributes,omitempty"`
	SelfClosing bool        `json:"self_closing,omitempty"`

	Children []*Node `json:"children,omitempty"`
}

// Attr returns the first attribute with the given name.
func (n *Node) Attr(name string) (Attribute, bool) {
	for _, a := range n.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}
