package runtime

import (
	"strings"

	"github.com/futurepaul/hypernote-pages/pkg/domain"
)

// elementKind is the closed dispatch variant for element nodes. Name
// resolution happens exactly once, in resolveElement, in strict priority
// order: built-ins, the iteration construct, resolved imports, unknown.
type elementKind int

const (
	elemUnknown elementKind = iota
	elemLayout
	elemDataBound
	elemForm
	elemIteration
	elemImported
)

// builtinSpec describes one entry of the built-in catalog.
type builtinSpec struct {
	kind   elementKind
	render string // domain.Render* kind emitted for this element
}

// builtinCatalog is the process-wide built-in element table. Initialized
// once; no runtime mutation path.
var builtinCatalog = map[string]builtinSpec{
	// Layout primitives.
	"hstack": {kind: elemLayout, render: domain.RenderHStack},
	"vstack": {kind: elemLayout, render: domain.RenderVStack},
	"zstack": {kind: elemLayout, render: domain.RenderZStack},
	"text":   {kind: elemLayout, render: domain.RenderText},
	"image":  {kind: elemLayout, render: domain.RenderImage},

	// Data-bound primitives: these trigger their own record fetch.
	"note":    {kind: elemDataBound, render: domain.RenderNote},
	"profile": {kind: elemDataBound, render: domain.RenderProfile},

	// Form primitives.
	"input":    {kind: elemForm, render: domain.RenderInput},
	"textarea": {kind: elemForm, render: domain.RenderTextarea},
	"button":   {kind: elemForm, render: domain.RenderButton},
}

// iterationElement is the sole looping construct.
const iterationElement = "each"

// resolution is the outcome of element name dispatch.
type resolution struct {
	kind     elementKind
	spec     builtinSpec  // valid for builtin kinds
	imported *domain.Node // valid for elemImported
}

// resolveElement maps an element name to its variant. Lookup is
// case-folded for built-ins and the iteration construct; import names
// match as authored.
func resolveElement(name string, scope *Scope) resolution {
	folded := strings.ToLower(name)
	if spec, ok := builtinCatalog[folded]; ok {
		return resolution{kind: spec.kind, spec: spec}
	}
	if folded == iterationElement {
		return resolution{kind: elemIteration}
	}
	if ast, ok := scope.Component(name); ok {
		return resolution{kind: elemImported, imported: ast}
	}
	return resolution{kind: elemUnknown}
}
