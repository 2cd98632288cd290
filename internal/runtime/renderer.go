package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/futurepaul/hypernote-pages/internal/expr"
	"github.com/futurepaul/hypernote-pages/pkg/domain"
	"github.com/futurepaul/hypernote-pages/pkg/observability"
	"github.com/futurepaul/hypernote-pages/pkg/ports"
	"github.com/spf13/cast"
)

// Renderer walks the AST and produces the evaluated render tree. It is a
// pure recursive dispatcher: no internal state machine, no mutation of
// scope. The only state it keeps between renders is the per-item
// iteration memo.
type Renderer struct {
	logger  *slog.Logger
	eval    *expr.Evaluator
	records ports.RecordSource
	metrics *observability.Metrics

	memo map[string]*memoEntry
}

type memoEntry struct {
	fingerprint string
	nodes       []*domain.RenderNode
}

// NewRenderer creates a renderer. records and metrics may be nil.
func NewRenderer(logger *slog.Logger, eval *expr.Evaluator, records ports.RecordSource, metrics *observability.Metrics) *Renderer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Renderer{
		logger:  logger,
		eval:    eval,
		records: records,
		metrics: metrics,
		memo:    make(map[string]*memoEntry),
	}
}

// Render evaluates nodes against scope. Rendering is synchronous and
// never blocks on data: anything not yet available simply renders as
// absent, and the caller re-renders when a source updates.
func (r *Renderer) Render(ctx context.Context, nodes []*domain.Node, scope *Scope) []*domain.RenderNode {
	r.metrics.IncRender()
	return r.renderAll(ctx, nodes, scope)
}

func (r *Renderer) renderAll(ctx context.Context, nodes []*domain.Node, scope *Scope) []*domain.RenderNode {
	var out []*domain.RenderNode
	for _, n := range nodes {
		out = append(out, r.renderNode(ctx, n, scope)...)
	}
	return out
}

// renderNode dispatches one AST node. It returns a slice because
// expression nodes and fragments may contribute zero or many outputs.
func (r *Renderer) renderNode(ctx context.Context, n *domain.Node, scope *Scope) []*domain.RenderNode {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case domain.KindFragment:
		return r.renderAll(ctx, n.Children, scope)
	case domain.KindFrontmatter:
		// Consumed at load time, nothing to draw.
		return nil
	case domain.KindInlineExpr:
		return r.renderExpression(n.Expr, scope, false)
	case domain.KindBlockExpr:
		return r.renderExpression(n.Expr, scope, true)
	case domain.KindElement:
		return r.renderElement(ctx, n, scope)
	default:
		return r.renderStructural(ctx, n, scope)
	}
}

// structuralKinds maps AST node kinds that render without data binding.
var structuralKinds = map[domain.NodeKind]string{
	domain.KindText:       domain.RenderText,
	domain.KindHeading:    domain.RenderHeading,
	domain.KindParagraph:  domain.RenderParagraph,
	domain.KindEmphasis:   domain.RenderEmphasis,
	domain.KindStrong:     domain.RenderStrong,
	domain.KindCodeInline: domain.RenderCode,
	domain.KindCodeBlock:  domain.RenderCodeBlock,
	domain.KindLink:       domain.RenderLink,
	domain.KindImage:      domain.RenderImage,
	domain.KindList:       domain.RenderList,
	domain.KindListItem:   domain.RenderListItem,
}

func (r *Renderer) renderStructural(ctx context.Context, n *domain.Node, scope *Scope) []*domain.RenderNode {
	kind, ok := structuralKinds[n.Kind]
	if !ok {
		// Unrecognized structural node: recurse so children survive.
		return r.renderAll(ctx, n.Children, scope)
	}
	return []*domain.RenderNode{{
		Kind:     kind,
		Text:     n.Text,
		URL:      n.URL,
		Level:    n.Level,
		Ordered:  n.Ordered,
		Children: r.renderAll(ctx, n.Children, scope),
	}}
}

// renderExpression evaluates an inline or block binding. Absent renders
// as nothing at all.
func (r *Renderer) renderExpression(raw string, scope *Scope, block bool) []*domain.RenderNode {
	v, ok := r.eval.Eval(raw, scope)
	if !ok {
		return nil
	}
	text := &domain.RenderNode{Kind: domain.RenderText, Text: expr.Stringify(v)}
	if block {
		return []*domain.RenderNode{{Kind: domain.RenderParagraph, Children: []*domain.RenderNode{text}}}
	}
	return []*domain.RenderNode{text}
}

func (r *Renderer) renderElement(ctx context.Context, n *domain.Node, scope *Scope) []*domain.RenderNode {
	res := resolveElement(n.Name, scope)
	switch res.kind {
	case elemLayout:
		return r.renderLayout(ctx, n, res.spec, scope)
	case elemDataBound:
		return r.renderDataBound(ctx, n, res.spec, scope)
	case elemForm:
		return r.renderForm(ctx, n, res.spec, scope)
	case elemIteration:
		return r.renderIteration(ctx, n, scope)
	case elemImported:
		return r.renderImported(ctx, n, res.imported, scope)
	default:
		return r.renderUnknown(ctx, n, scope)
	}
}

func (r *Renderer) renderLayout(ctx context.Context, n *domain.Node, spec builtinSpec, scope *Scope) []*domain.RenderNode {
	attrs := r.evalAttrs(n, scope)
	out := &domain.RenderNode{
		Kind:     spec.render,
		Attrs:    attrs,
		Children: r.renderAll(ctx, n.Children, scope),
	}
	if spec.render == domain.RenderImage {
		out.URL = attrs["src"]
	}
	return []*domain.RenderNode{out}
}

// renderDataBound handles the primitives that fetch their own record:
// a single note by id, a profile by identity. The fetch is delegated to
// the RecordSource port; "not here yet" renders the shell with no data.
func (r *Renderer) renderDataBound(ctx context.Context, n *domain.Node, spec builtinSpec, scope *Scope) []*domain.RenderNode {
	attrs := r.evalAttrs(n, scope)
	out := &domain.RenderNode{
		Kind:     spec.render,
		Attrs:    attrs,
		Children: r.renderAll(ctx, n.Children, scope),
	}
	if r.records == nil {
		return []*domain.RenderNode{out}
	}

	var record any
	var found bool
	switch spec.render {
	case domain.RenderNote:
		if id := attrs["id"]; id != "" {
			record, found = r.records.Note(ctx, id)
		}
	case domain.RenderProfile:
		pubkey := attrs["pubkey"]
		if pubkey == "" {
			pubkey = scope.Identity
		}
		if pubkey != "" {
			record, found = r.records.Profile(ctx, pubkey)
		}
	}
	if found {
		r.attachRecord(out, record)
	}
	return []*domain.RenderNode{out}
}

// attachRecord surfaces well-known fields of a fetched record on the
// render node so hosts can draw it without re-fetching.
func (r *Renderer) attachRecord(out *domain.RenderNode, record any) {
	m, ok := record.(map[string]any)
	if !ok {
		out.Text = expr.Stringify(record)
		return
	}
	if out.Attrs == nil {
		out.Attrs = make(map[string]string)
	}
	for _, field := range []string{"content", "name", "picture", "pubkey", "created_at"} {
		if v, ok := m[field]; ok {
			if field == "content" {
				out.Text = expr.Stringify(v)
				continue
			}
			out.Attrs[field] = expr.Stringify(v)
		}
	}
}

func (r *Renderer) renderForm(ctx context.Context, n *domain.Node, spec builtinSpec, scope *Scope) []*domain.RenderNode {
	attrs := r.evalAttrs(n, scope)
	out := &domain.RenderNode{
		Kind:     spec.render,
		Attrs:    attrs,
		Children: r.renderAll(ctx, n.Children, scope),
	}
	switch spec.render {
	case domain.RenderButton:
		out.Action = attrs["action"]
	default:
		out.Field = attrs["name"]
		if out.Field != "" {
			if out.Attrs == nil {
				out.Attrs = make(map[string]string)
			}
			out.Attrs["value"] = scope.Form[out.Field]
		}
	}
	return []*domain.RenderNode{out}
}

// renderIteration runs the sole looping construct. A missing or
// non-array source renders nothing; that is normal operation, not an
// error.
func (r *Renderer) renderIteration(ctx context.Context, n *domain.Node, scope *Scope) []*domain.RenderNode {
	bindName := r.iterationBinding(n, scope)
	if bindName == "" {
		r.logger.Warn("iteration element missing binding name", "element", n.Name)
		return nil
	}

	src, ok := n.Attr("source")
	if !ok {
		r.logger.Debug("iteration element missing source attribute")
		return nil
	}
	v, ok := r.attrValue(src, scope)
	if !ok || v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		r.logger.Debug("iteration source is not an array", "type", fmt.Sprintf("%T", v))
		return nil
	}

	var out []*domain.RenderNode
	for i := 0; i < rv.Len(); i++ {
		item := rv.Index(i).Interface()
		key := identityKey(item, i)
		memoKey := fmt.Sprintf("%p/%s/%s", n, bindName, key)
		fp := fmt.Sprintf("%d:%s", i, expr.Stringify(item))

		if entry, hit := r.memo[memoKey]; hit && entry.fingerprint == fp {
			out = append(out, entry.nodes...)
			continue
		}
		child := scope.WithItem(bindName, item, i)
		nodes := r.renderAll(ctx, n.Children, child)
		for _, rendered := range nodes {
			rendered.Key = key
		}
		r.memo[memoKey] = &memoEntry{fingerprint: fp, nodes: nodes}
		out = append(out, nodes...)
	}
	return out
}

func (r *Renderer) iterationBinding(n *domain.Node, scope *Scope) string {
	a, ok := n.Attr("as")
	if !ok {
		return ""
	}
	v, ok := r.attrValue(a, scope)
	if !ok {
		return ""
	}
	return cast.ToString(v)
}

// identityKey prefers a stable id-like field for render identity and
// falls back to the positional index.
func identityKey(item any, index int) string {
	if m, ok := item.(map[string]any); ok {
		for _, field := range []string{"id", "key", "_id", "pubkey"} {
			if v, ok := m[field]; ok {
				if s := expr.Stringify(v); s != "" {
					return s
				}
			}
		}
	}
	return fmt.Sprintf("%d", index)
}

// renderImported renders an imported component AST as a fresh subtree.
// The derived scope replaces props with the caller's attributes and
// clears the components map, so a nested import reference inside the
// imported AST falls through to unknown-element handling.
func (r *Renderer) renderImported(ctx context.Context, n *domain.Node, ast *domain.Node, scope *Scope) []*domain.RenderNode {
	props := make(map[string]any, len(n.Attributes))
	for _, a := range n.Attributes {
		if v, ok := r.attrValue(a, scope); ok {
			props[a.Name] = v
		}
	}
	child := scope.ForComponent(props)
	return r.renderNode(ctx, ast, child)
}

// renderUnknown emits an inert placeholder. Children still render and
// siblings are unaffected; the diagnostic is the only escalation.
func (r *Renderer) renderUnknown(ctx context.Context, n *domain.Node, scope *Scope) []*domain.RenderNode {
	r.logger.Warn("unknown element", "element", n.Name)
	r.metrics.IncUnknownElement()
	attrs := r.evalAttrs(n, scope)
	if attrs == nil {
		attrs = make(map[string]string)
	}
	attrs["element"] = n.Name
	return []*domain.RenderNode{{
		Kind:     domain.RenderUnknown,
		Attrs:    attrs,
		Children: r.renderAll(ctx, n.Children, scope),
	}}
}

// attrValue resolves one attribute: literals pass through as strings,
// expressions evaluate against the current scope.
func (r *Renderer) attrValue(a domain.Attribute, scope *Scope) (any, bool) {
	if a.Kind == domain.AttrExpression {
		return r.eval.Eval(a.Value, scope)
	}
	return a.Value, true
}

// evalAttrs resolves and stringifies every attribute. Absent expressions
// are omitted rather than rendered empty.
func (r *Renderer) evalAttrs(n *domain.Node, scope *Scope) map[string]string {
	if len(n.Attributes) == 0 {
		return nil
	}
	out := make(map[string]string, len(n.Attributes))
	for _, a := range n.Attributes {
		v, ok := r.attrValue(a, scope)
		if !ok {
			continue
		}
		out[a.Name] = expr.Stringify(v)
	}
	return out
}
