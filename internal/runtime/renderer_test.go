package runtime_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/futurepaul/hypernote-pages/internal/expr"
	"github.com/futurepaul/hypernote-pages/internal/runtime"
	"github.com/futurepaul/hypernote-pages/pkg/adapters/memory"
	"github.com/futurepaul/hypernote-pages/pkg/domain"
	"github.com/futurepaul/hypernote-pages/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer(records ports.RecordSource) *runtime.Renderer {
	return runtime.NewRenderer(nil, expr.New(nil), records, nil)
}

func elem(name string, attrs []domain.Attribute, children ...*domain.Node) *domain.Node {
	return &domain.Node{Kind: domain.KindElement, Name: name, Attributes: attrs, Children: children}
}

func TestRenderer_Structural(t *testing.T) {
	r := newRenderer(nil)
	nodes := []*domain.Node{
		{Kind: domain.KindHeading, Level: 2, Text: "Title"},
		{Kind: domain.KindParagraph, Children: []*domain.Node{
			{Kind: domain.KindText, Text: "plain "},
			{Kind: domain.KindStrong, Text: "bold"},
		}},
	}

	tree := r.Render(context.Background(), nodes, &runtime.Scope{})
	require.Len(t, tree, 2)
	assert.Equal(t, domain.RenderHeading, tree[0].Kind)
	assert.Equal(t, 2, tree[0].Level)
	require.Len(t, tree[1].Children, 2)
	assert.Equal(t, domain.RenderStrong, tree[1].Children[1].Kind)
}

func TestRenderer_Expressions(t *testing.T) {
	r := newRenderer(nil)
	scope := &runtime.Scope{Queries: map[string]any{
		"profile": map[string]any{"name": "Bob"},
	}}

	t.Run("inline binding", func(t *testing.T) {
		tree := r.Render(context.Background(), []*domain.Node{
			{Kind: domain.KindInlineExpr, Expr: "profile.name // 'Anon'"},
		}, scope)
		require.Len(t, tree, 1)
		assert.Equal(t, "Bob", tree[0].Text)
	})

	t.Run("absent renders nothing", func(t *testing.T) {
		tree := r.Render(context.Background(), []*domain.Node{
			{Kind: domain.KindInlineExpr, Expr: "missing.path"},
		}, scope)
		assert.Empty(t, tree)
	})

	t.Run("block binding wraps in paragraph", func(t *testing.T) {
		tree := r.Render(context.Background(), []*domain.Node{
			{Kind: domain.KindBlockExpr, Expr: "profile.name"},
		}, scope)
		require.Len(t, tree, 1)
		assert.Equal(t, domain.RenderParagraph, tree[0].Kind)
		require.Len(t, tree[0].Children, 1)
		assert.Equal(t, "Bob", tree[0].Children[0].Text)
	})
}

func TestRenderer_Attributes(t *testing.T) {
	r := newRenderer(nil)
	scope := &runtime.Scope{Queries: map[string]any{
		"profile": map[string]any{"picture": "https://img.example/p.png"},
	}}

	node := elem("image", []domain.Attribute{
		{Name: "src", Value: "profile.picture", Kind: domain.AttrExpression},
		{Name: "alt", Value: "avatar", Kind: domain.AttrLiteral},
	})

	tree := r.Render(context.Background(), []*domain.Node{node}, scope)
	require.Len(t, tree, 1)
	assert.Equal(t, "https://img.example/p.png", tree[0].URL)
	assert.Equal(t, "avatar", tree[0].Attrs["alt"])

	t.Run("absent expression attr omitted", func(t *testing.T) {
		node := elem("vstack", []domain.Attribute{
			{Name: "style", Value: "missing.thing", Kind: domain.AttrExpression},
		})
		tree := r.Render(context.Background(), []*domain.Node{node}, scope)
		require.Len(t, tree, 1)
		_, present := tree[0].Attrs["style"]
		assert.False(t, present)
	})
}

func TestRenderer_FormPrimitives(t *testing.T) {
	r := newRenderer(nil)
	scope := &runtime.Scope{Form: map[string]string{"content": "draft text"}}

	tree := r.Render(context.Background(), []*domain.Node{
		elem("input", []domain.Attribute{{Name: "name", Value: "content", Kind: domain.AttrLiteral}}),
		elem("button", []domain.Attribute{{Name: "action", Value: "post", Kind: domain.AttrLiteral}},
			&domain.Node{Kind: domain.KindText, Text: "Send"}),
	}, scope)

	require.Len(t, tree, 2)
	assert.Equal(t, domain.RenderInput, tree[0].Kind)
	assert.Equal(t, "content", tree[0].Field)
	assert.Equal(t, "draft text", tree[0].Attrs["value"])

	assert.Equal(t, domain.RenderButton, tree[1].Kind)
	assert.Equal(t, "post", tree[1].Action)
}

func TestRenderer_DataBound(t *testing.T) {
	records := memory.NewQuerySource()
	records.SetNote("n1", map[string]any{"content": "fetched note", "pubkey": "pk1"})
	r := newRenderer(records)

	t.Run("record attached when available", func(t *testing.T) {
		tree := r.Render(context.Background(), []*domain.Node{
			elem("note", []domain.Attribute{{Name: "id", Value: "n1", Kind: domain.AttrLiteral}}),
		}, &runtime.Scope{})
		require.Len(t, tree, 1)
		assert.Equal(t, domain.RenderNote, tree[0].Kind)
		assert.Equal(t, "fetched note", tree[0].Text)
		assert.Equal(t, "pk1", tree[0].Attrs["pubkey"])
	})

	t.Run("missing record renders shell", func(t *testing.T) {
		tree := r.Render(context.Background(), []*domain.Node{
			elem("note", []domain.Attribute{{Name: "id", Value: "nope", Kind: domain.AttrLiteral}}),
		}, &runtime.Scope{})
		require.Len(t, tree, 1)
		assert.Empty(t, tree[0].Text)
	})

	t.Run("profile falls back to current identity", func(t *testing.T) {
		records.SetProfile("me", map[string]any{"name": "Self"})
		tree := r.Render(context.Background(), []*domain.Node{
			elem("profile", nil),
		}, &runtime.Scope{Identity: "me"})
		require.Len(t, tree, 1)
		assert.Equal(t, "Self", tree[0].Attrs["name"])
	})
}

func TestRenderer_Iteration(t *testing.T) {
	r := newRenderer(nil)
	feed := []any{
		map[string]any{"id": "a", "content": "first"},
		map[string]any{"id": "b", "content": "second"},
		map[string]any{"id": "c", "content": "third"},
	}
	scope := &runtime.Scope{Queries: map[string]any{"feed": feed}}

	each := elem("each", []domain.Attribute{
		{Name: "source", Value: "feed", Kind: domain.AttrExpression},
		{Name: "as", Value: "note", Kind: domain.AttrLiteral},
	}, &domain.Node{Kind: domain.KindInlineExpr, Expr: "note.content"})

	t.Run("one subtree per item in source order", func(t *testing.T) {
		tree := r.Render(context.Background(), []*domain.Node{each}, scope)
		require.Len(t, tree, 3)
		for i, want := range []string{"first", "second", "third"} {
			assert.Equal(t, want, tree[i].Text)
		}
	})

	t.Run("identity field used as key", func(t *testing.T) {
		tree := r.Render(context.Background(), []*domain.Node{each}, scope)
		assert.Equal(t, "a", tree[0].Key)
		assert.Equal(t, "c", tree[2].Key)
	})

	t.Run("index is bound", func(t *testing.T) {
		withIndex := elem("each", []domain.Attribute{
			{Name: "source", Value: "feed", Kind: domain.AttrExpression},
			{Name: "as", Value: "note", Kind: domain.AttrLiteral},
		}, &domain.Node{Kind: domain.KindInlineExpr, Expr: "index"})
		tree := r.Render(context.Background(), []*domain.Node{withIndex}, scope)
		require.Len(t, tree, 3)
		assert.Equal(t, "0", tree[0].Text)
		assert.Equal(t, "2", tree[2].Text)
	})

	t.Run("absent source renders nothing", func(t *testing.T) {
		missing := elem("each", []domain.Attribute{
			{Name: "source", Value: "nope", Kind: domain.AttrExpression},
			{Name: "as", Value: "x", Kind: domain.AttrLiteral},
		}, &domain.Node{Kind: domain.KindText, Text: "never"})
		tree := r.Render(context.Background(), []*domain.Node{missing}, scope)
		assert.Empty(t, tree)
	})

	t.Run("non-array source renders nothing", func(t *testing.T) {
		scalar := elem("each", []domain.Attribute{
			{Name: "source", Value: "'just a string'", Kind: domain.AttrExpression},
			{Name: "as", Value: "x", Kind: domain.AttrLiteral},
		}, &domain.Node{Kind: domain.KindText, Text: "never"})
		tree := r.Render(context.Background(), []*domain.Node{scalar}, scope)
		assert.Empty(t, tree)
	})

	t.Run("missing binding name renders nothing", func(t *testing.T) {
		unbound := elem("each", []domain.Attribute{
			{Name: "source", Value: "feed", Kind: domain.AttrExpression},
		}, &domain.Node{Kind: domain.KindText, Text: "never"})
		tree := r.Render(context.Background(), []*domain.Node{unbound}, scope)
		assert.Empty(t, tree)
	})
}

func TestRenderer_IterationMemo(t *testing.T) {
	r := newRenderer(nil)
	feed := []any{
		map[string]any{"id": "a", "content": "first"},
		map[string]any{"id": "b", "content": "second"},
	}
	each := elem("each", []domain.Attribute{
		{Name: "source", Value: "feed", Kind: domain.AttrExpression},
		{Name: "as", Value: "note", Kind: domain.AttrLiteral},
	}, &domain.Node{Kind: domain.KindInlineExpr, Expr: "note.content"})

	scope := &runtime.Scope{Queries: map[string]any{"feed": feed}}
	first := r.Render(context.Background(), []*domain.Node{each}, scope)
	require.Len(t, first, 2)

	// Change only the second item; the first subtree must be reused.
	updated := []any{
		feed[0],
		map[string]any{"id": "b", "content": "second v2"},
	}
	second := r.Render(context.Background(), []*domain.Node{each},
		&runtime.Scope{Queries: map[string]any{"feed": updated}})
	require.Len(t, second, 2)

	assert.Same(t, first[0], second[0], "unchanged sibling must be memoized")
	assert.NotSame(t, first[1], second[1])
	assert.Equal(t, "second v2", second[1].Text)
}

func TestRenderer_ImportedComponents(t *testing.T) {
	r := newRenderer(nil)

	card := &domain.Node{Kind: domain.KindFragment, Children: []*domain.Node{
		{Kind: domain.KindInlineExpr, Expr: "props.title"},
	}}
	scope := &runtime.Scope{
		Components: map[string]*domain.Node{"Card": card},
	}

	t.Run("renders with caller props", func(t *testing.T) {
		use := elem("Card", []domain.Attribute{
			{Name: "title", Value: "Hello", Kind: domain.AttrLiteral},
		})
		tree := r.Render(context.Background(), []*domain.Node{use}, scope)
		require.Len(t, tree, 1)
		assert.Equal(t, "Hello", tree[0].Text)
	})

	t.Run("nested import reference falls through to unknown", func(t *testing.T) {
		// A component that itself uses another import name: with the
		// components map cleared, the inner usage must become the
		// unknown-element placeholder, never a second-level import.
		nesting := &domain.Node{Kind: domain.KindFragment, Children: []*domain.Node{
			elem("Card", nil, &domain.Node{Kind: domain.KindText, Text: "inner"}),
		}}
		scope := &runtime.Scope{
			Components: map[string]*domain.Node{
				"Card":  card,
				"Outer": nesting,
			},
		}
		tree := r.Render(context.Background(), []*domain.Node{elem("Outer", nil)}, scope)
		require.Len(t, tree, 1)
		assert.Equal(t, domain.RenderUnknown, tree[0].Kind)
		// Children still render inside the placeholder.
		require.Len(t, tree[0].Children, 1)
		assert.Equal(t, "inner", tree[0].Children[0].Text)
	})
}

func TestRenderer_UnknownElement(t *testing.T) {
	r := newRenderer(nil)

	tree := r.Render(context.Background(), []*domain.Node{
		elem("widget", []domain.Attribute{{Name: "x", Value: "1", Kind: domain.AttrLiteral}},
			&domain.Node{Kind: domain.KindText, Text: "survives"}),
		{Kind: domain.KindText, Text: "sibling untouched"},
	}, &runtime.Scope{})

	require.Len(t, tree, 2, "unknown element must not abort siblings")
	assert.Equal(t, domain.RenderUnknown, tree[0].Kind)
	assert.Equal(t, "widget", tree[0].Attrs["element"])
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "survives", tree[0].Children[0].Text)
	assert.Equal(t, "sibling untouched", tree[1].Text)
}

func TestRenderer_CaseFoldedBuiltins(t *testing.T) {
	r := newRenderer(nil)
	tree := r.Render(context.Background(), []*domain.Node{
		elem("VStack", nil, &domain.Node{Kind: domain.KindText, Text: "inside"}),
	}, &runtime.Scope{})
	require.Len(t, tree, 1)
	assert.Equal(t, domain.RenderVStack, tree[0].Kind)
}

func TestRenderer_LargeIteration(t *testing.T) {
	r := newRenderer(nil)
	var feed []any
	for i := 0; i < 500; i++ {
		feed = append(feed, map[string]any{"id": fmt.Sprintf("n%d", i), "v": float64(i)})
	}
	each := elem("each", []domain.Attribute{
		{Name: "source", Value: "feed", Kind: domain.AttrExpression},
		{Name: "as", Value: "row", Kind: domain.AttrLiteral},
	}, &domain.Node{Kind: domain.KindInlineExpr, Expr: "row.v"})

	tree := r.Render(context.Background(), []*domain.Node{each},
		&runtime.Scope{Queries: map[string]any{"feed": feed}})
	require.Len(t, tree, 500)
	assert.Equal(t, "0", tree[0].Text)
	assert.Equal(t, "499", tree[499].Text)
}
