package expr_test

import (
	"testing"
	"time"

	"github.com/futurepaul/hypernote-pages/internal/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapScope backs tests with a plain map of root names.
type mapScope map[string]any

func (m mapScope) Root(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

func TestEval_Paths(t *testing.T) {
	e := expr.New(nil)
	scope := mapScope{
		"profile": map[string]any{"name": "Bob", "about": ""},
		"note": map[string]any{
			"content": "Hello World",
			"tags":    []any{[]any{"t", "nostr"}, []any{"t", "go"}},
		},
	}

	t.Run("simple path", func(t *testing.T) {
		v, ok := e.Eval("profile.name", scope)
		require.True(t, ok)
		assert.Equal(t, "Bob", v)
	})

	t.Run("bracket index", func(t *testing.T) {
		v, ok := e.Eval("note.tags[0][1]", scope)
		require.True(t, ok)
		assert.Equal(t, "nostr", v)
	})

	t.Run("missing segment is absent", func(t *testing.T) {
		_, ok := e.Eval("profile.missing.deeper", scope)
		assert.False(t, ok)
	})

	t.Run("missing root is absent", func(t *testing.T) {
		_, ok := e.Eval("nothing.here", scope)
		assert.False(t, ok)
	})

	t.Run("index out of range is absent", func(t *testing.T) {
		_, ok := e.Eval("note.tags[9]", scope)
		assert.False(t, ok)
	})

	t.Run("question marks are cosmetic", func(t *testing.T) {
		v, ok := e.Eval("profile?.name", scope)
		require.True(t, ok)
		assert.Equal(t, "Bob", v)
	})

	t.Run("curly delimiters stripped", func(t *testing.T) {
		v, ok := e.Eval("{profile.name}", scope)
		require.True(t, ok)
		assert.Equal(t, "Bob", v)
	})
}

func TestEval_Literals(t *testing.T) {
	e := expr.New(nil)
	scope := mapScope{}

	t.Run("quoted strings", func(t *testing.T) {
		v, _ := e.Eval("'hello'", scope)
		assert.Equal(t, "hello", v)
		v, _ = e.Eval(`"world"`, scope)
		assert.Equal(t, "world", v)
	})

	t.Run("numeric string evaluates to number", func(t *testing.T) {
		v, ok := e.Eval("42", scope)
		require.True(t, ok)
		assert.Equal(t, float64(42), v)

		v, ok = e.Eval("3.14", scope)
		require.True(t, ok)
		assert.Equal(t, 3.14, v)
	})

	t.Run("booleans", func(t *testing.T) {
		v, _ := e.Eval("true", scope)
		assert.Equal(t, true, v)
		v, _ = e.Eval("false", scope)
		assert.Equal(t, false, v)
	})

	t.Run("null and undefined are present but nil", func(t *testing.T) {
		// As a lone default-chain alternative, nil is skipped: absent.
		_, ok := e.Eval("null", scope)
		assert.False(t, ok)
		_, ok = e.Eval("undefined", scope)
		assert.False(t, ok)
	})
}

func TestEval_DefaultChain(t *testing.T) {
	e := expr.New(nil)

	t.Run("fallback on absent", func(t *testing.T) {
		v, ok := e.Eval("profile.name // 'Anon'", mapScope{"profile": map[string]any{}})
		require.True(t, ok)
		assert.Equal(t, "Anon", v)
	})

	t.Run("first present wins", func(t *testing.T) {
		v, ok := e.Eval("profile.name // 'Anon'", mapScope{"profile": map[string]any{"name": "Bob"}})
		require.True(t, ok)
		assert.Equal(t, "Bob", v)
	})

	t.Run("empty string is skipped", func(t *testing.T) {
		v, ok := e.Eval("profile.about // 'no bio'", mapScope{"profile": map[string]any{"about": ""}})
		require.True(t, ok)
		assert.Equal(t, "no bio", v)
	})

	t.Run("null is skipped", func(t *testing.T) {
		v, ok := e.Eval("profile.about // 'no bio'", mapScope{"profile": map[string]any{"about": nil}})
		require.True(t, ok)
		assert.Equal(t, "no bio", v)
	})

	t.Run("all alternatives absent", func(t *testing.T) {
		_, ok := e.Eval("a.b // c.d // ''", mapScope{})
		assert.False(t, ok)
	})
}

func TestEval_Pipes(t *testing.T) {
	e := expr.New(nil)
	scope := mapScope{"note": map[string]any{"content": "Hello World"}}

	t.Run("truncate", func(t *testing.T) {
		v, ok := e.Eval("note.content | truncate(10)", scope)
		require.True(t, ok)
		assert.Equal(t, "Hello W...", v)
	})

	t.Run("chained filters", func(t *testing.T) {
		v, ok := e.Eval("note.content | uppercase | truncate(8)", scope)
		require.True(t, ok)
		assert.Equal(t, "HELLO...", v)
	})

	t.Run("absent base short-circuits", func(t *testing.T) {
		_, ok := e.Eval("missing.path | uppercase", scope)
		assert.False(t, ok)
	})

	t.Run("pipe then default", func(t *testing.T) {
		v, ok := e.Eval("missing.path | uppercase // 'fallback'", scope)
		require.True(t, ok)
		assert.Equal(t, "fallback", v)
	})
}

func TestEval_NeverPanics(t *testing.T) {
	e := expr.New(nil)
	scope := mapScope{"x": map[string]any{"y": 1}}

	for _, raw := range []string{
		"", "   ", "{", "}", "{}", "|", "//", "x |", "x.y.z.w", "x[zzz]",
		"x.y | nosuchfilter(1,2,3)", "x.y | truncate(", "'unterminated",
		"[0]x", "...", "x..y",
	} {
		assert.NotPanics(t, func() {
			_, _ = e.Eval(raw, scope)
		}, "raw=%q", raw)
	}
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", expr.Stringify(nil))
	assert.Equal(t, "1", expr.Stringify(float64(1)))
	assert.Equal(t, "1.5", expr.Stringify(1.5))
	assert.Equal(t, "hi", expr.Stringify("hi"))
	assert.Equal(t, `{"a":"1"}`, expr.Stringify(map[string]any{"a": "1"}))
}

func TestEval_ClockInjection(t *testing.T) {
	fixed := time.Unix(1_700_000_000, 0)
	e := expr.New(nil, expr.WithClock(func() time.Time { return fixed }))

	v, ok := e.Eval("ts | format_date('relative')", mapScope{"ts": float64(1_700_000_000 - 120)})
	if !ok {
		t.Fatal("expected value")
	}
	if v != "2m ago" {
		t.Errorf("got %v, want 2m ago", v)
	}
}
