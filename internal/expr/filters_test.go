package expr_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/futurepaul/hypernote-pages/internal/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_FirstLast(t *testing.T) {
	e := expr.New(nil)
	scope := mapScope{
		"items": []any{"a", "b", "c"},
		"empty": []any{},
		"word":  "scalar",
	}

	v, ok := e.Eval("items | first", scope)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = e.Eval("items | last", scope)
	require.True(t, ok)
	assert.Equal(t, "c", v)

	t.Run("empty array is absent", func(t *testing.T) {
		_, ok := e.Eval("empty | first", scope)
		assert.False(t, ok)
	})

	t.Run("non-array passes through", func(t *testing.T) {
		v, ok := e.Eval("word | first", scope)
		require.True(t, ok)
		assert.Equal(t, "scalar", v)
	})
}

func TestFilter_FromJSON(t *testing.T) {
	e := expr.New(nil)
	scope := mapScope{
		"good": `{"name":"Bob","tags":["a","b"]}`,
		"bad":  `{oops`,
	}

	v, ok := e.Eval("good | fromjson", scope)
	require.True(t, ok)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Bob", m["name"])

	t.Run("parsed result is traversable", func(t *testing.T) {
		v, ok := e.Eval("good | fromjson | length", scope)
		require.True(t, ok)
		assert.Equal(t, float64(2), v)
	})

	t.Run("malformed JSON is absent", func(t *testing.T) {
		_, ok := e.Eval("bad | fromjson", scope)
		assert.False(t, ok)
	})
}

func TestFilter_Truncate(t *testing.T) {
	e := expr.New(nil)

	t.Run("short text untouched", func(t *testing.T) {
		v, _ := e.Eval("msg | truncate(20)", mapScope{"msg": "short"})
		assert.Equal(t, "short", v)
	})

	t.Run("exact boundary untouched", func(t *testing.T) {
		v, _ := e.Eval("msg | truncate(5)", mapScope{"msg": "exact"})
		assert.Equal(t, "exact", v)
	})

	t.Run("long text sliced with ellipsis", func(t *testing.T) {
		v, _ := e.Eval("msg | truncate(10)", mapScope{"msg": "Hello World"})
		assert.Equal(t, "Hello W...", v)
	})

	t.Run("default limit is 100", func(t *testing.T) {
		long := ""
		for i := 0; i < 150; i++ {
			long += "x"
		}
		v, _ := e.Eval("msg | truncate", mapScope{"msg": long})
		s := v.(string)
		assert.Len(t, s, 100)
		assert.Equal(t, "...", s[97:])
	})

	t.Run("result length bounded", func(t *testing.T) {
		for _, n := range []int{5, 10, 50} {
			text := ""
			for i := 0; i < n*2; i++ {
				text += "a"
			}
			v, _ := e.Eval(fmt.Sprintf("msg | truncate(%d)", n), mapScope{"msg": text})
			assert.LessOrEqual(t, len(v.(string)), n, "n=%d", n)
		}
	})
}

func TestFilter_Case(t *testing.T) {
	e := expr.New(nil)
	scope := mapScope{"word": "MixedCase"}

	v, _ := e.Eval("word | uppercase", scope)
	assert.Equal(t, "MIXEDCASE", v)

	v, _ = e.Eval("word | lowercase", scope)
	assert.Equal(t, "mixedcase", v)
}

func TestFilter_Length(t *testing.T) {
	e := expr.New(nil)
	scope := mapScope{
		"items": []any{1, 2, 3},
		"word":  "hello",
		"num":   float64(42),
	}

	v, _ := e.Eval("items | length", scope)
	assert.Equal(t, float64(3), v)

	v, _ = e.Eval("word | length", scope)
	assert.Equal(t, float64(5), v)

	t.Run("non-measurable is zero", func(t *testing.T) {
		v, _ := e.Eval("num | length", scope)
		assert.Equal(t, float64(0), v)
	})
}

func TestFilter_FormatDateRelative(t *testing.T) {
	now := time.Unix(2_000_000_000, 0)
	e := expr.New(nil, expr.WithClock(func() time.Time { return now }))

	cases := []struct {
		delta int64
		want  string
	}{
		{0, "just now"},
		{59, "just now"},
		{60, "1m ago"},
		{3599, "59m ago"},
		{3600, "1h ago"},
		{86399, "23h ago"},
		{86400, "1d ago"},
		{604799, "6d ago"},
		{604800, "1w ago"},
		{3 * 604800, "3w ago"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			scope := mapScope{"ts": float64(now.Unix() - tc.delta)}
			v, ok := e.Eval("ts | format_date('relative')", scope)
			require.True(t, ok)
			assert.Equal(t, tc.want, v, "delta=%d", tc.delta)
		})
	}
}

func TestFilter_FormatDateModes(t *testing.T) {
	e := expr.New(nil)
	scope := mapScope{"ts": float64(1_700_000_000)}

	for _, mode := range []string{"datetime", "date", "time"} {
		v, ok := e.Eval(fmt.Sprintf("ts | format_date('%s')", mode), scope)
		require.True(t, ok, "mode=%s", mode)
		assert.NotEmpty(t, v, "mode=%s", mode)
	}

	t.Run("non-timestamp is absent", func(t *testing.T) {
		_, ok := e.Eval("word | format_date('date')", mapScope{"word": "not a time"})
		assert.False(t, ok)
	})
}

func TestFilter_Unknown(t *testing.T) {
	e := expr.New(nil)
	scope := mapScope{"word": "keepme"}

	// Unknown filters warn and pass the value through, they do not
	// produce absent.
	v, ok := e.Eval("word | sparkle", scope)
	require.True(t, ok)
	assert.Equal(t, "keepme", v)
}
