// Package expr implements the binding-expression language: paths and
// literals combined with "//" default chains and "|" filter pipes,
// evaluated against a per-render scope.
//
// Evaluation never panics and never returns an error. Every failure mode
// degrades to an absent value (second return false) with at most a
// warn-level diagnostic.
package expr

import (
	"encoding/json"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Scope resolves the root name of a path expression to a value. The
// runtime scope implements this; tests use small map-backed fakes.
type Scope interface {
	Root(name string) (any, bool)
}

// Evaluator evaluates expressions. It is stateless apart from its logger
// and clock and is safe for concurrent use.
type Evaluator struct {
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the Evaluator.
type Option func(*Evaluator)

// WithClock overrides the time source used by format_date(relative).
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		e.now = now
	}
}

// New creates an Evaluator. A nil logger discards diagnostics.
func New(logger *slog.Logger, opts ...Option) *Evaluator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Evaluator{logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Eval evaluates raw against scope. The second return is false when the
// expression is absent: every default-chain alternative failed to produce
// a usable value.
func (e *Evaluator) Eval(raw string, scope Scope) (any, bool) {
	raw = stripDelimiters(raw)
	if raw == "" {
		return nil, false
	}

	// "//" default chain: first alternative that is not absent, not null
	// and not the empty string wins.
	for _, alt := range splitTop(raw, "//") {
		v, ok := e.evalPipeChain(strings.TrimSpace(alt), scope)
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func (e *Evaluator) evalPipeChain(chain string, scope Scope) (any, bool) {
	segments := splitTop(chain, "|")
	v, ok := e.evalValue(strings.TrimSpace(segments[0]), scope)
	if !ok {
		// An absent base short-circuits the whole pipe.
		return nil, false
	}
	for _, seg := range segments[1:] {
		v, ok = e.applyFilter(strings.TrimSpace(seg), v, scope)
		if !ok {
			return nil, false
		}
	}
	return v, true
}

// evalValue resolves a single valueExpr: a literal or a path.
func (e *Evaluator) evalValue(s string, scope Scope) (any, bool) {
	if s == "" {
		return nil, false
	}
	if v, ok := parseLiteral(s); ok {
		return v, true
	}
	return resolvePath(s, scope)
}

// parseLiteral recognizes quoted strings, keywords and decimal numbers.
// A token that fully parses as a number evaluates to that number.
func parseLiteral(s string) (any, bool) {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return unescape(s[1 : len(s)-1]), true
		}
	}
	switch s {
	case "true":
		return true, true
	case "false":
		return false, true
	case "null", "undefined":
		return nil, true
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n, true
	}
	return nil, false
}

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// resolvePath walks a dot-separated path with optional bracket indices
// ("note.tags[0]", "items?.length"). "?" characters are cosmetic and
// ignored. Resolution short-circuits to absent the moment a step meets
// nil or a missing key; it never panics.
func resolvePath(path string, scope Scope) (any, bool) {
	path = strings.ReplaceAll(path, "?", "")
	segs, ok := splitPath(path)
	if !ok || len(segs) == 0 {
		return nil, false
	}
	if segs[0].index >= 0 {
		return nil, false // paths start with an identifier, not an index
	}
	v, ok := scope.Root(segs[0].key)
	if !ok {
		return nil, false
	}
	for _, seg := range segs[1:] {
		v, ok = step(v, seg)
		if !ok {
			return nil, false
		}
	}
	return v, true
}

type pathSeg struct {
	key   string
	index int // -1 when key is set
}

func splitPath(path string) ([]pathSeg, bool) {
	var segs []pathSeg
	for _, part := range strings.Split(path, ".") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, false
		}
		for {
			open := strings.IndexByte(part, '[')
			if open < 0 {
				if part != "" {
					segs = append(segs, pathSeg{key: part, index: -1})
				}
				break
			}
			if open > 0 {
				segs = append(segs, pathSeg{key: part[:open], index: -1})
			}
			close := strings.IndexByte(part[open:], ']')
			if close < 0 {
				return nil, false
			}
			idx, err := strconv.Atoi(part[open+1 : open+close])
			if err != nil {
				return nil, false
			}
			segs = append(segs, pathSeg{index: idx})
			part = part[open+close+1:]
		}
	}
	return segs, true
}

// step advances one path segment into maps, slices and structs of any
// element type.
func step(v any, seg pathSeg) (any, bool) {
	if v == nil {
		return nil, false
	}
	// Fast paths for the shapes JSON and YAML decoding produce.
	switch tv := v.(type) {
	case map[string]any:
		if seg.index >= 0 {
			return nil, false
		}
		out, ok := tv[seg.key]
		return out, ok
	case []any:
		if seg.index < 0 || seg.index >= len(tv) {
			return nil, false
		}
		return tv[seg.index], true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if seg.index >= 0 {
			return nil, false
		}
		out := rv.MapIndex(reflect.ValueOf(seg.key))
		if !out.IsValid() {
			return nil, false
		}
		return out.Interface(), true
	case reflect.Slice, reflect.Array:
		if seg.index < 0 || seg.index >= rv.Len() {
			return nil, false
		}
		return rv.Index(seg.index).Interface(), true
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, false
		}
		return step(rv.Elem().Interface(), seg)
	}
	return nil, false
}

// Stringify renders an evaluated value the way the document shows it:
// numbers without a trailing ".0", nil as the empty string, structured
// values as compact JSON.
func Stringify(v any) string {
	if v == nil {
		return ""
	}
	switch v.(type) {
	case map[string]any, []any:
		return compactJSON(v)
	}
	return cast.ToString(v)
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
