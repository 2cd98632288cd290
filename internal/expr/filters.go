package expr

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cast"
)

// filterFunc transforms the running pipe value. The bool return follows
// the evaluator convention: false means absent.
type filterFunc func(e *Evaluator, v any, args []any) (any, bool)

// filters is the closed filter catalog. It is populated once at package
// init and never mutated afterwards; there is deliberately no
// registration API.
var filters = map[string]filterFunc{
	"first":       filterFirst,
	"last":        filterLast,
	"fromjson":    filterFromJSON,
	"truncate":    filterTruncate,
	"uppercase":   filterUppercase,
	"lowercase":   filterLowercase,
	"length":      filterLength,
	"format_date": filterFormatDate,
}

// applyFilter parses one "name" or "name(arg, ...)" segment and applies
// it. An unknown filter name warns and passes the value through unchanged.
func (e *Evaluator) applyFilter(call string, v any, scope Scope) (any, bool) {
	name := call
	var args []any
	if open := strings.IndexByte(call, '('); open >= 0 {
		if !strings.HasSuffix(call, ")") {
			e.logger.Warn("malformed filter call", "call", call)
			return v, true
		}
		name = strings.TrimSpace(call[:open])
		for _, rawArg := range splitTop(call[open+1:len(call)-1], ",") {
			rawArg = strings.TrimSpace(rawArg)
			if rawArg == "" {
				continue
			}
			arg, ok := e.evalValue(rawArg, scope)
			if !ok {
				arg = nil
			}
			args = append(args, arg)
		}
	}

	fn, ok := filters[name]
	if !ok {
		e.logger.Warn("unknown filter", "filter", name)
		return v, true
	}
	return fn(e, v, args)
}

func filterFirst(_ *Evaluator, v any, _ []any) (any, bool) {
	return arrayEdge(v, false)
}

func filterLast(_ *Evaluator, v any, _ []any) (any, bool) {
	return arrayEdge(v, true)
}

// arrayEdge returns the head or tail of an array; non-arrays pass
// through unchanged, an empty array is absent.
func arrayEdge(v any, tail bool) (any, bool) {
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return v, v != nil
	}
	if rv.Len() == 0 {
		return nil, false
	}
	if tail {
		return rv.Index(rv.Len() - 1).Interface(), true
	}
	return rv.Index(0).Interface(), true
}

func filterFromJSON(e *Evaluator, v any, _ []any) (any, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		e.logger.Warn("fromjson: malformed JSON", "err", err)
		return nil, false
	}
	return out, true
}

func filterTruncate(_ *Evaluator, v any, args []any) (any, bool) {
	max := 100
	if len(args) > 0 {
		if n, err := cast.ToIntE(args[0]); err == nil && n > 3 {
			max = n
		}
	}
	s := Stringify(v)
	runes := []rune(s)
	if len(runes) <= max {
		return s, true
	}
	return string(runes[:max-3]) + "...", true
}

func filterUppercase(_ *Evaluator, v any, _ []any) (any, bool) {
	return strings.ToUpper(Stringify(v)), true
}

func filterLowercase(_ *Evaluator, v any, _ []any) (any, bool) {
	return strings.ToLower(Stringify(v)), true
}

func filterLength(_ *Evaluator, v any, _ []any) (any, bool) {
	switch tv := v.(type) {
	case string:
		return float64(utf8.RuneCountInString(tv)), true
	case nil:
		return float64(0), true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array || rv.Kind() == reflect.Map {
		return float64(rv.Len()), true
	}
	return float64(0), true
}

func filterFormatDate(e *Evaluator, v any, args []any) (any, bool) {
	secs, err := cast.ToInt64E(v)
	if err != nil {
		e.logger.Warn("format_date: not a timestamp", "value", v)
		return nil, false
	}
	mode := "datetime"
	if len(args) > 0 {
		mode = cast.ToString(args[0])
	}
	t := cast.ToTime(secs).Local()
	switch mode {
	case "date":
		return t.Format("Jan 2, 2006"), true
	case "time":
		return t.Format("3:04 PM"), true
	case "relative":
		return e.relativeTime(secs), true
	case "datetime":
		return t.Format("Jan 2, 2006 3:04 PM"), true
	default:
		e.logger.Warn("format_date: unknown mode", "mode", mode)
		return t.Format("Jan 2, 2006 3:04 PM"), true
	}
}

// relativeTime buckets a whole-second timestamp against now. Each bucket
// is inclusive at its lower edge: delta 60 is "1m ago", not "just now".
func (e *Evaluator) relativeTime(secs int64) string {
	delta := e.now().Unix() - secs
	switch {
	case delta < 60:
		return "just now"
	case delta < 3600:
		return fmt.Sprintf("%dm ago", delta/60)
	case delta < 86400:
		return fmt.Sprintf("%dh ago", delta/3600)
	case delta < 604800:
		return fmt.Sprintf("%dd ago", delta/86400)
	default:
		return fmt.Sprintf("%dw ago", delta/604800)
	}
}
