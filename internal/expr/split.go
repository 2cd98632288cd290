package expr

import "strings"

// splitTop splits s on sep, ignoring separators that appear inside single
// or double quotes or inside (), [], {} nesting. Expressions like
// "tags | first // '//'" must never be mis-split.
func splitTop(s, sep string) []string {
	var (
		parts []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++ // skip escaped char inside quotes
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 && strings.HasPrefix(s[i:], sep) {
				parts = append(parts, s[start:i])
				i += len(sep) - 1
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// stripDelimiters removes one layer of curly-brace delimiters around an
// expression, if the braces actually enclose the whole string.
func stripDelimiters(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return s
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 && i != len(s)-1 {
				return s // closes early: braces are not outer delimiters
			}
		}
	}
	return strings.TrimSpace(s[1 : len(s)-1])
}
