package stringtest

import "strings"

// CursorMarker marks the cursor position in strings passed to [Cursor].
const CursorMarker = "‸"

// Input dedents a multi-line string literal for use as test input.
//
// One leading and one trailing newline are removed, then the indentation
// common to all non-blank lines is stripped. Whitespace-only lines become
// empty. This lets YAML fixtures be written indented inside test tables:
//
//	doc := stringtest.Input(`
//	    apiVersion: v1
//	    kind: ConfigMap
//	`) // -> "apiVersion: v1\nkind: ConfigMap"
func Input(s string) string {
	s = strings.TrimPrefix(s, "\n")
	s = strings.TrimSuffix(s, "\n")

	lines := strings.Split(s, "\n")

	indent := -1

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""

			continue
		}

		lines[i] = line[max(indent, 0):]
	}

	return strings.Join(lines, "\n")
}

// JoinLF joins multiple strings with LF line endings.
// Use this to construct YAML fixtures with explicit line endings.
//
// Example:
//
//	doc := stringtest.JoinLF(
//		"a:",
//		"  b: 1",
//		"",
//	) // -> "a:\n  b: 1\n"
func JoinLF(ss ...string) string {
	return strings.Join(ss, "\n")
}

// JoinCRLF joins multiple strings with CRLF line endings.
func JoinCRLF(ss ...string) string {
	return strings.Join(ss, "\r\n")
}

// Cursor removes the first [CursorMarker] from s and returns the remaining
// text along with the byte offset where the marker was. If s has no marker,
// the offset is -1.
//
// Example:
//
//	text, offset := stringtest.Cursor("a:\n  b: ‸1\n") // -> "a:\n  b: 1\n", 8
func Cursor(s string) (string, int) {
	i := strings.Index(s, CursorMarker)
	if i < 0 {
		return s, -1
	}

	return s[:i] + s[i+len(CursorMarker):], i
}

// Offset returns the byte offset of the nth (0-based) occurrence of substr
// in s, or -1 if there are fewer occurrences.
func Offset(s, substr string, n int) int {
	base := 0

	for range n {
		i := strings.Index(s[base:], substr)
		if i < 0 {
			return -1
		}

		base += i + len(substr)
	}

	i := strings.Index(s[base:], substr)
	if i < 0 {
		return -1
	}

	return base + i
}
