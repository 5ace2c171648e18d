package yamlpath

import (
	"unicode/utf8"

	"github.com/goccy/go-yaml/token"
)

// lineIndex converts parser positions to byte offsets.
type lineIndex struct {
	content []byte
	starts  []int
}

func newLineIndex(content []byte) *lineIndex {
	starts := []int{0}

	for i, c := range content {
		if c == '\n' && i+1 < len(content) {
			starts = append(starts, i+1)
		}
	}

	return &lineIndex{content: content, starts: starts}
}

// offset returns the byte offset of a token. The parser reports 1-based
// lines and 1-based columns counted in runes. Returns -1 for tokens without
// a usable position.
func (l *lineIndex) offset(tk *token.Token) int {
	if tk == nil || tk.Position == nil {
		return -1
	}

	return l.runeOffset(tk.Position.Line, tk.Position.Column)
}

func (l *lineIndex) runeOffset(line, column int) int {
	if line < 1 || column < 1 || line > len(l.starts) {
		return -1
	}

	off := l.starts[line-1]
	for range column - 1 {
		if off >= len(l.content) || l.content[off] == '\n' {
			break
		}

		_, size := utf8.DecodeRune(l.content[off:])
		off += size
	}

	return off
}

// byteOffset converts a 1-based line and 1-based byte column to an offset.
// Columns past the end of the line clamp to the line's end.
func (l *lineIndex) byteOffset(line, column int) int {
	if line < 1 || column < 1 || line > len(l.starts) {
		return -1
	}

	start := l.starts[line-1]

	end := len(l.content)
	if line < len(l.starts) {
		end = l.starts[line] - 1
	} else if end > start && l.content[end-1] == '\n' {
		end--
	}

	return min(start+column-1, end)
}
