package yamlpath

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"
)

// ErrInvalidYAML indicates that the input could not be parsed as YAML.
var ErrInvalidYAML = errors.New("invalid yaml")

// Build parses content and returns a [SourceMap] holding one range per
// document, mapping entry, and sequence item.
//
// A mapping entry spans from the start of its key to the start of the next
// entry in the same mapping, or to the end of the enclosing node for the
// last entry. Sequence items are bounded the same way, starting at their
// "-" indicator. Each document spans up to the start of the next document.
//
// Documents are split with [SplitDocuments] and parsed one at a time, so an
// empty document never hides the ones after it.
func Build(content []byte) (*SourceMap, error) {
	m := &SourceMap{}

	docs := SplitDocuments(content)
	for i, doc := range docs {
		end := len(content)
		if i+1 < len(docs) {
			end = docs[i+1].Start
		}

		file, err := parser.ParseBytes(doc.Content, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: document %d: %w", ErrInvalidYAML, i, err)
		}

		b := &builder{
			lines: newLineIndex(doc.Content),
			base:  doc.Start,
			m:     m,
		}

		m.Add(doc.Start, end, nil)

		for _, d := range file.Docs {
			if d != nil {
				b.walk(d.Body, nil, end)
			}
		}
	}

	return m, nil
}

// PathAtOffset returns the path segments of the innermost node containing
// the byte offset, e.g. ["spec", "template", "containers"]. The result is
// empty when content is empty or when offset falls outside every node below
// the document root. Parse failures are returned wrapped in [ErrInvalidYAML].
func PathAtOffset(content []byte, offset int) ([]string, error) {
	if len(content) == 0 {
		return []string{}, nil
	}

	m, err := Build(content)
	if err != nil {
		return nil, err
	}

	r, ok := m.At(offset)
	if !ok {
		return []string{}, nil
	}

	return append([]string{}, r.Segments...), nil
}

// PathAtLineColumn is like [PathAtOffset], but takes an editor position: a
// 1-based line and a 1-based byte column. Columns past the end of a line
// refer to the line's end.
func PathAtLineColumn(content []byte, line, column int) ([]string, error) {
	if len(content) == 0 {
		return []string{}, nil
	}

	offset := newLineIndex(content).byteOffset(line, column)
	if offset < 0 {
		return []string{}, nil
	}

	return PathAtOffset(content, offset)
}

type builder struct {
	lines *lineIndex
	m     *SourceMap
	base  int
}

// offset returns the stream offset of a token in the current document, or
// -1 for tokens without a usable position.
func (b *builder) offset(tk *token.Token) int {
	off := b.lines.offset(tk)
	if off < 0 {
		return -1
	}

	return b.base + off
}

// walk records ranges for the children of node. end bounds the last child.
func (b *builder) walk(node ast.Node, path []string, end int) {
	node = unwrapNode(node)

	switch n := node.(type) {
	case *ast.MappingNode:
		b.walkEntries(n.Values, path, end)
	case *ast.MappingValueNode:
		b.walkEntries([]*ast.MappingValueNode{n}, path, end)
	case *ast.SequenceNode:
		b.walkSequence(n, path, end)
	}
}

func (b *builder) walkEntries(values []*ast.MappingValueNode, path []string, end int) {
	starts := make([]int, len(values))
	for i, mvn := range values {
		starts[i] = b.start(mvn)
	}

	for i, mvn := range values {
		if starts[i] < 0 {
			continue
		}

		if _, ok := mvn.Key.(*ast.MergeKeyNode); ok {
			continue
		}

		entryEnd := nextStart(starts, i, end)
		child := append(path[:len(path):len(path)], keyName(mvn.Key))

		b.m.Add(starts[i], entryEnd, child)
		b.walk(mvn.Value, child, entryEnd)
	}
}

func (b *builder) walkSequence(seq *ast.SequenceNode, path []string, end int) {
	starts := make([]int, len(seq.Values))
	for i, value := range seq.Values {
		starts[i] = b.start(value)

		// Block items begin at their "-" indicator.
		if !seq.IsFlowStyle && len(seq.Entries) == len(seq.Values) {
			if off := b.offset(seq.Entries[i].Start); off >= 0 && (starts[i] < 0 || off < starts[i]) {
				starts[i] = off
			}
		}
	}

	for i, value := range seq.Values {
		if starts[i] < 0 {
			continue
		}

		itemEnd := nextStart(starts, i, end)
		child := append(path[:len(path):len(path)], strconv.Itoa(i))

		b.m.Add(starts[i], itemEnd, child)
		b.walk(value, child, itemEnd)
	}
}

// start returns the smallest offset of any token in the subtree of node,
// ignoring comments. Returns -1 if no token has a position.
func (b *builder) start(node ast.Node) int {
	if node == nil {
		return -1
	}

	v := &startVisitor{b: b, min: -1}
	ast.Walk(v, node)

	return v.min
}

type startVisitor struct {
	b   *builder
	min int
}

// Visit implements the [ast.Visitor] interface.
func (v *startVisitor) Visit(node ast.Node) ast.Visitor {
	switch node.(type) {
	case nil, *ast.CommentGroupNode, *ast.CommentNode:
		return nil
	}

	off := v.b.offset(node.GetToken())
	if off >= 0 && (v.min < 0 || off < v.min) {
		v.min = off
	}

	return v
}

func nextStart(starts []int, i, end int) int {
	for _, s := range starts[i+1:] {
		if s >= 0 {
			return min(s, end)
		}
	}

	return end
}

// unwrapNode resolves TagNode and AnchorNode wrappers to the underlying
// value node.
func unwrapNode(node ast.Node) ast.Node {
	for {
		switch n := node.(type) {
		case *ast.TagNode:
			node = n.Value
		case *ast.AnchorNode:
			node = n.Value
		default:
			return node
		}
	}
}

// keyName returns the text of a mapping key, without quotes.
func keyName(key ast.MapKeyNode) string {
	var node ast.Node = key

	node = unwrapNode(node)

	switch n := node.(type) {
	case *ast.StringNode:
		return n.Value
	case nil:
		return ""
	}

	if tk := node.GetToken(); tk != nil && tk.Type != token.DoubleQuoteType && tk.Type != token.SingleQuoteType {
		return tk.Value
	}

	return node.String()
}
