package manifest

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"

	"go.jacobcolvin.com/kreate/scalar"
	"go.jacobcolvin.com/kreate/yamlpath"
)

// Sentinel errors returned by the decoder.
var (
	ErrInvalidYAML       = errors.New("invalid yaml")
	ErrEmptyManifest     = errors.New("no manifest found")
	ErrMissingAPIVersion = errors.New("apiVersion not defined in the manifest")
	ErrMissingKind       = errors.New("kind not defined in the manifest")
)

// maxDecodedNodes bounds the size of a decoded document, counting every
// node an alias expands to.
const maxDecodedNodes = 1 << 20

// Decoder converts YAML manifests to JSON-compatible Go values.
//
// Create instances with [NewDecoder].
type Decoder struct {
	rules scalar.Rules
}

// Option configures a [Decoder].
type Option func(*Decoder)

// WithRules sets the scalar resolution rules used for plain scalars.
func WithRules(rules scalar.Rules) Option {
	return func(d *Decoder) {
		d.rules = rules
	}
}

// NewDecoder creates a [Decoder]. By default plain scalars are resolved with
// the YAML 1.2 core schema extended by [scalar.WithKubernetesOctal].
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		rules: scalar.WithKubernetesOctal(scalar.DefaultRules()),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// DecodeAll decodes every document in content. Documents that are empty or
// null are dropped. Mappings decode to map[string]any, sequences to []any,
// and scalars to nil, bool, int64, float64, or string.
func (d *Decoder) DecodeAll(content []byte) ([]any, error) {
	var docs []any

	for i, doc := range yamlpath.SplitDocuments(content) {
		file, err := parser.ParseBytes(doc.Content, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: document %d: %w", ErrInvalidYAML, i, err)
		}

		for _, node := range file.Docs {
			if node == nil || node.Body == nil {
				continue
			}

			s := &decodeState{
				rules:   d.rules,
				anchors: map[string]anchor{},
			}

			v, err := s.value(node.Body)
			if err != nil {
				return nil, fmt.Errorf("%w: document %d: %w", ErrInvalidYAML, i, err)
			}

			if v == nil {
				continue
			}

			docs = append(docs, v)
		}
	}

	return docs, nil
}

// First decodes content and returns its first non-empty document, which must
// be a mapping carrying non-empty string apiVersion and kind fields.
func (d *Decoder) First(content []byte) (*unstructured.Unstructured, error) {
	docs, err := d.DecodeAll(content)
	if err != nil {
		return nil, err
	}

	if len(docs) == 0 {
		return nil, ErrEmptyManifest
	}

	if len(docs) > 1 {
		slog.Debug("using first of multiple documents",
			slog.Int("documents", len(docs)),
		)
	}

	obj, ok := docs[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: document is %s, not a mapping", ErrMissingAPIVersion, describe(docs[0]))
	}

	if err := requireString(obj, "apiVersion", ErrMissingAPIVersion); err != nil {
		return nil, err
	}

	if err := requireString(obj, "kind", ErrMissingKind); err != nil {
		return nil, err
	}

	return &unstructured.Unstructured{Object: obj}, nil
}

func requireString(obj map[string]any, field string, sentinel error) error {
	v, ok := obj[field]
	if !ok || v == nil {
		return sentinel
	}

	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("%w: %s is %s, not a string", sentinel, field, describe(v))
	}

	if s == "" {
		return sentinel
	}

	return nil
}

func describe(v any) string {
	switch v.(type) {
	case map[string]any:
		return "a mapping"
	case []any:
		return "a sequence"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case int64, float64:
		return "a number"
	}

	return fmt.Sprintf("%T", v)
}

// anchor is a decoded anchored value and the number of nodes it holds.
type anchor struct {
	value any
	nodes int
}

type decodeState struct {
	rules scalar.Rules
	// anchors holds the most recent definition of each anchor seen so far.
	anchors map[string]anchor
	nodes   int
}

func (s *decodeState) value(node ast.Node) (any, error) {
	switch node.(type) {
	case nil, *ast.CommentGroupNode, *ast.CommentNode, *ast.AliasNode, *ast.AnchorNode, *ast.TagNode:
	default:
		s.nodes++
		if s.nodes > maxDecodedNodes {
			return nil, fmt.Errorf("document exceeds %d nodes at %s", maxDecodedNodes, position(node))
		}
	}

	switch n := node.(type) {
	case nil, *ast.CommentGroupNode, *ast.CommentNode:
		return nil, nil
	case *ast.AnchorNode:
		return s.anchor(n)
	case *ast.AliasNode:
		return s.alias(n)
	case *ast.TagNode:
		return s.tagged(n)
	case *ast.MappingNode:
		return s.mapping(n.Values)
	case *ast.MappingValueNode:
		return s.mapping([]*ast.MappingValueNode{n})
	case *ast.SequenceNode:
		return s.sequence(n)
	case *ast.NullNode:
		return nil, nil
	case *ast.LiteralNode:
		return n.Value.Value, nil
	case *ast.StringNode:
		if isQuoted(n.GetToken()) {
			return n.Value, nil
		}

		_, v := s.rules.Resolve(n.Value)

		return v, nil
	case *ast.IntegerNode, *ast.FloatNode, *ast.BoolNode, *ast.InfinityNode, *ast.NanNode:
		_, v := s.rules.Resolve(scalarText(n))

		return v, nil
	}

	return nil, fmt.Errorf("unsupported node %s at %s", node.Type(), position(node))
}

// anchor decodes an anchored value and records it, replacing any earlier
// anchor of the same name.
func (s *decodeState) anchor(n *ast.AnchorNode) (any, error) {
	before := s.nodes

	v, err := s.value(n.Value)
	if err != nil {
		return nil, err
	}

	s.anchors[n.Name.String()] = anchor{value: v, nodes: s.nodes - before}

	return v, nil
}

// alias returns a copy of the value of the closest preceding anchor. The
// copied nodes count towards maxDecodedNodes.
func (s *decodeState) alias(n *ast.AliasNode) (any, error) {
	name := n.Value.String()

	a, ok := s.anchors[name]
	if !ok {
		return nil, fmt.Errorf("unknown anchor %q at %s", name, position(n))
	}

	s.nodes += a.nodes
	if s.nodes > maxDecodedNodes {
		return nil, fmt.Errorf("alias %q at %s: document exceeds %d nodes", name, position(n), maxDecodedNodes)
	}

	return runtime.DeepCopyJSONValue(a.value), nil
}

// tagged applies the core schema tags; other tags are ignored.
func (s *decodeState) tagged(n *ast.TagNode) (any, error) {
	tag := ""
	if n.Start != nil {
		tag = n.Start.Value
	}

	switch tag {
	case "!!str", scalar.TagStr, "!!binary":
		if isScalar(n.Value) {
			return scalarText(n.Value), nil
		}
	case "!!int", scalar.TagInt, "!!float", scalar.TagFloat, "!!bool", scalar.TagBool, "!!null", scalar.TagNull:
		if isScalar(n.Value) {
			_, v := s.rules.Resolve(scalarText(n.Value))

			return v, nil
		}
	}

	return s.value(n.Value)
}

func (s *decodeState) mapping(values []*ast.MappingValueNode) (map[string]any, error) {
	out := make(map[string]any, len(values))

	// Merge values are decoded in document order so that aliases bind to
	// the anchors defined before them.
	var merges []mergeSource

	for _, mvn := range values {
		v, err := s.value(mvn.Value)
		if err != nil {
			return nil, err
		}

		if _, ok := mvn.Key.(*ast.MergeKeyNode); ok {
			merges = append(merges, mergeSource{value: v, node: mvn.Value})

			continue
		}

		out[keyName(mvn.Key)] = v
	}

	// Explicit keys take precedence over merged ones.
	for _, m := range merges {
		if err := merge(out, m.value, m.node); err != nil {
			return nil, err
		}
	}

	return out, nil
}

type mergeSource struct {
	value any
	node  ast.Node
}

// merge copies keys from v, the mapping (or sequence of mappings) given to a
// merge key, into out without overwriting existing keys.
func merge(out map[string]any, v any, node ast.Node) error {
	var sources []map[string]any

	switch mv := v.(type) {
	case map[string]any:
		sources = append(sources, mv)
	case []any:
		for _, item := range mv {
			if m, ok := item.(map[string]any); ok {
				sources = append(sources, m)
			}
		}
	case nil:
	default:
		return fmt.Errorf("merge key at %s: value is %s, not a mapping", position(node), describe(v))
	}

	for _, src := range sources {
		for k, val := range src {
			if _, exists := out[k]; !exists {
				out[k] = val
			}
		}
	}

	return nil
}

func (s *decodeState) sequence(n *ast.SequenceNode) ([]any, error) {
	out := make([]any, 0, len(n.Values))

	for _, item := range n.Values {
		v, err := s.value(item)
		if err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	return out, nil
}

func isScalar(node ast.Node) bool {
	switch node.(type) {
	case *ast.StringNode, *ast.LiteralNode, *ast.IntegerNode, *ast.FloatNode,
		*ast.BoolNode, *ast.InfinityNode, *ast.NanNode, *ast.NullNode:
		return true
	}

	return false
}

// scalarText returns the source text of a scalar node, unquoted.
func scalarText(node ast.Node) string {
	switch n := node.(type) {
	case *ast.StringNode:
		return n.Value
	case *ast.LiteralNode:
		return n.Value.Value
	case *ast.NullNode:
		if tk := n.GetToken(); tk != nil && tk.Type != token.ImplicitNullType {
			return tk.Value
		}

		return ""
	}

	if tk := node.GetToken(); tk != nil {
		return tk.Value
	}

	return node.String()
}

func isQuoted(tk *token.Token) bool {
	return tk != nil && (tk.Type == token.DoubleQuoteType || tk.Type == token.SingleQuoteType)
}

// keyName returns the text of a mapping key, without quotes.
func keyName(key ast.MapKeyNode) string {
	node, ok := key.(ast.Node)
	if !ok || node == nil {
		return ""
	}

	for {
		switch n := node.(type) {
		case *ast.TagNode:
			node = n.Value

			continue
		case *ast.AnchorNode:
			node = n.Value

			continue
		}

		break
	}

	if isScalar(node) {
		return scalarText(node)
	}

	return node.String()
}

func position(node ast.Node) string {
	if tk := node.GetToken(); tk != nil && tk.Position != nil {
		return fmt.Sprintf("line %d, column %d", tk.Position.Line, tk.Position.Column)
	}

	return "unknown position"
}
