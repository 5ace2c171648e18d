package kubeschema

import (
	"context"
	"sync"

	"go.jacobcolvin.com/kreate/manifest"
	"go.jacobcolvin.com/kreate/yamlpath"
)

// State is the input of the most recent [Reader.PathAtPosition] call.
type State struct {
	Content  string
	Position int
}

// Reader answers schema and path queries for manifests being edited.
//
// Create instances with [NewReader].
type Reader struct {
	resolver *Resolver
	decoder  *manifest.Decoder
	state    State
	mu       sync.Mutex
}

// ReaderOption configures a [Reader].
type ReaderOption func(*Reader)

// WithDecoder sets the manifest decoder. The default applies the Kubernetes
// octal rule.
func WithDecoder(d *manifest.Decoder) ReaderOption {
	return func(r *Reader) {
		r.decoder = d
	}
}

// NewReader creates a new [Reader] resolving schemas with resolver.
func NewReader(resolver *Resolver, opts ...ReaderOption) *Reader {
	r := &Reader{
		resolver: resolver,
		decoder:  manifest.NewDecoder(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// SchemaFromManifest resolves the schema of the first document in content.
func (r *Reader) SchemaFromManifest(ctx context.Context, content []byte) (*Result, error) {
	obj, err := r.decoder.First(content)
	if err != nil {
		return nil, err
	}

	return r.resolver.Resolve(ctx, obj.GetAPIVersion(), obj.GetKind())
}

// PathAtPosition returns the path of the node at byte offset position in
// content. Empty content returns an empty path and leaves [Reader.State]
// unchanged.
func (r *Reader) PathAtPosition(content []byte, position int) ([]string, error) {
	if len(content) == 0 {
		return []string{}, nil
	}

	r.mu.Lock()
	r.state = State{Content: string(content), Position: position}
	r.mu.Unlock()

	return yamlpath.PathAtOffset(content, position)
}

// State returns the input of the most recent [Reader.PathAtPosition] call.
func (r *Reader) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}
