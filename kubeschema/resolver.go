package kubeschema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getkin/kin-openapi/openapi3"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"go.jacobcolvin.com/kreate/openapiv3"
)

var (
	// ErrUnknownGroupVersion indicates that the discovery index has no entry
	// for the manifest's group-version.
	ErrUnknownGroupVersion = errors.New("unknown group version")

	// ErrResourceNotFound indicates that no schema of the group-version
	// document describes the requested kind.
	ErrResourceNotFound = errors.New("no resource found")
)

// IndexSource provides the discovery index. [*openapiv3.IndexCache]
// implements it.
type IndexSource interface {
	Get(ctx context.Context) (*openapiv3.Index, error)
}

// Result is a resolved schema.
type Result struct {
	// Schema is the matched entry of components.schemas, as written. It is
	// not dereferenced further.
	Schema *openapi3.SchemaRef
	// Spec is the document the schema was found in.
	Spec *Spec
	// Kind is the manifest's kind.
	Kind string
	// Name is the key of the schema in components.schemas, e.g.
	// "io.k8s.api.apps.v1.Deployment".
	Name string
	GVK  schema.GroupVersionKind
}

// Resolver finds the OpenAPI v3 schema of a Kubernetes resource type on the
// active cluster.
//
// Create instances with [NewResolver].
type Resolver struct {
	source openapiv3.ClusterSource
	index  IndexSource
	client *openapiv3.Client
}

// ResolverOption configures a [Resolver].
type ResolverOption func(*Resolver)

// WithIndex sets the discovery index source. The default is an
// [openapiv3.IndexCache] over the resolver's cluster source.
func WithIndex(index IndexSource) ResolverOption {
	return func(r *Resolver) {
		r.index = index
	}
}

// WithClient sets the HTTP client used for all requests.
func WithClient(client *openapiv3.Client) ResolverOption {
	return func(r *Resolver) {
		r.client = client
	}
}

// NewResolver creates a new [Resolver] for the clusters provided by source.
func NewResolver(source openapiv3.ClusterSource, opts ...ResolverOption) *Resolver {
	r := &Resolver{source: source}

	for _, opt := range opts {
		opt(r)
	}

	if r.client == nil {
		r.client = openapiv3.NewClient()
	}

	if r.index == nil {
		r.index = openapiv3.NewIndexCache(source, openapiv3.WithClient(r.client))
	}

	return r
}

// Resolve returns the schema describing kind in apiVersion.
func (r *Resolver) Resolve(ctx context.Context, apiVersion, kind string) (*Result, error) {
	gvk, err := ParseAPIVersion(apiVersion, kind)
	if err != nil {
		return nil, err
	}

	key := indexKey(gvk.GroupVersion())

	spec, err := r.fetchSpec(ctx, key)
	if err != nil {
		return nil, err
	}

	name, ref, ok, err := spec.Find(gvk)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}

	if !ok {
		return nil, fmt.Errorf("%w for apiVersion %s and kind %s", ErrResourceNotFound, apiVersion, kind)
	}

	slog.Debug("resolved schema",
		slog.String("apiVersion", apiVersion),
		slog.String("kind", kind),
		slog.String("schema", name),
	)

	return &Result{
		Schema: ref,
		Spec:   spec,
		Kind:   kind,
		Name:   name,
		GVK:    gvk,
	}, nil
}

// Spec fetches and validates the OpenAPI v3 document of apiVersion.
func (r *Resolver) Spec(ctx context.Context, apiVersion string) (*Spec, error) {
	key, err := IndexKey(apiVersion)
	if err != nil {
		return nil, err
	}

	return r.fetchSpec(ctx, key)
}

func (r *Resolver) fetchSpec(ctx context.Context, key string) (*Spec, error) {
	index, err := r.index.Get(ctx)
	if err != nil {
		return nil, err
	}

	entry, ok := index.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGroupVersion, key)
	}

	err = entry.Validate()
	if err != nil {
		return nil, fmt.Errorf("index entry %s: %w", key, err)
	}

	cluster, err := r.source.ActiveCluster()
	if err != nil {
		return nil, err
	}

	body, err := r.client.GetJSON(ctx, cluster, entry.ServerRelativeURL)
	if err != nil {
		return nil, fmt.Errorf("fetch spec for %s: %w", key, err)
	}

	spec, err := LoadSpec(ctx, key, body)
	if err != nil {
		return nil, err
	}

	slog.Debug("loaded spec",
		slog.String("groupVersion", key),
		slog.Int("schemas", len(spec.Names)),
	)

	return spec, nil
}
