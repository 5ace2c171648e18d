package openapiv3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"go.jacobcolvin.com/kreate/kubeconfig"
)

// DiscoveryPath is the server path of the OpenAPI v3 discovery index.
const DiscoveryPath = "/openapi/v3"

var (
	// ErrEmptyDiscoveryResponse indicates that the discovery endpoint
	// returned an empty body or a falsy JSON value: null, false, 0, or "".
	ErrEmptyDiscoveryResponse = errors.New("empty discovery response")

	// ErrInvalidIndex indicates a discovery response that is not a valid
	// index document.
	ErrInvalidIndex = errors.New("invalid discovery index")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Index is the OpenAPI v3 discovery index served at [DiscoveryPath]. Keys
// are group-version paths such as "api/v1" or "apis/apps/v1".
type Index struct {
	Paths map[string]IndexPath `json:"paths" validate:"required"`
}

// IndexPath locates the OpenAPI document of one group-version.
type IndexPath struct {
	// ServerRelativeURL is the document's path on the API server, usually
	// including a content hash query parameter.
	ServerRelativeURL string `json:"serverRelativeURL" validate:"required,startswith=/"`
}

// Lookup returns the entry for key. Entries are not validated until
// [IndexPath.Validate] is called, so a malformed entry does not affect
// lookups of the others.
func (i *Index) Lookup(key string) (IndexPath, bool) {
	p, ok := i.Paths[key]

	return p, ok
}

// Validate checks that the entry carries a server-relative URL.
func (p IndexPath) Validate() error {
	err := validate.Struct(p)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidIndex, err)
	}

	return nil
}

// Keys returns all index keys in sorted order.
func (i *Index) Keys() []string {
	keys := make([]string, 0, len(i.Paths))
	for k := range i.Paths {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

// ParseIndex decodes a discovery index document and checks that it has a
// paths object. Individual entries are checked by [IndexPath.Validate].
func ParseIndex(data []byte) (*Index, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || isFalsy(trimmed) {
		return nil, ErrEmptyDiscoveryResponse
	}

	idx := &Index{}

	err := json.Unmarshal(trimmed, idx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIndex, err)
	}

	err = validate.Struct(idx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIndex, err)
	}

	return idx, nil
}

// isFalsy reports whether data is a JSON null, false, zero, or empty string.
func isFalsy(data []byte) bool {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return false
	}

	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case float64:
		return x == 0
	case string:
		return x == ""
	}

	return false
}

// ClusterSource provides the cluster to talk to.
type ClusterSource interface {
	ActiveCluster() (*kubeconfig.Cluster, error)
}

// IndexCache fetches the discovery index once and memoizes it for the life
// of the process. Failed fetches are not cached.
//
// Create instances with [NewIndexCache].
type IndexCache struct {
	source ClusterSource
	client *Client
	index  *Index
	group  singleflight.Group
	mu     sync.Mutex
}

// CacheOption configures an [IndexCache].
type CacheOption func(*IndexCache)

// WithClient sets the [Client] used to fetch the index.
func WithClient(client *Client) CacheOption {
	return func(c *IndexCache) {
		c.client = client
	}
}

// NewIndexCache creates a new [IndexCache] reading from source.
func NewIndexCache(source ClusterSource, opts ...CacheOption) *IndexCache {
	c := &IndexCache{
		source: source,
		client: NewClient(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the discovery index, fetching it on first use. Concurrent
// first calls share a single request.
//
// The shared request is not canceled when the caller that started it is;
// it keeps that caller's deadline, if any. Each caller stops waiting when
// its own ctx is done.
func (c *IndexCache) Get(ctx context.Context) (*Index, error) {
	if idx := c.cached(); idx != nil {
		slog.Debug("discovery index cache hit")

		return idx, nil
	}

	ch := c.group.DoChan("index", func() (any, error) {
		fetchCtx, cancel := detach(ctx)
		defer cancel()

		if idx := c.cached(); idx != nil {
			return idx, nil
		}

		idx, err := c.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.index = idx
		c.mu.Unlock()

		return idx, nil
	})

	var res singleflight.Result

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch discovery index: %w", context.Cause(ctx))
	case res = <-ch:
	}

	if res.Err != nil {
		return nil, res.Err
	}

	if res.Shared {
		slog.Debug("shared discovery index fetch")
	}

	idx, ok := res.Val.(*Index)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected cache value %T", ErrInvalidIndex, res.Val)
	}

	return idx, nil
}

// detach returns a context that carries the values and deadline of ctx but
// is not canceled with it.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)

	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(detached, deadline)
	}

	return context.WithCancel(detached)
}

func (c *IndexCache) cached() *Index {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.index
}

func (c *IndexCache) fetch(ctx context.Context) (*Index, error) {
	cluster, err := c.source.ActiveCluster()
	if err != nil {
		return nil, err
	}

	body, err := c.client.GetJSON(ctx, cluster, DiscoveryPath)
	if err != nil {
		return nil, fmt.Errorf("fetch discovery index: %w", err)
	}

	idx, err := ParseIndex(body)
	if err != nil {
		return nil, fmt.Errorf("cluster %q: %w", cluster.Name, err)
	}

	slog.Debug("fetched discovery index",
		slog.String("cluster", cluster.Name),
		slog.Int("paths", len(idx.Paths)),
	)

	return idx, nil
}
