package openapiv3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"go.jacobcolvin.com/kreate/kubeconfig"
)

var (
	// ErrRequest indicates that an HTTP request could not be completed.
	ErrRequest = errors.New("request failed")

	// ErrUnexpectedStatus indicates a non-2xx HTTP response.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// maxErrorBody limits how much of an error response is quoted in errors.
const maxErrorBody = 256

// Client performs authenticated GET requests against a cluster.
//
// Create instances with [NewClient].
type Client struct {
	userAgent string
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a new [Client].
func NewClient(opts ...ClientOption) *Client {
	c := &Client{}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetJSON issues a single GET for path, relative to the cluster's server,
// and returns the response body. Non-2xx responses fail with
// [ErrUnexpectedStatus]; transport failures with [ErrRequest].
func (c *Client) GetJSON(ctx context.Context, cluster *kubeconfig.Cluster, path string) ([]byte, error) {
	url := cluster.Server + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrRequest, err)
	}

	req.Header.Set("Accept", "application/json")

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	client := cluster.Client
	if client == nil {
		client = http.DefaultClient
	}

	slog.Debug("sending request",
		slog.String("cluster", cluster.Name),
		slog.String("url", url),
	)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrRequest, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: read body: %w", ErrRequest, path, err)
	}

	slog.Debug("received response",
		slog.String("url", url),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s: %s: %s",
			ErrUnexpectedStatus, path, resp.Status, truncate(body, maxErrorBody))
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}

	return string(b[:n]) + "..."
}
