package kubeconfig

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

var (
	// ErrNoActiveCluster indicates that the kubeconfig does not select a
	// cluster, either because no context is current or because the current
	// context does not name a known cluster.
	ErrNoActiveCluster = errors.New("no active cluster")

	// ErrLoadKubeconfig indicates that the kubeconfig could not be read or
	// turned into a client.
	ErrLoadKubeconfig = errors.New("load kubeconfig")
)

// Cluster is a connection to a Kubernetes API server.
type Cluster struct {
	// Client carries the credentials from the kubeconfig (client
	// certificates, bearer tokens, exec plugins).
	Client *http.Client
	// Name is the cluster's name in the kubeconfig.
	Name string
	// Server is the API server URL, without a trailing slash.
	Server string
}

// Loader reads clusters from a kubeconfig.
type Loader struct {
	// Path is the kubeconfig file. When empty, client-go's default loading
	// rules apply ($KUBECONFIG, then ~/.kube/config).
	Path string
	// Context overrides the kubeconfig's current-context.
	Context string
}

// ActiveCluster returns the cluster selected by the current context.
func (l *Loader) ActiveCluster() (*Cluster, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if l.Path != "" {
		rules.ExplicitPath = l.Path
	}

	overrides := &clientcmd.ConfigOverrides{CurrentContext: l.Context}
	cc := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides)

	raw, err := cc.RawConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadKubeconfig, err)
	}

	contextName := l.Context
	if contextName == "" {
		contextName = raw.CurrentContext
	}

	if contextName == "" {
		return nil, fmt.Errorf("%w: current-context is not set", ErrNoActiveCluster)
	}

	kctx, ok := raw.Contexts[contextName]
	if !ok || kctx == nil {
		return nil, fmt.Errorf("%w: context %q not found", ErrNoActiveCluster, contextName)
	}

	if _, ok := raw.Clusters[kctx.Cluster]; !ok || kctx.Cluster == "" {
		return nil, fmt.Errorf("%w: context %q refers to unknown cluster %q",
			ErrNoActiveCluster, contextName, kctx.Cluster)
	}

	restConfig, err := cc.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadKubeconfig, err)
	}

	client, err := rest.HTTPClientFor(restConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: create http client: %w", ErrLoadKubeconfig, err)
	}

	slog.Debug("loaded active cluster",
		slog.String("context", contextName),
		slog.String("cluster", kctx.Cluster),
		slog.String("server", restConfig.Host),
	)

	return &Cluster{
		Name:   kctx.Cluster,
		Server: strings.TrimSuffix(restConfig.Host, "/"),
		Client: client,
	}, nil
}
