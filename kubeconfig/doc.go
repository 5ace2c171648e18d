// Package kubeconfig resolves the active Kubernetes cluster from a
// kubeconfig file and builds an authenticated [net/http.Client] for it.
package kubeconfig
