// Package openapiv3 reads the OpenAPI v3 discovery index of a Kubernetes
// API server.
//
// The index, served at /openapi/v3, maps each group-version ("api/v1",
// "apis/apps/v1") to the server-relative URL of its OpenAPI document.
// [IndexCache] fetches it once per process and shares that fetch between
// concurrent callers. [Client] performs the authenticated requests, using the
// credentials of a [kubeconfig.Cluster].
package openapiv3
