// Package manifest decodes Kubernetes YAML manifests.
//
// Plain scalars are resolved with a [scalar.Rules] set rather than the YAML
// library's own typing, so that the values match what the API server would
// see. By default the rules include the Kubernetes octal rule, under which a
// file mode such as 0644 decodes to the integer 420.
//
// [Decoder.First] returns the first non-empty document as an
// [unstructured.Unstructured], after checking that it names an apiVersion
// and a kind.
//
// [unstructured.Unstructured]: https://pkg.go.dev/k8s.io/apimachinery/pkg/apis/meta/v1/unstructured#Unstructured
package manifest
