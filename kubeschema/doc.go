// Package kubeschema resolves the OpenAPI v3 schema of a Kubernetes
// manifest from the cluster it will be applied to.
//
// Resolution maps the manifest's apiVersion to a discovery index key
// ("api/v1" for the core group, "apis/<group>/<version>" otherwise), fetches
// that group-version's OpenAPI document, validates it, and returns the first
// schema in components.schemas whose x-kubernetes-group-version-kind
// extension names the manifest's group, version, and kind.
//
// Only the first entry of each extension list is compared. A schema that is
// shared by several kinds is therefore only found for the kind listed first.
//
// [Reader] bundles resolution with cursor path lookup for editors, and
// [ToJSONSchema] exports a resolved schema as a standalone JSON Schema.
package kubeschema
