package kubeschema

import (
	"errors"
	"fmt"

	"k8s.io/apimachinery/pkg/runtime/schema"
)

// ErrInvalidAPIVersion indicates an apiVersion that is not of the form
// "version" or "group/version".
var ErrInvalidAPIVersion = errors.New("invalid apiVersion")

// ParseAPIVersion returns the GroupVersionKind of a manifest. An apiVersion
// without a "/" belongs to the core group, whose name is empty.
func ParseAPIVersion(apiVersion, kind string) (schema.GroupVersionKind, error) {
	gv, err := parseGroupVersion(apiVersion)
	if err != nil {
		return schema.GroupVersionKind{}, err
	}

	return gv.WithKind(kind), nil
}

// IndexKey returns the discovery index key of apiVersion: "api/<version>"
// for the core group, "apis/<group>/<version>" otherwise.
func IndexKey(apiVersion string) (string, error) {
	gv, err := parseGroupVersion(apiVersion)
	if err != nil {
		return "", err
	}

	return indexKey(gv), nil
}

func indexKey(gv schema.GroupVersion) string {
	if gv.Group == "" {
		return "api/" + gv.Version
	}

	return "apis/" + gv.Group + "/" + gv.Version
}

func parseGroupVersion(apiVersion string) (schema.GroupVersion, error) {
	if apiVersion == "" {
		return schema.GroupVersion{}, fmt.Errorf("%w: empty", ErrInvalidAPIVersion)
	}

	gv, err := schema.ParseGroupVersion(apiVersion)
	if err != nil {
		return schema.GroupVersion{}, fmt.Errorf("%w: %w", ErrInvalidAPIVersion, err)
	}

	if gv.Version == "" {
		return schema.GroupVersion{}, fmt.Errorf("%w: %q has no version", ErrInvalidAPIVersion, apiVersion)
	}

	return gv, nil
}
