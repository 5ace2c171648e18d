package kubeschema

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// GVKExtension is the vendor extension listing the group-version-kinds a
// schema describes.
const GVKExtension = "x-kubernetes-group-version-kind"

var (
	// ErrInvalidSpec indicates a group-version document that is not a valid
	// OpenAPI v3 document.
	ErrInvalidSpec = errors.New("invalid spec")

	// ErrNoSchemasInSpec indicates a document without components.schemas.
	ErrNoSchemasInSpec = errors.New("no schemas found in spec")

	// ErrInvalidGVKExtension indicates a group-version-kind extension whose
	// first entry lacks a string group, version, or kind.
	ErrInvalidGVKExtension = errors.New("invalid " + GVKExtension + " extension")
)

var schemasPath = mustPath("$.components.schemas")

// Spec is a validated OpenAPI v3 document of one group-version.
type Spec struct {
	// Document is the parsed document. References are resolved.
	Document *openapi3.T
	// Names lists the keys of components.schemas in document order.
	Names []string
}

// LoadSpec parses and validates the OpenAPI v3 document data. key names the
// group-version in errors.
func LoadSpec(ctx context.Context, key string, data []byte) (*Spec, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w for %s: empty document", ErrInvalidSpec, key)
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrInvalidSpec, key, err)
	}

	err = doc.Validate(ctx,
		openapi3.DisableSchemaDefaultsValidation(),
		openapi3.DisableExamplesValidation(),
		openapi3.DisableSchemaPatternValidation(),
		openapi3.AllowExtensionsWithRef(),
		openapi3.AllowExtraSiblingFields("description", "default"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrInvalidSpec, key, err)
	}

	// An empty schemas object is present; it just matches nothing.
	if doc.Components == nil || doc.Components.Schemas == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSchemasInSpec, key)
	}

	names, err := schemaNames(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrInvalidSpec, key, err)
	}

	return &Spec{Document: doc, Names: names}, nil
}

// Find returns the name and definition of the first schema, in document
// order, whose first group-version-kind entry equals gvk.
//
// Only the first entry is compared, so a schema shared by several kinds is
// found only under the kind it lists first.
func (s *Spec) Find(gvk schema.GroupVersionKind) (string, *openapi3.SchemaRef, bool, error) {
	for _, name := range s.Names {
		ref := s.Document.Components.Schemas[name]
		if ref == nil {
			continue
		}

		got, ok, err := firstGVK(extensionsOf(ref))
		if err != nil {
			return "", nil, false, fmt.Errorf("schema %s: %w", name, err)
		}

		if ok && got == gvk {
			return name, ref, true, nil
		}
	}

	return "", nil, false, nil
}

// extensionsOf returns the extensions written on the schema entry itself.
// A pure reference does not inherit the extensions of its target.
func extensionsOf(ref *openapi3.SchemaRef) map[string]any {
	if ref.Ref != "" || ref.Value == nil {
		return ref.Extensions
	}

	return ref.Value.Extensions
}

// firstGVK parses the first entry of the group-version-kind extension.
// Returns false when the extension is absent or empty.
func firstGVK(extensions map[string]any) (schema.GroupVersionKind, bool, error) {
	raw, ok := extensions[GVKExtension]
	if !ok || raw == nil {
		return schema.GroupVersionKind{}, false, nil
	}

	list, ok := raw.([]any)
	if !ok {
		return schema.GroupVersionKind{}, false, fmt.Errorf("%w: got %T, want a list", ErrInvalidGVKExtension, raw)
	}

	if len(list) == 0 {
		return schema.GroupVersionKind{}, false, nil
	}

	entry, ok := list[0].(map[string]any)
	if !ok {
		return schema.GroupVersionKind{}, false, fmt.Errorf("%w: entry is %T, want an object", ErrInvalidGVKExtension, list[0])
	}

	var (
		gvk  schema.GroupVersionKind
		errs []error
	)

	for field, dst := range map[string]*string{
		"group":   &gvk.Group,
		"version": &gvk.Version,
		"kind":    &gvk.Kind,
	} {
		v, ok := entry[field].(string)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %q is missing or not a string", ErrInvalidGVKExtension, field))

			continue
		}

		*dst = v
	}

	if len(errs) > 0 {
		return schema.GroupVersionKind{}, false, errors.Join(errs...)
	}

	return gvk, true, nil
}

// schemaNames returns the keys of components.schemas in the order they
// appear in data. JSON documents are read as YAML.
func schemaNames(data []byte) ([]string, error) {
	file, err := parser.ParseBytes(data, 0)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	node, err := schemasPath.FilterFile(file)
	if err != nil {
		return nil, fmt.Errorf("read components.schemas: %w", err)
	}

	var values []*ast.MappingValueNode

	switch n := node.(type) {
	case *ast.MappingNode:
		values = n.Values
	case *ast.MappingValueNode:
		values = []*ast.MappingValueNode{n}
	default:
		return nil, fmt.Errorf("components.schemas is %s, not a mapping", node.Type())
	}

	names := make([]string, 0, len(values))
	for _, mvn := range values {
		if s, ok := mvn.Key.(*ast.StringNode); ok {
			names = append(names, s.Value)

			continue
		}

		names = append(names, mvn.Key.String())
	}

	return names, nil
}

func mustPath(s string) *yaml.Path {
	p, err := yaml.PathString(s)
	if err != nil {
		panic(err)
	}

	return p
}
