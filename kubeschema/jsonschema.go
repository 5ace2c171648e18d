package kubeschema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/jsonschema-go/jsonschema"
)

const (
	draft07Schema     = "http://json-schema.org/draft-07/schema#"
	componentsPrefix  = "#/components/schemas/"
	definitionsPrefix = "#/definitions/"
)

// ToJSONSchema converts a resolved schema to a standalone draft-07 JSON
// Schema. Every schema it references, directly or transitively, is copied
// into "definitions" and references are rewritten to point there.
//
// OpenAPI-only keywords are translated: boolean exclusiveMinimum and
// exclusiveMaximum become numeric bounds, nullable adds "null" to the type,
// and example becomes examples.
func ToJSONSchema(r *Result) (*jsonschema.Schema, error) {
	c := &converter{
		schemas: r.Spec.Document.Components.Schemas,
		seen:    map[string]bool{},
	}

	root, err := c.convert(r.Schema)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", r.Name, err)
	}

	defs := map[string]any{}

	for len(c.queue) > 0 {
		name := c.queue[0]
		c.queue = c.queue[1:]

		ref, ok := c.schemas[name]
		if !ok || ref == nil {
			return nil, fmt.Errorf("convert %s: unresolved reference %s%s", r.Name, componentsPrefix, name)
		}

		def, err := c.convert(ref)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", name, err)
		}

		defs[name] = def
	}

	root["$schema"] = draft07Schema
	if len(defs) > 0 {
		root["definitions"] = defs
	}

	data, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", r.Name, err)
	}

	out := &jsonschema.Schema{}

	err = json.Unmarshal(data, out)
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", r.Name, err)
	}

	return out, nil
}

type converter struct {
	schemas openapi3.Schemas
	seen    map[string]bool
	queue   []string
}

func (c *converter) convert(ref *openapi3.SchemaRef) (map[string]any, error) {
	data, err := json.Marshal(ref)
	if err != nil {
		return nil, err
	}

	s := map[string]any{}

	err = json.Unmarshal(data, &s)
	if err != nil {
		return nil, err
	}

	c.rewrite(s)

	return s, nil
}

// rewrite translates one schema object in place and recurses into the
// keywords that hold subschemas.
func (c *converter) rewrite(s map[string]any) {
	if ref, ok := s["$ref"].(string); ok && strings.HasPrefix(ref, componentsPrefix) {
		name := strings.TrimPrefix(ref, componentsPrefix)
		s["$ref"] = definitionsPrefix + name

		if !c.seen[name] {
			c.seen[name] = true
			c.queue = append(c.queue, name)
		}
	}

	exclusiveBound(s, "exclusiveMinimum", "minimum")
	exclusiveBound(s, "exclusiveMaximum", "maximum")

	if nullable, ok := s["nullable"].(bool); ok {
		if t, isString := s["type"].(string); nullable && isString {
			s["type"] = []any{t, "null"}
		}

		delete(s, "nullable")
	}

	if example, ok := s["example"]; ok {
		s["examples"] = []any{example}
		delete(s, "example")
	}

	for _, kw := range []string{"items", "additionalProperties", "not"} {
		c.rewriteAny(s[kw])
	}

	for _, kw := range []string{"allOf", "anyOf", "oneOf"} {
		c.rewriteAny(s[kw])
	}

	if props, ok := s["properties"].(map[string]any); ok {
		for _, p := range props {
			c.rewriteAny(p)
		}
	}
}

// rewriteAny rewrites a subschema or a list of subschemas. Boolean schemas
// are left alone.
func (c *converter) rewriteAny(v any) {
	switch t := v.(type) {
	case map[string]any:
		c.rewrite(t)
	case []any:
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				c.rewrite(m)
			}
		}
	}
}

// exclusiveBound converts the OpenAPI 3.0 boolean form of an exclusive bound
// to the numeric draft-07 form.
func exclusiveBound(s map[string]any, exclusive, bound string) {
	b, ok := s[exclusive].(bool)
	if !ok {
		return
	}

	delete(s, exclusive)

	if !b {
		return
	}

	if v, ok := s[bound]; ok {
		s[exclusive] = v
		delete(s, bound)
	}
}
