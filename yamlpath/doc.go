// Package yamlpath maps byte offsets in YAML text to logical document paths.
//
// [Build] parses the text with goccy/go-yaml and records, for every mapping
// entry and sequence item, the byte range it occupies and its path from the
// document root. The result is a [SourceMap], which answers "what is under
// the cursor?" queries via [SourceMap.At]:
//
//	m, err := yamlpath.Build(content)
//	r, ok := m.At(offset)
//	fmt.Println(r.Path()) // .spec.template.spec.containers.0.image
//
// Mapping keys and sequence indices both become path segments. A cursor on a
// key, on the whitespace after it, or anywhere inside its value resolves to
// that entry; the deepest entry containing the offset wins.
//
// [PathAtOffset] wraps the two steps and returns the segments with the
// document root removed. It never swallows parse errors: invalid YAML is
// reported as [ErrInvalidYAML], and callers decide whether that means "no
// path".
package yamlpath
