package yamlpath

import "bytes"

// Document is one document of a YAML stream.
type Document struct {
	// Content is the document's text, including its "---" marker and any
	// directives before it.
	Content []byte
	// Start is the byte offset of Content in the stream.
	Start int
}

// SplitDocuments splits a YAML stream into its documents. A "---" line
// starts a document and a "..." line ends one; both must begin at column 0.
// Directive lines such as "%YAML 1.2" stay with the document they introduce.
//
// Empty documents are kept, so every document is parsed on its own and a
// document that follows an empty one keeps its offsets.
func SplitDocuments(content []byte) []Document {
	var (
		docs     []Document
		start    int
		prologue = true
		directed bool
	)

	for lineStart := 0; lineStart < len(content); {
		lineEnd := len(content)
		next := len(content)

		if i := bytes.IndexByte(content[lineStart:], '\n'); i >= 0 {
			lineEnd = lineStart + i
			next = lineEnd + 1
		}

		line := bytes.TrimSuffix(content[lineStart:lineEnd], []byte("\r"))

		switch {
		case isMarker(line, "---"):
			// Directives belong to the document their "---" opens.
			if !(prologue && directed) && lineStart > start {
				docs = append(docs, Document{Content: content[start:lineStart], Start: start})
				start = lineStart
			}

			prologue = false
			directed = false

		case isMarker(line, "..."):
			docs = append(docs, Document{Content: content[start:lineStart], Start: start})
			start = next
			prologue = true
			directed = false

		case prologue && len(line) > 0 && line[0] == '%':
			directed = true

		default:
			trimmed := bytes.TrimSpace(line)
			if len(trimmed) > 0 && trimmed[0] != '#' {
				prologue = false
			}
		}

		lineStart = next
	}

	if start < len(content) {
		docs = append(docs, Document{Content: content[start:], Start: start})
	}

	return docs
}

func isMarker(line []byte, marker string) bool {
	if !bytes.HasPrefix(line, []byte(marker)) {
		return false
	}

	return len(line) == len(marker) || line[len(marker)] == ' ' || line[len(marker)] == '\t'
}
