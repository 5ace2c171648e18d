package yamlpath

import (
	"slices"
	"strings"
)

// Range associates the half-open byte range [Start, End) of a YAML node with
// its logical path from the document root.
type Range struct {
	// Segments holds the mapping keys and sequence indices leading to the
	// node. The document root has no segments.
	Segments []string
	Start    int
	End      int
}

// Path returns the root-prefixed, dot-delimited form of the range's path,
// e.g. ".spec.replicas". The document root is the empty string.
func (r Range) Path() string {
	if len(r.Segments) == 0 {
		return ""
	}

	return "." + strings.Join(r.Segments, ".")
}

// Contains reports whether offset lies within r.
func (r Range) Contains(offset int) bool {
	return offset >= r.Start && offset < r.End
}

// SourceMap indexes the ranges recorded during a single parse.
//
// Ranges nest: every ancestor of a node also contains the node's offsets.
// [SourceMap.At] resolves this by returning the deepest containing range.
//
// Create instances with [Build].
type SourceMap struct {
	ranges []Range
}

// Add records a range. Empty and inverted ranges are ignored.
func (m *SourceMap) Add(start, end int, segments []string) {
	if end <= start {
		return
	}

	m.ranges = append(m.ranges, Range{
		Start:    start,
		End:      end,
		Segments: slices.Clone(segments),
	})
}

// Len returns the number of recorded ranges.
func (m *SourceMap) Len() int {
	return len(m.ranges)
}

// Ranges returns the recorded ranges ordered by start offset, outermost
// first for equal starts.
func (m *SourceMap) Ranges() []Range {
	out := slices.Clone(m.ranges)
	slices.SortStableFunc(out, func(a, b Range) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}

		return len(a.Segments) - len(b.Segments)
	})

	return out
}

// At returns the most specific range containing offset. When ranges of the
// same depth overlap, the one that starts last wins.
func (m *SourceMap) At(offset int) (Range, bool) {
	var (
		best  Range
		found bool
	)

	for _, r := range m.ranges {
		if !r.Contains(offset) {
			continue
		}

		if !found ||
			len(r.Segments) > len(best.Segments) ||
			(len(r.Segments) == len(best.Segments) && r.Start > best.Start) {
			best = r
			found = true
		}
	}

	return best, found
}
