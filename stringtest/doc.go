// Package stringtest provides helpers for writing YAML fixtures in tests:
// dedenting indented literals ([Input]), joining lines with explicit line
// endings ([JoinLF], [JoinCRLF]), and locating cursor positions ([Cursor],
// [Offset]).
package stringtest
