// Package extract converts a fetched HTML page into a Markdown document.
//
// The conversion is deliberately opinionated rather than general purpose.
// It locates the main content region with a fixed priority of heuristics,
// strips chrome elements (scripts, navigation, footers), then walks the
// remaining block elements in document order and renders each with a
// prescribed Markdown shape. The output is stable: the same HTML always
// produces the same Markdown.
package extract
