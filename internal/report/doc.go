// Package report provides output generation for crawl results.
//
// This package contains writers for different output formats:
//   - DocumentWriter: The combined Markdown document built from crawled pages
//   - SummaryWriter: Human-readable crawl summary in Markdown
//   - JSONWriter: Structured JSON output for tool integration
//
// Design decision: We separate report writing from report data structures
// (which are in the model package) to follow the single responsibility
// principle. This allows adding new output formats without modifying
// the core data structures.
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
