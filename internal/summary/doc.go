// Package summary writes run summaries.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for the terminal
//   - JSONWriter: structured JSON for scripts and CI
//   - MarkdownWriter: Markdown for pull requests and wikis
//
// Writers implement the Writer interface, so they can be combined with
// MultiWriter to print to the terminal and a file at once.
package summary
