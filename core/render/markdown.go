// Package render provides output renderers for the deepwiki-md pipeline.
// This file implements the Markdown renderer, which is a simple passthrough.
package render

import (
	"strings"

	"github.com/philipz/deepwiki-md-chrome-extension/core"
)

// MarkdownRenderer writes Markdown as-is. It's the simplest renderer
// since Markdown is already the canonical pipeline format.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render returns the Markdown as bytes, ending in a single newline.
func (r *MarkdownRenderer) Render(markdown string, _ core.PageMetadata) ([]byte, error) {
	return []byte(strings.TrimRight(markdown, "\n") + "\n"), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}
