// Package core defines the pipeline interfaces for deepwiki-md.
// A page is fetched, its content container extracted, normalized into
// Markdown and finally rendered into an output format.
package core

import (
	"context"

	"golang.org/x/net/html"
)

// FetchResult holds the raw HTML and response metadata from a fetch.
type FetchResult struct {
	URL        string
	StatusCode int
	HTML       string
}

// Page is a parsed documentation page with its content container located.
type Page struct {
	URL string
	// Title is the article title as shown on the page.
	Title string
	// MarkdownTitle is Title with whitespace runs replaced by dashes.
	MarkdownTitle string
	// HeadTitle is the <title> reformatted for use in file names.
	HeadTitle   string
	LastIndexed string
	Language    string
	Document    *html.Node
	Content     *html.Node
}

// ConvertResult reports the outcome of converting one page.
type ConvertResult struct {
	Success       bool   `json:"success"`
	Markdown      string `json:"markdown,omitempty"`
	MarkdownTitle string `json:"markdownTitle,omitempty"`
	HeadTitle     string `json:"headTitle,omitempty"`
	Error         string `json:"error,omitempty"`
}

// PageMetadata holds metadata extracted from the page and URL.
type PageMetadata struct {
	URL         string `json:"url"`
	Domain      string `json:"domain"`
	Path        string `json:"path"`
	Title       string `json:"title"`
	HeadTitle   string `json:"head_title,omitempty"`
	LastIndexed string `json:"last_indexed,omitempty"`
	Language    string `json:"language"`
	FetchedAt   string `json:"fetched_at"` // ISO8601
}

// Section represents a heading-delimited section of content.
type Section struct {
	Heading string `json:"heading"`
	Level   int    `json:"level"`
	Text    string `json:"text"`
}

// Heading represents a single heading found in the content.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Link represents a hyperlink found in the content.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// CodeBlock is a fenced block; Mermaid blocks are reported as diagrams.
type CodeBlock struct {
	Language string `json:"language,omitempty"`
	Lines    int    `json:"lines"`
}

// Diagram is a Mermaid block found in the content.
type Diagram struct {
	Kind   string `json:"kind"`
	Source string `json:"source"`
}

// PageContent holds the text and structured content of a page.
type PageContent struct {
	Text     string    `json:"text"`
	Markdown string    `json:"markdown"`
	Sections []Section `json:"sections"`
}

// PageStructure holds structural metadata parsed from the content.
type PageStructure struct {
	Headings   []Heading   `json:"headings"`
	Links      []Link      `json:"links"`
	CodeBlocks []CodeBlock `json:"code_blocks"`
	Diagrams   []Diagram   `json:"diagrams"`
	Tables     int         `json:"tables"`
	Lists      int         `json:"lists"`
}

// PageJSON is the complete JSON output for a single page.
type PageJSON struct {
	Metadata  PageMetadata  `json:"metadata"`
	Content   PageContent   `json:"content"`
	Structure PageStructure `json:"structure"`
}

// Fetcher retrieves raw HTML from a URL or a local file.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (*FetchResult, error)
}

// Extractor parses raw HTML and locates the page's content container.
type Extractor interface {
	Extract(url, html string) (*Page, error)
}

// Normalizer converts a content container into Markdown (the canonical format).
type Normalizer interface {
	Normalize(content *html.Node) (string, error)
}

// Renderer converts Markdown (and metadata) into a final output format.
type Renderer interface {
	Render(markdown string, meta PageMetadata) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".md", ".pdf").
	Extension() string
}
