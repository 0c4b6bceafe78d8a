// Package extract implements the Extractor interface.
// It locates the article container of a DeepWiki page and reads the page
// titles and index date. Noise is not stripped here: the transcriber skips
// page chrome itself, and the generic engine strips it on its own.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/philipz/deepwiki-md-chrome-extension/core"
)

// contentSelectors are tried in order; <body> is the last resort.
var contentSelectors = []string{
	".container > div:nth-child(2) .prose",
	".container > div:nth-child(2) .prose-custom",
	".container > div:nth-child(2)",
	"body",
}

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	lastIndexedRe = regexp.MustCompile(`Last indexed:\s*(\d{4}-\d{2}-\d{2})`)
)

// HTMLExtractor parses DeepWiki pages.
type HTMLExtractor struct{}

// New creates an HTMLExtractor.
func New() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Extract parses raw HTML and returns the page with its content container.
func (e *HTMLExtractor) Extract(url, html string) (*core.Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	content := Content(doc)
	if content == nil {
		return nil, fmt.Errorf("no content container found in HTML")
	}

	title := Title(doc)
	return &core.Page{
		URL:           url,
		Title:         title,
		MarkdownTitle: whitespaceRe.ReplaceAllString(title, "-"),
		HeadTitle:     HeadTitle(doc),
		LastIndexed:   LastIndexed(doc),
		Language:      doc.Find("html").AttrOr("lang", "en"),
		Document:      doc.Get(0),
		Content:       content.Get(0),
	}, nil
}

// Content returns the article container, or nil for a document without one.
func Content(doc *goquery.Document) *goquery.Selection {
	for _, sel := range contentSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s
		}
	}
	return nil
}

// Title is the article title: the selected sidebar entry, else the header
// heading, else the first heading anywhere.
func Title(doc *goquery.Document) string {
	for _, sel := range []string{
		`.container > div:nth-child(1) a[data-selected="true"]`,
		".container > div:nth-child(1) h1",
		"h1",
	} {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return "Untitled"
}

// HeadTitle formats the document <title> for use in a file name.
func HeadTitle(doc *goquery.Document) string {
	title := doc.Find("title").First().Text()
	title = strings.NewReplacer("/", "-", "|", "-").Replace(title)
	title = whitespaceRe.ReplaceAllString(title, "-")
	return strings.Replace(title, "---", "-", 1)
}

// LastIndexed returns the "Last indexed:" date of the page as YYYYMMDD, or
// "" when the page does not show one.
func LastIndexed(doc *goquery.Document) string {
	var date string
	doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := p.Text()
		if !strings.Contains(text, "Last indexed:") {
			return true
		}
		if m := lastIndexedRe.FindStringSubmatch(text); m != nil {
			date = strings.ReplaceAll(m[1], "-", "")
			return false
		}
		return true
	})
	return date
}
