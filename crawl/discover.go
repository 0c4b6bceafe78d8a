// Package crawl discovers the pages of a DeepWiki project for --all mode.
// The page list comes from the project's sidebar, so crawling stays a single
// fetch and is kept separate from the conversion pipeline.
package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/philipz/deepwiki-md-chrome-extension/core"
	"github.com/philipz/deepwiki-md-chrome-extension/core/extract"
)

const sidebarLinks = ".border-r-border ul li a"

// PageLink is one entry of the sidebar.
type PageLink struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Selected bool   `json:"selected"`
}

// Listing describes a project: its pages and the titles used to name a
// batch download.
type Listing struct {
	BaseURL      string     `json:"baseUrl"`
	Pages        []PageLink `json:"pages"`
	CurrentTitle string     `json:"currentTitle"`
	HeadTitle    string     `json:"headTitle"`
	LastIndexed  string     `json:"lastIndexedDate"`
}

// ExtractPages reads the sidebar links of doc, resolved against pageURL.
// Links without an href, pointing at another host or at static assets are
// left out, and each page is listed once.
func ExtractPages(doc *goquery.Document, pageURL string) (Listing, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return Listing{}, fmt.Errorf("parsing page URL: %w", err)
	}

	listing := Listing{
		BaseURL:      base.Scheme + "://" + base.Host,
		Pages:        []PageLink{},
		CurrentTitle: extract.Title(doc),
		HeadTitle:    extract.HeadTitle(doc),
		LastIndexed:  extract.LastIndexed(doc),
	}

	queue := NewQueue()
	doc.Find(sidebarLinks).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		resolved := resolveURL(href, base)
		if resolved == "" || !IsSameDomain(resolved, base.Host) || IsStaticAsset(resolved) {
			return
		}
		if !queue.Add(NormalizeURL(resolved)) {
			return
		}
		listing.Pages = append(listing.Pages, PageLink{
			URL:      resolved,
			Title:    strings.TrimSpace(a.Text()),
			Selected: a.AttrOr("data-selected", "") == "true",
		})
	})
	return listing, nil
}

// Discover fetches startURL and lists the pages of its project.
func Discover(ctx context.Context, startURL string, fetcher core.Fetcher) (Listing, error) {
	result, err := fetcher.Fetch(ctx, startURL)
	if err != nil {
		return Listing{}, fmt.Errorf("fetching %s: %w", startURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.HTML))
	if err != nil {
		return Listing{}, fmt.Errorf("parsing HTML: %w", err)
	}

	listing, err := ExtractPages(doc, result.URL)
	if err != nil {
		return Listing{}, err
	}
	if len(listing.Pages) == 0 {
		return Listing{}, fmt.Errorf("no child pages were detected on %s", startURL)
	}
	return listing, nil
}

// resolveURL resolves a potentially relative URL against a base.
func resolveURL(href string, base *url.URL) string {
	if strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "#") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)
	resolved.Fragment = ""
	return resolved.String()
}
