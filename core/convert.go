package core

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Convert fetches source, extracts its content and normalizes it to
// Markdown. Failures are reported in the result instead of returned, so a
// batch can record them and move on. The page is nil unless Success is set.
func Convert(ctx context.Context, source string, f Fetcher, e Extractor, n Normalizer) (ConvertResult, *Page) {
	page, markdown, err := convert(ctx, source, f, e, n)
	if err != nil {
		return ConvertResult{Success: false, Error: err.Error()}, nil
	}
	return ConvertResult{
		Success:       true,
		Markdown:      markdown,
		MarkdownTitle: page.MarkdownTitle,
		HeadTitle:     page.HeadTitle,
	}, page
}

func convert(ctx context.Context, source string, f Fetcher, e Extractor, n Normalizer) (*Page, string, error) {
	result, err := f.Fetch(ctx, source)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: %w", err)
	}
	page, err := e.Extract(result.URL, result.HTML)
	if err != nil {
		return nil, "", fmt.Errorf("extract: %w", err)
	}
	markdown, err := n.Normalize(page.Content)
	if err != nil {
		return nil, "", fmt.Errorf("normalize: %w", err)
	}
	return page, markdown, nil
}

// Metadata describes p for renderers.
func (p *Page) Metadata(fetchedAt time.Time) PageMetadata {
	meta := PageMetadata{
		URL:         p.URL,
		Title:       p.Title,
		HeadTitle:   p.HeadTitle,
		LastIndexed: p.LastIndexed,
		Language:    p.Language,
		FetchedAt:   fetchedAt.UTC().Format(time.RFC3339),
	}
	if parsed, err := url.Parse(p.URL); err == nil {
		meta.Domain = parsed.Host
		meta.Path = parsed.Path
	}
	return meta
}
