// Package fetch implements the Fetcher interface.
// Remote pages are retrieved with an HTTP GET; anything that is not an
// http(s) URL is read from disk, which is how saved page snapshots and the
// local test pages are converted.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/philipz/deepwiki-md-chrome-extension/core"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "deepwiki-md/1.0 (https://github.com/philipz/deepwiki-md-chrome-extension)"
)

// HTTPFetcher fetches pages via HTTP or from local files.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// New creates an HTTPFetcher. Zero arguments fall back to the defaults.
func New(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// IsRemote reports whether source is fetched over HTTP.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Fetch retrieves the HTML content of the given URL or file path.
func (f *HTTPFetcher) Fetch(ctx context.Context, source string) (*core.FetchResult, error) {
	if !IsRemote(source) {
		return f.readFile(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, source)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &core.FetchResult{
		URL:        source,
		StatusCode: resp.StatusCode,
		HTML:       string(body),
	}, nil
}

// readFile loads a saved page. The result URL is a file:// URL so that
// relative links in the page still resolve against something absolute.
func (f *HTTPFetcher) readFile(source string) (*core.FetchResult, error) {
	path := strings.TrimPrefix(source, "file://")
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	body, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", abs, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return &core.FetchResult{
		URL:        u.String(),
		StatusCode: http.StatusOK,
		HTML:       string(body),
	}, nil
}
