package crawl

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/philipz/deepwiki-md-chrome-extension/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectPage = `<html><head><title>owner/repo | DeepWiki</title></head><body>
<div class="container">
  <div class="border-r-border"><ul>
    <li><a href="/owner/repo/1-overview" data-selected="true"> Overview </a></li>
    <li><a href="/owner/repo/2-setup#install">Setup</a></li>
    <li><a href="/owner/repo/2-setup/">Setup again</a></li>
    <li><a href="https://github.com/owner/repo">GitHub</a></li>
    <li><a href="/logo.png">Logo</a></li>
    <li><a>No href</a></li>
  </ul></div>
  <div><p>Last indexed: 2025-03-14 (abc123)</p><div class="prose"><h1>Overview</h1></div></div>
</div></body></html>`

func TestExtractPages(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(projectPage))
	require.NoError(t, err)

	listing, err := ExtractPages(doc, "https://deepwiki.com/owner/repo/1-overview")
	require.NoError(t, err)

	assert.Equal(t, "https://deepwiki.com", listing.BaseURL)
	assert.Equal(t, []PageLink{
		{URL: "https://deepwiki.com/owner/repo/1-overview", Title: "Overview", Selected: true},
		{URL: "https://deepwiki.com/owner/repo/2-setup", Title: "Setup"},
	}, listing.Pages)
	assert.Equal(t, "Overview", listing.CurrentTitle)
	assert.Equal(t, "owner-repo-DeepWiki", listing.HeadTitle)
	assert.Equal(t, "20250314", listing.LastIndexed)
}

func TestExtractPagesEmpty(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<p>nothing</p>"))
	require.NoError(t, err)

	listing, err := ExtractPages(doc, "https://deepwiki.com/owner/repo")
	require.NoError(t, err)
	assert.Empty(t, listing.Pages)
	assert.Equal(t, "Untitled", listing.CurrentTitle)
	assert.Empty(t, listing.LastIndexed)
}

type stubFetcher struct {
	html string
	err  error
}

func (s stubFetcher) Fetch(_ context.Context, source string) (*core.FetchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &core.FetchResult{URL: source, StatusCode: 200, HTML: s.html}, nil
}

func TestDiscover(t *testing.T) {
	ctx := context.Background()

	listing, err := Discover(ctx, "https://deepwiki.com/owner/repo", stubFetcher{html: projectPage})
	require.NoError(t, err)
	assert.Len(t, listing.Pages, 2)

	_, err = Discover(ctx, "https://deepwiki.com/owner/repo", stubFetcher{html: "<p>empty</p>"})
	assert.ErrorContains(t, err, "no child pages")

	_, err = Discover(ctx, "https://deepwiki.com/owner/repo", stubFetcher{err: errors.New("boom")})
	assert.ErrorContains(t, err, "boom")
}

func TestIsDocPageURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://deepwiki.com/owner/repo", true},
		{"https://deepwiki.com/owner/repo/1-overview", true},
		{"https://www.deepwiki.com/owner/repo", true},
		{"https://deepwiki.com/owner", false},
		{"https://deepwiki.com/", false},
		{"https://deepwiki.com.evil.io/owner/repo", false},
		{"https://notdeepwiki.com/owner/repo", false},
		{"file:///home/me/test-page.html", true},
		{"http://localhost:8080/test/page.html", true},
		{"http://localhost:8080/other.html", false},
		{"", false},
		{"::not a url", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsDocPageURL(tt.url), tt.url)
	}
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://deepwiki.com/a/b", NormalizeURL("https://deepwiki.com/a/b/#x"))
	assert.Equal(t, "https://deepwiki.com/", NormalizeURL("https://deepwiki.com/"))
}

func TestQueue(t *testing.T) {
	q := NewQueue()
	assert.True(t, q.Add("a"))
	assert.True(t, q.Add("b"))
	assert.False(t, q.Add("a"))
	assert.Equal(t, []string{"a", "b"}, q.All())
}

func TestIsStaticAsset(t *testing.T) {
	assert.True(t, IsStaticAsset("https://deepwiki.com/logo.PNG"))
	assert.False(t, IsStaticAsset("https://deepwiki.com/owner/repo"))
}
