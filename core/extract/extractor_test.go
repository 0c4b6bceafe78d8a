package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deepwikiPage = `<!DOCTYPE html>
<html lang="en"><head><title>owner/repo | Getting Started</title></head>
<body>
<div class="container">
  <div><nav><a href="/owner/repo/1-overview">Overview</a><a data-selected="true" href="/owner/repo/2-getting-started">Getting  Started</a></nav></div>
  <div><div class="prose"><h1>Getting Started</h1><p>Install it.</p></div></div>
</div>
<p>Last indexed: 2025-03-14 (abc123)</p>
</body></html>`

func TestExtract(t *testing.T) {
	page, err := New().Extract("https://deepwiki.com/owner/repo/2-getting-started", deepwikiPage)
	require.NoError(t, err)

	assert.Equal(t, "Getting  Started", page.Title)
	assert.Equal(t, "Getting-Started", page.MarkdownTitle)
	assert.Equal(t, "owner-repo-Getting-Started", page.HeadTitle)
	assert.Equal(t, "20250314", page.LastIndexed)
	assert.Equal(t, "en", page.Language)
	require.NotNil(t, page.Content)
	assert.Equal(t, "div", page.Content.Data)
	assert.Contains(t, page.Content.Attr[0].Val, "prose")
}

func TestExtractFallsBackToBody(t *testing.T) {
	page, err := New().Extract("file:///tmp/x.html", `<html><head><title>Plain</title></head><body><h1>Only  heading</h1></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "body", page.Content.Data)
	assert.Equal(t, "Only-heading", page.MarkdownTitle)
	assert.Equal(t, "Plain", page.HeadTitle)
	assert.Equal(t, "", page.LastIndexed)
}

func TestExtractUntitled(t *testing.T) {
	page, err := New().Extract("", `<p>no headings</p>`)
	require.NoError(t, err)
	assert.Equal(t, "Untitled", page.Title)
}
