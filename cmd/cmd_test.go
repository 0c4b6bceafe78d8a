package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/philipz/deepwiki-md-chrome-extension/core/config"
	"github.com/philipz/deepwiki-md-chrome-extension/core/diagram"
	"github.com/philipz/deepwiki-md-chrome-extension/core/extract"
	"github.com/philipz/deepwiki-md-chrome-extension/core/fetch"
	"github.com/philipz/deepwiki-md-chrome-extension/core/normalize"
	"github.com/philipz/deepwiki-md-chrome-extension/core/output"
	"github.com/philipz/deepwiki-md-chrome-extension/core/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"
)

const flowchartPage = `<html><head><title>owner/repo | DeepWiki</title></head><body>
<h1>Hello</h1><p>Intro</p>
<pre><svg id="mermaid-1" aria-roledescription="flowchart-v2">
<g class="node default" id="flowchart-A-0" transform="translate(50,50)"><rect x="-20" y="-10" width="40" height="20"></rect>
<g class="label"><foreignObject width="40" height="20"><div><span class="nodeLabel"><p>Start</p></span></div></foreignObject></g></g>
<g class="node default" id="flowchart-B-1" transform="translate(50,150)"><rect x="-20" y="-10" width="40" height="20"></rect>
<g class="label"><foreignObject width="40" height="20"><div><span class="nodeLabel"><p>End</p></span></div></foreignObject></g></g>
<path id="flowchart-A-B-0" class="flowchart-link" d="M50,60 L50,140"></path>
</svg></pre>
<pre><svg id="mermaid-2" aria-roledescription="pie"></svg></pre>
</body></html>`

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		flagAll, flagSingle, flagZip = false, false, false
		flagPDF, flagMarkdown, flagJSON = false, false, false
	})
	flagAll, flagSingle, flagZip = false, false, false
	flagPDF, flagMarkdown, flagJSON = false, false, false
}

func TestValidateFlags(t *testing.T) {
	resetFlags(t)
	assert.ErrorContains(t, validateFlags(), "exactly one output format")

	flagMarkdown, flagJSON = true, true
	assert.ErrorContains(t, validateFlags(), "only one output format")

	flagJSON = false
	assert.NoError(t, validateFlags())

	flagZip = true
	assert.ErrorContains(t, validateFlags(), "require --all")

	flagAll = true
	assert.NoError(t, validateFlags())

	flagSingle = true
	assert.ErrorContains(t, validateFlags(), "mutually exclusive")

	flagSingle, flagMarkdown, flagPDF = false, false, true
	assert.ErrorContains(t, validateFlags(), "only support --markdown")
}

func TestSelectRenderer(t *testing.T) {
	resetFlags(t)
	flagJSON = true
	r, err := selectRenderer()
	require.NoError(t, err)
	assert.Equal(t, ".json", r.Extension())
}

func TestNewNormalizer(t *testing.T) {
	c := config.Default()
	assert.IsType(t, &normalize.TranscriberNormalizer{}, newNormalizer(c, zaptest.NewLogger(t)))

	c.Engine = config.EngineGeneric
	assert.IsType(t, &normalize.GenericNormalizer{}, newNormalizer(c, zaptest.NewLogger(t)))
}

func TestRunOnlyLocalFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(src, []byte(flowchartPage), 0644))

	writer, err := output.New(filepath.Join(dir, "out"))
	require.NoError(t, err)

	c := config.Default()
	err = runOnly(context.Background(), src,
		fetch.New(0, ""), extract.New(), newNormalizer(c, zaptest.NewLogger(t)),
		render.NewMarkdownRenderer(), writer)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "out", "Hello.md"))
	require.NoError(t, err)
	md := string(data)
	assert.True(t, strings.HasPrefix(md, "# Hello\n\nIntro\n\n```mermaid\nflowchart TD"))
	assert.Contains(t, md, "A --> B")
}

func TestPrintDiagrams(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(flowchartPage))
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	n := printDiagrams(&out, &errOut, doc, diagram.DefaultConfig())

	assert.Equal(t, 1, n)
	assert.True(t, strings.HasPrefix(out.String(), "```mermaid\nflowchart TD"))
	assert.Contains(t, errOut.String(), "Diagram 2/2 (unknown)")
}
