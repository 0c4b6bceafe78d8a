package transcribe

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/philipz/deepwiki-md-chrome-extension/core/diagram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func body(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc.Find("body").Get(0)
}

func transcribe(t *testing.T, markup string) string {
	t.Helper()
	return New(WithLogger(zaptest.NewLogger(t))).Transcribe(body(t, markup))
}

func TestTranscribeBlocksAndInline(t *testing.T) {
	md := transcribe(t, `<h1>Title</h1><p>Some <strong>bold</strong> and <em>soft</em> text with <code>x := 1</code>.</p><hr><h2>Next</h2>`)
	assert.Equal(t, "# Title\n\nSome **bold** and *soft* text with `x := 1`.\n\n---\n\n## Next", md)
}

func TestTranscribeEmptyHeadingIsDropped(t *testing.T) {
	assert.Equal(t, "text", transcribe(t, `<h3>  </h3><p>text</p>`))
}

func TestTranscribeLists(t *testing.T) {
	md := transcribe(t, `<ul><li>a</li><li></li><li>b</li></ul><ol><li>one</li><li> </li><li>two</li></ol>`)
	assert.Equal(t, "* a\n* b\n\n1. one\n2. two", md)
}

func TestTranscribeNestedList(t *testing.T) {
	md := transcribe(t, `<ul><li>parent<ul><li>child</li></ul></li><li>next</li></ul>`)
	assert.Equal(t, "* parent\n  * child\n* next", md)
}

func TestTranscribeSourceListJoinsLines(t *testing.T) {
	md := transcribe(t, `<p>Sources:</p><ul><li><a href="https://github.com/o/r/blob/main/a.go#L1-L9">a.go</a>
<a href="https://github.com/o/r/blob/main/b.go#L3">b.go</a></li></ul>`)
	assert.Equal(t, "Sources:\n\n* [a.go L1-L9](https://github.com/o/r/blob/main/a.go#L1-L9) [b.go L3](https://github.com/o/r/blob/main/b.go#L3)", md)
}

func TestTranscribeTableWithoutHead(t *testing.T) {
	md := transcribe(t, `<table><tr><th>Key</th><th>Value</th></tr><tr><td>a|b</td><td><p>line1</p><p>line2</p></td></tr></table>`)
	assert.Equal(t, "| Key | Value |\n| --- | --- |\n| a\\|b | line1 <br> line2 |", md)
}

func TestTranscribeTableWithHead(t *testing.T) {
	md := transcribe(t, `<table><thead><tr><th>H</th></tr></thead><tbody><tr><td>1</td></tr><tr><td>2</td></tr></tbody></table>`)
	assert.Equal(t, "| H |\n| --- |\n| 1 |\n| 2 |", md)
}

func TestTranscribeEmptyFlowchartFallsBackToRawBlock(t *testing.T) {
	markup := `<p>Before</p><pre><svg id="mermaid-3" aria-roledescription="flowchart-v2">` +
		`<g class="root"><text>Rendering failed</text></g></svg></pre><p>After</p>`

	svg := diagram.FindSVG(body(t, markup))
	require.NotNil(t, svg)
	require.Equal(t, diagram.KindFlowchart, diagram.Detect(svg))
	_, ok := diagram.Reconstruct(svg, diagram.DefaultConfig())
	require.False(t, ok)

	assert.Equal(t, "Before\n\n```\nRendering failed\n```\n\nAfter", transcribe(t, markup))
}

func TestTranscribeCodeBlocks(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"class on code", `<pre><code class="language-go">fmt.Println(1)
</code></pre>`, "```go\nfmt.Println(1)\n```"},
		{"class on pre", `<pre class="language-rust"><code>let x = 1;</code></pre>`, "```rust\nlet x = 1;\n```"},
		{"detected", `<pre>SELECT * FROM t WHERE id = 1</pre>`, "```sql\nSELECT * FROM t WHERE id = 1\n```"},
		{"unrecognised diagram falls back to text", `<pre><svg id="mermaid-7" aria-roledescription="pie"><style>.x{fill:red}</style><text>Slices</text></svg></pre>`, "```\nSlices\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transcribe(t, tt.markup))
		})
	}
}

func TestTranscribeDiagramInPre(t *testing.T) {
	md := transcribe(t, `<p>Flow:</p><pre><svg id="mermaid-1" aria-roledescription="flowchart-v2">
<g class="node default" id="flowchart-A-0" transform="translate(50,50)"><rect x="-20" y="-10" width="40" height="20"></rect>
<g class="label"><foreignObject width="40" height="20"><div><span class="nodeLabel"><p>Start</p></span></div></foreignObject></g></g>
<g class="node default" id="flowchart-B-1" transform="translate(50,150)"><rect x="-20" y="-10" width="40" height="20"></rect>
<g class="label"><foreignObject width="40" height="20"><div><span class="nodeLabel"><p>End</p></span></div></foreignObject></g></g>
<path id="flowchart-A-B-0" class="flowchart-link" d="M50,60 L50,140"></path>
</svg></pre><p>after</p>`)
	assert.Equal(t, "Flow:\n\n```mermaid\nflowchart TD\n\nA[\"Start\"]\nB[\"End\"]\n\nA --> B\n```\n\nafter", md)
}

func TestTranscribeLinks(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"line range", `<p>See <a href="https://github.com/o/r/blob/main/src/app.go#L10-L20">app.go</a> and <a href="javascript:void(0)">Click</a>.</p>`,
			"See [app.go L10-L20](https://github.com/o/r/blob/main/src/app.go#L10-L20) and Click."},
		{"sources citation", `<p><a href="https://github.com/o/r/blob/main/src/app.go#L5-L5">Sources: [src/app.go]</a></p>`,
			"[Sources: [src/app.go L5]](https://github.com/o/r/blob/main/src/app.go#L5-L5)"},
		{"hint not in path", `<p><a href="https://github.com/o/r/blob/main/pkg/x.go#L2">other.go</a></p>`,
			"[x.go L2](https://github.com/o/r/blob/main/pkg/x.go#L2)"},
		{"block link", `<a class="block" href="/docs">Docs</a><p>x</p>`, "[Docs](/docs)\n\nx"},
		{"empty text", `<p><a href="#top"></a></p>`, "[#top](#top)"},
		{"mailto", `<p><a href="mailto:a@b.c">mail</a></p>`, "[mail](mailto:a@b.c)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transcribe(t, tt.markup))
		})
	}
}

func TestTranscribeImages(t *testing.T) {
	md := transcribe(t, `<p><img src="a.png" alt="A"></p><a href="/x"><img src="i.png" alt="logo"></a><p><img alt="no source"></p>`)
	assert.Equal(t, "![A](a.png)\n\n[logo](/x)", md)
}

func TestTranscribeSkipsHiddenAndChrome(t *testing.T) {
	md := transcribe(t, `<div hidden>secret</div><nav>menu</nav><header>top</header><button>Copy</button>
<span style="display: none">gone</span><div class="bg-input-dark"><svg></svg>Ask</div>
<div class="hidden md:block">shown</div><div class="invisible">ghost</div><p>kept</p>`)
	assert.Equal(t, "shown\n\nkept", md)
}

func TestTranscribeLineBreaks(t *testing.T) {
	assert.Equal(t, "one  \ntwo\n\nab", transcribe(t, `<p>one<br>two</p><span>a<br>b</span>`))
}

func TestTranscribeQuotes(t *testing.T) {
	assert.Equal(t, "> a\n> b", transcribe(t, `<blockquote><p>a</p><p>b</p></blockquote>`))
	assert.Equal(t, "> **More**\n> x", transcribe(t, `<details><summary>More</summary><p>x</p></details>`))
	assert.Equal(t, "> **Details**\n> y", transcribe(t, `<details><p>y</p></details>`))
}

type panicking struct{}

func (panicking) format(*Transcriber, *html.Node) string { panic("boom") }

func TestTranscribeContainsElementFailure(t *testing.T) {
	tr := New(WithLogger(zaptest.NewLogger(t)))
	tr.formatters[atom.Section] = panicking{}

	md := tr.Transcribe(body(t, `<p>before</p><section>x</section><p>after</p>`))
	assert.Equal(t, "before\n\n[ERROR_PROCESSING_ELEMENT: SECTION]\n\nafter", md)
}

func TestTranscribeNil(t *testing.T) {
	assert.Equal(t, "", New().Transcribe(nil))
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		markup string
		want   string
	}{
		{`<span>x</span>`, "inline"},
		{`<div>x</div>`, "block"},
		{`<li>x</li>`, "list-item"},
		{`<span class="flex">x</span>`, "flex"},
		{`<div class="hidden lg:grid">x</div>`, "grid"},
		{`<div style="color: red; display: inline-block">x</div>`, "inline-block"},
		{`<div class="flex" hidden>x</div>`, "none"},
	}
	for _, tt := range tests {
		t.Run(tt.markup, func(t *testing.T) {
			n := body(t, `<ul>`+tt.markup+`</ul>`).FirstChild.FirstChild
			assert.Equal(t, tt.want, display(n))
		})
	}
}
