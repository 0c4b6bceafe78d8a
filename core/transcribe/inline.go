package transcribe

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type emphasis struct{ marker string }

func (e emphasis) format(t *Transcriber, n *html.Node) string {
	return e.marker + strings.TrimSpace(t.children(n)) + e.marker
}

// inlineCode keeps the raw text of a <code> directly inside a <pre>, which
// is the body of a code block rather than an inline span.
type inlineCode struct{}

func (inlineCode) format(_ *Transcriber, n *html.Node) string {
	if n.Parent != nil && n.Parent.DataAtom == atom.Pre {
		return textContent(n)
	}
	return "`" + strings.TrimSpace(textContent(n)) + "`"
}

// lineBreak emits a hard break only inside text blocks, and only when it is
// last or followed by something visible.
type lineBreak struct{}

func (lineBreak) format(_ *Transcriber, n *html.Node) string {
	p := n.Parent
	if p == nil || (p.DataAtom != atom.P && p.DataAtom != atom.Div && p.DataAtom != atom.Li) {
		return ""
	}
	next := n.NextSibling
	switch {
	case next == nil,
		next.Type == html.ElementNode,
		next.Type == html.TextNode && strings.TrimSpace(next.Data) != "":
		return "  \n"
	}
	return ""
}

type image struct{}

// Images inside links are rendered by the anchor as its text.
func (image) format(_ *Transcriber, n *html.Node) string {
	if closest(n.Parent, atom.A) {
		return ""
	}
	src := attr(n, "src")
	if src == "" {
		return ""
	}
	return "![" + attr(n, "alt") + "](" + src + ")\n\n"
}
