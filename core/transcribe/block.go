package transcribe

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type heading struct{ level int }

func (h heading) format(_ *Transcriber, n *html.Node) string {
	text := strings.TrimSpace(textContent(n))
	if text == "" {
		return ""
	}
	return strings.Repeat("#", h.level) + " " + text + "\n\n"
}

type paragraph struct{}

// An empty paragraph still yields a newline so spacing between its
// neighbours survives.
func (paragraph) format(t *Transcriber, n *html.Node) string {
	text := strings.TrimSpace(t.children(n))
	if text == "" {
		return "\n"
	}
	return text + "\n\n"
}

type blockquote struct{}

func (blockquote) format(t *Transcriber, n *html.Node) string {
	text := strings.TrimSpace(t.children(n))
	if text == "" {
		return ""
	}
	return quote(text, true) + "\n\n"
}

// quote prefixes each line of text with "> ". With dropBlank set, lines
// that are empty after trimming are left out.
func quote(text string, dropBlank bool) string {
	lines := strings.Split(text, "\n")
	quoted := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			if dropBlank {
				continue
			}
			l = ""
		}
		quoted = append(quoted, "> "+l)
	}
	return strings.Join(quoted, "\n")
}

type rule struct{}

func (rule) format(*Transcriber, *html.Node) string {
	return "\n---\n\n"
}

// details renders a disclosure widget as a quote whose first line is the
// bold summary.
type details struct{}

func (details) format(t *Transcriber, n *html.Node) string {
	summary := "Details"
	if s := selection(n).Find("summary").First(); s.Length() > 0 {
		if text := strings.TrimSpace(t.children(s.Get(0))); text != "" {
			summary = text
		}
	}

	var body strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Summary {
			continue
		}
		body.WriteString(t.visit(c))
	}
	return "> **" + summary + "**\n" + quote(strings.TrimSpace(body.String()), false) + "\n\n"
}

type silentFormatter struct{}

func (silentFormatter) format(*Transcriber, *html.Node) string { return "" }

// container is the fallback for every tag without a dedicated formatter.
// Block-level containers end with exactly one blank line; inline ones pass
// their content through untouched.
type container struct{}

func (container) format(t *Transcriber, n *html.Node) string {
	text := t.children(n)
	if !isBlock(n) || strings.TrimSpace(text) == "" {
		return text
	}
	switch {
	case strings.HasSuffix(text, "\n\n"):
		return text
	case strings.HasSuffix(text, "\n"):
		return text + "\n"
	}
	return strings.TrimRight(text, " \t\r\n\f") + "\n\n"
}
