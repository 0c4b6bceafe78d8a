package transcribe

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var newlineRunRe = regexp.MustCompile(`\n+`)

type list struct{ ordered bool }

// format renders the direct <li> children of a list. Items that come out
// empty are dropped and do not consume a number.
func (l list) format(t *Transcriber, n *html.Node) string {
	source := isSourceList(n)

	var b strings.Builder
	num := 1
	selection(n).ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		text := strings.TrimSpace(t.children(li.Get(0)))
		if text == "" {
			return
		}

		marker := "* "
		if l.ordered {
			marker = strconv.Itoa(num) + ". "
		}
		if source {
			text = newlineRunRe.ReplaceAllString(text, " ")
		} else {
			text = indent(text, len(marker))
		}

		b.WriteString(marker)
		b.WriteString(text)
		b.WriteString("\n")
		num++
	})
	if b.Len() == 0 {
		return ""
	}
	if nestedAfterText(n) {
		return "\n" + b.String() + "\n"
	}
	return b.String() + "\n"
}

// nestedAfterText reports a list that sits inside an item after some inline
// content, which needs a line of its own.
func nestedAfterText(n *html.Node) bool {
	if n.Parent == nil || n.Parent.DataAtom != atom.Li {
		return false
	}
	for p := n.PrevSibling; p != nil; p = p.PrevSibling {
		if strings.TrimSpace(textContent(p)) != "" {
			return true
		}
	}
	return false
}

// isSourceList detects the citation lists DeepWiki puts under "Sources".
// Their items are file references that read best on one line.
func isSourceList(n *html.Node) bool {
	if hasClass(n, "source-list") {
		return true
	}
	if prev := previousElement(n); prev != nil && mentionsSource(textContent(prev)) {
		return true
	}
	return n.Parent != nil && n.Parent.Type == html.ElementNode && mentionsSource(textContent(n.Parent))
}

func mentionsSource(s string) bool {
	return strings.Contains(strings.ToLower(s), "source")
}

// indent shifts every line after the first by width spaces so nested
// blocks stay inside their list item.
func indent(text string, width int) string {
	if !strings.Contains(text, "\n") {
		return text
	}
	pad := strings.Repeat(" ", width)
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			lines[i] = pad + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
