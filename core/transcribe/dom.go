package transcribe

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// chrome is page furniture that never carries article content.
var chrome = cascadia.MustCompile(`button, [role="button"], nav, footer, aside, script, style, noscript, iframe, embed, object, header`)

var (
	styleDisplayRe    = regexp.MustCompile(`(?i)(?:^|;)\s*display\s*:\s*([a-z-]+)`)
	styleVisibilityRe = regexp.MustCompile(`(?i)(?:^|;)\s*visibility\s*:\s*hidden`)
)

// utilityDisplay maps display utility classes to the display they set.
var utilityDisplay = map[string]string{
	"block":        "block",
	"inline-block": "inline-block",
	"inline":       "inline",
	"flex":         "flex",
	"inline-flex":  "inline-flex",
	"grid":         "grid",
	"inline-grid":  "inline-grid",
	"table":        "table",
	"list-item":    "list-item",
	"contents":     "contents",
	"hidden":       "none",
}

var responsivePrefixes = []string{"sm:", "md:", "lg:", "xl:", "2xl:"}

// defaultDisplay is the user-agent display of elements that are not inline.
var defaultDisplay = map[atom.Atom]string{
	atom.Html: "block", atom.Body: "block", atom.Address: "block",
	atom.Article: "block", atom.Aside: "block", atom.Blockquote: "block",
	atom.Details: "block", atom.Dialog: "block", atom.Dd: "block",
	atom.Div: "block", atom.Dl: "block", atom.Dt: "block",
	atom.Fieldset: "block", atom.Figcaption: "block", atom.Figure: "block",
	atom.Footer: "block", atom.Form: "block", atom.H1: "block",
	atom.H2: "block", atom.H3: "block", atom.H4: "block",
	atom.H5: "block", atom.H6: "block", atom.Header: "block",
	atom.Hgroup: "block", atom.Hr: "block", atom.Main: "block",
	atom.Nav: "block", atom.Ol: "block", atom.P: "block",
	atom.Pre: "block", atom.Section: "block", atom.Summary: "block",
	atom.Ul: "block", atom.Menu: "block",
	atom.Li:    "list-item",
	atom.Table: "table", atom.Caption: "table-caption",
	atom.Thead: "table-header-group", atom.Tbody: "table-row-group",
	atom.Tfoot: "table-footer-group", atom.Tr: "table-row",
	atom.Td: "table-cell", atom.Th: "table-cell",
	atom.Script: "none", atom.Style: "none", atom.Template: "none",
	atom.Head: "none", atom.Noscript: "none",
}

// blockDisplays are the displays after which a container ends its paragraph.
var blockDisplays = map[string]bool{
	"block": true, "flex": true, "grid": true, "list-item": true, "table": true,
	"table-row-group": true, "table-header-group": true, "table-footer-group": true,
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func classes(n *html.Node) []string {
	return strings.Fields(attr(n, "class"))
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

// textContent is the DOM textContent of n.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode || c.Type == html.ElementNode {
			b.WriteString(textContent(c))
		}
	}
	return b.String()
}

// codeText is textContent without embedded stylesheets.
func codeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	if n.DataAtom == atom.Style {
		return ""
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(codeText(c))
	}
	return b.String()
}

// display approximates the computed display of n: an inline style wins, then
// a responsive utility class, then a plain utility class, then the tag's
// default. Snapshots are treated as a wide viewport, so a breakpoint class
// like md:block overrides a base hidden.
func display(n *html.Node) string {
	if hasAttr(n, "hidden") {
		return "none"
	}
	if m := styleDisplayRe.FindStringSubmatch(attr(n, "style")); m != nil {
		return strings.ToLower(m[1])
	}

	var base, responsive string
	for _, c := range classes(n) {
		if d, ok := utilityDisplay[c]; ok {
			base = d
			continue
		}
		for _, p := range responsivePrefixes {
			rest, found := strings.CutPrefix(c, p)
			if d, ok := utilityDisplay[rest]; found && ok {
				responsive = d
			}
		}
	}
	switch {
	case responsive != "":
		return responsive
	case base != "":
		return base
	}

	if d, ok := defaultDisplay[n.DataAtom]; ok {
		return d
	}
	return "inline"
}

// hidden reports whether n would not be rendered.
func hidden(n *html.Node) bool {
	if display(n) == "none" {
		return true
	}
	return styleVisibilityRe.MatchString(attr(n, "style")) || hasClass(n, "invisible")
}

func isBlock(n *html.Node) bool {
	return blockDisplays[display(n)]
}

// skipped reports chrome and DeepWiki's "ask" box, neither of which is
// transcribed or descended into.
func skipped(n *html.Node) bool {
	if chrome.Match(n) {
		return true
	}
	return hasClass(n, "bg-input-dark") && selection(n).Find("svg").Length() > 0
}

func selection(n *html.Node) *goquery.Selection {
	return goquery.NewDocumentFromNode(n).Selection
}

// closest reports whether n or one of its ancestors is a.
func closest(n *html.Node, a atom.Atom) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && cur.DataAtom == a {
			return true
		}
	}
	return false
}

// previousElement returns the nearest preceding element sibling of n.
func previousElement(n *html.Node) *html.Node {
	for p := n.PrevSibling; p != nil; p = p.PrevSibling {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}
