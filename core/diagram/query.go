package diagram

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

var trailingIndexRe = regexp.MustCompile(`-\d+$`)

// selection wraps n so goquery searches its descendants.
func selection(n *html.Node) *goquery.Selection {
	return goquery.NewDocumentFromNode(n).Selection
}

// isForeignObject matches <foreignObject>. Selectors cannot name it: cascadia
// lowercases type selectors while the HTML parser keeps the SVG casing.
func isForeignObject(n *html.Node) bool {
	return n.Type == html.ElementNode && strings.EqualFold(n.Data, "foreignObject")
}

// foreignObjects returns every <foreignObject> below s.
func foreignObjects(s *goquery.Selection) *goquery.Selection {
	return s.Find("*").FilterFunction(func(_ int, x *goquery.Selection) bool {
		return isForeignObject(x.Get(0))
	})
}

// inForeign finds sel inside the foreignObjects below s.
func inForeign(s *goquery.Selection, sel string) *goquery.Selection {
	return foreignObjects(s).Find(sel)
}

// insideForeign reports whether n has a foreignObject ancestor below root.
func insideForeign(n, root *html.Node) bool {
	for cur := n.Parent; cur != nil && cur != root; cur = cur.Parent {
		if isForeignObject(cur) {
			return true
		}
	}
	return false
}

// firstMatch returns the first descendant of root, in document order,
// satisfying pred.
func firstMatch(root *html.Node, pred func(*html.Node) bool) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if pred(c) {
			return c
		}
		if found := firstMatch(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// matcher compiles a CSS selector into a node predicate.
func matcher(sel string) func(*html.Node) bool {
	return cascadia.MustCompile(sel).Match
}

// nodeText is the concatenated text of every descendant of n.
func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}

func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// isDashed reports a dashed or dotted stroke from the class list or from an
// explicit stroke-dasharray.
func isDashed(s *goquery.Selection) bool {
	for _, c := range []string{"dashed", "dotted", "edge-pattern-dashed", "edge-pattern-dotted"} {
		if s.HasClass(c) {
			return true
		}
	}
	return hasDashArray(s.Get(0))
}

func hasDashArray(n *html.Node) bool {
	if v := strings.TrimSpace(attr(n, "stroke-dasharray")); v != "" && v != "none" {
		return true
	}
	for _, decl := range strings.Split(attr(n, "style"), ";") {
		key, val, ok := strings.Cut(decl, ":")
		if !ok || strings.TrimSpace(strings.ToLower(key)) != "stroke-dasharray" {
			continue
		}
		val = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(val), "!important"))
		if val != "" && val != "none" {
			return true
		}
	}
	return false
}

// quoteSafe replaces double quotes with the Mermaid entity.
func quoteSafe(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}

// freeAlias returns the next prefix<N> not in taken and marks it used.
func freeAlias(prefix string, taken map[string]bool, next *int) string {
	for {
		*next++
		id := prefix + strconv.Itoa(*next)
		if !taken[id] {
			taken[id] = true
			return id
		}
	}
}

// fence wraps diagram source in a mermaid code fence.
func fence(src string) string {
	return "```mermaid\n" + strings.TrimSpace(src) + "\n```"
}
