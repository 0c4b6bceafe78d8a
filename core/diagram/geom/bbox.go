package geom

import (
	"strings"

	"golang.org/x/net/html"
)

// Attr returns the value of attribute key on n, or "".
func Attr(n *html.Node, key string) string {
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

// FloatAttr parses a numeric attribute. Attributes holding a list (as
// text x="10 20" may) yield their first value.
func FloatAttr(n *html.Node, key string) (float64, bool) {
	raw := Attr(n, key)
	if v, ok := ParseFloat(raw); ok {
		return v, true
	}
	if nums := parseNumbers(raw); len(nums) > 0 {
		return nums[0], true
	}
	return 0, false
}

func floatOr(n *html.Node, key string, def float64) float64 {
	if v, ok := FloatAttr(n, key); ok {
		return v
	}
	return def
}

// CTM returns the transform from n's local coordinates to the user space
// of the document root, composing every transform attribute on the way.
func CTM(n *html.Node) Matrix {
	var chain []*html.Node
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode {
			chain = append(chain, cur)
		}
	}
	m := Identity
	for i := len(chain) - 1; i >= 0; i-- {
		m = m.Multiply(localTransform(chain[i]))
	}
	return m
}

func localTransform(n *html.Node) Matrix {
	m := ParseTransform(Attr(n, "transform"))
	if strings.EqualFold(n.Data, "svg") && n.Parent != nil && hasSVGAncestor(n.Parent) {
		m = Matrix{A: 1, D: 1, E: floatOr(n, "x", 0), F: floatOr(n, "y", 0)}.Multiply(m)
	}
	return m
}

func hasSVGAncestor(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, "svg") {
			return true
		}
	}
	return false
}

// nonRendering elements never contribute to a bounding box.
var nonRendering = map[string]bool{
	"defs": true, "marker": true, "clippath": true, "mask": true, "style": true,
	"script": true, "title": true, "desc": true, "lineargradient": true,
	"radialgradient": true, "pattern": true, "symbol": true, "filter": true,
}

// BBox returns the bounding box of n and its descendants in document-root
// user space, the static equivalent of getBoundingClientRect. ok is false
// when no geometry was found.
func BBox(n *html.Node) (Box, bool) {
	if n == nil || n.Type != html.ElementNode {
		return Box{}, false
	}
	parent := Identity
	if n.Parent != nil {
		parent = CTM(n.Parent)
	}
	var acc bounds
	collect(n, parent, &acc)
	return acc.box, acc.isSet
}

func collect(n *html.Node, m Matrix, acc *bounds) {
	if n.Type != html.ElementNode {
		return
	}
	name := strings.ToLower(n.Data)
	if nonRendering[name] {
		return
	}
	m = m.Multiply(localTransform(n))
	if local, ok := shapeBox(n, name); ok {
		acc.addBox(m.ApplyBox(local))
	}
	if name == "foreignobject" {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, m, acc)
	}
}

func shapeBox(n *html.Node, name string) (Box, bool) {
	switch name {
	case "rect", "image", "foreignobject", "use":
		w, h := floatOr(n, "width", 0), floatOr(n, "height", 0)
		return BoxFromRect(floatOr(n, "x", 0), floatOr(n, "y", 0), w, h), true
	case "circle":
		r := floatOr(n, "r", 0)
		return BoxAround(Point{X: floatOr(n, "cx", 0), Y: floatOr(n, "cy", 0)}, r), true
	case "ellipse":
		cx, cy := floatOr(n, "cx", 0), floatOr(n, "cy", 0)
		rx, ry := floatOr(n, "rx", 0), floatOr(n, "ry", 0)
		return Box{Left: cx - rx, Top: cy - ry, Right: cx + rx, Bottom: cy + ry}, true
	case "line":
		var acc bounds
		acc.addPoint(Point{X: floatOr(n, "x1", 0), Y: floatOr(n, "y1", 0)})
		acc.addPoint(Point{X: floatOr(n, "x2", 0), Y: floatOr(n, "y2", 0)})
		return acc.box, true
	case "path":
		return ParsePath(Attr(n, "d")).Bounds()
	case "polygon", "polyline":
		nums := parseNumbers(Attr(n, "points"))
		var acc bounds
		for i := 0; i+1 < len(nums); i += 2 {
			acc.addPoint(Point{X: nums[i], Y: nums[i+1]})
		}
		return acc.box, acc.isSet
	case "text":
		x, y := floatOr(n, "x", 0), floatOr(n, "y", 0)
		return Box{Left: x, Top: y, Right: x, Bottom: y}, true
	}
	return Box{}, false
}

// PathEndpoints returns the first and last points of a path element in
// document-root user space.
func PathEndpoints(n *html.Node) (start, end Point, ok bool) {
	p := ParsePath(Attr(n, "d"))
	s, okS := p.Start()
	e, okE := p.End()
	if !okS || !okE {
		return Point{}, Point{}, false
	}
	m := CTM(n)
	return m.Apply(s), m.Apply(e), true
}
