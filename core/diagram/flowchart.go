package diagram

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/philipz/deepwiki-md-chrome-extension/core/diagram/geom"
)

var (
	edgeIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^L_([^_]+)_(.+)_\d+$`),
		regexp.MustCompile(`^flowchart-([^-]+)-([^-]+)-\d+$`),
	}
	edgeIDPrefixRe = regexp.MustCompile(`^(L_|flowchart-)`)
	edgeIDSuffixRe = regexp.MustCompile(`[-_]\d+$`)

	isFlowLabel = matcher(".nodeLabel, .label, text")
)

// flowElement is a node or a cluster of a rendered flowchart.
type flowElement struct {
	svgID   string
	shortID string
	text    string // node label or cluster title
	box     geom.Box
	cluster bool
}

type flowEdge struct {
	line   string
	parent string // owning cluster svg id, or "" for the top level
}

type edgeLabel struct {
	center  geom.Point
	text    string
	matched bool
}

// flowGraph holds the elements of one flowchart in discovery order.
type flowGraph struct {
	nodes    []*flowElement
	clusters []*flowElement
	byID     map[string]*flowElement
	parent   map[string]string
}

func newFlowGraph() *flowGraph {
	return &flowGraph{byID: map[string]*flowElement{}, parent: map[string]string{}}
}

// put adds e, replacing an earlier element with the same svg id in place.
func (g *flowGraph) put(e *flowElement) {
	list := &g.nodes
	if e.cluster {
		list = &g.clusters
	}
	if old, ok := g.byID[e.svgID]; ok && old.cluster == e.cluster {
		for i, x := range *list {
			if x == old {
				(*list)[i] = e
			}
		}
	} else {
		*list = append(*list, e)
	}
	g.byID[e.svgID] = e
}

func (g *flowGraph) node(shortID string) *flowElement {
	for _, n := range g.nodes {
		if n.shortID == shortID {
			return n
		}
	}
	return nil
}

// resolve looks shortID up among nodes first and clusters second.
func (g *flowGraph) resolve(shortID string) *flowElement {
	if n := g.node(shortID); n != nil {
		return n
	}
	for _, c := range g.clusters {
		if c.shortID == shortID {
			return c
		}
	}
	return nil
}

// Flowchart reconstructs a flowchart with nested subgraphs. Nodes and
// clusters are read from the SVG, nesting comes from geometric containment,
// and each edge path is resolved to its endpoints by id parsing with a
// nearest-node fallback.
func Flowchart(svg *html.Node, cfg Config) (string, bool) {
	if svg == nil {
		return "", false
	}
	root := selection(svg)
	g := newFlowGraph()

	collectFlowNodes(g, root, attr(svg, "id"))
	collectClusters(g, root)
	g.buildHierarchy()

	labels := collectEdgeLabels(root)
	var edges []flowEdge
	root.Find(`path.flowchart-link, g.edgePath > path, g.edgePaths > path, path.edge-thickness-normal, path[marker-end]`).
		Each(func(i int, path *goquery.Selection) {
			if e, ok := g.edge(path, labels, cfg); ok {
				edges = append(edges, e)
				return
			}
			cfg.trace("flowchart edge unresolved", zap.Int("index", i), zap.String("id", path.AttrOr("id", "")))
		})

	if len(g.nodes) == 0 && len(g.clusters) == 0 {
		return "", false
	}
	return fence(g.render(edges)), true
}

func collectFlowNodes(g *flowGraph, root *goquery.Selection, svgID string) {
	root.Find(`g.node, g.default, g[id^="flowchart-"], g[id^="mermaid-"]`).Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("edgePath") || s.HasClass("cluster") || s.HasClass("label") || s.HasClass("edgeLabel") {
			return
		}
		id := s.AttrOr("id", "")
		if id == "" {
			return
		}
		box, ok := geom.BBox(s.Get(0))
		if !ok || box.Empty() {
			return
		}
		g.put(&flowElement{
			svgID:   id,
			shortID: shortFlowID(id, svgID),
			text:    flowNodeLabel(s),
			box:     box,
		})
	})
}

// shortFlowID turns "flowchart-orders-3" into "orders".
func shortFlowID(id, svgID string) string {
	if svgID != "" {
		id = strings.TrimPrefix(id, svgID+"-")
	}
	id = strings.TrimPrefix(id, "flowchart-")
	return trailingIndexRe.ReplaceAllString(id, "")
}

func flowNodeLabel(s *goquery.Selection) string {
	var text string
	if p := inForeign(s.Find(".label"), "div > span > p, div > p").First(); p.Length() > 0 {
		var b strings.Builder
		for c := p.Get(0).FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				b.WriteString(c.Data)
			case c.Type == html.ElementNode && c.Data == "br":
				b.WriteString("<br>")
			case c.Type == html.ElementNode:
				b.WriteString(nodeText(c))
			}
		}
		text = quoteSafe(strings.TrimSpace(b.String()))
	}
	if strings.TrimSpace(text) != "" {
		return text
	}

	n := s.Get(0)
	label := firstMatch(n, func(x *html.Node) bool {
		if isFlowLabel(x) {
			return true
		}
		return (x.Data == "span" || x.Data == "div") && insideForeign(x, n)
	})
	return quoteSafe(strings.TrimSpace(nodeText(label)))
}

func collectClusters(g *flowGraph, root *goquery.Selection) {
	root.Find("g.cluster").Each(func(_ int, s *goquery.Selection) {
		id := s.AttrOr("id", "")
		if id == "" {
			return
		}
		title := strings.TrimSpace(s.Find(".cluster-label, .label").First().Text())
		if title == "" {
			title = id
		}

		frame := s.Get(0)
		if rect := s.Find("rect").First(); rect.Length() > 0 {
			frame = rect.Get(0)
		}
		box, ok := geom.BBox(frame)
		if !ok || box.Empty() {
			return
		}
		g.put(&flowElement{svgID: id, shortID: id, text: title, box: box, cluster: true})
	})
}

// buildHierarchy assigns every element the smallest cluster containing it.
// A cluster only nests inside a strictly larger one so identical frames
// cannot form a cycle.
func (g *flowGraph) buildHierarchy() {
	all := append(append([]*flowElement{}, g.nodes...), g.clusters...)
	for _, child := range all {
		best, minArea := "", math.Inf(1)
		for _, c := range g.clusters {
			if c.svgID == child.svgID || !c.box.Contains(child.box) {
				continue
			}
			area := c.box.Area()
			if child.cluster && area <= child.box.Area() {
				continue
			}
			if area < minArea {
				best, minArea = c.svgID, area
			}
		}
		if best != "" {
			g.parent[child.svgID] = best
		}
	}
}

func collectEdgeLabels(root *goquery.Selection) []*edgeLabel {
	var labels []*edgeLabel
	root.Find("g.edgeLabel").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		center := geom.CTM(n).Apply(geom.Point{})
		if box, ok := geom.BBox(n); ok {
			center = box.Center()
		}

		text := strings.TrimSpace(s.Text())
		inner := firstMatch(n, func(x *html.Node) bool {
			return (x.Data == "span" || x.Data == "div" || x.Data == "p") && insideForeign(x, n)
		})
		if inner != nil {
			text = strings.TrimSpace(nodeText(inner))
		}
		labels = append(labels, &edgeLabel{center: center, text: text})
	})
	return labels
}

func (g *flowGraph) edge(path *goquery.Selection, labels []*edgeLabel, cfg Config) (flowEdge, bool) {
	src, dst := g.endpointsByID(path.AttrOr("id", ""))
	if src == nil || dst == nil {
		src, dst = g.endpointsByGeometry(path.Get(0), cfg)
	}
	if src == nil || dst == nil {
		return flowEdge{}, false
	}

	var label string
	if box, ok := geom.BBox(path.Get(0)); ok {
		label = claimLabel(labels, box.Center(), cfg.EdgeLabelProximity)
	}

	arrow := "-->"
	if isDashed(path) {
		arrow = "-.->"
	}
	var labelPart string
	if label != "" {
		labelPart = fmt.Sprintf(`|"%s"|`, quoteSafe(label))
	}
	return flowEdge{
		line:   fmt.Sprintf("%s %s%s %s", src.shortID, arrow, labelPart, dst.shortID),
		parent: g.commonAncestor(src.svgID, dst.svgID),
	}, true
}

// endpointsByID parses the edge id. Each strategy that yields ids naming
// no known element falls through to the next.
func (g *flowGraph) endpointsByID(id string) (src, dst *flowElement) {
	if id == "" {
		return nil, nil
	}
	for _, re := range edgeIDPatterns {
		m := re.FindStringSubmatch(id)
		if m == nil {
			continue
		}
		if s, d := g.resolve(m[1]), g.resolve(m[2]); s != nil && d != nil {
			return s, d
		}
	}

	core := edgeIDSuffixRe.ReplaceAllString(edgeIDPrefixRe.ReplaceAllString(id, ""), "")
	for j := 1; j < len(core); j++ {
		if core[j] != '-' && core[j] != '_' {
			continue
		}
		if s, d := g.node(core[:j]), g.node(core[j+1:]); s != nil && d != nil {
			return s, d
		}
	}
	return nil, nil
}

// endpointsByGeometry picks the nodes nearest to each end of the path.
func (g *flowGraph) endpointsByGeometry(path *html.Node, cfg Config) (src, dst *flowElement) {
	start, end, ok := geom.PathEndpoints(path)
	if !ok {
		return nil, nil
	}
	minStart, minEnd := math.Inf(1), math.Inf(1)
	for _, n := range g.nodes {
		if d := n.box.DistanceTo(start); d < minStart {
			minStart, src = d, n
		}
		if d := n.box.DistanceTo(end); d < minEnd {
			minEnd, dst = d, n
		}
	}
	if minStart >= cfg.EdgeProximity || minEnd >= cfg.EdgeProximity {
		cfg.trace("flowchart geometric match too far",
			zap.Float64("start", minStart), zap.Float64("end", minEnd))
		return nil, nil
	}
	return src, dst
}

// claimLabel returns the text of the nearest unclaimed label within limit
// and marks it claimed.
func claimLabel(labels []*edgeLabel, at geom.Point, limit float64) string {
	var best *edgeLabel
	bestDist := math.Inf(1)
	for _, l := range labels {
		if l.matched {
			continue
		}
		if d := at.Distance(l.center); d < bestDist && d < limit {
			bestDist, best = d, l
		}
	}
	if best == nil {
		return ""
	}
	best.matched = true
	return best.text
}

// commonAncestor returns the lowest cluster containing both elements, or ""
// when they only meet at the top level.
func (g *flowGraph) commonAncestor(a, b string) string {
	seen := map[string]bool{}
	for p := g.parent[a]; p != "" && !seen[p]; p = g.parent[p] {
		seen[p] = true
	}
	visited := map[string]bool{}
	for p := g.parent[b]; p != "" && !visited[p]; p = g.parent[p] {
		if seen[p] {
			return p
		}
		visited[p] = true
	}
	return ""
}

func (g *flowGraph) render(edges []flowEdge) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n\n")

	defined := map[string]bool{}
	for _, n := range g.nodes {
		if !defined[n.shortID] {
			fmt.Fprintf(&b, "%s[\"%s\"]\n", n.shortID, n.text)
			defined[n.shortID] = true
		}
	}
	b.WriteString("\n")

	children := map[string][]*flowElement{}
	for _, e := range append(append([]*flowElement{}, g.nodes...), g.clusters...) {
		if p, ok := g.parent[e.svgID]; ok {
			children[p] = append(children[p], e)
		}
	}
	edgesBy := map[string][]string{}
	for _, e := range edges {
		edgesBy[e.parent] = append(edgesBy[e.parent], e.line)
	}

	for _, line := range edgesBy[""] {
		b.WriteString(line + "\n")
	}

	var subgraph func(c *flowElement)
	subgraph = func(c *flowElement) {
		fmt.Fprintf(&b, "\nsubgraph %s [\"%s\"]\n", c.shortID, quoteSafe(c.text))
		for _, child := range children[c.svgID] {
			if !child.cluster {
				fmt.Fprintf(&b, "    %s\n", child.shortID)
			}
		}
		for _, line := range edgesBy[c.svgID] {
			fmt.Fprintf(&b, "    %s\n", line)
		}
		for _, child := range children[c.svgID] {
			if child.cluster {
				subgraph(child)
			}
		}
		b.WriteString("end\n")
	}
	for _, c := range g.clusters {
		if _, nested := g.parent[c.svgID]; !nested {
			subgraph(c)
		}
	}
	return b.String()
}
