package diagram

import (
	"fmt"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/philipz/deepwiki-md-chrome-extension/core/diagram/geom"
)

// pseudoState names both the start and the end pseudostate.
const pseudoState = "[*]"

type stateNode struct {
	name string
	box  geom.Box
}

type stateLabel struct {
	text string
	at   geom.Point
}

type transition struct {
	from, to, label string
}

// StateDiagram reconstructs transitions between named states and the
// start/end pseudostates. Transitions must touch both boxes; self
// transitions are not emitted.
func StateDiagram(svg *html.Node, cfg Config) (string, bool) {
	if svg == nil {
		return "", false
	}
	root := selection(svg)
	nodes := collectStates(root, cfg)
	labels := collectStateLabels(root)

	var transitions []transition
	seen := map[transition]bool{}
	root.Find("path.transition").Each(func(i int, path *goquery.Selection) {
		start, end, ok := geom.PathEndpoints(path.Get(0))
		if !ok {
			return
		}
		src, srcDist := nearestState(nodes, start)
		dst, dstDist := nearestState(nodes, end)
		if src == nil || dst == nil || srcDist >= cfg.StateEndpointTolerance || dstDist >= cfg.StateEndpointTolerance {
			cfg.trace("state transition unresolved", zap.Int("index", i),
				zap.Float64("source", srcDist), zap.Float64("target", dstDist))
			return
		}
		if src == dst {
			return
		}

		t := transition{from: src.name, to: dst.name}
		mid := geom.Point{X: (start.X + end.X) / 2, Y: (start.Y + end.Y) / 2}
		best := math.Inf(1)
		for _, l := range labels {
			if d := mid.Distance(l.at); d < best {
				best, t.label = d, l.text
			}
		}
		if best >= cfg.StateLabelProximity {
			t.label = ""
		}

		if !seen[t] {
			seen[t] = true
			transitions = append(transitions, t)
		}
	})

	if len(transitions) == 0 {
		return "", false
	}
	return fence(renderStates(transitions)), true
}

func collectStates(root *goquery.Selection, cfg Config) []*stateNode {
	var nodes []*stateNode
	root.Find("g.node.statediagram-state").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(inForeign(s, ".nodeLabel p, .nodeLabel span").First().Text())
		if name == "" {
			return
		}
		frame := s.Get(0)
		if rect := s.Find("rect.basic.label-container").First(); rect.Length() > 0 {
			frame = rect.Get(0)
		}
		box, ok := geom.BBox(frame)
		if !ok {
			return
		}
		nodes = append(nodes, &stateNode{name: name, box: box})
	})

	if circle := root.Find("g.node.default circle.state-start").First(); circle.Length() > 0 {
		if r, ok := geom.FloatAttr(circle.Get(0), "r"); ok && r > 0 {
			if box, ok := geom.BBox(circle.Get(0)); ok {
				nodes = append(nodes, &stateNode{name: pseudoState, box: box})
			}
		}
	}

	root.Find("g.node.default").Each(func(_ int, g *goquery.Selection) {
		if g.Find("path").Length() < 2 {
			return
		}
		center := geom.CTM(g.Get(0)).Apply(geom.Point{})
		nodes = append(nodes, &stateNode{name: pseudoState, box: geom.BoxAround(center, cfg.EndStateRadius)})
	})
	return nodes
}

func collectStateLabels(root *goquery.Selection) []stateLabel {
	var labels []stateLabel
	root.Find("g.edgeLabel").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(inForeign(s, ".edgeLabel p, .edgeLabel span").First().Text())
		text = strings.TrimSuffix(strings.TrimPrefix(text, `"`), `"`)
		if text == "" {
			return
		}
		labels = append(labels, stateLabel{text: text, at: geom.CTM(s.Get(0)).Apply(geom.Point{})})
	})
	return labels
}

func nearestState(nodes []*stateNode, p geom.Point) (*stateNode, float64) {
	var best *stateNode
	dist := math.Inf(1)
	for _, n := range nodes {
		if d := n.box.DistanceTo(p); d < dist {
			best, dist = n, d
		}
	}
	return best, dist
}

// renderStates declares an alias for every state name that cannot stand as
// an identifier, then lists the transitions.
func renderStates(transitions []transition) string {
	var b strings.Builder
	b.WriteString("stateDiagram-v2\n")

	taken := map[string]bool{}
	for _, t := range transitions {
		for _, name := range []string{t.from, t.to} {
			if safeIDRe.MatchString(name) {
				taken[name] = true
			}
		}
	}

	ids := map[string]string{pseudoState: pseudoState}
	next := 0
	id := func(name string) string {
		if v, ok := ids[name]; ok {
			return v
		}
		v := name
		if !safeIDRe.MatchString(name) {
			v = freeAlias("s", taken, &next)
			fmt.Fprintf(&b, "    state \"%s\" as %s\n", quoteSafe(name), v)
		}
		ids[name] = v
		return v
	}
	for _, t := range transitions {
		id(t.from)
		id(t.to)
	}

	for _, t := range transitions {
		line := fmt.Sprintf("    %s --> %s", ids[t.from], ids[t.to])
		if t.label != "" {
			line += " : " + t.label
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
