package diagram

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/philipz/deepwiki-md-chrome-extension/core/diagram/geom"
)

var (
	classIDRe       = regexp.MustCompile(`^classId-([^-]+(?:-[^-]+)*)-(\d+)$`)
	classExtentRe   = regexp.MustCompile(`M-([0-9.]+)\s+-([0-9.]+)`)
	relationIndexRe = regexp.MustCompile(`_\d+$`)
)

const noteFill = "#fff5ad"

type classInfo struct {
	name       string
	stereotype string
	members    []string
	methods    []string
	center     geom.Point
	width      float64
	height     float64
}

type classNote struct {
	text string
	at   geom.Point
}

type noteTarget struct {
	class string
	score float64
}

// ClassDiagram reconstructs classes with their stereotype, members and
// methods, free and attached notes, and typed relations.
func ClassDiagram(svg *html.Node, cfg Config) (string, bool) {
	if svg == nil {
		return "", false
	}
	root := selection(svg)

	classes, order := collectClasses(root)
	notes := collectNotes(root, cfg)
	if len(classes) == 0 && len(notes) == 0 {
		return "", false
	}
	targets := attachNotes(root, notes, classes, order, cfg)

	lines := []string{"classDiagram"}
	for i, n := range notes {
		if t, ok := targets[i]; ok {
			lines = append(lines, fmt.Sprintf(`    note for %s "%s"`, t.class, n.text))
		} else {
			lines = append(lines, fmt.Sprintf(`    note "%s"`, n.text))
		}
	}

	for _, name := range order {
		c := classes[name]
		lines = append(lines, fmt.Sprintf("    class %s {", name))
		if c.stereotype != "" {
			lines = append(lines, "        "+c.stereotype)
		}
		for _, m := range c.members {
			lines = append(lines, "        "+m)
		}
		for _, m := range c.methods {
			lines = append(lines, "        "+m)
		}
		lines = append(lines, "    }")
	}

	var labels []string
	inForeign(root.Find("g.edgeLabels .edgeLabel"), "p").Each(func(_ int, p *goquery.Selection) {
		labels = append(labels, strings.TrimSpace(p.Text()))
	})

	root.Find(`path.relation[id^="id_"]`).Each(func(i int, path *goquery.Selection) {
		id := path.AttrOr("id", "")
		from, to, ok := splitRelationID(id, classes)
		if !ok {
			cfg.log().Debug("unparsed class relation", zap.String("id", id))
			return
		}
		rel := classRelation(from, to,
			path.AttrOr("marker-start", ""),
			path.AttrOr("marker-end", ""),
			isDashedRelation(path.AttrOr("class", "")))
		if i < len(labels) && labels[i] != "" {
			rel += " : " + labels[i]
		}
		lines = append(lines, "    "+rel)
	})

	return fence(strings.Join(lines, "\n")), true
}

// collectClasses reads every class box. The first box of a name fixes its
// position; later duplicates only contribute text.
func collectClasses(root *goquery.Selection) (map[string]*classInfo, []string) {
	classes := map[string]*classInfo{}
	var order []string
	root.Find(`g.node.default[id^="classId-"]`).Each(func(_ int, node *goquery.Selection) {
		m := classIDRe.FindStringSubmatch(node.AttrOr("id", ""))
		if m == nil {
			return
		}
		name := m[1]
		c, ok := classes[name]
		if !ok {
			c = &classInfo{name: name, center: geom.CTM(node.Get(0)).Apply(geom.Point{})}
			if d, ok := node.Find(`g.basic.label-container > path[d^="M-"]`).First().Attr("d"); ok {
				if ext := classExtentRe.FindStringSubmatch(d); ext != nil {
					halfW, _ := strconv.ParseFloat(ext[1], 64)
					halfH, _ := strconv.ParseFloat(ext[2], 64)
					c.width, c.height = halfW*2, halfH*2
				}
			}
			classes[name] = c
			order = append(order, name)
		}

		if st := classTexts(node, "g.annotation-group.text"); len(st) > 0 {
			c.stereotype = st[0]
		}
		c.members = append(c.members, classTexts(node, "g.members-group.text g.label")...)
		c.methods = append(c.methods, classTexts(node, "g.methods-group.text g.label")...)
	})
	return classes, order
}

func classTexts(node *goquery.Selection, group string) []string {
	var out []string
	inForeign(node.Find(group), "span.nodeLabel p, div p").Each(func(_ int, p *goquery.Selection) {
		if txt := strings.TrimSpace(p.Text()); txt != "" {
			out = append(out, txt)
		}
	})
	return out
}

// collectNotes finds rect.note/text.noteText pairs and foreignObject notes
// drawn as yellow nodes. A node note repeating an earlier note's text at
// nearly the same spot is dropped.
func collectNotes(root *goquery.Selection, cfg Config) []classNote {
	var notes []classNote

	root.Find("rect.note").Each(func(_ int, rect *goquery.Selection) {
		g := rect.Parent()
		if goquery.NodeName(g) != "g" {
			return
		}
		label := g.Find("text.noteText").First()
		text := strings.TrimSpace(label.Text())
		x, xok := geom.FloatAttr(rect.Get(0), "x")
		y, yok := geom.FloatAttr(rect.Get(0), "y")
		if label.Length() == 0 || text == "" || !xok || !yok {
			return
		}
		notes = append(notes, classNote{text: text, at: geom.CTM(rect.Get(0)).Apply(geom.Point{X: x, Y: y})})
	})

	root.Find(`g.node.undefined, g[id^="note"]`).Each(func(_ int, g *goquery.Selection) {
		if !isNoteGroup(g) {
			return
		}
		text := noteGroupText(g)
		if text == "" {
			return
		}
		at := geom.CTM(g.Get(0)).Apply(geom.Point{})
		for _, n := range notes {
			if n.text == text && math.Abs(n.at.X-at.X) < cfg.NoteDedupeDistance && math.Abs(n.at.Y-at.Y) < cfg.NoteDedupeDistance {
				return
			}
		}
		notes = append(notes, classNote{text: text, at: at})
	})
	return notes
}

func isNoteGroup(g *goquery.Selection) bool {
	if strings.Contains(g.AttrOr("id", ""), "note") {
		return true
	}
	return g.Find("path").FilterFunction(func(_ int, p *goquery.Selection) bool {
		return strings.EqualFold(p.AttrOr("fill", ""), noteFill) ||
			strings.Contains(strings.ToLower(p.AttrOr("style", "")), noteFill)
	}).Length() > 0
}

func noteGroupText(g *goquery.Selection) string {
	if fo := foreignObjects(g).First(); fo.Length() > 0 {
		if t := strings.TrimSpace(fo.Find("p, span.nodeLabel, .nodeLabel").First().Text()); t != "" {
			return t
		}
	}
	return strings.TrimSpace(g.Find("text, .label text, tspan").First().Text())
}

// attachNotes maps note index to the class its dotted connector points at.
func attachNotes(root *goquery.Selection, notes []classNote, classes map[string]*classInfo, order []string, cfg Config) map[int]noteTarget {
	targets := map[int]noteTarget{}
	root.Find(`path.relation.edge-pattern-dotted, path[id^="edgeNote"], path.edge-thickness-normal.edge-pattern-dotted`).
		Each(func(_ int, path *goquery.Selection) {
			d, ok := path.Attr("d")
			if !ok {
				return
			}
			p := geom.ParsePath(d)
			if len(p.Points) < 2 {
				return
			}
			m := geom.CTM(path.Get(0))
			start, end := m.Apply(p.Points[0]), m.Apply(p.Points[len(p.Points)-1])

			note, noteDist := -1, math.Inf(1)
			for i, n := range notes {
				if dist := n.at.Distance(start); dist < noteDist {
					note, noteDist = i, dist
				}
			}

			target, classDist := "", math.Inf(1)
			for _, name := range order {
				if dist := classes[name].distanceTo(end, cfg.DefaultClassSize); dist < classDist {
					target, classDist = name, dist
				}
			}

			if note < 0 || target == "" || noteDist >= cfg.NoteProximity || classDist >= cfg.NoteProximity*2 {
				return
			}
			score := noteDist + classDist
			if prev, ok := targets[note]; !ok || score < prev.score {
				targets[note] = noteTarget{class: target, score: score}
			}
		})
	return targets
}

// distanceTo is the smaller of the distance to the class centre and the
// distance to its frame padded by a quarter of the width.
func (c *classInfo) distanceTo(p geom.Point, defaultSize float64) float64 {
	w, h := c.width, c.height
	if w == 0 {
		w = defaultSize
	}
	if h == 0 {
		h = defaultSize
	}
	frame := geom.Box{Left: c.center.X - w/2, Top: c.center.Y - h/2, Right: c.center.X + w/2, Bottom: c.center.Y + h/2}
	return math.Min(c.center.Distance(p), frame.DistanceTo(p)+w/4)
}

// splitRelationID splits "id_<from>_<to>_<n>" at the first underscore that
// leaves a known class on both sides.
func splitRelationID(id string, classes map[string]*classInfo) (from, to string, ok bool) {
	if !strings.HasPrefix(id, "id_") {
		return "", "", false
	}
	parts := strings.Split(relationIndexRe.ReplaceAllString(id[3:], ""), "_")
	for i := 1; i < len(parts); i++ {
		from, to = strings.Join(parts[:i], "_"), strings.Join(parts[i:], "_")
		if classes[from] != nil && classes[to] != nil {
			return from, to, true
		}
	}
	return "", "", false
}

func isDashedRelation(class string) bool {
	return strings.Contains(class, "dashed") || strings.Contains(class, "dotted")
}

// classRelation maps the relation's markers and line style to Mermaid
// syntax. Start markers are checked before end markers within each family.
func classRelation(from, to, start, end string, dashed bool) string {
	line := "--"
	if dashed {
		line = ".."
	}
	switch {
	case strings.Contains(start, "extensionStart"):
		return fmt.Sprintf("%s <|%s %s", from, line, to)
	case strings.Contains(end, "extensionEnd"):
		return fmt.Sprintf("%s <|%s %s", to, line, from)

	case strings.Contains(start, "lollipopStart"), strings.Contains(start, "implementStart"):
		return fmt.Sprintf("%s ..|> %s", to, from)
	case strings.Contains(end, "implementEnd"), strings.Contains(end, "lollipopEnd"),
		strings.Contains(end, "interfaceEnd") && dashed:
		return fmt.Sprintf("%s ..|> %s", from, to)

	case strings.Contains(start, "compositionStart"):
		return fmt.Sprintf("%s *%s %s", from, line, to)
	case strings.Contains(end, "compositionEnd"),
		strings.Contains(end, "diamondEnd") && strings.Contains(end, "filled"):
		return fmt.Sprintf("%s *%s %s", to, line, from)

	case strings.Contains(start, "aggregationStart"):
		return fmt.Sprintf("%s %so %s", to, line, from)
	case strings.Contains(end, "aggregationEnd"), strings.Contains(end, "diamondEnd"):
		return fmt.Sprintf("%s o%s %s", from, line, to)

	case strings.Contains(start, "dependencyStart"):
		return fmt.Sprintf("%s <%s %s", to, line, from)
	case strings.Contains(end, "dependencyEnd"):
		return fmt.Sprintf("%s %s> %s", from, line, to)

	case strings.Contains(start, "arrowStart"), strings.Contains(start, "openStart"):
		return fmt.Sprintf("%s <%s %s", to, line, from)
	case strings.Contains(end, "arrowEnd"), strings.Contains(end, "openEnd"):
		return fmt.Sprintf("%s %s> %s", from, line, to)
	}
	// Plain link, or markers nothing above recognises.
	return fmt.Sprintf("%s %s %s", from, line, to)
}
