package diagram

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/philipz/deepwiki-md-chrome-extension/core/diagram/geom"
)

// safeIDRe matches names usable as bare Mermaid identifiers.
var safeIDRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var blockKinds = map[string]bool{
	"loop": true, "alt": true, "opt": true, "par": true,
	"critical": true, "break": true, "rect": true,
}

type seqParticipant struct {
	name string
	id   string
	x    float64
}

type seqText struct {
	text string
	x, y float64
}

type seqLine struct {
	x1, y1, x2, y2 float64
	dashed         bool
	self           bool
}

type seqMessage struct {
	from, to string
	text     string
	arrow    string
	y        float64
}

type seqNote struct {
	target string
	text   string
	y      float64
}

type seqDivider struct {
	y         float64
	condition string
}

type seqBlock struct {
	kind      string
	condition string
	box       geom.Box
	dividers  []seqDivider
}

type seqEventKind int

const (
	eventMessage seqEventKind = iota
	eventNote
	eventBlockStart
	eventDivider
	eventBlockEnd
)

type seqEvent struct {
	kind    seqEventKind
	y       float64
	message seqMessage
	note    seqNote
	block   *seqBlock
	divider seqDivider
}

// SequenceDiagram reconstructs participants, messages, notes and
// loop/alt/opt/par/critical/break/rect blocks.
func SequenceDiagram(svg *html.Node, cfg Config) (string, bool) {
	if svg == nil {
		return "", false
	}
	root := selection(svg)

	participants := parseParticipants(root, cfg)
	notes := parseSeqNotes(root, participants)
	messages := parseMessages(root, participants, cfg)
	blocks := parseBlocks(root, cfg)

	if len(participants) == 0 && len(messages) == 0 {
		return "", false
	}
	cfg.trace("sequence diagram parsed",
		zap.Int("participants", len(participants)),
		zap.Int("messages", len(messages)),
		zap.Int("notes", len(notes)),
		zap.Int("blocks", len(blocks)))
	return fence(renderSequence(participants, messages, notes, blocks)), true
}

// parseParticipants reads actor labels. Consecutive labels stacked at the
// same x form one multi-line name; the copy drawn at the bottom of the
// diagram collapses into the first by name.
func parseParticipants(root *goquery.Selection, cfg Config) []seqParticipant {
	type actorLine struct {
		text string
		x, y float64
	}
	var groups [][]actorLine
	root.Find("text.actor-box").Each(func(_ int, s *goquery.Selection) {
		text := strings.Trim(strings.TrimSpace(s.Text()), `"`)
		x, ok := geom.FloatAttr(s.Get(0), "x")
		if text == "" || !ok {
			return
		}
		y, _ := geom.FloatAttr(s.Get(0), "y")
		line := actorLine{text: text, x: x, y: y}
		if n := len(groups); n > 0 {
			last := groups[n-1][len(groups[n-1])-1]
			if gap := y - last.y; math.Abs(last.x-x) <= 1 && gap > 0 && gap <= cfg.ParticipantLineGap {
				groups[n-1] = append(groups[n-1], line)
				return
			}
		}
		groups = append(groups, []actorLine{line})
	})

	var all []seqParticipant
	for _, g := range groups {
		parts := make([]string, len(g))
		for i, l := range g {
			parts[i] = l.text
		}
		all = append(all, seqParticipant{name: strings.Join(parts, "<br/>"), x: g[0].x})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].x < all[j].x })

	var unique []seqParticipant
	seen := map[string]bool{}
	taken := map[string]bool{}
	for _, p := range all {
		if seen[p.name] {
			continue
		}
		seen[p.name] = true
		if safeIDRe.MatchString(p.name) {
			taken[p.name] = true
		}
		unique = append(unique, p)
	}

	// Aliases skip every name already used verbatim.
	next := 0
	for i := range unique {
		unique[i].id = unique[i].name
		if !safeIDRe.MatchString(unique[i].name) {
			unique[i].id = freeAlias("p", taken, &next)
		}
	}
	return unique
}

func parseSeqNotes(root *goquery.Selection, participants []seqParticipant) []seqNote {
	var notes []seqNote
	root.Find("rect.note").Each(func(_ int, rect *goquery.Selection) {
		var lines []string
		rect.Parent().Find("text.noteText").Each(func(_ int, t *goquery.Selection) {
			if txt := strings.TrimSpace(t.Text()); txt != "" {
				lines = append(lines, txt)
			}
		})
		if len(lines) == 0 {
			return
		}
		x, ok := geom.FloatAttr(rect.Get(0), "x")
		if !ok {
			return
		}
		width, _ := geom.FloatAttr(rect.Get(0), "width")
		y, _ := geom.FloatAttr(rect.Get(0), "y")

		var covered []seqParticipant
		for _, p := range participants {
			if p.x >= x && p.x <= x+width {
				covered = append(covered, p)
			}
		}
		if len(covered) == 0 {
			return
		}
		target := covered[0].id
		if len(covered) > 1 {
			target += "," + covered[len(covered)-1].id
		}
		notes = append(notes, seqNote{target: target, text: strings.Join(lines, "<br/>"), y: y})
	})
	return notes
}

func parseMessages(root *goquery.Selection, participants []seqParticipant, cfg Config) []seqMessage {
	var texts []seqText
	root.Find("text.messageText").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		y, ok := geom.FloatAttr(s.Get(0), "y")
		if text == "" || !ok {
			return
		}
		x, _ := geom.FloatAttr(s.Get(0), "x")
		texts = append(texts, seqText{text: text, x: x, y: y})
	})
	sort.SliceStable(texts, func(i, j int) bool { return texts[i].y < texts[j].y })

	var lines []seqLine
	root.Find("line.messageLine0, line.messageLine1").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		x1, ok1 := geom.FloatAttr(n, "x1")
		y1, ok2 := geom.FloatAttr(n, "y1")
		x2, ok3 := geom.FloatAttr(n, "x2")
		y2, ok4 := geom.FloatAttr(n, "y2")
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return
		}
		lines = append(lines, seqLine{x1: x1, y1: y1, x2: x2, y2: y2, dashed: s.HasClass("messageLine1")})
	})
	root.Find("path.messageLine0, path.messageLine1").Each(func(_ int, s *goquery.Selection) {
		p := geom.ParsePath(s.AttrOr("d", ""))
		start, ok1 := p.Start()
		end, ok2 := p.End()
		if !ok1 || !ok2 || math.Abs(start.X-end.X) >= cfg.SelfMessageDistance {
			return
		}
		lines = append(lines, seqLine{
			x1: start.X, y1: start.Y, x2: end.X, y2: end.Y,
			dashed: s.HasClass("messageLine1"),
			self:   true,
		})
	})
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y1 < lines[j].y1 })

	labels := pairMessageTexts(texts, lines)

	var messages []seqMessage
	for i, line := range lines {
		if labels[i] == "" {
			continue
		}
		from := nearestParticipant(participants, line.x1)
		to := from
		if !line.self {
			to = nearestParticipant(participants, line.x2)
		}
		if from == "" || to == "" {
			continue
		}
		arrow := "->>"
		if line.dashed {
			arrow = "-->>"
		}
		messages = append(messages, seqMessage{from: from, to: to, text: labels[i], arrow: arrow, y: line.y1})
	}
	return messages
}

// pairMessageTexts returns the label of every line. Matching counts pair by
// index. Otherwise each text goes to the line nearest its position and texts
// sharing a line are joined top to bottom; lines left without text get "".
func pairMessageTexts(texts []seqText, lines []seqLine) []string {
	labels := make([]string, len(lines))
	if len(texts) == len(lines) {
		for i := range lines {
			labels[i] = texts[i].text
		}
		return labels
	}
	if len(lines) == 0 {
		return labels
	}
	assigned := make([][]string, len(lines))
	for _, t := range texts {
		best, cost := 0, math.Inf(1)
		for i, l := range lines {
			c := math.Abs(t.x-(l.x1+l.x2)/2) + math.Abs(t.y-l.y1)
			if c < cost {
				best, cost = i, c
			}
		}
		assigned[best] = append(assigned[best], t.text)
	}
	for i, parts := range assigned {
		labels[i] = strings.Join(parts, "<br/>")
	}
	return labels
}

func nearestParticipant(participants []seqParticipant, x float64) string {
	id, best := "", math.Inf(1)
	for _, p := range participants {
		if d := math.Abs(p.x - x); d < best {
			id, best = p.id, d
		}
	}
	return id
}

type loopLine struct {
	x1, y1, x2, y2 float64
	dashed         bool
}

func (l loopLine) touches(o loopLine, tol float64) bool {
	near := func(ax, ay, bx, by float64) bool {
		return math.Abs(ax-bx) < tol && math.Abs(ay-by) < tol
	}
	return near(l.x1, l.y1, o.x1, o.y1) || near(l.x1, l.y1, o.x2, o.y2) ||
		near(l.x2, l.y2, o.x1, o.y1) || near(l.x2, l.y2, o.x2, o.y2)
}

// parseBlocks groups loopLine segments into frames by shared endpoints and
// reads each frame's keyword, condition and branch dividers.
func parseBlocks(root *goquery.Selection, cfg Config) []*seqBlock {
	var lines []loopLine
	root.Find("line.loopLine").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		x1, ok1 := geom.FloatAttr(n, "x1")
		y1, ok2 := geom.FloatAttr(n, "y1")
		x2, ok3 := geom.FloatAttr(n, "x2")
		y2, ok4 := geom.FloatAttr(n, "y2")
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return
		}
		dashed := strings.Contains(s.AttrOr("style", ""), "stroke-dasharray") || s.AttrOr("stroke-dasharray", "") != ""
		lines = append(lines, loopLine{x1: x1, y1: y1, x2: x2, y2: y2, dashed: dashed})
	})

	var texts []seqText
	root.Find(".loopText, .labelText").Each(func(_ int, s *goquery.Selection) {
		x, okX := geom.FloatAttr(s.Get(0), "x")
		y, okY := geom.FloatAttr(s.Get(0), "y")
		if okX && okY {
			texts = append(texts, seqText{text: strings.TrimSpace(s.Text()), x: x, y: y})
		}
	})

	var blocks []*seqBlock
	done := make([]bool, len(lines))
	for i := range lines {
		if done[i] {
			continue
		}
		group := connectedLines(lines, i, done, cfg.LineTolerance)
		if len(group) < 4 {
			continue
		}
		b := &seqBlock{kind: "loop", box: frameBox(group)}
		inside := blockTexts(texts, b.box, cfg.RowTolerance)
		if len(inside) > 0 {
			if first := inside[0].text; blockKinds[first] {
				b.kind = first
				if len(inside) > 1 {
					b.condition = inside[1].text
				}
			} else {
				b.condition = first
			}
		}
		if b.kind == "alt" || b.kind == "par" {
			b.dividers = findDividers(lines, b.box, inside, cfg)
		}
		cfg.trace("sequence block",
			zap.String("kind", b.kind), zap.String("condition", b.condition), zap.Int("dividers", len(b.dividers)))
		blocks = append(blocks, b)
	}
	return blocks
}

func connectedLines(lines []loopLine, start int, done []bool, tol float64) []loopLine {
	var group []loopLine
	stack := []int{start}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if done[i] {
			continue
		}
		done[i] = true
		group = append(group, lines[i])
		for j := range lines {
			if !done[j] && lines[i].touches(lines[j], tol) {
				stack = append(stack, j)
			}
		}
	}
	return group
}

func frameBox(group []loopLine) geom.Box {
	b := geom.Box{Left: math.Inf(1), Top: math.Inf(1), Right: math.Inf(-1), Bottom: math.Inf(-1)}
	for _, l := range group {
		b.Left = math.Min(b.Left, math.Min(l.x1, l.x2))
		b.Right = math.Max(b.Right, math.Max(l.x1, l.x2))
		b.Top = math.Min(b.Top, math.Min(l.y1, l.y2))
		b.Bottom = math.Max(b.Bottom, math.Max(l.y1, l.y2))
	}
	return b
}

// blockTexts returns the labels inside box ordered top to bottom, then left
// to right within a row.
func blockTexts(texts []seqText, box geom.Box, rowTol float64) []seqText {
	var inside []seqText
	for _, t := range texts {
		if t.x >= box.Left && t.x <= box.Right && t.y >= box.Top && t.y <= box.Bottom {
			inside = append(inside, t)
		}
	}
	sort.SliceStable(inside, func(i, j int) bool {
		a, b := inside[i], inside[j]
		if math.Abs(a.y-b.y) < rowTol {
			return a.x < b.x
		}
		return a.y < b.y
	})
	return inside
}

func findDividers(lines []loopLine, box geom.Box, texts []seqText, cfg Config) []seqDivider {
	margin := cfg.DividerMargin
	var dividers []seqDivider
	for _, l := range lines {
		if !l.dashed || math.Abs(l.y1-l.y2) >= 1 {
			continue
		}
		if l.y1 <= box.Top+margin || l.y1 >= box.Bottom-margin {
			continue
		}
		if math.Min(l.x1, l.x2) < box.Left-margin || math.Max(l.x1, l.x2) > box.Right+margin {
			continue
		}
		d := seqDivider{y: l.y1}
		for _, t := range texts {
			if t.y > l.y1 && t.y < l.y1+cfg.DividerLookahead {
				d.condition = t.text
				break
			}
		}
		dividers = append(dividers, d)
	}
	sort.SliceStable(dividers, func(i, j int) bool { return dividers[i].y < dividers[j].y })
	return dividers
}

func renderSequence(participants []seqParticipant, messages []seqMessage, notes []seqNote, blocks []*seqBlock) string {
	var b strings.Builder
	b.WriteString("sequenceDiagram\n")
	for _, p := range participants {
		if p.id == p.name {
			fmt.Fprintf(&b, "  participant %s\n", p.name)
		} else {
			fmt.Fprintf(&b, "  participant %s as \"%s\"\n", p.id, quoteSafe(p.name))
		}
	}
	b.WriteString("\n")

	var events []seqEvent
	for _, m := range messages {
		events = append(events, seqEvent{kind: eventMessage, y: m.y, message: m})
	}
	for _, n := range notes {
		events = append(events, seqEvent{kind: eventNote, y: n.y, note: n})
	}
	for _, blk := range blocks {
		events = append(events, seqEvent{kind: eventBlockStart, y: blk.box.Top - 1, block: blk})
		for _, d := range blk.dividers {
			events = append(events, seqEvent{kind: eventDivider, y: d.y, block: blk, divider: d})
		}
		events = append(events, seqEvent{kind: eventBlockEnd, y: blk.box.Bottom + 1, block: blk})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].y < events[j].y })

	depth := 0
	indent := func() string { return strings.Repeat("  ", depth+1) }
	withCondition := func(word, cond string) string {
		if cond == "" {
			return word
		}
		return word + " " + cond
	}
	for _, e := range events {
		switch e.kind {
		case eventBlockStart:
			b.WriteString(indent() + withCondition(e.block.kind, e.block.condition) + "\n")
			depth++
		case eventDivider:
			if depth == 0 {
				continue
			}
			word := "else"
			if e.block.kind == "par" {
				word = "and"
			}
			depth--
			b.WriteString(indent() + withCondition(word, e.divider.condition) + "\n")
			depth++
		case eventBlockEnd:
			if depth == 0 {
				continue
			}
			depth--
			b.WriteString(indent() + "end\n")
		case eventNote:
			fmt.Fprintf(&b, "%snote over %s: %s\n", indent(), e.note.target, e.note.text)
		case eventMessage:
			m := e.message
			fmt.Fprintf(&b, "%s%s%s%s: %s\n", indent(), m.from, m.arrow, m.to, m.text)
		}
	}
	for ; depth > 0; depth-- {
		b.WriteString(strings.Repeat("  ", depth) + "end\n")
	}
	return b.String()
}
