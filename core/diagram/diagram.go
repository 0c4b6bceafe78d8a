// Package diagram reconstructs Mermaid diagram source from rendered SVG.
//
// Each reconstructor reads one SVG subtree and returns a fenced
// ```mermaid block. The boolean result is false when the SVG holds nothing
// the reconstructor recognises; callers then fall back to the raw text of
// the enclosing code block.
package diagram

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Kind identifies a diagram family.
type Kind int

const (
	KindUnknown Kind = iota
	KindFlowchart
	KindClass
	KindSequence
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindFlowchart:
		return "flowchart"
	case KindClass:
		return "class"
	case KindSequence:
		return "sequence"
	case KindState:
		return "state"
	}
	return "unknown"
}

// Reconstructor turns one rendered diagram SVG into fenced Mermaid source.
type Reconstructor func(svg *html.Node, cfg Config) (string, bool)

var reconstructors = map[Kind]Reconstructor{
	KindFlowchart: Flowchart,
	KindClass:     ClassDiagram,
	KindSequence:  SequenceDiagram,
	KindState:     StateDiagram,
}

// FindSVG returns the rendered diagram inside n, if any.
func FindSVG(n *html.Node) *html.Node {
	s := selection(n)
	if svg := s.Find(`svg[id^="mermaid-"]`).First(); svg.Length() > 0 {
		return svg.Get(0)
	}
	if svg := s.Find(`svg[aria-roledescription]`).First(); svg.Length() > 0 {
		return svg.Get(0)
	}
	return nil
}

// FindAll returns every rendered diagram below n in document order.
func FindAll(n *html.Node) []*html.Node {
	return selection(n).Find(`svg[id^="mermaid-"], svg[aria-roledescription]`).Nodes
}

// Detect classifies svg. The aria-roledescription attribute is checked
// before the class list, each in a fixed order.
func Detect(svg *html.Node) Kind {
	desc := attr(svg, "aria-roledescription")
	switch {
	case strings.Contains(desc, "flowchart"):
		return KindFlowchart
	case strings.Contains(desc, "class"):
		return KindClass
	case strings.Contains(desc, "sequence"):
		return KindSequence
	case strings.Contains(desc, "stateDiagram"):
		return KindState
	}

	class := attr(svg, "class")
	switch {
	case strings.Contains(class, "flowchart"):
		return KindFlowchart
	case strings.Contains(class, "classDiagram"), strings.Contains(class, "class"):
		return KindClass
	case strings.Contains(class, "sequenceDiagram"), strings.Contains(class, "sequence"):
		return KindSequence
	case strings.Contains(class, "statediagram"), strings.Contains(class, "stateDiagram"):
		return KindState
	}
	return KindUnknown
}

// Reconstruct detects the diagram kind and runs the matching reconstructor.
// A panic inside a reconstructor is reported as a failed reconstruction.
func Reconstruct(svg *html.Node, cfg Config) (out string, ok bool) {
	if svg == nil {
		return "", false
	}
	kind := Detect(svg)
	fn, found := reconstructors[kind]
	if !found {
		cfg.trace("unrecognised diagram",
			zap.String("roledescription", attr(svg, "aria-roledescription")),
			zap.String("class", attr(svg, "class")))
		return "", false
	}

	defer func() {
		if r := recover(); r != nil {
			cfg.log().Warn("diagram reconstruction failed",
				zap.Stringer("kind", kind), zap.String("panic", fmt.Sprint(r)))
			out, ok = "", false
		}
	}()

	out, ok = fn(svg, cfg)
	cfg.trace("diagram reconstructed", zap.Stringer("kind", kind), zap.Bool("ok", ok))
	return out, ok
}
