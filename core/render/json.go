// JSON renderer.
// Builds the structured JSON output from Markdown and page metadata.
// The Markdown is parsed with goldmark, so headings inside code blocks are
// not mistaken for sections and reconstructed diagrams are reported with
// their kind.

package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/philipz/deepwiki-md-chrome-extension/core"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// diagramKinds maps the first keyword of a Mermaid block to its kind.
var diagramKinds = map[string]string{
	"flowchart":       "flowchart",
	"graph":           "flowchart",
	"classDiagram":    "class",
	"sequenceDiagram": "sequence",
	"stateDiagram":    "state",
	"stateDiagram-v2": "state",
}

// JSONRenderer produces structured JSON output from Markdown.
type JSONRenderer struct {
	md goldmark.Markdown
}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{
		md: goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

// Render converts Markdown and metadata into the specified JSON structure.
func (r *JSONRenderer) Render(markdown string, meta core.PageMetadata) ([]byte, error) {
	src := []byte(markdown)
	doc := r.md.Parser().Parse(text.NewReader(src))

	structure, err := analyze(doc, src)
	if err != nil {
		return nil, fmt.Errorf("analyzing markdown: %w", err)
	}

	page := core.PageJSON{
		Metadata: meta,
		Content: core.PageContent{
			Text:     plainText(doc, src),
			Markdown: markdown,
			Sections: buildSections(doc, src),
		},
		Structure: structure,
	}

	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}

// analyze collects headings, links, code blocks, diagrams, tables and
// lists in document order.
func analyze(doc ast.Node, src []byte) (core.PageStructure, error) {
	s := core.PageStructure{
		Headings:   []core.Heading{},
		Links:      []core.Link{},
		CodeBlocks: []core.CodeBlock{},
		Diagrams:   []core.Diagram{},
	}
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			s.Headings = append(s.Headings, core.Heading{Level: node.Level, Text: inlineText(node, src)})
		case *ast.Link:
			s.Links = append(s.Links, core.Link{Text: inlineText(node, src), Href: string(node.Destination)})
		case *ast.AutoLink:
			url := string(node.URL(src))
			s.Links = append(s.Links, core.Link{Text: url, Href: url})
		case *ast.FencedCodeBlock:
			lang := string(node.Language(src))
			if lang == "mermaid" {
				body := blockLines(node, src)
				s.Diagrams = append(s.Diagrams, core.Diagram{Kind: diagramKind(body), Source: strings.TrimSpace(body)})
				return ast.WalkSkipChildren, nil
			}
			s.CodeBlocks = append(s.CodeBlocks, core.CodeBlock{Language: lang, Lines: node.Lines().Len()})
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			s.CodeBlocks = append(s.CodeBlocks, core.CodeBlock{Lines: node.Lines().Len()})
			return ast.WalkSkipChildren, nil
		case *extast.Table:
			s.Tables++
		case *ast.List:
			s.Lists++
		}
		return ast.WalkContinue, nil
	})
	return s, err
}

func diagramKind(source string) string {
	for _, line := range strings.Split(source, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if kind, ok := diagramKinds[fields[0]]; ok {
			return kind
		}
		return "unknown"
	}
	return "unknown"
}

// buildSections splits the Markdown at top-level headings. Each section's
// text is the source between its heading line and the next heading.
func buildSections(doc ast.Node, src []byte) []core.Section {
	type mark struct {
		heading    *ast.Heading
		start, end int // byte range of the heading line
	}
	var marks []mark
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		h, ok := c.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		seg := h.Lines().At(0)
		start := bytes.LastIndexByte(src[:seg.Start], '\n') + 1
		end := len(src)
		if i := bytes.IndexByte(src[seg.Stop:], '\n'); i >= 0 {
			end = seg.Stop + i
		}
		marks = append(marks, mark{h, start, end})
	}
	if len(marks) == 0 {
		return nil
	}

	sections := make([]core.Section, 0, len(marks))
	for i, m := range marks {
		stop := len(src)
		if i+1 < len(marks) {
			stop = marks[i+1].start
		}
		body := ""
		if m.end < stop {
			body = strings.TrimSpace(string(src[m.end:stop]))
		}
		sections = append(sections, core.Section{
			Heading: inlineText(m.heading, src),
			Level:   m.heading.Level,
			Text:    body,
		})
	}
	return sections
}

// inlineText is the plain text of an inline container such as a heading.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.AutoLink:
			b.Write(t.URL(src))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// plainText strips all Markdown syntax, keeping one line per block.
func plainText(doc ast.Node, src []byte) string {
	var b strings.Builder
	newline := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				newline()
			}
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.AutoLink:
			b.Write(t.URL(src))
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			newline()
			b.WriteString(blockLines(n, src))
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.Heading, *ast.ThematicBreak:
			if n.PreviousSibling() != nil {
				newline()
				b.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(blankRunRe.ReplaceAllString(b.String(), "\n\n"))
}

func blockLines(n ast.Node, src []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}
