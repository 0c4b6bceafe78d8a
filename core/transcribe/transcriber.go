// Package transcribe turns a rendered documentation DOM into Markdown.
//
// The walk is depth-first over the content container. Every element is
// dispatched to a formatter chosen by its tag; unknown tags are treated as
// generic containers. Code blocks that hold a rendered diagram are handed
// to the diagram package, and its Mermaid source replaces the SVG.
package transcribe

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/philipz/deepwiki-md-chrome-extension/core/diagram"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// formatter renders one element kind. Implementations recurse through the
// Transcriber so that every descendant gets the same failure isolation.
type formatter interface {
	format(t *Transcriber, n *html.Node) string
}

// Transcriber converts DOM subtrees to Markdown. It holds no per-call state
// and may be shared between goroutines.
type Transcriber struct {
	logger     *zap.Logger
	diagrams   diagram.Config
	formatters map[atom.Atom]formatter
}

// Option configures a Transcriber.
type Option func(*Transcriber)

// WithLogger sets the logger used for element failures and diagram fallbacks.
func WithLogger(l *zap.Logger) Option {
	return func(t *Transcriber) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithDiagramConfig sets the tolerances passed to the diagram reconstructors.
func WithDiagramConfig(cfg diagram.Config) Option {
	return func(t *Transcriber) {
		t.diagrams = cfg
	}
}

// New creates a Transcriber.
func New(opts ...Option) *Transcriber {
	diagrams := diagram.DefaultConfig()
	diagrams.Logger = nil
	t := &Transcriber{
		logger:     zap.NewNop(),
		diagrams:   diagrams,
		formatters: defaultFormatters(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.diagrams.Logger == nil {
		t.diagrams.Logger = t.logger
	}
	return t
}

func defaultFormatters() map[atom.Atom]formatter {
	silent := silentFormatter{}
	return map[atom.Atom]formatter{
		atom.H1: heading{1}, atom.H2: heading{2}, atom.H3: heading{3},
		atom.H4: heading{4}, atom.H5: heading{5}, atom.H6: heading{6},
		atom.P:          paragraph{},
		atom.Ul:         list{},
		atom.Ol:         list{ordered: true},
		atom.Pre:        codeBlock{},
		atom.A:          anchor{},
		atom.Img:        image{},
		atom.Blockquote: blockquote{},
		atom.Hr:         rule{},
		atom.Strong:     emphasis{"**"},
		atom.B:          emphasis{"**"},
		atom.Em:         emphasis{"*"},
		atom.I:          emphasis{"*"},
		atom.Code:       inlineCode{},
		atom.Br:         lineBreak{},
		atom.Table:      table{},
		atom.Details:    details{},
		atom.Thead:      silent,
		atom.Tbody:      silent,
		atom.Tfoot:      silent,
		atom.Tr:         silent,
		atom.Th:         silent,
		atom.Td:         silent,
		atom.Summary:    silent,
	}
}

// Transcribe converts the children of root to Markdown. Runs of blank lines
// are collapsed to one and the result is trimmed.
func (t *Transcriber) Transcribe(root *html.Node) string {
	if root == nil {
		return ""
	}
	md := strings.TrimSpace(t.children(root))
	return blankRunRe.ReplaceAllString(md, "\n\n")
}

// children concatenates the Markdown of every child of n.
func (t *Transcriber) children(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(t.visit(c))
	}
	return b.String()
}

// visit renders a single node. A panic while formatting an element is
// contained here and replaced by a visible placeholder so the rest of the
// page still comes out.
func (t *Transcriber) visit(n *html.Node) (out string) {
	switch n.Type {
	case html.TextNode:
		return n.Data
	case html.ElementNode:
	default:
		return ""
	}

	if n.DataAtom != atom.Details && n.DataAtom != atom.Summary && hidden(n) {
		return ""
	}
	if skipped(n) {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			t.logger.Warn("element transcription failed",
				zap.String("tag", n.Data), zap.String("panic", fmt.Sprint(r)))
			out = placeholder(n)
		}
	}()

	f, ok := t.formatters[n.DataAtom]
	if !ok {
		f = container{}
	}
	return f.format(t, n)
}

func placeholder(n *html.Node) string {
	return fmt.Sprintf("\n[ERROR_PROCESSING_ELEMENT: %s]\n\n", strings.ToUpper(n.Data))
}
