// Package normalize implements the Normalizer interface.
// It converts a page's content container into Markdown, which serves as the
// canonical intermediate format for all downstream renderers. Two engines
// are available: the DeepWiki-aware transcriber and a generic
// html-to-markdown conversion.
package normalize

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/philipz/deepwiki-md-chrome-extension/core/diagram"
	"github.com/philipz/deepwiki-md-chrome-extension/core/transcribe"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TranscriberNormalizer converts content with the DeepWiki transcriber.
type TranscriberNormalizer struct {
	transcriber *transcribe.Transcriber
}

// New creates a TranscriberNormalizer.
func New(t *transcribe.Transcriber) *TranscriberNormalizer {
	if t == nil {
		t = transcribe.New()
	}
	return &TranscriberNormalizer{transcriber: t}
}

// Normalize transcribes the content container into Markdown.
func (n *TranscriberNormalizer) Normalize(content *html.Node) (string, error) {
	if content == nil {
		return "", fmt.Errorf("no content to normalize")
	}
	return n.transcriber.Transcribe(content), nil
}

// noiseSelectors are removed before a generic conversion.
// These contribute no meaningful content to the page text.
var noiseSelectors = []string{
	"script", "style", "noscript",
	"nav", "footer", "header", "aside",
	"iframe", "video", "audio", "canvas",
	"form", "button", "input", "select", "textarea",
	`[role="button"]`, ".bg-input-dark",
}

// GenericNormalizer converts HTML to Markdown using html-to-markdown.
// Rendered diagrams are reconstructed first and handed to the converter as
// mermaid code blocks.
type GenericNormalizer struct {
	diagrams diagram.Config
	logger   *zap.Logger
}

// NewGeneric creates a GenericNormalizer.
func NewGeneric(cfg diagram.Config, logger *zap.Logger) *GenericNormalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenericNormalizer{diagrams: cfg, logger: logger}
}

// Normalize converts a copy of the content container; the page itself is
// left untouched.
func (g *GenericNormalizer) Normalize(content *html.Node) (string, error) {
	if content == nil {
		return "", fmt.Errorf("no content to normalize")
	}
	doc := goquery.NewDocumentFromNode(content)
	clone := doc.Selection.Clone()

	g.replaceDiagrams(clone)
	for _, sel := range noiseSelectors {
		clone.Find(sel).Remove()
	}

	fragment, err := goquery.OuterHtml(clone)
	if err != nil {
		return "", fmt.Errorf("serializing content: %w", err)
	}
	markdown, err := htmltomarkdown.ConvertString(fragment)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}

// replaceDiagrams swaps every <pre> holding a reconstructable diagram for
// a plain mermaid code block.
func (g *GenericNormalizer) replaceDiagrams(root *goquery.Selection) {
	root.Find("pre").Each(func(_ int, pre *goquery.Selection) {
		svg := diagram.FindSVG(pre.Get(0))
		if svg == nil {
			return
		}
		out, ok := diagram.Reconstruct(svg, g.diagrams)
		if !ok {
			g.logger.Debug("diagram left as text", zap.String("id", attrOf(svg, "id")))
			return
		}
		src := strings.TrimSuffix(strings.TrimPrefix(out, "```mermaid\n"), "\n```")

		code := &html.Node{Type: html.ElementNode, DataAtom: atom.Code, Data: "code",
			Attr: []html.Attribute{{Key: "class", Val: "language-mermaid"}}}
		code.AppendChild(&html.Node{Type: html.TextNode, Data: src})
		block := &html.Node{Type: html.ElementNode, DataAtom: atom.Pre, Data: "pre"}
		block.AppendChild(code)
		pre.ReplaceWithNodes(block)
	})
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
