package transcribe

import (
	"strings"

	"github.com/philipz/deepwiki-md-chrome-extension/core/diagram"
	"github.com/philipz/deepwiki-md-chrome-extension/core/langdetect"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// codeBlock renders <pre>. A rendered diagram inside it is replaced by the
// reconstructed Mermaid source; when reconstruction fails the block falls
// back to its raw text like any other code block.
type codeBlock struct{}

func (codeBlock) format(t *Transcriber, n *html.Node) string {
	if svg := diagram.FindSVG(n); svg != nil {
		if out, ok := diagram.Reconstruct(svg, t.diagrams); ok {
			return "\n" + out + "\n\n"
		}
		t.logger.Debug("diagram not reconstructed, using raw text",
			zap.String("id", attr(svg, "id")),
			zap.String("roledescription", attr(svg, "aria-roledescription")))
	}

	var text, lang string
	if code := selection(n).Find("code").First(); code.Length() > 0 {
		text = codeText(code.Get(0))
		lang = languageClass(code.Get(0))
	} else {
		text = codeText(n)
	}
	if lang == "" {
		lang = languageClass(n)
	}
	if lang == "" && strings.TrimSpace(text) != "" {
		lang = langdetect.Detect(text)
	}
	return "```" + lang + "\n" + strings.TrimSpace(text) + "\n```\n\n"
}

// languageClass returns the suffix of the first language-* class on n.
func languageClass(n *html.Node) string {
	for _, c := range classes(n) {
		if lang, ok := strings.CutPrefix(c, "language-"); ok {
			return lang
		}
	}
	return ""
}
