package transcribe

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	lineAnchorRe     = regexp.MustCompile(`#L(\d+)(?:-L(\d+))?$`)
	sourcesRe        = regexp.MustCompile(`^Sources:\s+\[(.*)\]$`)
	filenameHintRe   = regexp.MustCompile(`^[\w/.-]+(?:\.\w+)?`)
	linkablePrefixes = []string{"http", "/", "#", "mailto:"}
)

type anchor struct{}

// format renders a link. Links into source files that end in a line anchor
// (#L10 or #L10-L20) are relabelled "file L10-L20"; when the link text is a
// "Sources: [...]" citation the wrapper is kept around the new label.
func (anchor) format(t *Transcriber, n *html.Node) string {
	href := attr(n, "href")
	raw := strings.TrimSpace(t.children(n))
	text := raw
	if text == "" {
		if img := selection(n).Find("img").First(); img.Length() > 0 {
			text = img.AttrOr("alt", "")
			if text == "" {
				text = "image"
			}
		}
	}
	inline := display(n) == "inline"

	if !linkable(href) {
		if text == "" {
			text = href
		}
		if !inline && strings.TrimSpace(text) != "" {
			return text + "\n\n"
		}
		return text
	}

	if label, ok := lineLabel(href, raw); ok {
		text = label
	}
	if text = strings.TrimSpace(text); text == "" {
		text = href
	}
	out := "[" + text + "](" + href + ")"
	if !inline {
		out += "\n\n"
	}
	return out
}

func linkable(href string) bool {
	for _, p := range linkablePrefixes {
		if strings.HasPrefix(href, p) {
			return true
		}
	}
	return false
}

// lineLabel builds the display text for a link to a line range. The file
// name comes from the link text when the href path confirms it, otherwise
// from the last path segment.
func lineLabel(href, text string) (string, bool) {
	m := lineAnchorRe.FindStringSubmatch(href)
	if m == nil {
		return "", false
	}
	path := href[:strings.Index(href, "#")]
	name := path[strings.LastIndex(path, "/")+1:]
	if name == "" {
		name = "link"
	}

	hintSource := text
	sources := strings.HasPrefix(text, "Sources: [") && strings.HasSuffix(text, "]")
	if sources {
		if sm := sourcesRe.FindStringSubmatch(text); sm != nil && sm[1] != "" {
			hintSource = strings.TrimSpace(sm[1])
		}
	}
	if hint := filenameHintRe.FindString(hintSource); hint != "" && strings.Contains(path, hint) {
		name = hint
	}

	lines := "L" + m[1]
	if m[2] != "" && m[2] != m[1] {
		lines += "-L" + m[2]
	}

	label := name + " " + lines
	if sources {
		label = "Sources: [" + label + "]"
	}
	return label, true
}
