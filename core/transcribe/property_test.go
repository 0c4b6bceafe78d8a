package transcribe

import (
	"strconv"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"golang.org/x/net/html"
)

// word generates ASCII words that cannot turn a list into a source list.
// The leading x keeps "source" from forming across adjacent words.
func word() gopter.Gen {
	return gen.AlphaString().Map(func(s string) string {
		return "x" + s
	}).SuchThat(func(s string) bool {
		return !strings.Contains(strings.ToLower(s), "source")
	})
}

func parseBody(markup string) *html.Node {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}
	return doc.Find("body").Get(0)
}

func TestTranscriberProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)
	tr := New()

	properties.Property("transcription is deterministic and normalised", prop.ForAll(
		func(title, text string, items []string) bool {
			markup := "<h2>" + title + "</h2><p>" + text + "</p><ul><li>" + strings.Join(items, "</li><li>") + "</li></ul>"
			root := parseBody(markup)
			first := tr.Transcribe(root)
			second := tr.Transcribe(root)
			return first == second &&
				first == strings.TrimSpace(first) &&
				!strings.Contains(first, "\n\n\n")
		},
		word(), word(), gen.SliceOf(word()),
	))

	properties.Property("a heading renders as hashes and its text", prop.ForAll(
		func(level int, text string) bool {
			tag := "h" + strconv.Itoa(level)
			md := tr.Transcribe(parseBody("<" + tag + ">  " + text + " </" + tag + ">"))
			return md == strings.Repeat("#", level)+" "+text
		},
		gen.IntRange(1, 6), word(),
	))

	properties.Property("lists number only emitted items", prop.ForAll(
		func(items []string, ordered bool) bool {
			tag := "ul"
			if ordered {
				tag = "ol"
			}
			// Interleave empty items; they must not affect the output.
			markup := "<" + tag + "><li></li><li>" + strings.Join(items, "</li><li></li><li>") + "</li></" + tag + ">"
			list := parseBody(markup).FirstChild

			var want strings.Builder
			for i, it := range items {
				if ordered {
					want.WriteString(strconv.Itoa(i+1) + ". ")
				} else {
					want.WriteString("* ")
				}
				want.WriteString(it + "\n")
			}
			want.WriteString("\n")
			return tr.visit(list) == want.String()
		},
		gen.SliceOf(word()).SuchThat(func(items []string) bool { return len(items) > 0 }),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
