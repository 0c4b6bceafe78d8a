package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/philipz/deepwiki-md-chrome-extension/core/diagram"
	"github.com/philipz/deepwiki-md-chrome-extension/core/fetch"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

var diagramCmd = &cobra.Command{
	Use:   "diagram <url|file>",
	Short: "Print the Mermaid source of every diagram on a page",
	Long: `Diagram finds every rendered Mermaid SVG in a page and prints the rebuilt
source. Diagrams that cannot be rebuilt are reported on stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiagram,
}

func init() {
	rootCmd.AddCommand(diagramCmd)
}

func runDiagram(cmd *cobra.Command, args []string) error {
	result, err := fetch.New(cfg.Fetch.Timeout, cfg.Fetch.UserAgent).Fetch(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	doc, err := html.Parse(strings.NewReader(result.HTML))
	if err != nil {
		return fmt.Errorf("parsing HTML: %w", err)
	}

	rebuilt := printDiagrams(os.Stdout, os.Stderr, doc, cfg.DiagramConfig(logger))
	if rebuilt == 0 {
		return fmt.Errorf("no diagrams could be rebuilt from %s", args[0])
	}
	return nil
}

// printDiagrams writes each rebuilt diagram to out and returns how many
// were rebuilt.
func printDiagrams(out, errOut io.Writer, doc *html.Node, dc diagram.Config) int {
	svgs := diagram.FindAll(doc)
	rebuilt := 0
	for i, svg := range svgs {
		src, ok := diagram.Reconstruct(svg, dc)
		if !ok {
			fmt.Fprintf(errOut, "✗ Diagram %d/%d (%s) could not be rebuilt\n", i+1, len(svgs), diagram.Detect(svg))
			continue
		}
		if rebuilt > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, src)
		rebuilt++
	}
	return rebuilt
}
