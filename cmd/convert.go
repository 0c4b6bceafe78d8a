// convert command.
// This is the main command that orchestrates the pipeline:
// fetch → extract → normalize → render → write.
//
// It handles flag validation, renderer selection and the single page / --all
// modes, including the --single and --zip batch outputs.

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/philipz/deepwiki-md-chrome-extension/core"
	"github.com/philipz/deepwiki-md-chrome-extension/core/config"
	"github.com/philipz/deepwiki-md-chrome-extension/core/extract"
	"github.com/philipz/deepwiki-md-chrome-extension/core/fetch"
	"github.com/philipz/deepwiki-md-chrome-extension/core/normalize"
	"github.com/philipz/deepwiki-md-chrome-extension/core/output"
	"github.com/philipz/deepwiki-md-chrome-extension/core/render"
	"github.com/philipz/deepwiki-md-chrome-extension/core/transcribe"
	"github.com/philipz/deepwiki-md-chrome-extension/crawl"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Flag variables.
var (
	flagAll       bool
	flagSingle    bool
	flagZip       bool
	flagPDF       bool
	flagMarkdown  bool
	flagJSON      bool
	flagEngine    string
	flagOutputDir string
)

var convertCmd = &cobra.Command{
	Use:   "convert <url|file>",
	Short: "Convert a DeepWiki page to the specified output format",
	Long: `Convert fetches a DeepWiki page (or reads a saved copy), locates the article,
transcribes it to Markdown with its diagrams rebuilt, and writes it as Markdown,
JSON or PDF.

Examples:
  deepwiki-md convert https://deepwiki.com/owner/repo/1-overview --markdown
  deepwiki-md convert ./page.html --json --output_dir ./out
  deepwiki-md convert https://deepwiki.com/owner/repo --all --markdown --zip
  deepwiki-md convert https://deepwiki.com/owner/repo --all --markdown --single`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	// Mode flags.
	convertCmd.Flags().BoolVar(&flagAll, "all", false, "Convert every page listed in the sidebar")
	convertCmd.Flags().BoolVar(&flagSingle, "single", false, "With --all: write one combined Markdown file")
	convertCmd.Flags().BoolVar(&flagZip, "zip", false, "With --all: write a zip archive with an index")

	// Output format flags (mutually exclusive).
	convertCmd.Flags().BoolVar(&flagPDF, "pdf", false, "Output PDF")
	convertCmd.Flags().BoolVar(&flagMarkdown, "markdown", false, "Output Markdown")
	convertCmd.Flags().BoolVar(&flagJSON, "json", false, "Output structured JSON")

	convertCmd.Flags().StringVar(&flagEngine, "engine", "", "Conversion engine: transcriber or generic (default from config)")
	convertCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default from config, else current directory)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	source := args[0]

	if err := validateFlags(); err != nil {
		return err
	}
	if flagEngine != "" {
		cfg.Engine = flagEngine
	}
	if flagOutputDir != "" {
		cfg.OutputDir = flagOutputDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	renderer, err := selectRenderer()
	if err != nil {
		return err
	}

	fetcher := fetch.New(cfg.Fetch.Timeout, cfg.Fetch.UserAgent)
	extractor := extract.New()
	normalizer := newNormalizer(cfg, logger)

	writer, err := output.New(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if flagAll {
		return runAll(ctx, source, fetcher, extractor, normalizer, renderer, writer)
	}
	return runOnly(ctx, source, fetcher, extractor, normalizer, renderer, writer)
}

// newNormalizer builds the engine named in c.
func newNormalizer(c config.Config, l *zap.Logger) core.Normalizer {
	diagrams := c.DiagramConfig(l)
	if c.Engine == config.EngineGeneric {
		return normalize.NewGeneric(diagrams, l)
	}
	return normalize.New(transcribe.New(
		transcribe.WithLogger(l),
		transcribe.WithDiagramConfig(diagrams),
	))
}

// runOnly converts a single page.
func runOnly(
	ctx context.Context,
	source string,
	fetcher core.Fetcher,
	extractor core.Extractor,
	normalizer core.Normalizer,
	renderer core.Renderer,
	writer *output.Writer,
) error {
	result, page := core.Convert(ctx, source, fetcher, extractor, normalizer)
	if !result.Success {
		return fmt.Errorf("converting %s: %s", source, result.Error)
	}

	data, err := renderer.Render(result.Markdown, page.Metadata(time.Now()))
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	path, err := writer.Write(result.MarkdownTitle, data, renderer.Extension())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Written: %s\n", path)
	return nil
}

// runAll converts every page listed in the project's sidebar. Failed pages
// are reported and skipped.
func runAll(
	ctx context.Context,
	source string,
	fetcher core.Fetcher,
	extractor core.Extractor,
	normalizer core.Normalizer,
	renderer core.Renderer,
	writer *output.Writer,
) error {
	if fetch.IsRemote(source) && !crawl.IsDocPageURL(source) {
		return fmt.Errorf("not a DeepWiki project page: %s (e.g. https://deepwiki.com/org/project)", source)
	}

	fmt.Fprintf(os.Stdout, "Discovering pages from %s...\n", source)
	listing, err := crawl.Discover(ctx, source, fetcher)
	if err != nil {
		return fmt.Errorf("discovering pages: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Found %d pages to process\n", len(listing.Pages))

	var (
		pages    []output.Page
		errCount int
	)
	for i, link := range listing.Pages {
		fmt.Fprintf(os.Stdout, "[%d/%d] Processing %s\n", i+1, len(listing.Pages), link.Title)

		result, page := core.Convert(ctx, link.URL, fetcher, extractor, normalizer)
		if !result.Success {
			fmt.Fprintf(os.Stderr, "  ✗ Error: %s\n", result.Error)
			logger.Warn("page conversion failed", zap.String("url", link.URL), zap.String("error", result.Error))
			errCount++
			continue
		}

		title := result.MarkdownTitle
		if title == "" {
			title = link.Title
		}
		name := writer.UniqueName(title)

		if flagSingle || flagZip {
			pages = append(pages, output.Page{Name: name, Content: result.Markdown})
			continue
		}

		data, err := renderer.Render(result.Markdown, page.Metadata(time.Now()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "  ✗ Render error: %v\n", err)
			errCount++
			continue
		}
		path, err := writer.Write(name, data, renderer.Extension())
		if err != nil {
			fmt.Fprintf(os.Stderr, "  ✗ Write error: %v\n", err)
			errCount++
			continue
		}
		fmt.Fprintf(os.Stdout, "  ✓ Written: %s\n", path)
	}

	if errCount > 0 {
		fmt.Fprintf(os.Stderr, "\n%d/%d pages failed\n", errCount, len(listing.Pages))
	}
	if !flagSingle && !flagZip {
		return nil
	}
	if len(pages) == 0 {
		return fmt.Errorf("no pages were converted")
	}

	var path string
	if flagSingle {
		path, err = writer.WriteSingle(output.BundleName(listing.HeadTitle, listing.CurrentTitle, listing.LastIndexed), pages)
	} else {
		path, err = writer.WriteZip(output.BundleName(listing.HeadTitle, listing.CurrentTitle, ""), pages)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Written: %s\n", path)
	return nil
}

// validateFlags checks that exactly one output format is chosen and that
// the batch outputs are only combined with --all and Markdown.
func validateFlags() error {
	formatCount := 0
	for _, set := range []bool{flagPDF, flagMarkdown, flagJSON} {
		if set {
			formatCount++
		}
	}
	if formatCount == 0 {
		return fmt.Errorf("exactly one output format is required: --pdf, --markdown or --json")
	}
	if formatCount > 1 {
		return fmt.Errorf("only one output format allowed per run (got %d)", formatCount)
	}

	if flagSingle && flagZip {
		return fmt.Errorf("--single and --zip are mutually exclusive")
	}
	if (flagSingle || flagZip) && !flagAll {
		return fmt.Errorf("--single and --zip require --all")
	}
	if (flagSingle || flagZip) && !flagMarkdown {
		return fmt.Errorf("--single and --zip only support --markdown")
	}
	return nil
}

// selectRenderer creates the appropriate Renderer based on flags.
func selectRenderer() (core.Renderer, error) {
	switch {
	case flagMarkdown:
		return render.NewMarkdownRenderer(), nil
	case flagJSON:
		return render.NewJSONRenderer(), nil
	case flagPDF:
		return render.NewPDFRenderer(), nil
	default:
		return nil, fmt.Errorf("no output format selected")
	}
}
