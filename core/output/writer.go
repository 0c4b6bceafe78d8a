// Package output handles file naming and writing for deepwiki-md outputs.
// A single page is written as <title>.<ext>. A batch is written either as
// one file per page, one combined Markdown file (--single) or a zip archive
// with a README.md index (--zip).
package output

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	unsafeCharsRe = regexp.MustCompile(`[\\/:*?"<>|]`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	dashRunRe     = regexp.MustCompile(`-+`)
)

// Page is one converted page of a batch.
type Page struct {
	Name    string // unique, sanitized file name without extension
	Content string
}

// Writer writes rendered output to disk.
type Writer struct {
	OutputDir string
	names     map[string]bool
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{OutputDir: outputDir, names: make(map[string]bool)}, nil
}

// SanitizeName makes value safe for use as a file name. Path and shell
// metacharacters and whitespace become dashes, dash runs collapse and edge
// dashes are trimmed. An empty result yields fallback.
func SanitizeName(value, fallback string) string {
	value = unsafeCharsRe.ReplaceAllString(value, "-")
	value = whitespaceRe.ReplaceAllString(value, "-")
	value = dashRunRe.ReplaceAllString(value, "-")
	value = strings.TrimPrefix(value, "-")
	value = strings.TrimSuffix(value, "-")
	if value == "" {
		return fallback
	}
	return value
}

// UniqueName sanitizes desired and suffixes it with -1, -2, ... until it
// differs from every name this Writer handed out before.
func (w *Writer) UniqueName(desired string) string {
	base := SanitizeName(desired, "page")
	candidate := base
	for i := 1; w.names[candidate]; i++ {
		candidate = base + "-" + strconv.Itoa(i)
	}
	w.names[candidate] = true
	return candidate
}

// Write writes data as <name><ext> in the output directory.
func (w *Writer) Write(name string, data []byte, ext string) (string, error) {
	path := filepath.Join(w.OutputDir, SanitizeName(name, "page")+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	return path, nil
}

// BundleName is the file name of a combined batch: the head title (or the
// current page title) followed by the last-indexed date when known.
func BundleName(headTitle, currentTitle, lastIndexed string) string {
	title := headTitle
	if title == "" {
		title = currentTitle
	}
	name := SanitizeName(title, "deepwiki")
	if date := SanitizeName(lastIndexed, ""); date != "" {
		name += "-" + date
	}
	return name
}

// Combine joins pages into one Markdown document, each page under a
// top-level heading and separated by horizontal rules.
func Combine(pages []Page) string {
	var b strings.Builder
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&b, "# %s\n\n", p.Name)
		b.WriteString(p.Content)
	}
	return b.String()
}

// WriteSingle writes all pages as one Markdown file named <name>.md.
func (w *Writer) WriteSingle(name string, pages []Page) (string, error) {
	return w.Write(name, []byte(Combine(pages)), ".md")
}

// WriteZip writes <folder>.zip holding one Markdown file per page and a
// README.md linking to each of them.
func (w *Writer) WriteZip(folder string, pages []Page) (string, error) {
	folder = SanitizeName(folder, "deepwiki")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	index := fmt.Sprintf("# %s\n\n## Content Index\n\n", folder)
	for _, p := range pages {
		index += fmt.Sprintf("- [%s](%s.md)\n", p.Name, p.Name)
		if err := addFile(zw, p.Name+".md", p.Content); err != nil {
			return "", err
		}
	}
	if err := addFile(zw, "README.md", index); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("closing archive: %w", err)
	}

	return w.Write(folder, buf.Bytes(), ".zip")
}

func addFile(zw *zip.Writer, name, content string) error {
	f, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("adding %s to archive: %w", name, err)
	}
	if _, err := f.Write([]byte(content)); err != nil {
		return fmt.Errorf("writing %s to archive: %w", name, err)
	}
	return nil
}
