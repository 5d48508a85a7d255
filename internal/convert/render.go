// Copyright dertuxmalwieder, 2026. Licensed under the CDDL-1.1.

package convert

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"go.yaml.in/yaml/v3"

	"github.com/dertuxmalwieder/ws2markdown/pkg/types"
)

// Frontmatter is the YAML block optionally prepended to Markdown output.
// It carries no timestamps so repeated conversions stay byte-identical.
type Frontmatter struct {
	Source   string   `yaml:"source"`
	Checksum string   `yaml:"checksum"`
	Settings string   `yaml:"settings"`
	Title    string   `yaml:"title,omitempty"`
	Warnings []string `yaml:"warnings,omitempty"`
}

// NewFrontmatter describes res, converted from source with cfg.
func NewFrontmatter(source string, res Result, cfg types.ConversionConfig) Frontmatter {
	fm := Frontmatter{
		Source:   source,
		Checksum: res.Checksum,
		Settings: SettingsDigest(cfg),
		Title:    res.Title,
	}
	for _, w := range res.Warnings {
		fm.Warnings = append(fm.Warnings, w.String())
	}
	return fm
}

// Render produces the final text for res in the configured format. source
// names the input in frontmatter.
func Render(res Result, cfg types.ConversionConfig, source string) (string, error) {
	switch cfg.Format {
	case types.FormatHTML:
		return RenderHTML(res.Markdown)
	case types.FormatMarkdown, "":
		if !cfg.Frontmatter {
			return res.Markdown, nil
		}
		return AddFrontmatter(NewFrontmatter(source, res, cfg), res.Markdown)
	default:
		return "", fmt.Errorf("unsupported output format %q", cfg.Format)
	}
}

// RenderHTML renders Markdown text to an HTML fragment.
func RenderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.New().Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("rendering HTML: %w", err)
	}
	return buf.String(), nil
}

// AddFrontmatter prepends fm as a YAML block to body.
func AddFrontmatter(fm Frontmatter, body string) (string, error) {
	data, err := yaml.Marshal(&fm)
	if err != nil {
		return "", fmt.Errorf("marshaling frontmatter: %w", err)
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(data)
	b.WriteString("---\n\n")
	b.WriteString(body)
	return b.String(), nil
}

// ReadFrontmatter parses the YAML block at the start of a converted file. A
// file without frontmatter yields a zero Frontmatter and no error.
func ReadFrontmatter(r io.Reader) (Frontmatter, error) {
	var fm Frontmatter
	if _, err := frontmatter.Parse(r, &fm); err != nil {
		return Frontmatter{}, fmt.Errorf("parsing frontmatter: %w", err)
	}
	return fm, nil
}
