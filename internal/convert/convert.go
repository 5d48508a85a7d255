// Copyright dertuxmalwieder, 2026. Licensed under the CDDL-1.1.

// Package convert runs the WordStar-to-Markdown pipeline: header strip,
// lossy decoding, parsing and translation. It also renders the result
// (Markdown, frontmatter, HTML) and drives single-file and batch runs.
package convert

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/dertuxmalwieder/ws2markdown/internal/markdown"
	"github.com/dertuxmalwieder/ws2markdown/internal/wordstar"
	"github.com/dertuxmalwieder/ws2markdown/pkg/types"
)

// Converter turns the raw bytes of a document into a Result.
type Converter interface {
	Convert(raw []byte) (Result, error)
}

// Result is the outcome of converting one document.
type Result struct {
	// Markdown is the translated text.
	Markdown string

	// Title is the text of the first heading, if any.
	Title string

	// Checksum is the hex SHA-256 of the raw input.
	Checksum string

	// Warnings lists per-line anomalies absorbed during translation.
	Warnings []markdown.Warning
}

// DocumentConverter is the Converter for WordStar documents. It holds only
// configuration and is safe for concurrent use.
type DocumentConverter struct {
	decode       DecodeOptions
	marginMarker string
	maxMargin    int
}

// New builds a DocumentConverter from cfg. An empty margin marker falls back
// to types.DefaultMarginMarker.
func New(cfg types.ConversionConfig) *DocumentConverter {
	c := &DocumentConverter{
		decode:       DecodeOptions{StripHighBit: cfg.StripHighBit},
		marginMarker: cfg.MarginMarker,
		maxMargin:    cfg.MaxLeftMargin,
	}
	if c.marginMarker == "" {
		c.marginMarker = types.DefaultMarginMarker
	}
	return c
}

// Convert runs the full pipeline over raw. A document that does not match
// the grammar yields an error matching wordstar.ErrMalformedDocument and no
// output.
func (c *DocumentConverter) Convert(raw []byte) (Result, error) {
	body, err := Decode(raw, c.decode)
	if err != nil {
		return Result{}, err
	}

	lines, err := wordstar.Parse(body)
	if err != nil {
		return Result{}, err
	}

	var warnings []markdown.Warning
	tr := markdown.New(
		markdown.WithMarginMarker(c.marginMarker),
		markdown.WithMaxMargin(c.maxMargin),
		markdown.WithWarnings(func(w markdown.Warning) { warnings = append(warnings, w) }),
	)
	text, err := tr.Translate(lines)
	if err != nil {
		return Result{}, fmt.Errorf("translating: %w", err)
	}

	return Result{
		Markdown: text,
		Title:    title(lines),
		Checksum: Checksum(raw),
		Warnings: warnings,
	}, nil
}

// Checksum returns the hex SHA-256 of raw.
func Checksum(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// SettingsDigest returns a short digest of the settings in cfg that shape
// converted output. Empty settings are digested as their defaults.
func SettingsDigest(cfg types.ConversionConfig) string {
	if cfg.Format == "" {
		cfg.Format = types.FormatMarkdown
	}
	if cfg.MarginMarker == "" {
		cfg.MarginMarker = types.DefaultMarginMarker
	}
	if cfg.MaxLeftMargin < 0 {
		cfg.MaxLeftMargin = 0
	}
	key := fmt.Sprintf("format=%s frontmatter=%t marker=%q max=%d strip=%t",
		cfg.Format, cfg.Frontmatter, cfg.MarginMarker, cfg.MaxLeftMargin, cfg.StripHighBit)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func title(lines []wordstar.Line) string {
	for _, l := range lines {
		if h, ok := l.(*wordstar.HeaderLine); ok {
			return h.Text
		}
	}
	return ""
}
