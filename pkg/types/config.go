// Copyright dertuxmalwieder, 2026. Licensed under the CDDL-1.1.

package types

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// OutputFormat selects what a conversion emits.
type OutputFormat string

const (
	FormatMarkdown OutputFormat = "markdown"
	FormatHTML     OutputFormat = "html"
)

// Extension returns the file extension used for converted files of this format.
func (f OutputFormat) Extension() string {
	if f == FormatHTML {
		return ".html"
	}
	return ".md"
}

const (
	// DefaultMarginMarker is emitted once per left-margin column.
	DefaultMarginMarker = "&nbsp;"

	// DefaultMaxBodyBytes bounds uploads accepted by the HTTP API (8 MiB).
	DefaultMaxBodyBytes = 8 << 20
)

// ConversionConfig holds settings shared by every conversion path
// (single file, batch, HTTP).
type ConversionConfig struct {
	// Format selects markdown or html output.
	Format OutputFormat `mapstructure:"format" json:"format" yaml:"format"`

	// Frontmatter prepends a YAML block with source, checksum, title and
	// warnings. Ignored for html output.
	Frontmatter bool `mapstructure:"frontmatter" json:"frontmatter" yaml:"frontmatter"`

	// MarginMarker is repeated once per left-margin column in front of
	// normal lines. Empty means DefaultMarginMarker.
	MarginMarker string `mapstructure:"margin_marker" json:"margin_marker" yaml:"margin_marker"`

	// MaxLeftMargin caps accepted .lm values; larger values reset the margin
	// to 0. Zero means no cap.
	MaxLeftMargin int `mapstructure:"max_left_margin" json:"max_left_margin" yaml:"max_left_margin"`

	// StripHighBit clears bit 7 of every body byte before decoding, for
	// documents written by versions that flag word ends in the high bit.
	StripHighBit bool `mapstructure:"strip_high_bit" json:"strip_high_bit" yaml:"strip_high_bit"`
}

// Validate checks the conversion settings.
func (c ConversionConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Format, validation.Required,
			validation.In(FormatMarkdown, FormatHTML).Error("must be markdown or html")),
		validation.Field(&c.MaxLeftMargin, validation.Min(0)),
		validation.Field(&c.MarginMarker, validation.By(func(value any) error {
			if strings.ContainsAny(value.(string), "\r\n") {
				return errors.New("must not contain line breaks")
			}
			return nil
		})),
	)
}

// BatchConfig holds settings for multi-file conversion runs.
type BatchConfig struct {
	// OutDir receives the converted files and the catalog database.
	OutDir string `mapstructure:"out_dir" json:"out_dir" yaml:"out_dir"`

	// Catalog enables the SQLite ledger used to skip unchanged inputs.
	Catalog bool `mapstructure:"catalog" json:"catalog" yaml:"catalog"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (e.g. ":8080").
	Addr string `mapstructure:"addr" json:"addr" yaml:"addr"`

	// MaxBodyBytes bounds the size of an uploaded document.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" json:"max_body_bytes" yaml:"max_body_bytes"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Validate checks the server settings.
func (c ServerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.MaxBodyBytes, validation.Required, validation.Min(int64(1))),
	)
}

// Config groups all settings read from ws2markdown.yaml, the environment
// and command-line flags.
type Config struct {
	Conversion ConversionConfig `mapstructure:"conversion" json:"conversion" yaml:"conversion"`
	Batch      BatchConfig      `mapstructure:"batch" json:"batch" yaml:"batch"`
	Server     ServerConfig     `mapstructure:"server" json:"server" yaml:"server"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Conversion: ConversionConfig{
			Format:        FormatMarkdown,
			MarginMarker:  DefaultMarginMarker,
		},
		Batch: BatchConfig{
			OutDir:  "markdown",
			Catalog: true,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			MaxBodyBytes:    DefaultMaxBodyBytes,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}
