// Copyright dertuxmalwieder, 2026. Licensed under the CDDL-1.1.

package types

import "time"

// ConversionStatus indicates the outcome of converting one document.
type ConversionStatus string

const (
	ConversionDone    ConversionStatus = "converted"
	ConversionSkipped ConversionStatus = "skipped"
	ConversionFailed  ConversionStatus = "failed"
)

// ConversionRecord is one row of the conversion catalog: the last known
// conversion of a source document.
type ConversionRecord struct {
	// Source is the absolute path of the input document.
	Source string `json:"source" yaml:"source"`

	// Checksum is the hex SHA-256 of the raw input bytes.
	Checksum string `json:"checksum" yaml:"checksum"`

	// Output is the path the converted text was written to.
	Output string `json:"output" yaml:"output"`

	// Settings is the digest of the conversion settings used for Output.
	Settings string `json:"settings" yaml:"settings"`

	// Status is the outcome of the last conversion attempt.
	Status ConversionStatus `json:"status" yaml:"status"`

	// Warnings counts per-line anomalies absorbed during translation.
	Warnings int `json:"warnings" yaml:"warnings"`

	// RunID identifies the batch run that produced this record.
	RunID string `json:"run_id" yaml:"run_id"`

	// ConvertedAt is when the record was written.
	ConvertedAt time.Time `json:"converted_at" yaml:"converted_at"`
}
