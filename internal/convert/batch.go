// Copyright dertuxmalwieder, 2026. Licensed under the CDDL-1.1.

package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dertuxmalwieder/ws2markdown/pkg/types"
)

// Ledger remembers past conversions so unchanged inputs can be skipped.
// catalog.Store implements it.
type Ledger interface {
	Lookup(ctx context.Context, source string) (types.ConversionRecord, bool, error)
	Record(ctx context.Context, rec types.ConversionRecord) error
}

// BatchOptions configures ConvertDocument and ConvertBatch.
type BatchOptions struct {
	Config types.ConversionConfig

	// OutDir receives one output file per input.
	OutDir string

	// Ledger is optional. Without it, unchanged inputs are detected through
	// the checksum in existing frontmatter, when frontmatter is enabled.
	Ledger Ledger

	// Force converts every input even when it looks unchanged.
	Force bool
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	RunID     string
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of documents processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any document failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ConvertFile reads the document at path and returns the rendered output
// together with the conversion result.
func ConvertFile(c Converter, cfg types.ConversionConfig, path string) (string, Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", Result{}, fmt.Errorf("reading %s: %w", path, err)
	}
	res, err := c.Convert(raw)
	if err != nil {
		return "", Result{}, fmt.Errorf("converting %s: %w", path, err)
	}
	out, err := Render(res, cfg, filepath.Base(path))
	if err != nil {
		return "", Result{}, err
	}
	return out, res, nil
}

// OutputPath returns where the converted form of path is written.
func OutputPath(path, outDir string, format types.OutputFormat) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return filepath.Join(outDir, base+format.Extension())
}

// ConvertDocument converts one document into opts.OutDir, printing a status
// line to w. Unchanged inputs are skipped unless opts.Force is set.
func ConvertDocument(ctx context.Context, c Converter, path string, opts BatchOptions, runID string, w io.Writer) types.ConversionStatus {
	name := filepath.Base(path)
	source := absPath(path)
	outPath := absPath(OutputPath(path, opts.OutDir, opts.Config.Format))

	rec := types.ConversionRecord{
		Source:   source,
		Output:   outPath,
		Settings: SettingsDigest(opts.Config),
		RunID:    runID,
	}
	fail := func(err error) types.ConversionStatus {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		rec.Status = types.ConversionFailed
		record(ctx, opts.Ledger, rec, w)
		return types.ConversionFailed
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fail(err)
	}
	rec.Checksum = Checksum(raw)

	if !opts.Force && upToDate(ctx, opts, source, rec.Checksum, rec.Settings, outPath) {
		fmt.Fprintf(w, "skipped: %s (unchanged)\n", name)
		return types.ConversionSkipped
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fail(err)
	}

	res, err := c.Convert(raw)
	if err != nil {
		return fail(err)
	}
	text, err := Render(res, opts.Config, name)
	if err != nil {
		return fail(err)
	}
	if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
		return fail(err)
	}

	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "  warning: %s %s\n", name, warn)
	}
	rec.Status = types.ConversionDone
	rec.Warnings = len(res.Warnings)
	record(ctx, opts.Ledger, rec, w)

	fmt.Fprintf(w, "converted: %s\n", name)
	return types.ConversionDone
}

// ConvertBatch converts every path, printing per-file status to w and
// returning a summary. Two inputs that map to the same output file are an
// error for the second one.
func ConvertBatch(ctx context.Context, c Converter, paths []string, opts BatchOptions, w io.Writer) BatchResult {
	result := BatchResult{RunID: uuid.NewString()}
	outputs := make(map[string]string, len(paths))

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", filepath.Base(p), err)
			result.Failed++
			continue
		}

		out := absPath(OutputPath(p, opts.OutDir, opts.Config.Format))
		if prev, ok := outputs[out]; ok && prev != absPath(p) {
			fmt.Fprintf(w, "failed:  %s (output %s already written for %s)\n", filepath.Base(p), filepath.Base(out), filepath.Base(prev))
			result.Failed++
			continue
		}
		outputs[out] = absPath(p)

		switch ConvertDocument(ctx, c, p, opts, result.RunID, w) {
		case types.ConversionDone:
			result.Converted++
		case types.ConversionSkipped:
			result.Skipped++
		case types.ConversionFailed:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

// upToDate reports whether outPath already holds the conversion of an input
// with this checksum under these settings.
func upToDate(ctx context.Context, opts BatchOptions, source, checksum, settings, outPath string) bool {
	if _, err := os.Stat(outPath); err != nil {
		return false
	}

	if opts.Ledger != nil {
		rec, ok, err := opts.Ledger.Lookup(ctx, source)
		return err == nil && ok &&
			rec.Status == types.ConversionDone &&
			rec.Checksum == checksum &&
			rec.Settings == settings &&
			rec.Output == outPath
	}

	if !opts.Config.Frontmatter || opts.Config.Format == types.FormatHTML {
		return false
	}
	f, err := os.Open(outPath)
	if err != nil {
		return false
	}
	defer f.Close()
	fm, err := ReadFrontmatter(f)
	return err == nil && fm.Checksum == checksum && fm.Settings == settings
}

func record(ctx context.Context, ledger Ledger, rec types.ConversionRecord, w io.Writer) {
	if ledger == nil {
		return
	}
	rec.ConvertedAt = time.Now().UTC()
	if err := ledger.Record(ctx, rec); err != nil {
		fmt.Fprintf(w, "warning: catalog update for %s failed: %v\n", filepath.Base(rec.Source), err)
	}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
