// Copyright dertuxmalwieder, 2026. Licensed under the CDDL-1.1.

package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dertuxmalwieder/ws2markdown/pkg/types"
)

// fakeConverter returns canned output or an error and counts calls.
type fakeConverter struct {
	output string
	err    error
	calls  int
}

func (f *fakeConverter) Convert(raw []byte) (Result, error) {
	f.calls++
	if f.err != nil {
		return Result{}, f.err
	}
	return Result{Markdown: f.output, Checksum: Checksum(raw)}, nil
}

// selectiveConverter fails for raw inputs containing "FAIL".
type selectiveConverter struct{}

func (selectiveConverter) Convert(raw []byte) (Result, error) {
	if bytes.Contains(raw, []byte("FAIL")) {
		return Result{}, errors.New("bad document")
	}
	return Result{Markdown: "# ok\n", Checksum: Checksum(raw)}, nil
}

// memLedger is an in-memory Ledger.
type memLedger struct {
	records map[string]types.ConversionRecord
}

func newMemLedger() *memLedger {
	return &memLedger{records: map[string]types.ConversionRecord{}}
}

func (m *memLedger) Lookup(_ context.Context, source string) (types.ConversionRecord, bool, error) {
	rec, ok := m.records[source]
	return rec, ok, nil
}

func (m *memLedger) Record(_ context.Context, rec types.ConversionRecord) error {
	m.records[rec.Source] = rec
	return nil
}

func writeInput(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, document(body), 0o644))
	return path
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "LETTER.WS", ".h2 Dear\r\nText\r\n")

	out, res, err := ConvertFile(New(types.ConversionConfig{}), types.DefaultConfig().Conversion, path)
	require.NoError(t, err)
	assert.Equal(t, "## Dear\nText\n", out)
	assert.Equal(t, "Dear", res.Title)

	_, _, err = ConvertFile(New(types.ConversionConfig{}), types.DefaultConfig().Conversion, filepath.Join(dir, "missing.ws"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "CHAP1.md"), OutputPath("in/CHAP1.WS", "out", types.FormatMarkdown))
	assert.Equal(t, filepath.Join("out", "CHAP1.html"), OutputPath("CHAP1.WS", "out", types.FormatHTML))
	assert.Equal(t, filepath.Join("out", "README.md"), OutputPath("README", "out", types.FormatMarkdown))
}

func TestConvertDocument(t *testing.T) {
	tests := []struct {
		name       string
		converter  *fakeConverter
		wantStatus types.ConversionStatus
		wantLog    string
	}{
		{
			name:       "successful conversion",
			converter:  &fakeConverter{output: "# Title\n"},
			wantStatus: types.ConversionDone,
			wantLog:    "converted: a.ws",
		},
		{
			name:       "conversion failure",
			converter:  &fakeConverter{err: errors.New("parser exploded")},
			wantStatus: types.ConversionFailed,
			wantLog:    "failed:  a.ws (parser exploded)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			in := writeInput(t, dir, "a.ws", "x")
			opts := BatchOptions{Config: types.DefaultConfig().Conversion, OutDir: filepath.Join(dir, "out")}

			var log bytes.Buffer
			status := ConvertDocument(context.Background(), tt.converter, in, opts, "run", &log)

			assert.Equal(t, tt.wantStatus, status)
			assert.Contains(t, log.String(), tt.wantLog)

			_, err := os.Stat(filepath.Join(dir, "out", "a.md"))
			assert.Equal(t, tt.wantStatus == types.ConversionDone, err == nil)
		})
	}
}

func TestConvertDocument_MissingInput(t *testing.T) {
	ledger := newMemLedger()
	opts := BatchOptions{Config: types.DefaultConfig().Conversion, OutDir: t.TempDir(), Ledger: ledger}
	missing := filepath.Join(t.TempDir(), "gone.ws")

	var log bytes.Buffer
	status := ConvertDocument(context.Background(), &fakeConverter{}, missing, opts, "run", &log)
	assert.Equal(t, types.ConversionFailed, status)
	assert.Equal(t, types.ConversionFailed, ledger.records[missing].Status)
}

func TestConvertDocument_PrintsWarnings(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "w.ws", ".fi\r\n.lm nope\r\ntext\r\n")
	opts := BatchOptions{Config: types.DefaultConfig().Conversion, OutDir: dir}

	var log bytes.Buffer
	status := ConvertDocument(context.Background(), New(opts.Config), in, opts, "run", &log)
	require.Equal(t, types.ConversionDone, status)
	assert.Contains(t, log.String(), "warning: w.ws line 1: missing file name")
	assert.Contains(t, log.String(), "warning: w.ws line 2: invalid margin value")
}

func TestConvertBatch(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeInput(t, dir, "a.ws", "alpha"),
		writeInput(t, dir, "b.ws", "beta"),
		writeInput(t, dir, "c.ws", "FAIL"),
	}
	ledger := newMemLedger()
	opts := BatchOptions{Config: types.DefaultConfig().Conversion, OutDir: filepath.Join(dir, "out"), Ledger: ledger}

	var log bytes.Buffer
	result := ConvertBatch(context.Background(), selectiveConverter{}, paths, opts, &log)

	assert.Equal(t, 2, result.Converted)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 1, result.Failed)
	assert.True(t, result.HasFailures())
	assert.Equal(t, 3, result.Total())
	assert.NotEmpty(t, result.RunID)
	assert.Contains(t, log.String(), "Batch summary: 2 converted, 0 skipped, 1 failed (total: 3)")

	rec := ledger.records[paths[0]]
	assert.Equal(t, types.ConversionDone, rec.Status)
	assert.Equal(t, result.RunID, rec.RunID)
	assert.Equal(t, filepath.Join(dir, "out", "a.md"), rec.Output)
	assert.False(t, rec.ConvertedAt.IsZero())

	// Second run: unchanged inputs are skipped, the failed one is retried.
	log.Reset()
	second := ConvertBatch(context.Background(), selectiveConverter{}, paths, opts, &log)
	assert.Equal(t, 0, second.Converted)
	assert.Equal(t, 2, second.Skipped)
	assert.Equal(t, 1, second.Failed)
	assert.NotEqual(t, result.RunID, second.RunID)

	// Changing an input brings it back.
	writeInput(t, dir, "b.ws", "beta, revised")
	third := ConvertBatch(context.Background(), selectiveConverter{}, paths, opts, &log)
	assert.Equal(t, 1, third.Converted)
	assert.Equal(t, 1, third.Skipped)

	// Force converts everything again.
	opts.Force = true
	forced := ConvertBatch(context.Background(), selectiveConverter{}, paths[:2], opts, &log)
	assert.Equal(t, 2, forced.Converted)
}

func TestConvertBatch_SkipsThroughFrontmatter(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeInput(t, dir, "a.ws", "alpha")}
	cfg := types.DefaultConfig().Conversion
	cfg.Frontmatter = true
	opts := BatchOptions{Config: cfg, OutDir: dir}
	conv := &fakeConverter{output: "# A\n"}

	var log bytes.Buffer
	first := ConvertBatch(context.Background(), conv, paths, opts, &log)
	require.Equal(t, 1, first.Converted)

	second := ConvertBatch(context.Background(), conv, paths, opts, &log)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, 1, conv.calls)

	// Without frontmatter there is nothing to compare against.
	opts.Config.Frontmatter = false
	third := ConvertBatch(context.Background(), conv, paths, opts, &log)
	assert.Equal(t, 1, third.Converted)
}

func TestConvertBatch_SettingsChangeReconverts(t *testing.T) {
	tests := []struct {
		name   string
		ledger bool
	}{
		{"ledger", true},
		{"frontmatter", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			paths := []string{writeInput(t, dir, "a.ws", ".lm 2\r\nx\r\n")}
			cfg := types.DefaultConfig().Conversion
			cfg.Frontmatter = true
			opts := BatchOptions{Config: cfg, OutDir: filepath.Join(dir, "out")}
			if tt.ledger {
				opts.Ledger = newMemLedger()
			}

			var log bytes.Buffer
			first := ConvertBatch(context.Background(), New(opts.Config), paths, opts, &log)
			require.Equal(t, 1, first.Converted)

			opts.Config.MarginMarker = "  "
			second := ConvertBatch(context.Background(), New(opts.Config), paths, opts, &log)
			assert.Equal(t, 1, second.Converted)
			assert.Equal(t, 0, second.Skipped)

			out, err := os.ReadFile(filepath.Join(dir, "out", "a.md"))
			require.NoError(t, err)
			assert.Contains(t, string(out), "\n    x\n")
			assert.NotContains(t, string(out), "&nbsp;")

			third := ConvertBatch(context.Background(), New(opts.Config), paths, opts, &log)
			assert.Equal(t, 1, third.Skipped)
		})
	}
}

func TestSettingsDigest(t *testing.T) {
	base := types.DefaultConfig().Conversion
	assert.Equal(t, SettingsDigest(base), SettingsDigest(types.ConversionConfig{}),
		"empty settings digest as their defaults")

	variants := []func(*types.ConversionConfig){
		func(c *types.ConversionConfig) { c.Format = types.FormatHTML },
		func(c *types.ConversionConfig) { c.Frontmatter = true },
		func(c *types.ConversionConfig) { c.MarginMarker = ">" },
		func(c *types.ConversionConfig) { c.MaxLeftMargin = 10 },
		func(c *types.ConversionConfig) { c.StripHighBit = true },
	}
	for i, mutate := range variants {
		cfg := base
		mutate(&cfg)
		assert.NotEqual(t, SettingsDigest(base), SettingsDigest(cfg), "variant %d", i)
	}
}

func TestConvertBatch_OutputCollision(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "x"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "y"), 0o755))
	paths := []string{
		writeInput(t, dir, filepath.Join("x", "same.ws"), "one"),
		writeInput(t, dir, filepath.Join("y", "same.ws"), "two"),
	}
	opts := BatchOptions{Config: types.DefaultConfig().Conversion, OutDir: filepath.Join(dir, "out")}

	var log bytes.Buffer
	result := ConvertBatch(context.Background(), &fakeConverter{output: "x\n"}, paths, opts, &log)
	assert.Equal(t, 1, result.Converted)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, log.String(), "already written for same.ws")
}

func TestConvertBatch_Cancelled(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeInput(t, dir, "a.ws", "alpha")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var log bytes.Buffer
	result := ConvertBatch(ctx, &fakeConverter{}, paths, BatchOptions{OutDir: dir}, &log)
	assert.Equal(t, 1, result.Failed)
	assert.True(t, strings.Contains(log.String(), context.Canceled.Error()))
}
