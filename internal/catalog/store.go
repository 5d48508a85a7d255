// Copyright dertuxmalwieder, 2026. Licensed under the CDDL-1.1.

// Package catalog persists a ledger of conversions in SQLite. Batch runs use
// it to skip documents whose input has not changed since the last run.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/dertuxmalwieder/ws2markdown/pkg/types"
)

// DBFile is the catalog file name inside a batch output directory.
const DBFile = ".ws2markdown.db"

// Store manages the catalog database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// OpenDir opens the catalog kept in a batch output directory.
func OpenDir(outDir string) (*Store, error) {
	return Open(filepath.Join(outDir, DBFile))
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			source TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			output TEXT NOT NULL,
			settings TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			warnings INTEGER NOT NULL DEFAULT 0,
			run_id TEXT NOT NULL,
			converted_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_run_id ON conversions(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return s.addColumn("settings", `TEXT NOT NULL DEFAULT ''`)
}

// addColumn adds a column to catalogs created before it existed.
func (s *Store) addColumn(name, decl string) error {
	rows, err := s.db.Query(`SELECT name FROM pragma_table_info('conversions')`)
	if err != nil {
		return fmt.Errorf("reading table info: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return fmt.Errorf("reading table info: %w", err)
		}
		if col == name {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading table info: %w", err)
	}
	rows.Close()

	if _, err := s.db.Exec(`ALTER TABLE conversions ADD COLUMN ` + name + ` ` + decl); err != nil {
		return fmt.Errorf("adding column %s: %w", name, err)
	}
	return nil
}

// Lookup returns the record for source. The bool is false when the source
// has never been converted.
func (s *Store) Lookup(ctx context.Context, source string) (types.ConversionRecord, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT source, checksum, output, settings, status, warnings, run_id, converted_at
		 FROM conversions WHERE source = ?`, source)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ConversionRecord{}, false, nil
	}
	if err != nil {
		return types.ConversionRecord{}, false, fmt.Errorf("looking up %s: %w", source, err)
	}
	return rec, true, nil
}

// Record inserts or replaces the record for rec.Source.
func (s *Store) Record(ctx context.Context, rec types.ConversionRecord) error {
	if rec.ConvertedAt.IsZero() {
		rec.ConvertedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (source, checksum, output, settings, status, warnings, run_id, converted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source) DO UPDATE SET
			checksum = excluded.checksum,
			output = excluded.output,
			settings = excluded.settings,
			status = excluded.status,
			warnings = excluded.warnings,
			run_id = excluded.run_id,
			converted_at = excluded.converted_at`,
		rec.Source, rec.Checksum, rec.Output, rec.Settings, string(rec.Status), rec.Warnings, rec.RunID,
		rec.ConvertedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", rec.Source, err)
	}
	return nil
}

// List returns all records ordered by source path. A non-empty status
// filters the result.
func (s *Store) List(ctx context.Context, status types.ConversionStatus) ([]types.ConversionRecord, error) {
	query := `SELECT source, checksum, output, settings, status, warnings, run_id, converted_at FROM conversions`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY source`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing conversions: %w", err)
	}
	defer rows.Close()

	var records []types.ConversionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning conversion: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Forget deletes the record for source so the next batch run converts it
// again. Forgetting an unknown source is not an error.
func (s *Store) Forget(ctx context.Context, source string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversions WHERE source = ?`, source); err != nil {
		return fmt.Errorf("forgetting %s: %w", source, err)
	}
	return nil
}

// ExportYAML writes all records to w as a YAML list.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer) error {
	records, err := s.List(ctx, "")
	if err != nil {
		return err
	}
	if records == nil {
		records = []types.ConversionRecord{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes all records to w as an indented JSON array.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer) error {
	records, err := s.List(ctx, "")
	if err != nil {
		return err
	}
	if records == nil {
		records = []types.ConversionRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (types.ConversionRecord, error) {
	var (
		rec         types.ConversionRecord
		status      string
		convertedAt string
	)
	if err := sc.Scan(&rec.Source, &rec.Checksum, &rec.Output, &rec.Settings, &status, &rec.Warnings, &rec.RunID, &convertedAt); err != nil {
		return types.ConversionRecord{}, err
	}
	rec.Status = types.ConversionStatus(status)
	t, err := time.Parse(time.RFC3339Nano, convertedAt)
	if err != nil {
		return types.ConversionRecord{}, fmt.Errorf("parsing converted_at %q: %w", convertedAt, err)
	}
	rec.ConvertedAt = t
	return rec, nil
}
