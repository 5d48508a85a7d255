// Copyright dertuxmalwieder, 2026. Licensed under the CDDL-1.1.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dertuxmalwieder/ws2markdown/internal/catalog"
	"github.com/dertuxmalwieder/ws2markdown/internal/convert"
)

var batchCmd = &cobra.Command{
	Use:   "batch [files...]",
	Short: "Convert many WordStar documents into an output directory",
	Long: `Batch converts every given document into --out-dir, one output file per
input. Arguments may be glob patterns (e.g. "docs/*.ws").

Conversions are recorded in a catalog database inside the output directory;
documents whose content has not changed since the last successful run are
skipped unless --force is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().String("out-dir", "markdown", "output directory for converted files and the catalog")
	batchCmd.Flags().Bool("no-catalog", false, "do not read or write the catalog database")
	batchCmd.Flags().Bool("force", false, "convert documents even when unchanged")

	bindFlag("batch.out_dir", batchCmd.Flags().Lookup("out-dir"))

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	paths, err := expandInputs(args)
	if err != nil {
		return err
	}

	noCatalog, _ := cmd.Flags().GetBool("no-catalog")
	force, _ := cmd.Flags().GetBool("force")

	opts := convert.BatchOptions{
		Config: cfg.Conversion,
		OutDir: cfg.Batch.OutDir,
		Force:  force,
	}
	if cfg.Batch.Catalog && !noCatalog {
		store, err := catalog.OpenDir(cfg.Batch.OutDir)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Ledger = store
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result := convert.ConvertBatch(ctx, convert.New(cfg.Conversion), paths, opts, cmd.OutOrStdout())
	if viper.GetBool("verbose") {
		fmt.Fprintf(cmd.ErrOrStderr(), "run %s\n", result.RunID)
	}
	if result.HasFailures() {
		return fmt.Errorf("%d document(s) failed conversion", result.Failed)
	}
	return nil
}

// expandInputs resolves glob patterns. Plain paths are passed through even
// when they do not exist, so the batch reports them as failures.
func expandInputs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[") {
			paths = append(paths, arg)
			continue
		}
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}
