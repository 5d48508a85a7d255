// Copyright dertuxmalwieder, 2026. Licensed under the CDDL-1.1.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dertuxmalwieder/ws2markdown/internal/catalog"
	"github.com/dertuxmalwieder/ws2markdown/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the conversion catalog of a batch output directory",
	Long: `Catalog lists the conversions recorded by previous batch runs in
--out-dir. Use --forget to drop a document so the next batch run converts it
again.`,
	Args: cobra.NoArgs,
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().String("out-dir", "", "batch output directory holding the catalog (default: the batch.out_dir setting)")
	catalogCmd.Flags().String("status", "", "filter by status: converted or failed")
	catalogCmd.Flags().String("export", "", "write all records as yaml or json instead of a table")
	catalogCmd.Flags().String("forget", "", "remove the record for this source document")

	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	outDir := viper.GetString("batch.out_dir")
	if cmd.Flags().Changed("out-dir") {
		outDir, _ = cmd.Flags().GetString("out-dir")
	}
	dbPath := filepath.Join(outDir, catalog.DBFile)
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("no catalog in %s: %w", outDir, err)
	}

	store, err := catalog.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	w := cmd.OutOrStdout()

	if forget, _ := cmd.Flags().GetString("forget"); forget != "" {
		abs, err := filepath.Abs(forget)
		if err != nil {
			return err
		}
		if err := store.Forget(ctx, abs); err != nil {
			return err
		}
		fmt.Fprintf(w, "forgot %s\n", abs)
		return nil
	}

	export, _ := cmd.Flags().GetString("export")
	switch export {
	case "yaml":
		return store.ExportYAML(ctx, w)
	case "json":
		return store.ExportJSON(ctx, w)
	case "":
	default:
		return fmt.Errorf("unknown export format %q: use yaml or json", export)
	}

	status, _ := cmd.Flags().GetString("status")
	records, err := store.List(ctx, types.ConversionStatus(status))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "No conversions recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-9s  %-8s  %-20s  %s\n", "Status", "Warnings", "Converted", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, r := range records {
		fmt.Fprintf(w, "%-9s  %-8d  %-20s  %s\n",
			r.Status, r.Warnings, r.ConvertedAt.Local().Format("2006-01-02 15:04:05"), r.Source)
	}
	return nil
}
