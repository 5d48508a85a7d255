// Copyright dertuxmalwieder, 2026. Licensed under the CDDL-1.1.

// Package main is the entry point for the ws2markdown CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dertuxmalwieder/ws2markdown/internal/convert"
	"github.com/dertuxmalwieder/ws2markdown/internal/markdown"
	"github.com/dertuxmalwieder/ws2markdown/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd converts a single document; subcommands cover batch runs, the
// HTTP API and the catalog.
var rootCmd = &cobra.Command{
	Use:   "ws2markdown inputfile.ws [outputfile.md]",
	Short: "A WordStar to Markdown converter",
	Long: `ws2markdown converts WordStar documents to Markdown.

Headings (.h1 to .h5), bold, italic and underline markers, left margins
(.lm), page breaks (.pa) and file inserts (.fi) are translated; other dot
commands are dropped.

If outputfile is omitted, the output is printed to stdout.`,
	Args:          cobra.RangeArgs(1, 2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runConvert,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./ws2markdown.yaml or ~/.config/ws2markdown/config.yaml)")
	flags.String("format", string(types.FormatMarkdown), "output format: markdown or html")
	flags.Bool("frontmatter", false, "prepend YAML frontmatter (markdown output only)")
	flags.String("margin-marker", types.DefaultMarginMarker, "text emitted once per left-margin column")
	flags.Int("max-left-margin", 0, "largest accepted .lm value, 0 for no limit; larger values reset the margin")
	flags.Bool("strip-high-bit", false, "clear bit 7 of every byte (documents from older versions)")
	flags.BoolP("verbose", "v", false, "report lines that were skipped or corrected")

	bindFlag("conversion.format", flags.Lookup("format"))
	bindFlag("conversion.frontmatter", flags.Lookup("frontmatter"))
	bindFlag("conversion.margin_marker", flags.Lookup("margin-marker"))
	bindFlag("conversion.max_left_margin", flags.Lookup("max-left-margin"))
	bindFlag("conversion.strip_high_bit", flags.Lookup("strip-high-bit"))
	bindFlag("verbose", flags.Lookup("verbose"))

	setDefaults(types.DefaultConfig())
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ws2markdown")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "ws2markdown"))
		}
	}

	viper.SetEnvPrefix("WS2MARKDOWN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out, res, err := convert.ConvertFile(convert.New(cfg.Conversion), cfg.Conversion, args[0])
	if err != nil {
		return err
	}
	reportWarnings(cmd, filepath.Base(args[0]), res.Warnings)

	if len(args) == 1 {
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}

	// The output file need not exist yet, so it is made absolute rather
	// than resolved.
	outPath, err := filepath.Abs(args[1])
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[1], err)
	}
	if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Done.")
	return nil
}

func reportWarnings(cmd *cobra.Command, name string, warnings []markdown.Warning) {
	if !viper.GetBool("verbose") {
		return
	}
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s %s\n", name, w)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
