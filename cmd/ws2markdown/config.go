// Copyright dertuxmalwieder, 2026. Licensed under the CDDL-1.1.

package main

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dertuxmalwieder/ws2markdown/pkg/types"
)

// setDefaults registers every key of cfg with viper so that config files and
// environment variables can override any of them.
func setDefaults(cfg types.Config) {
	viper.SetDefault("conversion.format", string(cfg.Conversion.Format))
	viper.SetDefault("conversion.frontmatter", cfg.Conversion.Frontmatter)
	viper.SetDefault("conversion.margin_marker", cfg.Conversion.MarginMarker)
	viper.SetDefault("conversion.max_left_margin", cfg.Conversion.MaxLeftMargin)
	viper.SetDefault("conversion.strip_high_bit", cfg.Conversion.StripHighBit)
	viper.SetDefault("batch.out_dir", cfg.Batch.OutDir)
	viper.SetDefault("batch.catalog", cfg.Batch.Catalog)
	viper.SetDefault("server.addr", cfg.Server.Addr)
	viper.SetDefault("server.max_body_bytes", cfg.Server.MaxBodyBytes)
	viper.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
}

// bindFlag ties a viper key to a flag. Binding only fails for a nil flag,
// which is a programming error.
func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag for %s: %v", key, err))
	}
}

// loadConfig merges defaults, config file, environment and flags.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	if err := cfg.Conversion.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid conversion settings: %w", err)
	}
	return cfg, nil
}
