// Copyright dertuxmalwieder, 2026. Licensed under the CDDL-1.1.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of ws2markdown",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ws2markdown %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
