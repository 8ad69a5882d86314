package main

import (
	"forge/internal/version"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "forge - a JavaScript module bundler",
	Long: `forge resolves an entry module's static and dynamic import graph,
tree-shakes unreachable exports, partitions the result into output chunks
that preserve every dynamic-import boundary, and renders each chunk in a
chosen output module dialect.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("forge version {{.Version}}\n")
}
