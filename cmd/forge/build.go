package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"forge"
	"forge/internal/config"
	"forge/internal/parser"
	"forge/internal/resolve"
	"forge/internal/writer"
)

var (
	buildDir             string
	buildFile            string
	buildFormat          string
	buildName            string
	buildSourcemap       string
	buildPreserveModules bool
	buildGzip            bool
	buildCache           bool
	buildSymbolIndex     bool
)

var buildCmd = &cobra.Command{
	Use:   "build [entry...]",
	Short: "Bundle one or more entry modules",
	Long: `Build resolves the import graph of the given entry modules, tree-shakes
unreachable exports, partitions the result into chunks, and writes each
chunk to the output directory or file in the requested dialect.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVar(&buildDir, "dir", "", "output directory (multi-chunk builds)")
	buildCmd.Flags().StringVar(&buildFile, "file", "", "output file (single-chunk builds)")
	buildCmd.Flags().StringVar(&buildFormat, "format", "esm", "output dialect: amd, cjs, system, esm, iife, umd")
	buildCmd.Flags().StringVar(&buildName, "name", "", "bundle name, required for iife/umd with exports")
	buildCmd.Flags().StringVar(&buildSourcemap, "sourcemap", "off", "off, external, or inline")
	buildCmd.Flags().BoolVar(&buildPreserveModules, "preserve-modules", false, "emit one chunk per module")
	buildCmd.Flags().BoolVar(&buildGzip, "gzip", false, "also write a .gz sibling of every output file")
	buildCmd.Flags().BoolVar(&buildCache, "cache", false, "reuse the local build cache across runs")
	buildCmd.Flags().BoolVar(&buildSymbolIndex, "symbol-index", false, "also emit a SCIP-shaped index.scip alongside the bundle")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	project, err := config.LoadProject(".")
	if err != nil {
		return fmt.Errorf("loading project defaults: %w", err)
	}

	manualChunks, err := config.LoadManualChunks(".")
	if err != nil {
		return fmt.Errorf("loading manual chunk declarations: %w", err)
	}

	for _, w := range project.Warnings {
		printWarning(w)
	}

	raw := project.Defaults.ToRawInput(args)
	raw.ManualChunks = manualChunks
	raw.PreserveModules = raw.PreserveModules || buildPreserveModules
	raw.Cache = raw.Cache || buildCache
	raw.OnWarn = printWarning

	fs := resolve.FS{}
	p := parser.New()

	handle, err := forge.Rollup(ctx, raw, fs, fs, p)
	if err != nil {
		return err
	}
	defer handle.Close()
	fmt.Fprintf(os.Stderr, "build %s\n", handle.BuildID())

	if raw.Cache {
		handle.Cache()
	}

	rawOutput := project.Defaults.ToRawOutput()
	if buildDir != "" {
		rawOutput.Dir = buildDir
	}
	if buildFile != "" {
		rawOutput.File = buildFile
	}
	if cmd.Flags().Changed("format") {
		rawOutput.Dialect = buildFormat
	}
	if buildName != "" {
		rawOutput.Name = buildName
	}
	if cmd.Flags().Changed("sourcemap") {
		rawOutput.Sourcemap = config.SourcemapMode(buildSourcemap)
	}
	rawOutput.EmitSymbolIndex = buildSymbolIndex

	result, err := handle.Write(ctx, rawOutput, writer.Options{Gzip: buildGzip})
	if err != nil {
		return err
	}

	for _, e := range result.Bundle.SortedFileNames() {
		fmt.Fprintln(os.Stdout, e)
	}
	return nil
}

// printWarning is the CLI's default warning sink: every config.Warning
// (unknown project option, deprecated ongenerate hook, missing
// output.globals entry) is written to stderr, never to stdout.
func printWarning(w config.Warning) {
	if w.PluginCode != "" {
		fmt.Fprintf(os.Stderr, "warning: [%s/%s] %s\n", w.Code, w.PluginCode, w.Message)
		return
	}
	fmt.Fprintf(os.Stderr, "warning: [%s] %s\n", w.Code, w.Message)
}
