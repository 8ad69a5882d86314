package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"forge"
	"forge/internal/build"
	"forge/internal/config"
	"forge/internal/logging"
	"forge/internal/parser"
	"forge/internal/resolve"
	"forge/internal/watcher"
	"forge/internal/writer"
)

var watchDir string

var watchCmd = &cobra.Command{
	Use:   "watch [entry...]",
	Short: "Build once, then log source changes (without rebuilding) until interrupted",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchDir, "dir", "dist", "output directory")
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := logging.NewLogger(logging.Config{Format: logging.HumanFormat, Level: logging.InfoLevel})
	fs := resolve.FS{}
	p := parser.New()

	runOnce := func() error {
		ctx := context.Background()
		raw := config.RawInput{Input: stringsOrSingle(args)}

		w := watcher.New(watcher.DefaultConfig(), logger, func(events []watcher.Event) {
			logger.Info("changes detected", map[string]interface{}{"changes": len(events)})
		})
		build.SetWatcher(w)

		handle, err := forge.Rollup(ctx, raw, fs, fs, p)
		if err != nil {
			return err
		}

		if _, err := handle.Write(ctx, config.RawOutput{Dir: watchDir, Dialect: "esm"}, writer.Options{}); err != nil {
			return err
		}

		w.Start()
		defer w.Stop()
		fmt.Fprintln(os.Stdout, "watching for changes, ctrl-c to stop")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		return nil
	}

	return runOnce()
}

func stringsOrSingle(args []string) interface{} {
	if len(args) == 1 {
		return args[0]
	}
	return args
}
