package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"forge/internal/cache"
	"forge/internal/fsutil"
	"forge/internal/logging"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or reset the local build cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached chunk from the local build cache",
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	home, err := fsutil.EnsureForgeHome()
	if err != nil {
		return fmt.Errorf("locating forge home: %w", err)
	}

	logger := logging.NewLogger(logging.Config{Format: logging.HumanFormat, Level: logging.ErrorLevel})
	db, err := cache.Open(home, logger)
	if err != nil {
		return fmt.Errorf("opening build cache: %w", err)
	}
	defer db.Close()

	if err := db.Clear(); err != nil {
		return fmt.Errorf("clearing build cache: %w", err)
	}

	fmt.Println("build cache cleared")
	return nil
}
