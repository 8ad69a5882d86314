package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"forge/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print forge's version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(version.Full())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
