package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"forge/internal/auth"
	"forge/internal/fsutil"
)

var loginToken string

var loginCmd = &cobra.Command{
	Use:   "login <endpoint>",
	Short: "Store credentials for a remote build cache",
	Long: `Login records an API key for a remote build cache endpoint in
~/.forge/credentials.toml. The build and watch commands do not read
this file.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginToken, "token", "", "remote cache API token (forge_sk_...)")
	_ = loginCmd.MarkFlagRequired("token")
}

func runLogin(cmd *cobra.Command, args []string) error {
	endpoint := args[0]

	if !auth.IsValidTokenFormat(loginToken) {
		return fmt.Errorf("%q is not a recognised forge API token", auth.MaskToken(loginToken))
	}

	home, err := fsutil.EnsureForgeHome()
	if err != nil {
		return fmt.Errorf("locating forge home: %w", err)
	}
	path := filepath.Join(home, "credentials.toml")

	creds, err := auth.LoadCredentials(path)
	if err != nil {
		return err
	}
	creds.SetRemote(endpoint, loginToken)

	if err := creds.Save(path); err != nil {
		return err
	}

	fmt.Printf("stored credentials for %s (%s)\n", endpoint, auth.MaskToken(loginToken))
	return nil
}
