package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootCmd is the base command; run-server and migrate hang off it.
var RootCmd = &cobra.Command{
	Use:   "shortlink",
	Short: "A URL shortener with per-link click analytics",
	Long: `shortlink shortens URLs for registered users and records click
analytics (timestamp, IP, device, OS) for every redirect.`,
}

// Execute runs the CLI. Called from main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
