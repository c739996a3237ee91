package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "galpones",
		Short: "Barn management web UI",
		Long: `Galpones serves the barn management page: the barn list and the
slide-out form used to create, edit and delete barns. Barn records live
in the remote barn API; this program is a client of it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file to load (defaults to .env when present)")

	rootCmd.AddCommand(
		serveCmd(&envFile),
		barnsCmd(&envFile),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
