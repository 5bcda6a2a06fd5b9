package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose *bool

var rootCmd = &cobra.Command{
	Use:   "bili-cli",
	Short: "bili-cli fetches pages, embedded state and credentials for the bilibili family of sites.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		InitTelemetry(cmd.Context(), *verbose)
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging/instrumentation.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
