// Package cli implements quizctl, the offline companion to the API: quiz file
// validation and a console player.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "quizctl",
		Short:        "Validate and play quiz files",
		SilenceUsage: true,
	}
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewPlayCmd())
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
