package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/bustub-shell/internal/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Prints the configuration the other commands would run with: defaults,
overridden by the config file, BUSTUB_* environment variables and flags.`,
	Example: `  BUSTUB_SHELL_HISTORY_SIZE=50 bustub config`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := commonOptions(cmd)
		opts.Stdout = cmd.OutOrStdout()
		return cli.PrintConfig(opts)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
