package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/bustub-shell/internal/cli"
)

var execCmd = &cobra.Command{
	Use:   "exec <statement>...",
	Short: "Run statements and exit",
	Long: `Loads the engine, runs each argument as one input line and prints the result.
The exit status is non-zero if the engine reported an error.`,
	Example: `  bustub exec "SELECT * FROM __mock_table_1;"
  bustub exec "SELECT a" "FROM t;"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunExec(commonOptions(cmd), args)
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}
