package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/bustub-shell/internal/cli"
)

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive shell",
	Long: `Starts an interactive BusTub session. On a terminal a full screen interface is
used; with redirected input statements are read line by line.

Statements end with ';'. Lines starting with '\' are meta commands and run at once.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		plain, _ := cmd.Flags().GetBool("plain")
		quiet, _ := cmd.Flags().GetBool("quiet")

		return cli.RunShell(cli.ShellOptions{
			Options: commonOptions(cmd),
			Plain:   plain,
			Quiet:   quiet,
		})
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)

	shellCmd.Flags().Bool("plain", false, "Use the line-mode REPL even on a terminal")
	shellCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")

	// 'shell' is the default when no command is given.
	rootCmd.Flags().AddFlagSet(shellCmd.Flags())
	rootCmd.RunE = shellCmd.RunE
}
