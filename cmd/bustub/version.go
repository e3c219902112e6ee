package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/bustub-shell"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of bustub",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bustub version %s\n", strings.TrimSpace(bustub.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
