package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/bustub-shell/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "bustub",
	Short: "BusTub is an interactive shell for the BusTub database engine",
	Long: `BusTub loads the BusTub relational database engine compiled to WebAssembly
and lets you run SQL statements against it from a terminal, over HTTP or as MCP tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the config file (default bustub.yaml)")
	rootCmd.PersistentFlags().String("artifact", "", "Engine module: a file path or an http(s) URL")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable coloured output")
}

// commonOptions reads the persistent flags.
func commonOptions(cmd *cobra.Command) cli.Options {
	configPath, _ := cmd.Flags().GetString("config")
	artifact, _ := cmd.Flags().GetString("artifact")
	logLevel, _ := cmd.Flags().GetString("log-level")
	debug, _ := cmd.Flags().GetBool("debug")
	noColor, _ := cmd.Flags().GetBool("no-color")

	return cli.Options{
		ConfigPath: configPath,
		Artifact:   artifact,
		LogLevel:   logLevel,
		Debug:      debug,
		NoColor:    noColor,
	}
}
