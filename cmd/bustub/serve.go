package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/bustub-shell/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes the engine over HTTP:

  POST /api/execute     {"command": "..."}
  POST /api/initialize
  GET  /api/status
  GET  /metrics         Prometheus metrics
  GET  /openapi.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		preload, _ := cmd.Flags().GetBool("preload")

		return cli.RunServe(cli.ServeOptions{
			Options: commonOptions(cmd),
			Addr:    addr,
			Preload: preload,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (default from config, :8080)")
	serveCmd.Flags().Bool("preload", true, "Load the engine at startup instead of on /api/initialize")
}
