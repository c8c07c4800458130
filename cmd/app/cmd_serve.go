package main

import (
	"context"

	"SpillNet/pkg/server"

	"github.com/spf13/cobra"
)

// serveCmd starts the dashboard API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard JSON API",
	Long: `Serve exposes volatility, prices, statistics, correlations, spillover
tables and the market graph over HTTP. Results are memoized in the configured
cache backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, app *server.App) error {
			return app.Serve(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
