package main

import (
	"context"

	"SpillNet/pkg/server"

	"github.com/spf13/cobra"
)

// fetchCmd refreshes the stored price artifacts without analysing them.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download, fill and store market prices",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, app *server.App) error {
			_, err := app.Fetch(ctx)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
