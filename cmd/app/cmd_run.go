package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"SpillNet/pkg/server"

	"github.com/spf13/cobra"
)

var runOutput string

// runCmd executes the full analysis pipeline once.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run ingestion, spillover analysis and forecasting",
	Long: `Run fetches every configured market, computes volatility and the
spillover tables for each partition, searches and evaluates both forecasting
models and publishes the resulting report.

Examples:
  spillnet run
  spillnet run --output report.json
  spillnet run --config config/config.yaml --output -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, app *server.App) error {
			report, err := app.RunPipeline(ctx)
			if err != nil {
				return err
			}
			if runOutput == "" {
				return nil
			}
			return writeJSON(runOutput, cmd.OutOrStdout(), report)
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runOutput, "output", "", "write the run report as JSON to a file, or - for stdout")
}

func writeJSON(path string, stdout io.Writer, v interface{}) error {
	w := stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
