package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"SpillNet/internal/di"
	"SpillNet/pkg/config"
	"SpillNet/pkg/server"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd is the base command for the SpillNet CLI
var rootCmd = &cobra.Command{
	Use:   "spillnet",
	Short: "Cross-market volatility spillover analysis",
	Long: `SpillNet downloads daily index prices, measures realized volatility,
estimates Diebold-Yilmaz spillovers and forecasts volatility with a graph
neural network built on the spillover graph.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path (empty for defaults)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withApp loads the config, wires the application and runs fn under a
// context cancelled by SIGINT or SIGTERM.
func withApp(fn func(ctx context.Context, app *server.App) error) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fn(ctx, app)
}
