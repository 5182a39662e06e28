// Command rfm computes RFM customer profiles from transaction files and
// manages the transaction and profile stores.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"credit-risk-scoring/internal/config"
	"credit-risk-scoring/internal/platform/logger"
)

var Version = "dev"

var (
	configPath string
	envPath    string
	useMemory  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "rfm",
		Short:         "RFM customer profiling for credit risk scoring",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "dotenv file, ignored when missing")
	rootCmd.PersistentFlags().BoolVar(&useMemory, "use-memory", false, "use in-memory storage")

	rootCmd.AddCommand(computeCmd())
	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(migrateCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads configuration and a logger for a subcommand.
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configPath, envPath)
	if err != nil {
		return nil, nil, err
	}
	if useMemory {
		cfg.Storage.UseMemory = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log.Mode, logger.WithRedaction(cfg.Log.Redact))
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
