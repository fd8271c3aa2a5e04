// ====================================
// File: cmd/curvectl/main.go
// ====================================
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/pumpcurve/internal/config"
	"github.com/rovshanmuradov/pumpcurve/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "curvectl",
		Short:        "Bonding-curve pool pricing and settlement",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path (json or yaml)")
	root.PersistentFlags().Bool("debug", false, "enable debug logging")

	root.AddCommand(newQuoteCmd(), newDeriveCmd(), newDecodeCmd(), newSimulateCmd())
	return root
}

// loadConfig reads --config and applies --debug on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.DebugLogging = true
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Development = cfg.DebugLogging
	logCfg.Pretty = true
	return logger.New(logCfg)
}
