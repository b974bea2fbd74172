package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/kachi/internal/app"
	"github.com/newthinker/kachi/internal/config"
	"github.com/newthinker/kachi/internal/logger"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "kachi",
	Short: "kachi - explainable stock signals and recommendations",
	Long: `kachi scores daily and monthly price history into explainable BUY/SELL/NEUTRAL/ABSTAIN
signals and ranks popular symbols, ETFs and buy candidates from Alpha Vantage data.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

// setup loads and validates the config, then builds the logger and the app.
func setup() (*config.Config, *zap.Logger, *app.App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	logOpts := cfg.Log
	if debug {
		logOpts.Development = true
		logOpts.Level = "debug"
	}
	log, err := logger.New(logOpts)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	if cfgFile == "" {
		log.Debug("no config file specified, using defaults and environment")
	}

	a, err := app.New(cfg, log)
	if err != nil {
		log.Sync()
		return nil, nil, nil, fmt.Errorf("creating app: %w", err)
	}
	return cfg, log, a, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
