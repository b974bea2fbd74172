package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newthinker/kachi/internal/collector"
	"github.com/newthinker/kachi/internal/core"
	"github.com/newthinker/kachi/internal/recommend"
)

var (
	recommendSymbols string
	recommendLimit   int
	recommendMode    string
	recommendAPIKey  string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Run one recommendation",
	Long:  "Build the symbol pool, analyze it and print the popular, ETF and buy-candidate rankings as JSON",
	RunE:  runRecommend,
}

func init() {
	recommendCmd.Flags().StringVar(&recommendSymbols, "symbols", "", "Comma separated symbols to include first")
	recommendCmd.Flags().IntVar(&recommendLimit, "limit", 0, "Items per ranking (defaults to config)")
	recommendCmd.Flags().StringVar(&recommendMode, "mode", "long", "Horizon: long or swing")
	recommendCmd.Flags().StringVar(&recommendAPIKey, "api-key", "", "Alpha Vantage API key (defaults to config)")

	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	_, log, a, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer a.Close()

	result, err := a.Recommend(cmd.Context(), recommend.Request{
		APIKey:  recommendAPIKey,
		Symbols: collector.SplitSymbols(recommendSymbols),
		Limit:   recommendLimit,
		Mode:    core.Mode(recommendMode),
	})
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	return printJSON(result)
}
