package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/newthinker/kachi/internal/advice"
	"github.com/newthinker/kachi/internal/collector"
	"github.com/newthinker/kachi/internal/core"
)

var (
	scoreSymbol  string
	scoreMode    string
	scoreAPIKey  string
	scoreExplain bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Fetch and score one symbol",
	Long:  "Fetch a symbol's daily and monthly history and print its explainable score as JSON",
	RunE:  runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreSymbol, "symbol", "", "Symbol to score (required)")
	scoreCmd.Flags().StringVar(&scoreMode, "mode", "long", "Horizon: long or swing")
	scoreCmd.Flags().StringVar(&scoreAPIKey, "api-key", "", "Alpha Vantage API key (defaults to config)")
	scoreCmd.Flags().BoolVar(&scoreExplain, "explain", false, "Include an educational narration of the decision")

	scoreCmd.MarkFlagRequired("symbol")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	symbol, err := collector.NormalizeSymbol(scoreSymbol)
	if err != nil {
		return err
	}

	_, log, a, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer a.Close()

	ctx := cmd.Context()
	result, err := a.ScoreSymbol(ctx, scoreAPIKey, symbol, core.ParseMode(scoreMode))
	if err != nil {
		return fmt.Errorf("scoring %s: %w", symbol, err)
	}

	out := map[string]any{"symbol": symbol, "score": result.Score(), "result": result}
	if scoreExplain {
		payload, err := a.Narrate(ctx, advice.FromResult(result), "")
		if err != nil {
			return fmt.Errorf("explaining %s: %w", symbol, err)
		}
		out["advice"] = payload
	}
	return printJSON(out)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
