package core

import "strings"

// Decision is the outcome of scoring one symbol.
type Decision string

const (
	DecisionBuy     Decision = "BUY"
	DecisionSell    Decision = "SELL"
	DecisionNeutral Decision = "NEUTRAL"
	DecisionAbstain Decision = "ABSTAIN"
)

// Mode is the trading horizon a decision is made for.
type Mode string

const (
	ModeLong  Mode = "long"
	ModeSwing Mode = "swing"
)

// ParseMode maps free text to a mode, defaulting to long.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeSwing)) {
		return ModeSwing
	}
	return ModeLong
}

// IndicatorSet holds the technical indicators of one symbol.
// A nil field means the series was too short to compute it.
type IndicatorSet struct {
	SMA20                 *float64 `json:"sma20,omitempty"`
	SMA50                 *float64 `json:"sma50,omitempty"`
	SMA200                *float64 `json:"sma200,omitempty"`
	EMA20                 *float64 `json:"ema20,omitempty"`
	RSI14                 *float64 `json:"rsi14,omitempty"`
	MACD                  *float64 `json:"macd,omitempty"`
	MACDSignal            *float64 `json:"macdSignal,omitempty"`
	ATR14                 *float64 `json:"atr14,omitempty"`
	VolumeRatio5          *float64 `json:"volumeRatio5,omitempty"`
	VolumeRatio20         *float64 `json:"volumeRatio20,omitempty"`
	MaxDrawdown           *float64 `json:"maxDrawdown,omitempty"`
	DistFrom52wHigh       *float64 `json:"distFrom52wHigh,omitempty"`
	DividendYieldTrailing *float64 `json:"dividendYieldTrailing,omitempty"`
}

// ScoreReason is one itemized contribution to a score. Weight is the literal point contribution.
type ScoreReason struct {
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

// ScoreResult is an explainable decision. Summing the weights of Reasons and Counters
// reconstructs the score the decision was derived from.
type ScoreResult struct {
	Decision   Decision      `json:"decision"`
	Confidence float64       `json:"confidence"`
	Reasons    []ScoreReason `json:"reasons"`
	Counters   []ScoreReason `json:"counters"`
	Metrics    IndicatorSet  `json:"metrics"`
	Horizon    Mode          `json:"horizon"`
}

// Score sums every emitted weight.
func (r ScoreResult) Score() float64 {
	var total float64
	for _, reason := range r.Reasons {
		total += reason.Weight
	}
	for _, counter := range r.Counters {
		total += counter.Weight
	}
	return total
}
