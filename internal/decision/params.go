package decision

import "github.com/newthinker/kachi/internal/core"

// Threshold is the score boundary pair of one mode.
type Threshold struct {
	Buy  float64 `mapstructure:"buy"`
	Sell float64 `mapstructure:"sell"`
}

// Thresholds holds the boundaries of both modes.
type Thresholds struct {
	Long  Threshold `mapstructure:"long"`
	Swing Threshold `mapstructure:"swing"`
}

// For returns the threshold of a mode.
func (t Thresholds) For(mode core.Mode) Threshold {
	if mode == core.ModeSwing {
		return t.Swing
	}
	return t.Long
}

// Weights are the point magnitudes of each rule. Penalties are applied with a negative sign.
type Weights struct {
	PriceVsSMA200     float64 `mapstructure:"price_vs_sma200"`
	SMA50VsSMA200     float64 `mapstructure:"sma50_vs_sma200"`
	SMA20VsSMA50      float64 `mapstructure:"sma20_vs_sma50"`
	RSIHealthy        float64 `mapstructure:"rsi_healthy"`
	RSIOversold       float64 `mapstructure:"rsi_oversold"`
	RSIOverheated     float64 `mapstructure:"rsi_overheated"`
	MACDVsSignal      float64 `mapstructure:"macd_vs_signal"`
	VolatilityPenalty float64 `mapstructure:"volatility_penalty"`
	StableRise        float64 `mapstructure:"stable_rise"`
	VolumeSurgeUp     float64 `mapstructure:"volume_surge_up"`
	VolumeSurgeDown   float64 `mapstructure:"volume_surge_down"`
	Near52wHigh       float64 `mapstructure:"near_52w_high"`
	Far52wHigh        float64 `mapstructure:"far_52w_high"`
	Drawdown          float64 `mapstructure:"drawdown"`
	Dividend          float64 `mapstructure:"dividend"`
	ExpenseHigh       float64 `mapstructure:"expense_high"`
	ExpenseLow        float64 `mapstructure:"expense_low"`
	Anomaly           float64 `mapstructure:"anomaly"`
}

// Bands are the numeric cut-offs the rules compare indicators against.
// Percent fields are in percent units.
type Bands struct {
	RSIHealthyLow      float64 `mapstructure:"rsi_healthy_low"`
	RSIHealthyHigh     float64 `mapstructure:"rsi_healthy_high"`
	RSIOversold        float64 `mapstructure:"rsi_oversold"`
	RSIOverheatedLong  float64 `mapstructure:"rsi_overheated_long"`
	RSIOverheatedSwing float64 `mapstructure:"rsi_overheated_swing"`
	ATRHighPct         float64 `mapstructure:"atr_high_pct"`
	ATRLowPct          float64 `mapstructure:"atr_low_pct"`
	VolumeSurge        float64 `mapstructure:"volume_surge"`
	Near52wHighPct     float64 `mapstructure:"near_52w_high_pct"`
	Far52wHighPct      float64 `mapstructure:"far_52w_high_pct"`
	DrawdownPct        float64 `mapstructure:"drawdown_pct"`
	DividendYieldPct   float64 `mapstructure:"dividend_yield_pct"`
	ExpenseHighPct     float64 `mapstructure:"expense_high_pct"`
	ExpenseLowPct      float64 `mapstructure:"expense_low_pct"`
}

// RSIOverheated returns the overheated bound of a mode.
func (b Bands) RSIOverheated(mode core.Mode) float64 {
	if mode == core.ModeSwing {
		return b.RSIOverheatedSwing
	}
	return b.RSIOverheatedLong
}

// ConfidenceParams shape the confidence derived from a score.
type ConfidenceParams struct {
	Divisor         float64 `mapstructure:"divisor"`
	NeutralBase     float64 `mapstructure:"neutral_base"`
	DirectionalBase float64 `mapstructure:"directional_base"`
	Min             float64 `mapstructure:"min"`
	Max             float64 `mapstructure:"max"`
	Abstain         float64 `mapstructure:"abstain"`
}

// Params holds every tunable of the decision engine.
type Params struct {
	Thresholds Thresholds       `mapstructure:"thresholds"`
	Weights    Weights          `mapstructure:"weights"`
	Bands      Bands            `mapstructure:"bands"`
	Confidence ConfidenceParams `mapstructure:"confidence"`
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		Thresholds: Thresholds{
			Long:  Threshold{Buy: 5, Sell: -5},
			Swing: Threshold{Buy: 4, Sell: -4},
		},
		Weights: Weights{
			PriceVsSMA200:     2,
			SMA50VsSMA200:     2,
			SMA20VsSMA50:      1,
			RSIHealthy:        1,
			RSIOversold:       2,
			RSIOverheated:     2,
			MACDVsSignal:      1,
			VolatilityPenalty: 2,
			StableRise:        1,
			VolumeSurgeUp:     2,
			VolumeSurgeDown:   2,
			Near52wHigh:       1,
			Far52wHigh:        1,
			Drawdown:          1,
			Dividend:          1,
			ExpenseHigh:       1,
			ExpenseLow:        1,
			Anomaly:           1,
		},
		Bands: Bands{
			RSIHealthyLow:      45,
			RSIHealthyHigh:     60,
			RSIOversold:        35,
			RSIOverheatedLong:  70,
			RSIOverheatedSwing: 65,
			ATRHighPct:         5,
			ATRLowPct:          3,
			VolumeSurge:        1.5,
			Near52wHighPct:     10,
			Far52wHighPct:      25,
			DrawdownPct:        25,
			DividendYieldPct:   3,
			ExpenseHighPct:     0.6,
			ExpenseLowPct:      0.2,
		},
		Confidence: ConfidenceParams{
			Divisor:         10,
			NeutralBase:     0.1,
			DirectionalBase: 0.2,
			Min:             0.15,
			Max:             0.95,
			Abstain:         0.1,
		},
	}
}
