// Package candidate derives the ranking-only composite scores of decided snapshots.
package candidate

import (
	"math"

	"github.com/newthinker/kachi/internal/core"
)

// PopularityWeights weight the popularity components.
type PopularityWeights struct {
	LogVolume      float64 `mapstructure:"log_volume"`
	RelativeVolume float64 `mapstructure:"relative_volume"`
	TrendFlags     float64 `mapstructure:"trend_flags"`
	Momentum       float64 `mapstructure:"momentum"`
	Distance       float64 `mapstructure:"distance"`
	RSI            float64 `mapstructure:"rsi"`

	RelativeVolumeFloor float64 `mapstructure:"relative_volume_floor"`
	DistanceScale       float64 `mapstructure:"distance_scale"`
	RSICenter           float64 `mapstructure:"rsi_center"`
	RSISpread           float64 `mapstructure:"rsi_spread"`
}

// ETFWeights weight the ETF quality components and hold the neutral fallbacks used when
// a metric is missing.
type ETFWeights struct {
	Expense       float64 `mapstructure:"expense"`
	Risk          float64 `mapstructure:"risk"`
	Momentum      float64 `mapstructure:"momentum"`
	ExpenseBase   float64 `mapstructure:"expense_base"`
	RiskCap       float64 `mapstructure:"risk_cap"`
	DrawdownScale float64 `mapstructure:"drawdown_scale"`

	FallbackExpense    float64 `mapstructure:"fallback_expense"`
	FallbackVolatility float64 `mapstructure:"fallback_volatility"`
	FallbackDrawdown   float64 `mapstructure:"fallback_drawdown"`
	FallbackMomentum   float64 `mapstructure:"fallback_momentum"`
}

// ConfidenceBand is the range a pool-relative score is mapped into.
type ConfidenceBand struct {
	Low  float64 `mapstructure:"low"`
	High float64 `mapstructure:"high"`
}

// Weights groups every tunable of the scorer.
type Weights struct {
	Popularity PopularityWeights `mapstructure:"popularity"`
	ETF        ETFWeights        `mapstructure:"etf"`
	Confidence ConfidenceBand    `mapstructure:"confidence"`
}

// DefaultWeights returns the stock tuning.
func DefaultWeights() Weights {
	return Weights{
		Popularity: PopularityWeights{
			LogVolume:           0.35,
			RelativeVolume:      0.25,
			TrendFlags:          0.30,
			Momentum:            0.25,
			Distance:            0.20,
			RSI:                 0.15,
			RelativeVolumeFloor: 0.5,
			DistanceScale:       30,
			RSICenter:           55,
			RSISpread:           35,
		},
		ETF: ETFWeights{
			Expense:            0.5,
			Risk:               0.3,
			Momentum:           0.2,
			ExpenseBase:        1.2,
			RiskCap:            1.5,
			DrawdownScale:      35,
			FallbackExpense:    0.6,
			FallbackVolatility: 0.7,
			FallbackDrawdown:   0.7,
			FallbackMomentum:   0.6,
		},
		Confidence: ConfidenceBand{Low: 0.35, High: 0.85},
	}
}

// Scorer computes popularity and ETF quality scores.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer.
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Popularity scores how actively traded and technically strong a symbol is.
func (s *Scorer) Popularity(snap core.CandidateSnapshot) float64 {
	w := s.weights.Popularity
	m := snap.Indicators

	logVolume := math.Log10(math.Max(1, snap.AverageVolume))
	relVol := relativeVolume(m)

	return w.LogVolume*logVolume +
		w.RelativeVolume*math.Max(0, relVol-w.RelativeVolumeFloor) +
		w.TrendFlags*float64(TrendFlags(snap)) +
		w.Momentum*momentumComposite(snap) +
		w.Distance*s.distanceScore(m) +
		w.RSI*s.rsiScore(m)
}

// TrendFlags counts bullish alignments: sma20>sma50, sma50>sma200, close>sma50, close>sma200.
func TrendFlags(snap core.CandidateSnapshot) int {
	m := snap.Indicators
	flags := 0
	if m.SMA20 != nil && m.SMA50 != nil && *m.SMA20 > *m.SMA50 {
		flags++
	}
	if m.SMA50 != nil && m.SMA200 != nil && *m.SMA50 > *m.SMA200 {
		flags++
	}
	if m.SMA50 != nil && snap.LatestClose > *m.SMA50 {
		flags++
	}
	if m.SMA200 != nil && snap.LatestClose > *m.SMA200 {
		flags++
	}
	return flags
}

func relativeVolume(m core.IndicatorSet) float64 {
	var sum float64
	n := 0
	for _, r := range []*float64{m.VolumeRatio5, m.VolumeRatio20} {
		if r != nil {
			sum += *r
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return sum / float64(n)
}

func momentumComposite(snap core.CandidateSnapshot) float64 {
	t1 := core.Value(snap.MonthlyTrend1, 0)
	t3 := core.Value(snap.MonthlyTrend3, 0)
	t12 := core.Value(snap.MonthlyTrend12, 0)
	return (t1*0.5 + t3*1.5 + t12*0.5) / 10
}

func (s *Scorer) distanceScore(m core.IndicatorSet) float64 {
	if m.DistFrom52wHigh == nil {
		return 0.5
	}
	return math.Max(0, 1-*m.DistFrom52wHigh/s.weights.Popularity.DistanceScale)
}

func (s *Scorer) rsiScore(m core.IndicatorSet) float64 {
	if m.RSI14 == nil {
		return 0
	}
	w := s.weights.Popularity
	return 1 - math.Abs(*m.RSI14-w.RSICenter)/w.RSISpread
}

// ETFScore rates a fund on cost, risk and medium-term momentum. Missing metrics fall back
// to neutral constants so a thin profile never disqualifies a fund.
func (s *Scorer) ETFScore(snap core.CandidateSnapshot) float64 {
	w := s.weights.ETF
	m := snap.Indicators

	expense := w.FallbackExpense
	if snap.ExpenseRatio != nil {
		expense = math.Max(0, w.ExpenseBase-*snap.ExpenseRatio*100)
	}

	volatility := w.FallbackVolatility
	if m.ATR14 != nil && snap.LatestClose > 0 {
		volatility = math.Max(0, w.RiskCap-(*m.ATR14/snap.LatestClose)*100/4)
	}

	drawdown := w.FallbackDrawdown
	if m.MaxDrawdown != nil {
		drawdown = math.Max(0, w.RiskCap-*m.MaxDrawdown/w.DrawdownScale)
	}

	momentum := w.FallbackMomentum
	if snap.MonthlyTrend3 != nil && snap.MonthlyTrend12 != nil {
		momentum = math.Max(0, (*snap.MonthlyTrend3*0.7+*snap.MonthlyTrend12*0.3)/12)
	}

	return w.Expense*expense + w.Risk*(volatility+drawdown)/2 + w.Momentum*momentum
}

// AdjustConfidence maps a pool-relative score into the confidence band and returns it when it
// exceeds the base confidence. The result is never below base.
func (s *Scorer) AdjustConfidence(base, raw, poolMax float64) float64 {
	return AdjustConfidence(base, raw, poolMax, s.weights.Confidence)
}

// AdjustConfidence is the band-explicit form of Scorer.AdjustConfidence.
func AdjustConfidence(base, raw, poolMax float64, band ConfidenceBand) float64 {
	if poolMax <= 0 || math.IsNaN(raw) {
		return base
	}
	norm := math.Min(1, math.Max(0, raw/poolMax))
	derived := band.Low + norm*(band.High-band.Low)
	return math.Max(base, derived)
}
