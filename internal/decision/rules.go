package decision

import "github.com/newthinker/kachi/internal/core"

// DefaultRules returns the stock rule set in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		RuleFunc{"price_vs_sma200", priceVsSMA200},
		RuleFunc{"sma50_vs_sma200", sma50VsSMA200},
		RuleFunc{"sma20_vs_sma50", sma20VsSMA50},
		RuleFunc{"rsi14", rsiBand},
		RuleFunc{"macd_vs_signal", macdVsSignal},
		RuleFunc{"atr_volatility", atrVolatility},
		RuleFunc{"volume_surge", volumeSurge},
		RuleFunc{"distance_52w_high", distance52wHigh},
		RuleFunc{"max_drawdown", maxDrawdown},
		RuleFunc{"dividend_yield", dividendYield},
		RuleFunc{"expense_ratio", expenseRatio},
	}
}

func priceVsSMA200(ctx *Context) (core.ScoreReason, bool) {
	sma := ctx.Metrics.SMA200
	if sma == nil {
		return core.ScoreReason{}, false
	}
	w := ctx.Params.Weights.PriceVsSMA200
	price := ctx.Latest.AdjustedClose
	if price > *sma {
		return reason(w, "close %.2f above SMA200 (%.2f)", price, *sma)
	}
	return reason(-w, "close %.2f not above SMA200 (%.2f)", price, *sma)
}

func sma50VsSMA200(ctx *Context) (core.ScoreReason, bool) {
	m := ctx.Metrics
	if m.SMA50 == nil || m.SMA200 == nil {
		return core.ScoreReason{}, false
	}
	w := ctx.Params.Weights.SMA50VsSMA200
	if *m.SMA50 > *m.SMA200 {
		return reason(w, "SMA50 (%.2f) above SMA200 (%.2f)", *m.SMA50, *m.SMA200)
	}
	return reason(-w, "SMA50 (%.2f) not above SMA200 (%.2f)", *m.SMA50, *m.SMA200)
}

func sma20VsSMA50(ctx *Context) (core.ScoreReason, bool) {
	m := ctx.Metrics
	if m.SMA20 == nil || m.SMA50 == nil {
		return core.ScoreReason{}, false
	}
	w := ctx.Params.Weights.SMA20VsSMA50
	if *m.SMA20 > *m.SMA50 {
		return reason(w, "SMA20 (%.2f) above SMA50 (%.2f)", *m.SMA20, *m.SMA50)
	}
	return reason(-w, "SMA20 (%.2f) not above SMA50 (%.2f)", *m.SMA20, *m.SMA50)
}

func rsiBand(ctx *Context) (core.ScoreReason, bool) {
	if ctx.Metrics.RSI14 == nil {
		return core.ScoreReason{}, false
	}
	rsi := *ctx.Metrics.RSI14
	b, w := ctx.Params.Bands, ctx.Params.Weights
	upper := b.RSIOverheated(ctx.Mode)
	switch {
	case rsi >= b.RSIHealthyLow && rsi <= b.RSIHealthyHigh:
		return reason(w.RSIHealthy, "RSI14 in healthy range (%.1f)", rsi)
	case rsi < b.RSIOversold:
		return reason(-w.RSIOversold, "RSI14 oversold (%.1f < %g)", rsi, b.RSIOversold)
	case rsi > upper:
		return reason(-w.RSIOverheated, "RSI14 overheated (%.1f > %g)", rsi, upper)
	}
	return core.ScoreReason{}, false
}

func macdVsSignal(ctx *Context) (core.ScoreReason, bool) {
	m := ctx.Metrics
	if m.MACD == nil || m.MACDSignal == nil {
		return core.ScoreReason{}, false
	}
	w := ctx.Params.Weights.MACDVsSignal
	if *m.MACD > *m.MACDSignal {
		return reason(w, "MACD (%.3f) above signal (%.3f)", *m.MACD, *m.MACDSignal)
	}
	return reason(-w, "MACD (%.3f) not above signal (%.3f)", *m.MACD, *m.MACDSignal)
}

func atrVolatility(ctx *Context) (core.ScoreReason, bool) {
	price := ctx.Latest.AdjustedClose
	if ctx.Metrics.ATR14 == nil || price <= 0 {
		return core.ScoreReason{}, false
	}
	change, ok := ctx.PriceChange()
	if !ok {
		return core.ScoreReason{}, false
	}
	atrRatio := *ctx.Metrics.ATR14 / price * 100
	b, w := ctx.Params.Bands, ctx.Params.Weights
	switch {
	case atrRatio > b.ATRHighPct && change < 0:
		return reason(-w.VolatilityPenalty, "high volatility on a down day, ATR %.1f%% of close", atrRatio)
	case atrRatio < b.ATRLowPct && change > 0:
		return reason(w.StableRise, "steady rise, ATR %.1f%% of close", atrRatio)
	}
	return core.ScoreReason{}, false
}

func volumeSurge(ctx *Context) (core.ScoreReason, bool) {
	ratio := ctx.Metrics.VolumeRatio5
	if ratio == nil || ctx.Prev == nil || *ratio <= ctx.Params.Bands.VolumeSurge {
		return core.ScoreReason{}, false
	}
	w := ctx.Params.Weights
	switch {
	case ctx.Latest.AdjustedClose > ctx.Prev.AdjustedClose:
		return reason(w.VolumeSurgeUp, "volume surge %.2fx on a rising close", *ratio)
	case ctx.Latest.AdjustedClose < ctx.Prev.AdjustedClose:
		return reason(-w.VolumeSurgeDown, "volume surge %.2fx on a falling close", *ratio)
	}
	return core.ScoreReason{}, false
}

func distance52wHigh(ctx *Context) (core.ScoreReason, bool) {
	if ctx.Metrics.DistFrom52wHigh == nil {
		return core.ScoreReason{}, false
	}
	dist := *ctx.Metrics.DistFrom52wHigh
	b, w := ctx.Params.Bands, ctx.Params.Weights
	switch {
	case dist < b.Near52wHighPct:
		return reason(w.Near52wHigh, "%.1f%% below the 52-week high", dist)
	case dist > b.Far52wHighPct:
		return reason(-w.Far52wHigh, "%.1f%% below the 52-week high", dist)
	}
	return core.ScoreReason{}, false
}

func maxDrawdown(ctx *Context) (core.ScoreReason, bool) {
	dd := ctx.Metrics.MaxDrawdown
	if dd == nil || *dd <= ctx.Params.Bands.DrawdownPct {
		return core.ScoreReason{}, false
	}
	return reason(-ctx.Params.Weights.Drawdown, "max drawdown %.1f%%", *dd)
}

// dividendYield prefers the trailing yield and falls back to the overview figure.
func dividendYield(ctx *Context) (core.ScoreReason, bool) {
	yield := ctx.Metrics.DividendYieldTrailing
	if yield == nil && ctx.Overview != nil {
		yield = ctx.Overview.DividendYield
	}
	if yield == nil || *yield <= ctx.Params.Bands.DividendYieldPct {
		return core.ScoreReason{}, false
	}
	return reason(ctx.Params.Weights.Dividend, "dividend yield %.2f%%", *yield)
}

func expenseRatio(ctx *Context) (core.ScoreReason, bool) {
	if ctx.Profile == nil || ctx.Profile.ExpenseRatio == nil {
		return core.ScoreReason{}, false
	}
	pct := *ctx.Profile.ExpenseRatio * 100
	b, w := ctx.Params.Bands, ctx.Params.Weights
	switch {
	case pct > b.ExpenseHighPct:
		return reason(-w.ExpenseHigh, "high expense ratio %.2f%%", pct)
	case pct < b.ExpenseLowPct:
		return reason(w.ExpenseLow, "low-cost fund, expense ratio %.2f%%", pct)
	}
	return core.ScoreReason{}, false
}
