package indicator

import "github.com/newthinker/kachi/internal/core"

// BuildSet computes every indicator of an IndicatorSet. Fields whose lookback exceeds the
// available history stay nil.
func BuildSet(daily []core.DailyPoint, monthly []core.MonthlyPoint) core.IndicatorSet {
	closes := core.AdjustedCloses(daily)

	var set core.IndicatorSet
	set.SMA20 = opt(SMA(closes, 20))
	set.SMA50 = opt(SMA(closes, 50))
	set.SMA200 = opt(SMA(closes, 200))
	set.EMA20 = opt(EMA(closes, 20))
	set.RSI14 = opt(RSI(daily, RSIPeriod))
	if macd, signal, ok := MACD(daily, MACDFastPeriod, MACDSlowPeriod, MACDSignalPeriod); ok {
		set.MACD = core.Float64(macd)
		set.MACDSignal = core.Float64(signal)
	}
	set.ATR14 = opt(ATR(daily, ATRPeriod))
	set.VolumeRatio5 = opt(VolumeRatio(daily, 5))
	set.VolumeRatio20 = opt(VolumeRatio(daily, 20))
	set.MaxDrawdown = opt(MaxDrawdown(daily))
	set.DistFrom52wHigh = opt(DistFrom52wHigh(daily))
	set.DividendYieldTrailing = opt(DividendYieldTrailing(monthly))
	return set
}

func opt(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return core.Float64(v)
}
