package indicator

import "github.com/newthinker/kachi/internal/core"

// Default oscillator periods.
const (
	RSIPeriod        = 14
	MACDFastPeriod   = 12
	MACDSlowPeriod   = 26
	MACDSignalPeriod = 9
)

// RSI returns the relative strength index over the last period adjusted-close deltas,
// using plain averages of gains and losses. It saturates at 100 when there is no loss.
func RSI(daily []core.DailyPoint, period int) (float64, bool) {
	if period <= 0 || len(daily) <= period {
		return 0, false
	}
	var gain, loss float64
	for i := len(daily) - period; i < len(daily); i++ {
		change := daily[i].AdjustedClose - daily[i-1].AdjustedClose
		if change > 0 {
			gain += change
		} else {
			loss -= change
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// MACD returns the MACD line (fast EMA - slow EMA) at the latest point and its signal line.
// The MACD series feeding the signal starts at index slow; both EMAs are maintained in a
// single forward pass.
func MACD(daily []core.DailyPoint, fast, slow, signal int) (macd, sig float64, ok bool) {
	if fast <= 0 || slow <= 0 || signal <= 0 || len(daily) < slow+signal {
		return 0, 0, false
	}
	closes := core.AdjustedCloses(daily)

	fastEMA := newEMA(fast, closes[0])
	slowEMA := newEMA(slow, closes[0])
	var signalEMA *ema

	for i := 1; i < len(closes); i++ {
		fastEMA.update(closes[i])
		slowEMA.update(closes[i])
		if i < slow {
			continue
		}
		line := fastEMA.value - slowEMA.value
		if signalEMA == nil {
			signalEMA = newEMA(signal, line)
		} else {
			signalEMA.update(line)
		}
	}
	if signalEMA == nil {
		return 0, 0, false
	}
	return fastEMA.value - slowEMA.value, signalEMA.value, true
}
