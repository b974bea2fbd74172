package indicator

import (
	"math"

	"github.com/newthinker/kachi/internal/core"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// ATRPeriod is the default average true range window.
	ATRPeriod = 14
	// TradingDaysPerYear bounds the 52-week high lookback.
	TradingDaysPerYear = 252
)

// ATR returns the mean true range over the trailing period days. The previous close of
// each true range is the prior day's adjusted close.
func ATR(daily []core.DailyPoint, period int) (float64, bool) {
	if period <= 0 || len(daily) <= period {
		return 0, false
	}
	ranges := make([]float64, 0, period)
	for i := len(daily) - period; i < len(daily); i++ {
		cur, prevClose := daily[i], daily[i-1].AdjustedClose
		tr := math.Max(cur.High-cur.Low, math.Max(math.Abs(cur.High-prevClose), math.Abs(cur.Low-prevClose)))
		ranges = append(ranges, tr)
	}
	return stat.Mean(ranges, nil), true
}

// MaxDrawdown returns the largest peak-to-point decline across the whole series, in percent.
func MaxDrawdown(daily []core.DailyPoint) (float64, bool) {
	if len(daily) == 0 {
		return 0, false
	}
	peak := daily[0].AdjustedClose
	var maxDD float64
	for _, p := range daily {
		if p.AdjustedClose > peak {
			peak = p.AdjustedClose
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - p.AdjustedClose) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD * 100, true
}

// DistFrom52wHigh returns how far, in percent, the latest adjusted close sits below the
// highest adjusted close of the trailing 252 points.
func DistFrom52wHigh(daily []core.DailyPoint) (float64, bool) {
	if len(daily) == 0 {
		return 0, false
	}
	recent := daily
	if len(recent) > TradingDaysPerYear {
		recent = recent[len(recent)-TradingDaysPerYear:]
	}
	high := floats.Max(core.AdjustedCloses(recent))
	if high <= 0 {
		return 0, false
	}
	latest := recent[len(recent)-1].AdjustedClose
	return (high - latest) / high * 100, true
}

// VolumeRatio divides the latest volume by the mean volume of the trailing period days.
func VolumeRatio(daily []core.DailyPoint, period int) (float64, bool) {
	if period <= 0 || len(daily) < period {
		return 0, false
	}
	avg := stat.Mean(core.Volumes(daily[len(daily)-period:]), nil)
	if avg == 0 {
		return 0, false
	}
	return daily[len(daily)-1].Volume / avg, true
}

// AverageVolume returns the mean volume over the trailing lookback days, or over the whole
// series when it is shorter.
func AverageVolume(daily []core.DailyPoint, lookback int) float64 {
	if len(daily) == 0 {
		return 0
	}
	recent := daily
	if lookback > 0 && len(recent) > lookback {
		recent = recent[len(recent)-lookback:]
	}
	return stat.Mean(core.Volumes(recent), nil)
}
