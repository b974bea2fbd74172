package indicator

import "github.com/newthinker/kachi/internal/core"

// MonthsPerYear is the trailing window of the dividend yield.
const MonthsPerYear = 12

// DividendYieldTrailing sums the dividends of the trailing 12 monthly points and divides
// by the latest adjusted close, in percent.
func DividendYieldTrailing(monthly []core.MonthlyPoint) (float64, bool) {
	if len(monthly) < MonthsPerYear {
		return 0, false
	}
	recent := monthly[len(monthly)-MonthsPerYear:]
	var dividends float64
	for _, p := range recent {
		dividends += p.Dividend
	}
	latest := recent[len(recent)-1].AdjustedClose
	if latest == 0 {
		return 0, false
	}
	return dividends / latest * 100, true
}

// MonthlyChange returns the percent change of the latest monthly adjusted close versus the
// close `months` points earlier.
func MonthlyChange(monthly []core.MonthlyPoint, months int) (float64, bool) {
	if months <= 0 || len(monthly) <= months {
		return 0, false
	}
	latest := monthly[len(monthly)-1].AdjustedClose
	base := monthly[len(monthly)-1-months].AdjustedClose
	if base == 0 {
		return 0, false
	}
	return (latest - base) / base * 100, true
}
