package indicator

import (
	"time"

	"github.com/newthinker/kachi/internal/core"
)

// dailyFromCloses builds a daily series with the given adjusted closes, a 2-point
// high/low band and constant volume.
func dailyFromCloses(closes ...float64) []core.DailyPoint {
	start := core.NewDate(2023, time.January, 2)
	out := make([]core.DailyPoint, len(closes))
	for i, c := range closes {
		out[i] = core.DailyPoint{
			Date:             core.Date{Time: start.AddDate(0, 0, i)},
			Open:             c,
			High:             c + 1,
			Low:              c - 1,
			Close:            c,
			AdjustedClose:    c,
			Volume:           1000,
			SplitCoefficient: 1,
		}
	}
	return out
}

func flatCloses(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func rampCloses(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func monthlyWithDividends(n int, dividend, close float64) []core.MonthlyPoint {
	start := core.NewDate(2020, time.January, 31)
	out := make([]core.MonthlyPoint, n)
	for i := range out {
		out[i] = core.MonthlyPoint{
			Date:          core.Date{Time: start.AddDate(0, i, 0)},
			Close:         close,
			AdjustedClose: close,
			Dividend:      dividend,
		}
	}
	return out
}
