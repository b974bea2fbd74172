// Package indicator computes technical indicators from daily and monthly price series.
// Every function is total: insufficient history yields ok=false instead of an error or
// an approximation.
package indicator

import (
	"gonum.org/v1/gonum/floats"
)

// SMA returns the arithmetic mean of the last period values.
func SMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	return floats.Sum(values[len(values)-period:]) / float64(period), true
}

// EMA returns the exponential moving average at the latest value. The average is seeded
// with values[0] and updated with k = 2/(period+1) over the whole series.
func EMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	e := newEMA(period, values[0])
	for _, v := range values[1:] {
		e.update(v)
	}
	return e.value, true
}

// ema is running exponential moving average state.
type ema struct {
	k     float64
	value float64
}

func newEMA(period int, seed float64) *ema {
	return &ema{k: 2 / float64(period+1), value: seed}
}

func (e *ema) update(v float64) {
	e.value = v*e.k + e.value*(1-e.k)
}
