package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDividendYieldTrailing(t *testing.T) {
	v, ok := DividendYieldTrailing(monthlyWithDividends(18, 0.5, 100))
	require.True(t, ok)
	assert.InDelta(t, 6.0, v, 1e-12)

	_, ok = DividendYieldTrailing(monthlyWithDividends(11, 0.5, 100))
	assert.False(t, ok)

	_, ok = DividendYieldTrailing(monthlyWithDividends(12, 0.5, 0))
	assert.False(t, ok, "zero latest close is absent")
}

func TestMonthlyChange(t *testing.T) {
	monthly := monthlyWithDividends(13, 0, 100)
	for i := range monthly {
		monthly[i].AdjustedClose = 100 + float64(i)*10
	}

	v, ok := MonthlyChange(monthly, 1)
	require.True(t, ok)
	assert.InDelta(t, (220.0-210.0)/210.0*100, v, 1e-9)

	v, ok = MonthlyChange(monthly, 12)
	require.True(t, ok)
	assert.InDelta(t, 120.0, v, 1e-9)

	_, ok = MonthlyChange(monthly, 13)
	assert.False(t, ok)

	monthly[0].AdjustedClose = 0
	_, ok = MonthlyChange(monthly, 12)
	assert.False(t, ok)
}
