package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSet_Empty(t *testing.T) {
	set := BuildSet(nil, nil)

	assert.Nil(t, set.SMA20)
	assert.Nil(t, set.RSI14)
	assert.Nil(t, set.MACD)
	assert.Nil(t, set.MACDSignal)
	assert.Nil(t, set.ATR14)
	assert.Nil(t, set.MaxDrawdown)
	assert.Nil(t, set.DistFrom52wHigh)
	assert.Nil(t, set.DividendYieldTrailing)
}

func TestBuildSet_PartialHistory(t *testing.T) {
	// 60 points: enough for SMA50 and MACD, not for SMA200
	set := BuildSet(dailyFromCloses(rampCloses(60, 100, 0.5)...), monthlyWithDividends(6, 1, 100))

	require.NotNil(t, set.SMA20)
	require.NotNil(t, set.SMA50)
	assert.Nil(t, set.SMA200)
	require.NotNil(t, set.EMA20)
	require.NotNil(t, set.RSI14)
	require.NotNil(t, set.MACD)
	require.NotNil(t, set.MACDSignal)
	require.NotNil(t, set.ATR14)
	require.NotNil(t, set.VolumeRatio5)
	require.NotNil(t, set.VolumeRatio20)
	assert.Nil(t, set.DividendYieldTrailing, "six months is not a trailing year")

	assert.Greater(t, *set.SMA20, *set.SMA50)
	assert.Equal(t, 100.0, *set.RSI14)
	assert.Equal(t, 0.0, *set.MaxDrawdown)
	assert.Equal(t, 0.0, *set.DistFrom52wHigh)
	assert.InDelta(t, 1.0, *set.VolumeRatio5, 1e-12)
}

func TestBuildSet_FullHistory(t *testing.T) {
	set := BuildSet(dailyFromCloses(flatCloses(260, 100)...), monthlyWithDividends(24, 0.25, 100))

	require.NotNil(t, set.SMA200)
	assert.Equal(t, 100.0, *set.SMA200)
	require.NotNil(t, set.DividendYieldTrailing)
	assert.InDelta(t, 3.0, *set.DividendYieldTrailing, 1e-12)
}
