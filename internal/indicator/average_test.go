package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA_Calculate(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15}

	// Latest SMA(3) = (13+14+15)/3
	v, ok := SMA(prices, 3)
	require.True(t, ok)
	assert.Equal(t, 14.0, v)
}

func TestSMA_IdenticalValues(t *testing.T) {
	v, ok := SMA(flatCloses(20, 100), 20)
	require.True(t, ok)
	assert.Equal(t, 100.0, v)
}

func TestSMA_NotEnoughData(t *testing.T) {
	_, ok := SMA([]float64{10, 11}, 5)
	assert.False(t, ok)

	_, ok = SMA(nil, 1)
	assert.False(t, ok)

	_, ok = SMA([]float64{1, 2, 3}, 0)
	assert.False(t, ok)
}

func TestEMA_SeededWithFirstValue(t *testing.T) {
	// k = 2/(3+1) = 0.5: 10 -> 10.5 -> 11.25
	v, ok := EMA([]float64{10, 11, 12}, 3)
	require.True(t, ok)
	assert.InDelta(t, 11.25, v, 1e-12)
}

func TestEMA_Trending(t *testing.T) {
	prices := rampCloses(30, 10, 1)
	v, ok := EMA(prices, 10)
	require.True(t, ok)

	// EMA lags a rising series but stays above its seed
	assert.Less(t, v, prices[len(prices)-1])
	assert.Greater(t, v, prices[0])
}

func TestEMA_NotEnoughData(t *testing.T) {
	_, ok := EMA([]float64{10, 11}, 5)
	assert.False(t, ok)
}
