package ranking

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/kachi/internal/core"
)

func ptr(v float64) *float64 { return &v }

func fixture() []core.CandidateSnapshot {
	return []core.CandidateSnapshot{
		{Symbol: "AAPL", InstrumentType: core.InstrumentEquity, AverageVolume: 1_000_000, AppViews: ptr(2000), BuyScore: ptr(85)},
		{Symbol: "MSFT", InstrumentType: core.InstrumentEquity, AverageVolume: 900_000, AppViews: ptr(1800), BuyScore: ptr(80)},
		{Symbol: "VOO", InstrumentType: core.InstrumentETF, AverageVolume: 1_200_000, AppViews: ptr(1500),
			ExpenseRatio: ptr(0.0004), DistributionYield: ptr(0.012), BuyScore: ptr(78)},
		{Symbol: "QQQ", InstrumentType: core.InstrumentETF, AverageVolume: 1_100_000, AppViews: ptr(1400),
			ExpenseRatio: ptr(0.002), DistributionYield: ptr(0.008), BuyScore: ptr(72)},
		{Symbol: "SCHD", InstrumentType: core.InstrumentETF, AverageVolume: 800_000, AppViews: ptr(1300),
			ExpenseRatio: ptr(0.0006), DistributionYield: ptr(0.031), BuyScore: ptr(75)},
	}
}

func symbols(items []core.RankedItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Symbol
	}
	return out
}

func popularCriteria() PopularCriteria {
	c := DefaultCriteria().Popular
	c.MinimumAverageVolume = 500_000
	c.MinimumAppViews = 1000
	return c
}

func etfs(snaps []core.CandidateSnapshot) []core.CandidateSnapshot {
	return filter(snaps, func(s core.CandidateSnapshot) bool { return s.InstrumentType == core.InstrumentETF })
}

func TestRankPopular_OrdersByViewsAndVolume(t *testing.T) {
	ranked := RankPopular(fixture(), popularCriteria())

	assert.Equal(t, []string{"AAPL", "MSFT", "VOO", "QQQ", "SCHD"}, symbols(ranked))
	assert.Equal(t, map[string]float64{"appViews": 2000, "averageVolume": 1_000_000}, ranked[0].Components)
	assert.InDelta(t, 0.95, ranked[0].Score, 1e-9)
	for i, it := range ranked {
		assert.Equal(t, i+1, it.Rank)
	}
}

func TestRankPopular_FiltersBelowThresholds(t *testing.T) {
	snaps := []core.CandidateSnapshot{
		{Symbol: "LOWV", AverageVolume: 100, AppViews: ptr(5)},
		{Symbol: "MEETS", AverageVolume: 600_000, AppViews: ptr(1000)},
		{Symbol: "NOVIEWS", AverageVolume: 600_000},
	}
	assert.Equal(t, []string{"MEETS"}, symbols(RankPopular(snaps, popularCriteria())))
}

func TestRankETFs_OrdersByYieldExpenseAndLiquidity(t *testing.T) {
	ranked := RankETFs(etfs(fixture()), DefaultCriteria().ETF)

	require.Equal(t, []string{"SCHD", "VOO"}, symbols(ranked))
	assert.InDelta(t, 0.0006, ranked[0].Components["expenseRatio"], 1e-9)
	assert.InDelta(t, 0.031, ranked[0].Components["distributionYield"], 1e-9)
	assert.InDelta(t, 0.6815, ranked[1].Score, 1e-9)
}

func TestRankETFs_FiltersOutsideConstraints(t *testing.T) {
	snaps := []core.CandidateSnapshot{
		{Symbol: "HIGHEXP", InstrumentType: core.InstrumentETF, AverageVolume: 200_000, ExpenseRatio: ptr(0.02), DistributionYield: ptr(0.02)},
		{Symbol: "LOWYIELD", InstrumentType: core.InstrumentETF, AverageVolume: 200_000, ExpenseRatio: ptr(0.001), DistributionYield: ptr(0.005)},
		{Symbol: "NOEXP", InstrumentType: core.InstrumentETF, AverageVolume: 200_000, DistributionYield: ptr(0.05)},
	}
	ranked := RankETFs(snaps, DefaultCriteria().ETF)
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)
}

func TestRankBuyCandidates_OrdersByScoreAndLiquidity(t *testing.T) {
	c := DefaultCriteria().Buy
	c.MinBuyScore = 75

	ranked := RankBuyCandidates(fixture(), c)

	assert.Equal(t, []string{"AAPL", "MSFT", "VOO", "SCHD"}, symbols(ranked))
	for _, it := range ranked {
		assert.GreaterOrEqual(t, it.Components["buyScore"], c.MinBuyScore)
	}
}

func TestRankBuyCandidates_FiltersByMinimumScore(t *testing.T) {
	c := DefaultCriteria().Buy
	c.MinBuyScore = 75
	snaps := []core.CandidateSnapshot{
		{Symbol: "LOW", AverageVolume: 200_000, BuyScore: ptr(60)},
		{Symbol: "HIGH", AverageVolume: 300_000, BuyScore: ptr(90)},
		{Symbol: "NONE", AverageVolume: 900_000},
	}
	assert.Equal(t, []string{"HIGH"}, symbols(RankBuyCandidates(snaps, c)))
}

func TestRankBuyCandidates_MissingScoreCountsAsZero(t *testing.T) {
	c := DefaultCriteria().Buy
	c.MinBuyScore = 0
	snaps := []core.CandidateSnapshot{
		{Symbol: "HOLD", AverageVolume: 400_000},
		{Symbol: "BUY", AverageVolume: 100_000, BuyScore: ptr(80)},
	}

	ranked := RankBuyCandidates(snaps, c)
	require.Equal(t, []string{"BUY", "HOLD"}, symbols(ranked))
	assert.Equal(t, 0.0, ranked[1].Components["buyScore"])
}

func TestRankBuyCandidates_ZeroVolumePool(t *testing.T) {
	snaps := []core.CandidateSnapshot{
		{Symbol: "B", BuyScore: ptr(90)},
		{Symbol: "A", BuyScore: ptr(90)},
		{Symbol: "C", BuyScore: ptr(100)},
	}
	ranked := RankBuyCandidates(snaps, DefaultCriteria().Buy)

	require.Equal(t, []string{"C", "A", "B"}, symbols(ranked))
	assert.InDelta(t, 0.7, ranked[0].Score, 1e-9)
	assert.InDelta(t, 0.4666666667, ranked[1].Score, 1e-9)
	assert.Equal(t, ranked[1].Score, ranked[2].Score)
}

func TestRanking_Idempotent(t *testing.T) {
	criteria := DefaultCriteria()
	run := func() []byte {
		out := map[string][]core.RankedItem{
			"popular": RankPopular(fixture(), popularCriteria()),
			"etfs":    RankETFs(etfs(fixture()), criteria.ETF),
			"buy":     RankBuyCandidates(fixture(), criteria.Buy),
		}
		b, err := json.Marshal(out)
		require.NoError(t, err)
		return b
	}
	assert.Equal(t, string(run()), string(run()))
}

func TestScoreAndSort_TiesBreakBySymbol(t *testing.T) {
	snaps := []core.CandidateSnapshot{{Symbol: "ZED"}, {Symbol: "ALPHA"}, {Symbol: "MID"}}
	ranked := ScoreAndSort(snaps, func(core.CandidateSnapshot) Scored { return Scored{Score: 1} })

	assert.Equal(t, []string{"ALPHA", "MID", "ZED"}, symbols(ranked))
	assert.NotNil(t, ranked[0].Components)
	assert.Equal(t, "ZED", snaps[0].Symbol)
}

func TestTop(t *testing.T) {
	ranked := RankPopular(fixture(), popularCriteria())
	assert.Len(t, Top(ranked, 2), 2)
	assert.Len(t, Top(ranked, 10), 5)
	assert.Empty(t, Top(ranked, 0))
}
