// Package ranking orders candidate snapshots for the popular, ETF and buy-candidate lists.
//
// Every ranking filters by eligibility, scores the survivors against pool maxima, sorts by
// score descending with ties broken by symbol, and assigns 1-based ranks.
package ranking

import (
	"math"
	"sort"

	"github.com/newthinker/kachi/internal/core"
)

// Scored is a score with its named sub-score breakdown.
type Scored struct {
	Score      float64
	Components map[string]float64
}

// ScoreFunc scores one snapshot.
type ScoreFunc func(core.CandidateSnapshot) Scored

// ScoreAndSort scores every snapshot and returns them ranked. The input is not modified.
func ScoreAndSort(snaps []core.CandidateSnapshot, score ScoreFunc) []core.RankedItem {
	items := make([]core.RankedItem, len(snaps))
	for i, s := range snaps {
		sc := score(s)
		items[i] = core.RankedItem{CandidateSnapshot: s, Score: sc.Score, Components: sc.Components}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Symbol < items[j].Symbol
	})
	applyRank(items)
	return items
}

func applyRank(items []core.RankedItem) {
	for i := range items {
		items[i].Rank = i + 1
		if items[i].Components == nil {
			items[i].Components = map[string]float64{}
		}
	}
}

// normalise divides by the pool maximum, yielding 0 for an empty or all-zero pool.
func normalise(value, peak float64) float64 {
	if peak == 0 {
		return 0
	}
	return value / peak
}

func poolMax(snaps []core.CandidateSnapshot, field func(core.CandidateSnapshot) float64) float64 {
	var m float64
	for _, s := range snaps {
		m = math.Max(m, field(s))
	}
	return m
}

func filter(snaps []core.CandidateSnapshot, keep func(core.CandidateSnapshot) bool) []core.CandidateSnapshot {
	out := make([]core.CandidateSnapshot, 0, len(snaps))
	for _, s := range snaps {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func volume(s core.CandidateSnapshot) float64 { return s.AverageVolume }
func views(s core.CandidateSnapshot) float64 { return core.Value(s.AppViews, 0) }
func yield(s core.CandidateSnapshot) float64 { return core.Value(s.DistributionYield, 0) }

// RankPopular ranks liquid symbols that app users look at.
func RankPopular(snaps []core.CandidateSnapshot, c PopularCriteria) []core.RankedItem {
	eligible := filter(snaps, func(s core.CandidateSnapshot) bool {
		return s.AverageVolume >= c.MinimumAverageVolume && views(s) >= c.MinimumAppViews
	})
	maxViews := poolMax(eligible, views)
	maxVolume := poolMax(eligible, volume)

	return ScoreAndSort(eligible, func(s core.CandidateSnapshot) Scored {
		v := views(s)
		return Scored{
			Score: normalise(v, maxViews)*c.Weights.AppViews +
				normalise(s.AverageVolume, maxVolume)*c.Weights.AverageVolume,
			Components: map[string]float64{
				"appViews":      v,
				"averageVolume": s.AverageVolume,
			},
		}
	})
}

// RankETFs ranks cheap, distributing funds. Snapshots without an expense ratio are ineligible.
func RankETFs(snaps []core.CandidateSnapshot, c ETFCriteria) []core.RankedItem {
	eligible := filter(snaps, func(s core.CandidateSnapshot) bool {
		expense := core.Value(s.ExpenseRatio, math.Inf(1))
		return expense <= c.MaxExpenseRatio && yield(s) >= c.MinDistributionYield
	})
	maxYield := poolMax(eligible, yield)
	maxVolume := poolMax(eligible, volume)

	return ScoreAndSort(eligible, func(s core.CandidateSnapshot) Scored {
		expense := core.Value(s.ExpenseRatio, c.MaxExpenseRatio)
		expenseScore := 0.0
		if c.MaxExpenseRatio > 0 {
			expenseScore = 1 - math.Min(expense/c.MaxExpenseRatio, 1)
		}
		y := yield(s)
		return Scored{
			Score: normalise(y, maxYield)*c.Weights.DistributionYield +
				expenseScore*c.Weights.ExpenseRatio +
				normalise(s.AverageVolume, maxVolume)*c.Weights.AverageVolume,
			Components: map[string]float64{
				"distributionYield": y,
				"expenseRatio":      expense,
				"averageVolume":     s.AverageVolume,
			},
		}
	})
}

// RankBuyCandidates ranks by buy score above the minimum. The square root on the volume
// share compresses liquidity's influence.
func RankBuyCandidates(snaps []core.CandidateSnapshot, c BuyCriteria) []core.RankedItem {
	eligible := filter(snaps, func(s core.CandidateSnapshot) bool {
		return core.Value(s.BuyScore, 0) >= c.MinBuyScore
	})
	maxVolume := poolMax(eligible, volume)
	scoreRange := math.Max(1, 100-c.MinBuyScore)

	return ScoreAndSort(eligible, func(s core.CandidateSnapshot) Scored {
		buy := core.Value(s.BuyScore, 0)
		return Scored{
			Score: math.Max(0, buy-c.MinBuyScore)/scoreRange*c.Weights.BuyScore +
				math.Sqrt(normalise(s.AverageVolume, maxVolume))*c.Weights.AverageVolume,
			Components: map[string]float64{
				"buyScore":      buy,
				"averageVolume": s.AverageVolume,
			},
		}
	})
}

// Top truncates a ranking to at most n items.
func Top(items []core.RankedItem, n int) []core.RankedItem {
	if n >= 0 && len(items) > n {
		return items[:n]
	}
	return items
}
