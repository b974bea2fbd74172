package candidate

import (
	"math"

	"github.com/newthinker/kachi/internal/core"
)

// Pool summarises the scores of one candidate pool.
type Pool struct {
	MaxPopularity float64
	MaxETF        float64
}

// Apply scores every snapshot in place. It sets PopularityScore on all of them, ETFScore on
// ETFs and BuyScore on BUY decisions only.
func (s *Scorer) Apply(snaps []core.CandidateSnapshot) Pool {
	var pool Pool
	for i := range snaps {
		pop := s.Popularity(snaps[i])
		snaps[i].PopularityScore = core.Float64(pop)
		pool.MaxPopularity = math.Max(pool.MaxPopularity, pop)

		if snaps[i].InstrumentType == core.InstrumentETF {
			etf := s.ETFScore(snaps[i])
			snaps[i].ETFScore = core.Float64(etf)
			pool.MaxETF = math.Max(pool.MaxETF, etf)
		}
	}

	for i := range snaps {
		snaps[i].BuyScore = nil
		if snaps[i].Decision != core.DecisionBuy {
			continue
		}
		adjusted := s.AdjustConfidence(snaps[i].Confidence, *snaps[i].PopularityScore, pool.MaxPopularity)
		snaps[i].BuyScore = core.Float64(math.Round(adjusted * 100))
	}
	return pool
}

// WithPopularityConfidence returns a copy with confidence raised by the popularity score.
func (s *Scorer) WithPopularityConfidence(snap core.CandidateSnapshot, pool Pool) core.CandidateSnapshot {
	snap.Confidence = s.AdjustConfidence(snap.Confidence, core.Value(snap.PopularityScore, 0), pool.MaxPopularity)
	return snap
}

// WithETFConfidence returns a copy with confidence raised by the ETF score.
func (s *Scorer) WithETFConfidence(snap core.CandidateSnapshot, pool Pool) core.CandidateSnapshot {
	snap.Confidence = s.AdjustConfidence(snap.Confidence, core.Value(snap.ETFScore, 0), pool.MaxETF)
	return snap
}
