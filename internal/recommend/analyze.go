package recommend

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/newthinker/kachi/internal/core"
	"github.com/newthinker/kachi/internal/decision"
	"github.com/newthinker/kachi/internal/indicator"
)

// marketData is everything fetched for one symbol.
type marketData struct {
	daily    []core.DailyPoint
	monthly  []core.MonthlyPoint
	overview *core.OverviewProfile
	profile  *core.EtfProfile
}

// Analyze returns the pool-independent snapshot of one symbol, from cache when
// fresh. Concurrent misses on the same key share one computation, which runs
// detached from any single caller and is bounded by FetchTimeout; a cancelled
// caller stops waiting without failing the others.
func (s *Service) Analyze(ctx context.Context, apiKey string, mode core.Mode, symbol string) (core.CandidateSnapshot, error) {
	key := cacheKey{apiKey: apiKey, mode: mode, symbol: symbol}
	if snap, ok := s.cache.Get(key); ok {
		s.observe(func(r Recorder) { r.RecordCacheLookup(true) })
		return snap, nil
	}
	s.observe(func(r Recorder) { r.RecordCacheLookup(false) })

	ch := s.flight.DoChan(key.String(), func() (any, error) {
		if snap, ok := s.cache.Get(key); ok {
			return snap, nil
		}
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.FetchTimeout)
		defer cancel()
		data, err := s.fetch(fctx, apiKey, symbol)
		if err != nil {
			return nil, err
		}
		snap := s.snapshot(symbol, mode, data)
		s.cache.Set(key, snap)
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return core.CandidateSnapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return core.CandidateSnapshot{}, res.Err
		}
		return res.Val.(core.CandidateSnapshot), nil
	}
}

// fetch issues the four requests of one symbol concurrently. Series failures
// fail the symbol; a missing or failing profile only drops that profile.
func (s *Service) fetch(ctx context.Context, apiKey, symbol string) (*marketData, error) {
	var data marketData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		daily, err := s.market.DailyAdjusted(gctx, apiKey, symbol)
		if err != nil {
			return fmt.Errorf("daily series: %w", err)
		}
		data.daily = daily
		return nil
	})
	g.Go(func() error {
		monthly, err := s.market.MonthlyAdjusted(gctx, apiKey, symbol)
		if err != nil {
			return fmt.Errorf("monthly series: %w", err)
		}
		data.monthly = monthly
		return nil
	})
	g.Go(func() error {
		overview, err := s.market.Overview(gctx, apiKey, symbol)
		if err != nil {
			s.logger.Debug("overview unavailable", zap.String("symbol", symbol), zap.Error(err))
			return nil
		}
		data.overview = overview
		return nil
	})
	g.Go(func() error {
		profile, err := s.market.ETFProfile(gctx, apiKey, symbol)
		if err != nil {
			s.logger.Debug("etf profile unavailable", zap.String("symbol", symbol), zap.Error(err))
			return nil
		}
		data.profile = profile
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", symbol, err)
	}
	return &data, nil
}

// snapshot scores one symbol and assembles its candidate snapshot.
func (s *Service) snapshot(symbol string, mode core.Mode, data *marketData) core.CandidateSnapshot {
	metrics := indicator.BuildSet(data.daily, data.monthly)
	result := s.engine.Decide(decision.Input{
		Metrics:   metrics,
		Daily:     data.daily,
		Monthly:   data.monthly,
		Mode:      mode,
		Profile:   data.profile,
		Overview:  data.overview,
		Anomalies: s.detector.Detect(data.daily),
	})
	s.observe(func(r Recorder) { r.RecordDecision(string(mode), string(result.Decision)) })

	snap := core.CandidateSnapshot{
		Symbol:            symbol,
		Name:              displayName(symbol, data),
		InstrumentType:    core.InstrumentEquity,
		Decision:          result.Decision,
		Confidence:        result.Confidence,
		Horizon:           result.Horizon,
		Indicators:        metrics,
		AverageVolume:     indicator.AverageVolume(data.daily, s.cfg.Criteria.Popular.LookbackDays),
		MonthlyTrend1:     monthlyTrend(data.monthly, 1),
		MonthlyTrend3:     monthlyTrend(data.monthly, 3),
		MonthlyTrend12:    monthlyTrend(data.monthly, 12),
		DistributionYield: distributionYield(metrics, data),
	}
	if n := len(data.daily); n > 0 {
		snap.LatestClose = data.daily[n-1].AdjustedClose
	}
	if data.profile != nil {
		snap.InstrumentType = core.InstrumentETF
		snap.ExpenseRatio = data.profile.ExpenseRatio
	}
	return snap
}

func displayName(symbol string, data *marketData) string {
	if data.profile != nil && data.profile.Name != "" {
		return data.profile.Name
	}
	if data.overview != nil && data.overview.Name != "" {
		return data.overview.Name
	}
	return symbol
}

func monthlyTrend(monthly []core.MonthlyPoint, months int) *float64 {
	if v, ok := indicator.MonthlyChange(monthly, months); ok {
		return core.Float64(v)
	}
	return nil
}

// distributionYield is a fraction: the ETF profile yield, else the trailing
// dividend yield, else the overview yield.
func distributionYield(metrics core.IndicatorSet, data *marketData) *float64 {
	if data.profile != nil && data.profile.DividendYield != nil {
		return core.Float64(*data.profile.DividendYield)
	}
	if metrics.DividendYieldTrailing != nil {
		return core.Float64(*metrics.DividendYieldTrailing / 100)
	}
	if data.overview != nil && data.overview.DividendYield != nil {
		return core.Float64(*data.overview.DividendYield / 100)
	}
	return nil
}
