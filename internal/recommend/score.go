package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/newthinker/kachi/internal/core"
	"github.com/newthinker/kachi/internal/decision"
	"github.com/newthinker/kachi/internal/indicator"
)

// minMonthlyWindow is the fewest monthly points a timeframe keeps when available.
const minMonthlyWindow = 12

// ScoreInput is a caller-supplied history to score.
type ScoreInput struct {
	Daily           []core.DailyPoint     `json:"dailies"`
	Monthly         []core.MonthlyPoint   `json:"monthlies"`
	Profile         *core.EtfProfile      `json:"profile,omitempty"`
	Overview        *core.OverviewProfile `json:"overview,omitempty"`
	Mode            core.Mode             `json:"mode"`
	TimeframeMonths int                   `json:"timeframeMonths,omitempty"`
	PriceScale      PriceScale            `json:"priceScale,omitempty"`
}

// PriceScale is a price multiplier. Chart scale names such as "linear" or
// "log" decode as 0, which leaves prices unchanged.
type PriceScale float64

// UnmarshalJSON accepts a number, a numeric string or any other string.
func (p *PriceScale) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			v = 0
		}
		*p = PriceScale(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("priceScale: %w", err)
	}
	*p = PriceScale(v)
	return nil
}

// Score runs indicators, anomaly detection and the decision engine over in.
// It never fails; short or broken series resolve to ABSTAIN.
func (s *Service) Score(in ScoreInput) core.ScoreResult {
	daily, monthly := Timeframe(in.Daily, in.Monthly, in.TimeframeMonths)
	daily, monthly = Scale(daily, monthly, float64(in.PriceScale))
	mode := core.ParseMode(string(in.Mode))

	result := s.engine.Decide(decision.Input{
		Metrics:   indicator.BuildSet(daily, monthly),
		Daily:     daily,
		Monthly:   monthly,
		Mode:      mode,
		Profile:   in.Profile,
		Overview:  in.Overview,
		Anomalies: s.detector.Detect(daily),
	})
	s.observe(func(r Recorder) { r.RecordDecision(string(mode), string(result.Decision)) })
	return result
}

// ScoreSymbol fetches one symbol's history and scores it.
func (s *Service) ScoreSymbol(ctx context.Context, apiKey, symbol string, mode core.Mode) (core.ScoreResult, error) {
	data, err := s.fetch(ctx, apiKey, symbol)
	if err != nil {
		s.observe(func(r Recorder) { r.RecordSymbolFailure("fetch") })
		return core.ScoreResult{}, fmt.Errorf("scoring %s: %w", symbol, err)
	}
	return s.Score(ScoreInput{
		Daily:    data.daily,
		Monthly:  data.monthly,
		Profile:  data.profile,
		Overview: data.overview,
		Mode:     mode,
	}), nil
}

// Timeframe keeps the daily points within months calendar months of the last
// daily date and the last max(months, 12) monthly points. months <= 0 keeps all.
func Timeframe(daily []core.DailyPoint, monthly []core.MonthlyPoint, months int) ([]core.DailyPoint, []core.MonthlyPoint) {
	if months <= 0 {
		return daily, monthly
	}

	if n := len(daily); n > 0 {
		cutoff := daily[n-1].Date.AddDate(0, -months, 0)
		start := n
		for i, p := range daily {
			if !p.Date.Before(cutoff) {
				start = i
				break
			}
		}
		daily = daily[start:]
	}

	keep := max(months, minMonthlyWindow)
	if len(monthly) > keep {
		monthly = monthly[len(monthly)-keep:]
	}
	return daily, monthly
}

// Scale multiplies every price by factor, for quotes in another currency unit.
// Non-positive factors and 1 return the input unchanged.
func Scale(daily []core.DailyPoint, monthly []core.MonthlyPoint, factor float64) ([]core.DailyPoint, []core.MonthlyPoint) {
	if factor <= 0 || factor == 1 {
		return daily, monthly
	}

	scaledDaily := make([]core.DailyPoint, len(daily))
	for i, p := range daily {
		p.Open *= factor
		p.High *= factor
		p.Low *= factor
		p.Close *= factor
		p.AdjustedClose *= factor
		scaledDaily[i] = p
	}

	scaledMonthly := make([]core.MonthlyPoint, len(monthly))
	for i, p := range monthly {
		p.Close *= factor
		p.AdjustedClose *= factor
		scaledMonthly[i] = p
	}
	return scaledDaily, scaledMonthly
}
