// Package decision turns indicators into an explainable BUY/SELL/NEUTRAL/ABSTAIN decision.
package decision

import (
	"math"
	"sync"

	"github.com/newthinker/kachi/internal/core"
)

// Engine sums the weights of its rules into a score and maps it to a decision.
type Engine struct {
	mu     sync.RWMutex
	params Params
	rules  []Rule
}

// NewEngine creates an engine. Without rules it registers DefaultRules.
func NewEngine(params Params, rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{
		params: params,
		rules:  append([]Rule(nil), rules...),
	}
}

// Register appends a rule; it is evaluated after every rule registered before it.
func (e *Engine) Register(r Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, r)
}

// Rules returns the registered rule names in evaluation order.
func (e *Engine) Rules() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	return names
}

// Params returns the engine tuning.
func (e *Engine) Params() Params {
	return e.params
}

// Decide scores one symbol. Empty series and detected anomalies resolve to ABSTAIN.
func (e *Engine) Decide(in Input) core.ScoreResult {
	if in.Mode != core.ModeSwing {
		in.Mode = core.ModeLong
	}
	result := core.ScoreResult{
		Reasons:  []core.ScoreReason{},
		Counters: []core.ScoreReason{},
		Metrics:  in.Metrics,
		Horizon:  in.Mode,
	}

	if len(in.Daily) == 0 || len(in.Monthly) == 0 || len(in.Anomalies) > 0 {
		result.Decision = core.DecisionAbstain
		result.Confidence = e.params.Confidence.Abstain
		for _, text := range in.Anomalies {
			result.Counters = append(result.Counters, core.ScoreReason{Label: text, Weight: -e.params.Weights.Anomaly})
		}
		return result
	}

	ctx := &Context{
		Input:  in,
		Params: e.params,
		Latest: in.Daily[len(in.Daily)-1],
	}
	if len(in.Daily) > 1 {
		ctx.Prev = &in.Daily[len(in.Daily)-2]
	}

	e.mu.RLock()
	rules := make([]Rule, len(e.rules))
	copy(rules, e.rules)
	e.mu.RUnlock()

	var score float64
	for _, r := range rules {
		sr, ok := r.Evaluate(ctx)
		if !ok || sr.Weight == 0 {
			continue
		}
		score += sr.Weight
		if sr.Weight > 0 {
			result.Reasons = append(result.Reasons, sr)
		} else {
			result.Counters = append(result.Counters, sr)
		}
	}

	result.Decision = e.classify(score, in.Mode)
	result.Confidence = e.confidence(score, result.Decision)
	return result
}

func (e *Engine) classify(score float64, mode core.Mode) core.Decision {
	t := e.params.Thresholds.For(mode)
	switch {
	case score >= t.Buy:
		return core.DecisionBuy
	case score <= t.Sell:
		return core.DecisionSell
	default:
		return core.DecisionNeutral
	}
}

func (e *Engine) confidence(score float64, decision core.Decision) float64 {
	c := e.params.Confidence
	base := c.DirectionalBase
	if decision == core.DecisionNeutral {
		base = c.NeutralBase
	}
	divisor := c.Divisor
	if divisor <= 0 {
		divisor = 1
	}
	return math.Min(c.Max, math.Max(c.Min, math.Abs(score)/divisor+base))
}

// Decide runs an engine with DefaultParams and DefaultRules.
func Decide(in Input) core.ScoreResult {
	return NewEngine(DefaultParams()).Decide(in)
}
