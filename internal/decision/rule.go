package decision

import (
	"fmt"

	"github.com/newthinker/kachi/internal/core"
)

// Input is everything the engine decides on for one symbol.
type Input struct {
	Metrics   core.IndicatorSet
	Daily     []core.DailyPoint
	Monthly   []core.MonthlyPoint
	Mode      core.Mode
	Profile   *core.EtfProfile
	Overview  *core.OverviewProfile
	Anomalies []string
}

// Context is handed to every rule. Prev is nil for single-point series.
type Context struct {
	Input
	Params Params
	Latest core.DailyPoint
	Prev   *core.DailyPoint
}

// PriceChange returns the latest day-over-day adjusted close change in percent.
func (c *Context) PriceChange() (float64, bool) {
	if c.Prev == nil || c.Prev.AdjustedClose == 0 {
		return 0, false
	}
	return (c.Latest.AdjustedClose - c.Prev.AdjustedClose) / c.Prev.AdjustedClose * 100, true
}

// Rule scores one aspect of a symbol. It returns ok=false when it does not apply, which is
// always the case when an indicator it needs is absent.
type Rule interface {
	Name() string
	Evaluate(ctx *Context) (reason core.ScoreReason, ok bool)
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc struct {
	RuleName string
	Fn       func(ctx *Context) (core.ScoreReason, bool)
}

func (r RuleFunc) Name() string { return r.RuleName }

func (r RuleFunc) Evaluate(ctx *Context) (core.ScoreReason, bool) { return r.Fn(ctx) }

// reason builds a ScoreReason whose label starts with the signed weight.
func reason(weight float64, format string, args ...any) (core.ScoreReason, bool) {
	label := fmt.Sprintf("%+g: ", weight) + fmt.Sprintf(format, args...)
	return core.ScoreReason{Label: label, Weight: weight}, true
}
