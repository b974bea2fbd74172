// internal/advice/fallback.go
package advice

import (
	"strings"

	"github.com/newthinker/kachi/internal/core"
)

// SourceFallback marks payloads built without an LLM.
const SourceFallback = "fallback"

// Disclaimer is attached to every payload.
const Disclaimer = "Educational information only. This is not investment advice or an instruction to buy or sell. " +
	"Markets carry risk and past performance does not guarantee future results."

var headlines = map[core.Decision]string{
	core.DecisionBuy:     "Signals currently lean positive",
	core.DecisionSell:    "Signals currently lean negative",
	core.DecisionNeutral: "Signals are mixed with no clear lean",
	core.DecisionAbstain: "Not enough reliable data to judge this symbol",
}

var genericRationale = []string{
	"The decision sums trend, momentum, volatility and income signals into one score.",
	"Each signal adds or subtracts a fixed number of points from that score.",
	"Confidence grows with the distance of the score from zero.",
}

var genericCounterpoints = []string{
	"Technical indicators describe the past and can reverse quickly.",
	"Company news, fees and your own situation are not part of this score.",
}

// Fallback builds a deterministic payload from the request alone.
func Fallback(req Request) *Payload {
	return &Payload{
		Headline:      headline(req.Decision),
		Rationale:     fill(req.Reasons, genericRationale, rationaleItems, rationaleItems),
		Counterpoints: fill(req.Counters, genericCounterpoints, counterpointItems, counterpointItems),
		NextSteps:     fill(req.NextSteps, DefaultNextSteps(req.Decision), minNextSteps, maxNextSteps),
		Disclaimer:    Disclaimer,
		Source:        SourceFallback,
	}
}

func headline(d core.Decision) string {
	if h, ok := headlines[d]; ok {
		return h
	}
	return headlines[core.DecisionNeutral]
}

// fill takes non-blank items, pads from defaults (skipping duplicates) up to
// lo, and truncates to hi.
func fill(items, defaults []string, lo, hi int) []string {
	out := make([]string, 0, hi)
	seen := map[string]bool{}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] || len(out) >= hi {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, s := range items {
		add(s)
	}
	for _, s := range defaults {
		if len(out) >= lo {
			break
		}
		add(s)
	}
	return out
}
