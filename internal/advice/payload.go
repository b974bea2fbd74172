// internal/advice/payload.go
package advice

import (
	"fmt"

	"github.com/newthinker/kachi/internal/core"
)

const (
	rationaleItems    = 3
	counterpointItems = 2
	minNextSteps      = 2
	maxNextSteps      = 3
)

// Request is the signal summary to narrate.
type Request struct {
	Decision  core.Decision `json:"decision"`
	Reasons   []string      `json:"reasons"`
	Counters  []string      `json:"counters"`
	NextSteps []string      `json:"nextSteps"`
}

// Payload is the educational explanation of a decision. It never carries a trade instruction.
type Payload struct {
	Headline      string   `json:"headline"`
	Rationale     []string `json:"rationale"`
	Counterpoints []string `json:"counterpoints"`
	NextSteps     []string `json:"next_steps"`
	Disclaimer    string   `json:"disclaimer"`
	Source        string   `json:"source,omitempty"`
}

// Validate checks the decision is one of the known outcomes.
func (r Request) Validate() error {
	switch r.Decision {
	case core.DecisionBuy, core.DecisionSell, core.DecisionNeutral, core.DecisionAbstain:
		return nil
	default:
		return core.WrapError(core.ErrInvalidRequest, fmt.Errorf("unknown decision %q", r.Decision))
	}
}

// FromResult summarises a score result into a narration request.
func FromResult(result core.ScoreResult) Request {
	req := Request{
		Decision:  result.Decision,
		Reasons:   make([]string, 0, len(result.Reasons)),
		Counters:  make([]string, 0, len(result.Counters)),
		NextSteps: DefaultNextSteps(result.Decision),
	}
	for _, r := range result.Reasons {
		req.Reasons = append(req.Reasons, r.Label)
	}
	for _, c := range result.Counters {
		req.Counters = append(req.Counters, c.Label)
	}
	return req
}

// DefaultNextSteps suggests study steps for a decision.
func DefaultNextSteps(d core.Decision) []string {
	switch d {
	case core.DecisionBuy:
		return []string{
			"Check how the position would fit your overall allocation and risk tolerance.",
			"Review the latest earnings or fund reports before acting.",
			"Decide in advance which signals would make you reconsider.",
		}
	case core.DecisionSell:
		return []string{
			"Revisit why you hold the position and whether that thesis still applies.",
			"Compare the weak signals with the fund or company fundamentals.",
			"Consider tax and cost implications before any change.",
		}
	case core.DecisionAbstain:
		return []string{
			"Verify the price history for splits or data gaps.",
			"Retry the analysis once more history is available.",
		}
	default:
		return []string{
			"Keep the symbol on a watchlist and re-run the score later.",
			"Compare it with similar instruments in the same category.",
		}
	}
}
