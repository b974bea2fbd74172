package advice

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/kachi/internal/core"
	"github.com/newthinker/kachi/internal/llm"
)

type stubProvider struct {
	name    string
	content string
	err     error
	got     llm.ChatRequest
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ChatResponse{Content: s.content}, nil
}

type outcomes struct{ calls []string }

func (o *outcomes) RecordAdvice(provider, status string) {
	o.calls = append(o.calls, provider+":"+status)
}

func buyRequest() Request {
	return Request{
		Decision:  core.DecisionBuy,
		Reasons:   []string{"+2: price above SMA200", "+2: SMA50 above SMA200"},
		Counters:  []string{"-1: far from 52w high"},
		NextSteps: []string{"Read the annual report."},
	}
}

func TestNarrate_NoProviderUsesTemplate(t *testing.T) {
	rec := &outcomes{}
	n := NewNarrator(WithRecorder(rec))

	p, err := n.Narrate(context.Background(), buyRequest(), "")
	require.NoError(t, err)

	assert.Equal(t, SourceFallback, p.Source)
	assert.Equal(t, "Signals currently lean positive", p.Headline)
	require.Len(t, p.Rationale, 3)
	assert.Equal(t, "+2: price above SMA200", p.Rationale[0])
	assert.Equal(t, "+2: SMA50 above SMA200", p.Rationale[1])
	assert.Equal(t, genericRationale[0], p.Rationale[2])
	assert.Equal(t, []string{"-1: far from 52w high", genericCounterpoints[0]}, p.Counterpoints)
	require.Len(t, p.NextSteps, 2)
	assert.Equal(t, "Read the annual report.", p.NextSteps[0])
	assert.Equal(t, Disclaimer, p.Disclaimer)
	assert.Equal(t, []string{"fallback:ok"}, rec.calls)
}

func TestNarrate_LLMPayloadIsNormalized(t *testing.T) {
	stub := &stubProvider{name: "claude", content: "```json\n" + `{
		"headline": "  Trend signals are constructive  ",
		"rationale": ["a", "b", "c", "d"],
		"counterpoints": ["x"],
		"next_steps": ["s1", "s2", "s3", "s4"],
		"disclaimer": ""
	}` + "\n```"}
	rec := &outcomes{}
	n := NewNarrator(WithProvider(stub), WithRecorder(rec))

	p, err := n.Narrate(context.Background(), buyRequest(), "")
	require.NoError(t, err)

	assert.Equal(t, "claude", p.Source)
	assert.Equal(t, "Trend signals are constructive", p.Headline)
	assert.Equal(t, []string{"a", "b", "c"}, p.Rationale)
	assert.Equal(t, []string{"x", "-1: far from 52w high"}, p.Counterpoints)
	assert.Equal(t, []string{"s1", "s2", "s3"}, p.NextSteps)
	assert.Equal(t, Disclaimer, p.Disclaimer)
	assert.Equal(t, []string{"claude:ok"}, rec.calls)

	assert.True(t, stub.got.JSONMode)
	assert.Equal(t, systemPrompt, stub.got.SystemPrompt)
	require.Len(t, stub.got.Messages, 1)
	assert.Contains(t, stub.got.Messages[0].Content, `"decision":"BUY"`)
	assert.Contains(t, stub.got.Messages[0].Content, `"nextSteps":["Read the annual report."]`)
}

func TestNarrate_LLMFailureFallsBack(t *testing.T) {
	tests := []struct {
		name string
		stub *stubProvider
	}{
		{"chat error", &stubProvider{name: "openai", err: errors.New("timeout")}},
		{"no json", &stubProvider{name: "openai", content: "I cannot help with that."}},
		{"broken json", &stubProvider{name: "openai", content: `{"headline": "x",`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &outcomes{}
			n := NewNarrator(WithProvider(tt.stub), WithRecorder(rec))

			p, err := n.Narrate(context.Background(), buyRequest(), "")
			require.NoError(t, err)
			assert.Equal(t, SourceFallback, p.Source)
			assert.Equal(t, []string{"openai:error"}, rec.calls)
		})
	}
}

func TestNarrate_LLMFailureWithoutFallback(t *testing.T) {
	n := NewNarrator(WithProvider(&stubProvider{name: "openai", err: errors.New("boom")}), WithFallback(false))

	_, err := n.Narrate(context.Background(), buyRequest(), "")
	assert.ErrorIs(t, err, core.ErrLLMFailed)
}

func TestNarrate_KeyedProvider(t *testing.T) {
	keyed := &stubProvider{name: "openai", content: `{"headline":"h","rationale":["1","2","3"],"counterpoints":["c1","c2"],"next_steps":["n1","n2"],"disclaimer":"d"}`}
	var gotKey string
	n := NewNarrator(
		WithProvider(&stubProvider{name: "claude", err: errors.New("should not be called")}),
		WithKeyedProvider(func(apiKey string) (llm.Provider, error) {
			gotKey = apiKey
			return keyed, nil
		}),
	)

	p, err := n.Narrate(context.Background(), buyRequest(), "user-key")
	require.NoError(t, err)
	assert.Equal(t, "user-key", gotKey)
	assert.Equal(t, "openai", p.Source)
	assert.Equal(t, "d", p.Disclaimer)
	assert.Equal(t, []string{"n1", "n2"}, p.NextSteps)
}

func TestNarrate_KeyedProviderError(t *testing.T) {
	n := NewNarrator(
		WithKeyedProvider(func(string) (llm.Provider, error) { return nil, errors.New("bad key") }),
		WithFallback(false),
	)

	_, err := n.Narrate(context.Background(), buyRequest(), "k")
	assert.ErrorIs(t, err, core.ErrLLMFailed)
}

func TestNarrate_InvalidDecision(t *testing.T) {
	n := NewNarrator()
	_, err := n.Narrate(context.Background(), Request{Decision: "HOLD"}, "")
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestFallback_Shapes(t *testing.T) {
	for _, d := range []core.Decision{core.DecisionBuy, core.DecisionSell, core.DecisionNeutral, core.DecisionAbstain} {
		t.Run(string(d), func(t *testing.T) {
			p := Fallback(Request{Decision: d})
			assert.NotEmpty(t, p.Headline)
			assert.Len(t, p.Rationale, 3)
			assert.Len(t, p.Counterpoints, 2)
			assert.GreaterOrEqual(t, len(p.NextSteps), 2)
			assert.LessOrEqual(t, len(p.NextSteps), 3)
			for _, s := range append(append([]string{p.Headline}, p.Rationale...), p.NextSteps...) {
				assert.NotContains(t, strings.ToLower(s), "you should buy")
			}
		})
	}
}

func TestFill(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, fill([]string{" a ", "", "a", "b", "c"}, nil, 1, 2))
	assert.Equal(t, []string{"a", "x", "y"}, fill([]string{"a"}, []string{"a", "x", "y", "z"}, 3, 3))
	assert.Equal(t, []string{"x", "y"}, fill(nil, []string{"x", "y", "z"}, 2, 3))
}

func TestFromResult(t *testing.T) {
	result := core.ScoreResult{
		Decision: core.DecisionSell,
		Reasons:  []core.ScoreReason{{Label: "+1: MACD above signal", Weight: 1}},
		Counters: []core.ScoreReason{{Label: "-2: price below SMA200", Weight: -2}},
	}

	req := FromResult(result)
	assert.Equal(t, core.DecisionSell, req.Decision)
	assert.Equal(t, []string{"+1: MACD above signal"}, req.Reasons)
	assert.Equal(t, []string{"-2: price below SMA200"}, req.Counters)
	assert.Equal(t, DefaultNextSteps(core.DecisionSell), req.NextSteps)
	require.NoError(t, req.Validate())
}
