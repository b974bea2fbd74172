// Package advice explains score results in plain language, through an LLM
// when one is configured and through a deterministic template otherwise.
package advice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/kachi/internal/core"
	"github.com/newthinker/kachi/internal/llm"
)

// Recorder observes narration outcomes.
type Recorder interface {
	RecordAdvice(provider, status string)
}

// ProviderFunc builds a provider for a caller-supplied API key.
type ProviderFunc func(apiKey string) (llm.Provider, error)

// Narrator turns a Request into a Payload.
type Narrator struct {
	provider llm.Provider
	keyed    ProviderFunc
	fallback bool
	timeout  time.Duration
	logger   *zap.Logger
	recorder Recorder
}

// Option configures a Narrator.
type Option func(*Narrator)

// WithProvider sets the default LLM provider. Nil means template only.
func WithProvider(p llm.Provider) Option {
	return func(n *Narrator) {
		n.provider = p
	}
}

// WithKeyedProvider sets the builder used when a request carries its own key.
func WithKeyedProvider(fn ProviderFunc) Option {
	return func(n *Narrator) {
		n.keyed = fn
	}
}

// WithFallback controls whether LLM failures degrade to the template payload.
func WithFallback(enabled bool) Option {
	return func(n *Narrator) {
		n.fallback = enabled
	}
}

// WithTimeout bounds each LLM call.
func WithTimeout(d time.Duration) Option {
	return func(n *Narrator) {
		n.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(n *Narrator) {
		n.logger = logger
	}
}

// WithRecorder sets the outcome observer.
func WithRecorder(r Recorder) Option {
	return func(n *Narrator) {
		n.recorder = r
	}
}

// NewNarrator creates a narrator. Fallback is on by default.
func NewNarrator(opts ...Option) *Narrator {
	n := &Narrator{
		fallback: true,
		timeout:  30 * time.Second,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Narrate explains req. apiKey, when set, selects a per-call provider.
func (n *Narrator) Narrate(ctx context.Context, req Request, apiKey string) (*Payload, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	provider, err := n.providerFor(apiKey)
	if err != nil {
		return n.degrade("keyed", req, err)
	}
	if provider == nil {
		n.record(SourceFallback, "ok")
		return Fallback(req), nil
	}

	payload, err := n.ask(ctx, provider, req)
	if err != nil {
		return n.degrade(provider.Name(), req, err)
	}
	n.record(provider.Name(), "ok")
	return payload, nil
}

func (n *Narrator) providerFor(apiKey string) (llm.Provider, error) {
	if apiKey != "" && n.keyed != nil {
		return n.keyed(apiKey)
	}
	return n.provider, nil
}

func (n *Narrator) degrade(provider string, req Request, cause error) (*Payload, error) {
	n.record(provider, "error")
	if !n.fallback {
		return nil, core.WrapError(core.ErrLLMFailed, cause)
	}
	n.logger.Warn("advice narration failed, using template",
		zap.String("provider", provider),
		zap.String("decision", string(req.Decision)),
		zap.Error(cause),
	)
	return Fallback(req), nil
}

func (n *Narrator) ask(ctx context.Context, provider llm.Provider, req Request) (*Payload, error) {
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	input, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	resp, err := provider.Chat(ctx, llm.ChatRequest{
		SystemPrompt: systemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: string(input)}},
		MaxTokens:    800,
		Temperature:  0.2,
		JSONMode:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM error: %w", err)
	}

	payload, err := parsePayload(resp.Content)
	if err != nil {
		return nil, err
	}
	return normalize(payload, req, provider.Name()), nil
}

// parsePayload decodes the first JSON object in text, tolerating code fences
// and surrounding prose.
func parsePayload(text string) (*Payload, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in LLM response")
	}

	var p Payload
	if err := json.Unmarshal([]byte(text[start:end+1]), &p); err != nil {
		return nil, fmt.Errorf("decoding LLM response: %w", err)
	}
	return &p, nil
}

// normalize forces the payload shape: three rationale items, two
// counterpoints, two to three next steps and a disclaimer.
func normalize(p *Payload, req Request, source string) *Payload {
	base := Fallback(req)
	out := &Payload{
		Headline:      strings.TrimSpace(p.Headline),
		Rationale:     fill(p.Rationale, base.Rationale, rationaleItems, rationaleItems),
		Counterpoints: fill(p.Counterpoints, base.Counterpoints, counterpointItems, counterpointItems),
		NextSteps:     fill(p.NextSteps, base.NextSteps, minNextSteps, maxNextSteps),
		Disclaimer:    strings.TrimSpace(p.Disclaimer),
		Source:        source,
	}
	if out.Headline == "" {
		out.Headline = base.Headline
	}
	if out.Disclaimer == "" {
		out.Disclaimer = Disclaimer
	}
	return out
}

func (n *Narrator) record(provider, status string) {
	if n.recorder != nil {
		n.recorder.RecordAdvice(provider, status)
	}
}

const systemPrompt = `You are an investing education assistant. You explain rule-based stock and ETF signals to individual investors.

Rules:
1. Never tell the reader to buy, sell or hold. Explain what the signals mean instead.
2. Always include the factors that argue against the signal.
3. Always include a disclaimer that this is not investment advice.

The user message is JSON with: decision (BUY, SELL, NEUTRAL or ABSTAIN), reasons, counters and nextSteps.

Always respond with valid JSON in this format:
{
  "headline": "one sentence summary",
  "rationale": ["exactly three short points"],
  "counterpoints": ["exactly two short points"],
  "next_steps": ["two or three study steps"],
  "disclaimer": "one sentence"
}`
