package factory

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/newthinker/kachi/internal/config"
	"github.com/newthinker/kachi/internal/llm"
	"github.com/newthinker/kachi/internal/llm/claude"
	"github.com/newthinker/kachi/internal/llm/ollama"
	"github.com/newthinker/kachi/internal/llm/openai"
)

// New creates an LLM provider based on configuration. An empty provider
// name returns (nil, nil): narration then runs on its built-in fallback.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	return NewWithKey(cfg, "")
}

// NewWithKey is New with apiKey overriding the configured key of the
// selected hosted provider. Ollama ignores it.
func NewWithKey(cfg config.LLMConfig, apiKey string) (llm.Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "claude":
		key := pick(apiKey, cfg.Claude.APIKey)
		var opts []option.RequestOption
		if cfg.Claude.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.Claude.BaseURL))
		}
		return claude.New(key, cfg.Claude.Model, opts...)
	case "openai":
		return openai.New(pick(apiKey, cfg.OpenAI.APIKey), cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	case "ollama":
		return ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}

func pick(override, configured string) string {
	if override != "" {
		return override
	}
	return configured
}
