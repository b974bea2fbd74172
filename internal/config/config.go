package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/newthinker/kachi/internal/candidate"
	"github.com/newthinker/kachi/internal/core"
	"github.com/newthinker/kachi/internal/decision"
	"github.com/newthinker/kachi/internal/logger"
	"github.com/newthinker/kachi/internal/ranking"
	"github.com/newthinker/kachi/internal/storage/archive"
)

type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Log        logger.Options    `mapstructure:"log"`
	MarketData MarketDataConfig  `mapstructure:"market_data"`
	Scoring    ScoringConfig     `mapstructure:"scoring"`
	Candidate  candidate.Weights `mapstructure:"candidate"`
	Ranking    ranking.Criteria  `mapstructure:"ranking"`
	Recommend  RecommendConfig   `mapstructure:"recommend"`
	Views      ViewsConfig       `mapstructure:"views"`
	Archive    ArchiveConfig     `mapstructure:"archive"`
	LLM        LLMConfig         `mapstructure:"llm"`
	Metrics    MetricsConfig     `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	APIKey          string        `mapstructure:"api_key"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// MarketDataConfig configures the upstream market-data provider.
type MarketDataConfig struct {
	Provider          string        `mapstructure:"provider"`
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// ScoringConfig holds the decision rule tuning and the anomaly gap threshold.
type ScoringConfig struct {
	decision.Params `mapstructure:",squash"`
	GapThreshold    float64 `mapstructure:"gap_threshold"`
}

// RecommendConfig tunes the recommendation run.
type RecommendConfig struct {
	PoolCap      int           `mapstructure:"pool_cap"`
	Concurrency  int           `mapstructure:"concurrency"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
	SeedSymbols  []string      `mapstructure:"seed_symbols"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// requestsPerSymbol counts the market-data calls behind one uncached symbol:
// daily, monthly, overview and ETF profile.
const requestsPerSymbol = 4

// ColdRunDuration is the least time a run with an empty cache spends waiting
// on market-data pacing: one listing call plus four calls per pool symbol.
// It is zero when requests are not paced.
func (r RecommendConfig) ColdRunDuration(requestsPerMinute int) time.Duration {
	if requestsPerMinute <= 0 {
		return 0
	}
	requests := 1 + requestsPerSymbol*r.PoolCap
	return time.Duration(requests) * time.Minute / time.Duration(requestsPerMinute)
}

// ViewsConfig seeds the in-app view counter. Keys are symbols.
type ViewsConfig struct {
	Seed map[string]int64 `mapstructure:"seed"`
}

type ArchiveConfig struct {
	archive.Config `mapstructure:",squash"`
	RetentionDays  int           `mapstructure:"retention_days"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	Fallback bool          `mapstructure:"fallback"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Claude   ClaudeConfig  `mapstructure:"claude"`
	OpenAI   OpenAIConfig  `mapstructure:"openai"`
	Ollama   OllamaConfig  `mapstructure:"ollama"`
}

type ClaudeConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// envBindings maps config keys to the environment variables that may set them.
var envBindings = map[string][]string{
	"server.api_key":        {"KACHI_SERVER_API_KEY"},
	"market_data.api_key":   {"KACHI_MARKET_DATA_API_KEY", "ALPHAVANTAGE_API_KEY"},
	"llm.provider":          {"KACHI_LLM_PROVIDER"},
	"llm.claude.api_key":    {"KACHI_LLM_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	"llm.openai.api_key":    {"KACHI_LLM_OPENAI_API_KEY", "OPENAI_API_KEY"},
	"archive.s3.access_key": {"KACHI_ARCHIVE_S3_ACCESS_KEY", "AWS_ACCESS_KEY_ID"},
	"archive.s3.secret_key": {"KACHI_ARCHIVE_S3_SECRET_KEY", "AWS_SECRET_ACCESS_KEY"},
}

// Load reads configuration from file over Defaults. An empty path loads
// defaults plus environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Support environment variable overrides
	v.SetEnvPrefix("KACHI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	// mapstructure decodes slices element-wise over existing ones, so a
	// configured list must replace the default rather than overlay it.
	if v.IsSet("recommend.seed_symbols") {
		cfg.Recommend.SeedSymbols = nil
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    3 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
		},
		Log: logger.Options{Level: "info"},
		MarketData: MarketDataConfig{
			Provider:          "alphavantage",
			RequestsPerMinute: 75,
			Timeout:           30 * time.Second,
			MaxRetries:        5,
			CacheTTL:          15 * time.Minute,
		},
		Scoring: ScoringConfig{
			Params:       decision.DefaultParams(),
			GapThreshold: 0.20,
		},
		Candidate: candidate.DefaultWeights(),
		Ranking:   ranking.DefaultCriteria(),
		Recommend: RecommendConfig{
			PoolCap:      25,
			Concurrency:  4,
			CacheTTL:     30 * time.Minute,
			DefaultLimit: 6,
			MaxLimit:     50,
			SeedSymbols:  []string{"SPY", "VOO", "VTI", "QQQ", "SCHD", "AAPL", "MSFT", "NVDA", "AMZN", "GOOGL"},
			Timeout:      2 * time.Minute,
		},
		Views: ViewsConfig{Seed: map[string]int64{}},
		Archive: ArchiveConfig{
			Config:       archive.Config{Type: "localfs", Path: "data/archive"},
			WriteTimeout: 10 * time.Second,
		},
		LLM: LLMConfig{
			Fallback: true,
			Timeout:  30 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

func invalid(format string, args ...any) error {
	return core.WrapError(core.ErrConfigInvalid, fmt.Errorf(format, args...))
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.MarketData.Provider != "alphavantage" {
		return invalid("unknown market_data provider %q", c.MarketData.Provider)
	}
	if c.MarketData.RequestsPerMinute < 0 || c.MarketData.MaxRetries < 0 {
		return invalid("market_data requests_per_minute and max_retries cannot be negative")
	}

	for mode, th := range map[string]decision.Threshold{"long": c.Scoring.Thresholds.Long, "swing": c.Scoring.Thresholds.Swing} {
		if th.Buy <= th.Sell {
			return invalid("scoring %s buy threshold %g must exceed sell threshold %g", mode, th.Buy, th.Sell)
		}
	}
	conf := c.Scoring.Confidence
	if conf.Divisor <= 0 {
		return invalid("scoring confidence divisor must be positive")
	}
	if conf.Min < 0 || conf.Max > 1 || conf.Min > conf.Max {
		return invalid("scoring confidence bounds must satisfy 0 <= min <= max <= 1, got %g..%g", conf.Min, conf.Max)
	}
	if c.Scoring.GapThreshold < 0 {
		return invalid("scoring gap_threshold cannot be negative")
	}

	band := c.Candidate.Confidence
	if band.Low < 0 || band.High > 1 || band.Low > band.High {
		return invalid("candidate confidence band must satisfy 0 <= low <= high <= 1, got %g..%g", band.Low, band.High)
	}

	r := c.Recommend
	if r.PoolCap < 1 || r.Concurrency < 1 {
		return invalid("recommend pool_cap and concurrency must be at least 1")
	}
	if r.MaxLimit < 1 || r.DefaultLimit < 1 || r.DefaultLimit > r.MaxLimit {
		return invalid("recommend default_limit %d must be within [1, max_limit %d]", r.DefaultLimit, r.MaxLimit)
	}
	if need := r.ColdRunDuration(c.MarketData.RequestsPerMinute); r.Timeout > 0 && need > r.Timeout {
		return invalid("recommend timeout %s is shorter than the %s a cold run of %d symbols needs at %d requests per minute",
			r.Timeout, need, r.PoolCap, c.MarketData.RequestsPerMinute)
	}
	if c.Ranking.Popular.LookbackDays < 1 {
		return invalid("ranking popular lookback_days must be at least 1")
	}

	if c.Archive.Enabled {
		switch c.Archive.Type {
		case "localfs":
			if c.Archive.Path == "" {
				return core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive path required for localfs"))
			}
		case "s3":
			if c.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive s3 bucket required"))
			}
		default:
			return invalid("unknown archive type %q", c.Archive.Type)
		}
		if c.Archive.RetentionDays < 0 {
			return invalid("archive retention_days cannot be negative")
		}
	}

	// LLM validation - if provider set, check config exists
	switch c.LLM.Provider {
	case "":
	case "claude":
		if c.LLM.Claude.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("claude api_key required when provider is claude"))
		}
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("openai api_key required when provider is openai"))
		}
	case "ollama":
	default:
		return invalid("unknown llm provider %q", c.LLM.Provider)
	}

	return nil
}
