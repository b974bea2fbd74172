// Package app builds every kachi component from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/kachi/internal/advice"
	"github.com/newthinker/kachi/internal/anomaly"
	"github.com/newthinker/kachi/internal/api"
	"github.com/newthinker/kachi/internal/candidate"
	"github.com/newthinker/kachi/internal/collector"
	"github.com/newthinker/kachi/internal/collector/alphavantage"
	"github.com/newthinker/kachi/internal/config"
	"github.com/newthinker/kachi/internal/core"
	"github.com/newthinker/kachi/internal/decision"
	"github.com/newthinker/kachi/internal/llm"
	"github.com/newthinker/kachi/internal/llm/factory"
	"github.com/newthinker/kachi/internal/metrics"
	"github.com/newthinker/kachi/internal/recommend"
	"github.com/newthinker/kachi/internal/storage/archive"
	"github.com/newthinker/kachi/internal/storage/views"
)

// App is the main application container
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	metrics   *metrics.Registry
	providers *collector.Registry
	market    collector.MarketData
	views     *views.MemoryStore
	runs      *archive.Runs
	recommend *recommend.Service
	narrator  *advice.Narrator
	now       func() time.Time
}

// Option configures an App.
type Option func(*App)

// WithMarketData registers a provider. It is selected when its name matches
// the configured market_data provider.
func WithMarketData(p collector.MarketData) Option {
	return func(a *App) {
		a.providers.Register(p)
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// New creates the application from a validated config.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		providers: collector.NewRegistry(),
		views:     views.NewMemoryStore(),
		now:       time.Now,
	}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewRegistry()
	}
	a.providers.Register(a.newAlphaVantage())
	for _, opt := range opts {
		opt(a)
	}

	market, err := a.providers.MustGet(cfg.MarketData.Provider)
	if err != nil {
		return nil, err
	}
	a.market = market

	if err := a.seedViews(); err != nil {
		return nil, err
	}
	if err := a.setupArchive(); err != nil {
		return nil, err
	}
	if err := a.setupNarrator(); err != nil {
		return nil, err
	}
	a.setupRecommend()

	logger.Info("application initialized",
		zap.String("market_data", market.Name()),
		zap.Bool("archive", a.runs != nil),
		zap.String("llm", cfg.LLM.Provider),
		zap.Bool("metrics", a.metrics != nil),
	)
	return a, nil
}

func (a *App) newAlphaVantage() *alphavantage.Client {
	md := a.cfg.MarketData
	opts := []alphavantage.ClientOption{
		alphavantage.WithLogger(a.logger.Named("alphavantage")),
		alphavantage.WithRequestsPerMinute(md.RequestsPerMinute),
		alphavantage.WithMaxRetries(md.MaxRetries),
	}
	if md.BaseURL != "" {
		opts = append(opts, alphavantage.WithBaseURL(md.BaseURL))
	}
	if md.Timeout > 0 {
		opts = append(opts, alphavantage.WithTimeout(md.Timeout))
	}
	if md.CacheTTL > 0 {
		opts = append(opts, alphavantage.WithCacheTTL(md.CacheTTL))
	}
	if a.metrics != nil {
		opts = append(opts, alphavantage.WithObserver(a.metrics))
	}
	return alphavantage.NewClient(md.APIKey, opts...)
}

func (a *App) seedViews() error {
	seed := make([]views.Metric, 0, len(a.cfg.Views.Seed))
	for symbol, count := range a.cfg.Views.Seed {
		seed = append(seed, views.Metric{Symbol: symbol, Views: count})
	}
	if err := a.views.Load(context.Background(), seed); err != nil {
		return fmt.Errorf("seeding views: %w", err)
	}
	return nil
}

func (a *App) setupArchive() error {
	if !a.cfg.Archive.Enabled {
		return nil
	}
	store, err := archive.New(a.cfg.Archive.Config)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	opts := []archive.RunsOption{archive.WithLogger(a.logger.Named("archive"))}
	if a.metrics != nil {
		opts = append(opts, archive.WithRecorder(a.metrics))
	}
	a.runs = archive.NewRuns(store, opts...)
	return nil
}

func (a *App) setupNarrator() error {
	llmCfg := a.cfg.LLM
	provider, err := factory.New(llmCfg)
	if err != nil {
		return fmt.Errorf("creating llm provider: %w", err)
	}

	// A caller key without a configured provider is an OpenAI key.
	keyedCfg := llmCfg
	if keyedCfg.Provider == "" {
		keyedCfg.Provider = "openai"
	}

	opts := []advice.Option{
		advice.WithProvider(provider),
		advice.WithKeyedProvider(func(apiKey string) (llm.Provider, error) {
			return factory.NewWithKey(keyedCfg, apiKey)
		}),
		advice.WithFallback(llmCfg.Fallback),
		advice.WithTimeout(llmCfg.Timeout),
		advice.WithLogger(a.logger.Named("advice")),
	}
	if a.metrics != nil {
		opts = append(opts, advice.WithRecorder(a.metrics))
	}
	a.narrator = advice.NewNarrator(opts...)
	return nil
}

func (a *App) setupRecommend() {
	rc := a.cfg.Recommend
	cfg := recommend.Config{
		PoolCap:      rc.PoolCap,
		Concurrency:  rc.Concurrency,
		CacheTTL:     rc.CacheTTL,
		DefaultLimit: rc.DefaultLimit,
		MaxLimit:     rc.MaxLimit,
		SeedSymbols:  rc.SeedSymbols,
		Criteria:     a.cfg.Ranking,
		ArchiveWait:  a.cfg.Archive.WriteTimeout,
		FetchTimeout: rc.Timeout,
	}

	opts := []recommend.Option{
		recommend.WithLogger(a.logger.Named("recommend")),
		recommend.WithEngine(decision.NewEngine(a.cfg.Scoring.Params)),
		recommend.WithDetector(anomaly.New(a.cfg.Scoring.GapThreshold)),
		recommend.WithScorer(candidate.NewScorer(a.cfg.Candidate)),
		recommend.WithClock(func() time.Time { return a.now() }),
	}
	if a.metrics != nil {
		opts = append(opts, recommend.WithRecorder(a.metrics))
	}
	if a.runs != nil {
		opts = append(opts, recommend.WithArchiver(a.runs))
	}
	a.recommend = recommend.New(cfg, a.market, a.views, opts...)
}

// Recommend runs one recommendation within the configured run timeout.
func (a *App) Recommend(ctx context.Context, req recommend.Request) (*recommend.Result, error) {
	if t := a.cfg.Recommend.Timeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}
	return a.recommend.Recommend(ctx, req)
}

// Score scores a supplied history.
func (a *App) Score(in recommend.ScoreInput) core.ScoreResult {
	return a.recommend.Score(in)
}

// ScoreSymbol fetches and scores one symbol.
func (a *App) ScoreSymbol(ctx context.Context, apiKey, symbol string, mode core.Mode) (core.ScoreResult, error) {
	return a.recommend.ScoreSymbol(ctx, apiKey, symbol, mode)
}

// Narrate explains a decision.
func (a *App) Narrate(ctx context.Context, req advice.Request, apiKey string) (*advice.Payload, error) {
	return a.narrator.Narrate(ctx, req, apiKey)
}

// Search looks up symbols at the market-data provider.
func (a *App) Search(ctx context.Context, apiKey, keywords string) ([]collector.SearchMatch, error) {
	return a.market.Search(ctx, apiKey, keywords)
}

// Views returns the view counter.
func (a *App) Views() views.Store {
	return a.views
}

// Metrics returns the metrics registry, nil when disabled.
func (a *App) Metrics() *metrics.Registry {
	return a.metrics
}

// PruneArchive deletes archived runs older than the retention window. It is
// a no-op when archiving or retention is off.
func (a *App) PruneArchive(ctx context.Context) (int, error) {
	days := a.cfg.Archive.RetentionDays
	if a.runs == nil || days <= 0 {
		return 0, nil
	}
	n, err := a.runs.Prune(ctx, a.now().AddDate(0, 0, -days))
	if err != nil {
		return n, fmt.Errorf("pruning archive: %w", err)
	}
	return n, nil
}

// Close waits for pending archive writes.
func (a *App) Close() {
	if a.runs != nil {
		a.runs.Wait()
	}
}

// Server builds the HTTP server over the app's services.
func (a *App) Server() (*api.Server, error) {
	s := a.cfg.Server
	return api.NewServer(api.Config{
		Host:         s.Host,
		Port:         s.Port,
		APIKey:       s.APIKey,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		MetricsPath:  a.cfg.Metrics.Path,
	}, api.Dependencies{
		Recommender: a,
		Scorer:      a,
		Narrator:    a,
		Searcher:    a,
		Views:       a.views,
		Metrics:     a.metrics,
	}, a.logger.Named("http"))
}
