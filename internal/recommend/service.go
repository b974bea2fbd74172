// Package recommend runs the per-symbol analysis over a bounded pool and
// ranks the resulting snapshots.
package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/newthinker/kachi/internal/anomaly"
	"github.com/newthinker/kachi/internal/cache"
	"github.com/newthinker/kachi/internal/candidate"
	"github.com/newthinker/kachi/internal/collector"
	"github.com/newthinker/kachi/internal/core"
	"github.com/newthinker/kachi/internal/decision"
	"github.com/newthinker/kachi/internal/ranking"
	"github.com/newthinker/kachi/internal/storage/views"
)

// Recorder observes recommendation runs.
type Recorder interface {
	RecordDecision(mode, decision string)
	RecordRecommendRun(status string, duration float64)
	SetPoolSize(size int)
	RecordSymbolFailure(stage string)
	RecordCacheLookup(hit bool)
}

// Archiver persists finished runs in the background.
type Archiver interface {
	SaveAsync(runID string, asOf time.Time, run any, timeout time.Duration)
}

// Config tunes the service.
type Config struct {
	PoolCap      int
	Concurrency  int
	CacheTTL     time.Duration
	DefaultLimit int
	MaxLimit     int
	SeedSymbols  []string
	Criteria     ranking.Criteria
	ArchiveWait  time.Duration
	FetchTimeout time.Duration
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{
		PoolCap:      25,
		Concurrency:  4,
		CacheTTL:     30 * time.Minute,
		DefaultLimit: 6,
		MaxLimit:     50,
		Criteria:     ranking.DefaultCriteria(),
		ArchiveWait:  10 * time.Second,
		FetchTimeout: 2 * time.Minute,
	}
}

// Request is one recommendation run.
type Request struct {
	APIKey  string
	Symbols []string
	Limit   int
	Mode    core.Mode
}

// Result is the ranked output of a run.
type Result struct {
	RunID         string            `json:"runId"`
	AsOf          time.Time         `json:"asOf"`
	Mode          core.Mode         `json:"mode"`
	Limit         int               `json:"limit"`
	Criteria      ranking.Criteria  `json:"criteria"`
	PoolSize      int               `json:"poolSize"`
	Skipped       []string          `json:"skipped"`
	Popular       []core.RankedItem `json:"popular"`
	ETFs          []core.RankedItem `json:"etfs"`
	BuyCandidates []core.RankedItem `json:"buyCandidates"`
}

type cacheKey struct {
	apiKey string
	mode   core.Mode
	symbol string
}

// Service builds recommendations from market data.
type Service struct {
	cfg      Config
	market   collector.MarketData
	views    views.Store
	engine   *decision.Engine
	detector *anomaly.Detector
	scorer   *candidate.Scorer
	cache    *cache.TTL[cacheKey, core.CandidateSnapshot]
	flight   singleflight.Group
	logger   *zap.Logger
	recorder Recorder
	archiver Archiver
	now      func() time.Time
	newID    func() string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRecorder sets the metrics observer.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithArchiver archives every successful run.
func WithArchiver(a Archiver) Option {
	return func(s *Service) {
		s.archiver = a
	}
}

// WithEngine replaces the decision engine.
func WithEngine(e *decision.Engine) Option {
	return func(s *Service) {
		s.engine = e
	}
}

// WithDetector replaces the anomaly detector.
func WithDetector(d *anomaly.Detector) Option {
	return func(s *Service) {
		s.detector = d
	}
}

// WithScorer replaces the candidate scorer.
func WithScorer(sc *candidate.Scorer) Option {
	return func(s *Service) {
		s.scorer = sc
	}
}

// WithClock replaces time.Now for run timestamps and the analysis cache.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDs replaces the run ID generator.
func WithIDs(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// New creates a service over a market-data provider and a view store.
func New(cfg Config, market collector.MarketData, store views.Store, opts ...Option) *Service {
	def := DefaultConfig()
	if cfg.PoolCap <= 0 {
		cfg.PoolCap = def.PoolCap
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = def.MaxLimit
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = def.DefaultLimit
	}
	if cfg.ArchiveWait <= 0 {
		cfg.ArchiveWait = def.ArchiveWait
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}

	s := &Service{
		cfg:      cfg,
		market:   market,
		views:    store,
		engine:   decision.NewEngine(decision.DefaultParams()),
		detector: anomaly.New(anomaly.DefaultGapThreshold),
		scorer:   candidate.NewScorer(candidate.DefaultWeights()),
		logger:   zap.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = cache.New[cacheKey, core.CandidateSnapshot](cfg.CacheTTL, cache.WithClock(s.now))
	return s
}

// Limit clamps a requested list length to [1, MaxLimit], substituting the
// default for non-positive values.
func (s *Service) Limit(n int) int {
	if n <= 0 {
		n = s.cfg.DefaultLimit
	}
	return min(n, s.cfg.MaxLimit)
}

// Recommend analyses the pool and returns the three rankings.
func (s *Service) Recommend(ctx context.Context, req Request) (*Result, error) {
	start := s.now()
	result, err := s.recommend(ctx, req)

	status := "ok"
	if err != nil {
		status = "error"
	}
	s.observe(func(r Recorder) { r.RecordRecommendRun(status, s.now().Sub(start).Seconds()) })
	return result, err
}

func (s *Service) recommend(ctx context.Context, req Request) (*Result, error) {
	mode := core.ParseMode(string(req.Mode))
	limit := s.Limit(req.Limit)
	requested := collector.NormalizeSymbols(req.Symbols)

	for _, sym := range requested {
		if _, err := s.views.Record(ctx, sym); err != nil {
			s.logger.Warn("record view failed", zap.String("symbol", sym), zap.Error(err))
		}
	}

	pool, err := s.buildPool(ctx, req.APIKey, requested, limit)
	if err != nil {
		return nil, err
	}
	s.observe(func(r Recorder) { r.SetPoolSize(len(pool)) })
	s.logger.Debug("recommendation pool built",
		zap.Int("pool_size", len(pool)),
		zap.Int("requested", len(requested)),
		zap.String("mode", string(mode)),
	)

	snaps, skipped := s.analyzeAll(ctx, req.APIKey, mode, pool)
	s.attachViews(ctx, snaps)

	crit := s.cfg.Criteria
	scored := s.scorer.Apply(snaps)

	popular := ranking.Top(ranking.RankPopular(snaps, crit.Popular), limit)
	for i := range popular {
		popular[i].CandidateSnapshot = s.scorer.WithPopularityConfidence(popular[i].CandidateSnapshot, scored)
	}

	etfs := ranking.Top(ranking.RankETFs(onlyETFs(snaps), crit.ETF), limit)
	for i := range etfs {
		etfs[i].CandidateSnapshot = s.scorer.WithETFConfidence(etfs[i].CandidateSnapshot, scored)
	}

	buys := ranking.Top(ranking.RankBuyCandidates(snaps, crit.Buy), limit)
	for i := range buys {
		buys[i].CandidateSnapshot = s.scorer.WithPopularityConfidence(buys[i].CandidateSnapshot, scored)
	}

	result := &Result{
		RunID:         s.newID(),
		AsOf:          s.now().UTC(),
		Mode:          mode,
		Limit:         limit,
		Criteria:      crit,
		PoolSize:      len(pool),
		Skipped:       skipped,
		Popular:       popular,
		ETFs:          etfs,
		BuyCandidates: buys,
	}

	s.logger.Info("recommendation built",
		zap.String("run_id", result.RunID),
		zap.Int("pool_size", len(pool)),
		zap.Int("analyzed", len(snaps)),
		zap.Int("skipped", len(skipped)),
		zap.Int("popular", len(popular)),
		zap.Int("etfs", len(etfs)),
		zap.Int("buy_candidates", len(buys)),
	)

	if s.archiver != nil {
		s.archiver.SaveAsync(result.RunID, result.AsOf, result, s.cfg.ArchiveWait)
	}
	return result, nil
}

// analyzeAll fans out over the pool with bounded concurrency. Each task writes
// its own slot, so output keeps pool order and one failure never cancels another.
func (s *Service) analyzeAll(ctx context.Context, apiKey string, mode core.Mode, pool []string) ([]core.CandidateSnapshot, []string) {
	type slot struct {
		snap core.CandidateSnapshot
		err  error
	}
	slots := make([]slot, len(pool))

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, sym := range pool {
		g.Go(func() error {
			snap, err := s.Analyze(ctx, apiKey, mode, sym)
			slots[i] = slot{snap: snap, err: err}
			return nil
		})
	}
	_ = g.Wait()

	snaps := make([]core.CandidateSnapshot, 0, len(pool))
	skipped := []string{}
	for i, sl := range slots {
		if sl.err != nil {
			skipped = append(skipped, pool[i])
			s.observe(func(r Recorder) { r.RecordSymbolFailure("analyze") })
			s.logger.Warn("symbol analysis failed",
				zap.String("symbol", pool[i]),
				zap.String("stage", "analyze"),
				zap.Error(sl.err),
			)
			continue
		}
		snaps = append(snaps, sl.snap)
	}
	return snaps, skipped
}

func (s *Service) attachViews(ctx context.Context, snaps []core.CandidateSnapshot) {
	for i := range snaps {
		var count int64
		if m, err := s.views.Get(ctx, snaps[i].Symbol); err == nil {
			count = m.Views
		}
		snaps[i].AppViews = core.Float64(float64(count))
	}
}

func onlyETFs(snaps []core.CandidateSnapshot) []core.CandidateSnapshot {
	out := make([]core.CandidateSnapshot, 0, len(snaps))
	for _, s := range snaps {
		if s.InstrumentType == core.InstrumentETF {
			out = append(out, s)
		}
	}
	return out
}

// ClearCache drops every cached analysis.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// CacheSize returns the number of cached analyses, expired ones included
// until they are purged.
func (s *Service) CacheSize() int {
	return s.cache.Len()
}

func (s *Service) observe(fn func(Recorder)) {
	if s.recorder != nil {
		fn(s.recorder)
	}
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.apiKey, k.mode, k.symbol)
}
