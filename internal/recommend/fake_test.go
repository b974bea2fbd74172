package recommend

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/newthinker/kachi/internal/collector"
	"github.com/newthinker/kachi/internal/core"
)

var errUpstream = errors.New("upstream unavailable")

// trend builds n daily points compounding by rate per day, ending on end.
func trend(n int, start, rate float64, end time.Time) []core.DailyPoint {
	points := make([]core.DailyPoint, n)
	price := start
	for i := 0; i < n; i++ {
		day := end.AddDate(0, 0, i-n+1)
		points[i] = core.DailyPoint{
			Date:             core.NewDate(day.Year(), day.Month(), day.Day()),
			Open:             price,
			High:             price * 1.001,
			Low:              price * 0.999,
			Close:            price,
			AdjustedClose:    price,
			Volume:           1_000_000,
			SplitCoefficient: 1,
		}
		price *= 1 + rate
	}
	return points
}

// monthlySeries builds n monthly points compounding by rate per month.
func monthlySeries(n int, start, rate float64, end time.Time) []core.MonthlyPoint {
	points := make([]core.MonthlyPoint, n)
	price := start
	for i := 0; i < n; i++ {
		month := end.AddDate(0, i-n+1, 0)
		points[i] = core.MonthlyPoint{
			Date:          core.NewDate(month.Year(), month.Month(), 28),
			Close:         price,
			AdjustedClose: price,
		}
		price *= 1 + rate
	}
	return points
}

type fakeMarket struct {
	mu          sync.Mutex
	daily       map[string][]core.DailyPoint
	monthly     map[string][]core.MonthlyPoint
	overviews   map[string]*core.OverviewProfile
	profiles    map[string]*core.EtfProfile
	failDaily   map[string]bool
	failProfile map[string]bool
	listings    []string
	listingsErr error
	delay       time.Duration
	gate        chan struct{}

	dailyCalls    atomic.Int64
	listingsCalls atomic.Int64
	apiKeys       []string
}

var _ collector.MarketData = (*fakeMarket)(nil)

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		daily:       map[string][]core.DailyPoint{},
		monthly:     map[string][]core.MonthlyPoint{},
		overviews:   map[string]*core.OverviewProfile{},
		profiles:    map[string]*core.EtfProfile{},
		failDaily:   map[string]bool{},
		failProfile: map[string]bool{},
	}
}

var testEnd = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

func (f *fakeMarket) rising(symbol string) {
	f.daily[symbol] = trend(300, 100, 0.003, testEnd)
	f.monthly[symbol] = monthlySeries(24, 80, 0.02, testEnd)
}

func (f *fakeMarket) falling(symbol string) {
	f.daily[symbol] = trend(300, 100, -0.003, testEnd)
	f.monthly[symbol] = monthlySeries(24, 120, -0.02, testEnd)
}

func (f *fakeMarket) Name() string { return "fake" }

func (f *fakeMarket) DailyAdjusted(ctx context.Context, apiKey, symbol string) ([]core.DailyPoint, error) {
	f.dailyCalls.Add(1)
	f.mu.Lock()
	f.apiKeys = append(f.apiKeys, apiKey)
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.failDaily[symbol] {
		return nil, errUpstream
	}
	return f.daily[symbol], nil
}

func (f *fakeMarket) MonthlyAdjusted(ctx context.Context, apiKey, symbol string) ([]core.MonthlyPoint, error) {
	return f.monthly[symbol], nil
}

func (f *fakeMarket) Overview(ctx context.Context, apiKey, symbol string) (*core.OverviewProfile, error) {
	return f.overviews[symbol], nil
}

func (f *fakeMarket) ETFProfile(ctx context.Context, apiKey, symbol string) (*core.EtfProfile, error) {
	if f.failProfile[symbol] {
		return nil, errUpstream
	}
	return f.profiles[symbol], nil
}

func (f *fakeMarket) Listings(ctx context.Context, apiKey string) ([]string, error) {
	f.listingsCalls.Add(1)
	return f.listings, f.listingsErr
}

func (f *fakeMarket) Search(ctx context.Context, apiKey, keywords string) ([]collector.SearchMatch, error) {
	return nil, nil
}

type fakeRecorder struct {
	mu        sync.Mutex
	decisions map[string]int
	runs      []string
	poolSizes []int
	failures  map[string]int
	hits      int
	misses    int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{decisions: map[string]int{}, failures: map[string]int{}}
}

func (r *fakeRecorder) RecordDecision(mode, decision string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions[mode+"/"+decision]++
}

func (r *fakeRecorder) RecordRecommendRun(status string, duration float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, status)
}

func (r *fakeRecorder) SetPoolSize(size int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.poolSizes = append(r.poolSizes, size)
}

func (r *fakeRecorder) RecordSymbolFailure(stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[stage]++
}

func (r *fakeRecorder) RecordCacheLookup(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

type fakeArchiver struct {
	mu    sync.Mutex
	runs  []string
	asOfs []time.Time
}

func (a *fakeArchiver) SaveAsync(runID string, asOf time.Time, run any, timeout time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runs = append(a.runs, runID)
	a.asOfs = append(a.asOfs, asOf)
}
