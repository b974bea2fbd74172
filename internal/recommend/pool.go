package recommend

import (
	"context"

	"go.uber.org/zap"

	"github.com/newthinker/kachi/internal/collector"
	"github.com/newthinker/kachi/internal/core"
)

// poolBuilder accumulates unique normalized symbols up to a cap.
type poolBuilder struct {
	capacity int
	symbols  []string
	seen     map[string]struct{}
}

func newPoolBuilder(capacity int) *poolBuilder {
	return &poolBuilder{capacity: capacity, seen: make(map[string]struct{}, capacity)}
}

func (p *poolBuilder) full() bool {
	return len(p.symbols) >= p.capacity
}

func (p *poolBuilder) add(raw ...string) {
	for _, r := range raw {
		if p.full() {
			return
		}
		sym, err := collector.NormalizeSymbol(r)
		if err != nil {
			continue
		}
		if _, dup := p.seen[sym]; dup {
			continue
		}
		p.seen[sym] = struct{}{}
		p.symbols = append(p.symbols, sym)
	}
}

// buildPool merges requested symbols, the most viewed symbols (limit*3),
// configured seeds and finally the listed universe, stopping at the cap. The
// universe is only fetched when the earlier sources leave room; its failure
// fails the run.
func (s *Service) buildPool(ctx context.Context, apiKey string, requested []string, limit int) ([]string, error) {
	p := newPoolBuilder(s.cfg.PoolCap)
	p.add(requested...)

	if !p.full() {
		viewed, err := s.views.MostViewed(ctx, limit*3)
		if err != nil {
			s.logger.Warn("most viewed lookup failed", zap.Error(err))
		}
		for _, m := range viewed {
			p.add(m.Symbol)
		}
	}

	p.add(s.cfg.SeedSymbols...)

	if !p.full() {
		universe, err := s.market.Listings(ctx, apiKey)
		if err != nil {
			return nil, core.WrapError(core.ErrUniverseFetch, err)
		}
		p.add(universe...)
	}
	return p.symbols, nil
}
