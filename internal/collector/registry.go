package collector

import (
	"fmt"
	"sort"
	"sync"

	"github.com/newthinker/kachi/internal/core"
)

// Registry manages market-data providers by name
type Registry struct {
	mu        sync.RWMutex
	providers map[string]MarketData
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]MarketData),
	}
}

// Register adds a provider to the registry, replacing one with the same name
func (r *Registry) Register(p MarketData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get retrieves a provider by name
func (r *Registry) Get(name string) (MarketData, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// MustGet retrieves a provider by name or returns a config error naming the known providers
func (r *Registry) MustGet(name string) (MarketData, error) {
	if p, ok := r.Get(name); ok {
		return p, nil
	}
	return nil, core.WrapError(core.ErrConfigInvalid,
		fmt.Errorf("unknown market data provider %q (known: %v)", name, r.Names()))
}

// Names returns the registered provider names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
