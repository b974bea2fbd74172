// internal/storage/views/memory.go
package views

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/newthinker/kachi/internal/core"
)

// MemoryStore is an in-memory view-count store.
type MemoryStore struct {
	metrics map[string]Metric
	mu      sync.RWMutex
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		metrics: make(map[string]Metric),
		now:     time.Now,
	}
}

func key(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Record increments the view count of a symbol.
func (m *MemoryStore) Record(ctx context.Context, symbol string) (Metric, error) {
	k := key(symbol)
	if k == "" {
		return Metric{}, core.ErrInvalidRequest
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	metric := m.metrics[k]
	metric.Symbol = k
	metric.Views++
	metric.LastViewedAt = m.now()
	m.metrics[k] = metric
	return metric, nil
}

// Upsert sets the count of a symbol.
func (m *MemoryStore) Upsert(ctx context.Context, metric Metric) error {
	k := key(metric.Symbol)
	if k == "" {
		return core.ErrInvalidRequest
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.metrics[k]
	metric.Symbol = k
	if ok && metric.LastViewedAt.IsZero() {
		metric.LastViewedAt = existing.LastViewedAt
	}
	m.metrics[k] = metric
	return nil
}

// Load upserts a batch of metrics, typically the configured seed.
func (m *MemoryStore) Load(ctx context.Context, metrics []Metric) error {
	for _, metric := range metrics {
		if err := m.Upsert(ctx, metric); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a symbol's metric.
func (m *MemoryStore) Get(ctx context.Context, symbol string) (*Metric, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	metric, ok := m.metrics[key(symbol)]
	if !ok {
		return nil, core.ErrSymbolNotFound
	}
	return &metric, nil
}

// MostViewed returns the top metrics. A limit of zero or less returns all of them.
func (m *MemoryStore) MostViewed(ctx context.Context, limit int) ([]Metric, error) {
	m.mu.RLock()
	result := make([]Metric, 0, len(m.metrics))
	for _, metric := range m.metrics {
		result = append(result, metric)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Views != result[j].Views {
			return result[i].Views > result[j].Views
		}
		return result[i].Symbol < result[j].Symbol
	})

	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// Count returns the number of tracked symbols.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.metrics), nil
}
