// internal/storage/views/interface.go
package views

import (
	"context"
	"time"
)

// Metric is the in-app view count of one symbol.
type Metric struct {
	Symbol       string    `json:"symbol" mapstructure:"symbol"`
	Views        int64     `json:"views" mapstructure:"views"`
	LastViewedAt time.Time `json:"lastViewedAt,omitempty" mapstructure:"-"`
}

// Store defines the interface for view-count persistence.
type Store interface {
	// Record counts one view of symbol and returns the updated metric.
	Record(ctx context.Context, symbol string) (Metric, error)

	// Upsert replaces the count of a symbol. A zero LastViewedAt keeps the stored one.
	Upsert(ctx context.Context, metric Metric) error

	// Load upserts every metric.
	Load(ctx context.Context, metrics []Metric) error

	// Get retrieves the metric of a symbol.
	Get(ctx context.Context, symbol string) (*Metric, error)

	// MostViewed returns up to limit metrics ordered by views desc, then symbol.
	MostViewed(ctx context.Context, limit int) ([]Metric, error)

	// Count returns the number of tracked symbols.
	Count(ctx context.Context) (int, error)
}
