package collector

import (
	"context"

	"github.com/newthinker/kachi/internal/core"
)

// SearchMatch is one symbol search hit.
type SearchMatch struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Region   string `json:"region"`
	Currency string `json:"currency,omitempty"`
}

// MarketData defines the market-data collaborator. An empty apiKey selects the provider's
// configured default key. Series are returned ascending by date; a missing profile is
// (nil, nil).
type MarketData interface {
	// Metadata
	Name() string

	// Series
	DailyAdjusted(ctx context.Context, apiKey, symbol string) ([]core.DailyPoint, error)
	MonthlyAdjusted(ctx context.Context, apiKey, symbol string) ([]core.MonthlyPoint, error)

	// Profiles
	Overview(ctx context.Context, apiKey, symbol string) (*core.OverviewProfile, error)
	ETFProfile(ctx context.Context, apiKey, symbol string) (*core.EtfProfile, error)

	// Discovery
	Listings(ctx context.Context, apiKey string) ([]string, error)
	Search(ctx context.Context, apiKey, keywords string) ([]SearchMatch, error)
}

// RequestObserver is told about every upstream request a provider makes.
type RequestObserver interface {
	RecordMarketDataRequest(function, status string)
}
