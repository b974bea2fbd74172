package alphavantage

import (
	"context"
	"fmt"
	"net/url"

	"github.com/newthinker/kachi/internal/collector"
	"github.com/newthinker/kachi/internal/core"
)

// DailyAdjusted returns the full daily adjusted history, ascending
func (c *Client) DailyAdjusted(ctx context.Context, apiKey, symbol string) ([]core.DailyPoint, error) {
	p, err := c.get(ctx, apiKey, "TIME_SERIES_DAILY_ADJUSTED", url.Values{
		"symbol":     {symbol},
		"outputsize": {"full"},
	})
	if err != nil {
		return nil, err
	}
	return parseDaily(p.body)
}

// MonthlyAdjusted returns the monthly adjusted history, ascending
func (c *Client) MonthlyAdjusted(ctx context.Context, apiKey, symbol string) ([]core.MonthlyPoint, error) {
	p, err := c.get(ctx, apiKey, "TIME_SERIES_MONTHLY_ADJUSTED", url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, err
	}
	return parseMonthly(p.body)
}

// Overview returns the company overview, or nil for symbols without one (funds, unknowns)
func (c *Client) Overview(ctx context.Context, apiKey, symbol string) (*core.OverviewProfile, error) {
	p, err := c.get(ctx, apiKey, "OVERVIEW", url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, err
	}
	return parseOverview(p.body)
}

// ETFProfile returns the fund profile, or nil for symbols that are not funds
func (c *Client) ETFProfile(ctx context.Context, apiKey, symbol string) (*core.EtfProfile, error) {
	p, err := c.get(ctx, apiKey, "ETF_PROFILE", url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, err
	}
	return parseETFProfile(symbol, p.body)
}

// Listings returns every actively listed symbol
func (c *Client) Listings(ctx context.Context, apiKey string) ([]string, error) {
	p, err := c.get(ctx, apiKey, "LISTING_STATUS", url.Values{"state": {"active"}})
	if err != nil {
		return nil, err
	}
	if !p.csv {
		return nil, core.WrapError(core.ErrFetchFailed, fmt.Errorf("LISTING_STATUS: expected csv payload"))
	}
	return parseListings(p.body)
}

// Search returns the best keyword matches
func (c *Client) Search(ctx context.Context, apiKey, keywords string) ([]collector.SearchMatch, error) {
	p, err := c.get(ctx, apiKey, "SYMBOL_SEARCH", url.Values{"keywords": {keywords}})
	if err != nil {
		return nil, err
	}
	return parseSymbolSearch(p.body)
}
