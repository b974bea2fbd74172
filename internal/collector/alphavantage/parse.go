package alphavantage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/newthinker/kachi/internal/collector"
	"github.com/newthinker/kachi/internal/core"
)

// flexFloat accepts a JSON number or a numeric string. Placeholders like "None" decode as absent.
type flexFloat struct {
	v *float64
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		f.v = nil
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		f.v = &num
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.v = parseFloatPtr(s)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// parseFloat64 parses an API numeric string, treating placeholders and garbage as 0.
func parseFloat64(s string) float64 {
	if p := parseFloatPtr(s); p != nil {
		return *p
	}
	return 0
}

// parseFloatPtr parses an API numeric string, returning nil for placeholders.
func parseFloatPtr(s string) *float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	switch strings.ToLower(s) {
	case "", "none", "null", "-", "n/a":
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseDaily(body []byte) ([]core.DailyPoint, error) {
	var resp struct {
		Series map[string]map[string]string `json:"Time Series (Daily)"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding daily series: %w", err)
	}

	points := make([]core.DailyPoint, 0, len(resp.Series))
	for day, bar := range resp.Series {
		date, err := core.ParseDate(day)
		if err != nil {
			continue
		}
		points = append(points, core.DailyPoint{
			Date:             date,
			Open:             parseFloat64(bar["1. open"]),
			High:             parseFloat64(bar["2. high"]),
			Low:              parseFloat64(bar["3. low"]),
			Close:            parseFloat64(bar["4. close"]),
			AdjustedClose:    parseFloat64(bar["5. adjusted close"]),
			Volume:           parseFloat64(bar["6. volume"]),
			Dividend:         parseFloat64(bar["7. dividend amount"]),
			SplitCoefficient: parseFloat64(bar["8. split coefficient"]),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date.Time) })
	return points, nil
}

func parseMonthly(body []byte) ([]core.MonthlyPoint, error) {
	var resp struct {
		Series map[string]map[string]string `json:"Monthly Adjusted Time Series"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding monthly series: %w", err)
	}

	points := make([]core.MonthlyPoint, 0, len(resp.Series))
	for day, bar := range resp.Series {
		date, err := core.ParseDate(day)
		if err != nil {
			continue
		}
		points = append(points, core.MonthlyPoint{
			Date:          date,
			Close:         parseFloat64(bar["4. close"]),
			AdjustedClose: parseFloat64(bar["5. adjusted close"]),
			Dividend:      parseFloat64(bar["7. dividend amount"]),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date.Time) })
	return points, nil
}

// parseOverview returns nil when the payload names no symbol. The dividend yield is
// converted from a fraction to percent.
func parseOverview(body []byte) (*core.OverviewProfile, error) {
	var resp struct {
		Symbol           string    `json:"Symbol"`
		Name             string    `json:"Name"`
		Description      string    `json:"Description"`
		AssetType        string    `json:"AssetType"`
		Sector           string    `json:"Sector"`
		Industry         string    `json:"Industry"`
		DividendPerShare flexFloat `json:"DividendPerShare"`
		DividendYield    flexFloat `json:"DividendYield"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding overview: %w", err)
	}
	if resp.Symbol == "" {
		return nil, nil
	}

	profile := &core.OverviewProfile{
		Symbol:           resp.Symbol,
		Name:             resp.Name,
		Description:      resp.Description,
		AssetType:        resp.AssetType,
		Sector:           resp.Sector,
		Industry:         resp.Industry,
		DividendPerShare: resp.DividendPerShare.v,
	}
	if resp.DividendYield.v != nil {
		profile.DividendYield = core.Float64(*resp.DividendYield.v * 100)
	}
	return profile, nil
}

// parseETFProfile accepts both the flat ETF_PROFILE payload and the older data[] listing.
// Ratios stay fractions. It returns nil when the payload describes no fund.
func parseETFProfile(symbol string, body []byte) (*core.EtfProfile, error) {
	var resp struct {
		NetExpenseRatio flexFloat `json:"net_expense_ratio"`
		DividendYield   flexFloat `json:"dividend_yield"`
		NetAssets       flexFloat `json:"net_assets"`
		Data            []struct {
			Ticker        string    `json:"ticker"`
			Name          string    `json:"name"`
			ExpenseRatio  flexFloat `json:"expenseRatio"`
			DividendYield flexFloat `json:"dividendYield"`
			AssetClass    string    `json:"assetClass"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding etf profile: %w", err)
	}

	if len(resp.Data) > 0 {
		entry := resp.Data[0]
		profile := &core.EtfProfile{
			Symbol:        entry.Ticker,
			Name:          entry.Name,
			ExpenseRatio:  entry.ExpenseRatio.v,
			DividendYield: entry.DividendYield.v,
			AssetClass:    entry.AssetClass,
		}
		if profile.Symbol == "" {
			profile.Symbol = symbol
		}
		return profile, nil
	}

	if resp.NetExpenseRatio.v == nil && resp.DividendYield.v == nil && resp.NetAssets.v == nil {
		return nil, nil
	}
	return &core.EtfProfile{
		Symbol:        symbol,
		ExpenseRatio:  resp.NetExpenseRatio.v,
		DividendYield: resp.DividendYield.v,
	}, nil
}

// parseListings reads the symbol column of a LISTING_STATUS CSV.
func parseListings(body []byte) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading listing header: %w", err)
	}
	col := 0
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "symbol") {
			col = i
			break
		}
	}

	symbols := make([]string, 0, 1024)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading listing row: %w", err)
		}
		if col >= len(rec) {
			continue
		}
		if s := strings.TrimSpace(rec[col]); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols, nil
}

func parseSymbolSearch(body []byte) ([]collector.SearchMatch, error) {
	var resp struct {
		BestMatches []map[string]string `json:"bestMatches"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding symbol search: %w", err)
	}

	matches := make([]collector.SearchMatch, 0, len(resp.BestMatches))
	for _, m := range resp.BestMatches {
		matches = append(matches, collector.SearchMatch{
			Symbol:   m["1. symbol"],
			Name:     m["2. name"],
			Type:     m["3. type"],
			Region:   m["4. region"],
			Currency: m["8. currency"],
		})
	}
	return matches, nil
}
