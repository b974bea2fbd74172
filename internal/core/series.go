package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of series dates.
const DateLayout = "2006-01-02"

// Date is a calendar day. It marshals as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate builds a Date at UTC midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses "YYYY-MM-DD", falling back to RFC3339.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}
	return Date{t.UTC()}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler. Empty strings and null leave the zero date.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DailyPoint is one trading day of an adjusted daily series.
// SplitCoefficient is 1 on ordinary days; 0 means the provider did not report it.
type DailyPoint struct {
	Date             Date    `json:"date"`
	Open             float64 `json:"open"`
	High             float64 `json:"high"`
	Low              float64 `json:"low"`
	Close            float64 `json:"close"`
	AdjustedClose    float64 `json:"adjustedClose"`
	Volume           float64 `json:"volume"`
	Dividend         float64 `json:"dividend"`
	SplitCoefficient float64 `json:"splitCoefficient"`
}

// MonthlyPoint is one month of an adjusted monthly series.
type MonthlyPoint struct {
	Date          Date    `json:"date"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjustedClose"`
	Dividend      float64 `json:"dividend"`
}

// AdjustedCloses extracts the adjusted close of every point.
func AdjustedCloses(daily []DailyPoint) []float64 {
	closes := make([]float64, len(daily))
	for i, p := range daily {
		closes[i] = p.AdjustedClose
	}
	return closes
}

// Volumes extracts the volume of every point.
func Volumes(daily []DailyPoint) []float64 {
	volumes := make([]float64, len(daily))
	for i, p := range daily {
		volumes[i] = p.Volume
	}
	return volumes
}

// OverviewProfile holds company facts for equities.
// DividendYield is a percent (3.1 means 3.1%).
type OverviewProfile struct {
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	AssetType        string   `json:"assetType,omitempty"`
	Sector           string   `json:"sector,omitempty"`
	Industry         string   `json:"industry,omitempty"`
	DividendPerShare *float64 `json:"dividendPerShare,omitempty"`
	DividendYield    *float64 `json:"dividendYield,omitempty"`
}

// EtfProfile holds fund facts. ExpenseRatio and DividendYield are fractions (0.0003 means 0.03%).
type EtfProfile struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	ExpenseRatio  *float64 `json:"expenseRatio,omitempty"`
	DividendYield *float64 `json:"dividendYield,omitempty"`
	AssetClass    string   `json:"assetClass,omitempty"`
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}

// Value dereferences p, returning fallback when p is nil.
func Value(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}
