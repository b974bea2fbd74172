package core

// InstrumentType classifies a candidate.
type InstrumentType string

const (
	InstrumentEquity  InstrumentType = "EQUITY"
	InstrumentETF     InstrumentType = "ETF"
	InstrumentUnknown InstrumentType = "UNKNOWN"
)

// CandidateSnapshot bundles one symbol's decision, indicators and trend statistics
// as input for ranking. Monthly trends are percent changes.
type CandidateSnapshot struct {
	Symbol            string         `json:"symbol"`
	Name              string         `json:"name"`
	InstrumentType    InstrumentType `json:"instrumentType"`
	Decision          Decision       `json:"decision"`
	Confidence        float64        `json:"confidence"`
	Horizon           Mode           `json:"horizon,omitempty"`
	Indicators        IndicatorSet   `json:"indicators"`
	AverageVolume     float64        `json:"averageVolume"`
	MonthlyTrend1     *float64       `json:"monthlyTrend1,omitempty"`
	MonthlyTrend3     *float64       `json:"monthlyTrend3,omitempty"`
	MonthlyTrend12    *float64       `json:"monthlyTrend12,omitempty"`
	LatestClose       float64        `json:"latestClose"`
	ExpenseRatio      *float64       `json:"expenseRatio,omitempty"`
	DistributionYield *float64       `json:"distributionYield,omitempty"`
	AppViews          *float64       `json:"appViews,omitempty"`
	BuyScore          *float64       `json:"buyScore,omitempty"`
	PopularityScore   *float64       `json:"popularityScore,omitempty"`
	ETFScore          *float64       `json:"etfScore,omitempty"`
}

// RankedItem is a snapshot placed in a ranking, with the score that placed it.
type RankedItem struct {
	CandidateSnapshot
	Rank       int                `json:"rank"`
	Score      float64            `json:"score"`
	Components map[string]float64 `json:"components"`
}
