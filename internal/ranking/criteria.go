package ranking

// PopularWeights weight the popular-symbol components.
type PopularWeights struct {
	AppViews      float64 `mapstructure:"app_views" json:"appViews"`
	AverageVolume float64 `mapstructure:"average_volume" json:"averageVolume"`
}

// PopularCriteria gate and weight the popular-symbol ranking.
type PopularCriteria struct {
	MinimumAverageVolume float64        `mapstructure:"minimum_average_volume" json:"minimumAverageVolume"`
	MinimumAppViews      float64        `mapstructure:"minimum_app_views" json:"minimumAppViews"`
	LookbackDays         int            `mapstructure:"lookback_days" json:"lookbackDays"`
	Weights              PopularWeights `mapstructure:"weights" json:"weights"`
}

// ETFWeights weight the ETF components.
type ETFWeights struct {
	DistributionYield float64 `mapstructure:"distribution_yield" json:"distributionYield"`
	ExpenseRatio      float64 `mapstructure:"expense_ratio" json:"expenseRatio"`
	AverageVolume     float64 `mapstructure:"average_volume" json:"averageVolume"`
}

// ETFCriteria gate and weight the ETF ranking. Ratios are fractions.
type ETFCriteria struct {
	MaxExpenseRatio      float64    `mapstructure:"max_expense_ratio" json:"maxExpenseRatio"`
	MinDistributionYield float64    `mapstructure:"min_distribution_yield" json:"minDistributionYield"`
	Weights              ETFWeights `mapstructure:"weights" json:"weights"`
}

// BuyWeights weight the buy-candidate components.
type BuyWeights struct {
	BuyScore      float64 `mapstructure:"buy_score" json:"buyScore"`
	AverageVolume float64 `mapstructure:"average_volume" json:"averageVolume"`
}

// BuyCriteria gate and weight the buy-candidate ranking.
type BuyCriteria struct {
	MinBuyScore float64    `mapstructure:"min_buy_score" json:"minBuyScore"`
	Weights     BuyWeights `mapstructure:"weights" json:"weights"`
}

// Criteria holds all three rankings' criteria.
type Criteria struct {
	Popular PopularCriteria `mapstructure:"popular" json:"popular"`
	ETF     ETFCriteria     `mapstructure:"etf" json:"etf"`
	Buy     BuyCriteria     `mapstructure:"buy" json:"buy"`
}

// DefaultCriteria returns the stock criteria.
func DefaultCriteria() Criteria {
	return Criteria{
		Popular: PopularCriteria{
			MinimumAverageVolume: 150_000,
			MinimumAppViews:      10,
			LookbackDays:         30,
			Weights:              PopularWeights{AppViews: 0.7, AverageVolume: 0.3},
		},
		ETF: ETFCriteria{
			MaxExpenseRatio:      0.01,
			MinDistributionYield: 0.01,
			Weights:              ETFWeights{DistributionYield: 0.5, ExpenseRatio: 0.3, AverageVolume: 0.2},
		},
		Buy: BuyCriteria{
			MinBuyScore: 70,
			Weights:     BuyWeights{BuyScore: 0.7, AverageVolume: 0.3},
		},
	}
}
