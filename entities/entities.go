package entities

type UserProfile struct {
	Age                 string `json:"age"`
	MonthlyIncome       string `json:"monthlyIncome"`
	InvestmentGoal      string `json:"investmentGoal"`
	TimeHorizon         string `json:"timeHorizon"`
	RiskTolerance       int    `json:"riskTolerance"`
	ExistingInvestments string `json:"existingInvestments"`
	MonthlyContribution string `json:"monthlyContribution"`
}

type HistoricalPoint struct {
	Date      string   `json:"date"`
	Value     float64  `json:"value"`
	Benchmark *float64 `json:"benchmark,omitempty"`
}

type Fund struct {
	ID                 string            `json:"id" yaml:"id"`
	Name               string            `json:"name" yaml:"name"`
	Company            string            `json:"company" yaml:"company"`
	PerformancePercent float64           `json:"performancePercent" yaml:"performance_percent"`
	Risk               string            `json:"risk" yaml:"risk"`
	Description        string            `json:"description" yaml:"description"`
	Fee                float64           `json:"fee" yaml:"fee"`
	MinimumInvestment  float64           `json:"minimumInvestment" yaml:"minimum_investment"`
	AssetClass         string            `json:"assetClass" yaml:"asset_class"`
	Symbol             string            `json:"symbol,omitempty" yaml:"symbol"`
	HistoricalData     []HistoricalPoint `json:"historicalData" yaml:"-"`
}

type ForecastPoint struct {
	Date           string  `json:"date"`
	PredictedValue float64 `json:"predicted_value"`
	LowerBound     float64 `json:"lower_bound"`
	UpperBound     float64 `json:"upper_bound"`
}

type PerformanceMetrics struct {
	AverageReturn float64 `json:"average_return"`
	Volatility    float64 `json:"volatility"`
	SharpeRatio   float64 `json:"sharpe_ratio"`
}

type EnrichedFund struct {
	Fund
	MinimumInvestmentDisplay string             `json:"minimumInvestmentDisplay,omitempty"`
	Forecast                 []ForecastPoint    `json:"forecast"`
	Metrics                  PerformanceMetrics `json:"metrics"`
}

type RiskProfileResp struct {
	RiskCategory RiskCategory `json:"riskCategory"`
	RiskScore    int          `json:"riskScore"`
	Explanation  string       `json:"explanation"`
}

type ForecastReq struct {
	FundID  string `json:"fundId"`
	Periods int    `json:"periods,omitempty"`
}

type ForecastResp struct {
	Forecast []ForecastPoint `json:"forecast"`
}

type ErrorResp struct {
	Error string `json:"error"`
}

// RecommendationJob travels over the request queue of the async flow.
type RecommendationJob struct {
	ID      string      `json:"id"`
	Profile UserProfile `json:"profile"`
}

type RecommendationResult struct {
	ID    string         `json:"id"`
	Funds []EnrichedFund `json:"funds,omitempty"`
	Error string         `json:"error,omitempty"`
}
