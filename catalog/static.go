package catalog

import (
	"context"

	"github.com/e-mutai/pesa-smart-guide/entities"
)

// StaticFunds returns a fresh copy of the built-in Kenyan fund catalog. The
// symbol of each fund is a listed proxy used for live refresh.
func StaticFunds() []entities.Fund {
	return []entities.Fund{
		{
			ID:                 "fund1",
			Name:               "Money Market Fund",
			Company:            "CIC Asset Management",
			PerformancePercent: 9.8,
			Risk:               "Low",
			Description:        "Invests in short-term debt securities in the Kenyan money market. Ideal for conservative investors seeking capital preservation.",
			Fee:                1.5,
			MinimumInvestment:  5000,
			AssetClass:         "Money Market",
			Symbol:             "BIL",
		},
		{
			ID:                 "fund2",
			Name:               "Equity Growth Fund",
			Company:            "Britam Asset Managers",
			PerformancePercent: 14.2,
			Risk:               "High",
			Description:        "Invests primarily in Kenyan and regional equities for long-term capital growth. Higher risk with potential higher returns.",
			Fee:                2.5,
			MinimumInvestment:  10000,
			AssetClass:         "Equity",
			Symbol:             "KCB.NR",
		},
		{
			ID:                 "fund3",
			Name:               "Balanced Fund",
			Company:            "ICEA Lion Asset Management",
			PerformancePercent: 11.5,
			Risk:               "Medium",
			Description:        "Balanced exposure across equity and fixed income markets in Kenya. Provides moderate growth with reduced volatility.",
			Fee:                2.0,
			MinimumInvestment:  7500,
			AssetClass:         "Mixed Allocation",
			Symbol:             "AOK",
		},
		{
			ID:                 "fund4",
			Name:               "Fixed Income Fund",
			Company:            "Sanlam Investments",
			PerformancePercent: 10.3,
			Risk:               "Low-Medium",
			Description:        "Invests primarily in Kenyan government and corporate bonds. Aims to provide regular income with modest capital appreciation.",
			Fee:                1.8,
			MinimumInvestment:  5000,
			AssetClass:         "Fixed Income",
			Symbol:             "AGG",
		},
		{
			ID:                 "fund5",
			Name:               "Aggressive Growth Fund",
			Company:            "Old Mutual Investment Group",
			PerformancePercent: 16.5,
			Risk:               "Very High",
			Description:        "Focuses on high-growth sectors and companies in Kenya and East Africa with higher volatility. Suitable for long-term investors with high risk tolerance.",
			Fee:                2.8,
			MinimumInvestment:  15000,
			AssetClass:         "Equity",
			Symbol:             "QQQ",
		},
		{
			ID:                 "fund6",
			Name:               "Umoja Fund",
			Company:            "Cooperative Bank of Kenya",
			PerformancePercent: 12.7,
			Risk:               "Medium-High",
			Description:        "A diversified fund that invests in equities, fixed income, and alternative investments across Kenya and East Africa.",
			Fee:                2.2,
			MinimumInvestment:  10000,
			AssetClass:         "Mixed Allocation",
			Symbol:             "VBMFX",
		},
		{
			ID:                 "fund7",
			Name:               "Equity Index Fund",
			Company:            "GenAfrica Asset Managers",
			PerformancePercent: 13.8,
			Risk:               "High",
			Description:        "Tracks the performance of the Nairobi Securities Exchange (NSE) index to provide market returns.",
			Fee:                1.75,
			MinimumInvestment:  8000,
			AssetClass:         "Equity",
			Symbol:             "VTI",
		},
		{
			ID:                 "fund8",
			Name:               "Imara Money Market Fund",
			Company:            "Imara Asset Management",
			PerformancePercent: 8.9,
			Risk:               "Low",
			Description:        "Focuses on capital preservation through investments in high-quality money market instruments in Kenya.",
			Fee:                1.4,
			MinimumInvestment:  1000,
			AssetClass:         "Money Market",
			Symbol:             "VTIP",
		},
		{
			ID:                 "fund9",
			Name:               "Cytonn High Yield Fund",
			Company:            "Cytonn Asset Managers",
			PerformancePercent: 15.2,
			Risk:               "High",
			Description:        "Targets high yields through investments in real estate projects and structured products in Kenya.",
			Fee:                3.0,
			MinimumInvestment:  20000,
			AssetClass:         "Alternative",
			Symbol:             "VGSIX",
		},
	}
}

// StaticSource always succeeds; it is the last link of every provider chain.
type StaticSource struct{}

func (StaticSource) Name() string { return "static" }

func (StaticSource) LoadCatalog(_ context.Context) ([]entities.Fund, error) {
	return StaticFunds(), nil
}
