package models

import "time"

// HoldingValuation is one holding priced at the best available quote.
type HoldingValuation struct {
	Ticker            string  `json:"ticker"`
	Quantity          float64 `json:"quantity"`
	AveragePrice      float64 `json:"average_price"`
	CurrentPrice      float64 `json:"current_price"`
	MarketValue       float64 `json:"market_value"`
	CostBasis         float64 `json:"cost_basis"`
	ProfitLoss        float64 `json:"profit_loss"`
	ProfitLossPercent float64 `json:"profit_loss_percent"`
	DailyChange       float64 `json:"daily_change"`
	AllocationPercent float64 `json:"allocation_percent"`
	// QuoteError marks that the live quote was unavailable and
	// CurrentPrice degraded to the average cost.
	QuoteError bool `json:"quote_error,omitempty"`
}

// Valuation is the portfolio valued at one instant. All monetary fields are
// in the reporting currency. Rates carries the FX rates applied in this
// pass, including whether each was live or a fallback.
type Valuation struct {
	TotalValue        float64            `json:"total_value"`
	TotalCost         float64            `json:"total_cost"`
	ProfitLoss        float64            `json:"profit_loss"`
	ProfitLossPercent float64            `json:"profit_loss_percent"`
	DailyChange       float64            `json:"daily_change"`
	Currency          string             `json:"currency"`
	Holdings          []HoldingValuation `json:"holdings"`
	Rates             []ExchangeRate     `json:"rates,omitempty"`
	AsOf              time.Time          `json:"as_of"`
}

// PortfolioSnapshot is one persisted valuation per calendar date. A later
// save on the same date overwrites the earlier one.
type PortfolioSnapshot struct {
	Date       string    `json:"date"` // "2006-01-02"
	TotalValue float64   `json:"total_value"`
	TotalCost  float64   `json:"total_cost"`
	ProfitLoss float64   `json:"profit_loss"`
	CreatedAt  time.Time `json:"created_at"`
}
