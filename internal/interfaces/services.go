package interfaces

import (
	"context"
	"time"

	"github.com/foliotracker/folio/internal/models"
)

// LedgerService manages the transaction ledger and keeps derived holdings
// in sync with it.
type LedgerService interface {
	// AddTransaction validates, assigns an ID, persists the transaction
	// and synchronously rebuilds the ticker's holding. For sells it
	// returns the realized gain of the sale in the transaction currency.
	AddTransaction(ctx context.Context, tx *models.Transaction) (realizedGain float64, err error)
	// DeleteTransaction removes a transaction by ID and rebuilds the
	// affected ticker's holding from the remaining history.
	DeleteTransaction(ctx context.Context, id string) error
	ListTransactions(ctx context.Context) ([]*models.Transaction, error)
	ListHoldings(ctx context.Context) ([]*models.Holding, error)
	// RebuildHoldings recomputes every ticker's holding from the full
	// ledger. Used on demand and after imports.
	RebuildHoldings(ctx context.Context) error
	// ImportContractNote parses a broker contract-note PDF and adds the
	// transactions it contains. Returns the added transactions.
	ImportContractNote(ctx context.Context, pdfData []byte) ([]*models.Transaction, error)
}

// PriceService fetches quotes in bulk and normalizes them to the
// reporting currency.
type PriceService interface {
	// GetQuotes fetches all tickers concurrently. Every requested ticker
	// is present in the result; failed fetches carry Error=true. The
	// returned rates are the FX rates applied in this pass.
	GetQuotes(ctx context.Context, tickers []string) (map[string]*models.Quote, []models.ExchangeRate)
	// ExchangeRates returns the current conversion rates into the
	// reporting currency for all supported currencies.
	ExchangeRates(ctx context.Context) []models.ExchangeRate
}

// ValuationService combines holdings with live prices.
type ValuationService interface {
	// Valuate prices the current holdings with best-available quotes.
	Valuate(ctx context.Context) (*models.Valuation, error)
	// SaveSnapshot valuates and upserts today's snapshot.
	SaveSnapshot(ctx context.Context, now time.Time) (*models.PortfolioSnapshot, error)
	// History returns persisted snapshots from the last `days` days.
	History(ctx context.Context, days int) ([]*models.PortfolioSnapshot, error)
	// RenderHistoryChart renders the snapshot history as a PNG chart.
	RenderHistoryChart(ctx context.Context, days int) ([]byte, error)
	// Insights generates AI commentary for the current valuation.
	Insights(ctx context.Context) (string, error)
}
