// Package valuation combines current holdings with live market prices and
// maintains the portfolio value history.
package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/foliotracker/folio/internal/common"
	"github.com/foliotracker/folio/internal/interfaces"
	"github.com/foliotracker/folio/internal/models"
)

// Service implements ValuationService.
type Service struct {
	ledger            interfaces.LedgerService
	prices            interfaces.PriceService
	snapshots         interfaces.SnapshotStore
	generative        interfaces.GenerativeClient
	logger            *common.Logger
	reportingCurrency string
	now               func() time.Time // injectable clock for testing
}

// NewService creates a new valuation service. The generative client may be
// nil, in which case Insights returns an error.
func NewService(ledger interfaces.LedgerService, prices interfaces.PriceService, snapshots interfaces.SnapshotStore, generative interfaces.GenerativeClient, reportingCurrency string, logger *common.Logger) *Service {
	if reportingCurrency == "" {
		reportingCurrency = "SEK"
	}
	return &Service{
		ledger:            ledger,
		prices:            prices,
		snapshots:         snapshots,
		generative:        generative,
		logger:            logger,
		reportingCurrency: reportingCurrency,
		now:               time.Now,
	}
}

// Valuate prices the current holdings with the best available quotes. A
// holding whose quote failed is valued at its average cost and marked, so
// one bad ticker never hides the rest of the portfolio.
func (s *Service) Valuate(ctx context.Context) (*models.Valuation, error) {
	holdings, err := s.ledger.ListHoldings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}

	valuation := &models.Valuation{
		Currency: s.reportingCurrency,
		Holdings: make([]models.HoldingValuation, 0, len(holdings)),
		AsOf:     s.now(),
	}
	if len(holdings) == 0 {
		return valuation, nil
	}

	tickers := make([]string, 0, len(holdings))
	for _, h := range holdings {
		tickers = append(tickers, h.Ticker)
	}

	quotes, rates := s.prices.GetQuotes(ctx, tickers)
	valuation.Rates = rates

	for _, h := range holdings {
		hv := models.HoldingValuation{
			Ticker:       h.Ticker,
			Quantity:     h.Quantity,
			AveragePrice: h.AveragePrice,
			CostBasis:    h.Quantity * h.AveragePrice,
		}

		quote := quotes[h.Ticker]
		if quote != nil && !quote.Error && quote.Current > 0 {
			hv.CurrentPrice = quote.Current
			hv.DailyChange = h.Quantity * quote.Change
		} else {
			// Degrade to cost so the position still appears.
			hv.CurrentPrice = h.AveragePrice
			hv.QuoteError = true
			s.logger.Warn().Str("ticker", h.Ticker).Msg("Valuing holding at average cost, quote unavailable")
		}

		hv.MarketValue = hv.Quantity * hv.CurrentPrice
		hv.ProfitLoss = hv.MarketValue - hv.CostBasis
		if hv.CostBasis > 0 {
			hv.ProfitLossPercent = hv.ProfitLoss / hv.CostBasis * 100
		}

		valuation.TotalValue += hv.MarketValue
		valuation.TotalCost += hv.CostBasis
		valuation.DailyChange += hv.DailyChange
		valuation.Holdings = append(valuation.Holdings, hv)
	}

	valuation.ProfitLoss = valuation.TotalValue - valuation.TotalCost
	if valuation.TotalCost > 0 {
		valuation.ProfitLossPercent = valuation.ProfitLoss / valuation.TotalCost * 100
	}
	if valuation.TotalValue > 0 {
		for i := range valuation.Holdings {
			valuation.Holdings[i].AllocationPercent = valuation.Holdings[i].MarketValue / valuation.TotalValue * 100
		}
	}

	return valuation, nil
}

// SaveSnapshot valuates the portfolio and upserts the snapshot for now's
// calendar date. Saving twice on one date keeps only the later value.
func (s *Service) SaveSnapshot(ctx context.Context, now time.Time) (*models.PortfolioSnapshot, error) {
	valuation, err := s.Valuate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to valuate portfolio: %w", err)
	}

	snapshot := &models.PortfolioSnapshot{
		Date:       now.UTC().Format("2006-01-02"),
		TotalValue: valuation.TotalValue,
		TotalCost:  valuation.TotalCost,
		ProfitLoss: valuation.ProfitLoss,
		CreatedAt:  now.UTC(),
	}

	if err := s.snapshots.Upsert(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.logger.Info().
		Str("date", snapshot.Date).
		Float64("total_value", snapshot.TotalValue).
		Msg("Portfolio snapshot saved")

	return snapshot, nil
}

// History returns the persisted snapshots from the last `days` days, most
// recent first.
func (s *Service) History(ctx context.Context, days int) ([]*models.PortfolioSnapshot, error) {
	if days <= 0 {
		days = 30
	}
	snapshots, err := s.snapshots.List(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snapshots, nil
}

// Compile-time check
var _ interfaces.ValuationService = (*Service)(nil)
