// Package price fetches live quotes in bulk and normalizes them to the
// reporting currency.
package price

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/foliotracker/folio/internal/common"
	"github.com/foliotracker/folio/internal/interfaces"
	"github.com/foliotracker/folio/internal/models"
)

// fallbackRates are last-resort conversion rates into SEK, used when the
// live FX fetch fails. Using a stale rate beats failing the valuation.
var fallbackRates = map[string]float64{
	"USD": 10.5,
	"EUR": 11.5,
	"GBP": 13.2,
	"NOK": 1.0,
	"DKK": 1.55,
	"SEK": 1.0,
}

// Service implements PriceService. Each batch fetches every ticker
// concurrently with a bounded per-ticker timeout; one FX rate per currency
// is resolved for the whole batch so all converted fields agree.
type Service struct {
	market            interfaces.MarketDataClient
	fx                interfaces.FXClient
	logger            *common.Logger
	reportingCurrency string
	perTickerTimeout  time.Duration
	now               func() time.Time // injectable clock for testing
}

// NewService creates a new price service.
func NewService(market interfaces.MarketDataClient, fx interfaces.FXClient, reportingCurrency string, timeout time.Duration, logger *common.Logger) *Service {
	if reportingCurrency == "" {
		reportingCurrency = "SEK"
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Service{
		market:            market,
		fx:                fx,
		logger:            logger,
		reportingCurrency: strings.ToUpper(reportingCurrency),
		perTickerTimeout:  timeout,
		now:               time.Now,
	}
}

// GetQuotes fans out one fetch per ticker and joins the results. A failed
// or slow ticker never fails the batch: its entry comes back with
// Error=true and zero numeric fields. All successful quotes are converted
// to the reporting currency with one rate per native currency.
func (s *Service) GetQuotes(ctx context.Context, tickers []string) (map[string]*models.Quote, []models.ExchangeRate) {
	quotes := make(map[string]*models.Quote, len(tickers))
	if len(tickers) == 0 {
		return quotes, nil
	}

	type result struct {
		ticker string
		quote  *models.Quote
	}

	results := make(chan result, len(tickers))
	var wg sync.WaitGroup

	for _, raw := range tickers {
		ticker := strings.ToUpper(strings.TrimSpace(raw))
		if ticker == "" {
			continue
		}

		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, s.perTickerTimeout)
			defer cancel()

			quote, err := s.market.GetQuote(fetchCtx, models.YahooSymbol(ticker))
			if err != nil {
				s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Quote fetch failed")
				results <- result{ticker: ticker, quote: &models.Quote{
					Ticker:    ticker,
					Currency:  s.reportingCurrency,
					FetchedAt: s.now(),
					Error:     true,
				}}
				return
			}

			quote.Ticker = ticker
			results <- result{ticker: ticker, quote: quote}
		}(ticker)
	}

	wg.Wait()
	close(results)

	for r := range results {
		quotes[r.ticker] = r.quote
	}

	rates := s.convertAll(ctx, quotes)
	return quotes, rates
}

// convertAll converts every successful quote into the reporting currency.
// One rate is resolved per native currency and applied to every monetary
// field of every quote in that currency.
func (s *Service) convertAll(ctx context.Context, quotes map[string]*models.Quote) []models.ExchangeRate {
	needed := make(map[string]bool)
	for _, q := range quotes {
		if q.Error {
			continue
		}
		if q.Currency == "" {
			q.Currency = s.reportingCurrency
		}
		if q.Currency != s.reportingCurrency {
			needed[q.Currency] = true
		}
	}

	resolved := make(map[string]models.ExchangeRate, len(needed))
	for currency := range needed {
		resolved[currency] = s.resolveRate(ctx, currency)
	}

	for _, q := range quotes {
		if q.Error || q.Currency == s.reportingCurrency {
			continue
		}
		rate := resolved[q.Currency].Rate
		q.OriginalCurrency = q.Currency
		q.Currency = s.reportingCurrency
		q.Current *= rate
		q.Change *= rate
		q.DayHigh *= rate
		q.DayLow *= rate
		// ChangePercent is scale-free and carries over unchanged.
	}

	rates := make([]models.ExchangeRate, 0, len(resolved))
	for _, r := range resolved {
		rates = append(rates, r)
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i].From < rates[j].From })
	return rates
}

// resolveRate fetches the live rate into the reporting currency, degrading
// to the fallback table. Fallback use is logged so stale conversions are
// observable.
func (s *Service) resolveRate(ctx context.Context, from string) models.ExchangeRate {
	fetchCtx, cancel := context.WithTimeout(ctx, s.perTickerTimeout)
	defer cancel()

	rate, asOf, err := s.fx.GetRate(fetchCtx, from, s.reportingCurrency)
	if err == nil && rate > 0 {
		return models.ExchangeRate{
			From:   from,
			To:     s.reportingCurrency,
			Rate:   rate,
			Source: models.RateSourceLive,
			AsOf:   asOf,
		}
	}

	fallback, ok := fallbackRates[from]
	if !ok {
		// Unknown currency with no live rate: pass through unconverted
		// rather than zeroing the position out.
		fallback = 1.0
	}

	s.logger.Warn().
		Err(err).
		Str("from", from).
		Str("to", s.reportingCurrency).
		Float64("fallback_rate", fallback).
		Msg("FX rate unavailable, using fallback")

	return models.ExchangeRate{
		From:   from,
		To:     s.reportingCurrency,
		Rate:   fallback,
		Source: models.RateSourceFallback,
		AsOf:   s.now(),
	}
}

// ExchangeRates returns the current conversion rates into the reporting
// currency for every supported currency.
func (s *Service) ExchangeRates(ctx context.Context) []models.ExchangeRate {
	currencies := make([]string, 0, len(fallbackRates))
	for currency := range fallbackRates {
		if currency != s.reportingCurrency {
			currencies = append(currencies, currency)
		}
	}
	sort.Strings(currencies)

	rates := make([]models.ExchangeRate, 0, len(currencies))
	for _, currency := range currencies {
		rates = append(rates, s.resolveRate(ctx, currency))
	}
	return rates
}

// Compile-time check
var _ interfaces.PriceService = (*Service)(nil)
