package models

import (
	"strings"
	"time"
)

// stockholmListings are tickers that trade on Nasdaq Stockholm and need the
// ".ST" suffix for Yahoo Finance lookups.
var stockholmListings = map[string]bool{
	"VOLV-B": true, "ERIC-B": true, "HM-B": true, "SEB-A": true,
	"SWED-A": true, "ABB": true, "ASSA-B": true, "ATCO-A": true,
	"ATCO-B": true, "INVE-B": true, "SAND": true, "TELIA": true,
}

// YahooSymbol maps a portfolio ticker to its Yahoo Finance symbol.
// Known Stockholm listings get the ".ST" exchange suffix; tickers that
// already carry an exchange suffix pass through; everything else is
// assumed to be a US listing.
func YahooSymbol(ticker string) string {
	upper := strings.ToUpper(strings.TrimSpace(ticker))
	if stockholmListings[upper] {
		return upper + ".ST"
	}
	return upper
}

// Quote is an ephemeral market quote for one ticker, already normalized to
// the reporting currency. Quotes are fetched on demand and never persisted.
// When Error is true the fetch failed and the numeric fields are zero;
// consumers fall back to the holding's average cost.
type Quote struct {
	Ticker           string    `json:"ticker"`
	Current          float64   `json:"current"`
	Change           float64   `json:"change"`
	ChangePercent    float64   `json:"changePercent"`
	DayHigh          float64   `json:"dayHigh"`
	DayLow           float64   `json:"dayLow"`
	Volume           int64     `json:"volume"`
	Currency         string    `json:"currency"`
	OriginalCurrency string    `json:"originalCurrency,omitempty"`
	FetchedAt        time.Time `json:"fetchedAt"`
	Error            bool      `json:"error,omitempty"`
}

// Rate source markers for ExchangeRate.
const (
	RateSourceLive     = "live"
	RateSourceFallback = "fallback"
)

// ExchangeRate is one conversion rate used during a valuation pass, with
// provenance so fallback use is observable.
type ExchangeRate struct {
	From   string    `json:"from"`
	To     string    `json:"to"`
	Rate   float64   `json:"rate"`
	Source string    `json:"source"` // "live" or "fallback"
	AsOf   time.Time `json:"as_of"`
}
