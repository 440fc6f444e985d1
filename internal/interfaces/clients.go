// Package interfaces defines service contracts for Folio
package interfaces

import (
	"context"
	"time"

	"github.com/foliotracker/folio/internal/models"
)

// MarketDataClient fetches live market data from an external provider.
type MarketDataClient interface {
	// GetQuote returns the current quote for one Yahoo symbol in its
	// native currency (no FX conversion applied).
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// FXClient fetches currency conversion rates.
type FXClient interface {
	// GetRate returns how many units of 'to' one unit of 'from' buys,
	// and the provider's as-of timestamp.
	GetRate(ctx context.Context, from, to string) (float64, time.Time, error)
}

// GenerativeClient produces free-text commentary from a prompt.
type GenerativeClient interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Close() error
}
