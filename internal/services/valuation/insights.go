package valuation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/foliotracker/folio/internal/models"
)

// ErrInsightsUnavailable is returned when no generative client is
// configured.
var ErrInsightsUnavailable = errors.New("insights unavailable: no generative client configured")

// Insights valuates the portfolio and asks the generative client for a
// short commentary on it.
func (s *Service) Insights(ctx context.Context) (string, error) {
	if s.generative == nil {
		return "", ErrInsightsUnavailable
	}

	valuation, err := s.Valuate(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to valuate portfolio: %w", err)
	}
	if len(valuation.Holdings) == 0 {
		return "", errors.New("no holdings to analyze")
	}

	prompt := buildInsightsPrompt(valuation)

	commentary, err := s.generative.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate insights: %w", err)
	}

	return strings.TrimSpace(commentary), nil
}

func buildInsightsPrompt(v *models.Valuation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a portfolio analyst. Give a concise assessment (3-5 short paragraphs) of this investment portfolio. Comment on performance, concentration and anything notable. Plain text only, no markdown.\n\n")
	fmt.Fprintf(&b, "Portfolio (%s):\n", v.Currency)
	fmt.Fprintf(&b, "Total value: %.2f, total cost: %.2f, P/L: %.2f (%.2f%%), daily change: %.2f\n\n", v.TotalValue, v.TotalCost, v.ProfitLoss, v.ProfitLossPercent, v.DailyChange)
	fmt.Fprintf(&b, "Holdings:\n")
	for _, h := range v.Holdings {
		fmt.Fprintf(&b, "- %s: %.2f units, avg %.2f, current %.2f, value %.2f (%.1f%% of portfolio), P/L %.2f (%.2f%%)",
			h.Ticker, h.Quantity, h.AveragePrice, h.CurrentPrice, h.MarketValue, h.AllocationPercent, h.ProfitLoss, h.ProfitLossPercent)
		if h.QuoteError {
			b.WriteString(" [live quote unavailable, valued at cost]")
		}
		b.WriteString("\n")
	}

	return b.String()
}
