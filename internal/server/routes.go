package server

import (
	"net/http"
	"strings"
	"time"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Auth
	mux.HandleFunc("/api/login", s.handleLogin)
	mux.HandleFunc("/api/logout", s.handleLogout)
	mux.HandleFunc("/api/auth/status", s.handleAuthStatus)

	// Ledger
	mux.HandleFunc("/api/transactions/import", s.handleTransactionImport)
	mux.HandleFunc("/api/transactions/", s.handleTransactionByID)
	mux.HandleFunc("/api/transactions", s.handleTransactions)
	mux.HandleFunc("/api/holdings", s.handleHoldings)

	// Market data
	mux.HandleFunc("/api/prices/", s.handlePrices)
	mux.HandleFunc("/api/exchange-rates", s.handleExchangeRates)

	// Valuation
	mux.HandleFunc("/api/valuation/insights", s.handleValuationInsights)
	mux.HandleFunc("/api/valuation", s.handleValuation)

	// Portfolio history
	mux.HandleFunc("/api/portfolio-history/save", s.handleHistorySave)
	mux.HandleFunc("/api/portfolio-history/chart", s.handleHistoryChart)
	mux.HandleFunc("/api/portfolio-history", s.handleHistory)
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

// splitTickers parses a comma-separated ticker list from a path segment.
func splitTickers(segment string) []string {
	parts := strings.Split(segment, ",")
	tickers := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tickers = append(tickers, p)
		}
	}
	return tickers
}
