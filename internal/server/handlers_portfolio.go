package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/foliotracker/folio/internal/services/valuation"
)

// handleHoldings handles GET /api/holdings.
func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	holdings, err := s.app.LedgerService.ListHoldings(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list holdings")
		WriteError(w, http.StatusInternalServerError, "Failed to list holdings")
		return
	}
	WriteJSON(w, http.StatusOK, holdings)
}

// handlePrices handles GET /api/prices/{tickers} where tickers is a
// comma-separated list.
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	segment := PathParam(r, "/api/prices/", "")
	tickers := splitTickers(segment)
	if len(tickers) == 0 {
		WriteError(w, http.StatusBadRequest, "at least one ticker is required in path")
		return
	}

	quotes, rates := s.app.PriceService.GetQuotes(r.Context(), tickers)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"quotes": quotes,
		"rates":  rates,
	})
}

// handleExchangeRates handles GET /api/exchange-rates.
func (s *Server) handleExchangeRates(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	rates := s.app.PriceService.ExchangeRates(r.Context())
	WriteJSON(w, http.StatusOK, rates)
}

// handleValuation handles GET /api/valuation.
func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	result, err := s.app.ValuationService.Valuate(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Valuation failed")
		WriteError(w, http.StatusInternalServerError, "Failed to valuate portfolio")
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// handleValuationInsights handles GET /api/valuation/insights.
func (s *Server) handleValuationInsights(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	commentary, err := s.app.ValuationService.Insights(r.Context())
	if err != nil {
		if errors.Is(err, valuation.ErrInsightsUnavailable) {
			WriteError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("Insights generation failed")
		WriteError(w, http.StatusInternalServerError, "Failed to generate insights")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"insights": commentary})
}

// handleHistorySave handles POST /api/portfolio-history/save.
func (s *Server) handleHistorySave(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	snapshot, err := s.app.ValuationService.SaveSnapshot(r.Context(), time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("Snapshot save failed")
		WriteError(w, http.StatusInternalServerError, "Failed to save snapshot")
		return
	}
	WriteJSON(w, http.StatusCreated, snapshot)
}

// handleHistory handles GET /api/portfolio-history?days=N.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	days, ok := parseDaysParam(w, r)
	if !ok {
		return
	}

	snapshots, err := s.app.ValuationService.History(r.Context(), days)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list snapshots")
		WriteError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}
	WriteJSON(w, http.StatusOK, snapshots)
}

// handleHistoryChart handles GET /api/portfolio-history/chart?days=N and
// returns a PNG.
func (s *Server) handleHistoryChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	days, ok := parseDaysParam(w, r)
	if !ok {
		return
	}

	png, err := s.app.ValuationService.RenderHistoryChart(r.Context(), days)
	if err != nil {
		s.logger.Error().Err(err).Msg("Chart render failed")
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func parseDaysParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			WriteError(w, http.StatusBadRequest, "days must be a positive integer")
			return 0, false
		}
		days = parsed
	}
	return days, true
}
