package server

import (
	"net/http"
	"strconv"
	"strings"
)

// handleSearchSymbol handles GET /api/search-symbol?query=. Upstream failures
// surface as 502 so the frontend can distinguish them from empty results.
func (s *Server) handleSearchSymbol(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		WriteError(w, http.StatusBadRequest, "query is required")
		return
	}

	if s.app.MarketData == nil {
		WriteError(w, http.StatusBadGateway, "market data provider not configured")
		return
	}

	matches, err := s.app.MarketData.SearchSymbols(r.Context(), query)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("Symbol search failed")
		WriteError(w, http.StatusBadGateway, "symbol search failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"items": matches})
}

// handleHistory handles GET /api/history?symbol=&range=.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	rangeDays := 30
	if v := r.URL.Query().Get("range"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			WriteError(w, http.StatusBadRequest, "range must be a positive number of days")
			return
		}
		rangeDays = n
	}

	if s.app.MarketData == nil {
		WriteError(w, http.StatusBadGateway, "market data provider not configured")
		return
	}

	closes, err := s.app.MarketData.GetHistoricalCloses(r.Context(), symbol, rangeDays)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("History fetch failed")
		WriteError(w, http.StatusBadGateway, "history fetch failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"range":  rangeDays,
		"closes": closes,
	})
}
