package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mhobbs/tradelog/internal/interfaces"
	"github.com/mhobbs/tradelog/internal/models"
	"github.com/mhobbs/tradelog/internal/validate"
)

// requestValidator checks trade and achievement request schemas. A single
// instance is safe for concurrent use.
var requestValidator = validate.New()

// tradeRequest is the write shape for trades. Money and share fields arrive
// as JSON numbers or strings; Amount keeps the raw literal so the format
// rules apply to both.
type tradeRequest struct {
	Symbol    string          `json:"symbol" validate:"required"`
	Name      string          `json:"name"`
	BuyPrice  validate.Amount `json:"buy_price" validate:"required,money"`
	SellPrice validate.Amount `json:"sell_price" validate:"omitempty,money"`
	Shares    validate.Amount `json:"shares" validate:"required,shares"`
	Leverage  validate.Amount `json:"leverage"`
	BoughtAt  *string         `json:"bought_at"`
	SoldAt    *string         `json:"sold_at"`
	Sparkline []float64       `json:"sparkline"`
}

// tradeResponse augments the stored record with the derived fields.
type tradeResponse struct {
	*models.Trade
	Status string   `json:"status"`
	Profit *float64 `json:"profit"`
}

func newTradeResponse(t *models.Trade) tradeResponse {
	return tradeResponse{Trade: t, Status: t.Status(), Profit: t.Profit()}
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", s)
	}
	return &t, nil
}

// tradeFromRequest validates a request and converts it to a model. The
// returned error message is suitable for a 400 body.
func tradeFromRequest(req *tradeRequest) (*models.Trade, error) {
	req.Symbol = strings.TrimSpace(req.Symbol)
	if err := requestValidator.Struct(req); err != nil {
		return nil, fmt.Errorf("%s", validate.Message(err))
	}
	if !validate.PairedSoldFields(req.SoldAt, req.SellPrice) {
		return nil, fmt.Errorf("sold_at and sell_price must be provided together")
	}
	if req.Leverage.Present() && !validate.IsPositiveShareCount(req.Leverage.String()) {
		return nil, fmt.Errorf("leverage must be a positive number")
	}

	buyPrice, err := req.BuyPrice.Float64()
	if err != nil {
		return nil, err
	}
	shares, err := req.Shares.Float64()
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = req.Symbol
	}

	t := &models.Trade{
		Symbol:    req.Symbol,
		Name:      name,
		BuyPrice:  buyPrice,
		Shares:    shares,
		Leverage:  1,
		Sparkline: req.Sparkline,
	}

	if req.SellPrice.Present() {
		sp, err := req.SellPrice.Float64()
		if err != nil {
			return nil, err
		}
		t.SellPrice = &sp
	}
	if req.Leverage.Present() {
		lev, err := req.Leverage.Float64()
		if err != nil {
			return nil, err
		}
		t.Leverage = lev
	}
	if req.BoughtAt != nil {
		d, err := parseDate(*req.BoughtAt)
		if err != nil {
			return nil, err
		}
		t.BoughtAt = d
	}
	if req.SoldAt != nil {
		d, err := parseDate(*req.SoldAt)
		if err != nil {
			return nil, err
		}
		t.SoldAt = d
	}

	return t, nil
}

// tradeUpdateRequest is the write shape for updates. The symbol and name are
// fixed at creation; an update only replaces price, share and date fields.
type tradeUpdateRequest struct {
	BuyPrice  validate.Amount `json:"buy_price" validate:"required,money"`
	SellPrice validate.Amount `json:"sell_price" validate:"omitempty,money"`
	Shares    validate.Amount `json:"shares" validate:"required,shares"`
	Leverage  validate.Amount `json:"leverage"`
	BoughtAt  *string         `json:"bought_at"`
	SoldAt    *string         `json:"sold_at"`
}

func tradeUpdateFromRequest(req *tradeUpdateRequest) (interfaces.TradeUpdate, error) {
	var upd interfaces.TradeUpdate
	if err := requestValidator.Struct(req); err != nil {
		return upd, fmt.Errorf("%s", validate.Message(err))
	}
	if !validate.PairedSoldFields(req.SoldAt, req.SellPrice) {
		return upd, fmt.Errorf("sold_at and sell_price must be provided together")
	}
	if req.Leverage.Present() && !validate.IsPositiveShareCount(req.Leverage.String()) {
		return upd, fmt.Errorf("leverage must be a positive number")
	}

	buyPrice, err := req.BuyPrice.Float64()
	if err != nil {
		return upd, err
	}
	shares, err := req.Shares.Float64()
	if err != nil {
		return upd, err
	}
	upd = interfaces.TradeUpdate{
		BuyPrice: buyPrice,
		Shares:   shares,
		Leverage: 1,
	}

	if req.SellPrice.Present() {
		sp, err := req.SellPrice.Float64()
		if err != nil {
			return upd, err
		}
		upd.SellPrice = &sp
	}
	if req.Leverage.Present() {
		lev, err := req.Leverage.Float64()
		if err != nil {
			return upd, err
		}
		upd.Leverage = lev
	}
	if req.BoughtAt != nil {
		d, err := parseDate(*req.BoughtAt)
		if err != nil {
			return upd, err
		}
		upd.BoughtAt = d
	}
	if req.SoldAt != nil {
		d, err := parseDate(*req.SoldAt)
		if err != nil {
			return upd, err
		}
		upd.SoldAt = d
	}

	return upd, nil
}

// handleTradesRoot handles GET and POST /api/trades.
func (s *Server) handleTradesRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleTradeList(w, r)
	case http.MethodPost:
		s.handleTradeCreate(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleTradeList handles GET /api/trades.
func (s *Server) handleTradeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := interfaces.TradeListOptions{
		Query: q.Get("q"),
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Page = n
		}
	}
	if v := q.Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.PerPage = n
		}
	}

	switch status := q.Get("status"); status {
	case "", models.TradeStatusOpen, models.TradeStatusClosed:
		opts.Status = status
	default:
		WriteError(w, http.StatusBadRequest, "status must be open or closed")
		return
	}

	sortKey := q.Get("sort")
	switch sortKey {
	case "", "profit", "shares":
	default:
		WriteError(w, http.StatusBadRequest, "sort must be profit or shares")
		return
	}

	trades, total, err := s.app.Storage.Trades().List(r.Context(), opts)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list trades")
		WriteError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}

	// Profit and share sorts are applied to the returned page only;
	// storage keeps the stable created_at ordering.
	switch sortKey {
	case "profit":
		sort.SliceStable(trades, func(i, j int) bool {
			pi, pj := trades[i].Profit(), trades[j].Profit()
			if pi == nil {
				return false
			}
			if pj == nil {
				return true
			}
			return *pi > *pj
		})
	case "shares":
		sort.SliceStable(trades, func(i, j int) bool {
			return trades[i].Shares > trades[j].Shares
		})
	}

	items := make([]tradeResponse, 0, len(trades))
	for _, t := range trades {
		items = append(items, newTradeResponse(t))
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	perPage := opts.PerPage
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": perPage,
	})
}

// handleTradeCreate handles POST /api/trades (admin). The body is a single
// trade or an array; with an array, everything is validated before anything
// is written, so a bad element fails the whole request.
func (s *Server) handleTradeCreate(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return
	}

	bulk := body[0] == '['
	var reqs []tradeRequest
	if bulk {
		if err := json.Unmarshal(body, &reqs); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
			return
		}
	} else {
		var req tradeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
			return
		}
		reqs = []tradeRequest{req}
	}
	if len(reqs) == 0 {
		WriteError(w, http.StatusBadRequest, "at least one trade is required")
		return
	}

	trades := make([]*models.Trade, 0, len(reqs))
	for i := range reqs {
		t, err := tradeFromRequest(&reqs[i])
		if err != nil {
			msg := err.Error()
			if bulk {
				msg = fmt.Sprintf("trade %d: %s", i, msg)
			}
			WriteError(w, http.StatusBadRequest, msg)
			return
		}
		trades = append(trades, t)
	}

	ctx := r.Context()
	store := s.app.Storage.Trades()
	ids := make([]string, 0, len(trades))
	for _, t := range trades {
		if t.Sparkline == nil {
			t.Sparkline = s.fetchSparkline(ctx, t.Symbol)
		}
		if err := store.Create(ctx, t); err != nil {
			s.logger.Error().Err(err).Str("symbol", t.Symbol).Msg("Failed to create trade")
			WriteError(w, http.StatusInternalServerError, "failed to create trade")
			return
		}
		ids = append(ids, t.ID)
	}

	if bulk {
		WriteJSON(w, http.StatusCreated, map[string]interface{}{
			"created": len(ids),
			"ids":     ids,
		})
		return
	}
	WriteJSON(w, http.StatusCreated, newTradeResponse(trades[0]))
}

// fetchSparkline pulls recent closes for the symbol. Chart data is cosmetic,
// so any failure degrades to an empty series rather than failing the write.
func (s *Server) fetchSparkline(ctx context.Context, symbol string) []float64 {
	if s.app.MarketData == nil {
		return []float64{}
	}
	closes, err := s.app.MarketData.GetHistoricalCloses(ctx, symbol, 30)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Sparkline fetch failed, storing empty series")
		return []float64{}
	}
	return closes
}

// handleTradeByID handles GET, PUT and DELETE /api/trades/{id}.
func (s *Server) handleTradeByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		s.handleTradeGet(w, r, id)
	case http.MethodPut:
		s.handleTradeUpdate(w, r, id)
	case http.MethodDelete:
		s.handleTradeDelete(w, r, id)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (s *Server) handleTradeGet(w http.ResponseWriter, r *http.Request, id string) {
	trade, err := s.app.Storage.Trades().Get(r.Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Str("trade_id", id).Msg("Failed to get trade")
		WriteError(w, http.StatusInternalServerError, "failed to get trade")
		return
	}
	if trade == nil {
		WriteError(w, http.StatusNotFound, "trade not found")
		return
	}
	WriteJSON(w, http.StatusOK, newTradeResponse(trade))
}

func (s *Server) handleTradeUpdate(w http.ResponseWriter, r *http.Request, id string) {
	if !requireAdmin(w, r) {
		return
	}

	var req tradeUpdateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	upd, err := tradeUpdateFromRequest(&req)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := s.app.Storage.Trades().Update(r.Context(), id, upd)
	if err != nil {
		s.logger.Error().Err(err).Str("trade_id", id).Msg("Failed to update trade")
		WriteError(w, http.StatusInternalServerError, "failed to update trade")
		return
	}
	if !ok {
		WriteError(w, http.StatusNotFound, "trade not found")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

func (s *Server) handleTradeDelete(w http.ResponseWriter, r *http.Request, id string) {
	if !requireAdmin(w, r) {
		return
	}

	ok, err := s.app.Storage.Trades().Delete(r.Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Str("trade_id", id).Msg("Failed to delete trade")
		WriteError(w, http.StatusInternalServerError, "failed to delete trade")
		return
	}
	if !ok {
		WriteError(w, http.StatusNotFound, "trade not found")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// handleTradeBulkDelete handles POST /api/trades/bulk-delete (admin).
// Malformed ids are skipped, not fatal; counts report what happened.
func (s *Server) handleTradeBulkDelete(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if !requireAdmin(w, r) {
		return
	}

	var req struct {
		IDs []string `json:"ids"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		WriteError(w, http.StatusBadRequest, "ids is required")
		return
	}

	processed := 0
	for _, id := range req.IDs {
		if models.ValidTradeID(id) {
			processed++
		}
	}
	if processed == 0 {
		WriteError(w, http.StatusBadRequest, "no valid trade ids")
		return
	}

	deleted, err := s.app.Storage.Trades().BulkDelete(r.Context(), req.IDs)
	if err != nil {
		s.logger.Error().Err(err).Int("requested", len(req.IDs)).Msg("Failed to bulk delete trades")
		WriteError(w, http.StatusInternalServerError, "failed to delete trades")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":            true,
		"deleted_count": deleted,
		"requested":     len(req.IDs),
		"processed":     processed,
	})
}
