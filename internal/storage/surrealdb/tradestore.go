package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mhobbs/tradelog/internal/common"
	"github.com/mhobbs/tradelog/internal/interfaces"
	"github.com/mhobbs/tradelog/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// tradeSelectFields lists the fields to select from trade, aliasing trade_id to id for struct mapping.
const tradeSelectFields = `trade_id AS id, symbol, name, buy_price, sell_price, shares, leverage,
	bought_at, sold_at, sparkline, created_at, last_modified`

// TradeStore implements interfaces.TradeStore using SurrealDB.
type TradeStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(db *surrealdb.DB, logger *common.Logger) *TradeStore {
	return &TradeStore{db: db, logger: logger}
}

func (s *TradeStore) Create(ctx context.Context, t *models.Trade) error {
	if t.ID == "" {
		t.ID = fmt.Sprintf("td_%s", uuid.New().String()[:8])
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.LastModified = now
	if t.Leverage == 0 {
		t.Leverage = 1
	}
	if t.Sparkline == nil {
		t.Sparkline = []float64{}
	}

	sql := `UPSERT $rid SET
		trade_id = $trade_id, symbol = $symbol, name = $name,
		buy_price = $buy_price, sell_price = $sell_price, shares = $shares,
		leverage = $leverage, bought_at = $bought_at, sold_at = $sold_at,
		sparkline = $sparkline, created_at = $created_at, last_modified = $last_modified`
	vars := map[string]any{
		"rid":           surrealmodels.NewRecordID("trade", t.ID),
		"trade_id":      t.ID,
		"symbol":        t.Symbol,
		"name":          t.Name,
		"buy_price":     t.BuyPrice,
		"sell_price":    t.SellPrice,
		"shares":        t.Shares,
		"leverage":      t.Leverage,
		"bought_at":     t.BoughtAt,
		"sold_at":       t.SoldAt,
		"sparkline":     t.Sparkline,
		"created_at":    t.CreatedAt,
		"last_modified": t.LastModified,
	}

	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}
	return nil
}

func (s *TradeStore) Get(ctx context.Context, id string) (*models.Trade, error) {
	sql := "SELECT " + tradeSelectFields + " FROM $rid"
	vars := map[string]any{
		"rid": surrealmodels.NewRecordID("trade", id),
	}

	results, err := surrealdb.Query[[]models.Trade](ctx, s.db, sql, vars)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

func (s *TradeStore) List(ctx context.Context, opts interfaces.TradeListOptions) ([]*models.Trade, int, error) {
	// Build WHERE clauses
	where := ""
	vars := map[string]any{}

	if q := strings.TrimSpace(opts.Query); q != "" {
		where += " AND (string::contains(string::lowercase(symbol), $q) OR string::contains(string::lowercase(name ?? ''), $q))"
		vars["q"] = strings.ToLower(q)
	}
	switch opts.Status {
	case models.TradeStatusOpen:
		where += " AND (sold_at = NONE OR sold_at = NULL)"
	case models.TradeStatusClosed:
		where += " AND sold_at != NONE AND sold_at != NULL"
	}

	// Strip leading " AND "
	whereClause := ""
	if where != "" {
		whereClause = " WHERE " + where[5:]
	}

	// Count query: total reflects the full filtered set, not just the page
	countSQL := "SELECT count() AS cnt FROM trade" + whereClause + " GROUP ALL"
	type countResult struct {
		Cnt int `json:"cnt"`
	}
	total := 0
	countResults, err := surrealdb.Query[[]countResult](ctx, s.db, countSQL, vars)
	if err == nil && countResults != nil && len(*countResults) > 0 && len((*countResults)[0].Result) > 0 {
		total = (*countResults)[0].Result[0].Cnt
	}

	// Pagination
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
	offset := (page - 1) * perPage

	// Data query: trade_id as tiebreaker for deterministic ordering
	dataSQL := "SELECT " + tradeSelectFields + " FROM trade" + whereClause +
		" ORDER BY created_at DESC, trade_id DESC LIMIT $limit START $start"
	vars["limit"] = perPage
	vars["start"] = offset

	results, err := surrealdb.Query[[]models.Trade](ctx, s.db, dataSQL, vars)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list trades: %w", err)
	}

	items := make([]*models.Trade, 0)
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			items = append(items, &(*results)[0].Result[i])
		}
	}

	return items, total, nil
}

func (s *TradeStore) Update(ctx context.Context, id string, upd interfaces.TradeUpdate) (bool, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	leverage := upd.Leverage
	if leverage == 0 {
		leverage = 1
	}

	sql := `UPDATE $rid SET
		buy_price = $buy_price, sell_price = $sell_price, shares = $shares,
		leverage = $leverage, bought_at = $bought_at, sold_at = $sold_at,
		last_modified = $now`
	vars := map[string]any{
		"rid":        surrealmodels.NewRecordID("trade", id),
		"buy_price":  upd.BuyPrice,
		"sell_price": upd.SellPrice,
		"shares":     upd.Shares,
		"leverage":   leverage,
		"bought_at":  upd.BoughtAt,
		"sold_at":    upd.SoldAt,
		"now":        time.Now(),
	}

	if _, err := surrealdb.Query[[]models.Trade](ctx, s.db, sql, vars); err != nil {
		return false, fmt.Errorf("failed to update trade: %w", err)
	}
	return true, nil
}

func (s *TradeStore) Delete(ctx context.Context, id string) (bool, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	if _, err := surrealdb.Delete[models.Trade](ctx, s.db, surrealmodels.NewRecordID("trade", id)); err != nil && !isNotFoundError(err) {
		return false, fmt.Errorf("failed to delete trade: %w", err)
	}
	return true, nil
}

func (s *TradeStore) BulkDelete(ctx context.Context, ids []string) (int, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if models.ValidTradeID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	// Single delete-many call; atomic for this statement only, not composed
	// with any other write.
	sql := "DELETE trade WHERE trade_id IN $ids RETURN BEFORE"
	vars := map[string]any{"ids": valid}

	results, err := surrealdb.Query[[]models.Trade](ctx, s.db, sql, vars)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk delete trades: %w", err)
	}

	deleted := 0
	if results != nil && len(*results) > 0 {
		deleted = len((*results)[0].Result)
	}
	return deleted, nil
}

// Compile-time check
var _ interfaces.TradeStore = (*TradeStore)(nil)
