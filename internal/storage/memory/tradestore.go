package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mhobbs/tradelog/internal/interfaces"
	"github.com/mhobbs/tradelog/internal/models"
)

// TradeStore implements interfaces.TradeStore over a mutex-guarded map.
type TradeStore struct {
	mu     sync.RWMutex
	trades map[string]*models.Trade
}

// NewTradeStore creates a new in-memory TradeStore.
func NewTradeStore() *TradeStore {
	return &TradeStore{trades: make(map[string]*models.Trade)}
}

func (s *TradeStore) Create(ctx context.Context, t *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

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

	copied := *t
	s.trades[t.ID] = &copied
	return nil
}

func (s *TradeStore) Get(ctx context.Context, id string) (*models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.trades[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (s *TradeStore) List(ctx context.Context, opts interfaces.TradeListOptions) ([]*models.Trade, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(opts.Query))

	matched := make([]*models.Trade, 0, len(s.trades))
	for _, t := range s.trades {
		if q != "" &&
			!strings.Contains(strings.ToLower(t.Symbol), q) &&
			!strings.Contains(strings.ToLower(t.Name), q) {
			continue
		}
		switch opts.Status {
		case models.TradeStatusOpen:
			if t.SoldAt != nil {
				continue
			}
		case models.TradeStatusClosed:
			if t.SoldAt == nil {
				continue
			}
		}
		copied := *t
		matched = append(matched, &copied)
	}

	// Newest first, id as tiebreaker for deterministic ordering
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)

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

	if offset >= total {
		return []*models.Trade{}, total, nil
	}
	end := offset + perPage
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (s *TradeStore) Update(ctx context.Context, id string, upd interfaces.TradeUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trades[id]
	if !ok {
		return false, nil
	}

	leverage := upd.Leverage
	if leverage == 0 {
		leverage = 1
	}

	t.BuyPrice = upd.BuyPrice
	t.SellPrice = upd.SellPrice
	t.Shares = upd.Shares
	t.Leverage = leverage
	t.BoughtAt = upd.BoughtAt
	t.SoldAt = upd.SoldAt
	t.LastModified = time.Now()
	return true, nil
}

func (s *TradeStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trades[id]; !ok {
		return false, nil
	}
	delete(s.trades, id)
	return true, nil
}

func (s *TradeStore) BulkDelete(ctx context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for _, id := range ids {
		if !models.ValidTradeID(id) {
			continue
		}
		if _, ok := s.trades[id]; ok {
			delete(s.trades, id)
			deleted++
		}
	}
	return deleted, nil
}

// Compile-time check
var _ interfaces.TradeStore = (*TradeStore)(nil)
