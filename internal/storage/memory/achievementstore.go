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

// AchievementStore implements interfaces.AchievementStore over a mutex-guarded map.
type AchievementStore struct {
	mu           sync.RWMutex
	achievements map[string]*models.Achievement
}

// NewAchievementStore creates a new in-memory AchievementStore.
func NewAchievementStore() *AchievementStore {
	return &AchievementStore{achievements: make(map[string]*models.Achievement)}
}

func (s *AchievementStore) Create(ctx context.Context, a *models.Achievement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = fmt.Sprintf("ach_%s", uuid.New().String()[:8])
	}
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.LastModified = now

	copied := *a
	s.achievements[a.ID] = &copied
	return nil
}

func (s *AchievementStore) Get(ctx context.Context, id string) (*models.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.achievements[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (s *AchievementStore) List(ctx context.Context, opts interfaces.AchievementListOptions) ([]*models.Achievement, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(opts.Query))

	matched := make([]*models.Achievement, 0, len(s.achievements))
	for _, a := range s.achievements {
		if q != "" && !strings.Contains(strings.ToLower(a.Title), q) {
			continue
		}
		copied := *a
		matched = append(matched, &copied)
	}

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
		return []*models.Achievement{}, total, nil
	}
	end := offset + perPage
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (s *AchievementStore) Update(ctx context.Context, id string, upd interfaces.AchievementUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.achievements[id]
	if !ok {
		return false, nil
	}

	if upd.Title != nil {
		a.Title = *upd.Title
	}
	if upd.Description != nil {
		a.Description = *upd.Description
	}
	if upd.ClearLogo {
		a.Logo = nil
	} else if upd.Logo != nil {
		logo := *upd.Logo
		a.Logo = &logo
	}
	a.LastModified = time.Now()
	return true, nil
}

func (s *AchievementStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.achievements[id]; !ok {
		return false, nil
	}
	delete(s.achievements, id)
	return true, nil
}

// Compile-time check
var _ interfaces.AchievementStore = (*AchievementStore)(nil)
