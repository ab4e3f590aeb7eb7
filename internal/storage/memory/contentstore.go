package memory

import (
	"context"
	"sync"

	"github.com/mhobbs/tradelog/internal/interfaces"
)

// ContentStore implements interfaces.ContentStore over a mutex-guarded string.
type ContentStore struct {
	mu    sync.RWMutex
	about string
}

// NewContentStore creates a new in-memory ContentStore.
func NewContentStore() *ContentStore {
	return &ContentStore{}
}

func (s *ContentStore) GetAbout(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.about, nil
}

func (s *ContentStore) PutAbout(ctx context.Context, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.about = content
	return nil
}

// Compile-time check
var _ interfaces.ContentStore = (*ContentStore)(nil)
