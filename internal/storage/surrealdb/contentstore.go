package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/mhobbs/tradelog/internal/common"
	"github.com/mhobbs/tradelog/internal/interfaces"
	"github.com/mhobbs/tradelog/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// ContentStore implements interfaces.ContentStore using SurrealDB.
// Content documents are singletons keyed by a well-known identifier.
type ContentStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewContentStore creates a new ContentStore.
func NewContentStore(db *surrealdb.DB, logger *common.Logger) *ContentStore {
	return &ContentStore{db: db, logger: logger}
}

func (s *ContentStore) GetAbout(ctx context.Context) (string, error) {
	sql := "SELECT key, content, last_modified FROM $rid"
	vars := map[string]any{
		"rid": surrealmodels.NewRecordID("site_content", models.AboutContentKey),
	}

	results, err := surrealdb.Query[[]models.SiteContent](ctx, s.db, sql, vars)
	if err != nil {
		if isNotFoundError(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get about content: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return "", nil
	}
	return (*results)[0].Result[0].Content, nil
}

func (s *ContentStore) PutAbout(ctx context.Context, content string) error {
	sql := "UPSERT $rid SET key = $key, content = $content, last_modified = $now"
	vars := map[string]any{
		"rid":     surrealmodels.NewRecordID("site_content", models.AboutContentKey),
		"key":     models.AboutContentKey,
		"content": content,
		"now":     time.Now(),
	}

	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to save about content: %w", err)
	}
	return nil
}

// Compile-time check
var _ interfaces.ContentStore = (*ContentStore)(nil)
