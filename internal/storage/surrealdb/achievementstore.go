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

// achievementSelectFields lists the fields to select from achievement, aliasing achievement_id to id.
const achievementSelectFields = `achievement_id AS id, title, description, logo, created_at, last_modified`

// AchievementStore implements interfaces.AchievementStore using SurrealDB.
type AchievementStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewAchievementStore creates a new AchievementStore.
func NewAchievementStore(db *surrealdb.DB, logger *common.Logger) *AchievementStore {
	return &AchievementStore{db: db, logger: logger}
}

func (s *AchievementStore) Create(ctx context.Context, a *models.Achievement) error {
	if a.ID == "" {
		a.ID = fmt.Sprintf("ach_%s", uuid.New().String()[:8])
	}
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.LastModified = now

	sql := `UPSERT $rid SET
		achievement_id = $achievement_id, title = $title, description = $description,
		logo = $logo, created_at = $created_at, last_modified = $last_modified`
	vars := map[string]any{
		"rid":            surrealmodels.NewRecordID("achievement", a.ID),
		"achievement_id": a.ID,
		"title":          a.Title,
		"description":    a.Description,
		"logo":           a.Logo,
		"created_at":     a.CreatedAt,
		"last_modified":  a.LastModified,
	}

	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to create achievement: %w", err)
	}
	return nil
}

func (s *AchievementStore) Get(ctx context.Context, id string) (*models.Achievement, error) {
	sql := "SELECT " + achievementSelectFields + " FROM $rid"
	vars := map[string]any{
		"rid": surrealmodels.NewRecordID("achievement", id),
	}

	results, err := surrealdb.Query[[]models.Achievement](ctx, s.db, sql, vars)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get achievement: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

func (s *AchievementStore) List(ctx context.Context, opts interfaces.AchievementListOptions) ([]*models.Achievement, int, error) {
	where := ""
	vars := map[string]any{}

	if q := strings.TrimSpace(opts.Query); q != "" {
		where += " AND string::contains(string::lowercase(title), $q)"
		vars["q"] = strings.ToLower(q)
	}

	whereClause := ""
	if where != "" {
		whereClause = " WHERE " + where[5:]
	}

	countSQL := "SELECT count() AS cnt FROM achievement" + whereClause + " GROUP ALL"
	type countResult struct {
		Cnt int `json:"cnt"`
	}
	total := 0
	countResults, err := surrealdb.Query[[]countResult](ctx, s.db, countSQL, vars)
	if err == nil && countResults != nil && len(*countResults) > 0 && len((*countResults)[0].Result) > 0 {
		total = (*countResults)[0].Result[0].Cnt
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
	offset := (page - 1) * perPage

	dataSQL := "SELECT " + achievementSelectFields + " FROM achievement" + whereClause +
		" ORDER BY created_at DESC, achievement_id DESC LIMIT $limit START $start"
	vars["limit"] = perPage
	vars["start"] = offset

	results, err := surrealdb.Query[[]models.Achievement](ctx, s.db, dataSQL, vars)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list achievements: %w", err)
	}

	items := make([]*models.Achievement, 0)
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			items = append(items, &(*results)[0].Result[i])
		}
	}

	return items, total, nil
}

func (s *AchievementStore) Update(ctx context.Context, id string, upd interfaces.AchievementUpdate) (bool, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	// Only provided fields are overwritten; absent fields are left untouched.
	sets := []string{"last_modified = $now"}
	vars := map[string]any{
		"rid": surrealmodels.NewRecordID("achievement", id),
		"now": time.Now(),
	}
	if upd.Title != nil {
		sets = append(sets, "title = $title")
		vars["title"] = *upd.Title
	}
	if upd.Description != nil {
		sets = append(sets, "description = $description")
		vars["description"] = *upd.Description
	}
	if upd.ClearLogo {
		sets = append(sets, "logo = NULL")
	} else if upd.Logo != nil {
		sets = append(sets, "logo = $logo")
		vars["logo"] = *upd.Logo
	}

	sql := "UPDATE $rid SET " + strings.Join(sets, ", ")
	if _, err := surrealdb.Query[[]models.Achievement](ctx, s.db, sql, vars); err != nil {
		return false, fmt.Errorf("failed to update achievement: %w", err)
	}
	return true, nil
}

func (s *AchievementStore) Delete(ctx context.Context, id string) (bool, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	if _, err := surrealdb.Delete[models.Achievement](ctx, s.db, surrealmodels.NewRecordID("achievement", id)); err != nil && !isNotFoundError(err) {
		return false, fmt.Errorf("failed to delete achievement: %w", err)
	}
	return true, nil
}

// Compile-time check
var _ interfaces.AchievementStore = (*AchievementStore)(nil)
