package surrealdb

import (
	"context"
	"strconv"
	"testing"

	"github.com/mhobbs/tradelog/internal/interfaces"
	"github.com/mhobbs/tradelog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAchievementStore_CreateAndGet(t *testing.T) {
	m := testManager(t)
	store := m.achievementStore
	ctx := context.Background()

	a := &models.Achievement{
		Title:       "First profitable month",
		Description: "Closed June green",
		Logo:        ptr("trophy.svg"),
	}

	err := store.Create(ctx, a)
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Contains(t, a.ID, "ach_")

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "First profitable month", got.Title)
	require.NotNil(t, got.Logo)
	assert.Equal(t, "trophy.svg", *got.Logo)
}

func TestAchievementStore_GetNotFound(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	got, err := m.achievementStore.Get(ctx, "ach_00000000")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestAchievementStore_ListWithTitleFilter(t *testing.T) {
	m := testManager(t)
	store := m.achievementStore
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &models.Achievement{Title: "First trade"}))
	require.NoError(t, store.Create(ctx, &models.Achievement{Title: "Hundredth trade"}))
	require.NoError(t, store.Create(ctx, &models.Achievement{Title: "Diamond hands"}))

	items, total, err := store.List(ctx, interfaces.AchievementListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, items, 3)

	items, total, err = store.List(ctx, interfaces.AchievementListOptions{Query: "trade"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)
}

func TestAchievementStore_ListPagination(t *testing.T) {
	m := testManager(t)
	store := m.achievementStore
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, store.Create(ctx, &models.Achievement{Title: "Badge " + strconv.Itoa(i)}))
	}

	items, total, err := store.List(ctx, interfaces.AchievementListOptions{Page: 2, PerPage: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, items, 1)
}

func TestAchievementStore_PartialUpdate(t *testing.T) {
	m := testManager(t)
	store := m.achievementStore
	ctx := context.Background()

	a := &models.Achievement{Title: "Original", Description: "Keep me", Logo: ptr("old.svg")}
	require.NoError(t, store.Create(ctx, a))

	// Only title provided; description and logo stay put
	ok, err := store.Update(ctx, a.ID, interfaces.AchievementUpdate{Title: ptr("Renamed")})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "Keep me", got.Description)
	require.NotNil(t, got.Logo)
	assert.Equal(t, "old.svg", *got.Logo)
}

func TestAchievementStore_UpdateClearLogo(t *testing.T) {
	m := testManager(t)
	store := m.achievementStore
	ctx := context.Background()

	a := &models.Achievement{Title: "Badged", Logo: ptr("logo.svg")}
	require.NoError(t, store.Create(ctx, a))

	ok, err := store.Update(ctx, a.ID, interfaces.AchievementUpdate{ClearLogo: true})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Logo)
	assert.Equal(t, "Badged", got.Title)
}

func TestAchievementStore_UpdateNotFound(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	ok, err := m.achievementStore.Update(ctx, "ach_00000000", interfaces.AchievementUpdate{Title: ptr("x")})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAchievementStore_Delete(t *testing.T) {
	m := testManager(t)
	store := m.achievementStore
	ctx := context.Background()

	a := &models.Achievement{Title: "Temp"}
	require.NoError(t, store.Create(ctx, a))

	ok, err := store.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
