package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmcnab/toolreviews/internal/domain/model"
	"github.com/dmcnab/toolreviews/internal/domain/port/driven"
)

func TestProfileRepo_UpsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepo(db)
	ctx := context.Background()

	err := repo.Upsert(ctx, model.Profile{
		UserID:      "user-a",
		DisplayName: "Ada",
		AvatarURL:   "https://example.com/ada.png",
		IsVerified:  true,
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.DisplayName)
	assert.Equal(t, "https://example.com/ada.png", got.AvatarURL)
	assert.True(t, got.IsVerified)

	// Second upsert replaces the row in place.
	err = repo.Upsert(ctx, model.Profile{
		UserID:      "user-a",
		DisplayName: "Ada L.",
		IsVerified:  false,
	})
	require.NoError(t, err)

	got, err = repo.GetByID(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.DisplayName)
	assert.Empty(t, got.AvatarURL)
	assert.False(t, got.IsVerified)
}

func TestProfileRepo_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepo(db)

	_, err := repo.GetByID(context.Background(), "nobody")
	assert.ErrorIs(t, err, driven.ErrProfileNotFound)
}

func TestProfileRepo_GetByIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, model.Profile{UserID: "user-a", DisplayName: "Ada"}))
	require.NoError(t, repo.Upsert(ctx, model.Profile{UserID: "user-b", DisplayName: "Bob"}))

	profiles, err := repo.GetByIDs(ctx, []string{"user-a", "user-b", "ghost"})
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "Ada", profiles["user-a"].DisplayName)
	assert.Equal(t, "Bob", profiles["user-b"].DisplayName)
	assert.NotContains(t, profiles, "ghost")

	empty, err := repo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
