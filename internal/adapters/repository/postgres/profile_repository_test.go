package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/planningpoker/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
)

func TestProfileRepository(t *testing.T) {
	db := setupDB(t)
	repo := postgres.NewProfileRepository(db)
	ctx := context.Background()

	missing, err := repo.GetByID(ctx, "google-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	profile, err := repo.UpsertIdentity(ctx, domain.Identity{
		ParticipantID: "google-1",
		Email:         "ana@example.com",
		EmailVerified: true,
		DisplayName:   "Ana",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", profile.DisplayName)

	profile.DisplayName = "Ana B."
	profile.PhotoURL = "https://example.com/ana.png"
	require.NoError(t, repo.Update(ctx, profile))

	again, err := repo.UpsertIdentity(ctx, domain.Identity{
		ParticipantID: "google-1",
		Email:         "ana@new.example.com",
		DisplayName:   "Ana From Google",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana B.", again.DisplayName)
	assert.Equal(t, "ana@new.example.com", again.Email)
	assert.Equal(t, "https://example.com/ana.png", again.PhotoURL)

	err = repo.Update(ctx, &domain.Profile{ID: "unknown"})
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}
