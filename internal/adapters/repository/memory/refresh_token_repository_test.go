package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/planningpoker/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
)

func TestRefreshTokenRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRefreshTokenRepository()

	token := &domain.RefreshToken{ParticipantID: "alice", TokenHash: "hash-1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.StoreRefreshToken(ctx, token))
	assert.NotEqual(t, uuid.Nil, token.ID)

	got, err := repo.GetRefreshTokenByHash(ctx, "hash-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.ParticipantID)

	missing, err := repo.GetRefreshTokenByHash(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	revoked, err := repo.RevokeRefreshToken(ctx, token.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = repo.RevokeRefreshToken(ctx, token.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	got, err = repo.GetRefreshTokenByHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.True(t, got.Revoked)
}
