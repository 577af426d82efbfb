package postgres_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/planningpoker/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
)

func TestSessionRepository(t *testing.T) {
	db := setupDB(t)
	repo := postgres.NewSessionRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	session := domain.NewSession("PGTEST", "Sprint 12", domain.PointSystemFibonacci, true, "owner", now)
	require.NoError(t, repo.Create(ctx, session))
	assert.Equal(t, int64(1), session.Version)

	t.Run("duplicate code", func(t *testing.T) {
		dup := domain.NewSession("PGTEST", "Other", domain.PointSystemTShirt, false, "someone", now)
		assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrAlreadyExists)
	})

	t.Run("round trip", func(t *testing.T) {
		got, err := repo.Get(ctx, "PGTEST")
		require.NoError(t, err)
		assert.Equal(t, "Sprint 12", got.Name)
		assert.Equal(t, domain.PointSystemFibonacci, got.PointSystem)
		assert.Equal(t, []string{"owner"}, got.Participants)
		assert.Nil(t, got.CurrentRound)
		assert.Empty(t, got.History)
		assert.WithinDuration(t, now, got.CreatedAt, time.Millisecond)
	})

	t.Run("conditional update", func(t *testing.T) {
		got, err := repo.Get(ctx, "PGTEST")
		require.NoError(t, err)

		got.AddParticipant("alice")
		round, _, err := domain.NewVotingRound(1, now).Submit(got.PointSystem, "alice", "5", now)
		require.NoError(t, err)
		got.CurrentRound = &round
		require.NoError(t, repo.PutIfVersion(ctx, got, 1))
		assert.Equal(t, int64(2), got.Version)

		stale, err := repo.Get(ctx, "PGTEST")
		require.NoError(t, err)
		assert.Equal(t, "5", stale.CurrentRound.Votes["alice"].Value)
		assert.ErrorIs(t, repo.PutIfVersion(ctx, stale, 1), domain.ErrVersionConflict)

		revealed, agg, err := stale.CurrentRound.Reveal(stale.PointSystem, now)
		require.NoError(t, err)
		snapshot, err := revealed.Snapshot()
		require.NoError(t, err)
		stale.History = append(stale.History, snapshot)
		stale.CurrentRound = nil
		require.NoError(t, repo.PutIfVersion(ctx, stale, 2))

		final, err := repo.Get(ctx, "PGTEST")
		require.NoError(t, err)
		assert.Equal(t, int64(3), final.Version)
		assert.Nil(t, final.CurrentRound)
		require.Len(t, final.History, 1)
		require.NotNil(t, final.History[0].Average)
		assert.InDelta(t, *agg.Average, *final.History[0].Average, 1e-9)
	})

	t.Run("missing session", func(t *testing.T) {
		_, err := repo.Get(ctx, "NOPE22")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)

		ghost := domain.NewSession("NOPE22", "Ghost", domain.PointSystemFibonacci, true, "owner", now)
		assert.ErrorIs(t, repo.PutIfVersion(ctx, ghost, 1), domain.ErrSessionNotFound)
	})

	t.Run("query by participant", func(t *testing.T) {
		later := domain.NewSession("PGLATE", "Later", domain.PointSystemPowersOfTwo, false, "alice", now.Add(time.Minute))
		require.NoError(t, repo.Create(ctx, later))

		sessions, err := repo.QueryByParticipant(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.Equal(t, "PGLATE", sessions[0].Code)
		assert.Equal(t, "PGTEST", sessions[1].Code)

		none, err := repo.QueryByParticipant(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestSessionRepositoryConcurrentWriters(t *testing.T) {
	db := setupDB(t)
	repo := postgres.NewSessionRepository(db)
	ctx := context.Background()

	session := domain.NewSession("RACE22", "Race", domain.PointSystemFibonacci, true, "owner", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, session))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := repo.Get(ctx, "RACE22")
			if err != nil {
				return
			}
			got.Name = "changed"
			if err := repo.PutIfVersion(ctx, got, 1); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	final, err := repo.Get(ctx, "RACE22")
	require.NoError(t, err)
	assert.Equal(t, int64(2), final.Version)
}
