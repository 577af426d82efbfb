package services_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/planningpoker/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
	"github.com/vncsmyrnk/planningpoker/internal/core/ports"
	"github.com/vncsmyrnk/planningpoker/internal/core/services"
)

// faultyStore wraps the memory store and injects failures.
type faultyStore struct {
	*memory.SessionRepository
	hangGets     atomic.Int32
	hangPuts     atomic.Int32
	conflictPuts atomic.Int32
	puts         atomic.Int32
}

func newFaultyStore() *faultyStore {
	return &faultyStore{SessionRepository: memory.NewSessionRepository()}
}

func (s *faultyStore) Get(ctx context.Context, code string) (*domain.Session, error) {
	if s.hangGets.Add(-1) >= 0 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.SessionRepository.Get(ctx, code)
}

func (s *faultyStore) PutIfVersion(ctx context.Context, session *domain.Session, expectedVersion int64) error {
	s.puts.Add(1)
	if s.hangPuts.Add(-1) >= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	if s.conflictPuts.Add(-1) >= 0 {
		return domain.ErrVersionConflict
	}
	return s.SessionRepository.PutIfVersion(ctx, session, expectedVersion)
}

func newFaultyApp(t *testing.T, cfg services.SessionConfig) (*faultyStore, *services.SessionService, *domain.Session) {
	t.Helper()
	store := newFaultyStore()
	session := domain.NewSession("FAULT2", "Faulty", domain.PointSystemFibonacci, true, "owner", time.Now().UTC())
	require.NoError(t, store.Create(context.Background(), session))
	svc := services.NewSessionService(store, services.NewCodeGenerator(), nil, nil, cfg)
	return store, svc, session
}

func shortTimeoutConfig(attempts uint) services.SessionConfig {
	cfg := testConfig
	cfg.StoreTimeout = 20 * time.Millisecond
	cfg.WriteAttempts = attempts
	return cfg
}

func TestReadTimeoutIsRetried(t *testing.T) {
	store, svc, session := newFaultyApp(t, shortTimeoutConfig(3))
	store.hangGets.Store(2)

	got, err := svc.GetSession(context.Background(), session.Code, "owner")
	require.NoError(t, err)
	assert.Equal(t, session.Code, got.Code)
}

func TestReadTimeoutSurfacesUnavailable(t *testing.T) {
	store, svc, session := newFaultyApp(t, shortTimeoutConfig(2))
	store.hangGets.Store(10)

	_, err := svc.GetSession(context.Background(), session.Code, "owner")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestVoteWriteTimeoutIsNotRetried(t *testing.T) {
	store, svc, session := newFaultyApp(t, shortTimeoutConfig(5))
	store.hangPuts.Store(1)

	err := svc.SubmitVote(context.Background(), ports.SubmitVoteInput{Code: session.Code, ParticipantID: "owner", Value: "3"})
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Equal(t, int32(1), store.puts.Load())
}

func TestJoinWriteTimeoutIsRetried(t *testing.T) {
	store, svc, session := newFaultyApp(t, shortTimeoutConfig(5))
	store.hangPuts.Store(1)

	joined, err := svc.JoinSession(context.Background(), session.Code, "alice")
	require.NoError(t, err)
	assert.Contains(t, joined.Participants, "alice")
	assert.Equal(t, int32(2), store.puts.Load())
}

func TestVersionConflictIsRetried(t *testing.T) {
	store, svc, session := newFaultyApp(t, shortTimeoutConfig(5))
	store.conflictPuts.Store(3)

	err := svc.SubmitVote(context.Background(), ports.SubmitVoteInput{Code: session.Code, ParticipantID: "owner", Value: "3"})
	require.NoError(t, err)
	assert.Equal(t, int32(4), store.puts.Load())
}

func TestVersionConflictSurfacesConflict(t *testing.T) {
	store, svc, session := newFaultyApp(t, shortTimeoutConfig(3))
	store.conflictPuts.Store(100)

	_, err := svc.RevealVotes(context.Background(), session.Code, "owner")
	assert.ErrorIs(t, err, domain.ErrEmptyRound, "pure validation fails before any write")

	_, err = svc.JoinSession(context.Background(), session.Code, "alice")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NotErrorIs(t, err, domain.ErrVersionConflict)
	assert.Equal(t, int32(3), store.puts.Load())
}

func TestCancelledCallerLeavesSessionUntouched(t *testing.T) {
	store, svc, session := newFaultyApp(t, testConfig)
	store.hangPuts.Store(1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := svc.SubmitVote(ctx, ports.SubmitVoteInput{Code: session.Code, ParticipantID: "owner", Value: "3"})
	assert.ErrorIs(t, err, context.Canceled)

	stored, err := store.SessionRepository.Get(context.Background(), session.Code)
	require.NoError(t, err)
	assert.Nil(t, stored.CurrentRound)
	assert.Equal(t, int64(1), stored.Version)
}
