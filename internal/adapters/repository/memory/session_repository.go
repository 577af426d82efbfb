// Package memory holds process-local stores. They honour the same contracts
// as the postgres stores and back tests and single-instance deployments.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
	"github.com/vncsmyrnk/planningpoker/internal/core/ports"
)

type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]*domain.Session),
	}
}

var _ ports.SessionStore = (*SessionRepository)(nil)

func (r *SessionRepository) Get(ctx context.Context, code string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, code)
	}
	return session.Clone(), nil
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.Code]; ok {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, session.Code)
	}
	session.Version = 1
	r.sessions[session.Code] = session.Clone()
	return nil
}

func (r *SessionRepository) PutIfVersion(ctx context.Context, session *domain.Session, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.sessions[session.Code]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, session.Code)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: %s has version %d, expected %d", domain.ErrVersionConflict, session.Code, stored.Version, expectedVersion)
	}

	session.Version = expectedVersion + 1
	r.sessions[session.Code] = session.Clone()
	return nil
}

func (r *SessionRepository) QueryByParticipant(ctx context.Context, participantID string) ([]*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var sessions []*domain.Session
	for _, session := range r.sessions {
		if session.HasParticipant(participantID) {
			sessions = append(sessions, session.Clone())
		}
	}
	slices.SortFunc(sessions, func(a, b *domain.Session) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})
	return sessions, nil
}
