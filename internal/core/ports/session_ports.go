package ports

import (
	"context"
	"time"

	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
)

// SessionStore persists whole session documents. Implementations must make
// PutIfVersion a single atomic compare-and-swap on Session.Version.
type SessionStore interface {
	// Get returns domain.ErrSessionNotFound for unknown codes.
	Get(ctx context.Context, code string) (*domain.Session, error)
	// Create stores a new session with version 1 or returns domain.ErrAlreadyExists.
	Create(ctx context.Context, session *domain.Session) error
	// PutIfVersion replaces the session when the stored version equals
	// expectedVersion, then sets session.Version to the new version. It returns
	// domain.ErrVersionConflict otherwise.
	PutIfVersion(ctx context.Context, session *domain.Session, expectedVersion int64) error
	// QueryByParticipant lists sessions containing participantID, newest first.
	QueryByParticipant(ctx context.Context, participantID string) ([]*domain.Session, error)
}

type CodeGenerator interface {
	Generate() (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event domain.SessionEvent) error
}

type CreateSessionInput struct {
	OwnerID     string
	Name        string
	PointSystem string
	IsPublic    bool
}

type SubmitVoteInput struct {
	Code          string
	ParticipantID string
	Value         string
	// SubmittedAt orders successive votes of one participant. Zero means now.
	SubmittedAt time.Time
}

type SessionService interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*domain.Session, error)
	JoinSession(ctx context.Context, code, participantID string) (*domain.Session, error)
	SubmitVote(ctx context.Context, input SubmitVoteInput) error
	RevealVotes(ctx context.Context, code, requesterID string) (*domain.RoundSnapshot, error)
	GetSession(ctx context.Context, code, participantID string) (*domain.Session, error)
	GetHistory(ctx context.Context, participantID string) ([]*domain.Session, error)
}
