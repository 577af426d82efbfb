package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v5"
	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
	"github.com/vncsmyrnk/planningpoker/internal/core/ports"
)

const maxSessionNameLength = 120

// maxClockSkew is how far ahead of server time a vote timestamp may be.
const maxClockSkew = 5 * time.Second

type SessionConfig struct {
	// StoreTimeout bounds every single store call.
	StoreTimeout time.Duration
	// WriteAttempts bounds the optimistic read-modify-write loop.
	WriteAttempts  uint
	CodeAttempts   int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		StoreTimeout:   3 * time.Second,
		WriteAttempts:  5,
		CodeAttempts:   10,
		InitialBackoff: 20 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c SessionConfig) withDefaults() SessionConfig {
	def := DefaultSessionConfig()
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = def.StoreTimeout
	}
	if c.WriteAttempts == 0 {
		c.WriteAttempts = def.WriteAttempts
	}
	if c.CodeAttempts <= 0 {
		c.CodeAttempts = def.CodeAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = def.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = def.MaxBackoff
	}
	return c
}

// SessionService is the only writer of session state. Mutations are
// read-modify-write cycles guarded by the store's version check and retried
// with exponential backoff on conflict.
type SessionService struct {
	store     ports.SessionStore
	codes     ports.CodeGenerator
	publisher ports.EventPublisher
	logger    *slog.Logger
	cfg       SessionConfig
	now       func() time.Time
}

// NewSessionService wires the service. publisher may be nil.
func NewSessionService(store ports.SessionStore, codes ports.CodeGenerator, publisher ports.EventPublisher, logger *slog.Logger, cfg SessionConfig) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &SessionService{
		store:     store,
		codes:     codes,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *SessionService) CreateSession(ctx context.Context, input ports.CreateSessionInput) (*domain.Session, error) {
	ownerID := strings.TrimSpace(input.OwnerID)
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", domain.ErrInvalidArgument)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(name) > maxSessionNameLength {
		return nil, fmt.Errorf("%w: name is longer than %d characters", domain.ErrInvalidArgument, maxSessionNameLength)
	}
	ps, err := domain.ParsePointSystem(input.PointSystem)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < s.cfg.CodeAttempts; attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session code: %w", err)
		}
		code = domain.NormalizeCode(code)

		_, err = s.read(ctx, code)
		if err == nil {
			s.logger.Debug("session code collision", slog.String("code", code), slog.Int("attempt", attempt+1))
			continue
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}

		session := domain.NewSession(code, name, ps, input.IsPublic, ownerID, s.now())
		err = s.withTimeout(ctx, func(ctx context.Context) error {
			return s.store.Create(ctx, session)
		})
		if errors.Is(err, domain.ErrAlreadyExists) {
			s.logger.Debug("session code taken during create", slog.String("code", code))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}

		s.logger.Info("session created",
			slog.String("code", session.Code),
			slog.String("owner_id", ownerID),
			slog.String("point_system", string(ps)),
		)
		s.publish(ctx, domain.NewSessionEvent(domain.EventSessionCreated, session, ownerID, session.CreatedAt))
		return session.Clone(), nil
	}

	return nil, fmt.Errorf("%w after %d attempts", domain.ErrResourceExhausted, s.cfg.CodeAttempts)
}

func (s *SessionService) JoinSession(ctx context.Context, code, participantID string) (*domain.Session, error) {
	if participantID == "" {
		return nil, fmt.Errorf("%w: participant id is required", domain.ErrInvalidArgument)
	}
	code = domain.NormalizeCode(code)

	// Joining is idempotent, so a write that timed out may be retried.
	session, joined, err := s.update(ctx, code, true, func(session *domain.Session) (bool, error) {
		if !session.CanJoin(participantID) {
			return false, fmt.Errorf("%w: session %s is private", domain.ErrForbidden, code)
		}
		if !session.IsActive() {
			return false, fmt.Errorf("%w: session %s is %s", domain.ErrInvalidState, code, session.Status)
		}
		return session.AddParticipant(participantID), nil
	})
	if err != nil {
		return nil, err
	}

	if joined {
		s.logger.Info("participant joined", slog.String("code", code), slog.String("participant_id", participantID))
		s.publish(ctx, domain.NewSessionEvent(domain.EventParticipantJoined, session, participantID, s.now()))
	}
	return session.ViewFor(participantID), nil
}

func (s *SessionService) SubmitVote(ctx context.Context, input ports.SubmitVoteInput) error {
	if input.ParticipantID == "" {
		return fmt.Errorf("%w: participant id is required", domain.ErrInvalidArgument)
	}
	code := domain.NormalizeCode(input.Code)
	now := s.now()
	submittedAt := input.SubmittedAt.UTC()
	switch {
	case input.SubmittedAt.IsZero():
		submittedAt = now
	case submittedAt.After(now.Add(maxClockSkew)):
		// A vote stamped far ahead would shadow every later edit of the round.
		s.logger.Debug("vote timestamp clamped",
			slog.String("code", code),
			slog.String("participant_id", input.ParticipantID),
			slog.Time("submitted_at", submittedAt),
		)
		submittedAt = now
	}

	session, applied, err := s.update(ctx, code, false, func(session *domain.Session) (bool, error) {
		if !session.HasParticipant(input.ParticipantID) {
			return false, fmt.Errorf("%w: not a participant of session %s", domain.ErrForbidden, code)
		}
		if !session.IsActive() {
			return false, fmt.Errorf("%w: session %s is %s", domain.ErrInvalidState, code, session.Status)
		}

		// The previous round was archived on reveal; a vote now opens the next one.
		round := domain.NewVotingRound(len(session.History)+1, s.now())
		if session.CurrentRound != nil {
			round = *session.CurrentRound
		}

		next, applied, err := round.Submit(session.PointSystem, input.ParticipantID, input.Value, submittedAt)
		if err != nil || !applied {
			return false, err
		}
		session.CurrentRound = &next
		return true, nil
	})
	if err != nil {
		return err
	}
	if !applied {
		s.logger.Debug("stale vote dropped", slog.String("code", code), slog.String("participant_id", input.ParticipantID))
		return nil
	}

	s.publish(ctx, domain.NewSessionEvent(domain.EventVoteSubmitted, session, input.ParticipantID, submittedAt))
	return nil
}

// RevealVotes is a one-shot transition: it appends the revealed round to the
// history and clears the current round in a single versioned write.
func (s *SessionService) RevealVotes(ctx context.Context, code, requesterID string) (*domain.RoundSnapshot, error) {
	code = domain.NormalizeCode(code)

	var snapshot domain.RoundSnapshot
	session, _, err := s.update(ctx, code, false, func(session *domain.Session) (bool, error) {
		if !session.IsOwner(requesterID) {
			return false, fmt.Errorf("%w: only the session owner can reveal votes", domain.ErrForbidden)
		}
		if !session.IsActive() {
			return false, fmt.Errorf("%w: session %s is %s", domain.ErrInvalidState, code, session.Status)
		}
		if session.CurrentRound == nil {
			if last, ok := session.LastRevealed(); ok {
				return false, fmt.Errorf("%w: round %d is already revealed", domain.ErrInvalidState, last.Number)
			}
			return false, domain.ErrEmptyRound
		}

		revealed, _, err := session.CurrentRound.Reveal(session.PointSystem, s.now())
		if err != nil {
			return false, err
		}
		snap, err := revealed.Snapshot()
		if err != nil {
			return false, err
		}

		session.History = append(session.History, snap)
		session.CurrentRound = nil
		snapshot = snap
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("votes revealed",
		slog.String("code", code),
		slog.Int("round", snapshot.Number),
		slog.Int("votes", len(snapshot.Votes)),
	)
	event := domain.NewSessionEvent(domain.EventVotesRevealed, session, requesterID, snapshot.RevealedAt)
	round := snapshot.Clone()
	event.Round = &round
	s.publish(ctx, event)

	return &snapshot, nil
}

func (s *SessionService) GetSession(ctx context.Context, code, participantID string) (*domain.Session, error) {
	code = domain.NormalizeCode(code)

	session, err := s.read(ctx, code)
	if err != nil {
		return nil, err
	}
	if !session.CanView(participantID) {
		return nil, fmt.Errorf("%w: session %s is private", domain.ErrForbidden, code)
	}
	return session.ViewFor(participantID), nil
}

// GetHistory lists the participant's sessions, most recently created first.
func (s *SessionService) GetHistory(ctx context.Context, participantID string) ([]*domain.Session, error) {
	if participantID == "" {
		return nil, fmt.Errorf("%w: participant id is required", domain.ErrInvalidArgument)
	}

	sessions, err := backoff.Retry(ctx, func() ([]*domain.Session, error) {
		var sessions []*domain.Session
		err := s.withTimeout(ctx, func(ctx context.Context) error {
			var err error
			sessions, err = s.store.QueryByParticipant(ctx, participantID)
			return err
		})
		return sessions, retryable(err, true)
	}, s.retryOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}

	slices.SortStableFunc(sessions, func(a, b *domain.Session) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})

	views := make([]*domain.Session, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, session.ViewFor(participantID))
	}
	return views, nil
}

type mutation func(session *domain.Session) (changed bool, err error)

// update applies mutate to a fresh copy of the session and writes it back only
// if nobody else wrote in between. Version conflicts and timed out reads are
// retried; a timed out write is retried only when retryTimedOutWrite is set,
// because it may have been applied.
func (s *SessionService) update(ctx context.Context, code string, retryTimedOutWrite bool, mutate mutation) (*domain.Session, bool, error) {
	var changed bool
	session, err := backoff.Retry(ctx, func() (*domain.Session, error) {
		current, err := s.get(ctx, code)
		if err != nil {
			return nil, retryable(err, true)
		}

		next := current.Clone()
		changed, err = mutate(next)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if !changed {
			return next, nil
		}

		err = s.withTimeout(ctx, func(ctx context.Context) error {
			return s.store.PutIfVersion(ctx, next, current.Version)
		})
		if errors.Is(err, domain.ErrVersionConflict) {
			s.logger.Debug("session version conflict", slog.String("code", code), slog.Int64("version", current.Version))
			return nil, err
		}
		if err != nil {
			return nil, retryable(err, retryTimedOutWrite)
		}
		return next, nil
	}, s.retryOptions()...)

	if errors.Is(err, domain.ErrVersionConflict) {
		return nil, false, fmt.Errorf("%w: session %s is being modified concurrently: %v", domain.ErrConflict, code, err)
	}
	if err != nil {
		return nil, false, err
	}
	return session, changed, nil
}

// read fetches a session, retrying timeouts.
func (s *SessionService) read(ctx context.Context, code string) (*domain.Session, error) {
	return backoff.Retry(ctx, func() (*domain.Session, error) {
		session, err := s.get(ctx, code)
		return session, retryable(err, true)
	}, s.retryOptions()...)
}

func (s *SessionService) get(ctx context.Context, code string) (*domain.Session, error) {
	var session *domain.Session
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		session, err = s.store.Get(ctx, code)
		return err
	})
	return session, err
}

// withTimeout runs one store call under StoreTimeout. An expired timeout is
// reported as domain.ErrUnavailable; cancellation by the caller is reported
// as the caller's context error.
func (s *SessionService) withTimeout(ctx context.Context, call func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	err := call(callCtx)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrUnavailable) {
		return fmt.Errorf("%w: store call timed out after %s: %v", domain.ErrUnavailable, s.cfg.StoreTimeout, err)
	}
	return err
}

func (s *SessionService) retryOptions() []backoff.RetryOption {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.InitialBackoff
	b.MaxInterval = s.cfg.MaxBackoff
	return []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(s.cfg.WriteAttempts),
	}
}

func (s *SessionService) publish(ctx context.Context, event domain.SessionEvent) {
	if s.publisher == nil {
		return
	}

	// The change is committed; a caller hanging up must not drop the event.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.StoreTimeout)
	defer cancel()

	if err := s.publisher.Publish(pubCtx, event); err != nil {
		s.logger.Warn("failed to publish session event",
			slog.String("type", string(event.Type)),
			slog.String("code", event.SessionCode),
			slog.String("error", err.Error()),
		)
	}
}

// retryable marks err permanent unless it is a transient unavailability and
// retrying is allowed.
func retryable(err error, retryUnavailable bool) error {
	if err == nil {
		return nil
	}
	if retryUnavailable && errors.Is(err, domain.ErrUnavailable) {
		return err
	}
	return backoff.Permanent(err)
}
