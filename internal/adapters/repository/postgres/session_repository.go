package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"
	"github.com/vncsmyrnk/planningpoker/internal/core/domain"
	"github.com/vncsmyrnk/planningpoker/internal/core/ports"
)

// SessionRepository keeps each session as one row. Rounds and history are
// JSONB documents; the version column guards concurrent writers.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) ports.SessionStore {
	return &SessionRepository{db: db}
}

const sessionColumns = `code, name, point_system, is_public, owner_id, participants, status, current_round, history, version, created_at`

func (r *SessionRepository) Get(ctx context.Context, code string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE code = $1`
	session, err := scanSession(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, code)
		}
		return nil, storeError("failed to get session", err)
	}
	return session, nil
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	round, history, err := encodeRounds(session)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (code, name, point_system, is_public, owner_id, participants, status, current_round, history, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10)
		ON CONFLICT (code) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		session.Code, session.Name, string(session.PointSystem), session.IsPublic, session.OwnerID,
		pq.Array(session.Participants), string(session.Status), round, history, session.CreatedAt,
	)
	if err != nil {
		return storeError("failed to insert session", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeError("failed to insert session", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, session.Code)
	}

	session.Version = 1
	return nil
}

func (r *SessionRepository) PutIfVersion(ctx context.Context, session *domain.Session, expectedVersion int64) error {
	round, history, err := encodeRounds(session)
	if err != nil {
		return err
	}

	query := `
		UPDATE sessions
		SET name = $2, point_system = $3, is_public = $4, owner_id = $5, participants = $6,
			status = $7, current_round = $8, history = $9, version = version + 1, updated_at = NOW()
		WHERE code = $1 AND version = $10
		RETURNING version
	`
	var version int64
	err = r.db.QueryRowContext(ctx, query,
		session.Code, session.Name, string(session.PointSystem), session.IsPublic, session.OwnerID,
		pq.Array(session.Participants), string(session.Status), round, history, expectedVersion,
	).Scan(&version)
	if err == nil {
		session.Version = version
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return storeError("failed to update session", err)
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM sessions WHERE code = $1)`, session.Code).Scan(&exists); err != nil {
		return storeError("failed to check session", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, session.Code)
	}
	return fmt.Errorf("%w: %s, expected version %d", domain.ErrVersionConflict, session.Code, expectedVersion)
}

func (r *SessionRepository) QueryByParticipant(ctx context.Context, participantID string) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE $1 = ANY(participants) ORDER BY created_at DESC, code`
	rows, err := r.db.QueryContext(ctx, query, participantID)
	if err != nil {
		return nil, storeError("failed to query sessions", err)
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, storeError("failed to scan session", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("failed to iterate sessions", err)
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		session     domain.Session
		pointSystem string
		status      string
		round       []byte
		history     []byte
	)
	err := row.Scan(
		&session.Code, &session.Name, &pointSystem, &session.IsPublic, &session.OwnerID,
		pq.Array(&session.Participants), &status, &round, &history, &session.Version, &session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	session.PointSystem = domain.PointSystem(pointSystem)
	session.Status = domain.SessionStatus(status)
	session.CreatedAt = session.CreatedAt.UTC()

	if len(round) > 0 {
		var current domain.VotingRound
		if err := json.Unmarshal(round, &current); err != nil {
			return nil, fmt.Errorf("failed to decode current round of %s: %w", session.Code, err)
		}
		if current.Votes == nil {
			current.Votes = make(map[string]domain.Vote)
		}
		session.CurrentRound = &current
	}
	session.History = []domain.RoundSnapshot{}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &session.History); err != nil {
			return nil, fmt.Errorf("failed to decode history of %s: %w", session.Code, err)
		}
	}
	if session.Participants == nil {
		session.Participants = []string{}
	}
	return &session, nil
}

// encodeRounds returns the JSONB arguments for the round columns. A missing
// current round is passed as a nil interface so it is stored as NULL. JSON is
// sent as text since lib/pq encodes []byte as bytea.
func encodeRounds(session *domain.Session) (any, string, error) {
	var round any
	if session.CurrentRound != nil {
		data, err := json.Marshal(session.CurrentRound)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode current round: %w", err)
		}
		round = string(data)
	}

	history := session.History
	if history == nil {
		history = []domain.RoundSnapshot{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode history: %w", err)
	}
	return round, string(data), nil
}

// storeError marks connectivity failures as domain.ErrUnavailable.
func storeError(msg string, err error) error {
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %s: %v", domain.ErrUnavailable, msg, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "08" {
		return fmt.Errorf("%w: %s: %v", domain.ErrUnavailable, msg, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
