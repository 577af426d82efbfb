package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventSessionCreated    EventType = "session.created"
	EventParticipantJoined EventType = "participant.joined"
	EventVoteSubmitted     EventType = "vote.submitted"
	EventVotesRevealed     EventType = "votes.revealed"
)

// SessionEvent describes a committed state change. Vote values are never part
// of a vote.submitted event.
type SessionEvent struct {
	ID            uuid.UUID      `json:"id"`
	Type          EventType      `json:"type"`
	SessionCode   string         `json:"session_code"`
	ParticipantID string         `json:"participant_id"`
	Version       int64          `json:"version"`
	OccurredAt    time.Time      `json:"occurred_at"`
	Round         *RoundSnapshot `json:"round,omitempty"`
}

func NewSessionEvent(t EventType, s *Session, participantID string, at time.Time) SessionEvent {
	return SessionEvent{
		ID:            uuid.New(),
		Type:          t,
		SessionCode:   s.Code,
		ParticipantID: participantID,
		Version:       s.Version,
		OccurredAt:    at,
	}
}
