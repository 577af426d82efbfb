package domain

import (
	"strings"
	"time"
)

const SessionCodeLength = 6

type SessionStatus string

const (
	SessionStatusActive   SessionStatus = "active"
	SessionStatusArchived SessionStatus = "archived"
)

type Session struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	PointSystem  PointSystem     `json:"point_system"`
	IsPublic     bool            `json:"is_public"`
	OwnerID      string          `json:"owner_id"`
	Participants []string        `json:"participants"`
	Status       SessionStatus   `json:"status"`
	CurrentRound *VotingRound    `json:"current_round,omitempty"`
	History      []RoundSnapshot `json:"history"`
	Version      int64           `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NormalizeCode makes session codes case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func NewSession(code, name string, ps PointSystem, isPublic bool, ownerID string, createdAt time.Time) *Session {
	return &Session{
		Code:         NormalizeCode(code),
		Name:         name,
		PointSystem:  ps,
		IsPublic:     isPublic,
		OwnerID:      ownerID,
		Participants: []string{ownerID},
		Status:       SessionStatusActive,
		History:      []RoundSnapshot{},
		CreatedAt:    createdAt,
	}
}

func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}

// LastRevealed returns the most recent history entry, if any.
func (s *Session) LastRevealed() (RoundSnapshot, bool) {
	if len(s.History) == 0 {
		return RoundSnapshot{}, false
	}
	return s.History[len(s.History)-1], true
}

// Clone returns a deep copy. Stores hand out clones so callers never share
// state with the stored document.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Participants = append([]string(nil), s.Participants...)
	if s.CurrentRound != nil {
		r := s.CurrentRound.clone()
		c.CurrentRound = &r
	}
	c.History = make([]RoundSnapshot, len(s.History))
	for i, h := range s.History {
		c.History[i] = h.Clone()
	}
	return &c
}

// ViewFor returns a copy of the session as participantID may see it: votes of
// the open round cast by others keep their timestamp but lose their value.
func (s *Session) ViewFor(participantID string) *Session {
	c := s.Clone()
	if c.CurrentRound == nil || c.CurrentRound.Revealed {
		return c
	}
	for id, v := range c.CurrentRound.Votes {
		if id == participantID {
			continue
		}
		v.Value = ""
		c.CurrentRound.Votes[id] = v
	}
	return c
}
