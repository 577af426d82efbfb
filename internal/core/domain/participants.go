package domain

import "slices"

func (s *Session) HasParticipant(participantID string) bool {
	return slices.Contains(s.Participants, participantID)
}

func (s *Session) IsOwner(participantID string) bool {
	return participantID != "" && s.OwnerID == participantID
}

// CanJoin reports whether participantID may join: anyone may join a public
// session, private sessions only admit existing participants.
func (s *Session) CanJoin(participantID string) bool {
	return s.IsPublic || s.HasParticipant(participantID)
}

// CanView follows the same rule as CanJoin.
func (s *Session) CanView(participantID string) bool {
	return s.CanJoin(participantID)
}

// AddParticipant adds participantID if absent and reports whether the set changed.
func (s *Session) AddParticipant(participantID string) bool {
	if s.HasParticipant(participantID) {
		return false
	}
	s.Participants = append(s.Participants, participantID)
	return true
}
