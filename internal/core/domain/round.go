package domain

import (
	"fmt"
	"sort"
	"time"
)

type Vote struct {
	Value       string    `json:"value,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type Aggregate struct {
	// Average is nil when the round holds no numeric vote.
	Average    *float64  `json:"average"`
	Count      int       `json:"count"`
	RevealedAt time.Time `json:"revealed_at"`
}

// VotingRound collects one round of votes. Values are treated as immutable:
// Submit and Reveal return modified copies.
type VotingRound struct {
	Number    int             `json:"number"`
	Votes     map[string]Vote `json:"votes"`
	Revealed  bool            `json:"revealed"`
	Aggregate *Aggregate      `json:"aggregate,omitempty"`
	OpenedAt  time.Time       `json:"opened_at"`
}

// RoundSnapshot is the history entry of a revealed round.
type RoundSnapshot struct {
	Number     int             `json:"number"`
	Votes      map[string]Vote `json:"votes"`
	Average    *float64        `json:"average"`
	Count      int             `json:"count"`
	RevealedAt time.Time       `json:"revealed_at"`
}

func NewVotingRound(number int, openedAt time.Time) VotingRound {
	return VotingRound{
		Number:   number,
		Votes:    make(map[string]Vote),
		OpenedAt: openedAt,
	}
}

// Submit records the participant's vote and reports whether it was applied.
// A later submission replaces the earlier one; a submission stamped before the
// stored vote is dropped so that retried or reordered requests cannot roll a
// participant's vote back.
func (r VotingRound) Submit(ps PointSystem, participantID, value string, submittedAt time.Time) (VotingRound, bool, error) {
	if r.Revealed {
		return r, false, fmt.Errorf("%w: round %d is already revealed", ErrInvalidState, r.Number)
	}
	if participantID == "" {
		return r, false, fmt.Errorf("%w: participant id is required", ErrInvalidArgument)
	}

	card, err := ps.Canonical(value)
	if err != nil {
		return r, false, err
	}

	next := r.clone()
	if prev, ok := next.Votes[participantID]; ok && submittedAt.Before(prev.SubmittedAt) {
		return next, false, nil
	}
	next.Votes[participantID] = Vote{Value: card, SubmittedAt: submittedAt}
	return next, true, nil
}

// Reveal freezes the round and computes its aggregate.
func (r VotingRound) Reveal(ps PointSystem, at time.Time) (VotingRound, Aggregate, error) {
	if r.Revealed {
		return r, Aggregate{}, fmt.Errorf("%w: round %d is already revealed", ErrInvalidState, r.Number)
	}
	if len(r.Votes) == 0 {
		return r, Aggregate{}, ErrEmptyRound
	}

	// Summed in participant order so the same votes always give the same bits.
	ids := make([]string, 0, len(r.Votes))
	for id := range r.Votes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	agg := Aggregate{RevealedAt: at}
	var sum float64
	for _, id := range ids {
		num, ok := ps.Numeric(r.Votes[id].Value)
		if !ok {
			continue
		}
		sum += num
		agg.Count++
	}
	if agg.Count > 0 {
		avg := sum / float64(agg.Count)
		agg.Average = &avg
	}

	next := r.clone()
	next.Revealed = true
	stored := agg
	next.Aggregate = &stored
	return next, agg, nil
}

// Snapshot returns the history entry for a revealed round.
func (r VotingRound) Snapshot() (RoundSnapshot, error) {
	if !r.Revealed || r.Aggregate == nil {
		return RoundSnapshot{}, fmt.Errorf("%w: round %d is not revealed", ErrInvalidState, r.Number)
	}
	c := r.clone()
	return RoundSnapshot{
		Number:     c.Number,
		Votes:      c.Votes,
		Average:    c.Aggregate.Average,
		Count:      c.Aggregate.Count,
		RevealedAt: c.Aggregate.RevealedAt,
	}, nil
}

func (r VotingRound) clone() VotingRound {
	next := r
	next.Votes = copyVotes(r.Votes)
	if r.Aggregate != nil {
		agg := *r.Aggregate
		agg.Average = copyFloat(r.Aggregate.Average)
		next.Aggregate = &agg
	}
	return next
}

func (s RoundSnapshot) Clone() RoundSnapshot {
	next := s
	next.Votes = copyVotes(s.Votes)
	next.Average = copyFloat(s.Average)
	return next
}

func copyVotes(votes map[string]Vote) map[string]Vote {
	out := make(map[string]Vote, len(votes))
	for k, v := range votes {
		out[k] = v
	}
	return out
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
