package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// AbstainVote is the reserved card meaning "no estimate". It is part of every
// point system and never counts towards an average.
const AbstainVote = "?"

type PointSystem string

const (
	PointSystemFibonacci         PointSystem = "fibonacci"
	PointSystemModifiedFibonacci PointSystem = "modified-fibonacci"
	PointSystemPowersOfTwo       PointSystem = "powers-of-two"
	PointSystemTShirt            PointSystem = "t-shirt"

	DefaultPointSystem = PointSystemFibonacci
)

var pointSystemCards = map[PointSystem][]string{
	PointSystemFibonacci:         {"0", "1", "2", "3", "5", "8", "13", "21", AbstainVote},
	PointSystemModifiedFibonacci: {"0", "0.5", "1", "2", "3", "5", "8", "13", "20", "40", "100", AbstainVote},
	PointSystemPowersOfTwo:       {"0", "1", "2", "4", "8", "16", "32", "64", AbstainVote},
	PointSystemTShirt:            {"XS", "S", "M", "L", "XL", "XXL", AbstainVote},
}

// ParsePointSystem resolves a point system name. An empty name yields the default.
func ParsePointSystem(name string) (PointSystem, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultPointSystem, nil
	}
	ps := PointSystem(name)
	if _, ok := pointSystemCards[ps]; !ok {
		return "", fmt.Errorf("%w: unknown point system %q", ErrInvalidArgument, name)
	}
	return ps, nil
}

func (ps PointSystem) Valid() bool {
	_, ok := pointSystemCards[ps]
	return ok
}

// Cards returns the legal vote values in display order.
func (ps PointSystem) Cards() []string {
	cards := pointSystemCards[ps]
	out := make([]string, len(cards))
	copy(out, cards)
	return out
}

// Canonical maps a submitted value onto the matching card of the point system.
// Numeric spellings are compared by value ("3.0" is card "3") and named cards
// are compared case-insensitively.
func (ps PointSystem) Canonical(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: empty vote", ErrInvalidArgument)
	}

	num, numErr := strconv.ParseFloat(value, 64)
	for _, card := range pointSystemCards[ps] {
		if strings.EqualFold(card, value) {
			return card, nil
		}
		if numErr != nil {
			continue
		}
		if cardNum, err := strconv.ParseFloat(card, 64); err == nil && cardNum == num {
			return card, nil
		}
	}

	return "", fmt.Errorf("%w: %q is not a %s card", ErrInvalidArgument, value, ps)
}

// Numeric reports the numeric value of a card. The abstain card and named
// cards such as t-shirt sizes are not numeric.
func (ps PointSystem) Numeric(card string) (float64, bool) {
	if card == AbstainVote {
		return 0, false
	}
	num, err := strconv.ParseFloat(card, 64)
	if err != nil {
		return 0, false
	}
	return num, true
}
