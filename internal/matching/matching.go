// Package matching implements the assignment generator for a gift exchange:
// given a roster of players it produces a random single cycle, so every player
// gives exactly one gift, receives exactly one gift, and nobody draws
// themselves.
package matching

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// ErrInsufficientParticipants is returned when fewer than two distinct
// players are supplied.
var ErrInsufficientParticipants = errors.New("matching: at least two participants are required")

// Pair is one directed giver -> receiver assignment.
type Pair struct {
	GiverID    string
	ReceiverID string
}

// Generate shuffles the roster with an unbiased Fisher-Yates permutation and
// pairs each player with their successor, wrapping the last back to the first.
// The single cycle structurally rules out self-matches for any roster of two
// or more, and gives every id exactly one giving and one receiving slot.
//
// Randomness comes from crypto/rand so assignments cannot be predicted by
// participants. Generate has no side effects; repeated calls over the same
// roster draw independent cycles.
func Generate(roster []string) ([]Pair, error) {
	players := dedupe(roster)
	if len(players) < 2 {
		return nil, ErrInsufficientParticipants
	}

	if err := shuffle(players); err != nil {
		return nil, fmt.Errorf("matching: shuffle roster: %w", err)
	}

	pairs := make([]Pair, len(players))
	for i, giver := range players {
		pairs[i] = Pair{
			GiverID:    giver,
			ReceiverID: players[(i+1)%len(players)],
		}
	}
	return pairs, nil
}

// Validate checks that a proposed assignment is a no-fixed-point permutation
// of the given roster: every roster id appears exactly once as giver and
// exactly once as receiver, and nobody is matched with themselves. Used when a
// caller supplies a precomputed assignment instead of drawing one.
func Validate(roster []string, pairs []Pair) error {
	players := dedupe(roster)
	if len(players) < 2 {
		return ErrInsufficientParticipants
	}
	if len(pairs) != len(players) {
		return fmt.Errorf("matching: expected %d pairs for roster, got %d", len(players), len(pairs))
	}

	inRoster := make(map[string]struct{}, len(players))
	for _, id := range players {
		inRoster[id] = struct{}{}
	}

	givers := make(map[string]struct{}, len(pairs))
	receivers := make(map[string]struct{}, len(pairs))
	for _, pair := range pairs {
		if pair.GiverID == pair.ReceiverID {
			return fmt.Errorf("matching: %s is matched with themselves", pair.GiverID)
		}
		if _, ok := inRoster[pair.GiverID]; !ok {
			return fmt.Errorf("matching: giver %s is not in the roster", pair.GiverID)
		}
		if _, ok := inRoster[pair.ReceiverID]; !ok {
			return fmt.Errorf("matching: receiver %s is not in the roster", pair.ReceiverID)
		}
		if _, dup := givers[pair.GiverID]; dup {
			return fmt.Errorf("matching: %s appears more than once as giver", pair.GiverID)
		}
		if _, dup := receivers[pair.ReceiverID]; dup {
			return fmt.Errorf("matching: %s appears more than once as receiver", pair.ReceiverID)
		}
		givers[pair.GiverID] = struct{}{}
		receivers[pair.ReceiverID] = struct{}{}
	}

	return nil
}

// shuffle applies Fisher-Yates in place using crypto/rand indices.
func shuffle(ids []string) error {
	for i := len(ids) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		j := int(n.Int64())
		ids[i], ids[j] = ids[j], ids[i]
	}
	return nil
}

// dedupe copies the roster dropping repeated ids, preserving first-seen order.
func dedupe(roster []string) []string {
	out := make([]string, 0, len(roster))
	seen := make(map[string]struct{}, len(roster))
	for _, id := range roster {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
