package matching

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func rosterOf(n int) []string {
	roster := make([]string, n)
	for i := range roster {
		roster[i] = fmt.Sprintf("player-%02d", i)
	}
	return roster
}

// requireSingleCycle walks the assignment from an arbitrary start and checks
// it visits every player exactly once before returning to the start.
func requireSingleCycle(t *testing.T, roster []string, pairs []Pair) {
	t.Helper()

	next := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		next[pair.GiverID] = pair.ReceiverID
	}

	visited := make(map[string]struct{}, len(roster))
	current := roster[0]
	for i := 0; i < len(roster); i++ {
		_, seen := visited[current]
		require.False(t, seen, "cycle revisited %s early", current)
		visited[current] = struct{}{}
		current = next[current]
	}
	require.Equal(t, roster[0], current, "walk did not close into a single cycle")
}

func TestGenerateCoversRoster(t *testing.T) {
	for _, size := range []int{2, 3, 5, 12, 40} {
		t.Run(fmt.Sprintf("size_%d", size), func(t *testing.T) {
			roster := rosterOf(size)

			pairs, err := Generate(roster)
			require.NoError(t, err)
			require.Len(t, pairs, size)

			givers := make(map[string]int)
			receivers := make(map[string]int)
			for _, pair := range pairs {
				require.NotEqual(t, pair.GiverID, pair.ReceiverID, "self match")
				givers[pair.GiverID]++
				receivers[pair.ReceiverID]++
			}
			for _, id := range roster {
				require.Equal(t, 1, givers[id], "%s must give exactly once", id)
				require.Equal(t, 1, receivers[id], "%s must receive exactly once", id)
			}

			requireSingleCycle(t, roster, pairs)
		})
	}
}

func TestGenerateTwoPlayersSwap(t *testing.T) {
	pairs, err := Generate([]string{"alice", "bob"})
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	// With two players the only valid derangement is the mutual pair.
	require.NotEqual(t, pairs[0].GiverID, pairs[0].ReceiverID)
	require.Equal(t, pairs[0].GiverID, pairs[1].ReceiverID)
	require.Equal(t, pairs[0].ReceiverID, pairs[1].GiverID)
}

func TestGenerateRejectsSmallRosters(t *testing.T) {
	_, err := Generate(nil)
	require.ErrorIs(t, err, ErrInsufficientParticipants)

	_, err = Generate([]string{"alice"})
	require.ErrorIs(t, err, ErrInsufficientParticipants)

	// Duplicates collapse before the size check.
	_, err = Generate([]string{"alice", "alice", ""})
	require.ErrorIs(t, err, ErrInsufficientParticipants)
}

func TestGenerateIsRandomised(t *testing.T) {
	roster := rosterOf(8)

	distinct := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		pairs, err := Generate(roster)
		require.NoError(t, err)

		key := ""
		for _, pair := range pairs {
			key += pair.GiverID + ">" + pair.ReceiverID + ";"
		}
		distinct[key] = struct{}{}
	}

	// 20 draws over 8 players landing on one ordering would mean the shuffle
	// is not shuffling.
	require.Greater(t, len(distinct), 1)
}

func TestValidate(t *testing.T) {
	roster := []string{"alice", "bob", "carol"}

	valid := []Pair{
		{GiverID: "alice", ReceiverID: "bob"},
		{GiverID: "bob", ReceiverID: "carol"},
		{GiverID: "carol", ReceiverID: "alice"},
	}
	require.NoError(t, Validate(roster, valid))

	// Self match.
	require.Error(t, Validate(roster, []Pair{
		{GiverID: "alice", ReceiverID: "alice"},
		{GiverID: "bob", ReceiverID: "carol"},
		{GiverID: "carol", ReceiverID: "bob"},
	}))

	// Unknown player.
	require.Error(t, Validate(roster, []Pair{
		{GiverID: "alice", ReceiverID: "mallory"},
		{GiverID: "bob", ReceiverID: "carol"},
		{GiverID: "carol", ReceiverID: "alice"},
	}))

	// Duplicate receiver.
	require.Error(t, Validate(roster, []Pair{
		{GiverID: "alice", ReceiverID: "bob"},
		{GiverID: "bob", ReceiverID: "bob"},
		{GiverID: "carol", ReceiverID: "alice"},
	}))

	// Wrong pair count.
	require.Error(t, Validate(roster, valid[:2]))

	// Tiny roster.
	require.ErrorIs(t, Validate([]string{"alice"}, nil), ErrInsufficientParticipants)
}

func TestGenerateOutputPassesValidate(t *testing.T) {
	roster := rosterOf(9)
	for i := 0; i < 10; i++ {
		pairs, err := Generate(roster)
		require.NoError(t, err)
		require.NoError(t, Validate(roster, pairs))
	}
}
