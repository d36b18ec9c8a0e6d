package service

import (
	"fmt"
	"testing"

	"github.com/AdamBeresnev/pingpong-brackets/internal/bracket"
	"github.com/AdamBeresnev/pingpong-brackets/internal/score"
	"github.com/AdamBeresnev/pingpong-brackets/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlayers(n int) []bracket.Player {
	players := make([]bracket.Player, n)
	for i := range players {
		players[i] = bracket.Player{ID: fmt.Sprintf("p%d", i+1), Name: fmt.Sprintf("P%d", i+1)}
	}
	return players
}

func TestGenerateRoundRobinSmallRosters(t *testing.T) {
	cfg := bracket.DefaultConfig()

	assert.Empty(t, GenerateRoundRobin(nil, cfg, utils.SequentialIDs("m")))
	assert.Empty(t, GenerateRoundRobin(newTestPlayers(1), cfg, utils.SequentialIDs("m")))

	matches := GenerateRoundRobin(newTestPlayers(2), cfg, utils.SequentialIDs("m"))
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, "m-1", m.ID)
	assert.Equal(t, bracket.PhaseTraining, m.Phase)
	assert.Equal(t, TrainingLabel, m.Label())
	assert.Equal(t, "p1", m.PlayerA.ID)
	assert.Equal(t, "p2", m.PlayerB.ID)
	assert.Equal(t, bracket.MatchScheduled, m.Status)
	assert.Equal(t, score.New(cfg), m.Score)
}

func TestGenerateRoundRobinCompleteness(t *testing.T) {
	cfg := bracket.DefaultConfig()

	for n := 3; n <= 10; n++ {
		t.Run(fmt.Sprintf("%d players", n), func(t *testing.T) {
			players := newTestPlayers(n)
			matches := GenerateRoundRobin(players, cfg, utils.SequentialIDs("m"))

			require.Len(t, matches, n*(n-1)/2)

			pairs := make(map[[2]string]int)
			perPlayer := make(map[string]int)
			ids := make(map[string]bool)
			for _, m := range matches {
				assert.Equal(t, bracket.PhaseClassification, m.Phase)
				assert.Equal(t, bracket.MatchScheduled, m.Status)
				assert.Nil(t, m.Meta)
				require.NotNil(t, m.PlayerA)
				require.NotNil(t, m.PlayerB)
				assert.NotEqual(t, m.PlayerA.ID, m.PlayerB.ID)

				pairs[pairKey(m.PlayerA.ID, m.PlayerB.ID)]++
				perPlayer[m.PlayerA.ID]++
				perPlayer[m.PlayerB.ID]++
				ids[m.ID] = true
			}

			assert.Len(t, ids, len(matches), "match ids are unique")
			assert.Len(t, pairs, n*(n-1)/2)
			for pair, count := range pairs {
				assert.Equal(t, 1, count, "pair %v", pair)
			}
			for _, p := range players {
				assert.Equal(t, n-1, perPlayer[p.ID], "player %s", p.ID)
			}
		})
	}
}

func TestGenerateRoundRobinRounds(t *testing.T) {
	cfg := bracket.DefaultConfig()

	testCases := []struct {
		name         string
		players      int
		rounds       int
		perRoundMost int
	}{
		{name: "even roster", players: 4, rounds: 3, perRoundMost: 2},
		{name: "odd roster sits one out each round", players: 5, rounds: 5, perRoundMost: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			matches := GenerateRoundRobin(newTestPlayers(tc.players), cfg, utils.SequentialIDs("m"))

			byRound := make(map[int][]bracket.Match)
			for _, m := range matches {
				byRound[m.Round] = append(byRound[m.Round], m)
			}
			assert.Len(t, byRound, tc.rounds)

			for round, ms := range byRound {
				assert.GreaterOrEqual(t, round, 1)
				assert.LessOrEqual(t, round, tc.rounds)
				assert.LessOrEqual(t, len(ms), tc.perRoundMost)

				seen := make(map[string]bool)
				for _, m := range ms {
					assert.False(t, seen[m.PlayerA.ID], "player plays twice in round %d", round)
					assert.False(t, seen[m.PlayerB.ID], "player plays twice in round %d", round)
					seen[m.PlayerA.ID] = true
					seen[m.PlayerB.ID] = true
				}
			}
		})
	}
}

func TestGenerateRoundRobinLeavesRosterAlone(t *testing.T) {
	players := newTestPlayers(4)
	before := append([]bracket.Player(nil), players...)

	matches := GenerateRoundRobin(players, bracket.DefaultConfig(), utils.SequentialIDs("m"))
	matches[0].PlayerA.Name = "changed"

	assert.Equal(t, before, players)
}
