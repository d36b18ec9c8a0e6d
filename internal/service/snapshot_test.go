package service

import (
	"testing"

	"github.com/AdamBeresnev/pingpong-brackets/internal/bracket"
	"github.com/AdamBeresnev/pingpong-brackets/internal/score"
	"github.com/AdamBeresnev/pingpong-brackets/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	def := bracket.DefaultConfig()

	testCases := []struct {
		name     string
		input    bracket.TournamentConfig
		expected bracket.TournamentConfig
	}{
		{
			name:     "nothing stored",
			input:    bracket.TournamentConfig{},
			expected: def,
		},
		{
			name:     "valid config is kept",
			input:    bracket.TournamentConfig{Name: "Liga", WinByTwo: true, TargetPoints: 21, Sets: bracket.SetsConfig{Enabled: true, BestOf: 5, PointsPerSet: 15}, ServingMode: bracket.ServeScorer, KnockoutSlots: 16},
			expected: bracket.TournamentConfig{Name: "Liga", WinByTwo: true, TargetPoints: 21, Sets: bracket.SetsConfig{Enabled: true, BestOf: 5, PointsPerSet: 15}, ServingMode: bracket.ServeScorer, KnockoutSlots: 16},
		},
		{
			name:     "out of range values fall back",
			input:    bracket.TournamentConfig{Name: "Liga", TargetPoints: -1, Sets: bracket.SetsConfig{BestOf: 4, PointsPerSet: 0}, ServingMode: "nobody", KnockoutSlots: 6},
			expected: bracket.TournamentConfig{Name: "Liga", TargetPoints: def.TargetPoints, Sets: bracket.SetsConfig{BestOf: def.Sets.BestOf, PointsPerSet: def.Sets.PointsPerSet}, ServingMode: def.ServingMode, KnockoutSlots: def.KnockoutSlots},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ValidateConfig(tc.input))
		})
	}
}

func TestValidateSnapshot(t *testing.T) {
	cfg := bracket.DefaultConfig()
	players := newTestPlayers(3)
	p1, p2 := players[0], players[1]

	good := bracket.Match{ID: "ok", Phase: bracket.PhaseClassification, Round: 1, PlayerA: utils.Ptr(p1), PlayerB: utils.Ptr(p2),
		Score: score.New(cfg), Status: bracket.MatchScheduled}

	finishedNoWinner := good
	finishedNoWinner.ID = "no-winner"
	finishedNoWinner.Status = bracket.MatchFinished

	winnerNotFinished := good
	winnerNotFinished.ID = "early-winner"
	winnerNotFinished.Status = bracket.MatchLive
	winnerNotFinished.WinnerID = utils.Ptr(p1.ID)

	unknownStatus := good
	unknownStatus.ID = "odd-status"
	unknownStatus.Status = "paused"

	badPhase := good
	badPhase.ID = "bad-phase"
	badPhase.Phase = "group"

	linkedClassification := good
	linkedClassification.ID = "linked"
	linkedClassification.Meta = &bracket.MatchMeta{WinnerTo: &bracket.AdvanceLink{MatchID: "ok", Slot: bracket.SideA}}

	brokenScore := good
	brokenScore.ID = "broken-score"
	brokenScore.Score = bracket.MatchScore{PointsA: 3}

	in := bracket.Snapshot{
		Players: []bracket.Player{p1, {ID: "", Name: "Nobody"}, p2, p1},
		Config:  bracket.TournamentConfig{},
		Matches: []bracket.Match{good, {ID: ""}, good, finishedNoWinner, winnerNotFinished, unknownStatus, badPhase, linkedClassification, brokenScore},
	}

	out := ValidateSnapshot(in)

	assert.Equal(t, []bracket.Player{p1, p2}, out.Players)
	assert.Equal(t, cfg, out.Config)

	ids := make([]string, len(out.Matches))
	for i, m := range out.Matches {
		ids[i] = m.ID
	}
	require.Equal(t, []string{"ok", "no-winner", "early-winner", "odd-status", "linked", "broken-score"}, ids)

	assert.Equal(t, good, out.Matches[0])
	assert.Equal(t, bracket.MatchLive, out.Matches[1].Status)
	assert.Nil(t, out.Matches[2].WinnerID)
	assert.Equal(t, bracket.MatchScheduled, out.Matches[3].Status)
	assert.Nil(t, out.Matches[4].Meta)

	fixed := out.Matches[5].Score
	assert.Equal(t, 3, fixed.PointsA)
	assert.Equal(t, bracket.SideA, fixed.WhoServes)
	assert.Equal(t, cfg.InitialServesLeft(), fixed.ServesLeftInTurn)
	assert.NotNil(t, fixed.History)

	// The input is not touched.
	assert.Equal(t, bracket.MatchFinished, in.Matches[3].Status)
	assert.NotNil(t, in.Matches[7].Meta)
}

func TestValidateSnapshotKeepsKnockoutLinks(t *testing.T) {
	players := newTestPlayers(4)
	cfg := knockoutConfig(4)
	knockout := BuildKnockoutFromStandings(rankedRows(players), players, cfg, utils.SequentialIDs("k"))

	out := ValidateSnapshot(bracket.Snapshot{Players: players, Config: cfg, Matches: knockout})
	assert.Equal(t, knockout, out.Matches)
}
