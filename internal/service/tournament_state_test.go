package service

import (
	"errors"
	"testing"

	"github.com/AdamBeresnev/pingpong-brackets/internal/bracket"
	"github.com/AdamBeresnev/pingpong-brackets/internal/score"
	"github.com/AdamBeresnev/pingpong-brackets/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleGameConfig() bracket.TournamentConfig {
	cfg := bracket.DefaultConfig()
	cfg.TargetPoints = 11
	return cfg
}

func newTestState(cfg bracket.TournamentConfig, players []bracket.Player, matches []bracket.Match) *TournamentState {
	return NewTournamentState(bracket.Snapshot{Players: players, Config: cfg, Matches: matches})
}

func mustMatch(t *testing.T, st *TournamentState, id string) bracket.Match {
	t.Helper()
	m, ok := st.Match(id)
	require.True(t, ok, "match %s", id)
	return m
}

func TestSetConfigMergesSets(t *testing.T) {
	st := newTestState(bracket.DefaultConfig(), nil, nil)

	st.SetConfig(ConfigPatch{Sets: &SetsPatch{BestOf: utils.Ptr(5)}})
	cfg := st.Config()
	assert.Equal(t, 5, cfg.Sets.BestOf)
	assert.False(t, cfg.Sets.Enabled)
	assert.Equal(t, bracket.DefaultPointsPerSet, cfg.Sets.PointsPerSet)

	mode := bracket.ServeScorer
	st.SetConfig(ConfigPatch{Sets: &SetsPatch{Enabled: utils.Ptr(true)}, ServingMode: &mode})
	cfg = st.Config()
	assert.True(t, cfg.Sets.Enabled)
	assert.Equal(t, 5, cfg.Sets.BestOf)
	assert.Equal(t, bracket.ServeScorer, cfg.ServingMode)
	assert.Equal(t, bracket.DefaultTournamentName, cfg.Name)
}

func TestUpdateMatchScore(t *testing.T) {
	cfg := singleGameConfig()
	matches := GenerateRoundRobin(newTestPlayers(3), cfg, utils.SequentialIDs("m"))
	st := newTestState(cfg, newTestPlayers(3), matches)

	err := st.UpdateMatchScore("m-1", func(sc bracket.MatchScore) bracket.MatchScore {
		return score.AddPoint(sc, cfg, bracket.SideA)
	})
	require.NoError(t, err)

	m := mustMatch(t, st, "m-1")
	assert.Equal(t, bracket.MatchLive, m.Status)
	assert.Equal(t, 1, m.Score.PointsA)

	// Live never goes back to scheduled.
	require.NoError(t, st.UpdateMatchScore("m-1", func(sc bracket.MatchScore) bracket.MatchScore { return score.New(cfg) }))
	assert.Equal(t, bracket.MatchLive, mustMatch(t, st, "m-1").Status)

	assert.ErrorIs(t, st.UpdateMatchScore("missing", func(sc bracket.MatchScore) bracket.MatchScore { return sc }), ErrMatchNotFound)

	require.NoError(t, st.FinishMatch("m-2", m.PlayerA.ID))
	finishedBefore := mustMatch(t, st, "m-2")
	require.NoError(t, st.UpdateMatchScore("m-2", func(sc bracket.MatchScore) bracket.MatchScore {
		return score.AddPoint(sc, cfg, bracket.SideB)
	}))
	assert.Equal(t, finishedBefore, mustMatch(t, st, "m-2"), "finished matches keep their score")
}

func TestFinishMatchPropagates(t *testing.T) {
	players := newTestPlayers(5)
	cfg := knockoutConfig(4)
	knockout := BuildKnockoutFromStandings(rankedRows(players), players, cfg, utils.SequentialIDs("k"))
	labels := byLabel(t, knockout)

	st := newTestState(cfg, players, knockout)
	sf1, sf2 := labels["Semifinal 1"], labels["Semifinal 2"]
	final, third := labels[LabelFinal], labels[LabelThirdPlace]

	require.NoError(t, st.FinishMatch(sf1.ID, "p1"))

	gotSF1 := mustMatch(t, st, sf1.ID)
	assert.Equal(t, bracket.MatchFinished, gotSF1.Status)
	assert.True(t, gotSF1.IsWinner("p1"))

	gotFinal := mustMatch(t, st, final.ID)
	gotThird := mustMatch(t, st, third.ID)
	assert.Equal(t, "p1", gotFinal.PlayerA.ID)
	assert.Nil(t, gotFinal.PlayerB)
	assert.Equal(t, "p4", gotThird.PlayerA.ID)
	assert.Nil(t, gotThird.PlayerB)
	assert.Equal(t, bracket.MatchScheduled, gotFinal.Status)
	assert.Equal(t, bracket.MatchScheduled, gotThird.Status)

	require.NoError(t, st.FinishMatch(sf2.ID, "p3"))

	gotFinal = mustMatch(t, st, final.ID)
	gotThird = mustMatch(t, st, third.ID)
	assert.Equal(t, [2]string{"P1", "P3"}, seedsOf(gotFinal))
	assert.Equal(t, [2]string{"P4", "P2"}, seedsOf(gotThird))
	assert.Equal(t, bracket.MatchScheduled, gotFinal.Status)
	assert.Equal(t, bracket.MatchScheduled, gotThird.Status)

	require.NoError(t, st.FinishMatch(final.ID, "p3"))
	assert.True(t, mustMatch(t, st, final.ID).IsWinner("p3"))
}

func TestFinishMatchErrors(t *testing.T) {
	players := newTestPlayers(4)
	cfg := knockoutConfig(4)

	t.Run("unknown match", func(t *testing.T) {
		st := newTestState(cfg, players, nil)
		assert.ErrorIs(t, st.FinishMatch("missing", "p1"), ErrMatchNotFound)
	})

	t.Run("winner not in match", func(t *testing.T) {
		knockout := BuildKnockoutFromStandings(rankedRows(players), players, cfg, utils.SequentialIDs("k"))
		st := newTestState(cfg, players, knockout)
		before := st.Snapshot()

		assert.ErrorIs(t, st.FinishMatch(knockout[0].ID, "p2"), ErrWinnerNotInMatch)
		assert.Equal(t, before, st.Snapshot())
	})

	t.Run("link to missing match", func(t *testing.T) {
		knockout := BuildKnockoutFromStandings(rankedRows(players), players, cfg, utils.SequentialIDs("k"))
		// Drop the third place match so the semifinal loser has nowhere to go.
		trimmed := []bracket.Match{knockout[0], knockout[1], knockout[3]}
		st := newTestState(cfg, players, trimmed)
		before := st.Snapshot()

		err := st.FinishMatch(knockout[0].ID, "p1")
		assert.ErrorIs(t, err, ErrUnresolvedLink)
		assert.Equal(t, before, st.Snapshot(), "nothing is applied when a link fails")
	})

	t.Run("finishing twice keeps the first winner", func(t *testing.T) {
		matches := GenerateRoundRobin(players, cfg, utils.SequentialIDs("m"))
		st := newTestState(cfg, players, matches)
		m := matches[0]

		require.NoError(t, st.FinishMatch(m.ID, m.PlayerA.ID))
		require.NoError(t, st.FinishMatch(m.ID, m.PlayerB.ID))
		assert.True(t, mustMatch(t, st, m.ID).IsWinner(m.PlayerA.ID))
	})
}

func TestRecordPointSingleGame(t *testing.T) {
	cfg := singleGameConfig()
	players := newTestPlayers(3)
	st := newTestState(cfg, players, GenerateRoundRobin(players, cfg, utils.SequentialIDs("m")))

	var res score.Result
	var err error
	for i := 0; i < 10; i++ {
		res, err = st.RecordPoint("m-1", bracket.SideA)
		require.NoError(t, err)
		assert.False(t, res.Finished)
	}
	_, err = st.RecordPoint("m-1", bracket.SideB)
	require.NoError(t, err)

	res, err = st.RecordPoint("m-1", bracket.SideA)
	require.NoError(t, err)
	assert.True(t, res.Finished)
	assert.Equal(t, bracket.SideA, res.Winner)

	m := mustMatch(t, st, "m-1")
	assert.Equal(t, 11, m.Score.PointsA)
	assert.Equal(t, 1, m.Score.PointsB)
	assert.True(t, m.IsWinner(m.PlayerA.ID))
	assert.Len(t, m.Score.History, 12)

	res, err = st.RecordPoint("m-1", bracket.SideB)
	require.NoError(t, err)
	assert.False(t, res.Finished)
	assert.Equal(t, m, mustMatch(t, st, "m-1"), "points on a finished match are ignored")

	require.NoError(t, st.UndoPoint("m-1"))
	assert.Equal(t, m, mustMatch(t, st, "m-1"), "finished matches cannot be undone")
}

func TestRecordPointSets(t *testing.T) {
	cfg := bracket.DefaultConfig()
	cfg.Sets.Enabled = true
	players := newTestPlayers(3)
	st := newTestState(cfg, players, GenerateRoundRobin(players, cfg, utils.SequentialIDs("m")))

	for i := 0; i < 10; i++ {
		_, err := st.RecordPoint("m-1", bracket.SideA)
		require.NoError(t, err)
	}
	res, err := st.RecordPoint("m-1", bracket.SideA)
	require.NoError(t, err)
	assert.True(t, res.SetFinished)
	assert.False(t, res.Finished)

	m := mustMatch(t, st, "m-1")
	assert.Equal(t, 1, m.Score.SetsWonA)
	assert.Zero(t, m.Score.CurrentSetPointsA)
	assert.Empty(t, m.Score.History)
	assert.Equal(t, []bracket.SetScore{{A: 11, B: 0}}, m.Score.CompletedSets)
	assert.Equal(t, bracket.MatchLive, m.Status)

	// Undo does not reach back into a finished set.
	require.NoError(t, st.UndoPoint("m-1"))
	assert.Equal(t, m, mustMatch(t, st, "m-1"))

	for i := 0; i < 11; i++ {
		res, err = st.RecordPoint("m-1", bracket.SideB)
		require.NoError(t, err)
	}
	assert.True(t, res.SetFinished)
	assert.False(t, res.Finished)

	for i := 0; i < 11; i++ {
		res, err = st.RecordPoint("m-1", bracket.SideA)
		require.NoError(t, err)
	}
	assert.True(t, res.Finished)
	assert.Equal(t, bracket.SideA, res.Winner)

	m = mustMatch(t, st, "m-1")
	assert.Equal(t, 2, m.Score.SetsWonA)
	assert.Equal(t, 1, m.Score.SetsWonB)
	assert.Len(t, m.Score.CompletedSets, 3)
	assert.True(t, m.IsWinner(m.PlayerA.ID))
}

func TestRecordPointRejects(t *testing.T) {
	players := newTestPlayers(4)
	cfg := knockoutConfig(4)
	knockout := BuildKnockoutFromStandings(rankedRows(players), players, cfg, utils.SequentialIDs("k"))
	st := newTestState(cfg, players, knockout)

	_, err := st.RecordPoint(knockout[0].ID, bracket.Side("C"))
	assert.ErrorIs(t, err, ErrInvalidSide)

	_, err = st.RecordPoint("missing", bracket.SideA)
	assert.ErrorIs(t, err, ErrMatchNotFound)

	final := byLabel(t, knockout)[LabelFinal]
	_, err = st.RecordPoint(final.ID, bracket.SideA)
	assert.ErrorIs(t, err, ErrMatchNotReady)
	assert.Equal(t, bracket.MatchScheduled, mustMatch(t, st, final.ID).Status)
}

func TestUndoPoint(t *testing.T) {
	cfg := singleGameConfig()
	players := newTestPlayers(3)
	st := newTestState(cfg, players, GenerateRoundRobin(players, cfg, utils.SequentialIDs("m")))

	fresh := mustMatch(t, st, "m-1")
	require.NoError(t, st.UndoPoint("m-1"))
	assert.Equal(t, fresh, mustMatch(t, st, "m-1"), "nothing to undo")

	_, err := st.RecordPoint("m-1", bracket.SideA)
	require.NoError(t, err)
	one := mustMatch(t, st, "m-1")
	_, err = st.RecordPoint("m-1", bracket.SideB)
	require.NoError(t, err)

	require.NoError(t, st.UndoPoint("m-1"))
	assert.Equal(t, one.Score, mustMatch(t, st, "m-1").Score)

	require.NoError(t, st.UndoPoint("m-1"))
	got := mustMatch(t, st, "m-1")
	assert.Equal(t, fresh.Score, got.Score)
	assert.Equal(t, bracket.MatchLive, got.Status)

	assert.ErrorIs(t, st.UndoPoint("missing"), ErrMatchNotFound)
}

func TestTransaction(t *testing.T) {
	st := newTestState(bracket.DefaultConfig(), newTestPlayers(2), nil)

	var notified []bracket.Snapshot
	st.Subscribe(ObserverFunc(func(s bracket.Snapshot) { notified = append(notified, s) }))

	boom := errors.New("boom")
	err := st.Transaction(func(tx *TournamentState) error {
		tx.SetPlayers(nil)
		tx.SetConfig(ConfigPatch{Name: utils.Ptr("changed")})
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, st.Players(), 2)
	assert.Equal(t, bracket.DefaultTournamentName, st.Config().Name)
	assert.Empty(t, notified)

	err = st.Transaction(func(tx *TournamentState) error {
		tx.SetPlayers(newTestPlayers(3))
		tx.SetConfig(ConfigPatch{Name: utils.Ptr("changed")})
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, st.Players(), 3)
	assert.Equal(t, "changed", st.Config().Name)
	require.Len(t, notified, 1, "one notification per transaction")
	assert.Len(t, notified[0].Players, 3)
}

func TestObserversAndReset(t *testing.T) {
	cfg := singleGameConfig()
	players := newTestPlayers(3)
	st := newTestState(cfg, players, GenerateRoundRobin(players, cfg, utils.SequentialIDs("m")))

	count := 0
	st.Subscribe(ObserverFunc(func(bracket.Snapshot) { count++ }))

	st.SetPlayers(newTestPlayers(4))
	st.SetConfig(ConfigPatch{TargetPoints: utils.Ptr(21)})
	st.SetMatches(nil)
	assert.Equal(t, 3, count)

	st.Reset()
	assert.Equal(t, 4, count)
	snapshot := st.Snapshot()
	assert.Empty(t, snapshot.Players)
	assert.Empty(t, snapshot.Matches)
	assert.Equal(t, bracket.DefaultConfig(), snapshot.Config)
}

func TestStateDoesNotLeakInternals(t *testing.T) {
	cfg := singleGameConfig()
	players := newTestPlayers(3)
	matches := GenerateRoundRobin(players, cfg, utils.SequentialIDs("m"))
	st := newTestState(cfg, players, matches)

	matches[0].Status = bracket.MatchFinished
	got := st.Matches()
	got[0].PlayerA.Name = "changed"

	m := mustMatch(t, st, "m-1")
	assert.Equal(t, bracket.MatchScheduled, m.Status)
	assert.Equal(t, "P2", m.PlayerA.Name)
}

func TestFinishMatchArchivesLiveSet(t *testing.T) {
	cfg := bracket.DefaultConfig()
	cfg.Sets = bracket.SetsConfig{Enabled: true, BestOf: 3, PointsPerSet: 11}
	players := newTestPlayers(3)
	st := newTestState(cfg, players, GenerateRoundRobin(players, cfg, utils.SequentialIDs("m")))

	m := st.Matches()[0]
	for _, side := range []bracket.Side{bracket.SideA, bracket.SideA, bracket.SideA, bracket.SideB} {
		_, err := st.RecordPoint(m.ID, side)
		require.NoError(t, err)
	}
	require.NoError(t, st.FinishMatch(m.ID, m.PlayerA.ID))

	got := mustMatch(t, st, m.ID)
	assert.Equal(t, []bracket.SetScore{{A: 3, B: 1}}, got.Score.CompletedSets)
	assert.Zero(t, got.Score.CurrentSetPointsA)
	assert.Zero(t, got.Score.SetsWonA)

	rows := ComputeStandings(st.Players(), st.Matches(), true)
	for _, r := range rows {
		switch r.PlayerID {
		case m.PlayerA.ID:
			assert.Equal(t, 3, r.PointsFor)
			assert.Equal(t, 1, r.PointsAgainst)
		case m.PlayerB.ID:
			assert.Equal(t, 1, r.PointsFor)
			assert.Equal(t, 3, r.PointsAgainst)
		}
	}
}
