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

// rankedRows returns standings rows for players in the given order, best first.
func rankedRows(players []bracket.Player) []StandingRow {
	rows := make([]StandingRow, len(players))
	for i, p := range players {
		rows[i] = StandingRow{PlayerID: p.ID, Name: p.Name}
	}
	return rows
}

func knockoutConfig(slots int) bracket.TournamentConfig {
	cfg := bracket.DefaultConfig()
	cfg.KnockoutSlots = slots
	return cfg
}

func byLabel(t *testing.T, matches []bracket.Match) map[string]bracket.Match {
	t.Helper()
	out := make(map[string]bracket.Match, len(matches))
	for _, m := range matches {
		_, dup := out[m.Label()]
		require.False(t, dup, "duplicate label %q", m.Label())
		out[m.Label()] = m
	}
	return out
}

func seedsOf(m bracket.Match) [2]string {
	var out [2]string
	if m.PlayerA != nil {
		out[0] = m.PlayerA.Name
	}
	if m.PlayerB != nil {
		out[1] = m.PlayerB.Name
	}
	return out
}

func TestGenerateRound1SeedOrder(t *testing.T) {
	testCases := []struct {
		name       string
		numEntries int
		expected   [][2]int
	}{
		{
			name:       "2 entries",
			numEntries: 2,
			expected:   [][2]int{{0, 1}},
		},
		{
			name:       "4 entries",
			numEntries: 4,
			expected:   [][2]int{{0, 3}, {1, 2}},
		},
		{
			name:       "8 entries",
			numEntries: 8,
			expected:   [][2]int{{0, 7}, {3, 4}, {1, 6}, {2, 5}},
		},
		{
			name:       "No entries",
			numEntries: 0,
			expected:   [][2]int{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual := generateRound1Pairs(tc.numEntries)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestChooseSlots(t *testing.T) {
	testCases := []struct {
		ranked   int
		ceiling  int
		expected int
	}{
		{ranked: 2, ceiling: 4, expected: 2},
		{ranked: 3, ceiling: 4, expected: 2},
		{ranked: 3, ceiling: 16, expected: 2},
		{ranked: 4, ceiling: 4, expected: 4},
		{ranked: 5, ceiling: 4, expected: 4},
		{ranked: 5, ceiling: 2, expected: 2},
		{ranked: 7, ceiling: 8, expected: 4},
		{ranked: 8, ceiling: 8, expected: 8},
		{ranked: 12, ceiling: 16, expected: 8},
		{ranked: 20, ceiling: 16, expected: 16},
		{ranked: 1, ceiling: 4, expected: 2},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d ranked, ceiling %d", tc.ranked, tc.ceiling), func(t *testing.T) {
			assert.Equal(t, tc.expected, chooseSlots(tc.ranked, knockoutConfig(tc.ceiling)))
		})
	}
}

func TestBuildKnockoutTooFewPlayers(t *testing.T) {
	players := newTestPlayers(1)
	assert.Empty(t, BuildKnockoutFromStandings(nil, nil, knockoutConfig(4), utils.SequentialIDs("k")))
	assert.Empty(t, BuildKnockoutFromStandings(rankedRows(players), players, knockoutConfig(4), utils.SequentialIDs("k")))
}

func TestBuildKnockoutDirectFinal(t *testing.T) {
	testCases := []struct {
		name    string
		players int
		slots   int
	}{
		{name: "two ranked", players: 2, slots: 4},
		{name: "three ranked go straight to a final", players: 3, slots: 4},
		{name: "ceiling of two", players: 6, slots: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			players := newTestPlayers(tc.players)
			matches := BuildKnockoutFromStandings(rankedRows(players), players, knockoutConfig(tc.slots), utils.SequentialIDs("k"))

			require.Len(t, matches, 1)
			assert.Equal(t, LabelFinal, matches[0].Label())
			assert.Equal(t, [2]string{"P1", "P2"}, seedsOf(matches[0]))
			assert.Nil(t, matches[0].Meta)
		})
	}
}

func TestBuildKnockoutFourSlots(t *testing.T) {
	players := newTestPlayers(5)
	cfg := knockoutConfig(4)
	matches := BuildKnockoutFromStandings(rankedRows(players), players, cfg, utils.SequentialIDs("k"))

	require.Len(t, matches, 4)
	assert.Equal(t, []string{"Semifinal 1", "Semifinal 2", LabelThirdPlace, LabelFinal},
		[]string{matches[0].Label(), matches[1].Label(), matches[2].Label(), matches[3].Label()})

	for _, m := range matches {
		assert.Equal(t, bracket.PhaseFinals, m.Phase)
		assert.Equal(t, bracket.KnockoutRound, m.Round)
		assert.Equal(t, bracket.MatchScheduled, m.Status)
		assert.Equal(t, score.New(cfg), m.Score)
		assert.Nil(t, m.WinnerID)
	}

	labels := byLabel(t, matches)
	sf1, sf2 := labels["Semifinal 1"], labels["Semifinal 2"]
	third, final := labels[LabelThirdPlace], labels[LabelFinal]

	assert.Equal(t, [2]string{"P1", "P4"}, seedsOf(sf1))
	assert.Equal(t, [2]string{"P2", "P3"}, seedsOf(sf2))
	assert.Equal(t, [2]string{}, seedsOf(third))
	assert.Equal(t, [2]string{}, seedsOf(final))
	assert.Nil(t, third.Meta)
	assert.Nil(t, final.Meta)

	assert.Equal(t, &bracket.MatchMeta{
		WinnerTo: &bracket.AdvanceLink{MatchID: final.ID, Slot: bracket.SideA},
		LoserTo:  &bracket.AdvanceLink{MatchID: third.ID, Slot: bracket.SideA},
	}, sf1.Meta)
	assert.Equal(t, &bracket.MatchMeta{
		WinnerTo: &bracket.AdvanceLink{MatchID: final.ID, Slot: bracket.SideB},
		LoserTo:  &bracket.AdvanceLink{MatchID: third.ID, Slot: bracket.SideB},
	}, sf2.Meta)
}

func TestBuildKnockoutEightSlots(t *testing.T) {
	players := newTestPlayers(8)
	matches := BuildKnockoutFromStandings(rankedRows(players), players, knockoutConfig(8), utils.SequentialIDs("k"))

	require.Len(t, matches, 8)
	labels := byLabel(t, matches)

	expectedSeeds := map[string][2]string{
		"Quartas 1": {"P1", "P8"},
		"Quartas 2": {"P4", "P5"},
		"Quartas 3": {"P3", "P6"},
		"Quartas 4": {"P2", "P7"},
	}
	expectedLinks := map[string]bracket.AdvanceLink{
		"Quartas 1": {MatchID: labels["Semifinal 1"].ID, Slot: bracket.SideA},
		"Quartas 2": {MatchID: labels["Semifinal 1"].ID, Slot: bracket.SideB},
		"Quartas 3": {MatchID: labels["Semifinal 2"].ID, Slot: bracket.SideB},
		"Quartas 4": {MatchID: labels["Semifinal 2"].ID, Slot: bracket.SideA},
	}

	for i, label := range []string{"Quartas 1", "Quartas 2", "Quartas 3", "Quartas 4"} {
		qf := labels[label]
		assert.Equal(t, label, matches[i].Label(), "quarterfinals are listed first and in order")
		assert.Equal(t, expectedSeeds[label], seedsOf(qf), label)
		require.NotNil(t, qf.Meta, label)
		assert.Equal(t, expectedLinks[label], *qf.Meta.WinnerTo, label)
		assert.Nil(t, qf.Meta.LoserTo, label)
	}

	for _, label := range []string{"Semifinal 1", "Semifinal 2"} {
		sf := labels[label]
		assert.Equal(t, [2]string{}, seedsOf(sf))
		require.NotNil(t, sf.Meta)
		assert.Equal(t, labels[LabelFinal].ID, sf.Meta.WinnerTo.MatchID)
		assert.Equal(t, labels[LabelThirdPlace].ID, sf.Meta.LoserTo.MatchID)
	}
}

func TestBuildKnockoutSixteenSlots(t *testing.T) {
	players := newTestPlayers(16)
	matches := BuildKnockoutFromStandings(rankedRows(players), players, knockoutConfig(16), utils.SequentialIDs("k"))

	require.Len(t, matches, 16)

	expected := [][2]string{
		{"P1", "P16"}, {"P8", "P9"}, {"P4", "P13"}, {"P5", "P12"},
		{"P6", "P11"}, {"P3", "P14"}, {"P7", "P10"}, {"P2", "P15"},
	}
	for i, seeds := range expected {
		assert.Equal(t, fmt.Sprintf("Oitavas %d", i+1), matches[i].Label())
		assert.Equal(t, seeds, seedsOf(matches[i]))
		assert.Nil(t, matches[i].Meta.LoserTo)
	}

	labels := byLabel(t, matches)
	for _, label := range []string{"Quartas 1", "Quartas 2", "Quartas 3", "Quartas 4", "Semifinal 1", "Semifinal 2"} {
		assert.Contains(t, labels, label)
	}

	// The winner of the match holding seed s meets the quarterfinal holding seed s.
	assert.Equal(t, bracket.AdvanceLink{MatchID: labels["Quartas 1"].ID, Slot: bracket.SideA}, *matches[0].Meta.WinnerTo)
	assert.Equal(t, bracket.AdvanceLink{MatchID: labels["Quartas 1"].ID, Slot: bracket.SideB}, *matches[1].Meta.WinnerTo)
	assert.Equal(t, bracket.AdvanceLink{MatchID: labels["Quartas 4"].ID, Slot: bracket.SideA}, *matches[7].Meta.WinnerTo)
}

func TestBuildKnockoutLinksResolve(t *testing.T) {
	for _, slots := range []int{4, 8, 16} {
		t.Run(fmt.Sprintf("%d slots", slots), func(t *testing.T) {
			players := newTestPlayers(slots)
			matches := BuildKnockoutFromStandings(rankedRows(players), players, knockoutConfig(slots), utils.SequentialIDs("k"))

			ids := make(map[string]bool)
			for _, m := range matches {
				ids[m.ID] = true
			}

			// Every open slot is fed by exactly one link.
			feeds := make(map[bracket.AdvanceLink]int)
			for _, m := range matches {
				if m.Meta == nil {
					continue
				}
				for _, link := range []*bracket.AdvanceLink{m.Meta.WinnerTo, m.Meta.LoserTo} {
					if link == nil {
						continue
					}
					assert.True(t, ids[link.MatchID], "link to unknown match %s", link.MatchID)
					feeds[*link]++
				}
			}
			for link, count := range feeds {
				assert.Equal(t, 1, count, "slot %v fed more than once", link)
			}
			assert.Len(t, feeds, 2*(len(matches)-slots/2))
		})
	}
}

func TestBuildKnockoutSkipsUnknownPlayers(t *testing.T) {
	players := newTestPlayers(4)
	rows := rankedRows(players)

	matches := BuildKnockoutFromStandings(rows, players[:3], knockoutConfig(4), utils.SequentialIDs("k"))

	require.Len(t, matches, 4)
	assert.Equal(t, [2]string{"P1", ""}, seedsOf(matches[0]))
}
