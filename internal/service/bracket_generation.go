package service

import (
	"fmt"

	"github.com/AdamBeresnev/pingpong-brackets/internal/bracket"
	"github.com/AdamBeresnev/pingpong-brackets/internal/score"
	"github.com/AdamBeresnev/pingpong-brackets/internal/utils"
)

const (
	LabelFinal      = "Final"
	LabelThirdPlace = "3º lugar"
)

var allowedSlots = []int{16, 8, 4, 2}

// chooseSlots picks how many ranked players enter the knockout.
// Three players go straight to a final, otherwise the largest allowed size within both the
// configured ceiling and the number of ranked players.
func chooseSlots(ranked int, cfg bracket.TournamentConfig) int {
	if ranked == 3 {
		return 2
	}
	for _, slots := range allowedSlots {
		if slots <= cfg.KnockoutSlots && slots <= ranked {
			return slots
		}
	}
	return 2
}

// generateRound1Pairs lists the opening pairings as zero based seed indexes, in bracket order
// so that pairs 2k and 2k+1 meet in the next round.
func generateRound1Pairs(bracketSize int) [][2]int {
	if bracketSize == 0 {
		return [][2]int{}
	}

	rounds := []int{0}
	for len(rounds) < bracketSize {
		var nextRound []int
		currentCount := len(rounds) * 2

		for _, seed := range rounds {
			nextRound = append(nextRound, seed)
			nextRound = append(nextRound, (currentCount-1)-seed)
		}
		rounds = nextRound
	}

	pairs := make([][2]int, 0, bracketSize/2)
	for i := 0; i < len(rounds); i += 2 {
		matchup := [2]int{rounds[i], rounds[i+1]}
		pairs = append(pairs, matchup)
	}

	return pairs
}

func slotFor(order int) bracket.Side {
	if order%2 == 0 {
		return bracket.SideA
	}
	return bracket.SideB
}

func roundLabel(matchesInRound, n int) string {
	switch matchesInRound {
	case 2:
		return fmt.Sprintf("Semifinal %d", n)
	case 4:
		return fmt.Sprintf("Quartas %d", n)
	default:
		return fmt.Sprintf("Oitavas %d", n)
	}
}

// displayOrder keeps the top half of a round in bracket order and mirrors the bottom half,
// so seed 2's path is listed last.
func displayOrder(round []bracket.Match) []bracket.Match {
	half := len(round) / 2
	out := make([]bracket.Match, 0, len(round))
	out = append(out, round[:half]...)
	for i := len(round) - 1; i >= half; i-- {
		out = append(out, round[i])
	}
	return out
}

// BuildKnockoutFromStandings seeds a single elimination bracket from already sorted standings.
// Every match except the final and third place match carries forward links telling where its
// winner (and for semifinals its loser) goes.
func BuildKnockoutFromStandings(rows []StandingRow, players []bracket.Player, cfg bracket.TournamentConfig, newID utils.IDFunc) []bracket.Match {
	if len(rows) < 2 {
		return []bracket.Match{}
	}

	slots := chooseSlots(len(rows), cfg)
	seeds := rows[:slots]

	roster := make(map[string]bracket.Player, len(players))
	for _, p := range players {
		roster[p.ID] = p
	}
	seedPlayer := func(seed int) *bracket.Player {
		p, ok := roster[seeds[seed].PlayerID]
		if !ok {
			return nil
		}
		return &p
	}

	mk := func(label string, a, b *bracket.Player) bracket.Match {
		return bracket.Match{
			ID:         newID(),
			Phase:      bracket.PhaseFinals,
			Round:      bracket.KnockoutRound,
			TableLabel: utils.Ptr(label),
			PlayerA:    a,
			PlayerB:    b,
			Score:      score.New(cfg),
			Status:     bracket.MatchScheduled,
		}
	}

	if slots == 2 {
		return []bracket.Match{mk(LabelFinal, seedPlayer(0), seedPlayer(1))}
	}

	final := mk(LabelFinal, nil, nil)
	third := mk(LabelThirdPlace, nil, nil)

	// Easier to start at the semifinals and work backwards to the first round
	var rounds [][]bracket.Match
	parents := []string{final.ID}
	for size := 2; size <= slots/2; size *= 2 {
		round := make([]bracket.Match, size)
		ids := make([]string, size)
		for i := range round {
			m := mk("", nil, nil)
			m.Meta = &bracket.MatchMeta{
				WinnerTo: &bracket.AdvanceLink{MatchID: parents[i/2], Slot: slotFor(i)},
			}
			if size == 2 {
				m.Meta.LoserTo = &bracket.AdvanceLink{MatchID: third.ID, Slot: slotFor(i)}
			}
			round[i] = m
			ids[i] = m.ID
		}
		rounds = append(rounds, round)
		parents = ids
	}

	first := rounds[len(rounds)-1]
	for i, pair := range generateRound1Pairs(slots) {
		first[i].PlayerA = seedPlayer(pair[0])
		first[i].PlayerB = seedPlayer(pair[1])
	}

	matches := make([]bracket.Match, 0, slots)
	for r := len(rounds) - 1; r >= 0; r-- {
		for i, m := range displayOrder(rounds[r]) {
			m.TableLabel = utils.Ptr(roundLabel(len(rounds[r]), i+1))
			matches = append(matches, m)
		}
	}

	return append(matches, third, final)
}
