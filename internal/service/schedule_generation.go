package service

import (
	"github.com/AdamBeresnev/pingpong-brackets/internal/bracket"
	"github.com/AdamBeresnev/pingpong-brackets/internal/score"
	"github.com/AdamBeresnev/pingpong-brackets/internal/utils"
)

const TrainingLabel = "Treino"

// GenerateRoundRobin builds the opening match list for a roster.
// Two players get a single open training match, three or more play a full round robin
// using the circle method, with a bye slot when the count is odd.
func GenerateRoundRobin(players []bracket.Player, cfg bracket.TournamentConfig, newID utils.IDFunc) []bracket.Match {
	n := len(players)
	if n < 2 {
		return []bracket.Match{}
	}

	if n == 2 {
		return []bracket.Match{{
			ID:         newID(),
			Phase:      bracket.PhaseTraining,
			Round:      1,
			TableLabel: utils.Ptr(TrainingLabel),
			PlayerA:    utils.Ptr(players[0]),
			PlayerB:    utils.Ptr(players[1]),
			Score:      score.New(cfg),
			Status:     bracket.MatchScheduled,
		}}
	}

	// nil is the bye
	circle := make([]*bracket.Player, 0, n+1)
	for i := range players {
		circle = append(circle, &players[i])
	}
	if len(circle)%2 == 1 {
		circle = append(circle, nil)
	}

	rounds := len(circle) - 1
	half := len(circle) / 2
	matches := make([]bracket.Match, 0, n*(n-1)/2)

	for r := 1; r <= rounds; r++ {
		for i := 0; i < half; i++ {
			a := circle[i]
			b := circle[len(circle)-1-i]
			if a == nil || b == nil {
				continue
			}

			matches = append(matches, bracket.Match{
				ID:      newID(),
				Phase:   bracket.PhaseClassification,
				Round:   r,
				PlayerA: utils.Ptr(*a),
				PlayerB: utils.Ptr(*b),
				Score:   score.New(cfg),
				Status:  bracket.MatchScheduled,
			})
		}

		// Keep the first entry fixed and rotate the rest by one
		moved := circle[1]
		circle = append(circle[:1], circle[2:]...)
		circle = append(circle, moved)
	}

	return matches
}
