package views

import (
	"fmt"
	"sort"

	"github.com/AdamBeresnev/pingpong-brackets/internal/bracket"
)

type BracketData struct {
	ClassificationRounds map[int][]bracket.Match
	ClassificationNums   []int
	// Knockout keeps the order the bracket was generated in: earliest round first, final last
	Knockout []bracket.Match
	Training []bracket.Match
}

func PrepareBracketData(matches []bracket.Match) BracketData {
	rounds := make(map[int][]bracket.Match)
	var roundNums []int
	var knockout, training []bracket.Match

	for _, m := range matches {
		switch m.Phase {
		case bracket.PhaseClassification:
			if _, exists := rounds[m.Round]; !exists {
				roundNums = append(roundNums, m.Round)
			}
			rounds[m.Round] = append(rounds[m.Round], m)
		case bracket.PhaseFinals:
			knockout = append(knockout, m)
		case bracket.PhaseTraining:
			training = append(training, m)
		}
	}

	sort.Ints(roundNums)

	return BracketData{
		ClassificationRounds: rounds,
		ClassificationNums:   roundNums,
		Knockout:             knockout,
		Training:             training,
	}
}

// ScoreLine is the compact score shown next to a match: sets and the running set in set mode.
func ScoreLine(m bracket.Match, cfg bracket.TournamentConfig) string {
	if cfg.Sets.Enabled {
		if m.IsFinished() || (m.Score.CurrentSetPointsA == 0 && m.Score.CurrentSetPointsB == 0) {
			return fmt.Sprintf("%d x %d", m.Score.SetsWonA, m.Score.SetsWonB)
		}
		return fmt.Sprintf("%d x %d (%d-%d)", m.Score.SetsWonA, m.Score.SetsWonB, m.Score.CurrentSetPointsA, m.Score.CurrentSetPointsB)
	}
	return fmt.Sprintf("%d x %d", m.Score.PointsA, m.Score.PointsB)
}

func PlayerName(p *bracket.Player) string {
	if p == nil {
		return "A definir"
	}
	return p.Name
}

func StatusLabel(s bracket.MatchStatus) string {
	switch s {
	case bracket.MatchLive:
		return "Em jogo"
	case bracket.MatchFinished:
		return "Encerrada"
	default:
		return "Agendada"
	}
}
