package views

import (
	"fmt"
	"net/url"

	"github.com/AdamBeresnev/pingpong-brackets/internal/bracket"
	"github.com/AdamBeresnev/pingpong-brackets/internal/service"
)

var knockoutSlotChoices = []int{2, 4, 8, 16}

// path joins escaped segments under /tournaments.
func path(segments ...string) string {
	out := "/tournaments"
	for _, s := range segments {
		out += "/" + url.PathEscape(s)
	}
	return out
}

func signed(n int) string {
	return fmt.Sprintf("%+d", n)
}

func winnerName(m bracket.Match) string {
	if m.WinnerID == nil {
		return ""
	}
	side, ok := m.SideOf(*m.WinnerID)
	if !ok {
		return ""
	}
	return PlayerName(m.Player(side))
}

// sidePoints is the running count on the scoreboard: game points, or the current set in set mode.
func sidePoints(data *service.MatchData, side bracket.Side) int {
	if side == bracket.SideB {
		return data.PointsB
	}
	return data.PointsA
}

func sideSets(m bracket.Match, side bracket.Side) int {
	if side == bracket.SideB {
		return m.Score.SetsWonB
	}
	return m.Score.SetsWonA
}
