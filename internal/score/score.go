// Package score holds the point-by-point rules of a single match: serve rotation,
// game/set win detection and one-step undo. Every function returns a new MatchScore
// and leaves its input untouched.
package score

import "github.com/AdamBeresnev/pingpong-brackets/internal/bracket"

// Result is what CheckWin reports after a point.
type Result struct {
	Finished bool
	// Winner is the match winner when Finished, otherwise the set winner when SetFinished.
	// Empty while nothing is decided.
	Winner      bracket.Side
	SetFinished bool
}

func New(cfg bracket.TournamentConfig) bracket.MatchScore {
	left := cfg.InitialServesLeft()
	return bracket.MatchScore{
		WhoServes:        bracket.SideA,
		ServesLeftInTurn: left,
		StartServer:      bracket.SideA,
		StartServesLeft:  left,
		History:          []bracket.ScoreSnapshot{},
	}
}

// nextServer applies the rotation rule after a point won by scorer.
func nextServer(s bracket.MatchScore, cfg bracket.TournamentConfig, scorer bracket.Side) (bracket.Side, int) {
	if cfg.ServingMode == bracket.ServeScorer {
		return scorer, 1
	}

	who := s.WhoServes
	left := s.ServesLeftInTurn - 1
	if left <= 0 {
		who = who.Other()
		left = 2
	}
	return who, left
}

// AddPoint credits one point to who, rotates the serve and records a history snapshot.
// An invalid side leaves the score as it was.
func AddPoint(s bracket.MatchScore, cfg bracket.TournamentConfig, who bracket.Side) bracket.MatchScore {
	out := s.Clone()
	if !who.Valid() {
		return out
	}

	a, b := counters(&out, cfg)
	if who == bracket.SideA {
		*a++
	} else {
		*b++
	}

	out.WhoServes, out.ServesLeftInTurn = nextServer(s, cfg, who)
	out.History = append(out.History, bracket.ScoreSnapshot{
		A:                *a,
		B:                *b,
		WhoServes:        out.WhoServes,
		ServesLeftInTurn: out.ServesLeftInTurn,
	})
	return out
}

// counters returns the pair of point counters that the config scores into.
func counters(s *bracket.MatchScore, cfg bracket.TournamentConfig) (*int, *int) {
	if cfg.Sets.Enabled {
		return &s.CurrentSetPointsA, &s.CurrentSetPointsB
	}
	return &s.PointsA, &s.PointsB
}

func decided(a, b, target int, winByTwo bool) bool {
	if a < target && b < target {
		return false
	}
	if !winByTwo {
		return true
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff >= 2
}

func leader(a, b int) bracket.Side {
	if a > b {
		return bracket.SideA
	}
	return bracket.SideB
}

// CheckWin evaluates the score without changing it. In set mode a finished set is only
// reported; committing it is ApplySetWin's job.
func CheckWin(s bracket.MatchScore, cfg bracket.TournamentConfig) Result {
	if !cfg.Sets.Enabled {
		if decided(s.PointsA, s.PointsB, cfg.TargetPoints, cfg.WinByTwo) {
			return Result{Finished: true, Winner: leader(s.PointsA, s.PointsB)}
		}
		return Result{}
	}

	a, b := s.CurrentSetPointsA, s.CurrentSetPointsB
	if !decided(a, b, cfg.Sets.PointsPerSet, cfg.WinByTwo) {
		return Result{}
	}

	setWinner := leader(a, b)
	wonA, wonB := s.SetsWonA, s.SetsWonB
	if setWinner == bracket.SideA {
		wonA++
	} else {
		wonB++
	}

	majority := cfg.SetsToWin()
	switch {
	case wonA >= majority:
		return Result{Finished: true, Winner: bracket.SideA, SetFinished: true}
	case wonB >= majority:
		return Result{Finished: true, Winner: bracket.SideB, SetFinished: true}
	}
	return Result{Winner: setWinner, SetFinished: true}
}

// ApplySetWin commits a finished set: the winner's tally goes up, the set's points are
// archived, the set counters reset and history is cleared. The serve carries over.
func ApplySetWin(s bracket.MatchScore, setWinner bracket.Side) bracket.MatchScore {
	out := s.Clone()
	if !setWinner.Valid() {
		return out
	}

	if setWinner == bracket.SideA {
		out.SetsWonA++
	} else {
		out.SetsWonB++
	}
	out.CompletedSets = append(out.CompletedSets, bracket.SetScore{A: s.CurrentSetPointsA, B: s.CurrentSetPointsB})
	out.CurrentSetPointsA = 0
	out.CurrentSetPointsB = 0
	out.History = []bracket.ScoreSnapshot{}
	out.StartServer = out.WhoServes
	out.StartServesLeft = out.ServesLeftInTurn
	return out
}

// CloseSet archives the points of a set that was left unfinished, as when a match is
// ended by hand. Set tallies stay as they are. With no points in the set it is a no-op.
func CloseSet(s bracket.MatchScore) bracket.MatchScore {
	out := s.Clone()
	if s.CurrentSetPointsA == 0 && s.CurrentSetPointsB == 0 {
		return out
	}

	out.CompletedSets = append(out.CompletedSets, bracket.SetScore{A: s.CurrentSetPointsA, B: s.CurrentSetPointsB})
	out.CurrentSetPointsA = 0
	out.CurrentSetPointsB = 0
	out.History = []bracket.ScoreSnapshot{}
	return out
}

// Undo takes back the last point of the current set (or game). With no history it is a no-op.
func Undo(s bracket.MatchScore, cfg bracket.TournamentConfig) bracket.MatchScore {
	out := s.Clone()
	if len(out.History) == 0 {
		return out
	}

	out.History = out.History[:len(out.History)-1]
	a, b := counters(&out, cfg)

	if n := len(out.History); n > 0 {
		prev := out.History[n-1]
		*a, *b = prev.A, prev.B
		out.WhoServes, out.ServesLeftInTurn = prev.WhoServes, prev.ServesLeftInTurn
		return out
	}

	*a, *b = 0, 0
	out.WhoServes, out.ServesLeftInTurn = out.StartServer, out.StartServesLeft
	if !out.WhoServes.Valid() || out.ServesLeftInTurn <= 0 {
		out.WhoServes, out.ServesLeftInTurn = bracket.SideA, cfg.InitialServesLeft()
	}
	return out
}

// Points returns the live counters: the game score, or the current set score in set mode.
func Points(s bracket.MatchScore, cfg bracket.TournamentConfig) (int, int) {
	if cfg.Sets.Enabled {
		return s.CurrentSetPointsA, s.CurrentSetPointsB
	}
	return s.PointsA, s.PointsB
}
