package service

import (
	"context"
	"log/slog"

	"github.com/AdamBeresnev/pingpong-brackets/internal/bracket"
	"github.com/AdamBeresnev/pingpong-brackets/internal/score"
)

// MatchService drives live scoring of single matches inside a tournament.
type MatchService struct {
	tournaments *TournamentService
}

func NewMatchService(tournaments *TournamentService) *MatchService {
	return &MatchService{tournaments: tournaments}
}

type MatchData struct {
	TournamentID string
	Match        bracket.Match
	Config       bracket.TournamentConfig
	PointsA      int
	PointsB      int
	NextMatchID  *string
}

func (s *MatchService) GetMatchViewData(ctx context.Context, tournamentID, matchID string) (*MatchData, error) {
	snapshot, err := s.tournaments.read(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	var match *bracket.Match
	for i := range snapshot.Matches {
		if snapshot.Matches[i].ID == matchID {
			match = &snapshot.Matches[i]
			break
		}
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}

	a, b := score.Points(match.Score, snapshot.Config)
	return &MatchData{
		TournamentID: tournamentID,
		Match:        *match,
		Config:       snapshot.Config,
		PointsA:      a,
		PointsB:      b,
		NextMatchID:  nextMatch(snapshot.Matches),
	}, nil
}

// ScorePoint gives one point to side. A match that ends with it is finished and its players advanced.
func (s *MatchService) ScorePoint(ctx context.Context, tournamentID, matchID string, side bracket.Side) (score.Result, error) {
	var res score.Result
	err := s.tournaments.mutate(ctx, tournamentID, func(st *TournamentState) error {
		var err error
		res, err = st.RecordPoint(matchID, side)
		return err
	})
	if err != nil {
		return score.Result{}, err
	}

	if res.Finished {
		slog.Info("match finished", "tournament_id", tournamentID, "match_id", matchID, "winner_side", res.Winner)
	}
	return res, nil
}

func (s *MatchService) UndoPoint(ctx context.Context, tournamentID, matchID string) error {
	return s.tournaments.mutate(ctx, tournamentID, func(st *TournamentState) error {
		return st.UndoPoint(matchID)
	})
}

// FinishMatch closes a match with the given winner without playing it out.
func (s *MatchService) FinishMatch(ctx context.Context, tournamentID, matchID, winnerID string) error {
	err := s.tournaments.mutate(ctx, tournamentID, func(st *TournamentState) error {
		return st.FinishMatch(matchID, winnerID)
	})
	if err != nil {
		return err
	}

	slog.Info("match finished", "tournament_id", tournamentID, "match_id", matchID, "winner_id", winnerID)
	return nil
}
