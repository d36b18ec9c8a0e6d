package service

import (
	"fmt"
	"log/slog"

	"github.com/AdamBeresnev/pingpong-brackets/internal/bracket"
	"github.com/AdamBeresnev/pingpong-brackets/internal/score"
)

// Observer is told about every committed change of a tournament.
type Observer interface {
	TournamentChanged(snapshot bracket.Snapshot)
}

type ObserverFunc func(snapshot bracket.Snapshot)

func (f ObserverFunc) TournamentChanged(snapshot bracket.Snapshot) {
	f(snapshot)
}

// SetsPatch and ConfigPatch carry only the fields being changed.
type SetsPatch struct {
	Enabled      *bool
	BestOf       *int
	PointsPerSet *int
}

type ConfigPatch struct {
	Name          *string
	WinByTwo      *bool
	TargetPoints  *int
	Sets          *SetsPatch
	ServingMode   *bracket.ServingMode
	KnockoutSlots *int
}

func (p ConfigPatch) apply(cfg bracket.TournamentConfig) bracket.TournamentConfig {
	if p.Name != nil {
		cfg.Name = *p.Name
	}
	if p.WinByTwo != nil {
		cfg.WinByTwo = *p.WinByTwo
	}
	if p.TargetPoints != nil {
		cfg.TargetPoints = *p.TargetPoints
	}
	if p.ServingMode != nil {
		cfg.ServingMode = *p.ServingMode
	}
	if p.KnockoutSlots != nil {
		cfg.KnockoutSlots = *p.KnockoutSlots
	}
	if p.Sets != nil {
		if p.Sets.Enabled != nil {
			cfg.Sets.Enabled = *p.Sets.Enabled
		}
		if p.Sets.BestOf != nil {
			cfg.Sets.BestOf = *p.Sets.BestOf
		}
		if p.Sets.PointsPerSet != nil {
			cfg.Sets.PointsPerSet = *p.Sets.PointsPerSet
		}
	}
	return cfg
}

// TournamentState owns the players, config and matches of one tournament session.
// It is not safe for concurrent use; TournamentService serializes access to it.
type TournamentState struct {
	players   []bracket.Player
	config    bracket.TournamentConfig
	matches   []bracket.Match
	index     map[string]int
	observers []Observer
}

func NewTournamentState(snapshot bracket.Snapshot) *TournamentState {
	s := &TournamentState{}
	s.load(snapshot.Clone())
	return s
}

func (s *TournamentState) load(snapshot bracket.Snapshot) {
	s.players = snapshot.Players
	s.config = snapshot.Config
	s.matches = snapshot.Matches
	s.reindex()
}

func (s *TournamentState) reindex() {
	s.index = make(map[string]int, len(s.matches))
	for i, m := range s.matches {
		s.index[m.ID] = i
	}
}

func (s *TournamentState) Subscribe(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *TournamentState) notify() {
	if len(s.observers) == 0 {
		return
	}
	snapshot := s.Snapshot()
	for _, o := range s.observers {
		o.TournamentChanged(snapshot)
	}
}

func (s *TournamentState) Snapshot() bracket.Snapshot {
	return bracket.Snapshot{Players: s.players, Config: s.config, Matches: s.matches}.Clone()
}

func (s *TournamentState) Players() []bracket.Player {
	return append([]bracket.Player(nil), s.players...)
}

func (s *TournamentState) Config() bracket.TournamentConfig {
	return s.config
}

func (s *TournamentState) Matches() []bracket.Match {
	return s.Snapshot().Matches
}

func (s *TournamentState) Match(id string) (bracket.Match, bool) {
	i, ok := s.index[id]
	if !ok {
		return bracket.Match{}, false
	}
	return s.matches[i].Clone(), true
}

// Transaction runs fn against a working copy and commits it only when fn succeeds,
// so a failed multi-step change leaves the state untouched. Observers hear about the commit once.
func (s *TournamentState) Transaction(fn func(tx *TournamentState) error) error {
	tx := &TournamentState{}
	tx.load(s.Snapshot())

	if err := fn(tx); err != nil {
		return err
	}

	s.players, s.config, s.matches, s.index = tx.players, tx.config, tx.matches, tx.index
	s.notify()
	return nil
}

// Restore replaces the whole state with the snapshot.
func (s *TournamentState) Restore(snapshot bracket.Snapshot) {
	s.load(snapshot.Clone())
	s.notify()
}

func (s *TournamentState) SetPlayers(players []bracket.Player) {
	s.players = append([]bracket.Player(nil), players...)
	s.notify()
}

// SetConfig merges the patch into the current config, the sets block field by field.
func (s *TournamentState) SetConfig(patch ConfigPatch) {
	s.config = patch.apply(s.config)
	s.notify()
}

func (s *TournamentState) SetMatches(matches []bracket.Match) {
	s.matches = bracket.Snapshot{Matches: matches}.Clone().Matches
	s.reindex()
	s.notify()
}

func (s *TournamentState) Reset() {
	s.load(bracket.Snapshot{
		Players: []bracket.Player{},
		Config:  bracket.DefaultConfig(),
		Matches: []bracket.Match{},
	})
	s.notify()
}

// UpdateMatchScore replaces a match's score with updater's result and marks a scheduled match live.
// Finished matches are left alone.
func (s *TournamentState) UpdateMatchScore(id string, updater func(bracket.MatchScore) bracket.MatchScore) error {
	i, ok := s.index[id]
	if !ok {
		return ErrMatchNotFound
	}

	m := &s.matches[i]
	if m.IsFinished() {
		return nil
	}
	if m.Status == bracket.MatchScheduled {
		m.Status = bracket.MatchLive
	}
	m.Score = updater(m.Score.Clone())
	s.notify()
	return nil
}

type placement struct {
	target int
	slot   bracket.Side
	player bracket.Player
}

func (s *TournamentState) resolve(link *bracket.AdvanceLink, p *bracket.Player, source string) (placement, error) {
	target, ok := s.index[link.MatchID]
	if !ok {
		return placement{}, fmt.Errorf("%w: match %s points at missing match %s", ErrUnresolvedLink, source, link.MatchID)
	}
	if p == nil {
		return placement{}, fmt.Errorf("%w: match %s has no player to send to %s", ErrUnresolvedLink, source, link.MatchID)
	}
	if !link.Slot.Valid() {
		return placement{}, fmt.Errorf("%w: match %s has invalid slot %q", ErrUnresolvedLink, source, link.Slot)
	}
	return placement{target: target, slot: link.Slot, player: *p}, nil
}

// FinishMatch records the winner and, for knockout matches, moves the winner and loser into
// the slots their forward links name. Either all of it happens or none of it does.
// Finishing an already finished match is a no-op.
func (s *TournamentState) FinishMatch(id, winnerID string) error {
	i, ok := s.index[id]
	if !ok {
		return ErrMatchNotFound
	}

	m := s.matches[i]
	if m.IsFinished() {
		return nil
	}

	winnerSide, ok := m.SideOf(winnerID)
	if !ok {
		return ErrWinnerNotInMatch
	}

	var placements []placement
	if m.Meta != nil {
		if link := m.Meta.WinnerTo; link != nil {
			p, err := s.resolve(link, m.Player(winnerSide), m.ID)
			if err != nil {
				return err
			}
			placements = append(placements, p)
		}
		if link := m.Meta.LoserTo; link != nil {
			p, err := s.resolve(link, m.Player(winnerSide.Other()), m.ID)
			if err != nil {
				return err
			}
			placements = append(placements, p)
		}
	}

	winner := winnerID
	s.matches[i].WinnerID = &winner
	s.matches[i].Status = bracket.MatchFinished
	if s.config.Sets.Enabled {
		s.matches[i].Score = score.CloseSet(s.matches[i].Score)
	}

	for _, p := range placements {
		player := p.player
		s.matches[p.target].SetPlayer(p.slot, &player)
		slog.Info("player advanced", "from_match", m.ID, "to_match", s.matches[p.target].ID, "slot", p.slot, "player", player.Name)
	}

	s.notify()
	return nil
}

// RecordPoint scores one point and follows through: a finished set is committed and a
// finished match is closed with its winner. Points on finished matches are ignored.
func (s *TournamentState) RecordPoint(id string, side bracket.Side) (score.Result, error) {
	if !side.Valid() {
		return score.Result{}, ErrInvalidSide
	}

	var res score.Result
	err := s.Transaction(func(tx *TournamentState) error {
		m, ok := tx.Match(id)
		if !ok {
			return ErrMatchNotFound
		}
		if m.IsFinished() {
			return nil
		}
		if m.PlayerA == nil || m.PlayerB == nil {
			return ErrMatchNotReady
		}

		cfg := tx.config
		if err := tx.UpdateMatchScore(id, func(sc bracket.MatchScore) bracket.MatchScore {
			next := score.AddPoint(sc, cfg, side)
			res = score.CheckWin(next, cfg)
			if res.SetFinished {
				next = score.ApplySetWin(next, res.Winner)
			}
			return next
		}); err != nil {
			return err
		}

		if !res.Finished {
			return nil
		}
		return tx.FinishMatch(id, m.Player(res.Winner).ID)
	})
	if err != nil {
		return score.Result{}, err
	}
	return res, nil
}

// UndoPoint takes back the last point of a match that is still being played.
func (s *TournamentState) UndoPoint(id string) error {
	m, ok := s.Match(id)
	if !ok {
		return ErrMatchNotFound
	}
	if m.IsFinished() || len(m.Score.History) == 0 {
		return nil
	}

	cfg := s.config
	return s.UpdateMatchScore(id, func(sc bracket.MatchScore) bracket.MatchScore {
		return score.Undo(sc, cfg)
	})
}
