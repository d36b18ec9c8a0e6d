package service

import (
	"slices"

	"github.com/AdamBeresnev/pingpong-brackets/internal/bracket"
	"github.com/AdamBeresnev/pingpong-brackets/internal/score"
)

var (
	validBestOf = []int{3, 5}
	validSlots  = []int{2, 4, 8, 16}
)

// ValidateConfig replaces missing or out of range values with defaults.
// A zero config (nothing was stored) becomes the default config.
func ValidateConfig(cfg bracket.TournamentConfig) bracket.TournamentConfig {
	def := bracket.DefaultConfig()
	if cfg == (bracket.TournamentConfig{}) {
		return def
	}

	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.ServingMode != bracket.ServeTwoInRow && cfg.ServingMode != bracket.ServeScorer {
		cfg.ServingMode = def.ServingMode
	}
	if cfg.TargetPoints <= 0 {
		cfg.TargetPoints = def.TargetPoints
	}
	if !slices.Contains(validBestOf, cfg.Sets.BestOf) {
		cfg.Sets.BestOf = def.Sets.BestOf
	}
	if cfg.Sets.PointsPerSet <= 0 {
		cfg.Sets.PointsPerSet = def.Sets.PointsPerSet
	}
	if !slices.Contains(validSlots, cfg.KnockoutSlots) {
		cfg.KnockoutSlots = def.KnockoutSlots
	}
	return cfg
}

func validPhase(p bracket.Phase) bool {
	return p == bracket.PhaseClassification || p == bracket.PhaseFinals || p == bracket.PhaseTraining
}

func validateScore(sc bracket.MatchScore, cfg bracket.TournamentConfig) bracket.MatchScore {
	fresh := score.New(cfg)
	if !sc.WhoServes.Valid() || sc.ServesLeftInTurn <= 0 {
		sc.WhoServes, sc.ServesLeftInTurn = fresh.WhoServes, fresh.ServesLeftInTurn
	}
	if !sc.StartServer.Valid() || sc.StartServesLeft <= 0 {
		sc.StartServer, sc.StartServesLeft = fresh.StartServer, fresh.StartServesLeft
	}
	if sc.History == nil {
		sc.History = []bracket.ScoreSnapshot{}
	}
	return sc
}

// ValidateSnapshot turns a restored players/config/matches triple into one the engine can run on.
// Entries without ids or with repeated ids are dropped, unknown statuses fall back to scheduled and
// the winner/finished pairing is made consistent.
func ValidateSnapshot(s bracket.Snapshot) bracket.Snapshot {
	out := bracket.Snapshot{
		Players: make([]bracket.Player, 0, len(s.Players)),
		Config:  ValidateConfig(s.Config),
		Matches: make([]bracket.Match, 0, len(s.Matches)),
	}

	seenPlayers := make(map[string]bool, len(s.Players))
	for _, p := range s.Players {
		if p.ID == "" || seenPlayers[p.ID] {
			continue
		}
		seenPlayers[p.ID] = true
		out.Players = append(out.Players, p)
	}

	seenMatches := make(map[string]bool, len(s.Matches))
	for _, m := range s.Matches {
		if m.ID == "" || seenMatches[m.ID] || !validPhase(m.Phase) {
			continue
		}
		seenMatches[m.ID] = true

		m = m.Clone()
		switch m.Status {
		case bracket.MatchScheduled, bracket.MatchLive, bracket.MatchFinished:
		default:
			m.Status = bracket.MatchScheduled
		}
		if m.Status == bracket.MatchFinished && m.WinnerID == nil {
			m.Status = bracket.MatchLive
		}
		if m.Status != bracket.MatchFinished {
			m.WinnerID = nil
		}
		if m.Phase != bracket.PhaseFinals {
			m.Meta = nil
		}
		m.Score = validateScore(m.Score, out.Config)
		out.Matches = append(out.Matches, m)
	}

	return out
}
