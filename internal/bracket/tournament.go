package bracket

import "time"

type ServingMode string

const (
	// Serve changes sides every two points.
	ServeTwoInRow ServingMode = "two_in_row"
	// Whoever scored the point serves the next one.
	ServeScorer ServingMode = "score_serves"
)

const (
	DefaultTournamentName = "Copa das Amigas"
	DefaultTargetPoints   = 12
	DefaultPointsPerSet   = 11
	DefaultBestOf         = 3
	DefaultKnockoutSlots  = 4
)

type SetsConfig struct {
	// Enabled switches win detection from a single game to best-of sets
	Enabled      bool `json:"enabled"`
	BestOf       int  `json:"bestOf"`
	PointsPerSet int  `json:"pointsPerSet"`
}

type TournamentConfig struct {
	Name          string      `json:"name"`
	WinByTwo      bool        `json:"winByTwo"`
	TargetPoints  int         `json:"targetPoints"`
	Sets          SetsConfig  `json:"sets"`
	ServingMode   ServingMode `json:"servingMode"`
	KnockoutSlots int         `json:"knockoutSlots"`
}

func DefaultConfig() TournamentConfig {
	return TournamentConfig{
		Name:         DefaultTournamentName,
		WinByTwo:     true,
		TargetPoints: DefaultTargetPoints,
		Sets: SetsConfig{
			Enabled:      false,
			BestOf:       DefaultBestOf,
			PointsPerSet: DefaultPointsPerSet,
		},
		ServingMode:   ServeTwoInRow,
		KnockoutSlots: DefaultKnockoutSlots,
	}
}

// InitialServesLeft is how many serves a fresh turn starts with.
func (c TournamentConfig) InitialServesLeft() int {
	if c.ServingMode == ServeTwoInRow {
		return 2
	}
	return 1
}

// SetsToWin is the majority of BestOf.
func (c TournamentConfig) SetsToWin() int {
	return c.Sets.BestOf/2 + 1
}

type Tournament struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// Snapshot is the players+config+matches triple a tournament is saved and restored as.
type Snapshot struct {
	Players []Player         `json:"players"`
	Config  TournamentConfig `json:"config"`
	Matches []Match          `json:"matches"`
}

func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Players: append([]Player(nil), s.Players...),
		Config:  s.Config,
		Matches: make([]Match, len(s.Matches)),
	}
	for i, m := range s.Matches {
		out.Matches[i] = m.Clone()
	}
	return out
}
