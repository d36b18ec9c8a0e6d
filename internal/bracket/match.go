package bracket

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchLive      MatchStatus = "live"
	MatchFinished  MatchStatus = "finished"
)

type Phase string

const (
	PhaseClassification Phase = "classification"
	PhaseFinals         Phase = "finals"
	PhaseTraining       Phase = "training"
)

// Side names one of the two player positions of a match.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// KnockoutRound is the round number every knockout match carries, to keep them apart from classification rounds.
const KnockoutRound = 999

// AdvanceLink points at the match and slot a player moves to once the source match finishes.
type AdvanceLink struct {
	MatchID string `json:"matchId"`
	Slot    Side   `json:"slot"`
}

type MatchMeta struct {
	WinnerTo *AdvanceLink `json:"winnerTo,omitempty"`
	LoserTo  *AdvanceLink `json:"loserTo,omitempty"`
}

// ScoreSnapshot is the state right after one point: the game or current set counters and the next server.
type ScoreSnapshot struct {
	A                int  `msgpack:"a" json:"a"`
	B                int  `msgpack:"b" json:"b"`
	WhoServes        Side `msgpack:"who_serves" json:"whoServes"`
	ServesLeftInTurn int  `msgpack:"serves_left" json:"servesLeftInTurn"`
}

type SetScore struct {
	A int `msgpack:"a" json:"a"`
	B int `msgpack:"b" json:"b"`
}

type MatchScore struct {
	// Single game
	PointsA int `msgpack:"points_a" json:"pointsA"`
	PointsB int `msgpack:"points_b" json:"pointsB"`

	// Sets
	SetsWonA          int        `msgpack:"sets_won_a" json:"setsWonA"`
	SetsWonB          int        `msgpack:"sets_won_b" json:"setsWonB"`
	CurrentSetPointsA int        `msgpack:"current_set_a" json:"currentSetPointsA"`
	CurrentSetPointsB int        `msgpack:"current_set_b" json:"currentSetPointsB"`
	CompletedSets     []SetScore `msgpack:"completed_sets" json:"completedSets,omitempty"`

	WhoServes        Side `msgpack:"who_serves" json:"whoServes"`
	ServesLeftInTurn int  `msgpack:"serves_left" json:"servesLeftInTurn"`

	// Server state when the current set (or the game) started, restored when undo empties History
	StartServer     Side `msgpack:"start_server" json:"startServer"`
	StartServesLeft int  `msgpack:"start_serves_left" json:"startServesLeft"`

	History []ScoreSnapshot `msgpack:"history" json:"history"`
}

func (s MatchScore) Clone() MatchScore {
	out := s
	if s.History != nil {
		out.History = make([]ScoreSnapshot, len(s.History))
		copy(out.History, s.History)
	}
	if s.CompletedSets != nil {
		out.CompletedSets = make([]SetScore, len(s.CompletedSets))
		copy(out.CompletedSets, s.CompletedSets)
	}
	return out
}

type Match struct {
	ID         string      `json:"id"`
	Phase      Phase       `json:"phase"`
	Round      int         `json:"round"`
	TableLabel *string     `json:"tableLabel,omitempty"`
	PlayerA    *Player     `json:"playerA,omitempty"`
	PlayerB    *Player     `json:"playerB,omitempty"`
	Score      MatchScore  `json:"score"`
	WinnerID   *string     `json:"winnerId,omitempty"`
	Status     MatchStatus `json:"status"`
	Meta       *MatchMeta  `json:"meta,omitempty"`
}

func (m Match) Player(side Side) *Player {
	if side == SideA {
		return m.PlayerA
	}
	return m.PlayerB
}

func (m *Match) SetPlayer(side Side, p *Player) {
	if side == SideA {
		m.PlayerA = p
	} else {
		m.PlayerB = p
	}
}

// SideOf reports which slot holds the player.
func (m Match) SideOf(playerID string) (Side, bool) {
	if m.PlayerA != nil && m.PlayerA.ID == playerID {
		return SideA, true
	}
	if m.PlayerB != nil && m.PlayerB.ID == playerID {
		return SideB, true
	}
	return "", false
}

func (m Match) IsFinished() bool {
	return m.Status == MatchFinished
}

func (m Match) IsWinner(playerID string) bool {
	return m.IsFinished() && m.WinnerID != nil && *m.WinnerID == playerID
}

func (m Match) Label() string {
	if m.TableLabel == nil {
		return ""
	}
	return *m.TableLabel
}

// Clone returns a copy that shares no pointers or slices with m.
func (m Match) Clone() Match {
	out := m
	out.Score = m.Score.Clone()
	if m.TableLabel != nil {
		label := *m.TableLabel
		out.TableLabel = &label
	}
	if m.PlayerA != nil {
		p := *m.PlayerA
		out.PlayerA = &p
	}
	if m.PlayerB != nil {
		p := *m.PlayerB
		out.PlayerB = &p
	}
	if m.WinnerID != nil {
		id := *m.WinnerID
		out.WinnerID = &id
	}
	if m.Meta != nil {
		meta := MatchMeta{}
		if m.Meta.WinnerTo != nil {
			link := *m.Meta.WinnerTo
			meta.WinnerTo = &link
		}
		if m.Meta.LoserTo != nil {
			link := *m.Meta.LoserTo
			meta.LoserTo = &link
		}
		out.Meta = &meta
	}
	return out
}
