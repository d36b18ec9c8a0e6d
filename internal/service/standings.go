package service

import (
	"sort"
	"strings"

	"github.com/AdamBeresnev/pingpong-brackets/internal/bracket"
)

type StandingRow struct {
	PlayerID      string `json:"playerId"`
	Name          string `json:"name"`
	Matches       int    `json:"matches"`
	Wins          int    `json:"wins"`
	SetsFor       int    `json:"setsFor"`
	SetsAgainst   int    `json:"setsAgainst"`
	SetDiff       int    `json:"setDiff"`
	PointsFor     int    `json:"pointsFor"`
	PointsAgainst int    `json:"pointsAgainst"`
	PointDiff     int    `json:"pointDiff"`
}

func countsForStandings(m *bracket.Match) bool {
	return m.Phase == bracket.PhaseClassification && m.Status == bracket.MatchFinished &&
		m.PlayerA != nil && m.PlayerB != nil
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// ComputeStandings ranks the roster on finished classification matches.
// Order: wins, then the mode's own differential (sets with useSets, points otherwise),
// then the other differential, then head-to-head, then name.
// Head-to-head that goes round in a circle leaves those rows in name order.
func ComputeStandings(players []bracket.Player, matches []bracket.Match, useSets bool) []StandingRow {
	rows := make([]StandingRow, len(players))
	index := make(map[string]*StandingRow, len(players))
	for i, p := range players {
		rows[i] = StandingRow{PlayerID: p.ID, Name: p.Name}
		index[p.ID] = &rows[i]
	}

	headToHead := make(map[[2]string]string)

	for i := range matches {
		m := &matches[i]
		if !countsForStandings(m) {
			continue
		}
		a, okA := index[m.PlayerA.ID]
		b, okB := index[m.PlayerB.ID]
		if !okA || !okB {
			continue
		}

		a.Matches++
		b.Matches++

		if useSets {
			a.SetsFor += m.Score.SetsWonA
			a.SetsAgainst += m.Score.SetsWonB
			b.SetsFor += m.Score.SetsWonB
			b.SetsAgainst += m.Score.SetsWonA
			for _, set := range m.Score.CompletedSets {
				a.PointsFor += set.A
				a.PointsAgainst += set.B
				b.PointsFor += set.B
				b.PointsAgainst += set.A
			}
		} else {
			a.PointsFor += m.Score.PointsA
			a.PointsAgainst += m.Score.PointsB
			b.PointsFor += m.Score.PointsB
			b.PointsAgainst += m.Score.PointsA
		}

		if m.WinnerID == nil {
			continue
		}
		switch *m.WinnerID {
		case a.PlayerID:
			a.Wins++
		case b.PlayerID:
			b.Wins++
		default:
			continue
		}

		key := pairKey(a.PlayerID, b.PlayerID)
		if _, seen := headToHead[key]; !seen {
			headToHead[key] = *m.WinnerID
		}
	}

	for i := range rows {
		rows[i].SetDiff = rows[i].SetsFor - rows[i].SetsAgainst
		rows[i].PointDiff = rows[i].PointsFor - rows[i].PointsAgainst
	}

	primary := func(r StandingRow) int { return r.PointDiff }
	secondary := func(r StandingRow) int { return r.SetDiff }
	if useSets {
		primary, secondary = secondary, primary
	}

	tied := func(x, y StandingRow) bool {
		return x.Wins == y.Wins && primary(x) == primary(y) && secondary(x) == secondary(y)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rows[i], rows[j]
		if ri.Wins != rj.Wins {
			return ri.Wins > rj.Wins
		}
		if d1, d2 := primary(ri), primary(rj); d1 != d2 {
			return d1 > d2
		}
		if d1, d2 := secondary(ri), secondary(rj); d1 != d2 {
			return d1 > d2
		}
		return byName(ri, rj)
	})

	for start := 0; start < len(rows); {
		end := start + 1
		for end < len(rows) && tied(rows[start], rows[end]) {
			end++
		}
		if end-start > 1 {
			orderByHeadToHead(rows[start:end], headToHead)
		}
		start = end
	}

	return rows
}

func byName(a, b StandingRow) bool {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c < 0
	}
	return a.PlayerID < b.PlayerID
}

// orderByHeadToHead ranks a group of otherwise level rows by wins over each other.
// Two rows still level are split by their own result. Larger level groups, such as a
// three-way cycle, stay in name order.
func orderByHeadToHead(group []StandingRow, headToHead map[[2]string]string) {
	wins := make(map[string]int, len(group))
	for i := range group {
		for j := range group {
			if i == j {
				continue
			}
			if w, ok := headToHead[pairKey(group[i].PlayerID, group[j].PlayerID)]; ok && w == group[i].PlayerID {
				wins[group[i].PlayerID]++
			}
		}
	}

	// group is in name order already
	sort.SliceStable(group, func(i, j int) bool {
		return wins[group[i].PlayerID] > wins[group[j].PlayerID]
	})

	for start := 0; start < len(group); {
		end := start + 1
		for end < len(group) && wins[group[end].PlayerID] == wins[group[start].PlayerID] {
			end++
		}
		if end-start == 2 {
			a, b := group[start], group[start+1]
			if w, ok := headToHead[pairKey(a.PlayerID, b.PlayerID)]; ok && w == b.PlayerID {
				group[start], group[start+1] = b, a
			}
		}
		start = end
	}
}

// ClassificationProgress counts finished classification matches against all of them.
func ClassificationProgress(matches []bracket.Match) (finished, total int) {
	for i := range matches {
		if matches[i].Phase != bracket.PhaseClassification {
			continue
		}
		total++
		if matches[i].Status == bracket.MatchFinished {
			finished++
		}
	}
	return finished, total
}

// ClassificationComplete reports whether a knockout can be seeded from the standings.
func ClassificationComplete(matches []bracket.Match) bool {
	finished, total := ClassificationProgress(matches)
	return total > 0 && finished == total
}
