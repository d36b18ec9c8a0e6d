package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AdamBeresnev/pingpong-brackets/internal/bracket"
	"github.com/AdamBeresnev/pingpong-brackets/internal/utils"
	"github.com/jmoiron/sqlx"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	createTournamentQuery = `
		INSERT INTO tournaments (id, name, serving_mode, win_by_two, target_points, sets_enabled, sets_best_of, sets_points_per_set, knockout_slots)
		VALUES (:id, :name, :serving_mode, :win_by_two, :target_points, :sets_enabled, :sets_best_of, :sets_points_per_set, :knockout_slots)
	`
	updateTournamentQuery = `
		UPDATE tournaments SET
		name = :name,
		serving_mode = :serving_mode,
		win_by_two = :win_by_two,
		target_points = :target_points,
		sets_enabled = :sets_enabled,
		sets_best_of = :sets_best_of,
		sets_points_per_set = :sets_points_per_set,
		knockout_slots = :knockout_slots
		WHERE id = :id
	`
	createPlayersQuery = `
		INSERT INTO players (id, tournament_id, name, position)
		VALUES (:id, :tournament_id, :name, :position)
	`
	createMatchesQuery = `
		INSERT INTO matches (id, tournament_id, position, phase, round, table_label, player_a_id, player_a_name, player_b_id, player_b_name,
			winner_id, status, score, winner_to_match_id, winner_to_slot, loser_to_match_id, loser_to_slot)
		VALUES (:id, :tournament_id, :position, :phase, :round, :table_label, :player_a_id, :player_a_name, :player_b_id, :player_b_name,
			:winner_id, :status, :score, :winner_to_match_id, :winner_to_slot, :loser_to_match_id, :loser_to_slot)
	`
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

type tournamentRow struct {
	ID               string    `db:"id"`
	Name             string    `db:"name"`
	ServingMode      string    `db:"serving_mode"`
	WinByTwo         bool      `db:"win_by_two"`
	TargetPoints     int       `db:"target_points"`
	SetsEnabled      bool      `db:"sets_enabled"`
	SetsBestOf       int       `db:"sets_best_of"`
	SetsPointsPerSet int       `db:"sets_points_per_set"`
	KnockoutSlots    int       `db:"knockout_slots"`
	CreatedAt        time.Time `db:"created_at"`
}

func newTournamentRow(id string, cfg bracket.TournamentConfig) tournamentRow {
	return tournamentRow{
		ID:               id,
		Name:             cfg.Name,
		ServingMode:      string(cfg.ServingMode),
		WinByTwo:         cfg.WinByTwo,
		TargetPoints:     cfg.TargetPoints,
		SetsEnabled:      cfg.Sets.Enabled,
		SetsBestOf:       cfg.Sets.BestOf,
		SetsPointsPerSet: cfg.Sets.PointsPerSet,
		KnockoutSlots:    cfg.KnockoutSlots,
	}
}

func (r tournamentRow) config() bracket.TournamentConfig {
	return bracket.TournamentConfig{
		Name:         r.Name,
		WinByTwo:     r.WinByTwo,
		TargetPoints: r.TargetPoints,
		Sets: bracket.SetsConfig{
			Enabled:      r.SetsEnabled,
			BestOf:       r.SetsBestOf,
			PointsPerSet: r.SetsPointsPerSet,
		},
		ServingMode:   bracket.ServingMode(r.ServingMode),
		KnockoutSlots: r.KnockoutSlots,
	}
}

type playerRow struct {
	ID           string `db:"id"`
	TournamentID string `db:"tournament_id"`
	Name         string `db:"name"`
	Position     int    `db:"position"`
}

type matchRow struct {
	ID              string  `db:"id"`
	TournamentID    string  `db:"tournament_id"`
	Position        int     `db:"position"`
	Phase           string  `db:"phase"`
	Round           int     `db:"round"`
	TableLabel      *string `db:"table_label"`
	PlayerAID       *string `db:"player_a_id"`
	PlayerAName     *string `db:"player_a_name"`
	PlayerBID       *string `db:"player_b_id"`
	PlayerBName     *string `db:"player_b_name"`
	WinnerID        *string `db:"winner_id"`
	Status          string  `db:"status"`
	Score           []byte  `db:"score"`
	WinnerToMatchID *string `db:"winner_to_match_id"`
	WinnerToSlot    *string `db:"winner_to_slot"`
	LoserToMatchID  *string `db:"loser_to_match_id"`
	LoserToSlot     *string `db:"loser_to_slot"`
}

func splitPlayer(p *bracket.Player) (*string, *string) {
	if p == nil {
		return nil, nil
	}
	id, name := p.ID, p.Name
	return &id, &name
}

func joinPlayer(id, name *string) *bracket.Player {
	if id == nil {
		return nil
	}
	return &bracket.Player{ID: *id, Name: utils.OrZero(name)}
}

func splitLink(l *bracket.AdvanceLink) (*string, *string) {
	if l == nil {
		return nil, nil
	}
	id, slot := l.MatchID, string(l.Slot)
	return &id, &slot
}

func joinLink(id, slot *string) *bracket.AdvanceLink {
	if id == nil || slot == nil {
		return nil
	}
	return &bracket.AdvanceLink{MatchID: *id, Slot: bracket.Side(*slot)}
}

func newMatchRow(tournamentID string, position int, m bracket.Match) (matchRow, error) {
	blob, err := msgpack.Marshal(m.Score)
	if err != nil {
		return matchRow{}, fmt.Errorf("failed to encode score of match %s: %w", m.ID, err)
	}

	row := matchRow{
		ID:           m.ID,
		TournamentID: tournamentID,
		Position:     position,
		Phase:        string(m.Phase),
		Round:        m.Round,
		TableLabel:   m.TableLabel,
		WinnerID:     m.WinnerID,
		Status:       string(m.Status),
		Score:        blob,
	}
	row.PlayerAID, row.PlayerAName = splitPlayer(m.PlayerA)
	row.PlayerBID, row.PlayerBName = splitPlayer(m.PlayerB)
	if m.Meta != nil {
		row.WinnerToMatchID, row.WinnerToSlot = splitLink(m.Meta.WinnerTo)
		row.LoserToMatchID, row.LoserToSlot = splitLink(m.Meta.LoserTo)
	}
	return row, nil
}

func (r matchRow) match() (bracket.Match, error) {
	var sc bracket.MatchScore
	if err := msgpack.Unmarshal(r.Score, &sc); err != nil {
		return bracket.Match{}, fmt.Errorf("failed to decode score of match %s: %w", r.ID, err)
	}

	m := bracket.Match{
		ID:         r.ID,
		Phase:      bracket.Phase(r.Phase),
		Round:      r.Round,
		TableLabel: r.TableLabel,
		PlayerA:    joinPlayer(r.PlayerAID, r.PlayerAName),
		PlayerB:    joinPlayer(r.PlayerBID, r.PlayerBName),
		Score:      sc,
		WinnerID:   r.WinnerID,
		Status:     bracket.MatchStatus(r.Status),
	}

	winnerTo := joinLink(r.WinnerToMatchID, r.WinnerToSlot)
	loserTo := joinLink(r.LoserToMatchID, r.LoserToSlot)
	if winnerTo != nil || loserTo != nil {
		m.Meta = &bracket.MatchMeta{WinnerTo: winnerTo, LoserTo: loserTo}
	}
	return m, nil
}

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, id string, cfg bracket.TournamentConfig) error {
	_, err := tx.NamedExecContext(ctx, createTournamentQuery, newTournamentRow(id, cfg))
	return err
}

// SaveSnapshot replaces everything stored for the tournament with the snapshot.
func (s *TournamentStore) SaveSnapshot(ctx context.Context, tx *sqlx.Tx, id string, snapshot bracket.Snapshot) error {
	res, err := tx.NamedExecContext(ctx, updateTournamentQuery, newTournamentRow(id, snapshot.Config))
	if err != nil {
		return fmt.Errorf("failed to update tournament: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update tournament: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM players WHERE tournament_id = ?", id); err != nil {
		return fmt.Errorf("failed to clear players: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM matches WHERE tournament_id = ?", id); err != nil {
		return fmt.Errorf("failed to clear matches: %w", err)
	}

	if len(snapshot.Players) > 0 {
		players := make([]playerRow, len(snapshot.Players))
		for i, p := range snapshot.Players {
			players[i] = playerRow{ID: p.ID, TournamentID: id, Name: p.Name, Position: i}
		}
		if _, err := tx.NamedExecContext(ctx, createPlayersQuery, players); err != nil {
			return fmt.Errorf("failed to insert players: %w", err)
		}
	}

	if len(snapshot.Matches) > 0 {
		matches := make([]matchRow, len(snapshot.Matches))
		for i, m := range snapshot.Matches {
			row, err := newMatchRow(id, i, m)
			if err != nil {
				return err
			}
			matches[i] = row
		}
		if _, err := tx.NamedExecContext(ctx, createMatchesQuery, matches); err != nil {
			return fmt.Errorf("failed to insert matches: %w", err)
		}
	}

	return nil
}

func (s *TournamentStore) GetTournament(ctx context.Context, id string) (*bracket.Tournament, error) {
	var row tournamentRow
	if err := s.db.GetContext(ctx, &row, "SELECT * FROM tournaments WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &bracket.Tournament{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt}, nil
}

func (s *TournamentStore) ListTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := s.db.SelectContext(ctx, &tournaments, "SELECT id, name, created_at FROM tournaments ORDER BY created_at DESC, id ASC")
	return tournaments, err
}

// LoadSnapshot reads a tournament back in the order it was saved. It returns sql.ErrNoRows for an unknown id.
func (s *TournamentStore) LoadSnapshot(ctx context.Context, id string) (bracket.Snapshot, error) {
	var row tournamentRow
	if err := s.db.GetContext(ctx, &row, "SELECT * FROM tournaments WHERE id = ?", id); err != nil {
		return bracket.Snapshot{}, err
	}

	var players []bracket.Player
	err := s.db.SelectContext(ctx, &players, "SELECT id, name FROM players WHERE tournament_id = ? ORDER BY position ASC", id)
	if err != nil {
		return bracket.Snapshot{}, fmt.Errorf("failed to get players: %w", err)
	}

	var rows []matchRow
	err = s.db.SelectContext(ctx, &rows, "SELECT * FROM matches WHERE tournament_id = ? ORDER BY position ASC", id)
	if err != nil {
		return bracket.Snapshot{}, fmt.Errorf("failed to get matches: %w", err)
	}

	matches := make([]bracket.Match, 0, len(rows))
	for _, r := range rows {
		m, err := r.match()
		if err != nil {
			return bracket.Snapshot{}, err
		}
		matches = append(matches, m)
	}

	if players == nil {
		players = []bracket.Player{}
	}
	return bracket.Snapshot{Players: players, Config: row.config(), Matches: matches}, nil
}

func (s *TournamentStore) DeleteTournament(ctx context.Context, tx *sqlx.Tx, id string) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM tournaments WHERE id = ?", id)
	return err
}
