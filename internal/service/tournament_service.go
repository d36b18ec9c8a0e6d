package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/AdamBeresnev/pingpong-brackets/internal/bracket"
	"github.com/AdamBeresnev/pingpong-brackets/internal/store"
	"github.com/AdamBeresnev/pingpong-brackets/internal/utils"
	"github.com/jmoiron/sqlx"
)

const maxNameLength = 50

// session is the live state of one tournament. mu keeps one mutation in flight at a time.
type session struct {
	mu    sync.Mutex
	state *TournamentState
}

type TournamentService struct {
	db    *sqlx.DB
	store *store.TournamentStore
	newID utils.IDFunc

	mu       sync.Mutex
	sessions map[string]*session
}

func NewTournamentService(db *sqlx.DB, store *store.TournamentStore, newID utils.IDFunc) *TournamentService {
	if newID == nil {
		newID = utils.NewID
	}
	return &TournamentService{
		db:       db,
		store:    store,
		newID:    newID,
		sessions: make(map[string]*session),
	}
}

type TournamentData struct {
	Tournament  *bracket.Tournament
	Snapshot    bracket.Snapshot
	Standings   []StandingRow
	Finished    int
	Total       int
	HasKnockout bool
	NextMatchID *string
}

// CanGenerateKnockout reports whether the classification is over and no bracket exists yet.
func (d *TournamentData) CanGenerateKnockout() bool {
	return !d.HasKnockout && d.Total > 0 && d.Finished == d.Total
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

func hasKnockout(matches []bracket.Match) bool {
	for i := range matches {
		if matches[i].Phase == bracket.PhaseFinals {
			return true
		}
	}
	return false
}

// nextMatch is the first unfinished match that has both players.
func nextMatch(matches []bracket.Match) *string {
	for i := range matches {
		m := &matches[i]
		if !m.IsFinished() && m.PlayerA != nil && m.PlayerB != nil {
			id := m.ID
			return &id
		}
	}
	return nil
}

func (s *TournamentService) session(ctx context.Context, id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}

	snapshot, err := s.store.LoadSnapshot(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament: %w", err)
	}

	sess := &session{state: NewTournamentState(ValidateSnapshot(snapshot))}
	sess.state.Subscribe(ObserverFunc(func(snapshot bracket.Snapshot) {
		slog.Debug("tournament changed", "tournament_id", id, "players", len(snapshot.Players), "matches", len(snapshot.Matches))
	}))
	s.sessions[id] = sess
	return sess, nil
}

func (s *TournamentService) save(ctx context.Context, id string, snapshot bracket.Snapshot) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.store.SaveSnapshot(ctx, tx, id, snapshot); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.forget(id)
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to save tournament: %w", err)
	}
	return tx.Commit()
}

// mutate runs fn on a working copy of the tournament, persists the result and only then
// commits it to the live state. A failing fn or save leaves the live state as it was.
func (s *TournamentService) mutate(ctx context.Context, id string, fn func(st *TournamentState) error) error {
	sess, err := s.session(ctx, id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	work := NewTournamentState(sess.state.Snapshot())
	if err := fn(work); err != nil {
		return err
	}

	snapshot := work.Snapshot()
	if err := s.save(ctx, id, snapshot); err != nil {
		return err
	}

	sess.state.Restore(snapshot)
	return nil
}

// read returns a consistent copy of the tournament.
func (s *TournamentService) read(ctx context.Context, id string) (bracket.Snapshot, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return bracket.Snapshot{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state.Snapshot(), nil
}

// Observe subscribes o to every committed change of the tournament.
func (s *TournamentService) Observe(ctx context.Context, id string, o Observer) error {
	sess, err := s.session(ctx, id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.state.Subscribe(o)
	return nil
}

func (s *TournamentService) CreateTournament(ctx context.Context, name string) (string, error) {
	cfg := bracket.DefaultConfig()
	if strings.TrimSpace(name) != "" {
		n, err := validName(name)
		if err != nil {
			return "", err
		}
		cfg.Name = n
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	id := s.newID()
	if err := s.store.CreateTournament(ctx, tx, id, cfg); err != nil {
		return "", fmt.Errorf("failed to create tournament: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	slog.Info("tournament created", "tournament_id", id, "name", cfg.Name)
	return id, nil
}

func (s *TournamentService) ListTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	return s.store.ListTournaments(ctx)
}

func (s *TournamentService) GetTournamentData(ctx context.Context, id string) (*TournamentData, error) {
	snapshot, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}

	tournament, err := s.store.GetTournament(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	finished, total := ClassificationProgress(snapshot.Matches)
	return &TournamentData{
		Tournament:  tournament,
		Snapshot:    snapshot,
		Standings:   ComputeStandings(snapshot.Players, snapshot.Matches, snapshot.Config.Sets.Enabled),
		Finished:    finished,
		Total:       total,
		HasKnockout: hasKnockout(snapshot.Matches),
		NextMatchID: nextMatch(snapshot.Matches),
	}, nil
}

// DeleteTournament waits for the mutation in flight, if any, before removing the tournament.
func (s *TournamentService) DeleteTournament(ctx context.Context, id string) error {
	s.mu.Lock()
	sess := s.sessions[id]
	s.mu.Unlock()

	if sess != nil {
		sess.mu.Lock()
		defer sess.mu.Unlock()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.store.DeleteTournament(ctx, tx, id); err != nil {
		return fmt.Errorf("failed to delete tournament: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.forget(id)
	slog.Info("tournament deleted", "tournament_id", id)
	return nil
}

func (s *TournamentService) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *TournamentService) AddPlayer(ctx context.Context, id, name string) (bracket.Player, error) {
	name, err := validName(name)
	if err != nil {
		return bracket.Player{}, err
	}

	player := bracket.Player{ID: s.newID(), Name: name}
	err = s.mutate(ctx, id, func(st *TournamentState) error {
		st.SetPlayers(append(st.Players(), player))
		return nil
	})
	if err != nil {
		return bracket.Player{}, err
	}
	return player, nil
}

// RenamePlayer changes the roster name and the name shown in every match the player is in.
func (s *TournamentService) RenamePlayer(ctx context.Context, id, playerID, name string) error {
	name, err := validName(name)
	if err != nil {
		return err
	}

	return s.mutate(ctx, id, func(st *TournamentState) error {
		players := st.Players()
		found := false
		for i := range players {
			if players[i].ID == playerID {
				players[i].Name = name
				found = true
			}
		}
		if !found {
			return ErrPlayerNotFound
		}

		matches := st.Matches()
		for i := range matches {
			for _, p := range []*bracket.Player{matches[i].PlayerA, matches[i].PlayerB} {
				if p != nil && p.ID == playerID {
					p.Name = name
				}
			}
		}

		st.SetPlayers(players)
		st.SetMatches(matches)
		return nil
	})
}

// RemovePlayer takes the player off the roster. Matches already generated keep them.
func (s *TournamentService) RemovePlayer(ctx context.Context, id, playerID string) error {
	return s.mutate(ctx, id, func(st *TournamentState) error {
		players := st.Players()
		kept := players[:0]
		for _, p := range players {
			if p.ID != playerID {
				kept = append(kept, p)
			}
		}
		if len(kept) == len(players) {
			return ErrPlayerNotFound
		}
		st.SetPlayers(kept)
		return nil
	})
}

func (s *TournamentService) UpdateConfig(ctx context.Context, id string, patch ConfigPatch) (bracket.TournamentConfig, error) {
	if patch.Name != nil {
		name, err := validName(*patch.Name)
		if err != nil {
			return bracket.TournamentConfig{}, err
		}
		patch.Name = &name
	}

	var cfg bracket.TournamentConfig
	err := s.mutate(ctx, id, func(st *TournamentState) error {
		merged := patch.apply(st.Config())
		if ValidateConfig(merged) != merged {
			return ErrInvalidConfig
		}
		st.SetConfig(patch)
		cfg = st.Config()
		return nil
	})
	return cfg, err
}

// GenerateSchedule replaces every match with a fresh round robin of the current roster.
func (s *TournamentService) GenerateSchedule(ctx context.Context, id string) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.mutate(ctx, id, func(st *TournamentState) error {
		players := st.Players()
		if len(players) < 2 {
			return ErrNotEnoughPlayers
		}
		matches = GenerateRoundRobin(players, st.Config(), s.newID)
		st.SetMatches(matches)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("schedule generated", "tournament_id", id, "matches", len(matches))
	return matches, nil
}

func (s *TournamentService) Standings(ctx context.Context, id string) ([]StandingRow, error) {
	snapshot, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}
	return ComputeStandings(snapshot.Players, snapshot.Matches, snapshot.Config.Sets.Enabled), nil
}

// GenerateKnockout seeds the bracket from the final standings and appends it to the matches.
func (s *TournamentService) GenerateKnockout(ctx context.Context, id string) ([]bracket.Match, error) {
	var built []bracket.Match
	err := s.mutate(ctx, id, func(st *TournamentState) error {
		matches := st.Matches()
		if hasKnockout(matches) {
			return ErrKnockoutExists
		}
		if !ClassificationComplete(matches) {
			return ErrClassificationIncomplete
		}

		cfg := st.Config()
		rows := ComputeStandings(st.Players(), matches, cfg.Sets.Enabled)
		built = BuildKnockoutFromStandings(rows, st.Players(), cfg, s.newID)
		if len(built) == 0 {
			return ErrNotEnoughPlayers
		}

		st.SetMatches(append(matches, built...))
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("knockout generated", "tournament_id", id, "matches", len(built))
	return built, nil
}

// Reset clears players and matches and restores the default config. The tournament keeps its name.
func (s *TournamentService) Reset(ctx context.Context, id string) error {
	err := s.mutate(ctx, id, func(st *TournamentState) error {
		name := st.Config().Name
		st.Reset()
		st.SetConfig(ConfigPatch{Name: &name})
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("tournament reset", "tournament_id", id)
	return nil
}
