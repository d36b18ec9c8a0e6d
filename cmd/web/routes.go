package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AdamBeresnev/pingpong-brackets/internal/bracket"
	"github.com/AdamBeresnev/pingpong-brackets/internal/httputil"
	"github.com/AdamBeresnev/pingpong-brackets/internal/middleware"
	"github.com/AdamBeresnev/pingpong-brackets/internal/service"
	"github.com/AdamBeresnev/pingpong-brackets/views"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type application struct {
	sessions    *scs.SessionManager
	tournaments *service.TournamentService
	matches     *service.MatchService
}

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(app.sessions.LoadAndSave)
	r.Use(middleware.LoadCurrentTournament(app.sessions))

	// Serve static files
	fileServer := http.FileServer(http.Dir("./static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	r.Get("/", app.index)
	r.Post("/tournaments", app.createTournament)

	r.Route("/tournaments/{id}", func(r chi.Router) {
		r.Get("/", app.showTournament)
		r.Post("/delete", app.deleteTournament)
		r.Get("/export", app.exportTournament)
		r.Get("/standings", app.standings)

		r.Post("/players", app.addPlayer)
		r.Post("/players/{playerID}/rename", app.renamePlayer)
		r.Post("/players/{playerID}/delete", app.removePlayer)

		r.Post("/config", app.updateConfig)
		r.Post("/schedule", app.generateSchedule)
		r.Post("/knockout", app.generateKnockout)
		r.Post("/reset", app.reset)

		r.Get("/matches/{matchID}", app.showMatch)
		r.Post("/matches/{matchID}/point", app.scorePoint)
		r.Post("/matches/{matchID}/undo", app.undoPoint)
		r.Post("/matches/{matchID}/finish", app.finishMatch)
	})

	return r
}

// serviceError maps service failures onto responses.
func serviceError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, service.ErrTournamentNotFound),
		errors.Is(err, service.ErrMatchNotFound),
		errors.Is(err, service.ErrPlayerNotFound):
		httputil.NotFound(w, err.Error(), err)
	case errors.Is(err, service.ErrKnockoutExists):
		httputil.Conflict(w, err.Error(), err)
	case errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidConfig),
		errors.Is(err, service.ErrInvalidSide),
		errors.Is(err, service.ErrMatchNotReady),
		errors.Is(err, service.ErrWinnerNotInMatch),
		errors.Is(err, service.ErrClassificationIncomplete),
		errors.Is(err, service.ErrNotEnoughPlayers):
		httputil.BadRequest(w, err.Error(), err)
	default:
		httputil.InternalServerError(w, msg, err)
	}
}

// redirect sends htmx requests an HX-Redirect and everything else a regular 303.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func tournamentURL(id string) string {
	return "/tournaments/" + id
}

func matchURL(id, matchID string) string {
	return tournamentURL(id) + "/matches/" + matchID
}

func (app *application) index(w http.ResponseWriter, r *http.Request) {
	tournaments, err := app.tournaments.ListTournaments(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to get tournaments", err)
		return
	}
	current, _ := middleware.GetCurrentTournamentID(r.Context())
	views.Render(w, r, views.Index(tournaments, current))
}

func (app *application) createTournament(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	id, err := app.tournaments.CreateTournament(r.Context(), r.Form.Get("name"))
	if err != nil {
		serviceError(w, "Failed to create tournament", err)
		return
	}
	middleware.RememberTournamentID(r.Context(), app.sessions, id)
	redirect(w, r, tournamentURL(id))
}

func (app *application) showTournament(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	data, err := app.tournaments.GetTournamentData(r.Context(), id)
	if err != nil {
		serviceError(w, "Failed to get tournament", err)
		return
	}
	middleware.RememberTournamentID(r.Context(), app.sessions, id)
	views.Render(w, r, views.TournamentView(data))
}

func (app *application) deleteTournament(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := app.tournaments.DeleteTournament(r.Context(), id); err != nil {
		serviceError(w, "Failed to delete tournament", err)
		return
	}
	middleware.ForgetTournament(r.Context(), app.sessions, id)
	redirect(w, r, "/")
}

// exportTournament writes the players, config and matches as JSON.
func (app *application) exportTournament(w http.ResponseWriter, r *http.Request) {
	data, err := app.tournaments.GetTournamentData(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, "Failed to get tournament", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data.Snapshot); err != nil {
		httputil.InternalServerError(w, "Failed to encode tournament", err)
	}
}

func (app *application) standings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	data, err := app.tournaments.GetTournamentData(r.Context(), id)
	if err != nil {
		serviceError(w, "Failed to get standings", err)
		return
	}
	views.Render(w, r, views.StandingsTable(data.Standings, data.Snapshot.Config.Sets.Enabled))
}

func (app *application) addPlayer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	if _, err := app.tournaments.AddPlayer(r.Context(), id, r.Form.Get("name")); err != nil {
		serviceError(w, "Failed to add player", err)
		return
	}
	redirect(w, r, tournamentURL(id))
}

func (app *application) renamePlayer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	if err := app.tournaments.RenamePlayer(r.Context(), id, chi.URLParam(r, "playerID"), r.Form.Get("name")); err != nil {
		serviceError(w, "Failed to rename player", err)
		return
	}
	redirect(w, r, tournamentURL(id))
}

func (app *application) removePlayer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := app.tournaments.RemovePlayer(r.Context(), id, chi.URLParam(r, "playerID")); err != nil {
		serviceError(w, "Failed to remove player", err)
		return
	}
	redirect(w, r, tournamentURL(id))
}

func (app *application) updateConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	patch, err := parseConfigForm(r.Form)
	if err != nil {
		httputil.BadRequest(w, err.Error(), err)
		return
	}
	if _, err := app.tournaments.UpdateConfig(r.Context(), id, patch); err != nil {
		serviceError(w, "Failed to update config", err)
		return
	}
	redirect(w, r, tournamentURL(id))
}

func (app *application) generateSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := app.tournaments.GenerateSchedule(r.Context(), id); err != nil {
		serviceError(w, "Failed to generate schedule", err)
		return
	}
	redirect(w, r, tournamentURL(id))
}

func (app *application) generateKnockout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := app.tournaments.GenerateKnockout(r.Context(), id); err != nil {
		serviceError(w, "Failed to generate knockout", err)
		return
	}
	redirect(w, r, tournamentURL(id))
}

func (app *application) reset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := app.tournaments.Reset(r.Context(), id); err != nil {
		serviceError(w, "Failed to reset tournament", err)
		return
	}
	redirect(w, r, tournamentURL(id))
}

func (app *application) showMatch(w http.ResponseWriter, r *http.Request) {
	data, err := app.matches.GetMatchViewData(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "matchID"))
	if err != nil {
		serviceError(w, "Failed to get match data", err)
		return
	}
	views.Render(w, r, views.MatchView(data))
}

func (app *application) scorePoint(w http.ResponseWriter, r *http.Request) {
	id, matchID := chi.URLParam(r, "id"), chi.URLParam(r, "matchID")
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	if _, err := app.matches.ScorePoint(r.Context(), id, matchID, bracket.Side(r.Form.Get("side"))); err != nil {
		serviceError(w, "Failed to score point", err)
		return
	}
	redirect(w, r, matchURL(id, matchID))
}

func (app *application) undoPoint(w http.ResponseWriter, r *http.Request) {
	id, matchID := chi.URLParam(r, "id"), chi.URLParam(r, "matchID")

	if err := app.matches.UndoPoint(r.Context(), id, matchID); err != nil {
		serviceError(w, "Failed to undo point", err)
		return
	}
	redirect(w, r, matchURL(id, matchID))
}

func (app *application) finishMatch(w http.ResponseWriter, r *http.Request) {
	id, matchID := chi.URLParam(r, "id"), chi.URLParam(r, "matchID")
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	if err := app.matches.FinishMatch(r.Context(), id, matchID, r.Form.Get("winner_id")); err != nil {
		serviceError(w, "Failed to finish match", err)
		return
	}
	redirect(w, r, matchURL(id, matchID))
}
