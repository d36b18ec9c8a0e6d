package middleware

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
)

type ContextKey string

const TournamentIDKey ContextKey = "tournamentID"

// Session key holding the tournament the visitor last opened.
const currentTournamentSessionKey = "tournamentID"

// LoadCurrentTournament copies the remembered tournament id from the session into the request context.
func LoadCurrentTournament(sessionManager *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := sessionManager.GetString(r.Context(), currentTournamentSessionKey)
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), TournamentIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ForgetTournament drops the remembered tournament if it is the given one.
func ForgetTournament(ctx context.Context, sessionManager *scs.SessionManager, id string) {
	if sessionManager.GetString(ctx, currentTournamentSessionKey) == id {
		sessionManager.Remove(ctx, currentTournamentSessionKey)
	}
}

// RememberTournamentID stores id as the current tournament.
func RememberTournamentID(ctx context.Context, sessionManager *scs.SessionManager, id string) {
	sessionManager.Put(ctx, currentTournamentSessionKey, id)
}

func GetCurrentTournamentID(ctx context.Context) (string, bool) {
	val := ctx.Value(TournamentIDKey)
	if val == nil {
		return "", false
	}

	id, ok := val.(string)
	return id, ok
}
