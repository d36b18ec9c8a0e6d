package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCurrentTournamentIDEmpty(t *testing.T) {
	id, ok := GetCurrentTournamentID(context.Background())
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestCurrentTournamentRoundTrip(t *testing.T) {
	sessionManager := scs.New()

	mux := http.NewServeMux()
	mux.HandleFunc("/remember", func(w http.ResponseWriter, r *http.Request) {
		RememberTournamentID(r.Context(), sessionManager, r.URL.Query().Get("id"))
	})
	mux.HandleFunc("/forget", func(w http.ResponseWriter, r *http.Request) {
		ForgetTournament(r.Context(), sessionManager, r.URL.Query().Get("id"))
	})
	mux.HandleFunc("/current", func(w http.ResponseWriter, r *http.Request) {
		id, _ := GetCurrentTournamentID(r.Context())
		w.Write([]byte(id))
	})
	handler := sessionManager.LoadAndSave(LoadCurrentTournament(sessionManager)(mux))

	var cookies []*http.Cookie
	call := func(target string) string {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		if c := rec.Result().Cookies(); len(c) > 0 {
			cookies = c
		}
		return rec.Body.String()
	}

	assert.Empty(t, call("/current"))

	call("/remember?id=t-1")
	assert.Equal(t, "t-1", call("/current"))

	// Forgetting another tournament keeps the current one
	call("/forget?id=t-2")
	assert.Equal(t, "t-1", call("/current"))

	call("/forget?id=t-1")
	assert.Empty(t, call("/current"))
}
