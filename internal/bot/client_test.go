package bot

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

// fakeServer records submitted intents and serves a canned view.
type fakeServer struct {
	mu      sync.Mutex
	posts   map[string]map[string]any
	upgrade websocket.Upgrader
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	f := &fakeServer{posts: make(map[string]map[string]any)}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/dev", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-" + name,
			"identity":     map[string]string{"id": "u-" + name, "name": name},
		})
	})
	mux.HandleFunc("POST /api/v1/games", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"game": map[string]any{"id": "g-1"}, "status": "lobby"})
	})
	mux.HandleFunc("GET /api/v1/games/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"game":           map[string]any{"id": r.PathValue("id")},
			"status":         "teamVoting",
			"actors_to_move": []string{"u-Ann"},
		})
	})
	mux.HandleFunc("POST /api/v1/games/{id}/vote", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-Ann" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.posts[r.URL.Path] = body
		f.mu.Unlock()
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("POST /api/v1/games/{id}/start", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"not authorized"}`))
	})
	mux.HandleFunc("GET /api/v1/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := f.upgrade.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var sub map[string]string
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		batch := `{"type":"game_snapshot","game_id":"` + sub["game_id"] + `"}` + "\n" +
			`not json` + "\n" +
			`{"type":"game_updated","game_id":"` + sub["game_id"] + `"}`
		conn.WriteMessage(websocket.TextMessage, []byte(batch))
		conn.ReadMessage()
	})
	return f, httptest.NewServer(mux)
}

func TestIntentPathsCoverEveryIntent(t *testing.T) {
	kinds := []dexter.IntentKind{
		dexter.IntentPropose, dexter.IntentVote, dexter.IntentMissionCard,
		dexter.IntentDraw, dexter.IntentSkipDraw, dexter.IntentPlay, dexter.IntentSkipPlay,
		dexter.IntentShiftingPriorities, dexter.IntentScopeCreep, dexter.IntentServiceReassignment,
		dexter.IntentCeoTake, dexter.IntentCeoDrawTwo, dexter.IntentCeoPick,
		dexter.IntentReveal, dexter.IntentAssassinate, dexter.IntentNextRound,
	}
	seen := map[string]bool{}
	for _, k := range kinds {
		p, err := IntentPath("g1", k)
		require.NoError(t, err, k)
		assert.True(t, strings.HasPrefix(p, "/api/v1/games/g1/"), p)
		assert.False(t, seen[p], "duplicate path %s", p)
		seen[p] = true
	}

	_, err := IntentPath("g1", dexter.IntentKind("bogus"))
	assert.Error(t, err)
}

func TestClientLoginAndSubmit(t *testing.T) {
	f, srv := newFakeServer(t)
	defer srv.Close()

	c := NewClient("Ann", srv.URL+"/")
	require.NoError(t, c.Login())
	assert.Equal(t, "u-Ann", c.UserID())

	id, err := c.CreateGame("Table", 5, dexter.DefaultRoleToggles())
	require.NoError(t, err)
	assert.Equal(t, "g-1", id)

	view, err := c.GetGame(id)
	require.NoError(t, err)
	assert.Equal(t, dexter.StatusTeamVoting, view.Status)
	assert.Equal(t, []string{"u-Ann"}, view.ActorsToMove)

	require.NoError(t, c.Submit(id, dexter.Intent{Kind: dexter.IntentVote, Player: "u-Ann", Vote: dexter.VoteAgree}))
	f.mu.Lock()
	body := f.posts["/api/v1/games/g-1/vote"]
	f.mu.Unlock()
	require.NotNil(t, body)
	assert.Equal(t, string(dexter.VoteAgree), body["vote"])
}

func TestClientStatusError(t *testing.T) {
	_, srv := newFakeServer(t)
	defer srv.Close()

	c := NewClient("Bob", srv.URL)
	require.NoError(t, c.Login())

	err := c.StartGame("g-1")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)
	assert.Contains(t, se.Body, "not authorized")
}

func TestClientSplitsBatchedFrames(t *testing.T) {
	_, srv := newFakeServer(t)
	defer srv.Close()

	c := NewClient("Ann", srv.URL)
	require.NoError(t, c.Login())
	require.NoError(t, c.ConnectWS())
	defer c.CloseWS()
	require.NoError(t, c.SubscribeGame("g-1"))

	var got []string
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-c.Events():
			assert.Equal(t, "g-1", ev.GameID)
			got = append(got, ev.Type)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}
	assert.Equal(t, []string{"game_snapshot", "game_updated"}, got)
}

func TestClientLoginDoesNotRetryHTTPErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.NotFound(w, r)
	}))
	defer srv.Close()

	err := NewClient("Ann", srv.URL).Login()
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, 1, calls)
}
