package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/freeeve/dexter-sinister/internal/auth"
	"github.com/freeeve/dexter-sinister/internal/service"
)

// wsClient reads events off a test connection. The server may pack several
// newline-separated events into one frame.
type wsClient struct {
	t       *testing.T
	conn    *websocket.Conn
	pending [][]byte
}

func (c *wsClient) next() WSEvent {
	c.t.Helper()
	for len(c.pending) == 0 {
		c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			c.t.Fatalf("read: %v", err)
		}
		c.pending = bytes.Split(frame, []byte("\n"))
	}
	var event WSEvent
	if err := json.Unmarshal(c.pending[0], &event); err != nil {
		c.t.Fatalf("decode event: %v", err)
	}
	c.pending = c.pending[1:]
	return event
}

func TestServeWS(t *testing.T) {
	games := newMockGameRepo()
	store := service.NewStore(games, noCache{}, nil, 0)
	gameSvc := service.NewGameService(store, games)
	view, err := gameSvc.CreateGame(context.Background(), "host", "Host", service.CreateGameRequest{Name: "Live", Capacity: 5, Public: true})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	jwtMgr := auth.NewJWTManager("test-secret")
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(NewWSHandler(hub, jwtMgr, gameSvc).ServeWS))
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	if _, resp, err := websocket.DefaultDialer.Dial(wsURL, nil); err == nil {
		t.Fatal("expected dial without token to fail")
	} else if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %v", resp)
	}

	tokens, err := jwtMgr.GenerateTokenPair(auth.Identity{ID: "host", Name: "Host"})
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	if _, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+tokens.RefreshToken, nil); err == nil {
		t.Fatal("a refresh token must not open a socket")
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+tokens.AccessToken, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	c := &wsClient{t: t, conn: conn}

	if ev := c.next(); ev.Type != EventConnected {
		t.Fatalf("expected connected, got %s", ev.Type)
	}

	conn.WriteJSON(ClientMessage{Action: "subscribe", GameID: "missing"})
	if ev := c.next(); ev.Type != EventError || ev.GameID != "missing" {
		t.Fatalf("expected error for unknown game, got %+v", ev)
	}

	conn.WriteJSON(ClientMessage{Action: "subscribe", GameID: view.Game.ID})
	if ev := c.next(); ev.Type != EventSnapshot || ev.GameID != view.Game.ID {
		t.Fatalf("expected snapshot, got %+v", ev)
	}
	if hub.GameSubscriberCount(view.Game.ID) != 1 || hub.GameSubscriberCount("missing") != 0 {
		t.Fatalf("unexpected subscriptions: %d / %d", hub.GameSubscriberCount(view.Game.ID), hub.GameSubscriberCount("missing"))
	}

	hub.BroadcastGameEvent(view.Game.ID, service.EventGameUpdated, map[string]string{"ping": "pong"})
	if ev := c.next(); ev.Type != service.EventGameUpdated {
		t.Fatalf("expected game_updated, got %s", ev.Type)
	}
}
