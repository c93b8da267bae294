package bot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

// WSEvent mirrors handler.WSEvent for client-side deserialization.
type WSEvent struct {
	Type   string          `json:"type"`
	GameID string          `json:"game_id"`
	Data   json.RawMessage `json:"data"`
}

// View mirrors the server's per-viewer game view.
type View struct {
	Game         *dexter.Game                 `json:"game"`
	Status       dexter.Status                `json:"status"`
	Appearances  map[string]dexter.Appearance `json:"appearances"`
	ActorsToMove []string                     `json:"actors_to_move"`
	TeamSize     int                          `json:"team_size,omitempty"`
}

// intentPaths maps each intent to the endpoint below /api/v1/games/{id}.
var intentPaths = map[dexter.IntentKind]string{
	dexter.IntentPropose:             "team",
	dexter.IntentVote:                "vote",
	dexter.IntentMissionCard:         "mission",
	dexter.IntentDraw:                "management/draw",
	dexter.IntentSkipDraw:            "management/skip",
	dexter.IntentPlay:                "management/play",
	dexter.IntentSkipPlay:            "management/skip-play",
	dexter.IntentShiftingPriorities:  "detour/shifting-priorities",
	dexter.IntentScopeCreep:          "detour/scope-creep",
	dexter.IntentServiceReassignment: "detour/service-reassignment",
	dexter.IntentCeoTake:             "ceo/take",
	dexter.IntentCeoDrawTwo:          "ceo/draw-two",
	dexter.IntentCeoPick:             "ceo/pick",
	dexter.IntentReveal:              "reveal",
	dexter.IntentAssassinate:         "assassinate",
	dexter.IntentNextRound:           "next-round",
}

// IntentPath returns the endpoint path for an intent in a game.
func IntentPath(gameID string, kind dexter.IntentKind) (string, error) {
	p, ok := intentPaths[kind]
	if !ok {
		return "", fmt.Errorf("no endpoint for intent %q", kind)
	}
	return "/api/v1/games/" + gameID + "/" + p, nil
}

// Client is an HTTP+WebSocket client for one remote seat.
type Client struct {
	name     string
	baseURL  string
	token    string
	userID   string
	wsConn   *websocket.Conn
	events   chan WSEvent
	httpC    *http.Client
	mu       sync.Mutex
	closedWS bool
}

// NewClient creates a new client targeting the given server URL.
func NewClient(name, baseURL string) *Client {
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		events:  make(chan WSEvent, 64),
		httpC:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns the display name used at login.
func (c *Client) Name() string { return c.name }

// UserID returns the user ID after login.
func (c *Client) UserID() string { return c.userID }

// loginMaxElapsed bounds how long Login waits for a server that is still
// starting up.
const loginMaxElapsed = 20 * time.Second

// Login authenticates via the dev login endpoint. Connection failures are
// retried; an HTTP error response is not.
func (c *Client) Login() error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = loginMaxElapsed
	return backoff.Retry(func() error {
		err := c.login()
		var se *StatusError
		if errors.As(err, &se) {
			return backoff.Permanent(err)
		}
		return err
	}, bo)
}

func (c *Client) login() error {
	resp, err := c.httpC.Get(c.baseURL + "/auth/dev?name=" + url.QueryEscape(c.name))
	if err != nil {
		return fmt.Errorf("dev login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &StatusError{Method: http.MethodGet, Path: "/auth/dev", Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var tokens struct {
		AccessToken string `json:"access_token"`
		Identity    struct {
			ID string `json:"id"`
		} `json:"identity"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return backoff.Permanent(fmt.Errorf("decode tokens: %w", err))
	}
	c.token = tokens.AccessToken
	c.userID = tokens.Identity.ID
	log.Debug().Str("client", c.name).Str("userId", c.userID).Msg("Client logged in")
	return nil
}

// CreateGame creates a public lobby and returns its ID.
func (c *Client) CreateGame(name string, capacity int, roles dexter.RoleToggles) (string, error) {
	var view View
	body := map[string]any{"name": name, "capacity": capacity, "roles": roles}
	if err := c.do(http.MethodPost, "/api/v1/games", body, &view); err != nil {
		return "", err
	}
	return view.Game.ID, nil
}

// JoinGame joins an existing game.
func (c *Client) JoinGame(gameID string) error {
	return c.do(http.MethodPost, "/api/v1/games/"+gameID+"/join", nil, nil)
}

// AddScripted seats a server-side scripted player (host only).
func (c *Client) AddScripted(gameID string) error {
	return c.do(http.MethodPost, "/api/v1/games/"+gameID+"/bots", nil, nil)
}

// StartGame starts a game (host only).
func (c *Client) StartGame(gameID string) error {
	return c.do(http.MethodPost, "/api/v1/games/"+gameID+"/start", nil, nil)
}

// GetGame fetches this client's view of a game.
func (c *Client) GetGame(gameID string) (*View, error) {
	var view View
	if err := c.do(http.MethodGet, "/api/v1/games/"+gameID, nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Submit sends one intent to its endpoint.
func (c *Client) Submit(gameID string, in dexter.Intent) error {
	path, err := IntentPath(gameID, in.Kind)
	if err != nil {
		return err
	}
	return c.do(http.MethodPost, path, in, nil)
}

// ConnectWS opens a WebSocket connection and starts listening for events.
func (c *Client) ConnectWS() error {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/api/v1/ws?token=" + url.QueryEscape(c.token)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("ws dial: %w", err)
	}
	c.wsConn = conn

	go c.readWSLoop()
	return nil
}

// SubscribeGame sends a subscribe message for the given game.
func (c *Client) SubscribeGame(gameID string) error {
	msg := map[string]string{"action": "subscribe", "game_id": gameID}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wsConn.WriteJSON(msg)
}

// Events returns the channel of incoming WebSocket events.
func (c *Client) Events() <-chan WSEvent { return c.events }

// CloseWS closes the WebSocket connection.
func (c *Client) CloseWS() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wsConn != nil && !c.closedWS {
		c.closedWS = true
		c.wsConn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.wsConn.Close()
	}
}

// readWSLoop splits frames on newlines; the server batches queued events.
func (c *Client) readWSLoop() {
	defer close(c.events)
	for {
		_, frame, err := c.wsConn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closedWS
			c.mu.Unlock()
			if !closed {
				log.Debug().Err(err).Str("client", c.name).Msg("WS read error")
			}
			return
		}
		for _, msg := range bytes.Split(frame, []byte("\n")) {
			var event WSEvent
			if err := json.Unmarshal(msg, &event); err != nil {
				continue
			}
			c.events <- event
		}
	}
}

// do sends a JSON request and decodes the response into out when non-nil.
func (c *Client) do(method, path string, payload, out any) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpC.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}
