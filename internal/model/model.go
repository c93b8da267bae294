package model

import (
	"time"

	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

// User represents a registered user.
type User struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	ProviderID  string    `json:"provider_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Lifecycle values stored in games.status.
const (
	GameLobby    = "lobby"
	GameActive   = "active"
	GameFinished = "finished"
)

// Game is the listing row for a match. The authoritative state lives in the
// engine snapshot; this is what lobby and history pages read.
type Game struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	HostID      string       `json:"host_id"`
	Status      string       `json:"status"` // lobby, active, finished
	Phase       string       `json:"phase"`
	Public      bool         `json:"public"`
	Capacity    int          `json:"capacity"`
	PlayerCount int          `json:"player_count"`
	Winner      string       `json:"winner,omitempty"`
	Version     int          `json:"version"`
	CreatedAt   time.Time    `json:"created_at"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	FinishedAt  *time.Time   `json:"finished_at,omitempty"`
	Players     []GamePlayer `json:"players,omitempty"`
}

// GamePlayer represents a seat in a game.
type GamePlayer struct {
	GameID      string    `json:"game_id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Kind        string    `json:"kind"`
	Seat        int       `json:"seat"`
	JoinedAt    time.Time `json:"joined_at"`
}

// LogEntry is a persisted line of game history.
type LogEntry struct {
	GameID    string    `json:"game_id"`
	Seq       int       `json:"seq"`
	Story     int       `json:"story"`
	Kind      string    `json:"kind"`
	Actor     string    `json:"actor,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// LifecycleOf maps an engine status onto the listing lifecycle.
func LifecycleOf(g *dexter.Game) string {
	switch g.Phase.Status() {
	case dexter.StatusLobby:
		return GameLobby
	case dexter.StatusGameOver:
		return GameFinished
	}
	return GameActive
}

// SummaryOf builds the listing row for g.
func SummaryOf(g *dexter.Game) Game {
	s := Game{
		ID:          g.ID,
		Name:        g.Name,
		HostID:      g.Host(),
		Status:      LifecycleOf(g),
		Phase:       string(g.Status()),
		Public:      g.Settings.Public,
		Capacity:    g.Settings.Capacity,
		PlayerCount: len(g.PlayerOrder),
		Version:     g.Version,
	}
	if w, ok := g.Winner(); ok {
		s.Winner = string(w)
	}
	for i, id := range g.PlayerOrder {
		p := g.Players[id]
		s.Players = append(s.Players, GamePlayer{
			GameID:      g.ID,
			UserID:      id,
			DisplayName: p.Name,
			Kind:        string(p.Kind),
			Seat:        i,
		})
	}
	return s
}
