package service

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/dexter-sinister/internal/repository"
	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

// Event types sent to clients.
const (
	EventGameUpdated = "game_updated"
	EventGameStarted = "game_started"
	EventGameEnded   = "game_ended"
)

// GameEvent is the payload of every game broadcast. It carries the full
// snapshot; transports redact it for each recipient before sending.
type GameEvent struct {
	Game *dexter.Game      `json:"game"`
	Log  []dexter.LogEntry `json:"log,omitempty"`
}

// Broadcaster sends real-time events to connected clients.
// Implemented by the WebSocket hub and by RelayBroadcaster.
type Broadcaster interface {
	BroadcastGameEvent(gameID string, eventType string, data any)
}

// NoopBroadcaster is a no-op implementation for testing or when WS is disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastGameEvent(string, string, any) {}

// RelayMessage is the envelope published on the event bus.
type RelayMessage struct {
	Type   string          `json:"type"`
	GameID string          `json:"game_id"`
	Data   json.RawMessage `json:"data"`
}

// RelayBroadcaster publishes events on the event bus so every server
// instance can deliver them to its own WebSocket clients.
type RelayBroadcaster struct {
	bus repository.EventBus
}

// NewRelayBroadcaster creates a RelayBroadcaster.
func NewRelayBroadcaster(bus repository.EventBus) *RelayBroadcaster {
	return &RelayBroadcaster{bus: bus}
}

func (r *RelayBroadcaster) BroadcastGameEvent(gameID, eventType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Str("gameId", gameID).Str("type", eventType).Msg("Failed to encode game event")
		return
	}
	msg, err := json.Marshal(RelayMessage{Type: eventType, GameID: gameID, Data: raw})
	if err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Failed to encode relay message")
		return
	}
	if err := r.bus.Publish(context.Background(), gameID, msg); err != nil {
		log.Error().Err(err).Str("gameId", gameID).Str("type", eventType).Msg("Failed to publish game event")
	}
}
