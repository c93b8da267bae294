package handler

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/dexter-sinister/internal/repository"
	"github.com/freeeve/dexter-sinister/internal/service"
	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

// GameEventPayload is what a client receives for a game event: its own
// view of the game plus the new log lines.
type GameEventPayload struct {
	View service.GameView  `json:"view"`
	Log  []dexter.LogEntry `json:"log,omitempty"`
}

// BroadcastGameEvent implements service.Broadcaster using the WebSocket hub.
// Game snapshots are redacted separately for every subscribed user.
func (h *Hub) BroadcastGameEvent(gameID string, eventType string, data any) {
	ev, ok := data.(service.GameEvent)
	if !ok || ev.Game == nil {
		h.BroadcastToGame(gameID, eventType, func(string) any { return data })
		return
	}
	h.BroadcastToGame(gameID, eventType, func(userID string) any {
		return GameEventPayload{View: service.ViewFor(ev.Game, userID), Log: ev.Log}
	})
}

// Relay delivers events published on the bus by any server instance to this
// hub's clients. It blocks until ctx is cancelled.
func (h *Hub) Relay(ctx context.Context, bus repository.EventBus) error {
	return bus.Listen(ctx, func(gameID string, payload []byte) {
		var msg service.RelayMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("Ignoring malformed relay message")
			return
		}
		if h.GameSubscriberCount(gameID) == 0 {
			return
		}
		var ev service.GameEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil || ev.Game == nil {
			h.BroadcastGameEvent(gameID, msg.Type, msg.Data)
			return
		}
		h.BroadcastGameEvent(gameID, msg.Type, ev)
	})
}
