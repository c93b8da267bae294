package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

// Key patterns for Redis game data.
func stateKey(gameID string) string  { return "game:" + gameID + ":state" }
func eventsKey(gameID string) string { return "game:" + gameID + ":events" }

const eventsPattern = "game:*:events"

// finishedTTL keeps a finished game's live copy around long enough for
// clients to fetch the final board.
const finishedTTL = time.Hour

// SetGame stores the live snapshot of a game.
func (c *Client) SetGame(ctx context.Context, g *dexter.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", g.ID, err)
	}
	var ttl time.Duration
	if g.Status() == dexter.StatusGameOver {
		ttl = finishedTTL
	}
	return c.rdb.Set(ctx, stateKey(g.ID), data, ttl).Err()
}

// GetGame retrieves the live snapshot, or nil when the game is not cached.
func (c *Client) GetGame(ctx context.Context, gameID string) (*dexter.Game, error) {
	data, err := c.rdb.Get(ctx, stateKey(gameID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game state: %w", err)
	}
	var g dexter.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", gameID, err)
	}
	return &g, nil
}

// DeleteGame removes the live snapshot of a game.
func (c *Client) DeleteGame(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, stateKey(gameID)).Err()
}
