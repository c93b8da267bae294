package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Publish sends an event payload on the game's channel.
func (c *Client) Publish(ctx context.Context, gameID string, payload []byte) error {
	if err := c.rdb.Publish(ctx, eventsKey(gameID), payload).Err(); err != nil {
		return fmt.Errorf("publish game event: %w", err)
	}
	return nil
}

// Listen subscribes to every game's channel and calls fn for each event
// until ctx is cancelled.
func (c *Client) Listen(ctx context.Context, fn func(gameID string, payload []byte)) error {
	sub := c.rdb.PSubscribe(ctx, eventsPattern)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe game events: %w", err)
	}
	log.Info().Str("pattern", eventsPattern).Msg("Listening for game events")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			gameID, ok := gameIDFromChannel(msg.Channel)
			if !ok {
				log.Warn().Str("channel", msg.Channel).Msg("Ignoring event on unexpected channel")
				continue
			}
			fn(gameID, []byte(msg.Payload))
		}
	}
}

// gameIDFromChannel extracts the game ID from "game:{id}:events".
func gameIDFromChannel(channel string) (string, bool) {
	rest, ok := strings.CutPrefix(channel, "game:")
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, ":events")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
