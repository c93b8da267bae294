package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/dexter-sinister/internal/bot"
	"github.com/freeeve/dexter-sinister/internal/repository"
	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

var ErrGameNotFound = errors.New("game not found")

// DefaultStepLimit bounds the scripted batches run after one request.
const DefaultStepLimit = 500

// Store serializes every write to a game. GameService and PlayService share
// one Store so lobby changes and play never interleave on the same game.
type Store struct {
	gameRepo    repository.GameRepository
	cache       repository.GameCache
	broadcaster Broadcaster
	stepLimit   int
	newRand     func() *rand.Rand

	// gameLocks holds one mutex per game. Every read-modify-write of a
	// snapshot happens under its game's lock.
	gameLocks sync.Map
}

// NewStore creates a Store. A stepLimit of zero uses DefaultStepLimit.
func NewStore(gameRepo repository.GameRepository, cache repository.GameCache, broadcaster Broadcaster, stepLimit int) *Store {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	if stepLimit <= 0 {
		stepLimit = DefaultStepLimit
	}
	return &Store{
		gameRepo:    gameRepo,
		cache:       cache,
		broadcaster: broadcaster,
		stepLimit:   stepLimit,
		newRand:     func() *rand.Rand { return bot.NewRand(0) },
	}
}

// SetRandSource replaces the random source used for starting games and for
// scripted decisions. Each call to fn must return an independent source.
func (s *Store) SetRandSource(fn func() *rand.Rand) {
	s.newRand = fn
}

// gameLock returns the mutex for a given game ID.
func (s *Store) gameLock(gameID string) *sync.Mutex {
	v, _ := s.gameLocks.LoadOrStore(gameID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Load returns the latest snapshot, reading the live copy first and
// falling back to Postgres. A Postgres hit repopulates the live copy.
func (s *Store) Load(ctx context.Context, gameID string) (*dexter.Game, error) {
	g, err := s.cache.GetGame(ctx, gameID)
	if err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("Live game read failed, falling back to Postgres")
	}
	if g != nil {
		return g, nil
	}
	g, err = s.gameRepo.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGameNotFound
	}
	if err := s.cache.SetGame(ctx, g); err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to repopulate live game")
	}
	return g, nil
}

// Create stores a brand-new game.
func (s *Store) Create(ctx context.Context, g *dexter.Game) error {
	if err := s.gameRepo.Create(ctx, g); err != nil {
		return err
	}
	if err := s.cache.SetGame(ctx, g); err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Msg("Failed to cache new game")
	}
	return nil
}

// Update applies fn to a copy of the latest snapshot under the game lock.
// When fn changes the game, the result is committed and broadcast, then
// pending scripted players act until the game waits on a person. A
// transition that leaves the version unchanged is a no-op and commits
// nothing. Update returns the committed snapshot.
func (s *Store) Update(ctx context.Context, gameID string, fn func(g *dexter.Game) error) (*dexter.Game, error) {
	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	cur, err := s.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if next.Version == cur.Version {
		return cur, nil
	}
	if err := s.commit(ctx, cur, next); err != nil {
		return nil, err
	}
	return s.drive(ctx, next), nil
}

// Drive runs pending scripted actions for a game without any other change.
func (s *Store) Drive(ctx context.Context, gameID string) (*dexter.Game, error) {
	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	cur, err := s.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return s.drive(ctx, cur), nil
}

// drive commits one batch per scripted step. Failures are logged rather
// than returned because the request that triggered them already committed.
func (s *Store) drive(ctx context.Context, cur *dexter.Game) *dexter.Game {
	driver := bot.NewDriver(bot.NewPolicy(s.newRand()))
	for n := 0; n < s.stepLimit; n++ {
		intents, err := driver.Step(cur)
		if err != nil {
			log.Error().Err(err).Str("gameId", cur.ID).Str("status", string(cur.Status())).Msg("Scripted step failed")
			return cur
		}
		if len(intents) == 0 {
			return cur
		}
		next := cur.Clone()
		if err := driver.Apply(next, intents); err != nil {
			log.Error().Err(err).Str("gameId", cur.ID).Str("status", string(cur.Status())).Msg("Scripted intent rejected")
			return cur
		}
		if next.Version == cur.Version {
			return cur
		}
		if err := s.commit(ctx, cur, next); err != nil {
			log.Error().Err(err).Str("gameId", cur.ID).Msg("Failed to commit scripted step")
			return cur
		}
		cur = next
	}
	log.Warn().Str("gameId", cur.ID).Int("limit", s.stepLimit).Msg("Scripted step limit reached")
	return cur
}

// commit persists next over prev, refreshes the live copy and broadcasts.
func (s *Store) commit(ctx context.Context, prev, next *dexter.Game) error {
	entries := next.LogSince(len(prev.Log))
	if err := s.gameRepo.Save(ctx, next, prev.Version, entries); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			// The live copy is behind Postgres; drop it so the next load re-reads.
			if derr := s.cache.DeleteGame(ctx, next.ID); derr != nil {
				log.Warn().Err(derr).Str("gameId", next.ID).Msg("Failed to drop stale live game")
			}
		}
		return fmt.Errorf("commit game %s: %w", next.ID, err)
	}
	if err := s.cache.SetGame(ctx, next); err != nil {
		log.Warn().Err(err).Str("gameId", next.ID).Msg("Failed to update live game")
		if derr := s.cache.DeleteGame(ctx, next.ID); derr != nil {
			log.Warn().Err(derr).Str("gameId", next.ID).Msg("Failed to drop stale live game")
		}
	}

	log.Debug().Str("gameId", next.ID).Int("version", next.Version).
		Str("status", string(next.Status())).Int("entries", len(entries)).
		Msg("Game committed")

	event := GameEvent{Game: next, Log: entries}
	prevStatus, nextStatus := prev.Phase.Status(), next.Phase.Status()
	if prevStatus == dexter.StatusLobby && nextStatus != dexter.StatusLobby && nextStatus != dexter.StatusGameOver {
		s.broadcaster.BroadcastGameEvent(next.ID, EventGameStarted, event)
	}
	s.broadcaster.BroadcastGameEvent(next.ID, EventGameUpdated, event)
	if prevStatus != dexter.StatusGameOver && nextStatus == dexter.StatusGameOver {
		winner, _ := next.Winner()
		log.Info().Str("gameId", next.ID).Str("winner", string(winner)).Msg("Game ended")
		s.broadcaster.BroadcastGameEvent(next.ID, EventGameEnded, event)
	}
	return nil
}
