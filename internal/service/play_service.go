package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/dexter-sinister/internal/repository"
	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

// PlayService applies in-game intents. Every intent goes through the shared
// Store, so each is validated against the latest snapshot under the game
// lock and followed by any scripted players' moves.
type PlayService struct {
	store    *Store
	gameRepo repository.GameRepository
}

// NewPlayService creates a PlayService.
func NewPlayService(store *Store, gameRepo repository.GameRepository) *PlayService {
	return &PlayService{store: store, gameRepo: gameRepo}
}

// StartGame assigns roles and opens story 1. Only the host may start.
func (s *PlayService) StartGame(ctx context.Context, gameID, actorID string) (GameView, error) {
	g, err := s.store.Update(ctx, gameID, func(g *dexter.Game) error {
		return g.Start(actorID, s.store.newRand())
	})
	if err != nil {
		return GameView{}, err
	}
	log.Info().Str("gameId", gameID).Int("players", len(g.PlayerOrder)).Msg("Game started")
	return ViewFor(g, actorID), nil
}

// Act applies one intent for its player. A repeated submission that the
// game has already recorded succeeds without a commit.
func (s *PlayService) Act(ctx context.Context, gameID string, in dexter.Intent) (GameView, error) {
	if in.Player == "" {
		return GameView{}, fmt.Errorf("%w: intent has no player", dexter.ErrNotAuthorized)
	}
	g, err := s.store.Update(ctx, gameID, func(g *dexter.Game) error {
		if p, ok := g.Players[in.Player]; ok && p.IsScripted() {
			return fmt.Errorf("%w: %s is a scripted seat", dexter.ErrNotAuthorized, in.Player)
		}
		return in.Apply(g)
	})
	if err != nil {
		log.Debug().Err(err).Str("gameId", gameID).Str("playerId", in.Player).Str("intent", string(in.Kind)).Msg("Intent rejected")
		return GameView{}, err
	}
	return ViewFor(g, in.Player), nil
}

// ProposeTeam names a team, optionally with a management-card target.
func (s *PlayService) ProposeTeam(ctx context.Context, gameID, actorID string, members []string, target string) (GameView, error) {
	return s.Act(ctx, gameID, dexter.Intent{Kind: dexter.IntentPropose, Player: actorID, Members: members, Target: target})
}

// Vote records an agree or rethrow ballot.
func (s *PlayService) Vote(ctx context.Context, gameID, actorID string, vote dexter.Vote) (GameView, error) {
	return s.Act(ctx, gameID, dexter.Intent{Kind: dexter.IntentVote, Player: actorID, Vote: vote})
}

// SubmitMissionCard records an approve or request card.
func (s *PlayService) SubmitMissionCard(ctx context.Context, gameID, actorID string, card dexter.MissionCard) (GameView, error) {
	return s.Act(ctx, gameID, dexter.Intent{Kind: dexter.IntentMissionCard, Player: actorID, Card: card})
}

// NextRound advances from the results screen.
func (s *PlayService) NextRound(ctx context.Context, gameID, actorID string) (GameView, error) {
	return s.Act(ctx, gameID, dexter.Intent{Kind: dexter.IntentNextRound, Player: actorID})
}

// Assassinate names the Sniper's target.
func (s *PlayService) Assassinate(ctx context.Context, gameID, actorID, targetID string) (GameView, error) {
	return s.Act(ctx, gameID, dexter.Intent{Kind: dexter.IntentAssassinate, Player: actorID, Target: targetID})
}

// RecoverActiveGames rehydrates the live copy of every in-progress game from
// Postgres and lets scripted players finish any pending moves. Called on
// server startup.
func (s *PlayService) RecoverActiveGames(ctx context.Context) error {
	games, err := s.gameRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active games: %w", err)
	}
	if len(games) == 0 {
		log.Info().Msg("No active games to recover")
		return nil
	}
	log.Info().Int("count", len(games)).Msg("Recovering active games after restart")

	for _, summary := range games {
		g, err := s.gameRepo.Load(ctx, summary.ID)
		if err != nil {
			log.Error().Err(err).Str("gameId", summary.ID).Msg("Failed to load game during recovery")
			continue
		}
		if g == nil {
			log.Warn().Str("gameId", summary.ID).Msg("Active game has no snapshot, skipping")
			continue
		}
		if err := s.store.cache.SetGame(ctx, g); err != nil {
			log.Error().Err(err).Str("gameId", g.ID).Msg("Failed to restore live game")
			continue
		}
		g, err = s.store.Drive(ctx, g.ID)
		if err != nil {
			log.Error().Err(err).Str("gameId", summary.ID).Msg("Failed to resume scripted players")
			continue
		}
		log.Info().Str("gameId", g.ID).Str("status", string(g.Status())).
			Int("story", g.CurrentStory).Int("version", g.Version).
			Msg("Recovered game state")
	}
	return nil
}
