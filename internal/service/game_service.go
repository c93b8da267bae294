package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/dexter-sinister/internal/model"
	"github.com/freeeve/dexter-sinister/internal/repository"
	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

var (
	ErrNotHost      = errors.New("only the host can do that")
	ErrGameNotLobby = errors.New("game has already started")
	ErrInvalidName  = errors.New("game name must be 1-64 characters")
)

const maxNameLen = 64

// CreateGameRequest holds the settings chosen when a game is created.
type CreateGameRequest struct {
	Name     string             `json:"name"`
	Capacity int                `json:"capacity"`
	Public   bool               `json:"public"`
	Roles    dexter.RoleToggles `json:"roles"`
}

// GameService handles the lobby lifecycle: creating, joining and leaving
// games, seating scripted players and reading game state.
type GameService struct {
	store    *Store
	gameRepo repository.GameRepository
}

// NewGameService creates a GameService.
func NewGameService(store *Store, gameRepo repository.GameRepository) *GameService {
	return &GameService{store: store, gameRepo: gameRepo}
}

// CreateGame creates a lobby with the caller seated as host.
func (s *GameService) CreateGame(ctx context.Context, hostID, hostName string, req CreateGameRequest) (GameView, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > maxNameLen {
		return GameView{}, ErrInvalidName
	}
	if req.Capacity == 0 {
		req.Capacity = dexter.MaxPlayers
	}
	g, err := dexter.NewGame(uuid.NewString(), name, dexter.Settings{
		Capacity: req.Capacity,
		Public:   req.Public,
		Roles:    req.Roles,
	})
	if err != nil {
		return GameView{}, err
	}
	if err := g.AddPlayer(dexter.Player{ID: hostID, Name: hostName, Kind: dexter.PlayerHuman}); err != nil {
		return GameView{}, err
	}
	if err := s.store.Create(ctx, g); err != nil {
		return GameView{}, fmt.Errorf("create game: %w", err)
	}
	log.Info().Str("gameId", g.ID).Str("hostId", hostID).Int("capacity", req.Capacity).Msg("Game created")
	return ViewFor(g, hostID), nil
}

// JoinGame seats a person in a lobby.
func (s *GameService) JoinGame(ctx context.Context, gameID, userID, displayName string) (GameView, error) {
	g, err := s.store.Update(ctx, gameID, func(g *dexter.Game) error {
		return g.AddPlayer(dexter.Player{ID: userID, Name: displayName, Kind: dexter.PlayerHuman})
	})
	if err != nil {
		return GameView{}, err
	}
	return ViewFor(g, userID), nil
}

// AddScriptedPlayer seats a scripted player. Only the host may do this.
func (s *GameService) AddScriptedPlayer(ctx context.Context, gameID, actorID string) (GameView, error) {
	g, err := s.store.Update(ctx, gameID, func(g *dexter.Game) error {
		if g.Host() != actorID {
			return ErrNotHost
		}
		n := 1
		for _, id := range g.PlayerOrder {
			if g.Players[id].IsScripted() {
				n++
			}
		}
		return g.AddPlayer(dexter.Player{
			ID:   "bot-" + uuid.NewString(),
			Name: fmt.Sprintf("Bot %d", n),
			Kind: dexter.PlayerScripted,
		})
	})
	if err != nil {
		return GameView{}, err
	}
	return ViewFor(g, actorID), nil
}

// RemoveScriptedPlayer frees a scripted seat in the lobby. Only the host
// may do this.
func (s *GameService) RemoveScriptedPlayer(ctx context.Context, gameID, actorID, botID string) error {
	_, err := s.store.Update(ctx, gameID, func(g *dexter.Game) error {
		if g.Host() != actorID {
			return ErrNotHost
		}
		if g.Status() != dexter.StatusLobby {
			return ErrGameNotLobby
		}
		p, ok := g.Players[botID]
		if !ok || !p.IsScripted() {
			return fmt.Errorf("%w: %s is not a scripted seat", dexter.ErrInvalidSelection, botID)
		}
		return g.RemovePlayer(botID)
	})
	return err
}

// LeaveGame takes the caller out of a game. Mid-game the table continues
// without them; scripted players then act on anything left pending.
func (s *GameService) LeaveGame(ctx context.Context, gameID, userID string) error {
	_, err := s.store.Update(ctx, gameID, func(g *dexter.Game) error {
		if g.Status() == dexter.StatusGameOver {
			return fmt.Errorf("%w: the game is over", dexter.ErrInvalidPhaseTransition)
		}
		return g.RemovePlayer(userID)
	})
	if err != nil {
		return err
	}
	log.Info().Str("gameId", gameID).Str("userId", userID).Msg("Player left game")
	return nil
}

// DeleteGame removes a lobby. Only the host may delete, and only before start.
func (s *GameService) DeleteGame(ctx context.Context, gameID, actorID string) error {
	mu := s.store.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	g, err := s.store.Load(ctx, gameID)
	if err != nil {
		return err
	}
	if g.Host() != actorID {
		return ErrNotHost
	}
	if g.Status() != dexter.StatusLobby {
		return ErrGameNotLobby
	}
	if err := s.gameRepo.Delete(ctx, gameID); err != nil {
		return err
	}
	if err := s.store.cache.DeleteGame(ctx, gameID); err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to drop live game")
	}
	log.Info().Str("gameId", gameID).Msg("Game deleted")
	return nil
}

// GetGame returns the game as viewerID may see it.
func (s *GameService) GetGame(ctx context.Context, gameID, viewerID string) (GameView, error) {
	g, err := s.store.Load(ctx, gameID)
	if err != nil {
		return GameView{}, err
	}
	return ViewFor(g, viewerID), nil
}

// GameLog returns log entries after seq since.
func (s *GameService) GameLog(ctx context.Context, gameID string, since int) ([]model.LogEntry, error) {
	entries, err := s.gameRepo.ListLog(ctx, gameID, since)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.LogEntry{}
	}
	return entries, nil
}

// ListOpen returns public lobbies.
func (s *GameService) ListOpen(ctx context.Context) ([]model.Game, error) {
	return s.gameRepo.ListOpen(ctx)
}

// ListMine returns the games the user is seated in.
func (s *GameService) ListMine(ctx context.Context, userID string) ([]model.Game, error) {
	return s.gameRepo.ListByUser(ctx, userID)
}
