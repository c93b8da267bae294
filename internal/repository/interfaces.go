package repository

import (
	"context"
	"errors"

	"github.com/freeeve/dexter-sinister/internal/model"
	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

// ErrVersionConflict is returned by Save when the stored snapshot moved on
// since the caller loaded it.
var ErrVersionConflict = errors.New("game version conflict")

// UserRepository defines user data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByProviderID(ctx context.Context, provider, providerID string) (*model.User, error)
	Upsert(ctx context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
}

// GameRepository persists engine snapshots, seats and the game log.
type GameRepository interface {
	Create(ctx context.Context, g *dexter.Game) error
	// Save stores g if the stored version still equals prevVersion, replaces
	// the seat list and appends entries to the log, all in one transaction.
	Save(ctx context.Context, g *dexter.Game, prevVersion int, entries []dexter.LogEntry) error
	Load(ctx context.Context, gameID string) (*dexter.Game, error)
	FindByID(ctx context.Context, id string) (*model.Game, error)
	ListOpen(ctx context.Context) ([]model.Game, error)
	ListByUser(ctx context.Context, userID string) ([]model.Game, error)
	ListActive(ctx context.Context) ([]model.Game, error)
	ListLog(ctx context.Context, gameID string, since int) ([]model.LogEntry, error)
	Delete(ctx context.Context, gameID string) error
}

// GameCache holds the live snapshot of in-progress games (Redis).
type GameCache interface {
	SetGame(ctx context.Context, g *dexter.Game) error
	GetGame(ctx context.Context, gameID string) (*dexter.Game, error)
	DeleteGame(ctx context.Context, gameID string) error
}

// EventBus fans game events out to every server instance.
type EventBus interface {
	Publish(ctx context.Context, gameID string, payload []byte) error
	// Listen blocks, calling fn for every event, until ctx is cancelled.
	Listen(ctx context.Context, fn func(gameID string, payload []byte)) error
}
