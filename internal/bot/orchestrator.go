package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

// Event types the server pushes over the socket.
const (
	eventSnapshot = "game_snapshot"
	eventUpdated  = "game_updated"
	eventStarted  = "game_started"
	eventEnded    = "game_ended"
)

// TableConfig describes a remote table to play.
type TableConfig struct {
	BaseURL  string
	Name     string
	Players  int // remote seats, each its own user
	Scripted int // server-side scripted seats added by the host
	Roles    dexter.RoleToggles
	Seed     int64
	// Poll re-reads the view when no event arrived for this long.
	Poll    time.Duration
	Timeout time.Duration
}

// Orchestrator plays one table on a running server, each remote seat
// logged in as its own user and deciding from its own view.
type Orchestrator struct {
	cfg   TableConfig
	seats []*Seat
}

// Seat wraps a Client with the driver that decides its moves.
type Seat struct {
	Client *Client
	driver *Driver
	moves  int
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(cfg TableConfig) *Orchestrator {
	if cfg.Poll <= 0 {
		cfg.Poll = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	if cfg.Name == "" {
		cfg.Name = "Scripted Table"
	}
	return &Orchestrator{cfg: cfg}
}

// Run logs every seat in, builds the lobby, starts it and plays until the
// game is over. It returns the final host view.
func (o *Orchestrator) Run(ctx context.Context) (*View, error) {
	total := o.cfg.Players + o.cfg.Scripted
	if o.cfg.Players < 1 || total < dexter.MinPlayers || total > dexter.MaxPlayers {
		return nil, fmt.Errorf("%w: %d seats", dexter.ErrPlayerCountOutOfRange, total)
	}
	log.Info().Int("players", o.cfg.Players).Int("scripted", o.cfg.Scripted).Int64("seed", o.cfg.Seed).Msg("Starting remote table")

	for i := 0; i < o.cfg.Players; i++ {
		name := fmt.Sprintf("Seat%d", i+1)
		c := NewClient(name, o.cfg.BaseURL)
		if err := c.Login(); err != nil {
			return nil, fmt.Errorf("login %s: %w", name, err)
		}
		o.seats = append(o.seats, &Seat{Client: c, driver: NewDriver(NewPolicy(NewRand(o.cfg.Seed + int64(i))))})
	}
	host := o.seats[0].Client

	gameID, err := host.CreateGame(o.cfg.Name, total, o.cfg.Roles)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	log.Info().Str("gameId", gameID).Msg("Game created")

	for _, s := range o.seats[1:] {
		if err := s.Client.JoinGame(gameID); err != nil {
			return nil, fmt.Errorf("join %s: %w", s.Client.Name(), err)
		}
	}
	for i := 0; i < o.cfg.Scripted; i++ {
		if err := host.AddScripted(gameID); err != nil {
			return nil, fmt.Errorf("add scripted seat: %w", err)
		}
	}

	for _, s := range o.seats {
		if err := s.Client.ConnectWS(); err != nil {
			return nil, fmt.Errorf("ws connect %s: %w", s.Client.Name(), err)
		}
		if err := s.Client.SubscribeGame(gameID); err != nil {
			return nil, fmt.Errorf("ws subscribe %s: %w", s.Client.Name(), err)
		}
	}
	defer func() {
		for _, s := range o.seats {
			s.Client.CloseWS()
		}
	}()

	if err := host.StartGame(gameID); err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}
	log.Info().Str("gameId", gameID).Msg("Game started")

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range o.seats {
		g.Go(func() error { return o.play(gctx, gameID, s) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	final, err := host.GetGame(gameID)
	if err != nil {
		return nil, fmt.Errorf("final view: %w", err)
	}
	winner, _ := final.Game.Winner()
	dex, sin := dexter.Tally(final.Game.StoryResults)
	log.Info().Str("gameId", gameID).Str("winner", string(winner)).Int("dexterStories", dex).Int("sinisterStories", sin).Msg("Game ended")
	return final, nil
}

// play acts for one seat whenever its view changes, until the game ends.
func (o *Orchestrator) play(ctx context.Context, gameID string, s *Seat) error {
	events := s.Client.Events()
	poll := time.NewTicker(o.cfg.Poll)
	defer poll.Stop()

	for {
		done, err := o.act(gameID, s)
		if err != nil {
			return err
		}
		if done {
			log.Debug().Str("seat", s.Client.Name()).Int("moves", s.moves).Msg("Seat finished")
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.C:
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("%s: socket closed", s.Client.Name())
			}
			switch ev.Type {
			case eventSnapshot, eventUpdated, eventStarted, eventEnded:
			default:
				continue
			}
		}
	}
}

// act reads the seat's view and submits whatever the driver decides.
// Conflicts mean another seat moved first; the next event brings the new view.
func (o *Orchestrator) act(gameID string, s *Seat) (bool, error) {
	view, err := s.Client.GetGame(gameID)
	if err != nil {
		return false, fmt.Errorf("%s: get game: %w", s.Client.Name(), err)
	}
	if view.Status == dexter.StatusGameOver {
		return true, nil
	}
	if view.Status == dexter.StatusLobby {
		return false, nil
	}

	intents, err := s.driver.StepFor(view.Game, s.Client.UserID(), view.Appearances)
	if err != nil {
		return false, fmt.Errorf("%s: decide: %w", s.Client.Name(), err)
	}
	for _, in := range intents {
		if err := s.Client.Submit(gameID, in); err != nil {
			var se *StatusError
			if errors.As(err, &se) && se.Code < 500 {
				log.Debug().Err(err).Str("seat", s.Client.Name()).Str("kind", string(in.Kind)).Msg("Intent rejected, waiting for next view")
				return false, nil
			}
			return false, fmt.Errorf("%s: submit %s: %w", s.Client.Name(), in.Kind, err)
		}
		s.moves++
	}
	return false, nil
}
