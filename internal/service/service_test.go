package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/freeeve/dexter-sinister/internal/bot"
	"github.com/freeeve/dexter-sinister/internal/repository"
	"github.com/freeeve/dexter-sinister/pkg/dexter"
)

type testEnv struct {
	repo  *mockGameRepo
	cache *mockCache
	bc    *recordingBroadcaster
	store *Store
	games *GameService
	play  *PlayService
}

func newTestEnv(t *testing.T, seed int64) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:  newMockGameRepo(),
		cache: newMockCache(),
		bc:    &recordingBroadcaster{},
	}
	env.store = NewStore(env.repo, env.cache, env.bc, 0)
	env.store.SetRandSource(func() *rand.Rand { return rand.New(rand.NewSource(seed)) })
	env.games = NewGameService(env.store, env.repo)
	env.play = NewPlayService(env.store, env.repo)
	return env
}

func (e *testEnv) load(t *testing.T, gameID string) *dexter.Game {
	t.Helper()
	g, err := e.store.Load(context.Background(), gameID)
	if err != nil {
		t.Fatalf("load %s: %v", gameID, err)
	}
	return g
}

// lobbyWith creates a game hosted by "host" with the given extra humans and
// scripted seats.
func (e *testEnv) lobbyWith(t *testing.T, humans, scripted int) string {
	t.Helper()
	ctx := context.Background()
	view, err := e.games.CreateGame(ctx, "host", "Host", CreateGameRequest{Name: "Table", Capacity: 10, Public: true, Roles: dexter.DefaultRoleToggles()})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	id := view.Game.ID
	for i := 1; i <= humans; i++ {
		if _, err := e.games.JoinGame(ctx, id, fmt.Sprintf("p%d", i), fmt.Sprintf("Player %d", i)); err != nil {
			t.Fatalf("JoinGame: %v", err)
		}
	}
	for i := 0; i < scripted; i++ {
		if _, err := e.games.AddScriptedPlayer(ctx, id, "host"); err != nil {
			t.Fatalf("AddScriptedPlayer: %v", err)
		}
	}
	return id
}

// humanIntents asks the scripted policy what id would do, so tests can play
// people's seats without hand-writing every decision.
func humanIntents(g *dexter.Game, id string, d *bot.Driver) ([]dexter.Intent, error) {
	c := g.Clone()
	for pid, p := range c.Players {
		if pid == id {
			p.Kind = dexter.PlayerScripted
		} else {
			p.Kind = dexter.PlayerHuman
		}
		c.Players[pid] = p
	}
	intents, err := d.Step(c)
	if err != nil {
		return nil, err
	}
	var out []dexter.Intent
	for _, in := range intents {
		if in.Player == id {
			out = append(out, in)
		}
	}
	if len(out) == 0 && g.Status() == dexter.StatusResults {
		out = append(out, dexter.Intent{Kind: dexter.IntentNextRound, Player: id})
	}
	return out, nil
}

func TestCreateGame(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()

	view, err := env.games.CreateGame(ctx, "host", "Host", CreateGameRequest{Name: "  Friday  ", Public: true})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	g := view.Game
	if g.Name != "Friday" {
		t.Errorf("expected trimmed name, got %q", g.Name)
	}
	if g.Settings.Capacity != dexter.MaxPlayers {
		t.Errorf("expected default capacity %d, got %d", dexter.MaxPlayers, g.Settings.Capacity)
	}
	if g.Host() != "host" || view.Status != dexter.StatusLobby {
		t.Errorf("expected host seated in lobby, got host=%q status=%s", g.Host(), view.Status)
	}
	if _, ok := env.cache.games[g.ID]; !ok {
		t.Error("expected new game in live cache")
	}

	if _, err := env.games.CreateGame(ctx, "host", "Host", CreateGameRequest{Name: ""}); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
	if _, err := env.games.CreateGame(ctx, "host", "Host", CreateGameRequest{Name: "x", Capacity: 13}); !errors.Is(err, dexter.ErrPlayerCountOutOfRange) {
		t.Errorf("expected ErrPlayerCountOutOfRange, got %v", err)
	}
}

func TestJoinGame(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()

	view, err := env.games.CreateGame(ctx, "host", "Host", CreateGameRequest{Name: "Small", Capacity: 5})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	id := view.Game.ID
	for i := 1; i <= 4; i++ {
		if _, err := env.games.JoinGame(ctx, id, fmt.Sprintf("p%d", i), "P"); err != nil {
			t.Fatalf("JoinGame %d: %v", i, err)
		}
	}
	if _, err := env.games.JoinGame(ctx, id, "p1", "P"); !errors.Is(err, dexter.ErrAlreadyJoined) {
		t.Errorf("expected ErrAlreadyJoined, got %v", err)
	}
	if _, err := env.games.JoinGame(ctx, id, "p9", "P"); !errors.Is(err, dexter.ErrGameFull) {
		t.Errorf("expected ErrGameFull, got %v", err)
	}
	if _, err := env.games.JoinGame(ctx, "missing", "p9", "P"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("expected ErrGameNotFound, got %v", err)
	}
	if n := env.bc.count(EventGameUpdated); n != 4 {
		t.Errorf("expected 4 game_updated events, got %d", n)
	}
}

func TestAddScriptedPlayer(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()
	id := env.lobbyWith(t, 1, 2)

	g := env.load(t, id)
	if len(g.PlayerOrder) != 4 {
		t.Fatalf("expected 4 seats, got %d", len(g.PlayerOrder))
	}
	names := map[string]bool{}
	for _, pid := range g.PlayerOrder {
		if p := g.Players[pid]; p.IsScripted() {
			names[p.Name] = true
		}
	}
	if !names["Bot 1"] || !names["Bot 2"] {
		t.Errorf("expected Bot 1 and Bot 2, got %v", names)
	}

	if _, err := env.games.AddScriptedPlayer(ctx, id, "p1"); !errors.Is(err, ErrNotHost) {
		t.Errorf("expected ErrNotHost, got %v", err)
	}

	botID := g.PlayerOrder[3]
	if err := env.games.RemoveScriptedPlayer(ctx, id, "host", botID); err != nil {
		t.Fatalf("RemoveScriptedPlayer: %v", err)
	}
	if err := env.games.RemoveScriptedPlayer(ctx, id, "host", "p1"); !errors.Is(err, dexter.ErrInvalidSelection) {
		t.Errorf("expected ErrInvalidSelection for a human seat, got %v", err)
	}
}

func TestStartRunsScriptedPlayersUntilAPersonIsNeeded(t *testing.T) {
	env := newTestEnv(t, 7)
	ctx := context.Background()
	id := env.lobbyWith(t, 0, 4)

	if _, err := env.play.StartGame(ctx, id, "p1"); !errors.Is(err, dexter.ErrNotInGame) {
		t.Errorf("expected ErrNotInGame for an unseated starter, got %v", err)
	}
	view, err := env.play.StartGame(ctx, id, "host")
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if view.Status == dexter.StatusLobby {
		t.Fatal("expected game to leave the lobby")
	}
	for _, actor := range view.ActorsToMove {
		if actor != "host" {
			t.Errorf("expected only the person to be pending, got %s in %s", actor, view.Status)
		}
	}
	if n := env.bc.count(EventGameStarted); n != 1 {
		t.Errorf("expected one game_started event, got %d", n)
	}
	if len(view.Game.Roles) != 1 {
		t.Errorf("expected the host to see only their own role, got %d roles", len(view.Game.Roles))
	}
}

func TestFullGameWithOnePerson(t *testing.T) {
	env := newTestEnv(t, 11)
	ctx := context.Background()
	id := env.lobbyWith(t, 0, 5)

	if _, err := env.play.StartGame(ctx, id, "host"); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	driver := bot.NewDriver(bot.NewPolicy(bot.NewRand(3)))
	for i := 0; i < 300; i++ {
		g := env.load(t, id)
		if g.Status() == dexter.StatusGameOver {
			break
		}
		intents, err := humanIntents(g, "host", driver)
		if err != nil {
			t.Fatalf("policy for host: %v", err)
		}
		if len(intents) == 0 {
			t.Fatalf("game waits in %s on %v but the host has nothing to do", g.Status(), g.ActorsToMove())
		}
		for _, in := range intents {
			if _, err := env.play.Act(ctx, id, in); err != nil {
				t.Fatalf("Act %s in %s: %v", in.Kind, g.Status(), err)
			}
		}
	}

	g := env.load(t, id)
	if g.Status() != dexter.StatusGameOver {
		t.Fatalf("expected game over, got %s", g.Status())
	}
	winner, _ := g.Winner()
	if winner != dexter.FactionDexter && winner != dexter.FactionSinister {
		t.Errorf("expected a winning faction, got %q", winner)
	}
	if n := env.bc.count(EventGameEnded); n != 1 {
		t.Errorf("expected one game_ended event, got %d", n)
	}
	stored, _ := env.repo.Load(ctx, id)
	if stored.Version != g.Version {
		t.Errorf("expected Postgres and cache to agree, got %d vs %d", stored.Version, g.Version)
	}
	entries, err := env.games.GameLog(ctx, id, 0)
	if err != nil {
		t.Fatalf("GameLog: %v", err)
	}
	if len(entries) != len(g.Log) {
		t.Errorf("expected %d persisted log entries, got %d", len(g.Log), len(entries))
	}

	// Everyone sees every role once the game is over.
	view, err := env.games.GetGame(ctx, id, "spectator")
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if len(view.Game.Roles) != len(g.PlayerOrder) {
		t.Errorf("expected all roles public after game over, got %d", len(view.Game.Roles))
	}
}

// startedHumanGame returns a started game with five people seated.
func startedHumanGame(t *testing.T, env *testEnv) (string, *dexter.Game) {
	t.Helper()
	id := env.lobbyWith(t, 4, 0)
	if _, err := env.play.StartGame(context.Background(), id, "host"); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	return id, env.load(t, id)
}

func TestDuplicateVoteDoesNotCommit(t *testing.T) {
	env := newTestEnv(t, 5)
	ctx := context.Background()
	id, g := startedHumanGame(t, env)

	k, err := g.RequiredTeamSize()
	if err != nil {
		t.Fatalf("team size: %v", err)
	}
	if _, err := env.play.ProposeTeam(ctx, id, g.CurrentTO, g.PlayerOrder[:k], ""); err != nil {
		t.Fatalf("ProposeTeam: %v", err)
	}
	if _, err := env.play.Vote(ctx, id, "p1", dexter.VoteAgree); err != nil {
		t.Fatalf("Vote: %v", err)
	}
	saves := env.repo.saves
	events := len(env.bc.events)
	if _, err := env.play.Vote(ctx, id, "p1", dexter.VoteAgree); err != nil {
		t.Fatalf("duplicate Vote: %v", err)
	}
	if env.repo.saves != saves {
		t.Errorf("expected no commit for a duplicate vote, got %d saves", env.repo.saves-saves)
	}
	if len(env.bc.events) != events {
		t.Error("expected no broadcast for a duplicate vote")
	}
}

func TestRejectedIntentLeavesGameUntouched(t *testing.T) {
	env := newTestEnv(t, 5)
	ctx := context.Background()
	id, g := startedHumanGame(t, env)

	notTO := g.PlayerOrder[0]
	if notTO == g.CurrentTO {
		notTO = g.PlayerOrder[1]
	}
	saves := env.repo.saves
	_, err := env.play.ProposeTeam(ctx, id, notTO, g.PlayerOrder[:2], "")
	if !errors.Is(err, dexter.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if _, err := env.play.Vote(ctx, id, "p1", dexter.VoteAgree); !errors.Is(err, dexter.ErrInvalidPhaseTransition) {
		t.Errorf("expected ErrInvalidPhaseTransition, got %v", err)
	}
	if env.repo.saves != saves {
		t.Error("expected rejected intents not to commit")
	}
	if after := env.load(t, id); after.Version != g.Version {
		t.Errorf("expected version %d, got %d", g.Version, after.Version)
	}
}

func TestActRejectsScriptedSeat(t *testing.T) {
	env := newTestEnv(t, 5)
	ctx := context.Background()
	id := env.lobbyWith(t, 4, 1)
	if _, err := env.play.StartGame(ctx, id, "host"); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	g := env.load(t, id)
	botID := g.PlayerOrder[5]
	_, err := env.play.Act(ctx, id, dexter.Intent{Kind: dexter.IntentVote, Player: botID, Vote: dexter.VoteAgree})
	if !errors.Is(err, dexter.ErrNotAuthorized) {
		t.Errorf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestLeavingHandsTheTableToScriptedPlayers(t *testing.T) {
	env := newTestEnv(t, 9)
	ctx := context.Background()
	id := env.lobbyWith(t, 0, 5)
	if _, err := env.play.StartGame(ctx, id, "host"); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	if err := env.games.LeaveGame(ctx, id, "host"); err != nil {
		t.Fatalf("LeaveGame: %v", err)
	}
	g := env.load(t, id)
	if g.IsSeated("host") {
		t.Fatal("expected host to be gone")
	}
	if g.Status() != dexter.StatusGameOver {
		t.Fatalf("expected scripted players to finish the game, got %s", g.Status())
	}
	if err := env.games.LeaveGame(ctx, id, g.PlayerOrder[0]); !errors.Is(err, dexter.ErrInvalidPhaseTransition) {
		t.Errorf("expected leaving a finished game to fail, got %v", err)
	}
}

func TestLeavingBelowMinimumAbandons(t *testing.T) {
	env := newTestEnv(t, 5)
	ctx := context.Background()
	id, _ := startedHumanGame(t, env)

	if err := env.games.LeaveGame(ctx, id, "p4"); err != nil {
		t.Fatalf("LeaveGame: %v", err)
	}
	g := env.load(t, id)
	over, ok := g.Phase.(*dexter.GameOver)
	if !ok {
		t.Fatalf("expected game over, got %s", g.Status())
	}
	if over.Winner != "" || over.Reason != "abandoned" {
		t.Errorf("expected abandoned with no winner, got %+v", over)
	}
	if err := env.games.LeaveGame(ctx, id, "nobody"); err == nil {
		t.Error("expected error leaving a game you are not in")
	}
}

func TestGetGameRedactsForViewer(t *testing.T) {
	env := newTestEnv(t, 5)
	ctx := context.Background()
	id, g := startedHumanGame(t, env)

	view, err := env.games.GetGame(ctx, id, "p2")
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if len(view.Game.Roles) != 1 || view.Game.Roles["p2"] != g.Roles["p2"] {
		t.Errorf("expected only p2's own role, got %v", view.Game.Roles)
	}
	if view.Game.ManagementDeck != nil {
		t.Error("expected deck to be hidden")
	}
	if view.Appearances["p2"] != dexter.Appearance(g.Roles["p2"]) {
		t.Errorf("expected own appearance to be exact role, got %s", view.Appearances["p2"])
	}
	if view.TeamSize == 0 {
		t.Error("expected team size during team proposal")
	}

	spectator, err := env.games.GetGame(ctx, id, "stranger")
	if err != nil {
		t.Fatalf("GetGame spectator: %v", err)
	}
	if len(spectator.Game.Roles) != 0 {
		t.Errorf("expected spectator to see no roles, got %v", spectator.Game.Roles)
	}
	for pid, a := range spectator.Appearances {
		if a != dexter.AppearUnknown {
			t.Errorf("expected spectator to see %s as unknown, got %s", pid, a)
		}
	}
}

func TestStaleCacheIsDroppedOnConflict(t *testing.T) {
	env := newTestEnv(t, 5)
	ctx := context.Background()
	id := env.lobbyWith(t, 1, 0)

	stale := env.load(t, id)
	if _, err := env.games.JoinGame(ctx, id, "p2", "Two"); err != nil {
		t.Fatalf("JoinGame: %v", err)
	}
	env.cache.SetGame(ctx, stale)

	_, err := env.games.JoinGame(ctx, id, "p3", "Three")
	if !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if _, ok := env.cache.games[id]; ok {
		t.Fatal("expected stale live copy to be dropped")
	}
	if _, err := env.games.JoinGame(ctx, id, "p3", "Three"); err != nil {
		t.Fatalf("retry JoinGame: %v", err)
	}
	if g := env.load(t, id); len(g.PlayerOrder) != 4 {
		t.Errorf("expected 4 seats, got %d", len(g.PlayerOrder))
	}
}

func TestDeleteGame(t *testing.T) {
	env := newTestEnv(t, 5)
	ctx := context.Background()
	id := env.lobbyWith(t, 1, 0)

	if err := env.games.DeleteGame(ctx, id, "p1"); !errors.Is(err, ErrNotHost) {
		t.Errorf("expected ErrNotHost, got %v", err)
	}
	if err := env.games.DeleteGame(ctx, id, "host"); err != nil {
		t.Fatalf("DeleteGame: %v", err)
	}
	if _, err := env.games.GetGame(ctx, id, "host"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("expected ErrGameNotFound, got %v", err)
	}
}

func TestListings(t *testing.T) {
	env := newTestEnv(t, 5)
	ctx := context.Background()
	open := env.lobbyWith(t, 1, 0)
	if _, err := env.games.CreateGame(ctx, "p1", "One", CreateGameRequest{Name: "Private", Public: false}); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	games, err := env.games.ListOpen(ctx)
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	if len(games) != 1 || games[0].ID != open {
		t.Errorf("expected only the public lobby, got %+v", games)
	}
	mine, err := env.games.ListMine(ctx, "p1")
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("expected p1 in 2 games, got %d", len(mine))
	}
}

func TestRecoverActiveGames(t *testing.T) {
	env := newTestEnv(t, 13)
	ctx := context.Background()

	g, err := dexter.NewGame("recovered", "Recovered", dexter.Settings{Capacity: 6, Roles: dexter.DefaultRoleToggles()})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	g.AddPlayer(dexter.Player{ID: "host", Name: "Host"})
	for i := 1; i <= 5; i++ {
		g.AddPlayer(dexter.Player{ID: fmt.Sprintf("bot-%d", i), Name: fmt.Sprintf("Bot %d", i), Kind: dexter.PlayerScripted})
	}
	if err := g.Start("host", bot.NewRand(13)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := env.repo.Create(ctx, g); err != nil {
		t.Fatalf("seed repo: %v", err)
	}

	if err := env.play.RecoverActiveGames(ctx); err != nil {
		t.Fatalf("RecoverActiveGames: %v", err)
	}
	cached, ok := env.cache.games["recovered"]
	if !ok {
		t.Fatal("expected live copy to be restored")
	}
	if cached.Version < g.Version {
		t.Errorf("expected version >= %d, got %d", g.Version, cached.Version)
	}
	for _, actor := range cached.ActorsToMove() {
		if actor != "host" {
			t.Errorf("expected scripted moves to be resumed, %s still pending", actor)
		}
	}
}

func TestRelayBroadcasterPublishesEnvelope(t *testing.T) {
	bus := &mockEventBus{}
	relay := NewRelayBroadcaster(bus)
	relay.BroadcastGameEvent("g1", EventGameUpdated, map[string]int{"version": 3})

	msgs := bus.messages["g1"]
	if len(msgs) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(msgs))
	}
	var msg RelayMessage
	if err := json.Unmarshal(msgs[0], &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != EventGameUpdated || msg.GameID != "g1" || string(msg.Data) != `{"version":3}` {
		t.Errorf("unexpected envelope: %+v", msg)
	}
}
