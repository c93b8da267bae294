package dexter

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func pid(i int) string { return fmt.Sprintf("p%d", i) }

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = pid(i + 1)
	}
	return out
}

// seatPlayers creates a lobby with n human players p1..pn; p1 is host.
func seatPlayers(t *testing.T, n int, toggles RoleToggles) *Game {
	t.Helper()
	g, err := NewGame("g1", "Test", Settings{Capacity: max(n, MinPlayers), Public: true, Roles: toggles})
	require.NoError(t, err)
	for _, id := range ids(n) {
		require.NoError(t, g.AddPlayer(Player{ID: id, Name: "Player " + id[1:]}))
	}
	return g
}

// startedGame starts a game with the given roles assigned to p1..pn in order
// and p1 holding the TO token.
func startedGame(t *testing.T, roles ...Role) *Game {
	t.Helper()
	g := seatPlayers(t, len(roles), RoleToggles{})
	require.NoError(t, g.Start("p1", rand.New(rand.NewSource(1))))
	for i, r := range roles {
		g.Roles[pid(i+1)] = r
	}
	g.CurrentTO = "p1"
	return g
}

// sixPlayers is the default 6-player table: p1 Duke, p2-p3 LoyalDexter,
// p4-p6 SinisterSpy.
func sixPlayers(t *testing.T) *Game {
	return startedGame(t, Duke, LoyalDexter, LoyalDexter, SinisterSpy, SinisterSpy, SinisterSpy)
}

// approveTeam has the TO propose team and everyone agree.
func approveTeam(t *testing.T, g *Game, target string, team ...string) {
	t.Helper()
	require.NoError(t, g.ProposeTeam(g.CurrentTO, team, target))
	for _, id := range g.PlayerOrder {
		require.NoError(t, g.SubmitVote(id, VoteAgree))
	}
	require.Equal(t, StatusMission, g.Phase.Status())
}

// playStory approves team and has every member play card.
func playStory(t *testing.T, g *Game, card MissionCard, team ...string) {
	t.Helper()
	approveTeam(t, g, "", team...)
	for _, id := range team {
		require.NoError(t, g.SubmitMissionCard(id, card))
	}
}
