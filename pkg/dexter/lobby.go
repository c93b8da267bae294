package dexter

import (
	"fmt"
	"math/rand"
	"slices"
)

// AddPlayer seats a player in the lobby. The first player becomes host.
func (g *Game) AddPlayer(p Player) error {
	if err := g.requirePhase(StatusLobby); err != nil {
		return err
	}
	if p.ID == "" {
		return fmt.Errorf("%w: empty player id", ErrInvalidSelection)
	}
	if g.IsSeated(p.ID) {
		return fmt.Errorf("%w: %s", ErrAlreadyJoined, p.ID)
	}
	if len(g.PlayerOrder) >= g.Settings.Capacity {
		return fmt.Errorf("%w: capacity %d", ErrGameFull, g.Settings.Capacity)
	}
	if p.Kind == "" {
		p.Kind = PlayerHuman
	}
	p.Host = len(g.PlayerOrder) == 0
	p.ManagementCard = ""
	g.Players[p.ID] = p
	g.PlayerOrder = append(g.PlayerOrder, p.ID)
	g.logf("joined", p.ID, "%s joined the game", g.name(p.ID))
	g.touch()
	return nil
}

// Start assigns roles, shuffles the management deck and hands the TO token
// to a random player. Only the host may start.
func (g *Game) Start(actorID string, rng *rand.Rand) error {
	if err := g.requirePhase(StatusLobby); err != nil {
		return err
	}
	if err := g.requireSeated(actorID); err != nil {
		return err
	}
	if !g.Players[actorID].Host {
		return fmt.Errorf("%w: only the host can start the game", ErrNotAuthorized)
	}
	n := len(g.PlayerOrder)
	if n < MinPlayers || n > MaxPlayers {
		return fmt.Errorf("%w: %d players (need %d-%d)", ErrPlayerCountOutOfRange, n, MinPlayers, MaxPlayers)
	}
	roles, err := AssignRoles(g.PlayerOrder, g.Settings.Roles, rng)
	if err != nil {
		return err
	}

	g.Roles = roles
	g.ManagementDeck = NewDeck(rng)
	g.CurrentTO = g.PlayerOrder[rng.Intn(n)]
	g.CurrentStory = 1
	g.Phase = &TeamProposal{}
	g.logf("started", actorID, "Game started with %d players", n)
	g.logf("teamProposal", g.CurrentTO, "%s is TO for story 1", g.name(g.CurrentTO))
	g.touch()
	return nil
}

// RemovePlayer takes a player out of the game. In the lobby the seat is
// simply freed. Mid-game the player's pending vote, card and hand are
// dropped, the TO token and host flag pass to the first remaining player,
// and any phase that was waiting on them is resolved against the reduced
// table. A game that falls below the minimum player count is abandoned.
func (g *Game) RemovePlayer(id string) error {
	if err := g.requireSeated(id); err != nil {
		return err
	}
	name := g.name(id)
	wasHost := g.Players[id].Host
	if card := g.Players[id].ManagementCard; card != "" {
		g.discard(card, "")
	}

	delete(g.Players, id)
	delete(g.Roles, id)
	g.PlayerOrder = slices.DeleteFunc(g.PlayerOrder, func(s string) bool { return s == id })
	g.logf("left", id, "%s left the game", name)

	if wasHost && len(g.PlayerOrder) > 0 {
		next := g.PlayerOrder[0]
		p := g.Players[next]
		p.Host = true
		g.Players[next] = p
		g.logf("host", next, "%s is now host", g.name(next))
	}

	switch g.Phase.(type) {
	case *Lobby, *GameOver:
		g.touch()
		return nil
	}

	if len(g.PlayerOrder) < MinPlayers {
		g.endGame("", "abandoned")
		g.touch()
		return nil
	}
	if g.CurrentTO == id {
		g.CurrentTO = g.PlayerOrder[0]
		g.logf("to", g.CurrentTO, "%s is now TO", g.name(g.CurrentTO))
	}
	g.dropFromOverlay(id)
	g.dropFromPhase(id)
	g.resumeUnderlying()
	g.touch()
	return nil
}

// dropFromOverlay closes an overlay owned by the leaver and returns any CEO
// candidates to the discard pile.
func (g *Game) dropFromOverlay(id string) {
	if g.Overlay == nil || g.Overlay.OverlayActor() != id {
		return
	}
	if ceo, ok := g.Overlay.(*CeoCardPlay); ok {
		for _, c := range ceo.Candidates {
			g.discard(c, "")
		}
	}
	g.logf("overlay", "", "%s closed", g.Overlay.Status())
	g.Overlay = nil
	g.PlayedCard = ""
}

func (g *Game) dropFromPhase(id string) {
	switch p := g.Phase.(type) {
	case *TeamVoting:
		if p.ManagementTarget == id {
			p.ManagementTarget = ""
		}
		if slices.Contains(p.Team, id) || !g.teamSizeHolds(len(p.Team)) {
			g.voidProposal()
			return
		}
		delete(p.Votes, id)
	case *Mission:
		if p.ManagementTarget == id {
			p.ManagementTarget = ""
		}
		p.Team = slices.DeleteFunc(p.Team, func(s string) bool { return s == id })
		delete(p.Cards, id)
		if len(p.Team) == 0 {
			g.voidProposal()
		}
	case detourPhase:
		d := p.detour()
		if d.Actor == id || slices.Contains(d.Team, id) || !g.teamSizeHolds(len(d.Team)) {
			g.voidProposal()
		}
	case *Assassination:
		if p.Sniper == id {
			g.endGame(FactionDexter, "the sniper left")
		}
	}
}

// teamSizeHolds reports whether a team of size k is still legal after the
// table shrank.
func (g *Game) teamSizeHolds(k int) bool {
	want, err := g.RequiredTeamSize()
	return err == nil && want == k
}

// voidProposal discards the current proposal without counting a failed vote.
func (g *Game) voidProposal() {
	g.Overlay = nil
	g.Effects = RoundEffects{}
	g.PlayedCard = ""
	g.Phase = &TeamProposal{}
	g.logf("teamProposal", g.CurrentTO, "Proposal withdrawn; %s proposes again", g.name(g.CurrentTO))
}
