package dexter

import "slices"

// ActorsToMove lists the players the game is waiting on, in seating order.
// Results is omitted since any player may advance it.
func (g *Game) ActorsToMove() []string {
	if g.Overlay != nil {
		return []string{g.Overlay.OverlayActor()}
	}
	switch p := g.Phase.(type) {
	case *TeamProposal:
		return []string{g.CurrentTO}
	case *TeamVoting:
		var out []string
		for _, id := range g.PlayerOrder {
			if _, ok := p.Votes[id]; !ok {
				out = append(out, id)
			}
		}
		return out
	case *Mission:
		var out []string
		for _, id := range g.PlayerOrder {
			if _, ok := p.Cards[id]; !ok && slices.Contains(p.Team, id) {
				out = append(out, id)
			}
		}
		return out
	case detourPhase:
		return []string{p.detour().Actor}
	case *Assassination:
		return []string{p.Sniper}
	}
	return nil
}
